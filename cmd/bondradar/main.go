package main

import (
	"bondradar-backend/cmd/bondradar/cmd"
)

func main() {
	cmd.Execute()
}
