package main

import (
	"context"
	"errors"
	"os"

	"bondradar-backend/lib/configutil"
	"bondradar-backend/lib/scrapers/smartlab"
	"bondradar-backend/lib/serviceutil"
	"bondradar-backend/lib/telemetry"
	"bondradar-backend/lib/timezone"
	"bondradar-backend/services/bonds"
	"bondradar-backend/services/telegram"

	"github.com/joho/godotenv"
)

type Config struct {
	DefaultCount int `json:"default_count"`
	DigestHour   int `json:"digest_hour"`
}

func main() {
	ctx := serviceutil.SignalContext()

	godotenv.Load()
	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		serviceutil.Fatal(
			"missing bot token",
			errors.New("set BOT_TOKEN in the environment or a .env file"),
		)
	}

	// the bot runs fine on defaults, config.json5 is optional
	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		serviceutil.Fatal("failed to read config", err)
	}

	t, err := telemetry.SetupFromEnv(ctx, "telegramd")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	client, err := smartlab.NewClient(smartlab.ClientOptions{})
	if err != nil {
		serviceutil.Fatal("failed to create listing client", err)
	}

	svc := telegram.NewService(
		telegram.NewClient(token),
		bonds.NewService(
			bonds.ListingFetch(client, smartlab.DefaultMatchers(), timezone.Now),
			bonds.Options{},
		),
		telegram.NewSubscribers(),
		telegram.Options{
			DefaultCount: config.DefaultCount,
			DigestHour:   config.DigestHour,
		},
	)

	err = svc.Run(ctx)
	if err != nil {
		serviceutil.Fatal("bot loop failed", err)
	}
}
