package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Moscow")
	if err != nil {
		panic(err)
	}
}

// force timezone to be MSK because the listing page publishes dates in
// Moscow time and the daily digest hour is defined in MSK, no matter
// where the host happens to run
func Now() time.Time {
	return time.Now().In(Location)
}
