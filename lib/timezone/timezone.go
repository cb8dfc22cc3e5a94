package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Paris")
	if err != nil {
		panic(err)
	}
}

// The archived games are operated from France and render every date
// in French local time, so all scraped dates are interpreted there
// no matter where our servers end up running.
func Now() time.Time {
	return time.Now().In(Location)
}
