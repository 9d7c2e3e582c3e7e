package utils

import (
	"time"
)

// UnixTimeToTime converts a Unix timestamp to a time.Time object. Zero maps
// to the zero time so optional timestamps pass through cleanly.
func UnixTimeToTime(unixTime int64) time.Time {
	if unixTime == 0 {
		return time.Time{}
	}
	return time.Unix(unixTime, 0)
}
