package model

import (
	"strconv"
	"time"
)

// Record is one synchronized snapshot: exactly one value per registered
// stream, in registered order, stamped at flush time.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Values    []string  `json:"values"`
}

// EpochSeconds formats t as seconds since the Unix epoch with microsecond
// precision, e.g. "1760870400.123456".
func EpochSeconds(t time.Time) string {
	us := t.UnixMicro()
	sec := us / 1_000_000
	frac := us % 1_000_000
	if frac < 0 {
		sec--
		frac += 1_000_000
	}
	s := strconv.FormatInt(frac, 10)
	for len(s) < 6 {
		s = "0" + s
	}
	return strconv.FormatInt(sec, 10) + "." + s
}
