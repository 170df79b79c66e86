package builtin

import (
	"math"
	"strings"
	"time"

	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/types"
)

var (
	epoch1904       = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
	epoch1900       = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	epoch1900Minus1 = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
)

// maxSerial is 9999-12-31 in the 1900 system.
const maxSerial = 2958465

// fromSerial converts a serial day number to a time. In the 1900 system
// serials from 60 on are shifted by one day to absorb the fictitious
// 1900-02-29.
func (c *config) fromSerial(serial float64) (time.Time, bool) {
	if serial < 0 || serial > maxSerial || math.IsNaN(serial) {
		return time.Time{}, false
	}
	epoch := epoch1900Minus1
	switch {
	case c.date1904:
		epoch = epoch1904
	case serial < 60:
		epoch = epoch1900
	}
	days := math.Floor(serial)
	ms := math.Round((serial - days) * 86400000)
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(ms) * time.Millisecond), true
}

// toSerial is the inverse of fromSerial.
func (c *config) toSerial(t time.Time) float64 {
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	epoch := epoch1900Minus1
	if c.date1904 {
		epoch = epoch1904
	}
	serial := t.Sub(epoch).Hours() / 24
	if !c.date1904 && serial < 61 {
		serial--
	}
	return serial
}

// dateLayouts are the text forms DATEVALUE and date arguments accept.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateArg reads a date argument: a Date, a serial number, or date text.
func (c *config) dateArg(v types.Value) (time.Time, types.Value) {
	switch {
	case v.IsDate():
		return v.Time(), types.Value{}
	case v.IsText():
		if t, ok := parseDate(v.Str()); ok {
			return t, types.Value{}
		}
	}
	n, e := functions.NumberArg(v)
	if e.IsError() {
		return time.Time{}, e
	}
	t, ok := c.fromSerial(n)
	if !ok {
		return time.Time{}, types.NewError(types.ErrNum)
	}
	return t, types.Value{}
}
