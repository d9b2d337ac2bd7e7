// Package retention defines message age thresholds and the retention
// policies built from them.
package retention

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unit is the granularity of a message age threshold.
type Unit int

const (
	Days Unit = iota
	Weeks
	Months
	Years
)

func (u Unit) String() string {
	switch u {
	case Days:
		return "days"
	case Weeks:
		return "weeks"
	case Months:
		return "months"
	case Years:
		return "years"
	}
	return "unknown"
}

func (u Unit) token() string {
	switch u {
	case Days:
		return "d"
	case Weeks:
		return "w"
	case Months:
		return "m"
	case Years:
		return "y"
	}
	return "?"
}

// InvalidAgeError reports a malformed age token. Unit and Count flag which
// half of the token was rejected so callers can say which.
type InvalidAgeError struct {
	Token string
	Unit  bool
	Count bool
}

func (e *InvalidAgeError) Error() string {
	switch {
	case e.Unit && e.Count:
		return fmt.Sprintf("invalid age %q: unrecognized unit and non-positive count", e.Token)
	case e.Unit:
		return fmt.Sprintf("invalid age %q: unit must be one of d, w, m, y", e.Token)
	case e.Count:
		return fmt.Sprintf("invalid age %q: count must be a positive integer", e.Token)
	}
	return fmt.Sprintf("invalid age %q", e.Token)
}

// Age is an immutable message age threshold: a unit and a positive count.
type Age struct {
	unit  Unit
	count int
}

// NewAge constructs an Age from an explicit unit and count.
func NewAge(unit Unit, count int) (Age, error) {
	if unit < Days || unit > Years {
		return Age{}, &InvalidAgeError{Token: fmt.Sprintf("%d:%d", unit, count), Unit: true}
	}
	if count <= 0 {
		return Age{}, &InvalidAgeError{Token: fmt.Sprintf("%s:%d", unit.token(), count), Count: true}
	}
	return Age{unit: unit, count: count}, nil
}

// ParseAge parses a compact age token such as "d:30", "w:13", "m:6" or "y:1".
func ParseAge(token string) (Age, error) {
	unitPart, countPart, ok := strings.Cut(token, ":")
	if !ok {
		return Age{}, &InvalidAgeError{Token: token, Unit: true, Count: true}
	}

	var unit Unit
	unitOK := true
	switch unitPart {
	case "d":
		unit = Days
	case "w":
		unit = Weeks
	case "m":
		unit = Months
	case "y":
		unit = Years
	default:
		unitOK = false
	}

	count, err := strconv.Atoi(countPart)
	countOK := err == nil && count > 0

	if !unitOK || !countOK {
		return Age{}, &InvalidAgeError{Token: token, Unit: !unitOK, Count: !countOK}
	}
	return Age{unit: unit, count: count}, nil
}

// Unit returns the age's unit.
func (a Age) Unit() Unit { return a.unit }

// Count returns the age's count. Zero means the Age is unset.
func (a Age) Count() int { return a.count }

// IsZero reports whether the Age has never been set.
func (a Age) IsZero() bool { return a.count == 0 }

// String renders the compact token form, the inverse of ParseAge.
func (a Age) String() string {
	return fmt.Sprintf("%s:%d", a.unit.token(), a.count)
}

// LabelSuffix renders the conventional label name for this age,
// e.g. "retention/6-months".
func (a Age) LabelSuffix() string {
	return fmt.Sprintf("retention/%d-%s", a.count, a.unit)
}

// Describe renders the age for humans, e.g. "6 months" or "1 year".
func (a Age) Describe() string {
	period := strings.TrimSuffix(a.unit.String(), "s")
	if a.count != 1 {
		period += "s"
	}
	return fmt.Sprintf("%d %s", a.count, period)
}

// CutoffDate returns the day before which a message is older than this age,
// evaluated at now. Days and weeks subtract exact durations; months and
// years subtract calendar units, clamped by time.AddDate normalization.
func (a Age) CutoffDate(now time.Time) time.Time {
	switch a.unit {
	case Days:
		return now.AddDate(0, 0, -a.count)
	case Weeks:
		return now.AddDate(0, 0, -7*a.count)
	case Months:
		return now.AddDate(0, -a.count, 0)
	case Years:
		return now.AddDate(-a.count, 0, 0)
	}
	return now
}

// QueryFragment renders the Gmail search fragment selecting messages older
// than this age, evaluated at now.
func (a Age) QueryFragment(now time.Time) string {
	return "before:" + a.CutoffDate(now).Format("2006-01-02")
}
