package date

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the width of an aggregation bucket.
type Granularity int

const (
	Daily Granularity = iota
	Weekly
	Monthly
	Yearly
)

func (g Granularity) String() string {
	switch g {
	case Daily:
		return "day"
	case Weekly:
		return "week"
	case Monthly:
		return "month"
	case Yearly:
		return "year"
	default:
		panic(fmt.Sprintf("unknown granularity %d", g))
	}
}

// ParseGranularity parses a granularity from its caller-facing name.
func ParseGranularity(g string) (Granularity, error) {
	switch strings.ToLower(g) {
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "yearly", "year":
		return Yearly, nil
	default:
		return Daily, fmt.Errorf("unknown granularity %q", g)
	}
}

// BucketKey returns the canonical label of the bucket containing d.
// Labels are "2006-01-02" for days, "2006-W02" (ISO week) for weeks,
// "2006-01" for months and "2006" for years.
func (g Granularity) BucketKey(d Date) string {
	switch g {
	case Daily:
		return d.String()
	case Weekly:
		y, w := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case Monthly:
		return d.time().Format("2006-01")
	case Yearly:
		return d.time().Format("2006")
	default:
		panic(fmt.Sprintf("unknown granularity %d", g))
	}
}

// BucketStart returns the first day of the bucket containing d.
// Weeks start on Monday per ISO 8601.
func (g Granularity) BucketStart(d Date) Date {
	switch g {
	case Daily:
		return d
	case Weekly:
		// Weekday is 0 for Sunday: shift so Monday is the origin.
		shift := (int(d.Weekday()) + 6) % 7
		return d.Add(-shift)
	case Monthly:
		return New(d.Year(), d.Month(), 1)
	case Yearly:
		return New(d.Year(), time.January, 1)
	default:
		panic(fmt.Sprintf("unknown granularity %d", g))
	}
}
