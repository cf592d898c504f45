package bankfeed

import (
	"strings"
	"time"

	"github.com/etnz/bankfeed/date"
	"github.com/shopspring/decimal"
)

// amountReplacer strips whitespace (including non-breaking variants) and
// currency glyphs, and converts a comma decimal separator to a period.
var amountReplacer = strings.NewReplacer(
	" ", "",
	"\t", "",
	" ", "", // no-break space
	" ", "", // narrow no-break space
	"€", "",
	"$", "",
	"£", "",
	",", ".",
)

// ParseAmount parses a free-form numeric string as found in real-world bank
// exports ("1 234,56 €", "-32,50"). It is total: any unparseable input
// yields ok=false, never an error or a panic.
func ParseAmount(raw string) (d decimal.Decimal, ok bool) {
	cleaned := amountReplacer.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// dayLayouts are the strict calendar layouts tried in order before the
// permissive fallback. Day-first layouts come before month-first ones
// because the supported exports are predominantly European.
var dayLayouts = []string{
	date.DateFormat,
	"02/01/2006",
	"02/01/06",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
}

// ParseDay parses a free-form date string into a calendar day. Strict
// layouts are tried first, then a permissive generic parse. Like
// ParseAmount it is total: failure is ok=false.
func ParseDay(raw string) (date.Date, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return date.Date{}, false
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return date.FromTime(t), true
		}
	}
	// Permissive fallbacks: single-digit day/month, and full timestamps.
	if d, err := date.Parse(raw); err == nil {
		return d, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2/1/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return date.FromTime(t), true
		}
	}
	return date.Date{}, false
}
