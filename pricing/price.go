// Package pricing picks the applicable price of a listing for a date out of
// its possibly overlapping price intervals.
package pricing

import (
	"bytes"
	"time"

	"github.com/anjiri1684/houserent/models"
)

// Covers reports whether p applies on date.
//
// The loose rule compares month and day only and ignores the year; an
// interval spanning a month boundary never matches. The strict rule compares
// full calendar dates.
func Covers(p models.ObjectPrice, date time.Time, strict bool) bool {
	if p.IsDeleted {
		return false
	}
	if strict {
		d := dateOnly(date)
		return !dateOnly(p.StartDate).After(d) && !dateOnly(p.EndDate).Before(d)
	}
	return p.StartDate.Month() == date.Month() && p.StartDate.Day() <= date.Day() &&
		p.EndDate.Month() == date.Month() && p.EndDate.Day() >= date.Day()
}

// Resolve returns the price of the covering interval with the earliest start
// date. Ties fall back to creation time and then id, so the answer does not
// depend on the order of prices.
func Resolve(prices []models.ObjectPrice, date time.Time, strict bool) (int64, bool) {
	var best *models.ObjectPrice
	for i := range prices {
		p := &prices[i]
		if !Covers(*p, date, strict) {
			continue
		}
		if best == nil || precedes(p, best) {
			best = p
		}
	}
	if best == nil {
		return 0, false
	}
	return best.Price, true
}

// Available reports whether any interval makes the listing eligible for a
// stay. Loose: some interval starts by the check-in or ends after the
// check-out. Strict: some interval contains the whole stay.
func Available(prices []models.ObjectPrice, start, end time.Time, strict bool) bool {
	start, end = dateOnly(start), dateOnly(end)
	for _, p := range prices {
		if p.IsDeleted {
			continue
		}
		startsBy := !dateOnly(p.StartDate).After(start)
		endsAfter := !dateOnly(p.EndDate).Before(end)
		if strict && startsBy && endsAfter {
			return true
		}
		if !strict && (startsBy || endsAfter) {
			return true
		}
	}
	return false
}

func precedes(a, b *models.ObjectPrice) bool {
	as, bs := dateOnly(a.StartDate), dateOnly(b.StartDate)
	if !as.Equal(bs) {
		return as.Before(bs)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
