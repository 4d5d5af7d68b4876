package aggregation

import (
	"fmt"
	"time"
)

// Resolver maps timestamps to canonical periods in one fixed time zone.
//
// Weeks follow ISO-8601: they start on Monday and are numbered by the ISO
// year, so 2025-12-29 and 2026-01-02 both belong to "2026-W01". The key and
// the range are derived from the same Monday and always agree.
type Resolver struct {
	loc *time.Location
}

// NewResolver creates a resolver bound to loc. A nil loc means UTC.
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{loc: loc}
}

var utcResolver = NewResolver(time.UTC)

// Resolve buckets t using UTC.
func Resolve(t time.Time, g Granularity) (PeriodKey, error) {
	return utcResolver.Resolve(t, g)
}

// Location returns the resolver's time zone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve returns the period of granularity g containing t.
func (r *Resolver) Resolve(t time.Time, g Granularity) (PeriodKey, error) {
	local := t.In(r.loc)
	y, m, d := local.Date()

	switch g {
	case Daily:
		start := time.Date(y, m, d, 0, 0, 0, 0, r.loc)
		return PeriodKey{
			Granularity: g,
			Key:         start.Format("2006-01-02"),
			Start:       start,
			End:         start.AddDate(0, 0, 1),
		}, nil

	case Weekly:
		offset := (int(local.Weekday()) + 6) % 7 // days since Monday
		start := time.Date(y, m, d-offset, 0, 0, 0, 0, r.loc)
		isoYear, isoWeek := start.ISOWeek()
		return PeriodKey{
			Granularity: g,
			Key:         fmt.Sprintf("%04d-W%02d", isoYear, isoWeek),
			Start:       start,
			End:         start.AddDate(0, 0, 7),
		}, nil

	case Monthly:
		start := time.Date(y, m, 1, 0, 0, 0, 0, r.loc)
		return PeriodKey{
			Granularity: g,
			Key:         start.Format("2006-01"),
			Start:       start,
			End:         start.AddDate(0, 1, 0),
		}, nil

	case Yearly:
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, r.loc)
		return PeriodKey{
			Granularity: g,
			Key:         start.Format("2006"),
			Start:       start,
			End:         start.AddDate(1, 0, 0),
		}, nil
	}

	return PeriodKey{}, fmt.Errorf("unknown granularity %q", g)
}

// ResolveAll returns t's period for every granularity, finest first.
func (r *Resolver) ResolveAll(t time.Time) []PeriodKey {
	periods := make([]PeriodKey, 0, len(Granularities))
	for _, g := range Granularities {
		p, _ := r.Resolve(t, g)
		periods = append(periods, p)
	}
	return periods
}

// Parse turns a canonical key back into its period. Keys that are not in
// canonical form (e.g. "2025-W1" or "2025-3") are rejected.
func (r *Resolver) Parse(g Granularity, key string) (PeriodKey, error) {
	var (
		anchor time.Time
		err    error
	)

	switch g {
	case Daily:
		anchor, err = time.ParseInLocation("2006-01-02", key, r.loc)
	case Monthly:
		anchor, err = time.ParseInLocation("2006-01", key, r.loc)
	case Yearly:
		anchor, err = time.ParseInLocation("2006", key, r.loc)
	case Weekly:
		anchor, err = r.isoWeekStart(key)
	default:
		return PeriodKey{}, fmt.Errorf("unknown granularity %q", g)
	}
	if err != nil {
		return PeriodKey{}, fmt.Errorf("invalid %s period key %q: %w", g, key, err)
	}

	p, err := r.Resolve(anchor, g)
	if err != nil {
		return PeriodKey{}, err
	}
	if p.Key != key {
		return PeriodKey{}, fmt.Errorf("invalid %s period key %q: canonical form is %q", g, key, p.Key)
	}
	return p, nil
}

func (r *Resolver) isoWeekStart(key string) (time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(key, "%d-W%d", &year, &week); err != nil {
		return time.Time{}, err
	}
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("week %d out of range", week)
	}

	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, r.loc)
	week1 := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	start := week1.AddDate(0, 0, (week-1)*7)

	if y, w := start.ISOWeek(); y != year || w != week {
		return time.Time{}, fmt.Errorf("year %d has no week %d", year, week)
	}
	return start, nil
}

// ParsePeriodKey reverses a canonical key using UTC.
func ParsePeriodKey(g Granularity, key string) (PeriodKey, error) {
	return utcResolver.Parse(g, key)
}
