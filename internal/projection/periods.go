package projection

import (
	"time"

	"github.com/craftmarket/salesagg/internal/core/aggregation"
)

// maxSeriesPeriods bounds one series query (a bit over a year of days).
const maxSeriesPeriods = 400

// periodsBetween walks the periods of granularity g that overlap [start, end),
// oldest first.
func periodsBetween(r *aggregation.Resolver, g aggregation.Granularity, start, end time.Time) ([]aggregation.PeriodKey, error) {
	if !end.After(start) {
		return nil, invalidQueryf("end must be after start")
	}

	p, err := r.Resolve(start, g)
	if err != nil {
		return nil, invalidQueryf("%v", err)
	}

	var periods []aggregation.PeriodKey
	for p.Start.Before(end) {
		if len(periods) == maxSeriesPeriods {
			return nil, invalidQueryf("range spans more than %d %s periods", maxSeriesPeriods, g)
		}
		periods = append(periods, p)

		if p, err = r.Resolve(p.End, g); err != nil {
			return nil, err
		}
	}
	return periods, nil
}
