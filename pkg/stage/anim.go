package stage

import (
	"math"
	"time"
)

// animated is a scalar moving from one value to another over a duration
// with an ease-out curve.
type animated struct {
	from, to float64
	start    time.Time
	dur      time.Duration
}

func still(v float64) animated { return animated{from: v, to: v} }

// at returns the eased value at now.
func (a animated) at(now time.Time) float64 {
	if a.dur <= 0 || a.from == a.to {
		return a.to
	}
	p := float64(now.Sub(a.start)) / float64(a.dur)
	switch {
	case p <= 0:
		return a.from
	case p >= 1:
		return a.to
	}
	return a.from + (a.to-a.from)*easeOut(p)
}

func (a animated) done(now time.Time) bool {
	return a.dur <= 0 || a.from == a.to || !now.Before(a.start.Add(a.dur))
}

// easeOut is a cubic ease-out.
func easeOut(p float64) float64 {
	return 1 - math.Pow(1-p, 3)
}

// round trims accumulated floating point error from repeated steps.
func round(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}
