package metrics

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// WriteSummary prints every metric that recorded data as an aligned table.
func WriteSummary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tCOUNT\tAVG ms\tMAX ms\tTOTAL ms")
	for _, s := range recorded() {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.3f\n", s.Name, s.Count, ms(s.Avg), ms(s.Max), ms(s.Total))
	}
	for _, c := range AllCacheMetrics() {
		s := c.Stats()
		if s.Hits+s.Misses == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\thits=%d misses=%d\t%.0f%%\t\t\n", s.Name, s.Hits, s.Misses, s.HitRate*100)
	}
	return tw.Flush()
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
