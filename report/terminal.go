package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"spike-zone-bot/zones"
)

const maxBar = 40

// Plain renders res for a terminal, highlighting zone ranks.
func Plain(res zones.Result) string {
	if len(res.Zones) == 0 {
		return NoZones + "\n"
	}
	gold := color.New(color.FgYellow, color.Bold)

	var b strings.Builder
	fmt.Fprintf(&b, "%d spikes, %d minute window\n", res.Events, res.Window)
	b.WriteString(strings.Repeat("─", 50) + "\n")
	for i, z := range res.Zones {
		label := Medal(i)
		if i == 0 {
			label = gold.Sprint(label)
		}
		fmt.Fprintf(&b, "%s  %s - %s  %d\n", label, Clock(z.Start), Clock(res.End(z)), z.Score)
	}
	return b.String()
}

// Histogram draws bucket-minute bars of h. Buckets overlapping a selected
// zone are marked with "^". Empty buckets are left out.
func Histogram(h *zones.Histogram, res zones.Result, bucket int) string {
	if bucket <= 0 {
		bucket = 30
	}
	counts := make([]int, (zones.MinutesPerDay+bucket-1)/bucket)
	peak := 0
	for m, c := range h {
		counts[m/bucket] += c
		if counts[m/bucket] > peak {
			peak = counts[m/bucket]
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Spike pattern (%d-minute resolution)\n", bucket)
	b.WriteString(strings.Repeat("─", 50) + "\n")
	if peak == 0 {
		b.WriteString("No spikes\n")
		return b.String()
	}

	zoneColor := color.New(color.FgYellow)
	barColor := color.New(color.FgCyan)
	for i, c := range counts {
		if c == 0 {
			continue
		}
		start := i * bucket
		mark := "  "
		if inZone(res, start, start+bucket) {
			mark = zoneColor.Sprint("^") + " "
		}
		n := c * maxBar / peak
		if n == 0 {
			n = 1
		}
		fmt.Fprintf(&b, "%s %s(%3d) %s\n", Clock(start), mark, c, barColor.Sprint(strings.Repeat("█", n)))
	}
	return b.String()
}

func inZone(res zones.Result, from, to int) bool {
	for _, z := range res.Zones {
		end := z.Start + res.Window
		if from < end && z.Start < to {
			return true
		}
		// Wrapped zones also cover the start of the day.
		if res.Wrap && end > zones.MinutesPerDay && from < end-zones.MinutesPerDay {
			return true
		}
	}
	return false
}
