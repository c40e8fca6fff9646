// Package zones finds the time-of-day windows that historically collect the
// most spikes.
package zones

import (
	"sort"

	"spike-zone-bot/spike"
)

// MinutesPerDay is the histogram size.
const MinutesPerDay = 24 * 60

const (
	DefaultWindow   = 20
	DefaultTopZones = 3
)

// Histogram counts events per minute of day.
type Histogram [MinutesPerDay]int

// Total returns the sum of all counters.
func (h *Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// BuildHistogram buckets events by hour*60+minute, ignoring date and seconds.
func BuildHistogram(events []spike.Event) *Histogram {
	var h Histogram
	for _, e := range events {
		h[e.MinuteOfDay()]++
	}
	return &h
}

// WindowScore is the event count of the window [Start, Start+window).
type WindowScore struct {
	Start int `json:"start"`
	Score int `json:"score"`
}

// Result is the outcome of one zone search.
type Result struct {
	Events int           `json:"events"`
	Window int           `json:"window_minutes"`
	Wrap   bool          `json:"wrap_midnight"`
	Zones  []WindowScore `json:"zones"`

	// Histogram is the minute histogram the zones were found in.
	Histogram *Histogram `json:"-"`
}

// End returns the exclusive end minute of z. Without wrapping the value is
// not reduced, so a zone near midnight can end past 1440.
func (r Result) End(z WindowScore) int {
	end := z.Start + r.Window
	if r.Wrap {
		end %= MinutesPerDay
	}
	return end
}

// Finder holds the search parameters. The zero value is not usable; start
// from New or set Window and TopZones.
type Finder struct {
	Window   int
	TopZones int
	// Wrap lets windows run past 23:59 into the next day.
	Wrap bool
}

// New returns a Finder with the default 20 minute window and top 3 zones.
func New() Finder {
	return Finder{Window: DefaultWindow, TopZones: DefaultTopZones}
}

// Find runs histogram, scan, rank and select over events.
func (f Finder) Find(events []spike.Event) Result {
	h := BuildHistogram(events)
	return Result{
		Events: len(events),
		Window: f.Window,
		Wrap:   f.Wrap,
		Zones:  f.Select(Rank(f.Scan(h))),

		Histogram: h,
	}
}

// Scan computes a sliding sum for every window start. Without Wrap that is
// starts 0..1440-Window (windows never cross midnight); with Wrap every one
// of the 1440 starts is scored circularly.
func (f Finder) Scan(h *Histogram) []WindowScore {
	w := f.Window
	if w <= 0 || w > MinutesPerDay {
		return nil
	}
	last := MinutesPerDay - w
	if f.Wrap {
		last = MinutesPerDay - 1
	}
	scores := make([]WindowScore, 0, last+1)

	sum := 0
	for i := 0; i < w; i++ {
		sum += h[i]
	}
	scores = append(scores, WindowScore{Start: 0, Score: sum})
	for i := 1; i <= last; i++ {
		sum += h[(i+w-1)%MinutesPerDay] - h[i-1]
		scores = append(scores, WindowScore{Start: i, Score: sum})
	}
	return scores
}

// Rank sorts scores in place, highest first; equal scores keep ascending
// start order.
func Rank(scores []WindowScore) []WindowScore {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score == scores[j].Score {
			return scores[i].Start < scores[j].Start
		}
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// Select greedily takes positive windows from ranked that are at least one
// window length away from every window already taken.
func (f Finder) Select(ranked []WindowScore) []WindowScore {
	var out []WindowScore
	for _, cand := range ranked {
		if len(out) >= f.TopZones {
			break
		}
		if cand.Score <= 0 {
			continue
		}
		if f.overlapsAny(cand, out) {
			continue
		}
		out = append(out, cand)
	}
	return out
}

func (f Finder) overlapsAny(cand WindowScore, taken []WindowScore) bool {
	for _, z := range taken {
		if f.distance(cand.Start, z.Start) < f.Window {
			return true
		}
	}
	return false
}

func (f Finder) distance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if f.Wrap && MinutesPerDay-d < d {
		d = MinutesPerDay - d
	}
	return d
}
