// Package spike parses pasted "Atharizz Signal Spike" channel posts into event timestamps.
package spike

import (
	"regexp"
	"strings"
	"time"
)

// Delimiter marks the start of every record block in the pasted text.
const Delimiter = "Atharizz Signal Spike 📣"

const normalizedLayout = "2006-01-02T15:04"

// Pasted channel posts often carry no-break spaces, so any Unicode space
// separator counts as whitespace.
var timeRe = regexp.MustCompile(`Time[\s\p{Zs}]*:[\s\p{Zs}]*(\d{4}\.\d{2}\.\d{2}[\s\p{Zs}]\d{2}:\d{2})`)

// Event is a single spike. Only its time of day matters to the zone finder.
type Event struct {
	Timestamp time.Time
}

// MinuteOfDay returns hour*60+minute of the event's wall-clock time.
func (e Event) MinuteOfDay() int {
	return e.Timestamp.Hour()*60 + e.Timestamp.Minute()
}

// Parsed is the outcome of parsing one text blob.
type Parsed struct {
	Events []Event
	// Blocks is the number of non-blank record blocks seen.
	Blocks int
	// Skipped counts blocks with no usable Time field.
	Skipped int
}

// Parse returns the events found in raw, in input order. Blocks without a
// valid "Time : YYYY.MM.DD HH:MM" line are dropped.
func Parse(raw string) []Event {
	return ParseReport(raw).Events
}

// ParseReport is Parse with block accounting.
func ParseReport(raw string) Parsed {
	var out Parsed
	for _, block := range strings.Split(raw, Delimiter) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		out.Blocks++
		ts, ok := parseBlock(block)
		if !ok {
			out.Skipped++
			continue
		}
		out.Events = append(out.Events, Event{Timestamp: ts})
	}
	return out
}

func parseBlock(block string) (time.Time, bool) {
	m := timeRe.FindStringSubmatch(block)
	if m == nil {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(normalizedLayout, normalize(m[1]), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// normalize turns "2024.05.01 09:15" into "2024-05-01T09:15".
func normalize(s string) string {
	f := strings.Fields(s)
	if len(f) != 2 {
		return s
	}
	return strings.ReplaceAll(f[0], ".", "-") + "T" + f[1]
}
