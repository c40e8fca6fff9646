package report

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"spike-zone-bot/zones"
)

func init() {
	color.NoColor = true
}

func TestClock(t *testing.T) {
	t.Parallel()
	tests := map[int]string{0: "00:00", 540: "09:00", 1439: "23:59", 1440: "24:00", 1450: "24:10"}
	for in, want := range tests {
		assert.Equal(t, want, Clock(in))
	}
}

func TestMedal(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "🥇 Oltin Zona", Medal(0))
	assert.Equal(t, "🥉 Bronza Zona", Medal(2))
	assert.Equal(t, "🏅 4-Zona", Medal(3))
}

func TestMarkdown_NoZones(t *testing.T) {
	t.Parallel()
	assert.Equal(t, NoZones, Markdown(zones.Result{Events: 12, Window: 20}))
}

func TestMarkdown_Zones(t *testing.T) {
	t.Parallel()
	res := zones.Result{
		Events: 12,
		Window: 20,
		Zones:  []zones.WindowScore{{Start: 540, Score: 8}, {Start: 1430, Score: 4}},
	}
	out := Markdown(res)

	assert.Contains(t, out, "*12 ta* spike")
	assert.Contains(t, out, "*20 daqiqalik*")
	assert.Contains(t, out, "*🥇 Oltin Zona: `09:00 - 09:20` (Server vaqti)*")
	assert.Contains(t, out, "*🥈 Kumush Zona: `23:50 - 24:10` (Server vaqti)*")
	assert.Contains(t, out, "jami *8 ta* spike bergan")
	assert.Contains(t, out, "`5-10 daqiqa`")
	assert.NotContains(t, out, "Bronza")
	assert.True(t, strings.HasSuffix(out, "qat'iy rioya qiling!_"))
}

func TestMarkdown_WrappedEnd(t *testing.T) {
	t.Parallel()
	res := zones.Result{Events: 10, Window: 20, Wrap: true, Zones: []zones.WindowScore{{Start: 1430, Score: 10}}}
	assert.Contains(t, Markdown(res), "`23:50 - 00:10`")
}

func TestPlain(t *testing.T) {
	t.Parallel()
	res := zones.Result{Events: 3, Window: 20, Zones: []zones.WindowScore{{Start: 60, Score: 3}}}
	out := Plain(res)
	assert.Contains(t, out, "3 spikes, 20 minute window")
	assert.Contains(t, out, "🥇 Oltin Zona  01:00 - 01:20  3")
	assert.Equal(t, NoZones+"\n", Plain(zones.Result{}))
}

func TestHistogram(t *testing.T) {
	t.Parallel()
	var h zones.Histogram
	h[545] = 4
	h[550] = 4
	h[900] = 2
	res := zones.Result{Events: 10, Window: 20, Zones: []zones.WindowScore{{Start: 540, Score: 8}}}

	out := Histogram(&h, res, 30)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "09:00 ^ (  8) "+strings.Repeat("█", 40), lines[2])
	assert.Equal(t, "15:00   (  2) "+strings.Repeat("█", 10), lines[3])
}

func TestHistogram_Empty(t *testing.T) {
	t.Parallel()
	var h zones.Histogram
	assert.Contains(t, Histogram(&h, zones.Result{}, 0), "No spikes")
}
