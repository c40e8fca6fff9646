package spike

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(ts string) string {
	return Delimiter + "\nPair : XAUUSD\nTime : " + ts + "\nDirection : UP\n"
}

func TestParse_SingleBlock(t *testing.T) {
	t.Parallel()
	events := Parse(block("2024.05.01 09:15"))
	require.Len(t, events, 1)

	want := time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC)
	assert.True(t, events[0].Timestamp.Equal(want), "got %v", events[0].Timestamp)
	assert.Equal(t, 9*60+15, events[0].MinuteOfDay())
}

func TestParse_FlexibleColonSpacing(t *testing.T) {
	t.Parallel()
	tests := []string{
		Delimiter + "Time:2024.05.01 09:15",
		Delimiter + "Time   :   2024.05.01 09:15",
		Delimiter + "Time\t:\t2024.05.01\t09:15",
		Delimiter + "Time :\n2024.05.01 09:15",
		Delimiter + "\nTime :\u00a02024.05.01 09:15\n",
		Delimiter + "\nTime\u00a0: 2024.05.01 09:15\n",
		Delimiter + "\nTime : 2024.05.01\u00a009:15\n",
		Delimiter + "\nTime\u202f:\u2009 2024.05.01\u3000" + "09:15\n",
	}
	for _, in := range tests {
		in := in
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			t.Parallel()
			events := Parse(in)
			require.Len(t, events, 1)
			assert.Equal(t, 555, events[0].MinuteOfDay())
		})
	}
}

func TestParse_DropsMalformedRecords(t *testing.T) {
	t.Parallel()
	raw := strings.Join([]string{
		block("2024.05.01 09:15"),
		Delimiter + "\nTiem : 2024.05.01 10:00\n",  // typo in label
		Delimiter + "\nTime : 2024-05-01 10:00\n",  // wrong date separators
		Delimiter + "\nTime : 2024.5.1 10:00\n",    // not zero padded
		Delimiter + "\nno timestamp at all\n",
		block("2024.02.30 11:00"), // not a calendar date
		block("2024.13.01 11:00"),
		block("2024.05.01 24:00"),
		block("2024.05.01 12:60"),
		block("2024.05.02 23:59"),
	}, "")

	p := ParseReport(raw)
	require.Len(t, p.Events, 2)
	assert.Equal(t, 10, p.Blocks)
	assert.Equal(t, 8, p.Skipped)
	assert.Equal(t, 9*60+15, p.Events[0].MinuteOfDay())
	assert.Equal(t, 23*60+59, p.Events[1].MinuteOfDay())
}

func TestParse_BlankBlocksAreNotCounted(t *testing.T) {
	t.Parallel()
	raw := "  \n" + Delimiter + "   \n\t" + Delimiter + block("2024.05.01 09:15") + Delimiter
	p := ParseReport(raw)
	assert.Equal(t, 1, p.Blocks)
	assert.Equal(t, 0, p.Skipped)
	assert.Len(t, p.Events, 1)
}

func TestParse_PreservesOrderAndDuplicates(t *testing.T) {
	t.Parallel()
	raw := block("2024.05.03 14:10") + block("2024.05.01 09:05") + block("2024.05.03 14:10")
	events := Parse(raw)
	require.Len(t, events, 3)
	assert.Equal(t, 14*60+10, events[0].MinuteOfDay())
	assert.Equal(t, 9*60+5, events[1].MinuteOfDay())
	assert.Equal(t, events[0], events[2])
}

func TestParse_EmptyInput(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("hello world"))
}

func TestParse_TextBeforeFirstDelimiterIsABlock(t *testing.T) {
	t.Parallel()
	// The first split piece is a block like any other.
	events := Parse("Time : 2024.05.01 08:00\n" + block("2024.05.01 09:00"))
	require.Len(t, events, 2)
	assert.Equal(t, 480, events[0].MinuteOfDay())
}

func TestParse_FirstMatchInBlockWins(t *testing.T) {
	t.Parallel()
	events := Parse(Delimiter + "Time : 2024.05.01 08:00\nTime : 2024.05.01 09:00\n")
	require.Len(t, events, 1)
	assert.Equal(t, 480, events[0].MinuteOfDay())
}
