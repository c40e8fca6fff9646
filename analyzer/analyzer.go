// Package analyzer turns a pasted spike log into a zone report. It enforces
// the minimum event count and records each successful run.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spike-zone-bot/report"
	"spike-zone-bot/spike"
	"spike-zone-bot/zones"
)

// DefaultMinEvents is the smallest event count worth analysing.
const DefaultMinEvents = 10

// ErrInsufficientData is returned when the text holds fewer than MinEvents spikes.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataMessage is the user-facing text for ErrInsufficientData.
const InsufficientDataMessage = "Tahlil uchun ma'lumotlar juda kam."

// Outcome labels passed to Observer.
const (
	OutcomeOK           = "ok"
	OutcomeInsufficient = "insufficient"
)

type Observer interface {
	ObserveAnalysis(outcome string, d time.Duration)
	ObserveParse(events, skipped int)
}

type History interface {
	SaveAnalysis(ctx context.Context, e HistoryEntry) error
}

type HistoryEntry struct {
	ID         string
	ChatID     int64
	Source     string
	AnalyzedAt time.Time
	Events     int
	Skipped    int
	Window     int
	Wrap       bool
	Zones      []zones.WindowScore
}

type Request struct {
	// ChatID is zero for requests that do not come from a chat.
	ChatID int64
	Source string
	Text   string
}

type Report struct {
	ID      string
	Result  zones.Result
	Blocks  int
	Skipped int
	Text    string
}

type Service struct {
	Log       *slog.Logger
	Finder    zones.Finder
	MinEvents int
	History   History
	Observer  Observer
	Now       func() time.Time
}

// New returns a Service with default finder settings.
func New(log *slog.Logger) *Service {
	return &Service{Log: log, Finder: zones.New(), MinEvents: DefaultMinEvents}
}

// Analyze parses req.Text and, given enough events, finds the best zones.
// Fewer than MinEvents events yields ErrInsufficientData. A failing History
// is logged and does not fail the analysis.
func (s *Service) Analyze(ctx context.Context, req Request) (Report, error) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	minEvents := s.MinEvents
	if minEvents <= 0 {
		minEvents = DefaultMinEvents
	}
	finder := s.Finder
	if finder.Window <= 0 || finder.TopZones <= 0 {
		finder = zones.New()
	}
	started := now()

	parsed := spike.ParseReport(req.Text)
	s.observeParse(len(parsed.Events), parsed.Skipped)
	if len(parsed.Events) < minEvents {
		s.observe(OutcomeInsufficient, now().Sub(started))
		log.Info("analysis rejected", "chat_id", req.ChatID, "source", req.Source,
			"events", len(parsed.Events), "blocks", parsed.Blocks, "min_events", minEvents)
		return Report{}, fmt.Errorf("%w: %d of %d events", ErrInsufficientData, len(parsed.Events), minEvents)
	}

	res := finder.Find(parsed.Events)
	rep := Report{
		ID:      uuid.NewString(),
		Result:  res,
		Blocks:  parsed.Blocks,
		Skipped: parsed.Skipped,
		Text:    report.Markdown(res),
	}
	s.observe(OutcomeOK, now().Sub(started))
	log.Info("analysis done", "id", rep.ID, "chat_id", req.ChatID, "source", req.Source,
		"events", res.Events, "skipped", parsed.Skipped, "zones", len(res.Zones))

	if s.History != nil {
		err := s.History.SaveAnalysis(ctx, HistoryEntry{
			ID:         rep.ID,
			ChatID:     req.ChatID,
			Source:     req.Source,
			AnalyzedAt: started.UTC(),
			Events:     res.Events,
			Skipped:    parsed.Skipped,
			Window:     res.Window,
			Wrap:       res.Wrap,
			Zones:      res.Zones,
		})
		if err != nil {
			log.Warn("save analysis failed", "id", rep.ID, "err", err)
		}
	}
	return rep, nil
}

// UserMessage maps an Analyze error to text suitable for a chat reply.
func UserMessage(err error) string {
	if errors.Is(err, ErrInsufficientData) {
		return InsufficientDataMessage
	}
	return err.Error()
}

func (s *Service) observe(outcome string, d time.Duration) {
	if s.Observer != nil {
		s.Observer.ObserveAnalysis(outcome, d)
	}
}

func (s *Service) observeParse(events, skipped int) {
	if s.Observer != nil {
		s.Observer.ObserveParse(events, skipped)
	}
}
