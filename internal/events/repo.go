// Package events records served recommendations as a JSON lines dataset.
package events

import (
	"log/slog"

	"quizrec/internal/score"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Result is one recommended product as recorded in the dataset.
type Result struct {
	ProductID string  `json:"productId"`
	Score     float64 `json:"score"`
}

// Event is one served recommendation request.
type Event struct {
	Session   string
	Preset    string
	Responses score.Responses
	Results   []Result
}

// NewEvent summarizes recommendations into an event.
func NewEvent(session, preset string, responses score.Responses, recommendations []score.Recommendation) Event {
	results := make([]Result, len(recommendations))
	for i, r := range recommendations {
		results[i] = Result{ProductID: r.ID, Score: r.Score}
	}
	return Event{
		Session:   session,
		Preset:    preset,
		Responses: responses,
		Results:   results,
	}
}

// Repository stores events.
type Repository interface {
	Append(e Event)
	Close() error
}

// JSONRepository appends events to a rotating JSON lines file.
type JSONRepository struct {
	lumberjack *lumberjack.Logger
	logger     *slog.Logger
}

// NewJSONRepository writes to file, rotating it at maxSize megabytes and
// keeping maxBackups compressed old files.
func NewJSONRepository(file string, maxSize, maxBackups int) *JSONRepository {
	writer := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	return &JSONRepository{
		lumberjack: writer,
		logger:     slog.New(newJSONLHandler(writer)),
	}
}

func (r *JSONRepository) Append(e Event) {
	attrs := []any{"preset", e.Preset, "responses", e.Responses, "results", e.Results}
	if e.Session != "" {
		attrs = append(attrs, "session", e.Session)
	}
	r.logger.Info("", attrs...)
}

// Close flushes and closes the current file.
func (r *JSONRepository) Close() error {
	return r.lumberjack.Close()
}

// NopRepository discards events. It is used when no dataset file is configured.
type NopRepository struct{}

func (NopRepository) Append(Event) {}

func (NopRepository) Close() error { return nil }
