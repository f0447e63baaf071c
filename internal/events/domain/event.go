package events

import (
	"errors"
	"time"
)

// Event levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Event is an operational event shown in the dashboard feed.
type Event struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Level    string    `json:"level"`
	Message  string    `json:"message"`
	EngineID string    `json:"engine_id,omitempty"`
}

// Validate checks event invariants.
func (e Event) Validate() error {
	if e.ID == "" {
		return errors.New("event: empty id")
	}
	if !ValidLevel(e.Level) {
		return errors.New("event: invalid level")
	}
	if e.Message == "" {
		return errors.New("event: empty message")
	}
	return nil
}

// ValidLevel returns true when level is a known event level.
func ValidLevel(level string) bool {
	switch level {
	case LevelInfo, LevelWarning, LevelError:
		return true
	default:
		return false
	}
}
