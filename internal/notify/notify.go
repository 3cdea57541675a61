// Package notify publishes résumé status transitions to subscribers.
package notify

import (
	"context"
	"time"
)

// Event describes one status transition.
type Event struct {
	ResumeID   string    `json:"resumeId"`
	OwnerID    string    `json:"userId"`
	Status     string    `json:"status"`
	Transition string    `json:"transition"`
	ParseError string    `json:"parseError,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher delivers events. Delivery is best effort; callers log and
// continue on error.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Noop discards events.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }

var _ Publisher = Noop{}
