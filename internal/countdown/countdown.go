// Package countdown computes the time remaining until an event.
package countdown

import (
	"time"
)

// StartedMessage is shown once the event time has passed
const StartedMessage = "Event has started!"

// Breakdown is the remaining time split into whole units
type Breakdown struct {
	Days    int64  `json:"days"`
	Hours   int64  `json:"hours"`
	Minutes int64  `json:"minutes"`
	Seconds int64  `json:"seconds"`
	Started bool   `json:"started"`
	Message string `json:"message,omitempty"`
	Target  string `json:"target"`
}

// Remaining returns the breakdown from now until target.
// Units are floored, so 90 seconds reads as 0 days 0 hours 1 minute 30 seconds.
func Remaining(now, target time.Time) Breakdown {
	b := Breakdown{Target: target.Format(time.RFC3339)}

	distance := target.Sub(now)
	if distance < 0 {
		b.Started = true
		b.Message = StartedMessage
		return b
	}

	ms := distance.Milliseconds()
	b.Days = ms / (24 * 60 * 60 * 1000)
	b.Hours = (ms % (24 * 60 * 60 * 1000)) / (60 * 60 * 1000)
	b.Minutes = (ms % (60 * 60 * 1000)) / (60 * 1000)
	b.Seconds = (ms % (60 * 1000)) / 1000
	return b
}

// Event pairs a target time with a clock
type Event struct {
	target time.Time
	now    func() time.Time
}

// NewEvent creates an event countdown using the wall clock
func NewEvent(target time.Time) *Event {
	return &Event{target: target, now: time.Now}
}

// Target returns the event time
func (e *Event) Target() time.Time {
	return e.target
}

// Now returns the remaining time at the current instant
func (e *Event) Now() Breakdown {
	return Remaining(e.now(), e.target)
}
