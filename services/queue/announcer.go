package queue

import (
	"time"

	"clinicfront/models"
)

// Announcement is the "now serving" overlay plus sound cue.
type Announcement struct {
	QueueNumber string `json:"queue_number"`
	DurationMS  int64  `json:"duration_ms"`
	Sound       string `json:"sound"`
}

// Announcer remembers the last announced serving number for one display.
// It is not safe for concurrent use; each display owns its own.
type Announcer struct {
	last     string
	duration time.Duration
	sound    string
}

func NewAnnouncer(last string, duration time.Duration, sound string) *Announcer {
	return &Announcer{last: last, duration: duration, sound: sound}
}

// Observe returns an announcement only when the serving number changed.
// An empty serving slot never announces and does not reset the memory.
func (a *Announcer) Observe(snap models.QueueSnapshot) (Announcement, bool) {
	current := snap.ServingNumber()
	if current == "" || current == a.last {
		return Announcement{}, false
	}
	a.last = current
	return Announcement{
		QueueNumber: current,
		DurationMS:  a.duration.Milliseconds(),
		Sound:       a.sound,
	}, true
}

func (a *Announcer) Last() string { return a.last }
