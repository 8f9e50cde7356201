// models/queue.go
package models

type Priority string

const (
	PriorityRegular Priority = "regular"
	PriorityHigh    Priority = "priority"
)

type QueueStatus string

const (
	StatusWaiting QueueStatus = "waiting"
	StatusServing QueueStatus = "serving"
	StatusDone    QueueStatus = "done"
	StatusNoShow  QueueStatus = "no_show"
)

// QueueEntry is one walk-in patient as returned by queue/ and queue/reports/.
type QueueEntry struct {
	ID              ID          `json:"id"`
	QueueNumber     Text        `json:"queue_number"`
	Name            string      `json:"name"`
	Age             Text        `json:"age"`
	Notes           string      `json:"notes"`
	Priority        Priority    `json:"priority"`
	Status          QueueStatus `json:"status"`
	SelectedService Text        `json:"selected_service"`
	CreatedAt       Timestamp   `json:"created_at"`
	ServedAt        Timestamp   `json:"served_at"`
}

func (e QueueEntry) IsPriority() bool { return e.Priority == PriorityHigh }

// QueueEntryInput is the body of POST queue/.
type QueueEntryInput struct {
	Name            string   `json:"name"`
	Age             *int     `json:"age,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Priority        Priority `json:"priority"`
	SelectedService string   `json:"selected_service,omitempty"`
}

// QueueJoinInput is the body of POST queue-join/.
type QueueJoinInput struct {
	Name string `json:"name"`
}

// QueueStatusPatch is the body of PATCH queue/<id>/.
type QueueStatusPatch struct {
	Status QueueStatus `json:"status"`
}

// QueueSnapshot is what the live display renders. Seq only orders snapshots
// that share an Epoch; a new Epoch means the server restarted.
type QueueSnapshot struct {
	Epoch     string       `json:"epoch"`
	Seq       uint64       `json:"seq"`
	Serving   *QueueEntry  `json:"serving,omitempty"`
	Waiting   []QueueEntry `json:"waiting"`
	FetchedAt Timestamp    `json:"fetched_at"`
	Stale     bool         `json:"stale"`
}

// NewQueueSnapshot picks the serving entry and the waiting line out of a full list,
// keeping server order.
func NewQueueSnapshot(entries []QueueEntry) QueueSnapshot {
	snap := QueueSnapshot{Waiting: []QueueEntry{}}
	for i := range entries {
		switch entries[i].Status {
		case StatusServing:
			if snap.Serving == nil {
				e := entries[i]
				snap.Serving = &e
			}
		case StatusWaiting:
			snap.Waiting = append(snap.Waiting, entries[i])
		}
	}
	return snap
}

// ServingNumber is empty when nobody is being served.
func (s QueueSnapshot) ServingNumber() string {
	if s.Serving == nil {
		return ""
	}
	return s.Serving.QueueNumber.String()
}
