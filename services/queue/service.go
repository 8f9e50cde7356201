package queue

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"clinicfront/models"

	"go.uber.org/zap"
)

var (
	ErrUnknownAction = errors.New("queue: unknown action")
	ErrNameRequired  = errors.New("queue: name is required")
)

// API is the slice of the clinic API the queue screens use.
type API interface {
	ListQueue(ctx context.Context) ([]models.QueueEntry, error)
	JoinQueue(ctx context.Context, name string) (models.QueueEntry, error)
	AddToQueue(ctx context.Context, in models.QueueEntryInput) (models.QueueEntry, error)
	SetQueueStatus(ctx context.Context, id models.ID, status models.QueueStatus) error
	CompleteQueueEntry(ctx context.Context, id models.ID) error
	DeleteQueueEntry(ctx context.Context, id models.ID) error
	ClearQueue(ctx context.Context) error
	QueueReports(ctx context.Context, query url.Values) ([]models.QueueEntry, error)
}

// Refresher is told when the queue changed so live screens update early.
type Refresher interface {
	Refresh()
}

type noopRefresher struct{}

func (noopRefresher) Refresh() {}

// Service runs dashboard actions against the API.
type Service struct {
	api       API
	refresher Refresher
	logger    *zap.Logger
}

func NewService(api API, refresher Refresher, logger *zap.Logger) *Service {
	if refresher == nil {
		refresher = noopRefresher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, refresher: refresher, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]models.QueueEntry, error) {
	return s.api.ListQueue(ctx)
}

func (s *Service) Join(ctx context.Context, name string) (models.QueueEntry, error) {
	entry, err := s.api.JoinQueue(ctx, name)
	if err != nil {
		return models.QueueEntry{}, fmt.Errorf("queue: join: %w", err)
	}
	s.refresher.Refresh()
	return entry, nil
}

func (s *Service) Add(ctx context.Context, in models.QueueEntryInput) (models.QueueEntry, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return models.QueueEntry{}, ErrNameRequired
	}
	if in.Priority != models.PriorityHigh {
		in.Priority = models.PriorityRegular
	}
	entry, err := s.api.AddToQueue(ctx, in)
	if err != nil {
		return models.QueueEntry{}, fmt.Errorf("queue: add: %w", err)
	}
	s.refresher.Refresh()
	return entry, nil
}

// Apply runs a row action. from is the status the dashboard last saw; an
// action outside the usual workflow is still forwarded and the API decides.
func (s *Service) Apply(ctx context.Context, action string, id models.ID, from models.QueueStatus) error {
	if !KnownAction(action) {
		return ErrUnknownAction
	}
	if from != "" && !ValidTransition(action, from) {
		s.logger.Info("forwarding out-of-workflow queue action",
			zap.String("action", action),
			zap.String("id", id.String()),
			zap.String("from", string(from)))
	}

	var err error
	switch action {
	case ActionServe:
		err = s.api.SetQueueStatus(ctx, id, models.StatusServing)
	case ActionDone:
		err = s.api.CompleteQueueEntry(ctx, id)
	case ActionNoShow:
		err = s.api.SetQueueStatus(ctx, id, models.StatusNoShow)
	case ActionDelete:
		err = s.api.DeleteQueueEntry(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("queue: %s %s: %w", action, id, err)
	}
	s.refresher.Refresh()
	return nil
}

func (s *Service) Clear(ctx context.Context) error {
	if err := s.api.ClearQueue(ctx); err != nil {
		return fmt.Errorf("queue: clear: %w", err)
	}
	s.refresher.Refresh()
	return nil
}

// Reports fetches archived entries for the filter.
func (s *Service) Reports(ctx context.Context, f ReportFilter) ([]models.QueueEntry, error) {
	rows, err := s.api.QueueReports(ctx, f.Query())
	if err != nil {
		return nil, fmt.Errorf("queue: reports: %w", err)
	}
	return rows, nil
}
