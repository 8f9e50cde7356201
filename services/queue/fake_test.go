package queue

import (
	"context"
	"net/url"

	"clinicfront/models"
)

type fakeAPI struct {
	listFn     func(ctx context.Context) ([]models.QueueEntry, error)
	joinFn     func(ctx context.Context, name string) (models.QueueEntry, error)
	addFn      func(ctx context.Context, in models.QueueEntryInput) (models.QueueEntry, error)
	setFn      func(ctx context.Context, id models.ID, status models.QueueStatus) error
	completeFn func(ctx context.Context, id models.ID) error
	deleteFn   func(ctx context.Context, id models.ID) error
	clearFn    func(ctx context.Context) error
	reportsFn  func(ctx context.Context, query url.Values) ([]models.QueueEntry, error)
}

func (f *fakeAPI) ListQueue(ctx context.Context) ([]models.QueueEntry, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeAPI) JoinQueue(ctx context.Context, name string) (models.QueueEntry, error) {
	if f.joinFn == nil {
		return models.QueueEntry{}, nil
	}
	return f.joinFn(ctx, name)
}

func (f *fakeAPI) AddToQueue(ctx context.Context, in models.QueueEntryInput) (models.QueueEntry, error) {
	if f.addFn == nil {
		return models.QueueEntry{}, nil
	}
	return f.addFn(ctx, in)
}

func (f *fakeAPI) SetQueueStatus(ctx context.Context, id models.ID, status models.QueueStatus) error {
	if f.setFn == nil {
		return nil
	}
	return f.setFn(ctx, id, status)
}

func (f *fakeAPI) CompleteQueueEntry(ctx context.Context, id models.ID) error {
	if f.completeFn == nil {
		return nil
	}
	return f.completeFn(ctx, id)
}

func (f *fakeAPI) DeleteQueueEntry(ctx context.Context, id models.ID) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeAPI) ClearQueue(ctx context.Context) error {
	if f.clearFn == nil {
		return nil
	}
	return f.clearFn(ctx)
}

func (f *fakeAPI) QueueReports(ctx context.Context, query url.Values) ([]models.QueueEntry, error) {
	if f.reportsFn == nil {
		return nil, nil
	}
	return f.reportsFn(ctx, query)
}

type countingRefresher struct{ n int }

func (c *countingRefresher) Refresh() { c.n++ }
