package queue

import (
	"context"
	"errors"
	"testing"

	"clinicfront/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTransition(t *testing.T) {
	assert.True(t, ValidTransition(ActionServe, models.StatusWaiting))
	assert.False(t, ValidTransition(ActionServe, models.StatusServing))
	assert.True(t, ValidTransition(ActionDone, models.StatusServing))
	assert.False(t, ValidTransition(ActionDone, models.StatusWaiting))
	assert.True(t, ValidTransition(ActionNoShow, models.StatusWaiting))
	assert.True(t, ValidTransition(ActionDelete, models.StatusNoShow))
	assert.False(t, ValidTransition("promote", models.StatusWaiting))
}

func TestApplyMapsActionsToEndpoints(t *testing.T) {
	var calls []string
	api := &fakeAPI{
		setFn: func(_ context.Context, id models.ID, status models.QueueStatus) error {
			calls = append(calls, "patch "+id.String()+" "+string(status))
			return nil
		},
		completeFn: func(_ context.Context, id models.ID) error {
			calls = append(calls, "serve "+id.String())
			return nil
		},
		deleteFn: func(_ context.Context, id models.ID) error {
			calls = append(calls, "delete "+id.String())
			return nil
		},
	}
	refresher := &countingRefresher{}
	svc := NewService(api, refresher, nil)

	ctx := context.Background()
	require.NoError(t, svc.Apply(ctx, ActionServe, "1", models.StatusWaiting))
	require.NoError(t, svc.Apply(ctx, ActionDone, "1", models.StatusServing))
	require.NoError(t, svc.Apply(ctx, ActionNoShow, "2", models.StatusWaiting))
	require.NoError(t, svc.Apply(ctx, ActionDelete, "3", ""))

	assert.Equal(t, []string{
		"patch 1 serving",
		"serve 1",
		"patch 2 no_show",
		"delete 3",
	}, calls)
	assert.Equal(t, 4, refresher.n)
}

func TestDoneOnWaitingEntryIsForwardedAndErrorSurfaced(t *testing.T) {
	rejected := errors.New("entry is not being served")
	forwarded := false
	api := &fakeAPI{completeFn: func(context.Context, models.ID) error {
		forwarded = true
		return rejected
	}}
	refresher := &countingRefresher{}
	svc := NewService(api, refresher, nil)

	err := svc.Apply(context.Background(), ActionDone, "9", models.StatusWaiting)
	assert.True(t, forwarded)
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, 0, refresher.n)
}

func TestDoneOnWaitingEntryAcceptedByAPI(t *testing.T) {
	svc := NewService(&fakeAPI{}, nil, nil)
	assert.NoError(t, svc.Apply(context.Background(), ActionDone, "9", models.StatusWaiting))
}

func TestApplyRejectsUnknownAction(t *testing.T) {
	svc := NewService(&fakeAPI{}, nil, nil)
	assert.ErrorIs(t, svc.Apply(context.Background(), "promote", "1", ""), ErrUnknownAction)
}

func TestAddValidatesAndDefaultsPriority(t *testing.T) {
	var got models.QueueEntryInput
	api := &fakeAPI{addFn: func(_ context.Context, in models.QueueEntryInput) (models.QueueEntry, error) {
		got = in
		return models.QueueEntry{ID: "4", QueueNumber: "A-004"}, nil
	}}
	svc := NewService(api, nil, nil)

	_, err := svc.Add(context.Background(), models.QueueEntryInput{Name: "   "})
	assert.ErrorIs(t, err, ErrNameRequired)

	entry, err := svc.Add(context.Background(), models.QueueEntryInput{Name: " Wanjiru ", Notes: "follow-up"})
	require.NoError(t, err)
	assert.Equal(t, "A-004", entry.QueueNumber.String())
	assert.Equal(t, "Wanjiru", got.Name)
	assert.Equal(t, models.PriorityRegular, got.Priority)
}

func TestClearRefreshesFeed(t *testing.T) {
	cleared := false
	refresher := &countingRefresher{}
	svc := NewService(&fakeAPI{clearFn: func(context.Context) error {
		cleared = true
		return nil
	}}, refresher, nil)

	require.NoError(t, svc.Clear(context.Background()))
	assert.True(t, cleared)
	assert.Equal(t, 1, refresher.n)
}
