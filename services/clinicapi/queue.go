package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"clinicfront/models"
)

// getList decodes either a bare JSON array or a paginated {"results": [...]}.
func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, path, query, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	if raw[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("clinicapi: decode %s: %w", path, err)
		}
		raw = page.Results
		if len(raw) == 0 {
			return []T{}, nil
		}
	}
	out := []T{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clinicapi: decode %s: %w", path, err)
	}
	return out, nil
}

func entryPath(id models.ID) string {
	return "queue/" + url.PathEscape(id.String()) + "/"
}

// ListQueue returns every entry in server order.
func (c *Client) ListQueue(ctx context.Context) ([]models.QueueEntry, error) {
	return getList[models.QueueEntry](ctx, c, "queue/", nil)
}

// JoinQueue is the public self-service join.
func (c *Client) JoinQueue(ctx context.Context, name string) (models.QueueEntry, error) {
	var entry models.QueueEntry
	err := c.Do(ctx, http.MethodPost, "queue-join/", models.QueueJoinInput{Name: name}, &entry)
	return entry, err
}

// AddToQueue is the staff add form.
func (c *Client) AddToQueue(ctx context.Context, in models.QueueEntryInput) (models.QueueEntry, error) {
	var entry models.QueueEntry
	err := c.Do(ctx, http.MethodPost, "queue/", in, &entry)
	return entry, err
}

// SetQueueStatus flips status without archiving.
func (c *Client) SetQueueStatus(ctx context.Context, id models.ID, status models.QueueStatus) error {
	return c.Do(ctx, http.MethodPatch, entryPath(id), models.QueueStatusPatch{Status: status}, nil)
}

// CompleteQueueEntry marks the entry done and archives it into the reports.
func (c *Client) CompleteQueueEntry(ctx context.Context, id models.ID) error {
	return c.Do(ctx, http.MethodPost, "queue/serve/"+url.PathEscape(id.String())+"/", nil, nil)
}

func (c *Client) DeleteQueueEntry(ctx context.Context, id models.ID) error {
	return c.Do(ctx, http.MethodDelete, entryPath(id), nil, nil)
}

// ClearQueue removes every entry regardless of status.
func (c *Client) ClearQueue(ctx context.Context) error {
	return c.Do(ctx, http.MethodDelete, "queue/clear/", nil, nil)
}

// QueueReports lists archived entries. query is built by queue.ReportFilter.
func (c *Client) QueueReports(ctx context.Context, query url.Values) ([]models.QueueEntry, error) {
	return getList[models.QueueEntry](ctx, c, "queue/reports/", query)
}
