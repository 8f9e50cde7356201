package content

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"clinicfront/models"
	"clinicfront/services/clinicapi"
	"clinicfront/services/storage"

	"go.uber.org/zap"
)

// API is the record-level slice of the clinic API.
type API interface {
	ListRecords(ctx context.Context, collection string) ([]clinicapi.Record, error)
	GetRecord(ctx context.Context, collection string, id models.ID) (clinicapi.Record, error)
	SaveRecord(ctx context.Context, collection string, id models.ID, payload map[string]any, form *clinicapi.Form) error
	PatchRecord(ctx context.Context, collection string, id models.ID, payload map[string]any) error
	DeleteRecord(ctx context.Context, collection string, id models.ID) error
}

// Manager runs list / save / delete for any Resource.
type Manager struct {
	api      API
	uploader storage.Uploader
	logger   *zap.Logger
}

// NewManager wires the manager. uploader may be nil, in which case files go
// to the API inside the multipart body.
func NewManager(api API, uploader storage.Uploader, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{api: api, uploader: uploader, logger: logger}
}

// RecordID reads the "id" of a record.
func RecordID(rec clinicapi.Record) models.ID {
	return models.ID(Display(rec["id"]))
}

func recordOrder(rec clinicapi.Record) int {
	n, _ := strconv.Atoi(Display(rec["order"]))
	return n
}

func (m *Manager) List(ctx context.Context, res Resource) ([]clinicapi.Record, error) {
	recs, err := m.api.ListRecords(ctx, res.Path)
	if err != nil {
		return nil, fmt.Errorf("content: list %s: %w", res.Key, err)
	}
	if res.Ordered {
		sort.SliceStable(recs, func(i, j int) bool { return recordOrder(recs[i]) < recordOrder(recs[j]) })
	}
	return recs, nil
}

// First returns the record a singleton resource edits.
func (m *Manager) First(ctx context.Context, res Resource) (clinicapi.Record, bool, error) {
	recs, err := m.List(ctx, res)
	if err != nil || len(recs) == 0 {
		return nil, false, err
	}
	return recs[0], true, nil
}

func (m *Manager) Get(ctx context.Context, res Resource, id models.ID) (clinicapi.Record, error) {
	rec, err := m.api.GetRecord(ctx, res.Path, id)
	if err != nil {
		return nil, fmt.Errorf("content: get %s %s: %w", res.Key, id, err)
	}
	return rec, nil
}

// Save creates (empty id) or updates a record.
func (m *Manager) Save(ctx context.Context, res Resource, id models.ID, sub Submission) error {
	if m.uploader != nil && len(sub.Files) > 0 {
		if err := m.uploadFiles(ctx, res, &sub); err != nil {
			return err
		}
	}
	if err := m.api.SaveRecord(ctx, res.Path, id, sub.Payload, sub.Form()); err != nil {
		return fmt.Errorf("content: save %s: %w", res.Key, err)
	}
	m.logger.Info("content saved", zap.String("resource", res.Key), zap.String("id", id.String()))
	return nil
}

// uploadFiles swaps every file for the URL the uploader returns.
func (m *Manager) uploadFiles(ctx context.Context, res Resource, sub *Submission) error {
	for _, part := range sub.Files {
		link, err := m.uploader.Upload(ctx, res.Key, part.Filename, part.Reader)
		if err != nil {
			return fmt.Errorf("content: upload %s: %w", part.Field, err)
		}
		sub.Payload[part.Field] = link
		if sub.Values == nil {
			sub.Values = url.Values{}
		}
		sub.Values.Set(part.Field, link)
	}
	sub.Files = nil
	return nil
}

func (m *Manager) Delete(ctx context.Context, res Resource, id models.ID) error {
	if err := m.api.DeleteRecord(ctx, res.Path, id); err != nil {
		return fmt.Errorf("content: delete %s %s: %w", res.Key, id, err)
	}
	m.logger.Info("content deleted", zap.String("resource", res.Key), zap.String("id", id.String()))
	return nil
}

// Options resolves select choices, loading OptionsFrom collections.
func (m *Manager) Options(ctx context.Context, f Field) ([]Option, error) {
	if f.OptionsFrom == "" {
		return f.Options, nil
	}
	recs, err := m.api.ListRecords(ctx, f.OptionsFrom)
	if err != nil {
		return nil, fmt.Errorf("content: options %s: %w", f.Name, err)
	}
	opts := make([]Option, 0, len(recs))
	for _, rec := range recs {
		label := Display(rec["name"])
		if label == "" {
			label = Display(rec["title"])
		}
		opts = append(opts, Option{Value: RecordID(rec).String(), Label: label})
	}
	return opts, nil
}
