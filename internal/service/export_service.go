package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"personal-calendar/internal/domain"
	"personal-calendar/internal/export"
	"personal-calendar/internal/storage"
)

const icsContentType = "text/calendar; charset=utf-8"

// PublishConfig points export publishing at a bucket. An empty Bucket
// disables Publish, ListPublished and Revoke.
type PublishConfig struct {
	Bucket    string
	KeyPrefix string
	LinkTTL   time.Duration
}

// PublishedExport is an uploaded calendar and a time-limited link to it.
type PublishedExport struct {
	Key       string
	Location  string
	URL       string
	ExpiresAt time.Time
}

// EventExport is a single rendered event.
type EventExport struct {
	Event domain.Event
	ICS   string
}

// ExportService renders an owner's events and optionally publishes them.
type ExportService interface {
	Calendar(ctx context.Context, ownerID int64) (string, error)
	Event(ctx context.Context, ownerID, id int64) (*EventExport, error)
	CSV(ctx context.Context, ownerID int64) (string, error)
	GoogleLink(ctx context.Context, ownerID, id int64) (string, error)
	Publish(ctx context.Context, ownerID int64) (*PublishedExport, error)
	ListPublished(ctx context.Context, ownerID int64) ([]storage.ObjectInfo, error)
	Revoke(ctx context.Context, ownerID int64) (int, error)
}

type exportService struct {
	events EventService
	store  storage.Service
	cfg    PublishConfig
	now    func() time.Time
}

// NewExportService builds an ExportService. store may be nil when
// publishing is disabled.
func NewExportService(events EventService, store storage.Service, cfg PublishConfig) ExportService {
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 24 * time.Hour
	}
	return &exportService{
		events: events,
		store:  store,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *exportService) Calendar(ctx context.Context, ownerID int64) (string, error) {
	events, err := s.events.List(ctx, ownerID)
	if err != nil {
		return "", err
	}
	return export.ICS(events...), nil
}

func (s *exportService) Event(ctx context.Context, ownerID, id int64) (*EventExport, error) {
	event, err := s.events.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return &EventExport{Event: *event, ICS: export.ICS(*event)}, nil
}

func (s *exportService) CSV(ctx context.Context, ownerID int64) (string, error) {
	events, err := s.events.List(ctx, ownerID)
	if err != nil {
		return "", err
	}
	return export.CSV(events), nil
}

func (s *exportService) GoogleLink(ctx context.Context, ownerID, id int64) (string, error) {
	event, err := s.events.Get(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	return export.GoogleCalendarLink(*event), nil
}

func (s *exportService) Publish(ctx context.Context, ownerID int64) (*PublishedExport, error) {
	if !s.enabled() {
		return nil, ErrPublishingDisabled
	}

	body, err := s.Calendar(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	key := path.Join(s.ownerPrefix(ownerID), uuid.NewString()+".ics")
	location, err := s.store.Upload(ctx, storage.Object{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: icsContentType,
		Body:        strings.NewReader(body),
	})
	if err != nil {
		return nil, fmt.Errorf("publish calendar: %w", err)
	}

	link, err := s.store.PresignGet(ctx, s.cfg.Bucket, key, s.cfg.LinkTTL)
	if err != nil {
		return nil, fmt.Errorf("publish calendar: %w", err)
	}

	return &PublishedExport{
		Key:       key,
		Location:  location,
		URL:       link,
		ExpiresAt: s.now().UTC().Add(s.cfg.LinkTTL),
	}, nil
}

func (s *exportService) ListPublished(ctx context.Context, ownerID int64) ([]storage.ObjectInfo, error) {
	if !s.enabled() {
		return nil, ErrPublishingDisabled
	}
	objects, err := s.store.ListObjects(ctx, s.cfg.Bucket, s.ownerPrefix(ownerID)+"/")
	if err != nil {
		return nil, fmt.Errorf("list published calendars: %w", err)
	}
	if objects == nil {
		objects = []storage.ObjectInfo{}
	}
	return objects, nil
}

func (s *exportService) Revoke(ctx context.Context, ownerID int64) (int, error) {
	if !s.enabled() {
		return 0, ErrPublishingDisabled
	}
	n, err := s.store.DeletePrefix(ctx, s.cfg.Bucket, s.ownerPrefix(ownerID)+"/")
	if err != nil {
		return n, fmt.Errorf("revoke published calendars: %w", err)
	}
	return n, nil
}

func (s *exportService) enabled() bool {
	return s.store != nil && s.cfg.Bucket != ""
}

func (s *exportService) ownerPrefix(ownerID int64) string {
	return path.Join(s.cfg.KeyPrefix, fmt.Sprintf("%d", ownerID))
}
