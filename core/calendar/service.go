package calendar

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

var (
	eventStatusTag = "event_status"

	errInvalidSchedule = errors.New("scheduled_at cannot be empty")
)

func init() {
	core.RegisterEnum(eventStatusTag, EventStatuses...)
}

type (
	// Repository lists events ordered by scheduled_at ascending. Deleting an event never touches its content item.
	Repository interface {
		ListContentItems(ctx context.Context) ([]ContentItem, error)
		GetContentItem(ctx context.Context, id string) (ContentItem, error)
		CreateContentItem(ctx context.Context, c ContentItem) (ContentItem, error)
		DeleteContentItem(ctx context.Context, id string) error

		ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
		GetEvent(ctx context.Context, id string) (Event, error)
		CreateEvent(ctx context.Context, e Event) (Event, error)
		UpdateEvent(ctx context.Context, e Event) (Event, error)
		DeleteEvent(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) ListContentItems(ctx context.Context) ([]ContentItem, error) {
	return svc.repo.ListContentItems(ctx)
}

func (svc *Service) CreateContentItem(ctx context.Context, nc NewContentItem) (ContentItem, error) {
	if err := nc.Validate(); err != nil {
		return ContentItem{}, err
	}
	return svc.repo.CreateContentItem(ctx, ContentItem{Title: nc.Title, Type: nc.Type, Description: nc.Description})
}

// DeleteContentItem fails with a constraint error while events still reference the item.
func (svc *Service) DeleteContentItem(ctx context.Context, id string) error {
	return svc.repo.DeleteContentItem(ctx, id)
}

func (svc *Service) ListEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	return svc.repo.ListEvents(ctx, filter)
}

// Schedule creates a scheduled event for an existing content item.
func (svc *Service) Schedule(ctx context.Context, ne NewEvent) (Event, error) {
	if err := ne.Validate(); err != nil {
		return Event{}, err
	}
	if _, err := svc.repo.GetContentItem(ctx, ne.ContentID); err != nil {
		return Event{}, pkgerrors.Wrap(err, "getting content item")
	}
	return svc.repo.CreateEvent(ctx, Event{
		ContentID:   ne.ContentID,
		Platform:    ne.Platform,
		Profile:     ne.Profile,
		ScheduledAt: ne.ScheduledAt,
		Caption:     ne.Caption,
		Status:      Scheduled,
	})
}

func (svc *Service) UpdateEvent(ctx context.Context, id string, ue UpdateEvent) (Event, error) {
	if err := ue.Validate(); err != nil {
		return Event{}, err
	}
	ev, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, pkgerrors.Wrap(err, "getting event")
	}
	return svc.repo.UpdateEvent(ctx, ue.Apply(ev))
}

func (svc *Service) Cancel(ctx context.Context, id string) (Event, error) {
	status := Cancelled
	return svc.UpdateEvent(ctx, id, UpdateEvent{Status: &status})
}

func (svc *Service) DeleteEvent(ctx context.Context, id string) error {
	return svc.repo.DeleteEvent(ctx, id)
}
