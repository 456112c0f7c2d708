package calendar

import (
	"time"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

type EventStatus string

const (
	Scheduled EventStatus = "scheduled"
	Published EventStatus = "published"
	Cancelled EventStatus = "cancelled"
)

var EventStatuses = []string{string(Scheduled), string(Published), string(Cancelled)}

type ContentItem struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Type        string    `json:"type" db:"type"` // post, reel, story, video...
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
}

type Event struct {
	ID          string      `json:"id" db:"id"`
	ContentID   string      `json:"content_id" db:"content_id"`
	Platform    string      `json:"platform" db:"platform"`
	Profile     string      `json:"profile" db:"profile"`
	ScheduledAt time.Time   `json:"scheduled_at" db:"scheduled_at"` // UTC
	Caption     string      `json:"caption" db:"caption"`
	Status      EventStatus `json:"status" db:"status"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

type NewContentItem struct {
	Title       string `json:"title" validate:"notblank"`
	Type        string `json:"type" validate:"notblank"`
	Description string `json:"description"`
}

func (nc *NewContentItem) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Type = core.CleanString(nc.Type, true /* lower */)
	nc.Description = core.CleanString(nc.Description)
	return core.Validate.Struct(nc)
}

type NewEvent struct {
	ContentID   string    `json:"content_id" validate:"required"`
	Platform    string    `json:"platform" validate:"notblank"`
	Profile     string    `json:"profile"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Caption     string    `json:"caption"`
}

func (ne *NewEvent) Validate() error {
	ne.Platform = core.CleanString(ne.Platform, true /* lower */)
	ne.Profile = core.CleanString(ne.Profile)
	ne.ScheduledAt = ne.ScheduledAt.UTC()
	return core.Validate.Struct(ne)
}

type UpdateEvent struct {
	Platform    *string      `json:"platform"`
	Profile     *string      `json:"profile"`
	ScheduledAt *time.Time   `json:"scheduled_at"`
	Caption     *string      `json:"caption"`
	Status      *EventStatus `json:"status" validate:"omitempty,event_status"`
}

func (ue *UpdateEvent) Validate() error {
	if ue.Platform != nil {
		ue.Platform = core.StrPtr(core.CleanString(*ue.Platform, true /* lower */))
	}
	if err := core.CheckNotBlank("platform", ue.Platform); err != nil {
		return err
	}
	if ue.ScheduledAt != nil && ue.ScheduledAt.IsZero() {
		return core.NewValidationError(errInvalidSchedule, core.FieldError{Field: "scheduled_at", Error: errInvalidSchedule.Error()})
	}
	return core.Validate.Struct(ue)
}

func (ue UpdateEvent) Apply(e Event) Event {
	if ue.Platform != nil {
		e.Platform = *ue.Platform
	}
	if ue.Profile != nil {
		e.Profile = core.CleanString(*ue.Profile)
	}
	if ue.ScheduledAt != nil {
		e.ScheduledAt = ue.ScheduledAt.UTC()
	}
	if ue.Caption != nil {
		e.Caption = *ue.Caption
	}
	if ue.Status != nil && *ue.Status != "" {
		e.Status = *ue.Status
	}
	return e
}

// EventFilter narrows ListEvents. Zero times leave the window open on that side; To is exclusive.
type EventFilter struct {
	From      time.Time `query:"from"`
	To        time.Time `query:"to"`
	Platform  string    `query:"platform"`
	ContentID string    `query:"content_id"`
}

func (f EventFilter) Match(e Event) bool {
	switch {
	case !f.From.IsZero() && e.ScheduledAt.Before(f.From):
		return false
	case !f.To.IsZero() && !e.ScheduledAt.Before(f.To):
		return false
	case f.Platform != "" && e.Platform != f.Platform:
		return false
	case f.ContentID != "" && e.ContentID != f.ContentID:
		return false
	}
	return true
}
