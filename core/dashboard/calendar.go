package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/calendar"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
)

// ContentCalendar is the social media calendar: content items and the events publishing them.
type ContentCalendar struct {
	view
	svc *calendar.Service

	filter calendar.EventFilter
	items  []calendar.ContentItem
	events []calendar.Event
}

func NewContentCalendar(svc *calendar.Service, ctrl *optimistic.Controller, logger core.Logger) *ContentCalendar {
	cc := &ContentCalendar{svc: svc}
	cc.init(ctrl, logger)
	return cc
}

// Load fetches every content item and the events inside the filter window.
func (cc *ContentCalendar) Load(ctx context.Context, filter calendar.EventFilter) error {
	var (
		items  []calendar.ContentItem
		events []calendar.Event
	)
	fetch := func(ctx context.Context) error {
		var err error
		if items, err = cc.svc.ListContentItems(ctx); err != nil {
			return errors.Wrap(err, "listing content items")
		}
		events, err = cc.svc.ListEvents(ctx, filter)
		return errors.Wrap(err, "listing events")
	}
	return cc.load(ctx, fetch, func() {
		cc.filter = filter
		cc.items = items
		cc.events = events
	})
}

func (cc *ContentCalendar) reload(ctx context.Context) error {
	cc.mu.RLock()
	filter := cc.filter
	cc.mu.RUnlock()
	return cc.Load(ctx, filter)
}

// Derived views

func (cc *ContentCalendar) ContentItems() []calendar.ContentItem {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return append([]calendar.ContentItem(nil), cc.items...)
}

// Events returns the cached events ordered by scheduled time.
func (cc *ContentCalendar) Events() []calendar.Event {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	events := append([]calendar.Event(nil), cc.events...)
	sortEvents(events)
	return events
}

// Day returns the events scheduled on the calendar day of date, in date's location.
func (cc *ContentCalendar) Day(date time.Time) []calendar.Event {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.AddDate(0, 0, 1)
	window := calendar.EventFilter{From: start, To: end}

	cc.mu.RLock()
	defer cc.mu.RUnlock()
	events := make([]calendar.Event, 0)
	for _, e := range cc.events {
		if window.Match(e) {
			events = append(events, e)
		}
	}
	sortEvents(events)
	return events
}

// ByPlatform groups the cached events by platform.
func (cc *ContentCalendar) ByPlatform() map[string][]calendar.Event {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	groups := make(map[string][]calendar.Event)
	for _, e := range cc.events {
		groups[e.Platform] = append(groups[e.Platform], e)
	}
	for _, events := range groups {
		sortEvents(events)
	}
	return groups
}

func sortEvents(events []calendar.Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].ScheduledAt.Before(events[j].ScheduledAt) })
}

func (cc *ContentCalendar) eventIndex(id string) int {
	return indexOf(len(cc.events), func(i int) bool { return cc.events[i].ID == id })
}

// Actions

func (cc *ContentCalendar) CreateContentItem(ctx context.Context, nc calendar.NewContentItem) optimistic.Outcome {
	if err := nc.Validate(); err != nil {
		return cc.reject("content", err)
	}

	tmpID := newPlaceholderID()
	var stored calendar.ContentItem
	itemIndex := func(id string) int {
		return indexOf(len(cc.items), func(i int) bool { return cc.items[i].ID == id })
	}
	return cc.perform(ctx, optimistic.Mutation{
		Entity: "content",
		Key:    "content:" + tmpID,
		Apply: func() {
			cc.items = append(cc.items, calendar.ContentItem{
				ID: tmpID, Title: nc.Title, Type: nc.Type, Description: nc.Description, CreatedAt: time.Now().UTC(),
			})
		},
		Remote: func(ctx context.Context) (err error) {
			stored, err = cc.svc.CreateContentItem(ctx, nc)
			return err
		},
		Commit: func() {
			if i := itemIndex(tmpID); i >= 0 {
				cc.items[i] = stored
			}
		},
		Revert: func() {
			if i := itemIndex(tmpID); i >= 0 {
				cc.items = append(cc.items[:i], cc.items[i+1:]...)
			}
		},
		Success: "Contenido creado",
	}, cc.reload)
}

func (cc *ContentCalendar) ScheduleEvent(ctx context.Context, ne calendar.NewEvent) optimistic.Outcome {
	if err := ne.Validate(); err != nil {
		return cc.reject("event", err)
	}

	tmpID := newPlaceholderID()
	var stored calendar.Event
	return cc.perform(ctx, optimistic.Mutation{
		Entity: "event",
		Key:    "event:" + tmpID,
		Apply: func() {
			now := time.Now().UTC()
			cc.events = append(cc.events, calendar.Event{
				ID:          tmpID,
				ContentID:   ne.ContentID,
				Platform:    ne.Platform,
				Profile:     ne.Profile,
				ScheduledAt: ne.ScheduledAt,
				Caption:     ne.Caption,
				Status:      calendar.Scheduled,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		},
		Remote: func(ctx context.Context) (err error) {
			stored, err = cc.svc.Schedule(ctx, ne)
			return err
		},
		Commit: func() {
			if i := cc.eventIndex(tmpID); i >= 0 {
				cc.events[i] = stored
			}
		},
		Revert: func() {
			if i := cc.eventIndex(tmpID); i >= 0 {
				cc.events = append(cc.events[:i], cc.events[i+1:]...)
			}
		},
		Success: "Publicación programada",
	}, cc.reload)
}

func (cc *ContentCalendar) UpdateEvent(ctx context.Context, id string, ue calendar.UpdateEvent) optimistic.Outcome {
	if err := ue.Validate(); err != nil {
		return cc.reject("event", err)
	}

	var prev, stored calendar.Event
	return cc.perform(ctx, optimistic.Mutation{
		Entity: "event",
		Key:    "event:" + id,
		Apply: func() {
			if i := cc.eventIndex(id); i >= 0 {
				prev = cc.events[i]
				cc.events[i] = ue.Apply(prev)
			}
		},
		Remote: func(ctx context.Context) (err error) {
			stored, err = cc.svc.UpdateEvent(ctx, id, ue)
			return err
		},
		Commit: func() {
			if i := cc.eventIndex(id); i >= 0 {
				cc.events[i] = stored
			}
		},
		Revert: func() {
			if i := cc.eventIndex(id); i >= 0 && prev.ID != "" {
				cc.events[i] = prev
			}
		},
		Success: "Publicación actualizada",
	}, cc.reload)
}

func (cc *ContentCalendar) CancelEvent(ctx context.Context, id string) optimistic.Outcome {
	status := calendar.Cancelled
	return cc.UpdateEvent(ctx, id, calendar.UpdateEvent{Status: &status})
}

// DeleteEvent removes an event. Its content item stays.
func (cc *ContentCalendar) DeleteEvent(ctx context.Context, id string) optimistic.Outcome {
	var (
		prevIndex = -1
		prev      calendar.Event
	)
	return cc.perform(ctx, optimistic.Mutation{
		Entity: "event",
		Key:    "event:" + id,
		Apply: func() {
			if i := cc.eventIndex(id); i >= 0 {
				prevIndex, prev = i, cc.events[i]
				cc.events = append(cc.events[:i], cc.events[i+1:]...)
			}
		},
		Remote: func(ctx context.Context) error {
			return cc.svc.DeleteEvent(ctx, id)
		},
		Revert: func() {
			if prevIndex >= 0 {
				idx := prevIndex
				if idx > len(cc.events) {
					idx = len(cc.events)
				}
				cc.events = append(cc.events[:idx], append([]calendar.Event{prev}, cc.events[idx:]...)...)
			}
		},
		Success: "Publicación eliminada",
	}, cc.reload)
}
