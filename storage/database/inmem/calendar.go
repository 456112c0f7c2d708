package inmemdb

import (
	"context"
	"sort"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/calendar"
)

type calendarRepository struct {
	db *DB
}

var _ calendar.Repository = (*calendarRepository)(nil)

func NewCalendarRepository(db *DB) calendar.Repository {
	return &calendarRepository{db: db}
}

func (repo *calendarRepository) ListContentItems(_ context.Context) ([]calendar.ContentItem, error) {
	done, err := repo.db.begin("ListContentItems", false)
	defer done()
	if err != nil {
		return nil, err
	}
	items := make([]calendar.ContentItem, 0, len(repo.db.contentItems))
	for _, c := range repo.db.contentItems {
		items = append(items, c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (repo *calendarRepository) GetContentItem(_ context.Context, id string) (calendar.ContentItem, error) {
	done, err := repo.db.begin("GetContentItem", false)
	defer done()
	if err != nil {
		return calendar.ContentItem{}, err
	}
	if c, ok := repo.db.contentItems[id]; ok {
		return c, nil
	}
	return calendar.ContentItem{}, notFound("GetContentItem", "content item", id)
}

func (repo *calendarRepository) CreateContentItem(_ context.Context, c calendar.ContentItem) (calendar.ContentItem, error) {
	done, err := repo.db.begin("CreateContentItem", true)
	defer done()
	if err != nil {
		return calendar.ContentItem{}, err
	}
	c.ID = newID()
	c.CreatedAt = repo.db.now()
	repo.db.contentItems[c.ID] = c
	return c, nil
}

func (repo *calendarRepository) DeleteContentItem(_ context.Context, id string) error {
	done, err := repo.db.begin("DeleteContentItem", true)
	defer done()
	if err != nil {
		return err
	}
	if _, ok := repo.db.contentItems[id]; !ok {
		return notFound("DeleteContentItem", "content item", id)
	}
	for _, e := range repo.db.events {
		if e.ContentID == id {
			return constraint("DeleteContentItem", "content item %s is still referenced by event %s", id, e.ID)
		}
	}
	delete(repo.db.contentItems, id)
	return nil
}

func (repo *calendarRepository) ListEvents(_ context.Context, filter calendar.EventFilter) ([]calendar.Event, error) {
	done, err := repo.db.begin("ListEvents", false)
	defer done()
	if err != nil {
		return nil, err
	}
	events := make([]calendar.Event, 0)
	for _, e := range repo.db.events {
		if filter.Match(e) {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ScheduledAt.Before(events[j].ScheduledAt) })
	return events, nil
}

func (repo *calendarRepository) GetEvent(_ context.Context, id string) (calendar.Event, error) {
	done, err := repo.db.begin("GetEvent", false)
	defer done()
	if err != nil {
		return calendar.Event{}, err
	}
	if e, ok := repo.db.events[id]; ok {
		return e, nil
	}
	return calendar.Event{}, notFound("GetEvent", "event", id)
}

func (repo *calendarRepository) CreateEvent(_ context.Context, e calendar.Event) (calendar.Event, error) {
	done, err := repo.db.begin("CreateEvent", true)
	defer done()
	if err != nil {
		return calendar.Event{}, err
	}
	if _, ok := repo.db.contentItems[e.ContentID]; !ok {
		return calendar.Event{}, constraint("CreateEvent", "content item %s does not exist", e.ContentID)
	}
	e.ID = newID()
	e.CreatedAt = repo.db.now()
	e.UpdatedAt = e.CreatedAt
	repo.db.events[e.ID] = e
	return e, nil
}

func (repo *calendarRepository) UpdateEvent(_ context.Context, e calendar.Event) (calendar.Event, error) {
	done, err := repo.db.begin("UpdateEvent", true)
	defer done()
	if err != nil {
		return calendar.Event{}, err
	}
	orig, ok := repo.db.events[e.ID]
	if !ok {
		return calendar.Event{}, notFound("UpdateEvent", "event", e.ID)
	}
	e.ContentID = orig.ContentID
	e.CreatedAt = orig.CreatedAt
	e.UpdatedAt = repo.db.now()
	repo.db.events[e.ID] = e
	return e, nil
}

func (repo *calendarRepository) DeleteEvent(_ context.Context, id string) error {
	done, err := repo.db.begin("DeleteEvent", true)
	defer done()
	if err != nil {
		return err
	}
	if _, ok := repo.db.events[id]; !ok {
		return notFound("DeleteEvent", "event", id)
	}
	delete(repo.db.events, id)
	return nil
}
