package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/calendar"
)

type calendarRepository struct {
	db *sqlx.DB
}

var _ calendar.Repository = (*calendarRepository)(nil)

func NewCalendarRepository(db *sqlx.DB) calendar.Repository {
	return &calendarRepository{db: db}
}

func (repo *calendarRepository) ListContentItems(ctx context.Context) ([]calendar.ContentItem, error) {
	items := make([]calendar.ContentItem, 0)
	err := repo.db.SelectContext(ctx, &items, `SELECT * FROM content_item ORDER BY created_at`)
	return items, storeError("ListContentItems", err)
}

func (repo *calendarRepository) GetContentItem(ctx context.Context, id string) (calendar.ContentItem, error) {
	var c calendar.ContentItem
	err := repo.db.GetContext(ctx, &c, `SELECT * FROM content_item WHERE id = $1`, id)
	return c, storeError("GetContentItem", err)
}

func (repo *calendarRepository) CreateContentItem(ctx context.Context, c calendar.ContentItem) (calendar.ContentItem, error) {
	var stored calendar.ContentItem
	err := repo.db.GetContext(ctx, &stored, `
		INSERT INTO content_item (title, type, description)
		VALUES ($1, $2, $3)
		RETURNING *`,
		c.Title, c.Type, c.Description,
	)
	return stored, storeError("CreateContentItem", err)
}

func (repo *calendarRepository) DeleteContentItem(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM content_item WHERE id = $1`, id)
	return affected("DeleteContentItem", res, err)
}

func (repo *calendarRepository) ListEvents(ctx context.Context, filter calendar.EventFilter) ([]calendar.Event, error) {
	q := `SELECT * FROM calendar_event WHERE true`
	args := make([]interface{}, 0, 4)
	if !filter.From.IsZero() {
		q += ` AND scheduled_at >= ?`
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		q += ` AND scheduled_at < ?`
		args = append(args, filter.To.UTC())
	}
	if filter.Platform != "" {
		q += ` AND platform = ?`
		args = append(args, filter.Platform)
	}
	if filter.ContentID != "" {
		q += ` AND content_id = ?`
		args = append(args, filter.ContentID)
	}
	q += ` ORDER BY ` + core.OrderBy(core.DBOrdering{Field: "scheduled_at", Ascending: true}, core.DBOrdering{Field: "id", Ascending: true})

	events := make([]calendar.Event, 0)
	err := repo.db.SelectContext(ctx, &events, repo.db.Rebind(q), args...)
	return events, storeError("ListEvents", err)
}

func (repo *calendarRepository) GetEvent(ctx context.Context, id string) (calendar.Event, error) {
	var e calendar.Event
	err := repo.db.GetContext(ctx, &e, `SELECT * FROM calendar_event WHERE id = $1`, id)
	return e, storeError("GetEvent", err)
}

func (repo *calendarRepository) CreateEvent(ctx context.Context, e calendar.Event) (calendar.Event, error) {
	var stored calendar.Event
	err := repo.db.GetContext(ctx, &stored, `
		INSERT INTO calendar_event (content_id, platform, profile, scheduled_at, caption, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`,
		e.ContentID, e.Platform, e.Profile, e.ScheduledAt.UTC(), e.Caption, e.Status,
	)
	return stored, storeError("CreateEvent", err)
}

func (repo *calendarRepository) UpdateEvent(ctx context.Context, e calendar.Event) (calendar.Event, error) {
	var stored calendar.Event
	err := repo.db.GetContext(ctx, &stored, `
		UPDATE calendar_event
		SET platform = $2, profile = $3, scheduled_at = $4, caption = $5, status = $6, updated_at = now()
		WHERE id = $1
		RETURNING *`,
		e.ID, e.Platform, e.Profile, e.ScheduledAt.UTC(), e.Caption, e.Status,
	)
	return stored, storeError("UpdateEvent", err)
}

func (repo *calendarRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM calendar_event WHERE id = $1`, id)
	return affected("DeleteEvent", res, err)
}
