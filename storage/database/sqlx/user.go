package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	Center       string         `db:"center"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (row userRow) user() user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		IsActive:     row.IsActive,
		Roles:        append([]string{}, row.Roles...),
		Center:       row.Center,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
		LastLogin:    row.LastLogin.Time.UTC(),
	}
}

func lastLogin(usr user.User) null.Time {
	return null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero())
}

func users(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	excl := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excl = append(excl, usr.ID)
	}
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1 AND NOT (id::text = ANY($2)))`,
		email, pq.StringArray(excl),
	)
	if err != nil {
		return storeError("CheckEmailUniqueness", err)
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, `
		INSERT INTO "user" (name, email, is_active, roles, center, password_hash, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *`,
		usr.Name, usr.Email, usr.IsActive, pq.StringArray(usr.Roles), usr.Center, usr.PasswordHash,
		usr.CreatedAt, usr.UpdatedAt, lastLogin(usr),
	)
	if err != nil {
		return user.User{}, storeError("CreateUser", err)
	}
	return row.user(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		return user.User{}, storeError("GetUserByID", err)
	}
	return row.user(), nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE email = $1`, email); err != nil {
		return user.User{}, storeError("GetUserByEmail", err)
	}
	return row.user(), nil
}

func (repo *userRepository) GetUsersByID(ctx context.Context, ids ...string) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}
	var rows []userRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM "user" WHERE id::text = ANY($1)`, pq.StringArray(ids))
	if err != nil {
		return nil, storeError("GetUsersByID", err)
	}
	return users(rows), nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	q := `SELECT * FROM "user" WHERE true`
	args := make([]interface{}, 0, 6)
	if filter.Search != "" {
		q += ` AND (name ILIKE ? OR email ILIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if len(filter.Roles) > 0 {
		// a role matches when it starts with one of the given prefixes
		q += ` AND EXISTS (SELECT 1 FROM unnest(roles) AS r, unnest(?::text[]) AS p WHERE starts_with(r, p))`
		args = append(args, pq.StringArray(filter.Roles))
	}
	if filter.Center != "" {
		q += ` AND center = ?`
		args = append(args, filter.Center)
	}
	if filter.IsActive != nil {
		q += ` AND is_active = ?`
		args = append(args, *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		q += ` AND created_at >= ?`
		args = append(args, filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		q += ` AND created_at <= ?`
		args = append(args, filter.CreatedTo.UTC())
	}
	q += ` ORDER BY ` + core.OrderBy(core.DBOrdering{Field: "name", Ascending: true}, core.DBOrdering{Field: "created_at", Ascending: true})

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, storeError("FilterUsers", err)
	}
	return users(rows), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, `
		UPDATE "user"
		SET name = $2, email = $3, is_active = $4, roles = $5, center = $6,
			password_hash = COALESCE($7, password_hash), updated_at = $8, last_login = $9
		WHERE id = $1
		RETURNING *`,
		usr.ID, usr.Name, usr.Email, usr.IsActive, pq.StringArray(usr.Roles), usr.Center,
		usr.PasswordHash, usr.UpdatedAt, lastLogin(usr),
	)
	if err != nil {
		return user.User{}, storeError("UpdateUser", err)
	}
	return row.user(), nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id::text = ANY($1)`, pq.StringArray(ids))
	return storeError("DeleteUsersByID", err)
}
