package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	done, err := repo.db.begin("CheckEmailUniqueness", false)
	defer done()
	if err != nil {
		return err
	}
	for _, usr := range repo.db.users {
		if usr.Email == email && !isExcluded(usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	done, err := repo.db.begin("CreateUser", true)
	defer done()
	if err != nil {
		return user.User{}, err
	}
	for _, other := range repo.db.users {
		if other.Email == usr.Email {
			return user.User{}, constraint("CreateUser", "email %s already taken", usr.Email)
		}
	}
	usr.ID = newID()
	repo.db.users[usr.ID] = copyUser(usr)
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	done, err := repo.db.begin("GetUserByID", false)
	defer done()
	if err != nil {
		return user.User{}, err
	}
	if usr, ok := repo.db.users[id]; ok {
		return copyUser(usr), nil
	}
	return user.User{}, notFound("GetUserByID", "user", id)
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	done, err := repo.db.begin("GetUserByEmail", false)
	defer done()
	if err != nil {
		return user.User{}, err
	}
	for _, usr := range repo.db.users {
		if usr.Email == email {
			return copyUser(usr), nil
		}
	}
	return user.User{}, notFound("GetUserByEmail", "user", email)
}

func (repo *userRepository) GetUsersByID(_ context.Context, ids ...string) ([]user.User, error) {
	done, err := repo.db.begin("GetUsersByID", false)
	defer done()
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if usr, ok := repo.db.users[id]; ok {
			users = append(users, copyUser(usr))
		}
	}
	return users, nil
}

func (repo *userRepository) FilterUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	done, err := repo.db.begin("FilterUsers", false)
	defer done()
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(filter.Search)
	users := make([]user.User, 0)
	for _, usr := range repo.db.users {
		switch {
		case search != "" && !strings.Contains(strings.ToLower(usr.Name), search) && !strings.Contains(usr.Email, search):
			continue
		case len(filter.Roles) > 0 && !hasAnyRole(usr, filter.Roles):
			continue
		case filter.Center != "" && usr.Center != filter.Center:
			continue
		case filter.IsActive != nil && usr.IsActive != *filter.IsActive:
			continue
		case !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom):
			continue
		case !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo):
			continue
		}
		users = append(users, copyUser(usr))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	done, err := repo.db.begin("UpdateUser", true)
	defer done()
	if err != nil {
		return user.User{}, err
	}
	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, notFound("UpdateUser", "user", usr.ID)
	}
	for _, other := range repo.db.users {
		if other.ID != usr.ID && other.Email == usr.Email {
			return user.User{}, constraint("UpdateUser", "email %s already taken", usr.Email)
		}
	}
	if usr.PasswordHash == nil {
		usr.PasswordHash = orig.PasswordHash
	}
	usr.CreatedAt = orig.CreatedAt
	repo.db.users[usr.ID] = copyUser(usr)
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	done, err := repo.db.begin("DeleteUsersByID", true)
	defer done()
	if err != nil {
		return err
	}
	for _, id := range ids {
		delete(repo.db.users, id)
	}
	return nil
}

func hasAnyRole(usr user.User, prefixes []string) bool {
	for _, prefix := range prefixes {
		if usr.RoleStartsWith(prefix) {
			return true
		}
	}
	return false
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}

func copyUser(usr user.User) user.User {
	usr.Roles = append([]string{}, usr.Roles...)
	usr.PasswordHash = append([]byte(nil), usr.PasswordHash...)
	return usr
}
