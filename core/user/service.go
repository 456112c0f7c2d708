package user

import (
	"context"
	"errors"
	"net/mail"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

var (
	// errors
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("this account is disabled")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, user User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUsersByID(ctx context.Context, ids ...string) ([]User, error)
		// FilterUsers applies AND operation on available QueryFilter fields, ordered by name.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		// QueryFilter.Roles matches users holding a role starting with one of the given values.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, user User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(ctx, svc); err != nil {
		return User{}, err
	}
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		Center:    nu.Center,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.FilterUsers(ctx, filter)
}

// Tutors lists the tutors, optionally restricted to one center.
func (svc *Service) Tutors(ctx context.Context, center string) ([]User, error) {
	return svc.Filter(ctx, QueryFilter{Roles: TutorRoles, Center: center})
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	orig, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "getting user")
	}
	if err := uu.Validate(ctx, orig, svc); err != nil {
		return User{}, err
	}
	usr := orig
	usr.Name = uu.Name
	usr.Email = uu.Email
	usr.Roles = uu.Roles
	usr.UpdatedAt = time.Now().UTC()
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Center != nil {
		usr.Center = *uu.Center
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetActive(ctx context.Context, id string, active bool) (User, error) {
	return svc.Update(ctx, id, UpdateUser{IsActive: &active})
}

func (svc *Service) AssignCenter(ctx context.Context, id, center string) (User, error) {
	return svc.Update(ctx, id, UpdateUser{Center: &center})
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) (User, error) {
	if err := rp.Validate(); err != nil {
		return User{}, err
	}
	usr, err := svc.GetByEmail(ctx, rp.Email)
	if err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(rp.Password); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// Login checks the credentials of an active user and records the login time.
func (svc *Service) Login(ctx context.Context, creds LoginCredentials) (User, error) {
	usr, err := svc.GetByEmail(ctx, creds.Email)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrInactive
	}
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

// LookupAddresses returns the mail addresses of the given active users. Unknown ids are skipped.
func (svc *Service) LookupAddresses(ctx context.Context, ids ...string) ([]mail.Address, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := svc.repo.GetUsersByID(ctx, ids...)
	if err != nil {
		return nil, err
	}
	addrs := make([]mail.Address, 0, len(users))
	for _, usr := range users {
		if usr.IsActive && usr.Email != "" {
			addrs = append(addrs, mail.Address{Name: usr.Name, Address: usr.Email})
		}
	}
	return addrs, nil
}
