package user_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
	"github.com/lajunglaworkout/jungla-iberica-sub004/testutil"
)

const pwd = "J4ngl@-Pwd"

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	usr, err := env.UserSvc.Create(ctx, user.NewUser{
		Name: " Ana ", Email: "Ana@Test.ES", Password: pwd, PasswordConfirm: pwd,
		Roles: []string{user.RoleTutor}, Center: " Sevilla ",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "Ana", usr.Name)
	assert.Equal(t, "ana@test.es", usr.Email)
	assert.Equal(t, "Sevilla", usr.Center)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsTutor())
	assert.NoError(t, usr.CheckPassword(pwd))

	t.Run("email taken", func(t *testing.T) {
		_, err := env.UserSvc.Create(ctx, user.NewUser{Name: "Otra", Email: "ANA@test.es", Password: pwd, PasswordConfirm: pwd})
		var ve *core.ValidationError
		require.True(t, errors.As(err, &ve), err)
		assert.Equal(t, "email", ve.Fields[0].Field)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := env.UserSvc.Create(ctx, user.NewUser{Name: "Otra", Email: "otra@test.es", Password: pwd, PasswordConfirm: pwd, Roles: []string{"root"}})
		assert.True(t, core.IsUserError(err), err)
	})
}

func TestPasswordPolicy(t *testing.T) {
	env := testutil.NewEnv(t)

	tests := []struct {
		name    string
		usrName string
		pwd     string
		wantTag string
	}{
		{name: "too short", usrName: "Ana", pwd: "Ab1!", wantTag: "pwdminlen"},
		{name: "whitespace", usrName: "Ana", pwd: "Abcd 12!", wantTag: "pwdnospace"},
		{name: "all numeric", usrName: "Ana", pwd: "12345678", wantTag: "pwdnotallnum"},
		{name: "too simple", usrName: "Ana", pwd: "abcdefgh1", wantTag: "pwdcplx"},
		{name: "similar to name", usrName: "Jungla Pwd", pwd: pwd, wantTag: "pwdtoosim"},
		{name: "valid", usrName: "Ana", pwd: pwd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.UserSvc.Create(context.Background(), user.NewUser{
				Name: tt.usrName, Email: "jp" + tt.wantTag + "@test.es", Password: tt.pwd, PasswordConfirm: tt.pwd,
			})
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs), err)
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
		})
	}
}

func TestService_Login(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	active := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@test.es", pwd, []string{user.RoleTutor}, true)
	testutil.CreateUser(t, env.UserRepo, "Bea", "bea@test.es", pwd, []string{user.RoleTutor}, false)

	tests := []struct {
		name    string
		creds   user.LoginCredentials
		wantErr error
	}{
		{name: "unknown email", creds: user.LoginCredentials{Email: "nope@test.es", Password: pwd}, wantErr: user.ErrInvalidCredentials},
		{name: "wrong password", creds: user.LoginCredentials{Email: "ana@test.es", Password: "nope"}, wantErr: user.ErrInvalidCredentials},
		{name: "inactive", creds: user.LoginCredentials{Email: "bea@test.es", Password: pwd}, wantErr: user.ErrInactive},
		{name: "ok", creds: user.LoginCredentials{Email: " ANA@test.es", Password: pwd}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := env.UserSvc.Login(ctx, tt.creds)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, active.ID, usr.ID)
			assert.False(t, usr.LastLogin.IsZero())
		})
	}
}

func TestService_Update(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@test.es", pwd, []string{user.RoleTutor}, true)
	testutil.CreateUser(t, env.UserRepo, "Bea", "bea@test.es", pwd, []string{user.RoleStaffAcademy}, true)

	usr, err := env.UserSvc.AssignCenter(ctx, ana.ID, " Madrid ")
	require.NoError(t, err)
	assert.Equal(t, "Madrid", usr.Center)
	assert.Equal(t, "Ana", usr.Name)
	assert.Equal(t, []string{user.RoleTutor}, usr.Roles)
	assert.NoError(t, usr.CheckPassword(pwd))

	_, err = env.UserSvc.Update(ctx, ana.ID, user.UpdateUser{Email: "bea@test.es"})
	assert.True(t, core.IsUserError(err), err)

	_, err = env.UserSvc.Update(ctx, "nope", user.UpdateUser{Name: "X"})
	assert.True(t, core.IsNotFound(err), err)

	newPwd := "Otr0-Clave!"
	usr, err = env.UserSvc.ResetPassword(ctx, user.ResetUserPassword{Email: "ANA@test.es", Password: newPwd, PasswordConfirm: newPwd})
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword(newPwd))

	usr, err = env.UserSvc.SetActive(ctx, ana.ID, false)
	require.NoError(t, err)
	assert.False(t, usr.IsActive)
}

func TestService_directory(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@test.es", "", []string{user.RoleTutor}, true)
	bea := testutil.CreateUser(t, env.UserRepo, "Bea", "bea@test.es", "", []string{user.RoleTutor}, false)
	carl := testutil.CreateUser(t, env.UserRepo, "Carl", "carl@test.es", "", []string{user.RoleStaffOnline}, true)
	_, err := env.UserSvc.AssignCenter(ctx, bea.ID, "Sevilla")
	require.NoError(t, err)

	tutors, err := env.UserSvc.Tutors(ctx, "")
	require.NoError(t, err)
	require.Len(t, tutors, 2)
	assert.Equal(t, ana.ID, tutors[0].ID)

	tutors, err = env.UserSvc.Tutors(ctx, "Sevilla")
	require.NoError(t, err)
	require.Len(t, tutors, 1)
	assert.Equal(t, bea.ID, tutors[0].ID)

	addrs, err := env.UserSvc.LookupAddresses(ctx, ana.ID, bea.ID, carl.ID, "nope")
	require.NoError(t, err)
	require.Len(t, addrs, 2) // bea is inactive
	got := []string{addrs[0].Address, addrs[1].Address}
	assert.ElementsMatch(t, []string{"ana@test.es", "carl@test.es"}, got)

	addrs, err = env.UserSvc.LookupAddresses(ctx)
	require.NoError(t, err)
	assert.Empty(t, addrs)
}
