package echoapi_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/lajunglaworkout/jungla-iberica-sub004/apps/api/echo"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
	"github.com/lajunglaworkout/jungla-iberica-sub004/testutil"
)

const testPwd = "J4ngl@-Pwd"

func Test_userApi_query(t *testing.T) {
	app, env := setup(t)

	path := func(params ...string) string {
		v := make(url.Values)
		for i := 0; i+1 < len(params); i += 2 {
			v.Add(params[i], params[i+1])
		}
		return "/v1/users?" + v.Encode()
	}

	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.es", "", []string{user.RoleAdmin}, true)
	staff := testutil.CreateUser(t, env.UserRepo, "Staff", "staff@test.es", "", []string{user.RoleStaffAcademy}, true)
	tutor1 := createTutor(t, env, "Tutor Uno", "uno@test.es", "Madrid", true)
	tutor2 := createTutor(t, env, "Tutor Dos", "dos@test.es", "Sevilla", false)

	adminToken := getToken(t, env, admin)
	empty := marchallList(t)

	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, env, staff), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Get all", path: "/v1/users", token: adminToken, wantData: marchallList(t, admin, staff, tutor2, tutor1)},
		// filtering
		{name: "search (unknown)", path: path("search", "lol"), token: adminToken, wantData: empty},
		{name: "search=TUTOR", path: path("search", "TUTOR"), token: adminToken, wantData: marchallList(t, tutor2, tutor1)},
		{name: "role=tutor:", path: path("role", user.RoleTutor), token: adminToken, wantData: marchallList(t, tutor2, tutor1)},
		{name: "role=admin:,staff:", path: path("role", user.RoleAdmin, "role", user.RoleStaff), token: adminToken, wantData: marchallList(t, admin, staff)},
		{name: "center=Madrid", path: path("center", "Madrid"), token: adminToken, wantData: marchallList(t, tutor1)},
		{name: "is_active=false", path: path("is_active", "false"), token: adminToken, wantData: marchallList(t, tutor2)},
		{
			name: "is_active (invalid)", path: path("is_active", "maybe"), token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"is_active": "must be a boolean"}),
		},
		{
			name: "created_to (past)", path: path("created_to", time.Now().Add(-time.Hour).Format(time.RFC3339)),
			token: adminToken, wantData: empty,
		},
	})
}

func Test_userApi_create(t *testing.T) {
	app, env := setup(t)

	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.es", "", []string{user.RoleAdmin}, true)
	owner := testutil.CreateUser(t, env.UserRepo, "Owner", "owner@test.es", "", []string{user.RoleAdminOwner}, true)
	adminToken := getToken(t, env, admin)

	t.Run("role above own", func(t *testing.T) {
		rec := do(t, app, http.MethodPost, "/v1/users", adminToken, user.NewUser{
			Name: "Boss", Email: "boss@test.es", Password: testPwd, PasswordConfirm: testPwd, Roles: []string{user.RoleAdminOwner},
		}, nil)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		}, rec)
	})

	t.Run("email taken", func(t *testing.T) {
		rec := do(t, app, http.MethodPost, "/v1/users", adminToken, user.NewUser{
			Name: "Owner 2", Email: owner.Email, Password: testPwd, PasswordConfirm: testPwd,
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "email")
	})

	t.Run("tutor created", func(t *testing.T) {
		var got user.User
		rec := do(t, app, http.MethodPost, "/v1/users", adminToken, user.NewUser{
			Name: "  Tutora  ", Email: "Tutora@Test.es", Password: testPwd, PasswordConfirm: testPwd,
			Roles: []string{user.RoleTutor}, Center: "Jerez",
		}, &got)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "Tutora", got.Name)
		assert.Equal(t, "tutora@test.es", got.Email)
		assert.Equal(t, "Jerez", got.Center)
		assert.True(t, got.IsActive)
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func Test_userApi_destroy(t *testing.T) {
	app, env := setup(t)

	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.es", "", []string{user.RoleAdmin}, true)
	tutor := createTutor(t, env, "Tutor", "tutor@test.es", "Madrid", true)
	adminToken := getToken(t, env, admin)

	runHTTPTests(t, app, []httpTest{
		{name: "no suicide", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{name: "no suicide (multiple)", method: http.MethodDelete, path: "/v1/users?id=" + tutor.ID + "&id=" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{name: "deleted", method: http.MethodDelete, path: "/v1/users/" + tutor.ID, token: adminToken, wantCode: http.StatusNoContent},
		{
			name: "gone", path: "/v1/users/" + tutor.ID, token: adminToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "El elemento ya no existe"}),
		},
	})
}

func Test_authApi_login(t *testing.T) {
	app, env := setup(t)

	staff := testutil.CreateUser(t, env.UserRepo, "Staff", "staff@test.es", testPwd, []string{user.RoleStaffAcademy}, true)
	testutil.CreateUser(t, env.UserRepo, "Gone", "gone@test.es", testPwd, []string{user.RoleStaff}, false)

	login := func(email, pwd string) []byte {
		return marchallObj(t, user.LoginCredentials{Email: email, Password: pwd})
	}

	runHTTPTests(t, app, []httpTest{
		{name: "missing fields", method: http.MethodPost, path: "/v1/auth/login", body: login("", ""), wantCode: http.StatusBadRequest},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/auth/login", body: login("who@test.es", testPwd),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/auth/login", body: login(staff.Email, "nope"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/auth/login", body: login("gone@test.es", testPwd),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	t.Run("logged in", func(t *testing.T) {
		var resp LoginResponse
		rec := do(t, app, http.MethodPost, "/v1/auth/login", "", user.LoginCredentials{Email: "STAFF@test.es", Password: testPwd}, &resp)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NotEmpty(t, resp.Token)
		require.NotNil(t, resp.User)
		assert.Equal(t, staff.ID, resp.User.ID)
		assert.False(t, resp.User.LastLogin.IsZero())

		var me user.User
		rec = do(t, app, http.MethodGet, "/v1/auth/me", resp.Token, nil, &me)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, staff.ID, me.ID)
	})
}

func Test_authApi_refreshToken(t *testing.T) {
	app, env := setup(t)

	naughty := testutil.CreateUser(t, env.UserRepo, "N Dog", "ndog@test.es", "", []string{user.RoleTutor}, false)
	staff := testutil.CreateUser(t, env.UserRepo, "Staff", "staff@test.es", "", []string{user.RoleStaff}, true)

	now := time.Now()
	unrefreshableClaims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    env.Conf.AppName,
			Subject:   staff.ID,
			ExpiresAt: now.Add(env.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * env.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		IsStaff:      true,
		Roles:        staff.Roles,
	}
	unrefreshableToken, err := GenerateToken(env.Conf, unrefreshableClaims)
	require.NoError(t, err)

	expired := GetUserClaims(env.Conf, staff)
	expired.ExpiresAt = now.Add(-time.Minute).Unix()
	expiredToken, err := GenerateToken(env.Conf, expired)
	require.NoError(t, err)

	path := "/v1/auth/token-refresh"
	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", method: http.MethodPost, path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Expired token", method: http.MethodPost, path: path, token: expiredToken, wantCode: http.StatusUnauthorized},
		{
			name: "Inactive user not allowed", method: http.MethodPost, path: path, token: getToken(t, env, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", method: http.MethodPost, path: path, token: unrefreshableToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", method: http.MethodPost, path: path, token: getToken(t, env, staff), wantCode: http.StatusOK},
	})
}

func Test_rosterApi(t *testing.T) {
	app, env := setup(t)

	staff := testutil.CreateUser(t, env.UserRepo, "Staff", "staff@test.es", "", []string{user.RoleStaffAcademy}, true)
	tutor1 := createTutor(t, env, "Ana", "ana@test.es", "Madrid", true)
	tutor2 := createTutor(t, env, "Berta", "berta@test.es", "Sevilla", true)
	staffToken := getToken(t, env, staff)
	tutorToken := getToken(t, env, tutor1)

	runHTTPTests(t, app, []httpTest{
		{name: "list", path: "/v1/tutors", token: tutorToken, wantData: marchallList(t, tutor1, tutor2)},
		{name: "list by center", path: "/v1/tutors?center=Sevilla", token: staffToken, wantData: marchallList(t, tutor2)},
		{
			name: "tutors cannot edit", method: http.MethodPut, path: "/v1/tutors/" + tutor2.ID + "/active",
			body: marchallObj(t, SetActiveRequest{IsActive: false}), token: tutorToken, wantCode: http.StatusForbidden,
		},
		{
			name: "staff accounts are not tutors", method: http.MethodPut, path: "/v1/tutors/" + staff.ID + "/active",
			body: marchallObj(t, SetActiveRequest{IsActive: false}), token: staffToken, wantCode: http.StatusNotFound,
		},
	})

	t.Run("deactivate and move", func(t *testing.T) {
		var got user.User
		rec := do(t, app, http.MethodPut, "/v1/tutors/"+tutor2.ID+"/active", staffToken, SetActiveRequest{IsActive: false}, &got)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.False(t, got.IsActive)

		rec = do(t, app, http.MethodPut, "/v1/tutors/"+tutor2.ID+"/center", staffToken, AssignCenterRequest{Center: " Madrid "}, &got)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Madrid", got.Center)
		assert.False(t, got.IsActive)
	})
}

func createTutor(t *testing.T, env *testutil.Env, name, email, center string, isActive bool) user.User {
	usr := testutil.CreateUser(t, env.UserRepo, name, email, testPwd, []string{user.RoleTutor}, isActive)
	if center == "" {
		return usr
	}
	usr, err := env.UserSvc.AssignCenter(context.Background(), usr.ID, center)
	require.NoError(t, err)
	return usr
}
