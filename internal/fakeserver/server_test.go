package fakeserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/l0r3zz/mattermost-webapp/model"
)

func do(
	t *testing.T,
	handler http.Handler,
	method, path, token string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()

	buf := &bytes.Buffer{}
	if body != nil {
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, "/api/v4"+path, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func verifyStatusCode(t *testing.T, rec *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rec.Code != expected {
		t.Fatalf("Expected status code %d, got %d: %s", expected, rec.Code, rec.Body.String())
	}
}

func verifyErrorID(t *testing.T, rec *httptest.ResponseRecorder, expected string) {
	t.Helper()

	wire := struct {
		ID string `json:"id"`
	}{}
	if err := json.NewDecoder(rec.Body).Decode(&wire); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	if wire.ID != expected {
		t.Fatalf("Expected error id %q, got %q", expected, wire.ID)
	}
}

func decodeProfile(t *testing.T, rec *httptest.ResponseRecorder) *model.UserProfile {
	t.Helper()

	profile := &model.UserProfile{}
	if err := json.NewDecoder(rec.Body).Decode(profile); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}
	return profile
}

// seed creates a user account, exploiting that a fresh server accepts
// the first account unauthenticated and promotes it to admin.
func seed(t *testing.T, handler http.Handler, token, username string) *model.UserProfile {
	t.Helper()

	rec := do(t, handler, http.MethodPost, "/users", token, &model.UserProfile{
		Username: username,
		Email:    fmt.Sprintf("%s@localhost", username),
		Password: "Sys@dmin-sample1",
	})
	verifyStatusCode(t, rec, http.StatusCreated)
	return decodeProfile(t, rec)
}

func login(t *testing.T, handler http.Handler, loginID string) (string, *model.UserProfile) {
	t.Helper()

	rec := do(t, handler, http.MethodPost, "/users/login", "", &loginRequest{
		LoginID:  loginID,
		Password: "Sys@dmin-sample1",
	})
	verifyStatusCode(t, rec, http.StatusOK)

	token := rec.Header().Get("Token")
	if token == "" {
		t.Fatal("Login response is missing the Token header")
	}
	return token, decodeProfile(t, rec)
}

func TestFirstUserBecomesAdmin(t *testing.T) {
	handler := New(&Opts{}).Handler()

	first := seed(t, handler, "", "sysadmin")
	if !first.IsAdmin() {
		t.Fatalf("First account should hold the admin role, got %q", first.Roles)
	}
	if first.Password != "" {
		t.Fatal("Password must never come back in a profile")
	}

	token, _ := login(t, handler, "sysadmin")
	second := seed(t, handler, token, "plain")
	if second.IsAdmin() {
		t.Fatalf("Later accounts should not be admins, got %q", second.Roles)
	}
}

func TestCreateUserRequiresSession(t *testing.T) {
	handler := New(&Opts{}).Handler()
	seed(t, handler, "", "sysadmin")

	rec := do(t, handler, http.MethodPost, "/users", "", &model.UserProfile{
		Username: "plain",
		Email:    "plain@localhost",
		Password: "Sys@dmin-sample1",
	})
	verifyStatusCode(t, rec, http.StatusUnauthorized)
	verifyErrorID(t, rec, "api.context.session_expired.app_error")
}

func TestCreateUserConflicts(t *testing.T) {
	handler := New(&Opts{}).Handler()
	seed(t, handler, "", "sysadmin")
	token, _ := login(t, handler, "sysadmin")

	rec := do(t, handler, http.MethodPost, "/users", token, &model.UserProfile{
		Username: "sysadmin",
		Email:    "other@localhost",
		Password: "Sys@dmin-sample1",
	})
	verifyStatusCode(t, rec, http.StatusBadRequest)
	verifyErrorID(t, rec, "app.user.save.username_exists.app_error")
}

func TestLoginFailures(t *testing.T) {
	handler := New(&Opts{}).Handler()
	seed(t, handler, "", "sysadmin")

	rec := do(t, handler, http.MethodPost, "/users/login", "", &loginRequest{
		LoginID:  "sysadmin",
		Password: "wrong",
	})
	verifyStatusCode(t, rec, http.StatusUnauthorized)
	verifyErrorID(t, rec, "api.user.login.invalid_credentials_email_username")

	rec = do(t, handler, http.MethodPost, "/users/login", "", &loginRequest{
		LoginID:  "nobody",
		Password: "Sys@dmin-sample1",
	})
	verifyStatusCode(t, rec, http.StatusUnauthorized)

	// A deactivated account must not log in even with the right password.
	token, _ := login(t, handler, "sysadmin")
	seed(t, handler, token, "plain")
	rec = do(t, handler, http.MethodPut, "/users/"+idOf(t, handler, token, "plain")+"/active",
		token, &activeRequest{Active: false})
	verifyStatusCode(t, rec, http.StatusOK)

	rec = do(t, handler, http.MethodPost, "/users/login", "", &loginRequest{
		LoginID:  "plain",
		Password: "Sys@dmin-sample1",
	})
	verifyStatusCode(t, rec, http.StatusUnauthorized)
	verifyErrorID(t, rec, "api.user.login.inactive.app_error")
}

func idOf(t *testing.T, handler http.Handler, token, username string) string {
	t.Helper()

	rec := do(t, handler, http.MethodPost, "/users/usernames", token, []string{username})
	verifyStatusCode(t, rec, http.StatusOK)

	profiles := []*model.UserProfile{}
	if err := json.NewDecoder(rec.Body).Decode(&profiles); err != nil {
		t.Fatalf("Failed to decode profiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("Expected exactly one profile for %q, got %d", username, len(profiles))
	}
	return profiles[0].ID
}

func TestUserSubresourceRouting(t *testing.T) {
	handler := New(&Opts{}).Handler()
	admin := seed(t, handler, "", "sysadmin")
	token, _ := login(t, handler, "sysadmin")

	// The email lookup and the session listing share the /users/ prefix
	// and must both resolve.
	rec := do(t, handler, http.MethodGet, "/users/email/sysadmin@localhost", token, nil)
	verifyStatusCode(t, rec, http.StatusOK)
	if profile := decodeProfile(t, rec); profile.ID != admin.ID {
		t.Fatalf("Email lookup resolved the wrong profile: %s", profile.ID)
	}

	rec = do(t, handler, http.MethodGet, "/users/"+admin.ID+"/sessions", token, nil)
	verifyStatusCode(t, rec, http.StatusOK)

	sessions := []*model.Session{}
	if err := json.NewDecoder(rec.Body).Decode(&sessions); err != nil {
		t.Fatalf("Failed to decode sessions: %v", err)
	}
	if len(sessions) == 0 {
		t.Fatal("Expected at least one session for the logged-in admin")
	}

	rec = do(t, handler, http.MethodGet, "/users/"+admin.ID+"/unknown", token, nil)
	verifyStatusCode(t, rec, http.StatusNotFound)
}

func TestCreateUserPasswordTooLong(t *testing.T) {
	handler := New(&Opts{}).Handler()
	seed(t, handler, "", "sysadmin")
	token, _ := login(t, handler, "sysadmin")

	rec := do(t, handler, http.MethodPost, "/users", token, &model.UserProfile{
		Username: "longpass",
		Email:    "longpass@localhost",
		Password: strings.Repeat("a", 48),
	})
	verifyStatusCode(t, rec, http.StatusBadRequest)
	verifyErrorID(t, rec, "model.user.is_valid.pwd_max_length.app_error")
}

func TestSessionExpiry(t *testing.T) {
	handler := New(&Opts{SessionTTL: -time.Minute}).Handler()
	seed(t, handler, "", "sysadmin")
	token, _ := login(t, handler, "sysadmin")

	rec := do(t, handler, http.MethodGet, "/users/me", token, nil)
	verifyStatusCode(t, rec, http.StatusUnauthorized)
	verifyErrorID(t, rec, "api.context.session_expired.app_error")
}

func TestLogoutRevokesToken(t *testing.T) {
	handler := New(&Opts{}).Handler()
	seed(t, handler, "", "sysadmin")
	token, _ := login(t, handler, "sysadmin")

	rec := do(t, handler, http.MethodPost, "/users/logout", token, nil)
	verifyStatusCode(t, rec, http.StatusOK)

	rec = do(t, handler, http.MethodGet, "/users/me", token, nil)
	verifyStatusCode(t, rec, http.StatusUnauthorized)
}

func TestNonAdminPermissions(t *testing.T) {
	handler := New(&Opts{}).Handler()
	admin := seed(t, handler, "", "sysadmin")
	adminToken, _ := login(t, handler, "sysadmin")
	seed(t, handler, adminToken, "plain")
	plainToken, plain := login(t, handler, "plain")

	// Patching, listing sessions for and revoking sessions of another
	// user is admin-only.
	nickname := "sneaky"
	rec := do(t, handler, http.MethodPut, "/users/"+admin.ID+"/patch",
		plainToken, &model.UserPatch{Nickname: &nickname})
	verifyStatusCode(t, rec, http.StatusForbidden)
	verifyErrorID(t, rec, "api.context.permissions.app_error")

	rec = do(t, handler, http.MethodGet, "/users/"+admin.ID+"/sessions", plainToken, nil)
	verifyStatusCode(t, rec, http.StatusForbidden)

	rec = do(t, handler, http.MethodPost, "/users/"+admin.ID+"/sessions/revoke/all",
		plainToken, nil)
	verifyStatusCode(t, rec, http.StatusForbidden)

	// Activation and role changes are admin-only even on oneself.
	rec = do(t, handler, http.MethodPut, "/users/"+plain.ID+"/active",
		plainToken, &activeRequest{Active: false})
	verifyStatusCode(t, rec, http.StatusForbidden)

	rec = do(t, handler, http.MethodPut, "/users/"+plain.ID+"/roles",
		plainToken, &rolesRequest{Roles: model.SystemAdminRole})
	verifyStatusCode(t, rec, http.StatusForbidden)

	// Users may still patch themselves.
	rec = do(t, handler, http.MethodPut, "/users/me/patch",
		plainToken, &model.UserPatch{Nickname: &nickname})
	verifyStatusCode(t, rec, http.StatusOK)
	if patched := decodeProfile(t, rec); patched.Nickname != nickname {
		t.Fatalf("Expected nickname %q, got %q", nickname, patched.Nickname)
	}
}

func TestDeactivationRevokesSessions(t *testing.T) {
	handler := New(&Opts{}).Handler()
	seed(t, handler, "", "sysadmin")
	adminToken, _ := login(t, handler, "sysadmin")
	plain := seed(t, handler, adminToken, "plain")
	plainToken, _ := login(t, handler, "plain")

	rec := do(t, handler, http.MethodPut, "/users/"+plain.ID+"/active",
		adminToken, &activeRequest{Active: false})
	verifyStatusCode(t, rec, http.StatusOK)

	rec = do(t, handler, http.MethodGet, "/users/me", plainToken, nil)
	verifyStatusCode(t, rec, http.StatusUnauthorized)
}

func TestListUsersNotInTeam(t *testing.T) {
	handler := New(&Opts{}).Handler()
	seed(t, handler, "", "sysadmin")
	token, _ := login(t, handler, "sysadmin")

	rec := do(t, handler, http.MethodGet, "/users", token, nil)
	verifyStatusCode(t, rec, http.StatusBadRequest)
	verifyErrorID(t, rec, "api.context.invalid_url_param.app_error")

	rec = do(t, handler, http.MethodGet, "/users?not_in_team=missing", token, nil)
	verifyStatusCode(t, rec, http.StatusNotFound)
	verifyErrorID(t, rec, "app.team.get.find.app_error")

	rec = do(t, handler, http.MethodPost, "/teams", token, &model.Team{Name: "qa"})
	verifyStatusCode(t, rec, http.StatusCreated)
	team := &model.Team{}
	if err := json.NewDecoder(rec.Body).Decode(team); err != nil {
		t.Fatalf("Failed to decode team: %v", err)
	}

	outsider := seed(t, handler, token, "outsider")
	member := seed(t, handler, token, "member")
	rec = do(t, handler, http.MethodPost, "/teams/"+team.ID+"/members", token,
		&memberRequest{TeamID: team.ID, UserID: member.ID})
	verifyStatusCode(t, rec, http.StatusCreated)

	rec = do(t, handler, http.MethodGet, "/users?not_in_team="+team.ID, token, nil)
	verifyStatusCode(t, rec, http.StatusOK)

	profiles := []*model.UserProfile{}
	if err := json.NewDecoder(rec.Body).Decode(&profiles); err != nil {
		t.Fatalf("Failed to decode profiles: %v", err)
	}
	for _, profile := range profiles {
		if profile.ID == member.ID {
			t.Fatal("Team members must be excluded")
		}
	}

	found := false
	for _, profile := range profiles {
		if profile.ID == outsider.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("Non-members must be included")
	}

	// Negative pages clamp to the first page.
	rec = do(t, handler, http.MethodGet,
		"/users?not_in_team="+team.ID+"&page=-1&per_page=60", token, nil)
	verifyStatusCode(t, rec, http.StatusOK)
}
