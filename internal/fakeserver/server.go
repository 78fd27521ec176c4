// Package fakeserver is an in-process stand-in for the messaging
// platform's v4 REST API. It exists so the kit's own tests and offline
// suite runs need no external server; it is not part of the shipped
// helper surface.
package fakeserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/l0r3zz/mattermost-webapp/apierror"
	"github.com/l0r3zz/mattermost-webapp/internal/otel"
	"github.com/l0r3zz/mattermost-webapp/model"
	"github.com/trebent/zerologr"
)

type (
	Opts struct {
		// SessionTTL bounds how long issued tokens stay valid.
		SessionTTL time.Duration
	}
	Server struct {
		store *store
	}

	loginRequest struct {
		LoginID  string `json:"login_id"`
		Password string `json:"password"`
	}
	activeRequest struct {
		Active bool `json:"active"`
	}
	rolesRequest struct {
		Roles string `json:"roles"`
	}
	memberRequest struct {
		TeamID string `json:"team_id"`
		UserID string `json:"user_id"`
	}
)

const (
	apiPrefix = "/api/v4"

	defaultSessionTTL = 15 * time.Minute
	defaultPerPage    = 60
)

func New(opts *Opts) *Server {
	ttl := opts.SessionTTL
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	return &Server{store: newStore(ttl)}
}

// Handler returns the full route table wrapped with the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+apiPrefix+"/users/login", s.login)
	mux.HandleFunc("POST "+apiPrefix+"/users/logout", s.logout)
	mux.HandleFunc("POST "+apiPrefix+"/users", s.createUser)
	mux.HandleFunc("GET "+apiPrefix+"/users", s.listUsers)
	mux.HandleFunc("POST "+apiPrefix+"/users/usernames", s.usersByUsernames)
	mux.HandleFunc("GET "+apiPrefix+"/users/email/{email}", s.userByEmail)
	mux.HandleFunc("GET "+apiPrefix+"/users/{id}", s.user)
	mux.HandleFunc("PUT "+apiPrefix+"/users/{id}/patch", s.patchUser)
	// A literal "{id}/sessions" pattern conflicts with the email lookup
	// route under ServeMux precedence, so user sub-resources dispatch
	// through a wildcard.
	mux.HandleFunc("GET "+apiPrefix+"/users/{id}/{action...}", s.userAction)
	mux.HandleFunc("POST "+apiPrefix+"/users/{id}/sessions/revoke/all", s.revokeSessions)
	mux.HandleFunc("PUT "+apiPrefix+"/users/{id}/active", s.updateActive)
	mux.HandleFunc("PUT "+apiPrefix+"/users/{id}/roles", s.updateRoles)
	mux.HandleFunc("PUT "+apiPrefix+"/users/{id}/preferences", s.savePreferences)
	mux.HandleFunc("POST "+apiPrefix+"/teams", s.createTeam)
	mux.HandleFunc("POST "+apiPrefix+"/teams/{id}/members", s.addTeamMember)

	return otel.Middleware(mux)
}

// session resolves the bearer token of the request, or returns an API
// error in the platform's wire format.
func (s *Server) session(r *http.Request) (*session, *model.UserProfile, *apierror.Error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, nil, apierror.New(http.StatusUnauthorized, "Invalid or expired session, please login again.").
			WithID("api.context.session_expired.app_error")
	}

	sess, ok := s.store.sessionForToken(token)
	if !ok {
		return nil, nil, apierror.New(http.StatusUnauthorized, "Invalid or expired session, please login again.").
			WithID("api.context.session_expired.app_error")
	}

	user, ok := s.store.user(sess.userID)
	if !ok {
		return nil, nil, apierror.New(http.StatusUnauthorized, "Invalid or expired session, please login again.").
			WithID("api.context.session_expired.app_error")
	}

	return sess, user, nil
}

func permissionError() *apierror.Error {
	return apierror.New(http.StatusForbidden, "You do not have the appropriate permissions.").
		WithID("api.context.permissions.app_error")
}

func userNotFoundError() *apierror.Error {
	return apierror.New(http.StatusNotFound, "Unable to find the user.").
		WithID("app.user.missing_account.app_error")
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerologr.Error(err, "Failed to encode response body")
	}
}

func decode(r *http.Request, out any) *apierror.Error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return apierror.New(http.StatusBadRequest, "Unable to decode the request body.").
			WithID("api.context.invalid_body_param.app_error")
	}
	return nil
}

// targetUserID resolves the {id} path value, mapping "me" onto the
// session user.
func targetUserID(r *http.Request, sess *session) string {
	id := r.PathValue("id")
	if id == "me" {
		return sess.userID
	}
	return id
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	req := loginRequest{}
	if apiErr := decode(r, &req); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	acc, ok := s.store.userByLogin(req.LoginID)
	if !ok || !passwordMatch(acc.salt, acc.hashedPassword, req.Password) {
		apierror.New(http.StatusUnauthorized, "Enter a valid email or username and/or password.").
			WithID("api.user.login.invalid_credentials_email_username").WriteTo(w)
		return
	}
	if acc.profile.DeleteAt > 0 {
		apierror.New(http.StatusUnauthorized, "Login unavailable because the account has been deactivated.").
			WithID("api.user.login.inactive.app_error").WriteTo(w)
		return
	}

	token, _ := s.store.createSession(acc.profile.ID)
	w.Header().Set("Token", token)

	profile := acc.profile
	writeJSON(w, http.StatusOK, &profile)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	_, _, apiErr := s.session(r)
	if apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.store.revokeToken(token)
	writeJSON(w, http.StatusOK, &model.StatusOK{Status: model.StatusOKValue})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	// Anyone may create the first account of a fresh server; after that
	// a session is required.
	if !s.store.empty() {
		if _, _, apiErr := s.session(r); apiErr != nil {
			apiErr.WriteTo(w)
			return
		}
	}

	user := model.UserProfile{}
	if apiErr := decode(r, &user); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}
	if user.Username == "" || user.Email == "" || user.Password == "" {
		apierror.New(http.StatusBadRequest, "Username, email and password are required.").
			WithID("model.user.is_valid.app_error").WriteTo(w)
		return
	}
	if len(user.Password) > maxPasswordLength {
		apierror.New(http.StatusBadRequest, "Your password must contain at most 40 characters.").
			WithID("model.user.is_valid.pwd_max_length.app_error").WriteTo(w)
		return
	}

	salt, hashed := makePassword(user.Password)
	created, ok := s.store.createUser(&user, salt, hashed)
	if !ok {
		apierror.New(http.StatusBadRequest, "An account with that username or email already exists.").
			WithID("app.user.save.username_exists.app_error").WriteTo(w)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) user(w http.ResponseWriter, r *http.Request) {
	sess, _, apiErr := s.session(r)
	if apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	user, ok := s.store.user(targetUserID(r, sess))
	if !ok {
		userNotFoundError().WriteTo(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) userByEmail(w http.ResponseWriter, r *http.Request) {
	if _, _, apiErr := s.session(r); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	user, ok := s.store.userByEmail(r.PathValue("email"))
	if !ok {
		userNotFoundError().WriteTo(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) usersByUsernames(w http.ResponseWriter, r *http.Request) {
	if _, _, apiErr := s.session(r); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	usernames := []string{}
	if apiErr := decode(r, &usernames); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}
	writeJSON(w, http.StatusOK, s.store.usersByUsernames(usernames))
}

func (s *Server) patchUser(w http.ResponseWriter, r *http.Request) {
	sess, sessionUser, apiErr := s.session(r)
	if apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	targetID := targetUserID(r, sess)
	if targetID != sess.userID && !sessionUser.IsAdmin() {
		permissionError().WriteTo(w)
		return
	}

	patch := model.UserPatch{}
	if apiErr := decode(r, &patch); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	user, ok := s.store.patchUser(targetID, &patch)
	if !ok {
		userNotFoundError().WriteTo(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) userAction(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("action") != "sessions" {
		http.NotFound(w, r)
		return
	}
	s.sessions(w, r)
}

func (s *Server) sessions(w http.ResponseWriter, r *http.Request) {
	sess, sessionUser, apiErr := s.session(r)
	if apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	targetID := targetUserID(r, sess)
	if targetID != sess.userID && !sessionUser.IsAdmin() {
		permissionError().WriteTo(w)
		return
	}
	writeJSON(w, http.StatusOK, s.store.userSessions(targetID))
}

func (s *Server) revokeSessions(w http.ResponseWriter, r *http.Request) {
	sess, sessionUser, apiErr := s.session(r)
	if apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	targetID := targetUserID(r, sess)
	if targetID != sess.userID && !sessionUser.IsAdmin() {
		permissionError().WriteTo(w)
		return
	}
	if _, ok := s.store.user(targetID); !ok {
		userNotFoundError().WriteTo(w)
		return
	}

	s.store.revokeSessions(targetID)
	writeJSON(w, http.StatusOK, &model.StatusOK{Status: model.StatusOKValue})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	if _, _, apiErr := s.session(r); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	teamID := r.URL.Query().Get("not_in_team")
	if teamID == "" {
		apierror.New(http.StatusBadRequest, "Missing the not_in_team parameter.").
			WithID("api.context.invalid_url_param.app_error").WriteTo(w)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		page = 0
	}
	perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
	if err != nil || perPage <= 0 {
		perPage = defaultPerPage
	}

	users, ok := s.store.usersNotInTeam(teamID, page, perPage)
	if !ok {
		apierror.New(http.StatusNotFound, "Unable to find the team.").
			WithID("app.team.get.find.app_error").WriteTo(w)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) updateActive(w http.ResponseWriter, r *http.Request) {
	sess, sessionUser, apiErr := s.session(r)
	if apiErr != nil {
		apiErr.WriteTo(w)
		return
	}
	if !sessionUser.IsAdmin() {
		permissionError().WriteTo(w)
		return
	}

	req := activeRequest{}
	if apiErr := decode(r, &req); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	if !s.store.setActive(targetUserID(r, sess), req.Active) {
		userNotFoundError().WriteTo(w)
		return
	}
	writeJSON(w, http.StatusOK, &model.StatusOK{Status: model.StatusOKValue})
}

func (s *Server) updateRoles(w http.ResponseWriter, r *http.Request) {
	sess, sessionUser, apiErr := s.session(r)
	if apiErr != nil {
		apiErr.WriteTo(w)
		return
	}
	if !sessionUser.IsAdmin() {
		permissionError().WriteTo(w)
		return
	}

	req := rolesRequest{}
	if apiErr := decode(r, &req); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	if !s.store.setRoles(targetUserID(r, sess), req.Roles) {
		userNotFoundError().WriteTo(w)
		return
	}
	writeJSON(w, http.StatusOK, &model.StatusOK{Status: model.StatusOKValue})
}

func (s *Server) savePreferences(w http.ResponseWriter, r *http.Request) {
	sess, sessionUser, apiErr := s.session(r)
	if apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	targetID := targetUserID(r, sess)
	if targetID != sess.userID && !sessionUser.IsAdmin() {
		permissionError().WriteTo(w)
		return
	}

	prefs := []model.Preference{}
	if apiErr := decode(r, &prefs); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	s.store.setPreferences(targetID, prefs)
	writeJSON(w, http.StatusOK, &model.StatusOK{Status: model.StatusOKValue})
}

func (s *Server) createTeam(w http.ResponseWriter, r *http.Request) {
	if _, _, apiErr := s.session(r); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	team := model.Team{}
	if apiErr := decode(r, &team); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}
	if team.Name == "" {
		apierror.New(http.StatusBadRequest, "Team name is required.").
			WithID("model.team.is_valid.app_error").WriteTo(w)
		return
	}

	writeJSON(w, http.StatusCreated, s.store.createTeam(&team))
}

func (s *Server) addTeamMember(w http.ResponseWriter, r *http.Request) {
	if _, _, apiErr := s.session(r); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}

	req := memberRequest{}
	if apiErr := decode(r, &req); apiErr != nil {
		apiErr.WriteTo(w)
		return
	}
	if req.UserID == "" {
		apierror.New(http.StatusBadRequest, "Missing the user_id parameter.").
			WithID("api.context.invalid_body_param.app_error").WriteTo(w)
		return
	}

	member, ok := s.store.addTeamMember(r.PathValue("id"), req.UserID)
	if !ok {
		apierror.New(http.StatusNotFound, "Unable to find the team or user.").
			WithID("app.team.get_member.missing.app_error").WriteTo(w)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}
