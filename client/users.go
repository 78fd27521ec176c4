package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/l0r3zz/mattermost-webapp/model"
	"github.com/trebent/zerologr"
)

type (
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
)

// MePath addresses the user bound to the current session in any endpoint
// that takes a user ID.
const MePath = "me"

// Login authenticates with a login ID (username or email) and password.
// The session token from the response header is retained for all
// subsequent calls.
func (c *Client) Login(
	ctx context.Context,
	loginID, password string,
) (*model.UserProfile, error) {
	user := &model.UserProfile{}
	resp, err := c.do(
		ctx,
		http.MethodPost,
		"/users/login",
		nil,
		&loginRequest{LoginID: loginID, Password: password},
		user,
	)
	if err != nil {
		return nil, err
	}

	c.token = resp.Header.Get(TokenHeader)
	zerologr.V(10).Info("Logged in", "username", user.Username)
	return user, nil
}

// Logout revokes the current session and drops the retained token.
func (c *Client) Logout(ctx context.Context) (*model.StatusOK, error) {
	status := &model.StatusOK{}
	if _, err := c.do(ctx, http.MethodPost, "/users/logout", nil, nil, status); err != nil {
		return nil, err
	}

	c.token = ""
	return status, nil
}

// CreateUser registers a new account. Creating the first account of a
// server, or creating while logged in as an admin, needs no session.
func (c *Client) CreateUser(
	ctx context.Context,
	user *model.UserProfile,
) (*model.UserProfile, error) {
	created := &model.UserProfile{}
	if _, err := c.do(ctx, http.MethodPost, "/users", nil, user, created); err != nil {
		return nil, err
	}
	return created, nil
}

// Me fetches the profile bound to the current session.
func (c *Client) Me(ctx context.Context) (*model.UserProfile, error) {
	return c.User(ctx, MePath)
}

func (c *Client) User(ctx context.Context, userID string) (*model.UserProfile, error) {
	user := &model.UserProfile{}
	if _, err := c.do(ctx, http.MethodGet, "/users/"+userID, nil, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) UserByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	user := &model.UserProfile{}
	if _, err := c.do(
		ctx, http.MethodGet, "/users/email/"+url.PathEscape(email), nil, nil, user,
	); err != nil {
		return nil, err
	}
	return user, nil
}

// UsersByUsernames resolves a list of usernames to profiles. Unknown
// usernames are silently absent from the result, mirroring the server.
func (c *Client) UsersByUsernames(
	ctx context.Context,
	usernames []string,
) ([]*model.UserProfile, error) {
	users := []*model.UserProfile{}
	if _, err := c.do(
		ctx, http.MethodPost, "/users/usernames", nil, usernames, &users,
	); err != nil {
		return nil, err
	}
	return users, nil
}

// PatchUser applies a partial profile update. Pass MePath as the user ID
// to patch the session user.
func (c *Client) PatchUser(
	ctx context.Context,
	userID string,
	patch *model.UserPatch,
) (*model.UserProfile, error) {
	user := &model.UserProfile{}
	if _, err := c.do(
		ctx, http.MethodPut, "/users/"+userID+"/patch", nil, patch, user,
	); err != nil {
		return nil, err
	}
	return user, nil
}

// Sessions lists the active sessions of a user.
func (c *Client) Sessions(ctx context.Context, userID string) ([]*model.Session, error) {
	sessions := []*model.Session{}
	if _, err := c.do(
		ctx, http.MethodGet, "/users/"+userID+"/sessions", nil, nil, &sessions,
	); err != nil {
		return nil, err
	}
	return sessions, nil
}

// RevokeUserSessions revokes every session of the given user.
func (c *Client) RevokeUserSessions(
	ctx context.Context,
	userID string,
) (*model.StatusOK, error) {
	status := &model.StatusOK{}
	if _, err := c.do(
		ctx, http.MethodPost, "/users/"+userID+"/sessions/revoke/all", nil, nil, status,
	); err != nil {
		return nil, err
	}
	return status, nil
}

// UsersNotInTeam pages through profiles that are not members of the team.
func (c *Client) UsersNotInTeam(
	ctx context.Context,
	teamID string,
	page, perPage int,
) ([]*model.UserProfile, error) {
	query := url.Values{}
	query.Set("not_in_team", teamID)
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	users := []*model.UserProfile{}
	if _, err := c.do(ctx, http.MethodGet, "/users", query, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserActive activates or deactivates an account. Deactivation
// revokes the user's sessions server-side.
func (c *Client) UpdateUserActive(
	ctx context.Context,
	userID string,
	active bool,
) (*model.StatusOK, error) {
	status := &model.StatusOK{}
	if _, err := c.do(
		ctx, http.MethodPut, "/users/"+userID+"/active", nil,
		&activeRequest{Active: active}, status,
	); err != nil {
		return nil, err
	}
	return status, nil
}

// UpdateUserRoles replaces the user's system roles, e.g. to promote a
// freshly created account to admin.
func (c *Client) UpdateUserRoles(
	ctx context.Context,
	userID, roles string,
) (*model.StatusOK, error) {
	status := &model.StatusOK{}
	if _, err := c.do(
		ctx, http.MethodPut, "/users/"+userID+"/roles", nil,
		&rolesRequest{Roles: roles}, status,
	); err != nil {
		return nil, err
	}
	return status, nil
}

// SavePreferences writes preference rows for the user.
func (c *Client) SavePreferences(
	ctx context.Context,
	userID string,
	prefs []model.Preference,
) (*model.StatusOK, error) {
	status := &model.StatusOK{}
	if _, err := c.do(
		ctx, http.MethodPut, "/users/"+userID+"/preferences", nil, prefs, status,
	); err != nil {
		return nil, err
	}
	return status, nil
}
