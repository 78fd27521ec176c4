// Package model holds the wire shapes of the messaging platform's REST
// API. The remote server owns these representations; this module only
// relays them between test code and the server.
package model

import (
	"slices"
	"strings"
)

type (
	// UserProfile is the server's representation of an account. All
	// fields are written by the server, never by this layer.
	UserProfile struct {
		ID             string            `json:"id"`
		CreateAt       int64             `json:"create_at,omitempty"`
		UpdateAt       int64             `json:"update_at,omitempty"`
		DeleteAt       int64             `json:"delete_at"`
		Username       string            `json:"username"`
		Email          string            `json:"email"`
		EmailVerified  bool              `json:"email_verified,omitempty"`
		Password       string            `json:"password,omitempty"`
		Nickname       string            `json:"nickname"`
		FirstName      string            `json:"first_name"`
		LastName       string            `json:"last_name"`
		Position       string            `json:"position"`
		Roles          string            `json:"roles"`
		Locale         string            `json:"locale"`
		Timezone       map[string]string `json:"timezone,omitempty"`
		Props          map[string]string `json:"props,omitempty"`
		NotifyProps    map[string]string `json:"notify_props,omitempty"`
		LastPasswordAt int64             `json:"last_password_update,omitempty"`
		IsBot          bool              `json:"is_bot,omitempty"`
	}

	// UserPatch carries partial profile updates. Nil fields are left
	// untouched by the server.
	UserPatch struct {
		Email       *string            `json:"email,omitempty"`
		Username    *string            `json:"username,omitempty"`
		Nickname    *string            `json:"nickname,omitempty"`
		FirstName   *string            `json:"first_name,omitempty"`
		LastName    *string            `json:"last_name,omitempty"`
		Position    *string            `json:"position,omitempty"`
		Locale      *string            `json:"locale,omitempty"`
		Timezone    *map[string]string `json:"timezone,omitempty"`
		Props       *map[string]string `json:"props,omitempty"`
		NotifyProps *map[string]string `json:"notify_props,omitempty"`
	}

	Session struct {
		ID       string `json:"id"`
		UserID   string `json:"user_id"`
		DeviceID string `json:"device_id"`
		CreateAt int64  `json:"create_at"`
		ExpireAt int64  `json:"expires_at"`
		Roles    string `json:"roles"`
	}

	Team struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Type        string `json:"type"`
	}

	TeamMember struct {
		TeamID   string `json:"team_id"`
		UserID   string `json:"user_id"`
		Roles    string `json:"roles"`
		DeleteAt int64  `json:"delete_at"`
	}

	// Preference is a single user preference row. Creating users with
	// tutorial bypass writes one of these.
	Preference struct {
		UserID   string `json:"user_id"`
		Category string `json:"category"`
		Name     string `json:"name"`
		Value    string `json:"value"`
	}

	// StatusOK is the generic acknowledgement body returned by
	// side-effect-only endpoints.
	StatusOK struct {
		Status string `json:"status"`
	}
)

const (
	// Role strings as the server expects them in PUT /users/{id}/roles.
	SystemUserRole  = "system_user"
	SystemAdminRole = "system_user system_admin"

	// Preference categories/names used by the helper layer.
	PreferenceCategoryTutorialSteps      = "tutorial_step"
	PreferenceRecommendedNextSteps       = "recommended_next_steps"
	PreferenceNameRecommendedSkipDefault = "hide"
)

// StatusOKValue is what the server puts in StatusOK.Status on success.
const StatusOKValue = "ok"

// IsAdmin reports whether the profile carries the system admin role.
func (u *UserProfile) IsAdmin() bool {
	return slices.Contains(strings.Fields(u.Roles), "system_admin")
}
