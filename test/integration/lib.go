package integration

import (
	"slices"
	"testing"

	"github.com/l0r3zz/mattermost-webapp/client"
	"github.com/l0r3zz/mattermost-webapp/e2e"
	"github.com/l0r3zz/mattermost-webapp/model"
)

// Shared suite state, provisioned once by TestMain. The commands client
// holds one session at a time, so tests that switch identities log back
// in as the admin before returning.
var (
	apiClient *client.Client
	cmds      *e2e.Commands

	admin *model.UserProfile

	alwaysTeamID string
	alwaysUser   *model.UserProfile
)

const (
	adminUsername = "sysadmin"
	adminPassword = "Sys@dmin-sample1"
)

func checkErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func matches[T comparable](one, two T, t *testing.T) {
	t.Helper()
	if one != two {
		t.Fatalf("%v is not equal to %v", one, two)
	}
}

func containsAll[T comparable](source, reference []T, t *testing.T) {
	t.Helper()
	for _, item := range source {
		if !slices.Contains(reference, item) {
			t.Fatalf("Reference slice does not contain %v", item)
		}
	}
}

func usernames(profiles []*model.UserProfile) []string {
	out := make([]string, 0, len(profiles))
	for _, profile := range profiles {
		out = append(out, profile.Username)
	}
	return out
}

func adminSession(t *testing.T) {
	t.Helper()
	if _, err := cmds.AdminLogin(t.Context()); err != nil {
		t.Fatalf("Failed to establish admin session: %v", err)
	}
}
