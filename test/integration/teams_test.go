package integration

import (
	"errors"
	"slices"
	"testing"

	"github.com/l0r3zz/mattermost-webapp/apierror"
	"github.com/l0r3zz/mattermost-webapp/e2e"
)

func TestUsersNotInTeam(t *testing.T) {
	adminSession(t)

	outsider, err := cmds.CreateUser(t.Context(), &e2e.CreateUserOpts{Prefix: "outsider"})
	checkErr(err, t)

	profiles, err := cmds.UsersNotInTeam(t.Context(), alwaysTeamID, 0, 200)
	checkErr(err, t)

	names := usernames(profiles)
	if !slices.Contains(names, outsider.Username) {
		t.Fatalf("Expected %q among the non-members", outsider.Username)
	}
	if slices.Contains(names, alwaysUser.Username) {
		t.Fatalf("Team member %q must be excluded", alwaysUser.Username)
	}
}

func TestUsersNotInTeamExcludesDeactivated(t *testing.T) {
	adminSession(t)

	ghost, err := cmds.CreateUser(t.Context(), &e2e.CreateUserOpts{
		Prefix:      "ghost",
		Deactivated: true,
	})
	checkErr(err, t)

	profiles, err := cmds.UsersNotInTeam(t.Context(), alwaysTeamID, 0, 200)
	checkErr(err, t)
	if slices.Contains(usernames(profiles), ghost.Username) {
		t.Fatalf("Deactivated account %q must be excluded", ghost.Username)
	}
}

func TestUsersNotInTeamUnknownTeam(t *testing.T) {
	adminSession(t)

	_, err := cmds.UsersNotInTeam(t.Context(), "0000000000000000000000000000", 0, 200)
	if !errors.Is(err, apierror.ErrNotFound) {
		t.Fatalf("Expected a not-found error, got: %v", err)
	}
}

func TestJoiningRemovesFromExclusion(t *testing.T) {
	adminSession(t)

	joiner, err := cmds.CreateUser(t.Context(), &e2e.CreateUserOpts{Prefix: "joiner"})
	checkErr(err, t)

	profiles, err := cmds.UsersNotInTeam(t.Context(), alwaysTeamID, 0, 200)
	checkErr(err, t)
	if !slices.Contains(usernames(profiles), joiner.Username) {
		t.Fatalf("Expected %q among the non-members before joining", joiner.Username)
	}

	_, err = cmds.AddTeamMember(t.Context(), alwaysTeamID, joiner.ID)
	checkErr(err, t)

	profiles, err = cmds.UsersNotInTeam(t.Context(), alwaysTeamID, 0, 200)
	checkErr(err, t)
	if slices.Contains(usernames(profiles), joiner.Username) {
		t.Fatalf("Team member %q must be excluded after joining", joiner.Username)
	}
}
