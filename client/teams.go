package client

import (
	"context"
	"net/http"

	"github.com/l0r3zz/mattermost-webapp/model"
)

type addMemberRequest struct {
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
}

// CreateTeam registers a team. The membership-exclusion queries need at
// least one team to be meaningful, so the harness provisions one.
func (c *Client) CreateTeam(ctx context.Context, team *model.Team) (*model.Team, error) {
	created := &model.Team{}
	if _, err := c.do(ctx, http.MethodPost, "/teams", nil, team, created); err != nil {
		return nil, err
	}
	return created, nil
}

// AddTeamMember joins a user to a team.
func (c *Client) AddTeamMember(
	ctx context.Context,
	teamID, userID string,
) (*model.TeamMember, error) {
	member := &model.TeamMember{}
	if _, err := c.do(
		ctx, http.MethodPost, "/teams/"+teamID+"/members", nil,
		&addMemberRequest{TeamID: teamID, UserID: userID}, member,
	); err != nil {
		return nil, err
	}
	return member, nil
}
