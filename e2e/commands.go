// Package e2e is the helper-command layer test suites build on. Every
// command wraps one or a few REST calls with the fixture bookkeeping a
// suite needs: generated credentials, session reuse, and a ledger of
// created accounts for later cleanup.
package e2e

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/l0r3zz/mattermost-webapp/client"
	"github.com/l0r3zz/mattermost-webapp/internal/ledger"
	"github.com/l0r3zz/mattermost-webapp/model"
	"github.com/trebent/zerologr"
)

type (
	Opts struct {
		Client *client.Client

		// AdminUsername and AdminPassword identify the system admin
		// account AdminLogin uses.
		AdminUsername string
		AdminPassword string

		// SessionTTL bounds how long cached session tokens are reused
		// before a command logs in again.
		SessionTTL time.Duration

		// Ledger is optional. When set, every created account is
		// recorded for Cleanup.
		Ledger *ledger.Ledger
	}
	Commands struct {
		client *client.Client
		ledger *ledger.Ledger

		adminUsername string
		adminPassword string

		// sessions caches tokens per login ID so sequential commands
		// that switch identities skip redundant logins.
		sessions *ttlcache.Cache[string, cachedSession]
	}

	// cachedSession pairs a token with the password that minted it, so
	// reuse never bypasses a changed or wrong password.
	cachedSession struct {
		token    string
		password string
	}
)

const defaultSessionTTL = 15 * time.Minute

func New(opts *Opts) *Commands {
	ttl := opts.SessionTTL
	if ttl == 0 {
		ttl = defaultSessionTTL
	}

	sessions := ttlcache.New(
		ttlcache.WithTTL[string, cachedSession](ttl),
		ttlcache.WithDisableTouchOnHit[string, cachedSession](),
	)
	go sessions.Start()

	return &Commands{
		client:        opts.Client,
		ledger:        opts.Ledger,
		adminUsername: opts.AdminUsername,
		adminPassword: opts.AdminPassword,
		sessions:      sessions,
	}
}

// Close stops the session cache janitor. The ledger stays open; whoever
// created it owns its lifecycle.
func (c *Commands) Close() {
	c.sessions.Stop()
}

// Client exposes the underlying API client for calls the command layer
// does not wrap.
func (c *Commands) Client() *client.Client {
	return c.client
}

// AdminLogin establishes a session for the configured system admin.
func (c *Commands) AdminLogin(ctx context.Context) (*model.UserProfile, error) {
	return c.Login(ctx, c.adminUsername, c.adminPassword)
}

// Login establishes a session for the given login ID (username or
// email). A cached, unexpired token is reused when it was minted with
// the same password and the server still accepts it.
func (c *Commands) Login(
	ctx context.Context,
	loginID, password string,
) (*model.UserProfile, error) {
	if item := c.sessions.Get(loginID); item != nil && item.Value().password == password {
		c.client.SetToken(item.Value().token)

		user, err := c.client.Me(ctx)
		if err == nil {
			zerologr.V(10).Info("Reused cached session", "login_id", loginID)
			return user, nil
		}

		// The server no longer honors the token, fall through to a
		// fresh login.
		c.sessions.Delete(loginID)
		c.client.SetToken("")
	}

	user, err := c.client.Login(ctx, loginID, password)
	if err != nil {
		return nil, fmt.Errorf("login as %s failed: %w", loginID, err)
	}

	c.sessions.Set(
		loginID,
		cachedSession{token: c.client.Token(), password: password},
		ttlcache.DefaultTTL,
	)
	return user, nil
}

// Logout revokes the current session and forgets any cached token for
// the session user.
func (c *Commands) Logout(ctx context.Context) (*model.StatusOK, error) {
	user, err := c.client.Me(ctx)
	if err == nil {
		c.sessions.Delete(user.Username)
		c.sessions.Delete(user.Email)
	}

	return c.client.Logout(ctx)
}

// CurrentUser relays the profile bound to the current session.
func (c *Commands) CurrentUser(ctx context.Context) (*model.UserProfile, error) {
	return c.client.Me(ctx)
}

func (c *Commands) UserByID(ctx context.Context, userID string) (*model.UserProfile, error) {
	return c.client.User(ctx, userID)
}

func (c *Commands) UserByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	return c.client.UserByEmail(ctx, email)
}

func (c *Commands) UsersByUsernames(
	ctx context.Context,
	usernames []string,
) ([]*model.UserProfile, error) {
	return c.client.UsersByUsernames(ctx, usernames)
}

// PatchCurrentUser applies a partial update to the session user.
func (c *Commands) PatchCurrentUser(
	ctx context.Context,
	patch *model.UserPatch,
) (*model.UserProfile, error) {
	return c.client.PatchUser(ctx, client.MePath, patch)
}

func (c *Commands) PatchUser(
	ctx context.Context,
	userID string,
	patch *model.UserPatch,
) (*model.UserProfile, error) {
	return c.client.PatchUser(ctx, userID, patch)
}

// CreateUser registers a fixture account with generated credentials. The
// returned profile carries the cleartext password so the test can log in
// as the new user.
func (c *Commands) CreateUser(
	ctx context.Context,
	opts *CreateUserOpts,
) (*model.UserProfile, error) {
	if opts == nil {
		opts = &CreateUserOpts{}
	}

	id := randomID()
	password := opts.Password
	if password == "" {
		password = uuid.NewString()
	}

	user := &model.UserProfile{
		Username:  fmt.Sprintf("%s-%s", opts.prefix(), id),
		Email:     fmt.Sprintf("%s-%s@sample.test", opts.prefix(), id),
		Password:  password,
		FirstName: "First" + id,
		LastName:  "Last" + id,
		Nickname:  "Nick" + id,
	}

	created, err := c.client.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", user.Username, err)
	}
	zerologr.V(10).Info("Created fixture user", "username", created.Username)

	if !opts.WithTutorial {
		if err := c.dismissOnboarding(ctx, created.ID); err != nil {
			return nil, err
		}
	}

	if opts.Deactivated {
		if _, err := c.client.UpdateUserActive(ctx, created.ID, false); err != nil {
			return nil, fmt.Errorf("failed to deactivate user %s: %w", created.Username, err)
		}
	}

	c.record(ctx, created, false)

	created.Password = password
	return created, nil
}

// CreateAdmin registers a fixture account and promotes it to system
// admin. The session user must be an admin for the promotion to stick.
func (c *Commands) CreateAdmin(
	ctx context.Context,
	opts *CreateAdminOpts,
) (*model.UserProfile, error) {
	if opts == nil {
		opts = &CreateAdminOpts{}
	}

	created, err := c.CreateUser(ctx, &CreateUserOpts{
		Prefix:      opts.prefix(),
		Password:    opts.Password,
		Deactivated: opts.Deactivated,
	})
	if err != nil {
		return nil, err
	}

	if _, err := c.client.UpdateUserRoles(ctx, created.ID, model.SystemAdminRole); err != nil {
		return nil, fmt.Errorf("failed to promote user %s: %w", created.Username, err)
	}
	created.Roles = model.SystemAdminRole

	c.record(ctx, created, true)
	return created, nil
}

// RevokeUserSessions revokes every session of the given user and drops
// cached tokens that may now be dead.
func (c *Commands) RevokeUserSessions(
	ctx context.Context,
	userID string,
) (*model.StatusOK, error) {
	user, err := c.client.User(ctx, userID)
	if err == nil {
		c.sessions.Delete(user.Username)
		c.sessions.Delete(user.Email)
	}

	return c.client.RevokeUserSessions(ctx, userID)
}

// RevokeAllSessions revokes every session of the session user,
// including the one making the call.
func (c *Commands) RevokeAllSessions(ctx context.Context) (*model.StatusOK, error) {
	return c.RevokeUserSessions(ctx, client.MePath)
}

// UsersNotInTeam relays one page of profiles without a membership in the
// team.
func (c *Commands) UsersNotInTeam(
	ctx context.Context,
	teamID string,
	page, perPage int,
) ([]*model.UserProfile, error) {
	return c.client.UsersNotInTeam(ctx, teamID, page, perPage)
}

// ActivateUser flips the active flag of an account. Deactivation revokes
// the account's sessions server-side.
func (c *Commands) ActivateUser(
	ctx context.Context,
	userID string,
	active bool,
) (*model.StatusOK, error) {
	return c.client.UpdateUserActive(ctx, userID, active)
}

// CreateTeam provisions a team fixture with a generated name, for
// membership-exclusion queries to run against.
func (c *Commands) CreateTeam(ctx context.Context, prefix string) (*model.Team, error) {
	if prefix == "" {
		prefix = "team"
	}

	id := randomID()
	return c.client.CreateTeam(ctx, &model.Team{
		Name:        fmt.Sprintf("%s-%s", prefix, id),
		DisplayName: fmt.Sprintf("%s %s", prefix, id),
		Type:        "O",
	})
}

// AddTeamMember joins a user to a team fixture.
func (c *Commands) AddTeamMember(
	ctx context.Context,
	teamID, userID string,
) (*model.TeamMember, error) {
	return c.client.AddTeamMember(ctx, teamID, userID)
}

// Cleanup deactivates every ledger-recorded account and revokes its
// sessions. Requires an admin session. Failures are logged and skipped
// so one broken fixture does not leave the rest behind.
func (c *Commands) Cleanup(ctx context.Context) error {
	if c.ledger == nil {
		return nil
	}

	entries, err := c.ledger.Users(ctx)
	if err != nil {
		return fmt.Errorf("failed to list ledger entries: %w", err)
	}

	for _, entry := range entries {
		if _, err := c.client.RevokeUserSessions(ctx, entry.UserID); err != nil {
			zerologr.Error(err, "Failed to revoke fixture sessions", "username", entry.Username)
			continue
		}
		if _, err := c.client.UpdateUserActive(ctx, entry.UserID, false); err != nil {
			zerologr.Error(err, "Failed to deactivate fixture user", "username", entry.Username)
			continue
		}
		if err := c.ledger.Remove(ctx, entry.UserID); err != nil {
			zerologr.Error(err, "Failed to remove ledger entry", "username", entry.Username)
		}
	}

	return nil
}

// dismissOnboarding marks the tutorial and recommended-next-steps flows
// as done, the way almost every suite wants fresh fixtures.
func (c *Commands) dismissOnboarding(ctx context.Context, userID string) error {
	prefs := []model.Preference{
		{
			UserID:   userID,
			Category: model.PreferenceCategoryTutorialSteps,
			Name:     userID,
			Value:    "999",
		},
		{
			UserID:   userID,
			Category: model.PreferenceRecommendedNextSteps,
			Name:     model.PreferenceNameRecommendedSkipDefault,
			Value:    "true",
		},
	}
	if _, err := c.client.SavePreferences(ctx, userID, prefs); err != nil {
		return fmt.Errorf("failed to dismiss onboarding for %s: %w", userID, err)
	}
	return nil
}

func (c *Commands) record(ctx context.Context, user *model.UserProfile, admin bool) {
	if c.ledger == nil {
		return
	}

	err := c.ledger.Record(ctx, &ledger.Entry{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Admin:    admin,
	})
	if err != nil {
		// The ledger is advisory, a failed write should not fail the
		// command that created the account.
		zerologr.Error(err, "Failed to record fixture user", "username", user.Username)
	}
}
