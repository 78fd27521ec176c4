package fakeserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/l0r3zz/mattermost-webapp/model"
)

type (
	session struct {
		id      string
		userID  string
		created int64
		expires int64
	}
	account struct {
		profile        model.UserProfile
		salt           string
		hashedPassword string
	}
	// store is the in-memory state of the fake platform. One lock guards
	// everything; the fixture workloads this server exists for are far
	// from contention-sensitive.
	store struct {
		lock sync.Mutex

		users       map[string]*account
		sessions    map[string]*session
		teams       map[string]*model.Team
		memberships map[string]map[string]*model.TeamMember
		preferences map[string][]model.Preference

		sessionTTL time.Duration
	}
)

func newStore(sessionTTL time.Duration) *store {
	return &store{
		users:       map[string]*account{},
		sessions:    map[string]*session{},
		teams:       map[string]*model.Team{},
		memberships: map[string]map[string]*model.TeamMember{},
		preferences: map[string][]model.Preference{},
		sessionTTL:  sessionTTL,
	}
}

func (s *store) createUser(user *model.UserProfile, salt, hashed string) (*model.UserProfile, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, existing := range s.users {
		if existing.profile.Username == user.Username ||
			strings.EqualFold(existing.profile.Email, user.Email) {
			return nil, false
		}
	}

	profile := *user
	profile.ID = uuid.NewString()
	profile.Password = ""
	profile.CreateAt = time.Now().UnixMilli()
	profile.UpdateAt = profile.CreateAt
	if profile.Roles == "" {
		profile.Roles = model.SystemUserRole
	}
	// The first account of a fresh server is the system admin, like the
	// real server's initial setup flow.
	if len(s.users) == 0 {
		profile.Roles = model.SystemAdminRole
	}

	s.users[profile.ID] = &account{profile: profile, salt: salt, hashedPassword: hashed}

	out := profile
	return &out, true
}

func (s *store) user(id string) (*model.UserProfile, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	acc, ok := s.users[id]
	if !ok {
		return nil, false
	}
	out := acc.profile
	return &out, true
}

func (s *store) userByLogin(loginID string) (*account, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, acc := range s.users {
		if acc.profile.Username == loginID || strings.EqualFold(acc.profile.Email, loginID) {
			return acc, true
		}
	}
	return nil, false
}

func (s *store) userByEmail(email string) (*model.UserProfile, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, acc := range s.users {
		if strings.EqualFold(acc.profile.Email, email) {
			out := acc.profile
			return &out, true
		}
	}
	return nil, false
}

func (s *store) usersByUsernames(usernames []string) []*model.UserProfile {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := []*model.UserProfile{}
	for _, username := range usernames {
		for _, acc := range s.users {
			if acc.profile.Username == username {
				profile := acc.profile
				out = append(out, &profile)
				break
			}
		}
	}
	return out
}

func (s *store) patchUser(id string, patch *model.UserPatch) (*model.UserProfile, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	acc, ok := s.users[id]
	if !ok {
		return nil, false
	}

	p := &acc.profile
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Username != nil {
		p.Username = *patch.Username
	}
	if patch.Nickname != nil {
		p.Nickname = *patch.Nickname
	}
	if patch.FirstName != nil {
		p.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		p.LastName = *patch.LastName
	}
	if patch.Position != nil {
		p.Position = *patch.Position
	}
	if patch.Locale != nil {
		p.Locale = *patch.Locale
	}
	if patch.Timezone != nil {
		p.Timezone = *patch.Timezone
	}
	if patch.Props != nil {
		p.Props = *patch.Props
	}
	if patch.NotifyProps != nil {
		p.NotifyProps = *patch.NotifyProps
	}
	p.UpdateAt = time.Now().UnixMilli()

	out := *p
	return &out, true
}

func (s *store) setActive(id string, active bool) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	acc, ok := s.users[id]
	if !ok {
		return false
	}

	if active {
		acc.profile.DeleteAt = 0
	} else {
		acc.profile.DeleteAt = time.Now().UnixMilli()
		// Deactivation kills the user's sessions, like the real server.
		for token, sess := range s.sessions {
			if sess.userID == id {
				delete(s.sessions, token)
			}
		}
	}
	acc.profile.UpdateAt = time.Now().UnixMilli()
	return true
}

func (s *store) setRoles(id, roles string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	acc, ok := s.users[id]
	if !ok {
		return false
	}
	acc.profile.Roles = roles
	acc.profile.UpdateAt = time.Now().UnixMilli()
	return true
}

func (s *store) setPreferences(id string, prefs []model.Preference) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.preferences[id] = append(s.preferences[id], prefs...)
}

func (s *store) createSession(userID string) (string, *session) {
	s.lock.Lock()
	defer s.lock.Unlock()

	token := uuid.NewString()
	now := time.Now()
	sess := &session{
		id:      uuid.NewString(),
		userID:  userID,
		created: now.UnixMilli(),
		expires: now.Add(s.sessionTTL).UnixMilli(),
	}
	s.sessions[token] = sess
	return token, sess
}

// sessionForToken resolves a bearer token, discarding it when expired.
func (s *store) sessionForToken(token string) (*session, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if time.Now().UnixMilli() > sess.expires {
		delete(s.sessions, token)
		return nil, false
	}
	return sess, true
}

func (s *store) userSessions(userID string) []*model.Session {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := []*model.Session{}
	for _, sess := range s.sessions {
		if sess.userID == userID {
			out = append(out, &model.Session{
				ID:       sess.id,
				UserID:   sess.userID,
				CreateAt: sess.created,
				ExpireAt: sess.expires,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) revokeSessions(userID string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for token, sess := range s.sessions {
		if sess.userID == userID {
			delete(s.sessions, token)
		}
	}
}

func (s *store) revokeToken(token string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.sessions, token)
}

func (s *store) createTeam(team *model.Team) *model.Team {
	s.lock.Lock()
	defer s.lock.Unlock()

	created := *team
	created.ID = uuid.NewString()
	s.teams[created.ID] = &created
	s.memberships[created.ID] = map[string]*model.TeamMember{}

	out := created
	return &out
}

func (s *store) addTeamMember(teamID, userID string) (*model.TeamMember, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.teams[teamID]; !ok {
		return nil, false
	}
	if _, ok := s.users[userID]; !ok {
		return nil, false
	}

	member := &model.TeamMember{TeamID: teamID, UserID: userID, Roles: "team_user"}
	s.memberships[teamID][userID] = member

	out := *member
	return &out, true
}

// usersNotInTeam returns active profiles without a membership in the
// team, ordered by username for stable paging.
func (s *store) usersNotInTeam(teamID string, page, perPage int) ([]*model.UserProfile, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	members, ok := s.memberships[teamID]
	if !ok {
		return nil, false
	}

	out := []*model.UserProfile{}
	for id, acc := range s.users {
		if acc.profile.DeleteAt > 0 {
			continue
		}
		if _, member := members[id]; member {
			continue
		}
		profile := acc.profile
		out = append(out, &profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })

	start := page * perPage
	if start >= len(out) {
		return []*model.UserProfile{}, true
	}
	end := min(start+perPage, len(out))
	return out[start:end], true
}

func (s *store) empty() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.users) == 0
}
