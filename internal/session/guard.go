package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/iliyamo/apartment-portal/internal/model"
)

// State is the authentication state the rest of the portal reads.
type State struct {
	Authenticated bool
	Token         string
	User          *model.User
}

// Guard is the single owner of one browser session's auth state.
type Guard struct {
	store Storage
	now   func() time.Time
	state State
}

// NewGuard returns a logged-out guard over store.
func NewGuard(store Storage) *Guard {
	return &Guard{store: store, now: time.Now}
}

// CheckAuthState hydrates the guard from storage. A session is restored
// only when both keys are present, the user decodes and the token has not
// expired; anything else clears both keys. It returns ErrTokenExpired when
// a stored token was dropped for expiry.
func (g *Guard) CheckAuthState(ctx context.Context) error {
	token, raw, err := g.store.Load(ctx)
	if err != nil {
		return err
	}
	if token == "" && len(raw) == 0 {
		g.state = State{}
		return nil
	}
	if token != "" && IsTokenExpired(token, g.now()) {
		return errors.Join(ErrTokenExpired, g.Logout(ctx))
	}
	var u model.User
	if token == "" || len(raw) == 0 || json.Unmarshal(raw, &u) != nil || !u.Valid() {
		return g.Logout(ctx)
	}
	g.state = State{Authenticated: true, Token: token, User: &u}
	return nil
}

// Login stores token and user and marks the session authenticated. It
// returns false without touching storage when token is already expired.
func (g *Guard) Login(ctx context.Context, token string, user model.User) (bool, error) {
	if IsTokenExpired(token, g.now()) {
		return false, nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return false, err
	}
	if err := g.store.Save(ctx, token, raw); err != nil {
		return false, err
	}
	g.state = State{Authenticated: true, Token: token, User: &user}
	return true, nil
}

// Logout clears both keys and the in-memory state.
func (g *Guard) Logout(ctx context.Context) error {
	g.state = State{}
	return g.store.Clear(ctx)
}

// State returns the current state.
func (g *Guard) State() State { return g.state }
