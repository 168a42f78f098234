package internal

import (
	"context"
	"fmt"
	"sync"
)

// Phase is the authentication phase of the client
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseAuthenticated
	PhaseAnonymous
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// SessionState is a snapshot of the session state machine
type SessionState struct {
	Phase           Phase
	Token           string // set only in PhaseAuthenticated
	SignOutInFlight bool
}

// Authenticated reports whether the state carries a usable token
func (s SessionState) Authenticated() bool {
	return s.Phase == PhaseAuthenticated && s.Token != ""
}

// TokenSource supplies the current session token to components that call
// per-user endpoints
type TokenSource interface {
	Token() (string, bool)
}

// AccountRemote is the backend side of sign-out and account deletion
type AccountRemote interface {
	SignOut(ctx context.Context, token string) error
	DeleteAccount(ctx context.Context, token string) error
}

// SessionOption configures a SessionController
type SessionOption func(*SessionController)

// WithStrict makes contract violations (SignIn without a stored token) panic
func WithStrict(strict bool) SessionOption {
	return func(c *SessionController) {
		c.strict = strict
	}
}

// SessionController owns the authentication state machine. It is the single
// source of truth for whether a user is logged in.
type SessionController struct {
	store  *CredentialStore
	remote AccountRemote
	strict bool

	// opMu serializes transitions so they are applied and observed in issue order
	opMu sync.Mutex

	mu           sync.RWMutex
	state        SessionState
	bootstrapped bool
	nextSubID    int
	subscribers  map[int]func(SessionState)
}

// NewSessionController creates a controller in PhaseLoading
func NewSessionController(store *CredentialStore, remote AccountRemote, opts ...SessionOption) *SessionController {
	c := &SessionController{
		store:       store,
		remote:      remote,
		state:       SessionState{Phase: PhaseLoading},
		subscribers: make(map[int]func(SessionState)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state
func (c *SessionController) State() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Token implements TokenSource
func (c *SessionController) Token() (string, bool) {
	s := c.State()
	if !s.Authenticated() {
		return "", false
	}
	return s.Token, true
}

// Subscribe registers fn to receive every transition. fn runs synchronously
// on the goroutine performing the transition and must not call back into
// Bootstrap, SignIn or SignOut.
func (c *SessionController) Subscribe(fn func(SessionState)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Bootstrap resolves the Loading phase from the credential store. It runs
// once per controller; later calls return the current state.
func (c *SessionController) Bootstrap(ctx context.Context) SessionState {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.RLock()
	done := c.bootstrapped
	c.mu.RUnlock()
	if done {
		LogWarn("Session bootstrap called more than once, ignoring")
		return c.State()
	}

	next := SessionState{Phase: PhaseAnonymous}
	cred, err := c.store.Load(ctx)
	switch {
	case err != nil:
		LogError("Credential store unreadable, continuing signed out: %v", err)
	case cred != nil:
		next = SessionState{Phase: PhaseAuthenticated, Token: cred.Token}
	}

	c.mu.Lock()
	c.bootstrapped = true
	c.mu.Unlock()
	c.transition(next)
	LogDebug("Session bootstrapped: %s", next.Phase)
	return next
}

// SignIn moves to Authenticated using the token the login flow just stored.
func (c *SessionController) SignIn(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.markBootstrapped()

	cred, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read credential: %w", err)
	}
	if cred == nil {
		if c.strict {
			panic("signbridge: SignIn called without a stored credential")
		}
		LogError("SignIn called without a stored credential")
		return ErrNoCredential
	}

	c.transition(SessionState{Phase: PhaseAuthenticated, Token: cred.Token})
	return nil
}

// SignOut clears the credential store and moves to Anonymous. The remote
// sign-out is best-effort; local de-authentication always happens. A store
// error is returned after the transition.
func (c *SessionController) SignOut(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.signOutLocked(ctx)
}

// DeleteAccount removes the account remotely and then signs out. If the
// remote call fails the session is left untouched.
func (c *SessionController) DeleteAccount(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	token, ok := c.Token()
	if !ok {
		return ErrUnauthorized
	}
	if c.remote == nil {
		return fmt.Errorf("account deletion is not available")
	}
	if err := c.remote.DeleteAccount(ctx, token); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return c.signOutLocked(ctx)
}

func (c *SessionController) signOutLocked(ctx context.Context) error {
	c.markBootstrapped()

	current := c.State()
	if current.Authenticated() {
		inFlight := current
		inFlight.SignOutInFlight = true
		c.transition(inFlight)

		if c.remote != nil {
			if err := c.remote.SignOut(ctx, current.Token); err != nil {
				LogWarn("Remote sign-out failed, signing out locally: %v", err)
			}
		}
	}

	storeErr := c.store.Clear(ctx)
	if storeErr != nil {
		LogError("Failed to clear credential store: %v", storeErr)
	}

	c.transition(SessionState{Phase: PhaseAnonymous})
	return storeErr
}

// markBootstrapped closes the Loading window for transitions that skip Bootstrap
func (c *SessionController) markBootstrapped() {
	c.mu.Lock()
	c.bootstrapped = true
	c.mu.Unlock()
}

// transition applies next and notifies subscribers before returning.
// Callers hold opMu.
func (c *SessionController) transition(next SessionState) {
	c.mu.Lock()
	c.state = next
	subs := make([]func(SessionState), 0, len(c.subscribers))
	for id := 0; id < c.nextSubID; id++ {
		if fn, ok := c.subscribers[id]; ok {
			subs = append(subs, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}
