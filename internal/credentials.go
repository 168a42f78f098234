package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	keySessionToken   = "session.token"
	keySessionProfile = "session.profile"
	keyHistoryEnabled = "pref.history_enabled"
)

// Profile is the cached user profile returned by the login flow
type Profile struct {
	DisplayName string `json:"display_name" yaml:"display_name"`
	Email       string `json:"email" yaml:"email"`
}

// Credential is the persisted session record
type Credential struct {
	Token   string  `json:"token"`
	Profile Profile `json:"profile"`
}

// CredentialStore persists the session token and cached profile
type CredentialStore struct {
	kv KVStore
}

// NewCredentialStore creates a CredentialStore on top of a KVStore
func NewCredentialStore(kv KVStore) *CredentialStore {
	return &CredentialStore{kv: kv}
}

// Load returns the stored credential, or nil if no token is present
func (s *CredentialStore) Load(ctx context.Context) (*Credential, error) {
	token, ok, err := s.kv.Get(ctx, keySessionToken)
	if err != nil {
		return nil, err
	}
	if !ok || token == "" {
		return nil, nil
	}

	cred := &Credential{Token: token}
	raw, ok, err := s.kv.Get(ctx, keySessionProfile)
	if err != nil {
		return nil, err
	}
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &cred.Profile); err != nil {
			// A damaged profile does not invalidate the token
			LogWarn("Ignoring unreadable cached profile: %v", err)
		}
	}
	return cred, nil
}

// Save writes the credential, overwriting any previous one
func (s *CredentialStore) Save(ctx context.Context, cred Credential) error {
	if cred.Token == "" {
		return fmt.Errorf("refusing to save credential with empty token")
	}
	profile, err := json.Marshal(cred.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := s.kv.Set(ctx, keySessionProfile, string(profile)); err != nil {
		return err
	}
	return s.kv.Set(ctx, keySessionToken, cred.Token)
}

// Clear deletes the token and the cached profile
func (s *CredentialStore) Clear(ctx context.Context) error {
	// Token first so a partial failure never leaves a usable session behind
	if err := s.kv.Delete(ctx, keySessionToken); err != nil {
		return err
	}
	return s.kv.Delete(ctx, keySessionProfile)
}

// Preferences holds user toggles stored next to the credential
type Preferences struct {
	kv KVStore
}

// NewPreferences creates a Preferences view on a KVStore
func NewPreferences(kv KVStore) *Preferences {
	return &Preferences{kv: kv}
}

// HistoryEnabled reports whether recent-history recording is on (default true)
func (p *Preferences) HistoryEnabled(ctx context.Context) (bool, error) {
	raw, ok, err := p.kv.Get(ctx, keyHistoryEnabled)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		LogWarn("Invalid %s value %q, treating as enabled", keyHistoryEnabled, raw)
		return true, nil
	}
	return enabled, nil
}

// SetHistoryEnabled toggles recent-history recording
func (p *Preferences) SetHistoryEnabled(ctx context.Context, enabled bool) error {
	return p.kv.Set(ctx, keyHistoryEnabled, strconv.FormatBool(enabled))
}
