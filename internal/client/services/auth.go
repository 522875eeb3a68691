package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cpdvault/internal/client/kvstore"
	"github.com/dmitrijs2005/cpdvault/internal/client/remote"
	"github.com/dmitrijs2005/cpdvault/internal/common"
)

const sessionKey = "cpd:session"

// AuthService manages the authenticated session: login/register against the
// server and caching of the token pair in the local store so a restarted
// client keeps its identity while offline.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) error
	// RestoreSession loads a previously cached session, if any. Absence is
	// not an error.
	RestoreSession(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Username() string
}

type cachedSession struct {
	Username string          `json:"username"`
	Session  *remote.Session `json:"session"`
}

type authService struct {
	client   remote.Client
	kv       kvstore.Store
	username string
}

// NewAuthService binds the auth flow to the API client and the local store.
func NewAuthService(client remote.Client, kv kvstore.Store) AuthService {
	return &authService{client: client, kv: kv}
}

func (a *authService) Register(ctx context.Context, username string, password []byte) error {
	if err := a.client.Register(ctx, username, string(password)); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return nil
}

func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	session, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	a.username = username

	b, err := json.Marshal(cachedSession{Username: username, Session: session})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := a.kv.Set(ctx, sessionKey, b); err != nil {
		// login still succeeded; the session just won't survive a restart
		return nil
	}
	return nil
}

func (a *authService) RestoreSession(ctx context.Context) (bool, error) {
	b, err := a.kv.Get(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}

	var cached cachedSession
	if err := json.Unmarshal(b, &cached); err != nil {
		// corrupt cache: drop it and carry on unauthenticated
		_ = a.kv.Remove(ctx, sessionKey)
		return false, nil
	}

	a.username = cached.Username
	a.client.SetSession(cached.Session)
	return true, nil
}

func (a *authService) Logout(ctx context.Context) error {
	a.client.Logout()
	a.username = ""
	return a.kv.Remove(ctx, sessionKey)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Username() string {
	return a.username
}
