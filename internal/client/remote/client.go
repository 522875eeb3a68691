// Package remote implements the Remote Entry Store boundary: an HTTP/JSON
// client for the hosted table-and-auth service. Every call returns a typed
// result distinguishing transport failure (retry later) from server rejection
// (do not retry blindly) from success.
package remote

import (
	"context"

	"github.com/dmitrijs2005/cpdvault/internal/client/models"
)

// Session holds the token pair for an authenticated user. It is cached in the
// local store so a restarted client keeps its identity while offline.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Client is the remote store boundary.
//
// Authenticated calls check for a session up front and fail with
// common.ErrorNotAuthenticated before any network traffic, never inferring it
// from a failed call.
type Client interface {
	// HasSession reports whether an authenticated session is present.
	HasSession() bool
	// Session returns the current session, or nil.
	Session() *Session
	// SetSession installs a previously cached session.
	SetSession(s *Session)
	// Logout drops the session.
	Logout()

	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (*Session, error)
	Ping(ctx context.Context) error

	// Upsert writes the entry under its correlation id. The server performs
	// the lookup-then-branch: update if a row with this correlation id
	// exists, insert otherwise.
	Upsert(ctx context.Context, entry *models.Entry) error
	// Delete removes the remote row; a missing row counts as success.
	Delete(ctx context.Context, correlationID string) error
	// List returns all rows owned by the authenticated user, newest
	// activity date first.
	List(ctx context.Context) ([]*models.Entry, error)

	// PresignPut returns a storage key and a presigned PUT URL for a new
	// evidence object.
	PresignPut(ctx context.Context) (key string, url string, err error)
	// PresignGet returns a presigned GET URL for an existing evidence object.
	PresignGet(ctx context.Context, key string) (url string, err error)
}
