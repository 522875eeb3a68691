// Package common contains shared constants and sentinel errors used across
// CPD Vault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound    = errors.New("not found")
	ErrorStorageRead = errors.New("local storage read failed")
	// ErrorStorageWrite means the local write did not happen; callers must
	// not assume a partial write succeeded.
	ErrorStorageWrite = errors.New("local storage write failed")

	// remote store errors. ErrorNetworkUnavailable is transient and safe to
	// retry; ErrorRemoteRejected means the server refused the request and a
	// blind retry will fail again.
	ErrorNotAuthenticated   = errors.New("not authenticated")
	ErrorNetworkUnavailable = errors.New("network unavailable")
	ErrorRemoteRejected     = errors.New("rejected by server")

	// service specific errors
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorValidation    = errors.New("validation error")
	ErrorAlreadyExists = errors.New("already exists")

	ErrInvalidToken = errors.New("invalid token")

	// token lifecycle errors
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// sync engine errors
	ErrSyncInFlight = errors.New("sync already in progress")
)
