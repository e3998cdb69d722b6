// Package common defines shared constants and sentinel errors used across
// the chatauth server layers. Callers should use errors.Is to match these
// values and KindOf to classify them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors. Their messages are shown to the client as is.
	ErrMalformedBody      = errors.New("Invalid request body")
	ErrMissingFields      = errors.New("Please fill all fields")
	ErrPasswordTooShort   = errors.New("Password must be at least 5 characters long")
	ErrPasswordTooLong    = errors.New("Password must be at most 72 bytes long")
	ErrInvalidEmailFormat = errors.New("Please enter a valid email address")
	ErrEmailAlreadyInUse  = errors.New("Email already in use")
	ErrMissingAvatar      = errors.New("Profile pic is required")
	ErrInvalidAvatar      = errors.New("Profile pic must be an image")
	ErrAvatarTooLarge     = errors.New("Profile pic is too large")

	// Auth errors.
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrUnauthenticated    = errors.New("Unauthorized - No token")
	ErrInvalidToken       = errors.New("Unauthorized - Invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrCorruptCredential  = errors.New("corrupt credential")

	// Not found errors.
	ErrIdentityNotFound = errors.New("User not found")

	// Dependency errors.
	ErrStoreFailed  = errors.New("credential store failure")
	ErrUploadFailed = errors.New("avatar upload failed")
	ErrEmailFailed  = errors.New("email delivery failed")

	// Configuration errors, fatal at startup.
	ErrMissingSigningSecret = errors.New("jwt signing secret is not configured")
)

// Kind is the coarse category of an error, used by transports to pick a
// status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindDependency
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindDependency:
		return "dependency"
	case KindConfig:
		return "config"
	default:
		return "internal"
	}
}

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrMalformedBody, KindValidation},
	{ErrMissingFields, KindValidation},
	{ErrPasswordTooShort, KindValidation},
	{ErrPasswordTooLong, KindValidation},
	{ErrInvalidEmailFormat, KindValidation},
	{ErrEmailAlreadyInUse, KindValidation},
	{ErrMissingAvatar, KindValidation},
	{ErrInvalidAvatar, KindValidation},
	{ErrAvatarTooLarge, KindValidation},

	{ErrInvalidCredentials, KindAuth},
	{ErrUnauthenticated, KindAuth},
	{ErrInvalidToken, KindAuth},
	{ErrTokenExpired, KindAuth},

	{ErrIdentityNotFound, KindNotFound},

	{ErrStoreFailed, KindDependency},
	{ErrUploadFailed, KindDependency},
	{ErrEmailFailed, KindDependency},

	{ErrMissingSigningSecret, KindConfig},
}

// KindOf classifies err. Errors that match none of the sentinels above,
// including ErrorNotFound leaking out of a repository, are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// PublicMessage returns the client-safe message of the first sentinel err
// wraps, or "" when err carries nothing that may be shown to a client.
func PublicMessage(err error) string {
	switch KindOf(err) {
	case KindInternal, KindDependency, KindConfig:
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err.Error()
		}
	}
	return ""
}
