package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindInternal},
		{errors.New("boom"), KindInternal},
		{ErrorNotFound, KindInternal},
		{ErrMissingFields, KindValidation},
		{fmt.Errorf("signup: %w", ErrEmailAlreadyInUse), KindValidation},
		{ErrInvalidCredentials, KindAuth},
		{fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired), KindAuth},
		{ErrIdentityNotFound, KindNotFound},
		{fmt.Errorf("%w: dial tcp: refused", ErrStoreFailed), KindDependency},
		{ErrMissingSigningSecret, KindConfig},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "KindOf(%v)", tt.err)
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Please fill all fields", PublicMessage(fmt.Errorf("x: %w", ErrMissingFields)))
	assert.Equal(t, "Unauthorized - Invalid token", PublicMessage(fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)))
	assert.Equal(t, "User not found", PublicMessage(ErrIdentityNotFound))

	for _, err := range []error{
		errors.New("pq: secret detail"),
		fmt.Errorf("%w: secret detail", ErrStoreFailed),
		ErrUploadFailed,
		ErrMissingSigningSecret,
		nil,
	} {
		assert.Empty(t, PublicMessage(err), "PublicMessage(%v)", err)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "internal", Kind(99).String())
}
