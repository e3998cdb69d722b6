package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Public_OmitsHash(t *testing.T) {
	u := &User{
		ID:           "0b6f3c1e",
		Email:        "a@b.com",
		FullName:     "A",
		PasswordHash: "$2a$10$secret",
		ProfilePic:   "https://cdn/x.png",
	}

	b, err := json.Marshal(u.Public())
	require.NoError(t, err)

	assert.JSONEq(t, `{"_id":"0b6f3c1e","fullName":"A","email":"a@b.com","profilePic":"https://cdn/x.png"}`, string(b))
	assert.NotContains(t, string(b), "secret")
}
