// Package common contains shared constants and sentinel errors used across
// chatauth components.
package common

import "time"

// SessionCookieName is the cookie that carries the session token between
// the browser and the server.
const SessionCookieName = "jwt"

// SessionTTL is how long an issued session token, and the cookie carrying
// it, stays valid.
const SessionTTL = 30 * 24 * time.Hour

// MinPasswordLength is the shortest plaintext password accepted at signup.
const MinPasswordLength = 5
