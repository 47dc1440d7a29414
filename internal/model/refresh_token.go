package model

import "time"

// RefreshToken models a row in the 'refresh_tokens' table.  One row
// represents one still-valid, not-yet-rotated refresh token.  The row id is
// embedded in the refresh JWT as its "jti" claim; a refresh token is only
// accepted while a row with matching id and user id exists and is not
// expired.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id, also the JWT jti
	UserID    uint64    // owning user
	ExpiresAt time.Time // authoritative expiry for revocation checks
	CreatedAt time.Time
}
