package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
)

// SessionReader decodes the session cookie into a Claim by looking up the
// session record in Redis. It is strictly read-only: session creation and
// destruction belong to the external login and logout flows.
type SessionReader struct {
	client     *redis.Client
	cookieName string
}

type sessionPayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// NewSessionReader constructs a SessionReader.
func NewSessionReader(client *redis.Client, cookieName string) *SessionReader {
	return &SessionReader{client: client, cookieName: cookieName}
}

// CookieName returns the cookie identifier carrying the session token.
func (sr *SessionReader) CookieName() string {
	return sr.cookieName
}

// Decode implements ClaimDecoder.
func (sr *SessionReader) Decode(ctx context.Context, r *http.Request) (Claim, error) {
	cookie, err := r.Cookie(sr.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return Claim{}, ErrNoSession
		}
		return Claim{}, fmt.Errorf("shared: read session cookie: %w", err)
	}
	token := strings.TrimSpace(cookie.Value)
	if token == "" {
		return Claim{}, ErrNoSession
	}

	raw, err := sr.client.Get(ctx, sr.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Claim{}, ErrNoSession
		}
		return Claim{}, fmt.Errorf("shared: load session: %w", err)
	}

	var stored sessionPayload
	if err := json.Unmarshal(raw, &stored); err != nil {
		return Claim{}, fmt.Errorf("shared: decode session payload: %w", err)
	}
	if strings.TrimSpace(stored.Role) == "" {
		return Claim{}, ErrNoRoleClaim
	}
	return Claim{UserID: stored.UserID, Role: stored.Role}, nil
}

func (sr *SessionReader) redisKey(token string) string {
	return "session:" + token
}
