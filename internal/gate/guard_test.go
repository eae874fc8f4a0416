package gate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetgate/fleetgate/internal/shared"
)

type stubDecoder struct {
	claim shared.Claim
	err   error
}

func (s stubDecoder) Decode(ctx context.Context, r *http.Request) (shared.Claim, error) {
	if s.err != nil {
		return shared.Claim{}, s.err
	}
	return s.claim, nil
}

func serveGuard(t *testing.T, g Guard, roles ...string) (*httptest.ResponseRecorder, *shared.Claim) {
	t.Helper()
	var seen *shared.Claim
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claim, ok := shared.ClaimFromContext(r.Context()); ok {
			seen = &claim
		}
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	res := httptest.NewRecorder()
	g.RequireRole(roles...)(next).ServeHTTP(res, req)
	return res, seen
}

func TestGuardAllowsMatchingRole(t *testing.T) {
	g := Guard{Decoder: stubDecoder{claim: shared.Claim{UserID: "u-1", Role: "ADMIN"}}}
	res, seen := serveGuard(t, g, "ADMIN")
	assert.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "ADMIN", seen.Role)
	assert.Equal(t, "u-1", seen.UserID)
}

func TestGuardAllowsAnyOfRequiredSet(t *testing.T) {
	g := Guard{Decoder: stubDecoder{claim: shared.Claim{Role: "OPERATOR"}}}
	res, _ := serveGuard(t, g, "ADMIN", "OPERATOR")
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestGuardDeniesWrongRole(t *testing.T) {
	g := Guard{Decoder: stubDecoder{claim: shared.Claim{Role: "GUEST"}}}
	res, seen := serveGuard(t, g, "ADMIN")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/403", res.Header().Get("Location"))
	assert.Nil(t, seen)
}

func TestGuardDeniesAbsentClaim(t *testing.T) {
	g := Guard{Decoder: stubDecoder{err: shared.ErrNoSession}}
	res, _ := serveGuard(t, g, "ADMIN")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/403", res.Header().Get("Location"))
}

func TestGuardDeniesUndecodableClaim(t *testing.T) {
	g := Guard{Decoder: stubDecoder{err: shared.ErrNoRoleClaim}, DeniedPath: "/denied"}
	res, _ := serveGuard(t, g, "ADMIN")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/denied", res.Header().Get("Location"))
}

func TestGuardWithoutRequirementPassesThrough(t *testing.T) {
	g := Guard{Decoder: stubDecoder{err: shared.ErrNoSession}}
	res, _ := serveGuard(t, g)
	assert.Equal(t, http.StatusOK, res.Code)
}
