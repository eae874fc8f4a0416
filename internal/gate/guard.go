package gate

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fleetgate/fleetgate/internal/shared"
)

// Guard performs role-membership checks for individual protected views. It is
// finer-grained than the Gate: the gate only guarantees that some credential
// exists, the guard checks that the decoded role satisfies the view's declared
// requirement.
type Guard struct {
	Decoder    shared.ClaimDecoder
	DeniedPath string
	Logger     *slog.Logger
}

// RequireRole allows the request through only when the decoded role claim is a
// member of the required set. An absent or undecodable claim denies. Denials
// redirect to the denial page.
func (g Guard) RequireRole(roles ...string) func(http.Handler) http.Handler {
	required := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		required[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			claim, err := g.Decoder.Decode(r.Context(), r)
			if err != nil {
				if g.Logger != nil && !errors.Is(err, shared.ErrNoSession) && !errors.Is(err, shared.ErrNoRoleClaim) {
					g.Logger.Error("guard decode claim", slog.Any("error", err))
				}
				g.deny(w, r)
				return
			}
			if _, ok := required[claim.Role]; !ok {
				g.deny(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithClaim(r.Context(), claim)))
		})
	}
}

func (g Guard) deny(w http.ResponseWriter, r *http.Request) {
	target := g.DeniedPath
	if target == "" {
		target = "/403"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
