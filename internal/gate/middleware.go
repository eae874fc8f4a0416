package gate

import (
	"log/slog"
	"net/http"
	"strings"
)

// DecisionRecorder counts gate outcomes for observability.
type DecisionRecorder interface {
	RecordDecision(class, outcome string)
}

// Gate is the edge middleware enforcing credential presence on protected
// paths. It is stateless per request: a pure function of the request path and
// cookie presence, with no storage or network I/O.
type Gate struct {
	Rules   Rules
	Logger  *slog.Logger
	Metrics DecisionRecorder
}

// Handler wraps next with the gate check.
//
// Public and proxy paths always proceed. Protected paths proceed only when the
// session cookie is present with a non-empty value; the cookie is not decoded
// or validated here, that is the identity service's job. Denials redirect to
// the login path with an empty query string: the original path is deliberately
// not preserved, so an unauthenticated client learns nothing about the
// protected path structure.
func (g Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := g.Rules.Classify(r.URL.Path)
		if class != ClassProtected {
			g.record(class, "allow")
			next.ServeHTTP(w, r)
			return
		}

		if !g.hasCredential(r) {
			g.record(class, "redirect")
			if g.Logger != nil {
				g.Logger.Debug("gate redirect", slog.String("path", r.URL.Path))
			}
			http.Redirect(w, r, g.Rules.LoginPath(), http.StatusSeeOther)
			return
		}

		g.record(class, "allow")
		next.ServeHTTP(w, r)
	})
}

func (g Gate) hasCredential(r *http.Request) bool {
	cookie, err := r.Cookie(g.Rules.CookieName())
	if err != nil {
		return false
	}
	return strings.TrimSpace(cookie.Value) != ""
}

func (g Gate) record(class Class, outcome string) {
	if g.Metrics != nil {
		g.Metrics.RecordDecision(class.String(), outcome)
	}
}
