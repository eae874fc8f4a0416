// Package gate implements the edge authorization gate: route classification,
// the credential-presence middleware, and the role-based view guard.
package gate

import "strings"

// Class is the classification of an inbound request path.
type Class int

const (
	// ClassPublic paths always proceed, with or without a credential.
	ClassPublic Class = iota
	// ClassProxy paths are forwarded to an upstream that authorizes on its own.
	ClassProxy
	// ClassProtected paths require a present credential.
	ClassProtected
)

// String returns the class label used in logs and metrics.
func (c Class) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassProxy:
		return "proxy"
	default:
		return "protected"
	}
}

// Rules is the immutable route classification rule set. It is constructed once
// at process start and injected into the gate; it is never mutated afterwards.
type Rules struct {
	public     []string
	proxy      []string
	cookieName string
	loginPath  string
	deniedPath string
}

// RulesConfig collects the inputs for building a Rules value.
type RulesConfig struct {
	PublicPaths   []string
	ProxyPrefixes []string
	CookieName    string
	LoginPath     string
	DeniedPath    string
}

// DefaultPublicPaths lists the paths reachable without a credential.
func DefaultPublicPaths() []string {
	return []string{"/", "/login", "/403", "/_next", "/favicon.ico", "/assets", "/public"}
}

// DefaultProxyPrefixes lists the upstream passthrough prefixes.
func DefaultProxyPrefixes() []string {
	return []string{"/aapi", "/tapi"}
}

// NewRules builds an immutable Rules value. Input slices are copied so later
// mutation by the caller cannot leak into the gate.
func NewRules(cfg RulesConfig) Rules {
	rules := Rules{
		public:     append([]string(nil), cfg.PublicPaths...),
		proxy:      append([]string(nil), cfg.ProxyPrefixes...),
		cookieName: cfg.CookieName,
		loginPath:  cfg.LoginPath,
		deniedPath: cfg.DeniedPath,
	}
	if rules.cookieName == "" {
		rules.cookieName = "fleetgate_session"
	}
	if rules.loginPath == "" {
		rules.loginPath = "/login"
	}
	if rules.deniedPath == "" {
		rules.deniedPath = "/403"
	}
	return rules
}

// Classify maps a request path onto its class. Public rules win over proxy
// rules; everything unmatched is protected. Matching is case-sensitive.
func (r Rules) Classify(path string) Class {
	for _, rule := range r.public {
		if matchPath(path, rule) {
			return ClassPublic
		}
	}
	for _, rule := range r.proxy {
		if matchPath(path, rule) {
			return ClassProxy
		}
	}
	return ClassProtected
}

// CookieName returns the session cookie identifier checked by the gate.
func (r Rules) CookieName() string { return r.cookieName }

// LoginPath returns the redirect target for denied protected requests.
func (r Rules) LoginPath() string { return r.loginPath }

// DeniedPath returns the redirect target for failed role checks.
func (r Rules) DeniedPath() string { return r.deniedPath }

// matchPath reports whether path equals rule or sits under it. A prefix only
// matches when followed by a path separator, so "/assets" covers "/assets/x"
// but not "/assetsx". The root rule "/" can only match exactly, otherwise it
// would turn every double-slash path into a public one.
func matchPath(path, rule string) bool {
	if path == rule {
		return true
	}
	if rule == "/" {
		return false
	}
	return strings.HasPrefix(path, rule+"/")
}
