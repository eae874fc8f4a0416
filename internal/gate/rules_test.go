package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRules() Rules {
	return NewRules(RulesConfig{
		PublicPaths:   DefaultPublicPaths(),
		ProxyPrefixes: DefaultProxyPrefixes(),
		CookieName:    "fleetgate_session",
	})
}

func TestClassify(t *testing.T) {
	rules := testRules()

	cases := []struct {
		path string
		want Class
	}{
		{"/", ClassPublic},
		{"/login", ClassPublic},
		{"/403", ClassPublic},
		{"/favicon.ico", ClassPublic},
		{"/_next", ClassPublic},
		{"/_next/static/chunk.js", ClassPublic},
		{"/assets/logo.svg", ClassPublic},
		{"/public/terms.html", ClassPublic},
		{"/aapi", ClassProxy},
		{"/aapi/applicants/42", ClassProxy},
		{"/tapi/vehicles", ClassProxy},
		{"/vehicles", ClassProtected},
		{"/roles", ClassProtected},
		{"/loginx", ClassProtected},
		{"/assetsx/logo.svg", ClassProtected},
		{"/aapix/thing", ClassProtected},
		{"/Login", ClassProtected},
		{"//", ClassProtected},
		{"//roles", ClassProtected},
		{"//api/transfers", ClassProtected},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, rules.Classify(tc.path), "path %q", tc.path)
	}
}

func TestClassifyPublicWinsOverProxy(t *testing.T) {
	rules := NewRules(RulesConfig{
		PublicPaths:   []string{"/aapi/docs"},
		ProxyPrefixes: []string{"/aapi"},
	})
	assert.Equal(t, ClassPublic, rules.Classify("/aapi/docs"))
	assert.Equal(t, ClassProxy, rules.Classify("/aapi/other"))
}

func TestNewRulesCopiesInputs(t *testing.T) {
	public := []string{"/open"}
	rules := NewRules(RulesConfig{PublicPaths: public})
	public[0] = "/mutated"
	assert.Equal(t, ClassPublic, rules.Classify("/open"))
	assert.Equal(t, ClassProtected, rules.Classify("/mutated"))
}

func TestNewRulesDefaults(t *testing.T) {
	rules := NewRules(RulesConfig{})
	assert.Equal(t, "fleetgate_session", rules.CookieName())
	assert.Equal(t, "/login", rules.LoginPath())
	assert.Equal(t, "/403", rules.DeniedPath())
}
