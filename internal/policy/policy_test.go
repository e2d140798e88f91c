package policy_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acarlson90/polls/internal/auth"
	"github.com/acarlson90/polls/internal/policy"
)

var (
	user  = &auth.Identity{ID: 1, Username: "u", Roles: []auth.Role{auth.RoleUser}}
	admin = &auth.Identity{ID: 2, Username: "a", Roles: []auth.Role{auth.RoleAdmin}}
)

func TestDefault_Decide(t *testing.T) {
	p := policy.Default()

	tests := []struct {
		name     string
		method   string
		path     string
		identity *auth.Identity
		want     policy.Decision
	}{
		{"health anonymous", http.MethodGet, "/health", nil, policy.Allow},
		{"metrics anonymous", http.MethodGet, "/metrics", nil, policy.Allow},
		{"openapi anonymous", http.MethodGet, "/openapi.json", nil, policy.Allow},
		{"signin anonymous", http.MethodPost, "/api/auth/signin", nil, policy.Allow},
		{"list polls anonymous", http.MethodGet, "/api/polls", nil, policy.Allow},
		{"list polls trailing slash", http.MethodGet, "/api/polls/", nil, policy.Allow},
		{"get poll anonymous", http.MethodGet, "/api/polls/12", nil, policy.Allow},
		{"user polls anonymous", http.MethodGet, "/api/users/ada/polls", nil, policy.Allow},
		{"create poll anonymous", http.MethodPost, "/api/polls", nil, policy.Unauthenticated},
		{"create poll user", http.MethodPost, "/api/polls", user, policy.Allow},
		{"create poll admin without USER", http.MethodPost, "/api/polls", admin, policy.Forbidden},
		{"vote anonymous", http.MethodPost, "/api/polls/12/votes", nil, policy.Unauthenticated},
		{"vote user", http.MethodPost, "/api/polls/12/votes", user, policy.Allow},
		{"vote admin without USER", http.MethodPost, "/api/polls/12/votes", admin, policy.Forbidden},
		{"unmatched anonymous", http.MethodGet, "/api/user/me", nil, policy.Unauthenticated},
		{"unmatched authenticated", http.MethodGet, "/api/user/me", admin, policy.Allow},
		{"delete poll anonymous", http.MethodDelete, "/api/polls/12", nil, policy.Unauthenticated},
		{"lowercase method", "get", "/api/polls", nil, policy.Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Decide(tt.method, tt.path, tt.identity))
		})
	}
}

func TestDecide_FirstMatchWins(t *testing.T) {
	p, err := policy.New([]policy.Rule{
		{Method: "*", Pattern: "/api/polls/*/votes", Require: policy.HasRole(auth.RoleAdmin)},
		{Method: "*", Pattern: "/api/**", Require: policy.Public()},
	})
	require.NoError(t, err)

	assert.Equal(t, policy.Forbidden, p.Decide(http.MethodPost, "/api/polls/1/votes", user))
	assert.Equal(t, policy.Allow, p.Decide(http.MethodPost, "/api/polls/1", nil))
	assert.Equal(t, policy.Unauthenticated, p.Decide(http.MethodGet, "/other", nil))
}

func TestRequirement_Wildcards(t *testing.T) {
	p, err := policy.New([]policy.Rule{
		{Method: http.MethodGet, Pattern: "/a/*/c", Require: policy.Public()},
		{Method: http.MethodGet, Pattern: "/x/**/z", Require: policy.Public()},
	})
	require.NoError(t, err)

	tests := []struct {
		path string
		want policy.Kind
	}{
		{"/a/b/c", policy.KindPublic},
		{"/a/c", policy.KindAuthenticated},
		{"/a/b/b/c", policy.KindAuthenticated},
		{"/x/z", policy.KindPublic},
		{"/x/y/z", policy.KindPublic},
		{"/x/y/y/z", policy.KindPublic},
		{"/x/y", policy.KindAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Requirement(http.MethodGet, tt.path).Kind)
		})
	}
}

func TestNew_InvalidRules(t *testing.T) {
	_, err := policy.New([]policy.Rule{{Method: "", Pattern: "/x"}})
	assert.Error(t, err)

	_, err = policy.New([]policy.Rule{{Method: "GET", Pattern: "x"}})
	assert.Error(t, err)

	_, err = policy.New([]policy.Rule{{Method: "GET", Pattern: "/x/a*"}})
	assert.Error(t, err)
}

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		in      string
		want    policy.Requirement
		wantErr bool
	}{
		{in: "public", want: policy.Public()},
		{in: "authenticated", want: policy.Authenticated()},
		{in: "role:USER", want: policy.HasRole(auth.RoleUser)},
		{in: "role:ADMIN", want: policy.HasRole(auth.RoleAdmin)},
		{in: "role:ROOT", wantErr: true},
		{in: "anyone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := policy.ParseRequirement(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParse(t *testing.T) {
	doc := []byte(`
rules:
  - method: GET
    pattern: /api/polls/**
    require: public
  - method: POST
    pattern: /api/polls
    require: role:ADMIN
`)

	p, err := policy.Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, policy.Allow, p.Decide(http.MethodGet, "/api/polls/3", nil))
	assert.Equal(t, policy.Forbidden, p.Decide(http.MethodPost, "/api/polls", user))
	assert.Len(t, p.Rules(), 2)
}

func TestParse_Errors(t *testing.T) {
	_, err := policy.Parse([]byte("rules: []"))
	assert.ErrorIs(t, err, policy.ErrNoRules)

	_, err = policy.Parse([]byte("rules:\n  - method: GET\n    pattern: /x\n    require: nobody\n"))
	assert.Error(t, err)

	_, err = policy.Parse([]byte("rules:\n  - method: GET\n    pattern: /x\n    require: public\n    extra: 1\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - method: '*'\n    pattern: /**\n    require: public\n"), 0o600))

	p, err := policy.Load(path)
	require.NoError(t, err)
	assert.Equal(t, policy.Allow, p.Decide(http.MethodDelete, "/anything/at/all", nil))

	_, err = policy.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
