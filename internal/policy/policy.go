// Package policy holds the ordered access table that decides, per request,
// whether the caller may proceed. Rules are evaluated top to bottom and the
// first match wins; requests no rule matches require authentication.
package policy

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/acarlson90/polls/internal/auth"
)

// Decision is the outcome of evaluating a request against the policy.
type Decision int

const (
	Allow Decision = iota
	// Unauthenticated means the route needs an identity and none is present.
	Unauthenticated
	// Forbidden means an identity is present but lacks the required role.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Rule maps a method and path pattern to a requirement. Method "*" matches
// every method. In Pattern, "*" matches exactly one path segment and "**"
// matches any number of segments, including none.
type Rule struct {
	Method  string      `json:"method"`
	Pattern string      `json:"pattern"`
	Require Requirement `json:"require"`
}

type compiledRule struct {
	Rule
	segments []string
}

// Policy is an immutable, ordered rule table. It is safe for concurrent use.
type Policy struct {
	rules []compiledRule
}

// New validates rules and returns a Policy that evaluates them in order.
func New(rules []Rule) (*Policy, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if r.Method == "" {
			return nil, fmt.Errorf("rule %d: method is required", i)
		}
		if !strings.HasPrefix(r.Pattern, "/") {
			return nil, fmt.Errorf("rule %d: pattern %q must start with /", i, r.Pattern)
		}
		segs := splitPath(r.Pattern)
		for _, s := range segs {
			if s != "*" && s != "**" && strings.Contains(s, "*") {
				return nil, fmt.Errorf("rule %d: wildcard must be a whole segment in %q", i, r.Pattern)
			}
		}
		r.Method = strings.ToUpper(r.Method)
		compiled = append(compiled, compiledRule{Rule: r, segments: segs})
	}
	return &Policy{rules: compiled}, nil
}

// Default returns the table used when no policy file is configured.
func Default() *Policy {
	p, err := New([]Rule{
		{Method: http.MethodGet, Pattern: "/health", Require: Public()},
		{Method: http.MethodGet, Pattern: "/metrics", Require: Public()},
		{Method: http.MethodGet, Pattern: "/openapi.json", Require: Public()},
		{Method: http.MethodPost, Pattern: "/api/auth/**", Require: Public()},
		{Method: http.MethodGet, Pattern: "/api/polls/**", Require: Public()},
		{Method: http.MethodGet, Pattern: "/api/users/**", Require: Public()},
		{Method: http.MethodPost, Pattern: "/api/polls", Require: HasRole(auth.RoleUser)},
		{Method: http.MethodPost, Pattern: "/api/polls/*/votes", Require: HasRole(auth.RoleUser)},
	})
	if err != nil {
		panic(err)
	}
	return p
}

// Rules returns a copy of the rule table in evaluation order.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	for i, r := range p.rules {
		out[i] = r.Rule
	}
	return out
}

// Requirement returns the requirement of the first rule matching method and path.
func (p *Policy) Requirement(method, path string) Requirement {
	segs := splitPath(path)
	for _, r := range p.rules {
		if (r.Method == "*" || r.Method == strings.ToUpper(method)) && matchSegments(r.segments, segs) {
			return r.Require
		}
	}
	return Authenticated()
}

// Decide evaluates the request against the table. identity is nil for
// anonymous callers.
func (p *Policy) Decide(method, path string, identity *auth.Identity) Decision {
	req := p.Requirement(method, path)
	switch req.Kind {
	case KindPublic:
		return Allow
	case KindAuthenticated:
		if identity == nil {
			return Unauthenticated
		}
		return Allow
	default:
		if identity == nil {
			return Unauthenticated
		}
		if !identity.HasRole(req.Role) {
			return Forbidden
		}
		return Allow
	}
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchSegments(pattern, path []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(path); i++ {
				if matchSegments(rest, path[i:]) {
					return true
				}
			}
			return false
		}
		if len(path) == 0 {
			return false
		}
		if pattern[0] != "*" && pattern[0] != path[0] {
			return false
		}
		pattern, path = pattern[1:], path[1:]
	}
	return len(path) == 0
}
