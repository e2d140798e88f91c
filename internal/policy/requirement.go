package policy

import (
	"fmt"
	"strings"

	"github.com/acarlson90/polls/internal/auth"
)

// Kind classifies what a route requires of the caller.
type Kind int

const (
	KindPublic Kind = iota
	KindAuthenticated
	KindRole
)

const rolePrefix = "role:"

// Requirement is the capability a caller must hold to reach a route.
type Requirement struct {
	Kind Kind
	Role auth.Role
}

// Public allows anyone, including anonymous callers.
func Public() Requirement { return Requirement{Kind: KindPublic} }

// Authenticated allows any resolved identity.
func Authenticated() Requirement { return Requirement{Kind: KindAuthenticated} }

// HasRole allows identities that were granted role.
func HasRole(role auth.Role) Requirement { return Requirement{Kind: KindRole, Role: role} }

// ParseRequirement parses "public", "authenticated" or "role:<ROLE>".
func ParseRequirement(s string) (Requirement, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "public":
		return Public(), nil
	case s == "authenticated":
		return Authenticated(), nil
	case strings.HasPrefix(s, rolePrefix):
		role, ok := auth.ParseRole(strings.TrimPrefix(s, rolePrefix))
		if !ok {
			return Requirement{}, fmt.Errorf("unknown role in requirement %q", s)
		}
		return HasRole(role), nil
	default:
		return Requirement{}, fmt.Errorf("unknown requirement %q", s)
	}
}

func (r Requirement) String() string {
	switch r.Kind {
	case KindPublic:
		return "public"
	case KindAuthenticated:
		return "authenticated"
	default:
		return rolePrefix + string(r.Role)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Requirement) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Requirement) UnmarshalText(text []byte) error {
	parsed, err := ParseRequirement(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
