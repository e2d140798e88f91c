package middleware

import (
	"net/http"

	"github.com/acarlson90/polls/internal/api/response"
	"github.com/acarlson90/polls/internal/auth"
	"github.com/acarlson90/polls/internal/policy"
)

// AccessDecider decides whether the caller may reach method and path.
type AccessDecider interface {
	Decide(method, path string, identity *auth.Identity) policy.Decision
}

// EntryPoint renders the response sent to anonymous callers of protected routes.
type EntryPoint interface {
	Commence(w http.ResponseWriter, r *http.Request)
}

// EntryPointFunc adapts a function to EntryPoint.
type EntryPointFunc func(w http.ResponseWriter, r *http.Request)

// Commence calls f(w, r).
func (f EntryPointFunc) Commence(w http.ResponseWriter, r *http.Request) { f(w, r) }

// JSONEntryPoint answers with a 401 error envelope.
var JSONEntryPoint = EntryPointFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="polls"`)
	response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED",
		"Full authentication is required to access this resource", GetRequestID(r.Context()))
})

// Authorize enforces the access table for every request. It must run after
// the Authenticator so that the identity, if any, is already in context.
func Authorize(decider AccessDecider, entry EntryPoint) func(http.Handler) http.Handler {
	if entry == nil {
		entry = JSONEntryPoint
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch decider.Decide(r.Method, r.URL.Path, GetIdentity(r.Context())) {
			case policy.Allow:
				next.ServeHTTP(w, r)
			case policy.Forbidden:
				response.Err(w, http.StatusForbidden, "FORBIDDEN",
					"You do not have permission to access this resource", GetRequestID(r.Context()))
			default:
				entry.Commence(w, r)
			}
		})
	}
}
