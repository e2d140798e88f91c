package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/acarlson90/polls/internal/auth"
	"github.com/acarlson90/polls/internal/token"
)

const identityKey contextKey = "identity"

// Authentication outcomes reported to an AuthObserver.
const (
	AuthAnonymous       = "anonymous"
	AuthAuthenticated   = "authenticated"
	AuthMalformed       = "malformed"
	AuthBadSignature    = "bad_signature"
	AuthExpired         = "expired"
	AuthUnknownIdentity = "unknown_identity"
	AuthError           = "error"
)

const bearerPrefix = "bearer "

// TokenVerifier checks a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(tokenString string, now time.Time) (int64, error)
}

// IdentityResolver maps a token subject to an identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, subject int64) (*auth.Identity, error)
}

// AuthObserver receives the authentication outcome of every request.
type AuthObserver interface {
	ObserveAuth(outcome string)
}

// Authenticator attaches the caller's identity to each request that carries
// a valid bearer token. It never rejects a request: every failure leaves the
// request anonymous and the access policy decides what anonymous callers may do.
type Authenticator struct {
	verifier TokenVerifier
	resolver IdentityResolver
	observer AuthObserver
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthenticator creates an Authenticator. observer may be nil.
func NewAuthenticator(verifier TokenVerifier, resolver IdentityResolver, observer AuthObserver, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		resolver: resolver,
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}
}

// Middleware runs authentication once per request.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, outcome := a.authenticate(r)
		if a.observer != nil {
			a.observer.ObserveAuth(outcome)
		}
		if identity != nil {
			r = r.WithContext(WithIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) authenticate(r *http.Request) (identity *auth.Identity, outcome string) {
	requestID := GetRequestID(r.Context())

	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("authentication panicked, continuing anonymously",
				zap.Any("panic", rec), zap.String("request_id", requestID))
			identity, outcome = nil, AuthError
		}
	}()

	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, AuthAnonymous
	}

	raw, ok := bearerToken(header)
	if !ok {
		a.logger.Debug("authorization header is not a bearer token", zap.String("request_id", requestID))
		return nil, AuthMalformed
	}

	subject, err := a.verifier.Verify(raw, a.now())
	if err != nil {
		outcome := AuthMalformed
		switch {
		case errors.Is(err, token.ErrExpired):
			outcome = AuthExpired
		case errors.Is(err, token.ErrSignature):
			outcome = AuthBadSignature
		}
		a.logger.Info("bearer token rejected",
			zap.String("reason", outcome), zap.Error(err), zap.String("request_id", requestID))
		return nil, outcome
	}

	identity, err = a.resolver.Resolve(r.Context(), subject)
	if err != nil {
		if errors.Is(err, auth.ErrIdentityNotFound) {
			a.logger.Info("token subject no longer exists",
				zap.Int64("subject", subject), zap.String("request_id", requestID))
			return nil, AuthUnknownIdentity
		}
		a.logger.Error("resolving identity failed, continuing anonymously",
			zap.Int64("subject", subject), zap.Error(err), zap.String("request_id", requestID))
		return nil, AuthError
	}

	return identity, AuthAuthenticated
}

func bearerToken(header string) (string, bool) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])
	return raw, raw != ""
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity retrieves the authenticated Identity from the request context.
// It returns nil for anonymous requests.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}
