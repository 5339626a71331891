package ws

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cory-johannsen/skirmish/internal/config"
)

// ErrMissingToken is returned when a request carries no bearer token.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken is returned when a token fails signature or claim checks.
var ErrInvalidToken = errors.New("invalid bearer token")

// Identity is the verified caller of a websocket connection.
type Identity struct {
	ID   string
	Name string
}

type claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 bearer tokens issued by the account service.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a Verifier from the auth configuration.
//
// Precondition: cfg.JWTSecret must be non-empty.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

// Verify parses token and returns the identity in its sub and name claims.
//
// Postcondition: Returns an Identity with a non-empty ID, or an error wrapping ErrInvalidToken.
func (v *Verifier) Verify(token string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	var c claims
	if _, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if strings.TrimSpace(c.Subject) == "" {
		return Identity{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return Identity{ID: c.Subject, Name: c.Name}, nil
}

// Authenticate verifies the bearer token on r, taken from the Authorization
// header or, for browsers that cannot set headers on upgrade, the token query
// parameter.
func (v *Verifier) Authenticate(r *http.Request) (Identity, error) {
	token := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, rest, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return Identity{}, fmt.Errorf("%w: authorization scheme must be Bearer", ErrInvalidToken)
		}
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return Identity{}, ErrMissingToken
	}
	return v.Verify(token)
}
