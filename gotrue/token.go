package gotrue

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	jose_jwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	authenticatedAudience string        = "authenticated"
	tokenLeeway           time.Duration = 30 * time.Second
	jwksTTL               time.Duration = 10 * time.Minute
)

var allowedAlgorithms = []jose.SignatureAlgorithm{jose.HS256, jose.ES256, jose.RS256}

// AccessClaims are the claims of an access token issued by the auth service.
type AccessClaims struct {
	jose_jwt.Claims
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id,omitempty"`
}

func (c AccessClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// KeySource resolves the verification key: a shared secret, or the project
// JWKS fetched lazily and cached.
type KeySource struct {
	secret  []byte
	jwksURL string
	timeout time.Duration

	mu        sync.Mutex
	jwks      *jose.JSONWebKeySet
	fetchedAt time.Time
}

func newKeySource(secret string, jwksURL string, timeout time.Duration) *KeySource {
	ks := &KeySource{jwksURL: jwksURL, timeout: timeout}

	if len(secret) > 0 {
		ks.secret = []byte(secret)
	}

	return ks
}

func (k *KeySource) key() (any, error) {
	if len(k.secret) > 0 {
		return k.secret, nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.jwks != nil && time.Since(k.fetchedAt) < jwksTTL {
		return k.jwks, nil
	}

	agent := fiber.Get(k.jwksURL)
	agent.Timeout(k.timeout)

	status, body, errList := agent.Bytes()
	if len(errList) > 0 {
		return nil, errors.Wrap(errList[0], "could not fetch JWKS")
	}

	if status != fiber.StatusOK {
		return nil, fmt.Errorf("Could not fetch JWKS, got HTTP '%d' status code.", status)
	}

	set := &jose.JSONWebKeySet{}
	if err := json.Unmarshal(body, set); err != nil {
		return nil, errors.Wrap(err, "could not decode JWKS")
	}

	k.jwks = set
	k.fetchedAt = time.Now()

	return set, nil
}

// VerifyAccessToken checks signature, audience and validity window of an
// access token and returns its claims.
func (c *Client) VerifyAccessToken(raw string, now time.Time) (*AccessClaims, error) {
	tok, err := jose_jwt.ParseSigned(raw, allowedAlgorithms)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	key, err := c.keys.key()
	if err != nil {
		return nil, err
	}

	claims := &AccessClaims{}
	if err := tok.Claims(key, claims); err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	if err := claims.ValidateWithLeeway(jose_jwt.Expected{
		AnyAudience: jose_jwt.Audience{authenticatedAudience},
		Time:        now,
	}, tokenLeeway); err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	if _, err := claims.UserID(); err != nil {
		return nil, errors.Wrap(ErrInvalidToken, "the subject is not a user id")
	}

	return claims, nil
}
