// Package session seals the auth service tokens into an encrypted cookie.
package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	jose_jwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"
)

const (
	CookieName string = "session_"
	// Tokens expiring within this window are refreshed before use.
	RefreshMargin time.Duration = 60 * time.Second
	// MaxLifetime bounds how long a sealed cookie stays usable, whatever the
	// refresh token says.
	MaxLifetime time.Duration = 30 * 24 * time.Hour
)

var (
	ErrInvalidSession = errors.New("The session is invalid.")
	ErrExpiredSession = errors.New("The session has expired.")
)

type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Claims is the sealed payload. The registered ID identifies the browser
// session for revocation purposes.
type Claims struct {
	jose_jwt.Claims
	User         User   `json:"user"`
	AccessToken  string `json:"at"`
	RefreshToken string `json:"rt"`
	TokenExpiry  int64  `json:"tex"`
}

func (c Claims) SessionID() string {
	return c.ID
}

func (c Claims) AccessTokenExpiry() time.Time {
	return time.Unix(c.TokenExpiry, 0)
}

// NeedsRefresh reports whether the access token is expired or about to be.
func (c Claims) NeedsRefresh(now time.Time) bool {
	return !now.Add(RefreshMargin).Before(c.AccessTokenExpiry())
}

type Sealer struct {
	key       []byte
	encrypter jose.Encrypter
}

// NewSealer derives a 256-bit key from the given secret.
func NewSealer(secret string) (*Sealer, error) {
	if len(secret) < 32 {
		return nil, errors.New("The session secret must be at least 32 characters long.")
	}

	sum := sha256.Sum256([]byte(secret))
	key := sum[:]

	enc, err := jose.NewEncrypter(
		jose.A256GCM,
		jose.Recipient{Algorithm: jose.DIRECT, Key: key},
		(&jose.EncrypterOptions{}).WithType("JWE"),
	)
	if err != nil {
		return nil, fmt.Errorf("Could not create encrypter: %w", err)
	}

	return &Sealer{key: key, encrypter: enc}, nil
}

// New builds fresh claims for a signed-in user.
func New(u User, accessToken string, refreshToken string, tokenExpiry time.Time, now time.Time) Claims {
	return Claims{
		Claims: jose_jwt.Claims{
			ID:       uuid.NewString(),
			Subject:  u.ID.String(),
			IssuedAt: jose_jwt.NewNumericDate(now),
			Expiry:   jose_jwt.NewNumericDate(now.Add(MaxLifetime)),
		},
		User:         u,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenExpiry:  tokenExpiry.Unix(),
	}
}

// Rotate keeps the session identity and replaces the token pair.
func (c Claims) Rotate(accessToken string, refreshToken string, tokenExpiry time.Time) Claims {
	c.AccessToken = accessToken
	c.RefreshToken = refreshToken
	c.TokenExpiry = tokenExpiry.Unix()

	return c
}

func (s *Sealer) Seal(c Claims) (string, error) {
	raw, err := jose_jwt.Encrypted(s.encrypter).Claims(c).Serialize()
	if err != nil {
		return "", fmt.Errorf("Error sealing session: %w", err)
	}

	return raw, nil
}

func (s *Sealer) Open(raw string, now time.Time) (*Claims, error) {
	if len(raw) < 1 {
		return nil, ErrInvalidSession
	}

	tok, err := jose_jwt.ParseEncrypted(raw, []jose.KeyAlgorithm{jose.DIRECT}, []jose.ContentEncryption{jose.A256GCM})
	if err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}

	c := &Claims{}
	if err := tok.Claims(s.key, c); err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}

	if err := c.ValidateWithLeeway(jose_jwt.Expected{Time: now}, 0); err != nil {
		if errors.Is(err, jose_jwt.ErrExpired) {
			return nil, ErrExpiredSession
		}

		return nil, errors.Join(ErrInvalidSession, err)
	}

	if len(c.ID) < 1 || c.User.ID == uuid.Nil || c.Subject != c.User.ID.String() {
		return nil, ErrInvalidSession
	}

	return c, nil
}
