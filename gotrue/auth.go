package gotrue

import (
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

type MagicLinkRequest struct {
	Email      string
	RedirectTo string
	// CodeVerifier enables the PKCE flow: the emailed link then carries a
	// one-time code instead of tokens in the URL fragment.
	CodeVerifier string
}

type otpBody struct {
	Email               string `json:"email"`
	CreateUser          bool   `json:"create_user"`
	CodeChallenge       string `json:"code_challenge,omitempty"`
	CodeChallengeMethod string `json:"code_challenge_method,omitempty"`
}

// NewCodeVerifier returns a fresh PKCE verifier.
func NewCodeVerifier() string {
	return oauth2.GenerateVerifier()
}

// SendMagicLink asks the auth service to email a sign-in link. Unknown
// addresses are registered on the fly.
func (c *Client) SendMagicLink(req MagicLinkRequest) error {
	email := strings.TrimSpace(req.Email)
	if len(email) < 1 {
		return errors.New("An email address is required.")
	}

	body := otpBody{Email: email, CreateUser: true}

	if len(req.CodeVerifier) > 0 {
		body.CodeChallenge = oauth2.S256ChallengeFromVerifier(req.CodeVerifier)
		body.CodeChallengeMethod = "s256"
	}

	query := url.Values{}
	if len(req.RedirectTo) > 0 {
		query.Set("redirect_to", req.RedirectTo)
	}

	return c.post("/otp", query, "", body, nil)
}

// ExchangeCode swaps the PKCE code received on the callback for a session.
func (c *Client) ExchangeCode(code string, verifier string) (*Session, error) {
	if len(code) < 1 || len(verifier) < 1 {
		return nil, errors.New("Both the auth code and the code verifier are required.")
	}

	s := &Session{}
	if err := c.post("/token", url.Values{"grant_type": {"pkce"}}, "", map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	}, s); err != nil {
		return nil, err
	}

	return s, nil
}

// VerifyTokenHash redeems a token hash link (custom email templates).
func (c *Client) VerifyTokenHash(tokenHash string, kind string) (*Session, error) {
	if len(tokenHash) < 1 {
		return nil, errors.New("The token hash is required.")
	}

	if len(kind) < 1 {
		kind = "magiclink"
	}

	s := &Session{}
	if err := c.post("/verify", nil, "", map[string]string{
		"token_hash": tokenHash,
		"type":       kind,
	}, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Refresh trades a refresh token for a new session. Refresh tokens are single
// use, the returned session carries the next one.
func (c *Client) Refresh(refreshToken string) (*Session, error) {
	if len(refreshToken) < 1 {
		return nil, errors.New("The refresh token is required.")
	}

	s := &Session{}
	if err := c.post("/token", url.Values{"grant_type": {"refresh_token"}}, "", map[string]string{
		"refresh_token": refreshToken,
	}, s); err != nil {
		return nil, err
	}

	return s, nil
}

// SignOut revokes the refresh tokens of the current session only.
func (c *Client) SignOut(accessToken string) error {
	if len(accessToken) < 1 {
		return nil
	}

	return c.post("/logout", url.Values{"scope": {"local"}}, accessToken, nil, nil)
}

// SessionFromTokens builds a session out of tokens handed over by the browser
// (implicit flow). The access token is verified before it is trusted.
func (c *Client) SessionFromTokens(accessToken string, refreshToken string, now time.Time) (*Session, error) {
	claims, err := c.VerifyAccessToken(accessToken, now)
	if err != nil {
		return nil, err
	}

	id, err := claims.UserID()
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	s := &Session{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		RefreshToken: refreshToken,
		User:         User{ID: id, Email: claims.Email, Role: claims.Role},
	}

	if claims.Expiry != nil {
		s.ExpiresAt = claims.Expiry.Time().Unix()
	}

	return s, nil
}
