// Package gotrue talks to the hosted auth API that issues magic links and
// sessions. Nothing here stores credentials: the service owns users,
// passwords and refresh tokens, this client only relays requests.
package gotrue

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultTimeout time.Duration = 10 * time.Second

var (
	ErrRequestFailed = errors.New("The auth service request failed.")
	ErrInvalidToken  = errors.New("The access token is invalid.")
)

type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	keys    *KeySource
}

type Options struct {
	// BaseURL of the project, without the /auth/v1 suffix.
	BaseURL string
	APIKey  string
	// JWTSecret verifies HS256 access tokens. When empty the project JWKS is
	// used instead.
	JWTSecret string
	Timeout   time.Duration
}

type User struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"`
	LastSignInAt *time.Time     `json:"last_sign_in_at,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// Session is the token pair returned by the auth service.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

func (s Session) Expiry() time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}

	return time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
}

// APIError carries the error payload of the auth service. Both payload
// shapes used by the service are accepted.
type APIError struct {
	Status      int    `json:"-"`
	Code        any    `json:"code,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
	Message     string `json:"msg,omitempty"`
	Err         string `json:"error,omitempty"`
	Description string `json:"error_description,omitempty"`
}

func (e *APIError) Error() string {
	msg := e.Message

	if len(msg) < 1 {
		msg = e.Description
	}

	if len(msg) < 1 {
		msg = e.Err
	}

	if len(e.ErrorCode) > 0 {
		return fmt.Sprintf("auth service error %d (%s): %s", e.Status, e.ErrorCode, msg)
	}

	return fmt.Sprintf("auth service error %d: %s", e.Status, msg)
}

func (e *APIError) Unwrap() error {
	return ErrRequestFailed
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	base := strings.TrimRight(opts.BaseURL, "/")

	return &Client{
		baseURL: base,
		apiKey:  opts.APIKey,
		timeout: timeout,
		keys:    newKeySource(opts.JWTSecret, base+"/auth/v1/.well-known/jwks.json", timeout),
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/auth/v1" + path

	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	return u
}

// post sends a JSON body and decodes a JSON response into out (when not
// nil). Non-2xx responses become *APIError.
func (c *Client) post(path string, query url.Values, bearer string, body any, out any) error {
	agent := fiber.Post(c.endpoint(path, query))
	agent.Set("apikey", c.apiKey)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Timeout(c.timeout)

	if len(bearer) > 0 {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	} else {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.apiKey)
	}

	if body != nil {
		agent.JSON(body)
	}

	status, resp, errList := agent.Bytes()
	if len(errList) > 0 {
		return errors.Wrapf(errList[0], "could not reach auth service at %s", path)
	}

	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		apiErr := &APIError{Status: status}

		if len(resp) > 0 {
			if err := json.Unmarshal(resp, apiErr); err != nil {
				apiErr.Message = strings.TrimSpace(string(resp))
			}
		}

		return apiErr
	}

	if out == nil || len(resp) < 1 {
		return nil
	}

	if err := json.Unmarshal(resp, out); err != nil {
		return errors.Wrapf(err, "could not decode auth service response from %s", path)
	}

	return nil
}
