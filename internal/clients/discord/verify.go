package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/guildacademy/backend/internal/models"
)

// minTokenLength guards against malformed redirect URLs producing truncated
// tokens; anything shorter is rejected without a network round-trip
const minTokenLength = 20

// tokenVerifyResponse mirrors the verification service payload
type tokenVerifyResponse struct {
	DiscordID       string   `json:"discord_id"`
	DiscordUsername string   `json:"discord_username"`
	DiscordAvatar   string   `json:"discord_avatar"`
	Roles           []string `json:"roles"`
	IsAdmin         bool     `json:"is_admin"`
}

// ValidateToken exchanges an opaque session token for verified identity
// attributes.
//
// The primary endpoint is called with the token as a bearer credential and
// an explicit Accept: application/json header. A 404 from the primary
// triggers exactly one fallback hop to the secondary endpoint with identical
// headers. Each attempt carries a hard deadline; a deadline hit is reported
// as TokenTimedOut, a connection failure as TokenUnreachable, and any
// non-2xx status or unparseable body as TokenRejected with the raw body
// attached for diagnostics.
func (c *Client) ValidateToken(ctx context.Context, token string) (*models.Identity, error) {
	token = strings.TrimSpace(token)
	if len(token) < minTokenLength {
		return nil, &models.TokenValidationError{
			Outcome: models.TokenRejected,
			Body:    "token too short",
		}
	}

	status, body, err := c.verify(ctx, c.verifyURL, token)
	if err != nil {
		return nil, err
	}

	// The provider is mid-migration between two URL shapes: one bounded
	// fallback hop on 404, never a retry loop
	if status == http.StatusNotFound {
		status, body, err = c.verify(ctx, c.verifyFallbackURL, token)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status >= 300 {
		return nil, &models.TokenValidationError{
			Outcome: models.TokenRejected,
			Status:  status,
			Body:    string(body),
		}
	}

	// The declared content type is not trusted even on success; attempt a
	// JSON parse of the body regardless
	var payload tokenVerifyResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &models.TokenValidationError{
			Outcome: models.TokenRejected,
			Status:  status,
			Body:    string(body),
			Err:     err,
		}
	}

	roles := payload.Roles
	if roles == nil {
		roles = []string{}
	}

	return &models.Identity{
		DiscordID: payload.DiscordID,
		Username:  payload.DiscordUsername,
		Avatar:    c.AvatarURL(payload.DiscordID, payload.DiscordAvatar),
		RoleIDs:   roles,
		IsAdmin:   payload.IsAdmin,
	}, nil
}

// verify performs a single verification attempt against one endpoint
func (c *Client) verify(ctx context.Context, url, token string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &models.TokenValidationError{
			Outcome: classifyTransportError(err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &models.TokenValidationError{
			Outcome: classifyTransportError(err),
			Err:     err,
		}
	}

	return resp.StatusCode, body, nil
}
