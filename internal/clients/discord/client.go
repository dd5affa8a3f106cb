// Package discord calls the Discord HTTP API for guild membership lookups
// and the session token verification endpoints.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/guildacademy/backend/internal/config"
	"github.com/guildacademy/backend/internal/models"
)

// requestTimeout is the hard deadline applied to every network attempt
const requestTimeout = 10 * time.Second

// Client talks to the Discord API and the token verification endpoints
type Client struct {
	httpClient        *http.Client
	apiBaseURL        string
	cdnBaseURL        string
	botToken          string
	guildID           string
	verifyURL         string
	verifyFallbackURL string
	timeout           time.Duration
}

// NewClient creates a new Discord client
func NewClient(cfg config.DiscordConfig) *Client {
	return &Client{
		httpClient:        &http.Client{},
		apiBaseURL:        cfg.APIBaseURL,
		cdnBaseURL:        cfg.CDNBaseURL,
		botToken:          cfg.BotToken,
		guildID:           cfg.GuildID,
		verifyURL:         cfg.VerifyURL,
		verifyFallbackURL: cfg.VerifyFallbackURL,
		timeout:           requestTimeout,
	}
}

// guildMemberResponse mirrors the Discord guild member payload
type guildMemberResponse struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Roles []string `json:"roles"`
}

// GetGuildMember fetches the live guild membership for a Discord user.
//
// A 404 means the user is not a guild member and is not an error: the result
// carries zero roles. A 429 is returned as models.RateLimitedError with the
// provider's Retry-After duration verbatim; it is never retried here.
func (c *Client) GetGuildMember(ctx context.Context, discordID string) (*models.LiveMembership, error) {
	url := fmt.Sprintf("%s/guilds/%s/members/%s", c.apiBaseURL, c.guildID, discordID)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build member request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild member: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Not a member of the guild: zero roles, not an error
		return &models.LiveMembership{RoleIDs: []string{}}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &models.RateLimitedError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("guild member fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read member response: %w", err)
	}

	var member guildMemberResponse
	if err := json.Unmarshal(body, &member); err != nil {
		return nil, fmt.Errorf("failed to parse member response: %w", err)
	}

	roles := member.Roles
	if roles == nil {
		roles = []string{}
	}

	return &models.LiveMembership{
		Username: member.User.Username,
		RoleIDs:  roles,
	}, nil
}

// retryAfter extracts the provider wait duration from a 429 response.
// Discord sends seconds, sometimes fractional.
func retryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// AvatarURL expands a bare avatar hash into a full CDN URL. A bare hash is
// not valid to store or render as-is. Already-complete URLs pass through.
func (c *Client) AvatarURL(discordID, avatar string) string {
	if avatar == "" {
		return ""
	}
	if strings.HasPrefix(avatar, "http://") || strings.HasPrefix(avatar, "https://") {
		return avatar
	}
	return fmt.Sprintf("%s/avatars/%s/%s.png", c.cdnBaseURL, discordID, avatar)
}

// classifyTransportError separates a deadline hit from a connection-level
// failure so callers can tell "timed out" from "unreachable"
func classifyTransportError(err error) models.TokenOutcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.TokenTimedOut
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.TokenTimedOut
	}
	return models.TokenUnreachable
}
