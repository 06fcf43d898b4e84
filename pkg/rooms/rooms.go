// Package rooms provisions real-time rooms for interview sessions. It talks
// to a LiveKit-compatible room server: rooms are created over the Twirp HTTP
// API and participants join with short-lived HS256 access tokens.
package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aihr-dev/interviewd/pkg/core"
	"github.com/aihr-dev/interviewd/pkg/interview"
)

const (
	defaultTokenTTL     = time.Hour
	defaultEmptyTimeout = 300 // seconds before an unused room is reclaimed

	identityInterviewer = "interviewer"
	identityCandidate   = "candidate"
)

// Config carries room server credentials and endpoints.
type Config struct {
	// URL is the HTTP endpoint of the room server, e.g. "https://rooms.example.com".
	URL string
	// WSURL is the address participants connect to, e.g. "wss://rooms.example.com".
	WSURL string
	// APIKey and APISecret sign access and admin tokens.
	APIKey    string
	APISecret string
	// TokenTTL bounds participant token lifetime. Defaults to one hour.
	TokenTTL time.Duration

	HTTPClient *http.Client
}

// Client provisions rooms and mints join tokens. It implements
// interview.RoomProvisioner.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("room server url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.APISecret) == "" {
		return nil, fmt.Errorf("room server api key and secret are required")
	}
	if cfg.WSURL == "" {
		cfg.WSURL = strings.Replace(cfg.URL, "http", "ws", 1)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient, now: time.Now}, nil
}

// Provision creates a room for the session and returns join material for
// both participants. Any failure surfaces as a provisioning error.
func (c *Client) Provision(ctx context.Context, sessionID string) (*interview.Room, error) {
	roomName := "interview-" + sessionID

	if err := c.createRoom(ctx, roomName); err != nil {
		return nil, core.NewProvisioningError(fmt.Sprintf("create room %s", roomName), err)
	}

	interviewerToken, err := c.accessToken(roomName, identityInterviewer, "AI Interviewer")
	if err != nil {
		return nil, core.NewProvisioningError("sign interviewer token", err)
	}
	candidateToken, err := c.accessToken(roomName, identityCandidate, "Candidate")
	if err != nil {
		return nil, core.NewProvisioningError("sign candidate token", err)
	}

	return &interview.Room{
		Name:             roomName,
		WSURL:            c.cfg.WSURL,
		CandidateToken:   candidateToken,
		InterviewerToken: interviewerToken,
	}, nil
}

// Delete tears down a room. Missing rooms are not an error.
func (c *Client) Delete(ctx context.Context, roomName string) error {
	err := c.twirp(ctx, "DeleteRoom", map[string]any{"room": roomName})
	if err != nil {
		return core.NewProvisioningError(fmt.Sprintf("delete room %s", roomName), err)
	}
	return nil
}

func (c *Client) createRoom(ctx context.Context, roomName string) error {
	metadata, _ := json.Marshal(map[string]string{
		"type":       "interview",
		"created_at": c.now().UTC().Format(time.RFC3339),
	})
	return c.twirp(ctx, "CreateRoom", map[string]any{
		"name":          roomName,
		"empty_timeout": defaultEmptyTimeout,
		"metadata":      string(metadata),
	})
}

func (c *Client) twirp(ctx context.Context, method string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	endpoint := strings.TrimSuffix(c.cfg.URL, "/") + "/twirp/livekit.RoomService/" + method

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	adminToken, err := c.adminToken()
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("room server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// videoGrant mirrors the LiveKit claim layout.
type videoGrant struct {
	Room         string `json:"room,omitempty"`
	RoomJoin     bool   `json:"roomJoin,omitempty"`
	RoomCreate   bool   `json:"roomCreate,omitempty"`
	RoomAdmin    bool   `json:"roomAdmin,omitempty"`
	CanPublish   bool   `json:"canPublish,omitempty"`
	CanSubscribe bool   `json:"canSubscribe,omitempty"`
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Name     string     `json:"name,omitempty"`
	Metadata string     `json:"metadata,omitempty"`
	Video    videoGrant `json:"video"`
}

func (c *Client) accessToken(roomName, identity, displayName string) (string, error) {
	metadata, _ := json.Marshal(map[string]string{"role": identity})
	return c.sign(tokenClaims{
		RegisteredClaims: c.registered(identity),
		Name:             displayName,
		Metadata:         string(metadata),
		Video: videoGrant{
			Room:         roomName,
			RoomJoin:     true,
			CanPublish:   true,
			CanSubscribe: true,
		},
	})
}

func (c *Client) adminToken() (string, error) {
	return c.sign(tokenClaims{
		RegisteredClaims: c.registered("interviewd"),
		Video:            videoGrant{RoomCreate: true, RoomAdmin: true},
	})
}

func (c *Client) registered(identity string) jwt.RegisteredClaims {
	now := c.now()
	return jwt.RegisteredClaims{
		Issuer:    c.cfg.APIKey,
		Subject:   identity,
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.TokenTTL)),
	}
}

func (c *Client) sign(claims tokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.cfg.APISecret))
	if err != nil {
		return "", fmt.Errorf("sign room token: %w", err)
	}
	return signed, nil
}
