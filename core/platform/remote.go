package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Config points at an optional member lookup service, typically the chat
// bot that also pushes role events.
type Config struct {
	RolesURL string `mapstructure:"roles_url" default:""`
	Token    string `mapstructure:"token" default:""`
}

type memberResponse struct {
	Roles  []string `json:"roles"`
	Member bool     `json:"member"`
}

// Remote fetches member roles over HTTP: GET {roles_url}/members/{id}.
// A 404 means the account is not a member.
type Remote struct {
	base   string
	token  string
	client *http.Client
}

// NewRemote returns nil when cfg has no RolesURL.
func NewRemote(cfg Config, client *http.Client) *Remote {
	if cfg.RolesURL == "" {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{
		base:   strings.TrimRight(cfg.RolesURL, "/"),
		token:  cfg.Token,
		client: client,
	}
}

func (r *Remote) MemberRoles(ctx context.Context, platformID string) ([]string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base+"/members/"+url.PathEscape(platformID), nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("member lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, fmt.Errorf("member lookup returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out memberResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("failed to decode member response: %w", err)
	}
	return out.Roles, out.Member, nil
}
