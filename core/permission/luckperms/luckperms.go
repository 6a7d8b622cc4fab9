// Package luckperms talks to the LuckPerms REST API.
//
// Group membership is expressed as "group.<name>" nodes on the user.
// The adapter is detected when the API's health endpoint reports healthy.
package luckperms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"role-sync/core/permission"
	"role-sync/core/reconcile"

	"github.com/google/uuid"
)

// Name is the registry name of this adapter.
const Name = "luckperms"

type node struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

type userResponse struct {
	UniqueID     string   `json:"uniqueId"`
	ParentGroups []string `json:"parentGroups"`
	Nodes        []node   `json:"nodes"`
}

type healthResponse struct {
	Healthy bool `json:"healthy"`
}

// Adapter is a LuckPerms REST client.
type Adapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates an adapter from configuration. Per-call deadlines come from
// the context; the registry wraps every call with one.
func New(cfg permission.LuckPermsConfig, client *http.Client) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Adapter{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Detect(ctx context.Context) bool {
	if a.baseURL == "" {
		return false
	}
	var health healthResponse
	if err := a.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return false
	}
	return health.Healthy
}

func (a *Adapter) GrantGroup(ctx context.Context, gameID uuid.UUID, group string) error {
	body := node{Key: groupNode(group), Value: true}
	return a.do(ctx, http.MethodPost, "/user/"+gameID.String()+"/nodes", body, nil)
}

func (a *Adapter) RevokeGroup(ctx context.Context, gameID uuid.UUID, group string) error {
	body := []node{{Key: groupNode(group), Value: true}}
	return a.do(ctx, http.MethodDelete, "/user/"+gameID.String()+"/nodes", body, nil)
}

func (a *Adapter) PlayerGroups(ctx context.Context, gameID uuid.UUID) (reconcile.Set, error) {
	var user userResponse
	err := a.do(ctx, http.MethodGet, "/user/"+gameID.String(), nil, &user)
	if status, ok := err.(*permission.StatusError); ok && status.Status == http.StatusNotFound {
		// Unknown to LuckPerms means no groups yet.
		return make(reconcile.Set), nil
	}
	if err != nil {
		return nil, err
	}

	groups := reconcile.NewSet(user.ParentGroups...)
	for _, n := range user.Nodes {
		if n.Value && strings.HasPrefix(n.Key, "group.") {
			groups[strings.TrimPrefix(n.Key, "group.")] = struct{}{}
		}
	}
	return groups, nil
}

func groupNode(group string) string {
	return "group." + strings.ToLower(group)
}

func (a *Adapter) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &permission.StatusError{Backend: Name, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
