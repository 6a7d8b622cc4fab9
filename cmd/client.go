package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"role-sync/core/config"
	"role-sync/core/logger"
	"role-sync/core/middleware/auth"

	"go.uber.org/zap"
)

// adminClient talks to the admin API of a running instance.
type adminClient struct {
	base   string
	apiKey string
	http   *http.Client
}

// apiError is a non-2xx admin API response.
type apiError struct {
	Status  int
	Message string
	Details string
}

func (e *apiError) Error() string {
	if e.Details != "" && e.Details != e.Message {
		return fmt.Sprintf("%s (%d: %s)", e.Message, e.Status, e.Details)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

func newAdminClient(cfg *config.Config) *adminClient {
	base := adminURL
	if base == "" {
		base = cfg.Server.LocalURL()
	}
	return &adminClient{
		base:   strings.TrimRight(base, "/"),
		apiKey: cfg.Server.ApiKey,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *adminClient) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(auth.Header, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("admin API unreachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var payload struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error == "" {
			payload.Error = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Message: payload.Error, Details: payload.Details}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// adminCall loads the config, calls the admin API and logs the reply.
func adminCall(method, path string, in any) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&logger.Config{Level: "info", Format: "console"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var reply map[string]any
	if err := newAdminClient(cfg).do(ctx, method, path, in, &reply); err != nil {
		return err
	}
	printReply(l, reply)
	return nil
}

// printReply logs the human message with the remaining fields attached.
func printReply(l *zap.Logger, reply map[string]any) {
	msg, _ := reply["message"].(string)
	if msg == "" {
		msg = "OK"
	}
	fields := make([]zap.Field, 0, len(reply))
	for k, v := range reply {
		if k == "message" {
			continue
		}
		fields = append(fields, zap.Any(k, v))
	}
	l.Info(msg, fields...)
}
