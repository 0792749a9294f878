// internal/pterodactyl/client.go

// Package pterodactyl is a typed client for the panel application API.
// Responses are parsed into the typed shapes in types.go at this boundary;
// malformed or non-2xx responses surface as errors rather than leaking
// untyped data into the orchestrators.
package pterodactyl

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

const passwordLength = 16

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx panel response.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pterodactyl API error: %s %s returned %d", e.Method, e.Path, e.StatusCode)
}

// The panel wraps every resource in an attributes envelope.
type listResponse struct {
	Data []struct {
		Attributes json.RawMessage `json:"attributes"`
	} `json:"data"`
}

type objectResponse struct {
	Attributes json.RawMessage `json:"attributes"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	url := fmt.Sprintf("%s/api/application/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pterodactyl request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Method: method, Path: path}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode pterodactyl response: %w", err)
		}
	}
	return nil
}

func (c *Client) list(ctx context.Context, path string, each func(json.RawMessage) error) error {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return err
	}
	for _, item := range resp.Data {
		if err := each(item.Attributes); err != nil {
			return fmt.Errorf("failed to decode pterodactyl response: %w", err)
		}
	}
	return nil
}

// Servers returns all servers known to the panel.
func (c *Client) Servers(ctx context.Context) ([]Server, error) {
	var servers []Server
	err := c.list(ctx, "servers", func(attrs json.RawMessage) error {
		var server Server
		if err := json.Unmarshal(attrs, &server); err != nil {
			return err
		}
		servers = append(servers, server)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return servers, nil
}

// ServerBackups returns all backup snapshots of a server.
func (c *Client) ServerBackups(ctx context.Context, serverID int) ([]Backup, error) {
	var backups []Backup
	err := c.list(ctx, fmt.Sprintf("servers/%d/backups", serverID), func(attrs json.RawMessage) error {
		var backup Backup
		if err := json.Unmarshal(attrs, &backup); err != nil {
			return err
		}
		backups = append(backups, backup)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return backups, nil
}

// LockBackup marks a backup as locked so the panel will not rotate it away.
func (c *Client) LockBackup(ctx context.Context, serverID int, backupID string) error {
	path := fmt.Sprintf("servers/%d/backups/%s", serverID, backupID)
	return c.do(ctx, http.MethodPatch, path, map[string]interface{}{"is_locked": true}, nil)
}

// UnlockBackup clears the lock flag of a backup.
func (c *Client) UnlockBackup(ctx context.Context, serverID int, backupID string) error {
	path := fmt.Sprintf("servers/%d/backups/%s", serverID, backupID)
	return c.do(ctx, http.MethodPatch, path, map[string]interface{}{"is_locked": false}, nil)
}

// ReinstallServer wipes the server back to its egg defaults. Destructive.
func (c *Client) ReinstallServer(ctx context.Context, serverID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("servers/%d/reinstall", serverID), nil, nil)
}

// CreateUser creates a panel account with a generated random password.
func (c *Client) CreateUser(ctx context.Context, username, email string) (User, error) {
	password, err := generatePassword(passwordLength)
	if err != nil {
		return User{}, fmt.Errorf("failed to generate password: %w", err)
	}

	payload := map[string]interface{}{
		"username":   username,
		"email":      email,
		"first_name": username,
		"last_name":  "",
		"password":   password,
	}

	var resp objectResponse
	if err := c.do(ctx, http.MethodPost, "users", payload, &resp); err != nil {
		return User{}, err
	}

	var user User
	if err := json.Unmarshal(resp.Attributes, &user); err != nil {
		return User{}, fmt.Errorf("failed to decode pterodactyl response: %w", err)
	}
	return user, nil
}

// AddServerUser grants a panel user full access to a server.
func (c *Client) AddServerUser(ctx context.Context, serverID, userID int) error {
	payload := map[string]interface{}{
		"user":        userID,
		"permissions": []string{"*"},
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("servers/%d/users", serverID), payload, nil)
}

// RemoveServerUser revokes a panel user's access to a server.
func (c *Client) RemoveServerUser(ctx context.Context, serverID, userID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("servers/%d/users/%d", serverID, userID), nil, nil)
}

// BackupDownloadURL resolves a pre-signed download link for a backup. The
// panel authenticates the resolution call and signs the returned URL, so the
// archiver can fetch the artifact without carrying panel credentials.
func (c *Client) BackupDownloadURL(ctx context.Context, serverID int, backupID string) (string, error) {
	var resp objectResponse
	path := fmt.Sprintf("servers/%d/backups/%s/download", serverID, backupID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}

	var signed struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp.Attributes, &signed); err != nil {
		return "", fmt.Errorf("failed to decode pterodactyl response: %w", err)
	}
	if signed.URL == "" {
		return "", fmt.Errorf("pterodactyl returned an empty download URL for backup %s", backupID)
	}
	return signed.URL, nil
}

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

func generatePassword(length int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(passwordCharset)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(passwordCharset[n.Int64()])
	}
	return sb.String(), nil
}
