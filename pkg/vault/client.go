package vault

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"muse/pkg/config"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sentinel errors for callers that need to distinguish vault failures.
var (
	// ErrNotFound indicates the repo or folder does not exist or the token
	// cannot see it. GitHub reports both cases as 404.
	ErrNotFound = errors.New("vault path not found")
	// ErrAccessDenied indicates the token was rejected or lacks scope.
	ErrAccessDenied = errors.New("vault access denied")
)

const defaultBaseURL = "https://api.github.com"

// Note is one fetched note fragment.
type Note struct {
	Name    string // File name inside the vault folder
	Content string // Decoded markdown body
}

// contentEntry mirrors the fields we need from the GitHub contents API.
type contentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"` // "file" or "dir"
	Content     string `json:"content"`
	Encoding    string `json:"encoding"`
	DownloadURL string `json:"download_url"`
}

// Client reads note fragments from a GitHub-hosted vault repository via the
// contents API.
type Client struct {
	cfg        config.VaultConfig
	baseURL    string
	httpClient *http.Client
	rng        *rand.Rand
}

// NewClient builds a vault client. timeoutMs bounds every API call.
func NewClient(cfg config.VaultConfig, timeoutMs int) *Client {
	return &Client{
		cfg:     cfg,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMs) * time.Millisecond,
		},
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// get issues an authenticated GET and maps GitHub error statuses onto the
// package sentinel errors.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vault request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vault read failed: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrAccessDenied, resp.StatusCode)
	default:
		return nil, fmt.Errorf("vault unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// ListNotes returns the markdown files directly inside the configured folder.
// Subdirectories and non-markdown files are skipped.
func (c *Client) ListNotes(ctx context.Context) ([]string, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(c.cfg.Owner), url.PathEscape(c.cfg.Repo), c.cfg.Folder)

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var entries []contentEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse vault listing: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type != "file" || !strings.HasSuffix(e.Name, ".md") {
			continue
		}
		names = append(names, e.Name)
	}
	return names, nil
}

// FetchNote downloads and decodes one note by file name.
func (c *Client) FetchNote(ctx context.Context, name string) (*Note, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents/%s/%s",
		url.PathEscape(c.cfg.Owner), url.PathEscape(c.cfg.Repo), c.cfg.Folder, url.PathEscape(name))

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var entry contentEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse vault note: %w", err)
	}

	content := entry.Content
	if entry.Encoding == "base64" {
		// GitHub inserts newlines into the base64 payload
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("failed to decode vault note %s: %w", name, err)
		}
		content = string(decoded)
	}

	return &Note{Name: entry.Name, Content: content}, nil
}

// PickRandom fetches up to n randomly chosen notes from the folder. When the
// folder holds fewer than n notes, all of them are returned. A single note
// failing to download is logged and skipped rather than failing the batch.
func (c *Client) PickRandom(ctx context.Context, n int) ([]Note, error) {
	names, err := c.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("vault folder %s contains no notes", c.cfg.Folder)
	}

	c.rng.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	if n > len(names) {
		n = len(names)
	}

	notes := make([]Note, 0, n)
	for _, name := range names[:n] {
		note, err := c.FetchNote(ctx, name)
		if err != nil {
			slog.Warn("Skipping unreadable note", "name", name, "error", err)
			continue
		}
		notes = append(notes, *note)
	}

	if len(notes) == 0 {
		return nil, fmt.Errorf("all selected notes failed to download")
	}
	return notes, nil
}
