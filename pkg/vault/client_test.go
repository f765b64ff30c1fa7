package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"muse/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(config.VaultConfig{
		Owner:  "alice",
		Repo:   "vault",
		Folder: "20_Literature",
		Token:  "test-token",
	}, 2000)
	c.baseURL = srv.URL
	return c
}

func listingJSON(names ...string) string {
	var entries []string
	for _, n := range names {
		entries = append(entries, fmt.Sprintf(`{"name":%q,"path":"20_Literature/%s","type":"file"}`, n, n))
	}
	return "[" + strings.Join(entries, ",") + "]"
}

func TestListNotes(t *testing.T) {
	t.Run("returns markdown files only", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/alice/vault/contents/20_Literature", r.URL.Path)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			fmt.Fprint(w, `[
				{"name":"a.md","type":"file"},
				{"name":"img.png","type":"file"},
				{"name":"sub","type":"dir"},
				{"name":"b.md","type":"file"}
			]`)
		})

		names, err := c.ListNotes(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"a.md", "b.md"}, names)
	})

	t.Run("404 maps to ErrNotFound", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := c.ListNotes(context.Background())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("401 maps to ErrAccessDenied", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := c.ListNotes(context.Background())
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestFetchNote(t *testing.T) {
	t.Run("decodes base64 content with embedded newlines", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte("# Title\n\n断片的なメモ"))
		// GitHub wraps base64 payloads at 60 chars
		wrapped := encoded[:10] + "\n" + encoded[10:]

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/alice/vault/contents/20_Literature/a.md", r.URL.Path)
			fmt.Fprintf(w, `{"name":"a.md","type":"file","encoding":"base64","content":%q}`, wrapped)
		})

		note, err := c.FetchNote(context.Background(), "a.md")
		require.NoError(t, err)
		assert.Equal(t, "a.md", note.Name)
		assert.Equal(t, "# Title\n\n断片的なメモ", note.Content)
	})

	t.Run("invalid base64 fails", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"name":"a.md","encoding":"base64","content":"%%%not-base64%%%"}`)
		})

		_, err := c.FetchNote(context.Background(), "a.md")
		assert.Error(t, err)
	})
}

func TestPickRandom(t *testing.T) {
	t.Run("fetches requested count", func(t *testing.T) {
		body := base64.StdEncoding.EncodeToString([]byte("content"))
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/repos/alice/vault/contents/20_Literature" {
				fmt.Fprint(w, listingJSON("a.md", "b.md", "c.md", "d.md"))
				return
			}
			fmt.Fprintf(w, `{"name":"x.md","encoding":"base64","content":%q}`, body)
		})

		notes, err := c.PickRandom(context.Background(), 2)
		require.NoError(t, err)
		assert.Len(t, notes, 2)
	})

	t.Run("caps at folder size", func(t *testing.T) {
		body := base64.StdEncoding.EncodeToString([]byte("content"))
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/repos/alice/vault/contents/20_Literature" {
				fmt.Fprint(w, listingJSON("only.md"))
				return
			}
			fmt.Fprintf(w, `{"name":"only.md","encoding":"base64","content":%q}`, body)
		})

		notes, err := c.PickRandom(context.Background(), 5)
		require.NoError(t, err)
		assert.Len(t, notes, 1)
	})

	t.Run("empty folder is an error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[]`)
		})

		_, err := c.PickRandom(context.Background(), 3)
		assert.Error(t, err)
	})

	t.Run("skips unreadable notes", func(t *testing.T) {
		body := base64.StdEncoding.EncodeToString([]byte("content"))
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/repos/alice/vault/contents/20_Literature":
				fmt.Fprint(w, listingJSON("good.md", "bad.md"))
			case strings.HasSuffix(r.URL.Path, "bad.md"):
				w.WriteHeader(http.StatusNotFound)
			default:
				fmt.Fprintf(w, `{"name":"good.md","encoding":"base64","content":%q}`, body)
			}
		})

		notes, err := c.PickRandom(context.Background(), 2)
		require.NoError(t, err)
		assert.Len(t, notes, 1)
		assert.Equal(t, "good.md", notes[0].Name)
	})
}
