package permute

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestServer(t *testing.T, fuzzCount int, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch {
		case strings.HasPrefix(r.URL.Path, "/to_hex/"):
			domain := strings.TrimPrefix(r.URL.Path, "/to_hex/")
			fmt.Fprintf(w, `{"domain_as_hexadecimal": %q}`, hex.EncodeToString([]byte(domain)))
		case strings.HasPrefix(r.URL.Path, "/fuzz/"):
			var entries []string
			for i := 0; i < fuzzCount; i++ {
				entries = append(entries, fmt.Sprintf(`{"domain": "variant-%02d.com"}`, i))
			}
			fmt.Fprintf(w, `{"fuzzy_domains": [%s]}`, strings.Join(entries, ","))
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(Options{BaseURL: baseURL, RequestsPerSecond: 1000})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestPermutations(t *testing.T) {
	var hits atomic.Int64
	server := newTestServer(t, 5, &hits)
	defer server.Close()

	client := newTestClient(t, server.URL)

	perms, err := client.Permutations(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(perms) != 5 {
		t.Fatalf("expected 5 permutations, got %d", len(perms))
	}
	if perms[0] != "variant-00.com" {
		t.Errorf("unexpected first permutation %q", perms[0])
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 HTTP calls (to_hex + fuzz), got %d", hits.Load())
	}
}

func TestPermutationsCapped(t *testing.T) {
	var hits atomic.Int64
	server := newTestServer(t, 80, &hits)
	defer server.Close()

	client := newTestClient(t, server.URL)

	perms, err := client.Permutations(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(perms) != MaxPermutations {
		t.Errorf("expected list capped at %d, got %d", MaxPermutations, len(perms))
	}
}

func TestPermutationsCached(t *testing.T) {
	var hits atomic.Int64
	server := newTestServer(t, 3, &hits)
	defer server.Close()

	client := newTestClient(t, server.URL)

	for i := 0; i < 3; i++ {
		if _, err := client.Permutations(context.Background(), "example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if hits.Load() != 2 {
		t.Errorf("expected repeat lookups served from cache, got %d HTTP calls", hits.Load())
	}
}

func TestPermutationsClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such domain", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	if _, err := client.Permutations(context.Background(), "example.com"); err == nil {
		t.Fatal("expected error on 4xx response")
	}
}

func TestPermutationsContextCancelled(t *testing.T) {
	var hits atomic.Int64
	server := newTestServer(t, 3, &hits)
	defer server.Close()

	client := newTestClient(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Permutations(ctx, "example.com"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
