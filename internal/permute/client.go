// Package permute wraps the dnstwister permutation API with retries, rate
// limiting, admission control, and a process-lifetime cache.
package permute

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/projectdiscovery/ratelimit"
	"github.com/projectdiscovery/retryablehttp-go"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultBaseURL is the public dnstwister API root.
	DefaultBaseURL = "https://dnstwister.report/api"
	// DefaultConcurrency bounds outstanding permutation requests
	// process-wide. Hosts with 8 GB of RAM or less should configure 20.
	DefaultConcurrency = 30
	// DefaultRequestsPerSecond is the request-per-second ceiling toward the
	// service, applied underneath the concurrency bound.
	DefaultRequestsPerSecond = 10
	// DefaultCacheSize caps the permutation cache. Entries have no TTL; the
	// observed domain volume bounds growth in practice.
	DefaultCacheSize = 65536
	// MaxPermutations caps the list returned for one domain.
	MaxPermutations = 30

	requestTimeout = 10 * time.Second
)

// Client talks to the permutation service. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	sem     *semaphore.Weighted
	limiter *ratelimit.Limiter
	cache   *lru.Cache[string, []string]
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL           string
	Concurrency       int64
	RequestsPerSecond int
	CacheSize         int
}

// New builds a permutation client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.RequestsPerSecond < 1 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = DefaultCacheSize
	}

	cache, err := lru.New[string, []string](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("building permutation cache: %w", err)
	}

	httpOpts := retryablehttp.DefaultOptionsSingle
	httpOpts.RetryMax = 2 // three attempts per sub-call
	httpOpts.RetryWaitMin = time.Second
	httpOpts.RetryWaitMax = 4 * time.Second
	httpOpts.Timeout = requestTimeout

	return &Client{
		baseURL: opts.BaseURL,
		http:    retryablehttp.NewClient(httpOpts),
		sem:     semaphore.NewWeighted(opts.Concurrency),
		limiter: ratelimit.New(context.Background(), uint(opts.RequestsPerSecond), time.Second),
		cache:   cache,
	}, nil
}

// Close releases the rate limiter.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Permutations returns up to 30 typo permutations for the domain. Results
// are cached for the process lifetime. The semaphore admits one outstanding
// lookup per caller; both sub-calls run under the same permit.
func (c *Client) Permutations(ctx context.Context, domain string) ([]string, error) {
	if cached, ok := c.cache.Get(domain); ok {
		return cached, nil
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	hexDomain, err := c.toHex(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("to_hex for %s: %w", domain, err)
	}

	permutations, err := c.fuzz(ctx, hexDomain)
	if err != nil {
		return nil, fmt.Errorf("fuzz for %s: %w", domain, err)
	}

	c.cache.Add(domain, permutations)
	return permutations, nil
}

func (c *Client) toHex(ctx context.Context, domain string) (string, error) {
	var response struct {
		DomainAsHexadecimal string `json:"domain_as_hexadecimal"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/to_hex/"+url.PathEscape(domain), &response); err != nil {
		return "", err
	}
	if response.DomainAsHexadecimal == "" {
		return "", fmt.Errorf("empty hexadecimal form")
	}
	return response.DomainAsHexadecimal, nil
}

func (c *Client) fuzz(ctx context.Context, hexDomain string) ([]string, error) {
	var response struct {
		FuzzyDomains []struct {
			Domain string `json:"domain"`
		} `json:"fuzzy_domains"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/fuzz/"+url.PathEscape(hexDomain), &response); err != nil {
		return nil, err
	}

	permutations := make([]string, 0, len(response.FuzzyDomains))
	for _, entry := range response.FuzzyDomains {
		if entry.Domain == "" {
			continue
		}
		permutations = append(permutations, entry.Domain)
		if len(permutations) >= MaxPermutations {
			break
		}
	}
	return permutations, nil
}

// getJSON performs one rate-limited GET and decodes the response. Transient
// failures and 5xx are retried by the underlying client; any 4xx that
// reaches us is terminal.
func (c *Client) getJSON(ctx context.Context, requestURL string, out interface{}) error {
	c.limiter.Take()

	request, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}

	response, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, response.Body)
		response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", response.StatusCode)
	}
	return json.NewDecoder(response.Body).Decode(out)
}
