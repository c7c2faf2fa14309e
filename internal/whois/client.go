// Package whois resolves domain registration age through the system whois
// binary, with concurrency limits and layered caching.
package whois

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/projectdiscovery/gologger"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultConcurrency bounds simultaneous whois subprocesses.
	DefaultConcurrency = 10
	// DefaultCacheSize and DefaultCacheTTL size the per-domain age cache.
	DefaultCacheSize = 3000
	DefaultCacheTTL  = time.Hour
	// DefaultMemoSize caps the process-lifetime memo of raw lookups.
	DefaultMemoSize = 10000

	// AgeUnknown is the sentinel for lookups that failed or parsed nothing.
	AgeUnknown = -1

	lookupTimeout = 5 * time.Second
)

// Client performs registration-age lookups. Safe for concurrent use.
type Client struct {
	binary  string
	sem     *semaphore.Weighted
	cache   *expirable.LRU[string, int]
	memo    *lru.Cache[string, int]
	nowFunc func() time.Time
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Binary      string
	Concurrency int64
	CacheSize   int
	CacheTTL    time.Duration
	MemoSize    int
}

// New builds a whois client.
func New(opts Options) (*Client, error) {
	if opts.Binary == "" {
		opts.Binary = "whois"
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.MemoSize < 1 {
		opts.MemoSize = DefaultMemoSize
	}

	memo, err := lru.New[string, int](opts.MemoSize)
	if err != nil {
		return nil, fmt.Errorf("building whois memo: %w", err)
	}

	return &Client{
		binary:  opts.Binary,
		sem:     semaphore.NewWeighted(opts.Concurrency),
		cache:   expirable.NewLRU[string, int](opts.CacheSize, nil, opts.CacheTTL),
		memo:    memo,
		nowFunc: time.Now,
	}, nil
}

// RegistrationAge returns the domain's age in days since its creation date,
// or -1 when unknown. Failures degrade to the sentinel; they never propagate.
func (c *Client) RegistrationAge(ctx context.Context, domain string) int {
	if age, ok := c.cache.Get(domain); ok {
		return age
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return AgeUnknown
	}
	age := c.lookup(ctx, domain)
	c.sem.Release(1)

	c.cache.Add(domain, age)
	return age
}

// lookup runs the whois subprocess, consulting the raw-result memo first.
func (c *Client) lookup(ctx context.Context, domain string) int {
	if age, ok := c.memo.Get(domain); ok {
		return age
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, domain)
	// Keep the tool non-interactive and off the terminal
	cmd.Env = append(os.Environ(), "TERM=dumb", "PAGER=cat")
	cmd.Stdin = nil

	output, err := cmd.Output()
	if err != nil {
		gologger.Debug().Msgf("whois %s failed: %v", domain, err)
		c.memo.Add(domain, AgeUnknown)
		return AgeUnknown
	}

	age := parseAge(string(output), c.nowFunc())
	c.memo.Add(domain, age)
	return age
}

// parseAge extracts the creation date from raw whois output and converts it
// to whole days before now. The first parseable "Creation Date:" (exact) or
// "created:" (any case) line wins.
func parseAge(output string, now time.Time) int {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "Creation Date:") &&
			!strings.Contains(strings.ToLower(line), "created:") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		created, err := time.Parse("2006-01-02T15:04:05Z", strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		days := int(now.Sub(created).Hours() / 24)
		if days < 0 {
			days = 0
		}
		return days
	}
	return AgeUnknown
}
