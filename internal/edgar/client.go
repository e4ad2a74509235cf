package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"secai/internal/cache"
)

// StatusError is returned when an EDGAR endpoint answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("edgar GET %s failed: %s", e.URL, e.Status)
}

// Config configures the EDGAR client.
type Config struct {
	UserAgent      string
	SearchURL      string
	SubmissionsURL string
	ArchivesURL    string
	Forms          []string
	MinQueryLength int
	RateLimit      rate.Limit
	Timeout        time.Duration

	SearchTTL      time.Duration
	SubmissionsTTL time.Duration
	DocumentTTL    time.Duration
}

// Client talks to the public EDGAR search, submissions and archive endpoints.
// All requests share one rate limiter.
type Client struct {
	cfg      Config
	archives *url.URL
	forms    map[string]struct{}
	http     *http.Client
	limiter  *rate.Limiter
	cache    cache.Cache
	logger   *slog.Logger
}

// NewClient creates a client. A nil cache disables caching.
func NewClient(cfg Config, c cache.Cache, logger *slog.Logger) *Client {
	if cfg.SearchURL == "" {
		cfg.SearchURL = "https://efts.sec.gov/LATEST/search-index"
	}
	if cfg.SubmissionsURL == "" {
		cfg.SubmissionsURL = "https://data.sec.gov/submissions"
	}
	if cfg.ArchivesURL == "" {
		cfg.ArchivesURL = "https://www.sec.gov/Archives/edgar/data"
	}
	if len(cfg.Forms) == 0 {
		cfg.Forms = []string{"10-Q", "10-K"}
	}
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = 3
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	forms := make(map[string]struct{}, len(cfg.Forms))
	for _, f := range cfg.Forms {
		forms[strings.ToUpper(strings.TrimSpace(f))] = struct{}{}
	}
	archives, err := url.Parse(cfg.ArchivesURL)
	if err != nil {
		logger.Warn("invalid archives url, no document url will be accepted", "url", cfg.ArchivesURL, "error", err)
	}
	return &Client{
		cfg:      cfg,
		archives: archives,
		forms:    forms,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(cfg.RateLimit, 1),
		cache:    c,
		logger:   logger.With("component", "edgar"),
	}
}

// IsArchiveURL reports whether raw points into the configured filing
// archive: same scheme and host, and a path below the archive root after
// dot segments are resolved.
func (c *Client) IsArchiveURL(raw string) bool {
	if c.archives == nil || c.archives.Host == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.User != nil || u.Opaque != "" {
		return false
	}
	if !strings.EqualFold(u.Scheme, c.archives.Scheme) || !strings.EqualFold(u.Host, c.archives.Host) {
		return false
	}
	root := strings.TrimSuffix(path.Clean("/"+c.archives.Path), "/") + "/"
	return strings.HasPrefix(path.Clean("/"+u.Path), root)
}

// MinQueryLength is the shortest query Autocomplete sends upstream.
func (c *Client) MinQueryLength() int { return c.cfg.MinQueryLength }

// FetchDocument downloads a filing document and returns its body and content type.
func (c *Client) FetchDocument(ctx context.Context, docURL string) ([]byte, string, error) {
	body, contentType, err := c.get(ctx, docURL, "document:"+docURL, c.cfg.DocumentTTL)
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL, cacheKey string, ttl time.Duration, out any) error {
	body, _, err := c.get(ctx, rawURL, cacheKey, ttl)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// get performs a rate-limited GET, consulting the cache first. Cached
// entries store the content type on the first line.
func (c *Client) get(ctx context.Context, rawURL, cacheKey string, ttl time.Duration) ([]byte, string, error) {
	if data, ok, err := c.cache.Get(ctx, cacheKey); err != nil {
		c.logger.Warn("cache read failed", "key", cacheKey, "error", err)
	} else if ok {
		contentType, body, _ := strings.Cut(string(data), "\n")
		c.logger.Debug("cache hit", "key", cacheKey)
		return []byte(body), contentType, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept-Encoding", "identity")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("edgar GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", rawURL, err)
	}
	contentType := resp.Header.Get("Content-Type")
	c.logger.Debug("fetched", "url", rawURL, "bytes", len(body), "elapsed", time.Since(start))

	entry := make([]byte, 0, len(contentType)+1+len(body))
	entry = append(entry, contentType...)
	entry = append(entry, '\n')
	entry = append(entry, body...)
	if err := c.cache.Set(ctx, cacheKey, entry, ttl); err != nil {
		c.logger.Warn("cache write failed", "key", cacheKey, "error", err)
	}
	return body, contentType, nil
}

func withQuery(base string, params url.Values) string {
	if len(params) == 0 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + params.Encode()
}
