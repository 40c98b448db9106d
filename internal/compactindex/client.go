// Package compactindex implements a client for the RubyGems compact-index
// protocol: an incrementally cacheable HTTP API exposing a `/versions`
// endpoint (the full name -> version list) and a per-gem `/info/<name>`
// endpoint (versions plus their dependencies), both append-only and
// both fronted by ETag/Range based incremental caching.
package compactindex

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/TaKO8Ki/bundle/internal/metrics"
	"github.com/TaKO8Ki/bundle/internal/version"
)

// GemDependency is one dependency edge discovered in an /info response:
// a gem name and its parsed requirement (the raw per-clause strings stay
// available through Requirement.Clauses).
type GemDependency struct {
	Name        string
	Requirement version.Requirement
}

// GemVersion is one version of a gem as reported by /info/<name>,
// together with its dependencies and its (unverified) checksum.
type GemVersion struct {
	Name         string
	Version      version.Version
	Checksum     string
	Dependencies []GemDependency
}

// Client fetches and incrementally caches compact-index data.
type Client struct {
	baseURL    string
	cacheDir   string
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.Registry
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	CacheDir   string
	HTTPClient *http.Client
	Logger     zerolog.Logger
	Metrics    *metrics.Registry
}

// NewClient builds a Client, creating the cache directory layout
// (info/ and info-etags/ subdirectories) if it does not already exist.
func NewClient(cfg Config) (*Client, error) {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	slug, err := cacheSlugForURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	cacheDir := filepath.Join(cfg.CacheDir, slug)

	for _, sub := range []string{"info", "info-etags"} {
		if err := os.MkdirAll(filepath.Join(cacheDir, sub), 0o755); err != nil {
			return nil, &IOError{Path: filepath.Join(cacheDir, sub), Err: err}
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cacheDir:   cacheDir,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}, nil
}

// updateCache performs the shared cache-refresh protocol used by both
// /versions and /info/<name>: a conditional GET carrying an
// If-None-Match from the cached ETag, and, when the cache already has
// content, a Range request for an incremental append.
//
// The Range header's byte offset is computed from the length of the
// ETag file, not the data file. That is almost certainly a bug in the
// system this client was modeled on, but every known deployment of
// that system relies on the resulting (mostly harmless, since servers
// still return 200 on an out-of-range Range request) behavior, so it
// is preserved here rather than "fixed".
func (c *Client) updateCache(ctx context.Context, reqURL, dataPath, etagBasePath string) (cacheHit bool, err error) {
	etagPath := etagBasePath + ".etag"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, &NetworkError{URL: reqURL, Err: err}
	}

	if etag, ok := readFileIfExists(etagPath); ok && len(etag) > 0 {
		req.Header.Set("If-None-Match", string(etag))
	}

	if info, statErr := os.Stat(etagPath); statErr == nil && info.Size() > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", info.Size()-1))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, &NetworkError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		c.observeFetch(start, true)
		return true, nil

	case http.StatusOK, http.StatusPartialContent:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return false, &NetworkError{URL: reqURL, Err: err}
		}

		if newETag := resp.Header.Get("ETag"); newETag != "" {
			if err := writeFileAtomic(etagPath, []byte(newETag)); err != nil {
				return false, &IOError{Path: etagPath, Err: err}
			}
		}

		if resp.StatusCode == http.StatusPartialContent {
			if _, statErr := os.Stat(dataPath); statErr == nil && len(body) > 0 {
				// The first byte of a partial response re-confirms the
				// byte at the requested offset; drop it before appending.
				if err := appendFile(dataPath, body[1:]); err != nil {
					return false, &IOError{Path: dataPath, Err: err}
				}
				c.observeFetch(start, false)
				return false, nil
			}
		}

		if err := writeFileAtomic(dataPath, body); err != nil {
			return false, &IOError{Path: dataPath, Err: err}
		}
		c.observeFetch(start, false)
		return false, nil

	default:
		return false, &NetworkError{URL: reqURL, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}
}

func (c *Client) observeFetch(start time.Time, hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.CacheHits.Inc()
	} else {
		c.metrics.CacheMisses.Inc()
	}
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
}

// Versions fetches (and incrementally caches) the full /versions feed,
// returning the parsed version list for every name in want. Names not
// present in want are skipped while parsing, matching the upstream
// protocol's single-feed-for-every-gem design.
func (c *Client) Versions(ctx context.Context, want map[string]struct{}) (map[string][]version.Version, error) {
	dataPath := filepath.Join(c.cacheDir, "versions")
	etagBase := filepath.Join(c.cacheDir, "versions")

	// The result of this refresh is intentionally unused beyond
	// keeping the cache warm: discovery below always re-reads the
	// full cached file, so a 304 and a 200 are handled identically.
	if _, err := c.updateCache(ctx, c.baseURL+"/versions", dataPath, etagBase); err != nil {
		return nil, err
	}

	f, err := os.Open(dataPath)
	if err != nil {
		return nil, &IOError{Path: dataPath, Err: err}
	}
	defer f.Close()

	result := make(map[string][]version.Version)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	pastHeader := false
	for scanner.Scan() {
		line := scanner.Text()
		if !pastHeader {
			if line == "---" {
				pastHeader = true
			}
			continue
		}
		if line == "" || line == "---" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		if _, ok := want[name]; !ok {
			continue
		}

		for _, vs := range strings.Split(fields[1], ",") {
			vs = strings.TrimSpace(vs)
			if vs == "" {
				continue
			}
			v, err := version.Parse(vs)
			if err != nil {
				return nil, &ParseError{Context: "versions line for " + name, Err: err}
			}
			result[name] = append(result[name], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &IOError{Path: dataPath, Err: err}
	}

	return result, nil
}

// Info fetches (and incrementally caches) the /info/<name> feed for a
// single gem, returning every version it advertises along with each
// version's dependencies. Checksums are parsed and retained but never
// verified against downloaded gem content; verification is out of
// scope for this resolver.
func (c *Client) Info(ctx context.Context, name string) ([]GemVersion, error) {
	dataPath := filepath.Join(c.cacheDir, "info", name)
	etagBase := filepath.Join(c.cacheDir, "info-etags", name)

	if _, err := c.updateCache(ctx, c.baseURL+"/info/"+name, dataPath, etagBase); err != nil {
		return nil, err
	}

	f, err := os.Open(dataPath)
	if err != nil {
		return nil, &IOError{Path: dataPath, Err: err}
	}
	defer f.Close()

	var result []GemVersion
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line == "---" {
			continue
		}

		checksumSplit := strings.SplitN(line, "|", 2)
		payload := checksumSplit[0]
		var checksum string
		if len(checksumSplit) == 2 {
			checksum = checksumSplit[1]
		}

		sp := strings.SplitN(strings.TrimSpace(payload), " ", 2)
		versionStr := sp[0]
		v, err := version.Parse(versionStr)
		if err != nil {
			return nil, &ParseError{Context: fmt.Sprintf("info version for %s", name), Err: err}
		}

		gv := GemVersion{Name: name, Version: v, Checksum: checksum}
		if len(sp) == 2 && strings.TrimSpace(sp[1]) != "" {
			for _, depEntry := range strings.Split(sp[1], ",") {
				depEntry = strings.TrimSpace(depEntry)
				if depEntry == "" {
					continue
				}
				nameReq := strings.SplitN(depEntry, ":", 2)
				if len(nameReq) != 2 {
					continue
				}
				req, err := version.ParseRequirement(strings.TrimSpace(nameReq[1]), '&')
				if err != nil {
					return nil, &ParseError{Context: fmt.Sprintf("dependency requirement for %s", name), Err: err}
				}
				gv.Dependencies = append(gv.Dependencies, GemDependency{
					Name:        strings.TrimSpace(nameReq[0]),
					Requirement: req,
				})
			}
		}

		result = append(result, gv)
	}
	if err := scanner.Err(); err != nil {
		return nil, &IOError{Path: dataPath, Err: err}
	}

	return result, nil
}
