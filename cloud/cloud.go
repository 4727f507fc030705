// Package cloud fetches the remote dictionary catalog (the manifest) and
// downloads individual dictionaries from it.
//
// The manifest is a JSON document:
//
//	{
//	    "lastUpdated": "2024-06-10T12:00:00Z",
//	    "contributors": ["ana", "li"],
//	    "plugins": [
//	        {"pluginId": "demo", "locale": "fr", "dictVersion": "1718000000000",
//	         "progress": 100, "downloadUrl": "https://raw.githubusercontent.com/..."}
//	    ],
//	    "themes": [
//	        {"themeName": "Minimal", "locale": "de", "dictVersion": "3", "downloadUrl": "..."}
//	    ]
//	}
//
// Download URLs pointing at the canonical raw-file host are rewritten to a
// mirror prefix before they are stored in the catalog.
package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/minios-linux/polyglot/dictionary"
)

// Catalog entry kinds. They match the store's directory names.
const (
	KindPlugins = "plugins"
	KindThemes  = "themes"
)

// DefaultTimeout is used when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// maxBody caps manifest and dictionary responses.
const maxBody = 16 << 20

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// RemoteDictionary is one row of the remote catalog.
type RemoteDictionary struct {
	NamespaceID string
	Kind        string // KindPlugins or KindThemes
	Locale      string
	DictVersion string
	DownloadURL string
	Progress    int // 0-100, -1 when the manifest does not say
	Author      string
}

// Manifest is the decoded remote catalog document.
type Manifest struct {
	LastUpdated  string          `json:"lastUpdated"`
	Contributors []string        `json:"contributors"`
	Plugins      []ManifestEntry `json:"plugins"`
	Themes       []ManifestEntry `json:"themes"`
}

// ManifestEntry is one raw catalog row as it appears in the manifest.
type ManifestEntry struct {
	PluginID    string      `json:"pluginId"`
	ThemeName   string      `json:"themeName"`
	ID          string      `json:"id"`
	Locale      string      `json:"locale"`
	DictVersion looseString `json:"dictVersion"`
	Progress    *float64    `json:"progress"`
	DownloadURL string      `json:"downloadUrl"`
	Author      string      `json:"author"`
}

// looseString accepts a JSON string or number.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("dictVersion: %w", err)
	}
	*s = looseString(n.String())
	return nil
}

// Rewrite is a download URL prefix substitution.
type Rewrite struct {
	From string
	To   string
}

// Apply returns u with From replaced by To when u starts with From.
func (r Rewrite) Apply(u string) string {
	if r.From == "" || !strings.HasPrefix(u, r.From) {
		return u
	}
	return r.To + strings.TrimPrefix(u, r.From)
}

// Options configures a Client.
type Options struct {
	// ManifestURL is the well-known catalog location.
	ManifestURL string
	// Rewrites are applied in order; the first matching prefix wins.
	Rewrites []Rewrite
	Timeout  time.Duration
	// Proxy overrides HTTP_PROXY/HTTPS_PROXY when set.
	Proxy      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the remote catalog client. It is safe for concurrent use.
type Client struct {
	manifestURL string
	rewrites    []Rewrite
	http        *http.Client
	logger      *slog.Logger

	group singleflight.Group

	mu          sync.RWMutex
	catalog     []RemoteDictionary
	lastUpdated string
	fetchedAt   time.Time
}

// New creates a Client.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = makeHTTPClient(opts.Proxy, timeout)
	}
	return &Client{
		manifestURL: opts.ManifestURL,
		rewrites:    opts.Rewrites,
		http:        client,
		logger:      logger,
	}
}

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Manifest
// ---------------------------------------------------------------------------

// FetchManifest downloads the manifest and replaces the catalog.
//
// Concurrent calls share one in-flight request unless force is set. A
// failed fetch is logged and leaves an empty catalog; the error is not
// returned. The returned slice is the catalog after the call.
func (c *Client) FetchManifest(ctx context.Context, force bool) []RemoteDictionary {
	const key = "manifest"
	if force {
		c.group.Forget(key)
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		m, err := c.getManifest(ctx)
		if err != nil {
			c.logger.Warn("fetching manifest failed", "url", c.manifestURL, "err", err)
			c.setCatalog(nil, "")
			return []RemoteDictionary(nil), nil
		}
		entries := c.flatten(m)
		c.setCatalog(entries, m.LastUpdated)
		c.logger.Debug("manifest fetched", "url", c.manifestURL, "entries", len(entries))
		return entries, nil
	})

	entries, _ := v.([]RemoteDictionary)
	return cloneEntries(entries)
}

func (c *Client) getManifest(ctx context.Context) (*Manifest, error) {
	if c.manifestURL == "" {
		return nil, fmt.Errorf("no manifest URL configured")
	}
	body, err := c.get(ctx, c.manifestURL)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

func (c *Client) flatten(m *Manifest) []RemoteDictionary {
	out := make([]RemoteDictionary, 0, len(m.Plugins)+len(m.Themes))
	add := func(kind string, e ManifestEntry) {
		ns := e.PluginID
		if kind == KindThemes {
			ns = e.ThemeName
			if ns == "" {
				ns = e.ID
			}
		}
		if ns == "" || e.Locale == "" {
			c.logger.Debug("skipping incomplete manifest entry", "kind", kind, "namespace", ns, "locale", e.Locale)
			return
		}
		progress := -1
		if e.Progress != nil {
			progress = int(*e.Progress)
		}
		out = append(out, RemoteDictionary{
			NamespaceID: ns,
			Kind:        kind,
			Locale:      e.Locale,
			DictVersion: string(e.DictVersion),
			DownloadURL: c.rewrite(e.DownloadURL),
			Progress:    progress,
			Author:      e.Author,
		})
	}
	for _, e := range m.Plugins {
		add(KindPlugins, e)
	}
	for _, e := range m.Themes {
		add(KindThemes, e)
	}
	return out
}

func (c *Client) rewrite(u string) string {
	for _, r := range c.rewrites {
		if r.From != "" && strings.HasPrefix(u, r.From) {
			return r.Apply(u)
		}
	}
	return u
}

func (c *Client) setCatalog(entries []RemoteDictionary, lastUpdated string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = entries
	c.lastUpdated = lastUpdated
	c.fetchedAt = time.Now()
}

// Entries returns a copy of the whole catalog.
func (c *Client) Entries() []RemoteDictionary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneEntries(c.catalog)
}

// EntriesFor returns the plugin catalog rows for namespace.
func (c *Client) EntriesFor(namespace string) []RemoteDictionary {
	return c.filter(KindPlugins, namespace)
}

// EntriesForTheme returns the theme catalog rows for name.
func (c *Client) EntriesForTheme(name string) []RemoteDictionary {
	return c.filter(KindThemes, name)
}

func (c *Client) filter(kind, namespace string) []RemoteDictionary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []RemoteDictionary
	for _, e := range c.catalog {
		if e.Kind == kind && e.NamespaceID == namespace {
			out = append(out, e)
		}
	}
	return out
}

// LastUpdated returns the manifest's lastUpdated value and when the
// catalog was last replaced.
func (c *Client) LastUpdated() (string, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdated, c.fetchedAt
}

func cloneEntries(in []RemoteDictionary) []RemoteDictionary {
	if in == nil {
		return nil
	}
	out := make([]RemoteDictionary, len(in))
	copy(out, in)
	return out
}

// ---------------------------------------------------------------------------
// Download
// ---------------------------------------------------------------------------

// Download fetches and parses one dictionary. Unlike the other methods it
// returns an error: non-2xx statuses, malformed JSON and documents without
// $meta.locale are all failures.
func (c *Client) Download(ctx context.Context, rawURL string) (*dictionary.Document, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := dictionary.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	if !doc.IsObject() || doc.Meta.Locale == "" {
		return nil, fmt.Errorf("downloading %s: document has no $meta.locale", rawURL)
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s returned status %d: %s", rawURL, resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
