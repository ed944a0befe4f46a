/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package phrase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/acronis/phrase-migrate/httpclient"
	"github.com/acronis/phrase-migrate/log"
	"github.com/acronis/phrase-migrate/lrucache"
)

// Request types reported in HTTP client logs and metrics.
const (
	RequestTypeListLocales    = "phrase.list_locales"
	RequestTypeCreateKey      = "phrase.create_key"
	RequestTypeSetTranslation = "phrase.set_translation"
)

// AuthScheme is the Authorization header scheme of Phrase access tokens.
const AuthScheme = "token"

// LocalesCacheName labels the project locales cache in metrics.
const LocalesCacheName = "phrase_locales"

// ClientConfig configures Client.
type ClientConfig struct {
	BaseURL         string
	PerPage         int
	LocaleCacheSize int
}

// Locale is a project locale.
type Locale struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Default bool   `json:"default"`
	Main    bool   `json:"main"`
}

// Key is a translation key.
type Key struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Translation is a key's content in one locale.
type Translation struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// ClientOpts represents options for NewClientWithOpts.
type ClientOpts struct {
	Logger log.FieldLogger

	// LocalesCacheMetrics collects statistics of the project locales cache. Metrics are disabled if nil.
	LocalesCacheMetrics lrucache.MetricsCollector
}

// Client calls the Phrase API. Authorization, retries and rate limiting are up to the given *http.Client.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	perPage    int
	httpClient *http.Client
	logger     log.FieldLogger
	locales    *lrucache.LRUCache[string, map[string]string]
}

// NewClient creates a new Client.
func NewClient(cfg ClientConfig, httpClient *http.Client, logger log.FieldLogger) (*Client, error) {
	return NewClientWithOpts(cfg, httpClient, ClientOpts{Logger: logger})
}

// NewClientWithOpts creates a new Client with the given options.
func NewClientWithOpts(cfg ClientConfig, httpClient *http.Client, opts ClientOpts) (*Client, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if cfg.PerPage <= 0 || cfg.PerPage > MaxPerPage {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.LocaleCacheSize <= 0 {
		cfg.LocaleCacheSize = DefaultLocaleCacheSize
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	locales, err := lrucache.New[string, map[string]string](cfg.LocaleCacheSize, opts.LocalesCacheMetrics)
	if err != nil {
		return nil, fmt.Errorf("create locales cache: %w", err)
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		perPage:    cfg.PerPage,
		httpClient: httpClient,
		logger:     logger,
		locales:    locales,
	}, nil
}

func (c *Client) projectURL(projectID, path string) string {
	return c.baseURL + "/projects/" + url.PathEscape(projectID) + path
}

// ListLocales returns all locales of the project, following pagination until a short page.
func (c *Client) ListLocales(ctx context.Context, projectID string) ([]Locale, error) {
	ctx = httpclient.NewContextWithRequestType(ctx, RequestTypeListLocales)
	var all []Locale
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(c.perPage))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.projectURL(projectID, "/locales")+"?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", ContentTypeAppJSON)
		var locales []Locale
		if err = DoRequestAndUnmarshalJSON(c.httpClient, req, &locales, c.logger); err != nil {
			return nil, fmt.Errorf("list locales of project %s: %w", projectID, err)
		}
		all = append(all, locales...)
		if len(locales) < c.perPage {
			return all, nil
		}
	}
}

// LocaleIDs returns the project's locale code to ID map.
// The map is loaded once per project and shared, callers must not modify it.
func (c *Client) LocaleIDs(ctx context.Context, projectID string) (map[string]string, error) {
	return c.locales.GetOrLoad(projectID, func(projectID string) (map[string]string, error) {
		locales, err := c.ListLocales(ctx, projectID)
		if err != nil {
			return nil, err
		}
		ids := make(map[string]string, len(locales))
		for _, l := range locales {
			ids[l.Code] = l.ID
		}
		c.logger.Info("project locales loaded", log.String("project_id", projectID), log.Int("locales", len(ids)))
		return ids, nil
	})
}

// CreateKey creates a key in the project. ErrKeyExists is returned (wrapped) if the name is taken.
func (c *Client) CreateKey(ctx context.Context, projectID, name string) (Key, error) {
	ctx = httpclient.NewContextWithRequestType(ctx, RequestTypeCreateKey)
	req, err := NewJSONRequest(ctx, http.MethodPost, c.projectURL(projectID, "/keys"), map[string]string{"name": name})
	if err != nil {
		return Key{}, fmt.Errorf("create request: %w", err)
	}
	var key Key
	if err = DoRequestAndUnmarshalJSON(c.httpClient, req, &key, c.logger); err != nil {
		if StatusCode(err) == http.StatusUnprocessableEntity {
			return Key{}, fmt.Errorf("create key %q: %w: %w", name, ErrKeyExists, err)
		}
		return Key{}, fmt.Errorf("create key %q: %w", name, err)
	}
	if key.Name == "" {
		key.Name = name
	}
	return key, nil
}

// SetTranslation sets the content of the key in the locale.
// Repeating the call leaves the same state, so it is retried on server errors.
func (c *Client) SetTranslation(ctx context.Context, projectID, keyID, localeID, content string) error {
	ctx = httpclient.NewContextWithRequestType(ctx, RequestTypeSetTranslation)
	ctx = httpclient.NewContextWithIdempotentHint(ctx, true)
	req, err := NewJSONRequest(ctx, http.MethodPost, c.projectURL(projectID, "/translations"), map[string]string{
		"key_id":    keyID,
		"locale_id": localeID,
		"content":   content,
	})
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	var tr Translation
	if err = DoRequestAndUnmarshalJSON(c.httpClient, req, &tr, c.logger); err != nil {
		return fmt.Errorf("set translation of key %s in locale %s: %w", keyID, localeID, err)
	}
	return nil
}
