// Package lookup resolves a movie title to a normalized record through an
// OMDb-compatible HTTP API.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iliyamo/movieweb/internal/model"
)

const (
	DefaultBaseURL  = "http://www.omdbapi.com/"
	defaultTimeout  = 10 * time.Second
	defaultRate     = 5
	defaultCacheTTL = 24 * time.Hour
	cachePrefix     = "lookup:title:"
	maxBodyBytes    = 1 << 20
	userAgent       = "movieweb/1.0"
)

// Client performs title lookups. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	redis      *redis.Client
	cacheTTL   time.Duration
	logger     *logrus.Logger
}

// ClientConfig configures a Client. Zero values select the defaults.
type ClientConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	Rate     float64 // requests per second
	Burst    int
	Redis    *redis.Client // nil disables caching
	CacheTTL time.Duration
	Logger   *logrus.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Rate <= 0 {
		cfg.Rate = defaultRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.Rate)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter:  rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		redis:    cfg.Redis,
		cacheTTL: cfg.CacheTTL,
		logger:   cfg.Logger,
	}
}

// omdbResponse is the subset of the payload the client reads.
type omdbResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	ImdbRating string `json:"imdbRating"`
	Rating     string `json:"Rating"`
	Poster     string `json:"Poster"`
	ImdbID     string `json:"imdbID"`
}

// Lookup fetches the record for title. It returns ErrInvalidTitle,
// ErrNotFoundInLookup or a *LookupFailedError. Failures are never retried.
func (c *Client) Lookup(ctx context.Context, title string) (model.MovieRecord, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.MovieRecord{}, ErrInvalidTitle
	}
	log := c.logger.WithField("title", title)

	cacheKey := cachePrefix + strings.ToLower(title)
	if rec, ok := c.cached(ctx, cacheKey); ok {
		log.WithField("cached", true).Debug("lookup served from cache")
		return rec, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return model.MovieRecord{}, failed(title, err)
	}

	body, status, err := c.get(ctx, title)
	if err != nil {
		log.WithError(err).Warn("lookup request failed")
		return model.MovieRecord{}, failed(title, err)
	}
	log = log.WithField("status", status)
	if status < 200 || status > 299 {
		log.Warn("lookup returned non-2xx status")
		return model.MovieRecord{}, failed(title, fmt.Errorf("unexpected status %d", status))
	}

	var payload omdbResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		log.WithError(err).Warn("lookup returned undecodable body")
		return model.MovieRecord{}, failed(title, fmt.Errorf("decode response: %w", err))
	}
	if strings.EqualFold(payload.Response, "False") {
		log.WithField("reason", payload.Error).Info("title not found")
		return model.MovieRecord{}, ErrNotFoundInLookup
	}

	rec, err := normalize(payload)
	if err != nil {
		log.WithError(err).Warn("lookup returned incomplete record")
		return model.MovieRecord{}, failed(title, err)
	}
	log.WithFields(logrus.Fields{"cached": false, "imdb_id": rec.ImdbID}).Info("lookup succeeded")
	c.store(ctx, cacheKey, rec)
	return rec, nil
}

func (c *Client) get(ctx context.Context, title string) ([]byte, int, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, 0, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("apikey", c.apiKey)
	q.Set("t", title)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// normalize maps the payload to a record. The service reports year
// ranges such as "2010–2013" for series; only the first year is kept.
func normalize(p omdbResponse) (model.MovieRecord, error) {
	title := strings.TrimSpace(p.Title)
	year := strings.TrimSpace(p.Year)
	if len(year) > 4 {
		year = year[:4]
	}
	if title == "" || !model.ValidYear(year) {
		return model.MovieRecord{}, errors.New("response is missing title or year")
	}
	rating := strings.TrimSpace(p.ImdbRating)
	if rating == "" {
		rating = strings.TrimSpace(p.Rating)
	}
	if rating == "" {
		rating = model.DefaultRating
	}
	return model.MovieRecord{
		Title:  title,
		Year:   year,
		Rating: rating,
		Poster: strings.TrimSpace(p.Poster),
		ImdbID: strings.TrimSpace(p.ImdbID),
	}, nil
}

func (c *Client) cached(ctx context.Context, key string) (model.MovieRecord, bool) {
	if c.redis == nil {
		return model.MovieRecord{}, false
	}
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).Warn("lookup cache read failed")
		}
		return model.MovieRecord{}, false
	}
	var rec model.MovieRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		c.logger.WithError(err).Warn("lookup cache entry is corrupt")
		return model.MovieRecord{}, false
	}
	return rec, true
}

func (c *Client) store(ctx context.Context, key string, rec model.MovieRecord) {
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		c.logger.WithError(err).Warn("lookup cache encode failed")
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.cacheTTL).Err(); err != nil {
		c.logger.WithError(err).Warn("lookup cache write failed")
	}
}
