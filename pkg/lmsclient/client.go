// Package lmsclient fetches course collections from a remote LMS REST backend.
package lmsclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/pkg/httpx"
)

const fetchPageSize = 100

// Session carries the caller's credentials explicitly instead of ambient storage.
type Session struct {
	Token string
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
}

// Client is a thin wrapper over the backend's course endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	retry   httpx.RetryConfig
	logger  *zap.Logger
}

// New constructs a Client. A nil httpClient gets one with the configured timeout.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	retry := httpx.DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		retry:   retry,
		logger:  logger,
	}
}

type pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

type coursePage struct {
	Data       []Course    `json:"data"`
	Pagination *pagination `json:"pagination"`
}

// ListCourses walks every page of GET /courses and returns the whole collection
// in server order.
func (c *Client) ListCourses(ctx context.Context, session Session) ([]Course, error) {
	var all []Course
	for page := 1; ; page++ {
		var body coursePage
		if err := httpx.DoJSON(ctx, c.http, c.coursesRequest(session, page), &body, c.retry); err != nil {
			return nil, fmt.Errorf("fetch courses page %d: %w", page, err)
		}
		all = append(all, body.Data...)
		c.logger.Debug("fetched course page", zap.Int("page", page), zap.Int("count", len(body.Data)))

		if body.Pagination == nil || len(body.Data) == 0 || len(all) >= body.Pagination.TotalCount {
			break
		}
	}
	return all, nil
}

func (c *Client) coursesRequest(session Session, page int) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		q := url.Values{}
		q.Set("status", "ALL")
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(fetchPageSize))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/courses?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if session.Token != "" {
			req.Header.Set("Authorization", "Bearer "+session.Token)
		}
		return req, nil
	}
}
