package randomuser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"randomuser-page/internal/domain"
)

// DefaultBaseURL is the public random user service.
const DefaultBaseURL = "https://randomuser.me"

// ErrFetch marks every failure of the fetch-and-decode pipeline: transport
// errors, error status codes and bodies that are not the expected JSON.
var ErrFetch = errors.New("fetch random users")

// Fetcher retrieves synthetic users from the random user service.
type Fetcher interface {
	FetchUsers(ctx context.Context, limit int) ([]domain.User, error)
	FetchPage(ctx context.Context, limit int) (*Page, error)
}

// Info is the service's metadata block.
type Info struct {
	Seed    string `json:"seed"`
	Results int    `json:"results"`
	Page    int    `json:"page"`
	Version string `json:"version"`
}

// Page is one decoded response.
type Page struct {
	Users []domain.User
	Info  Info
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type client struct {
	baseURL *url.URL
	http    *http.Client
}

func NewClient(cfg Config) (Fetcher, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", base.Scheme)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &client{
		baseURL: base,
		http:    httpClient,
	}, nil
}

func (c *client) FetchUsers(ctx context.Context, limit int) ([]domain.User, error) {
	page, err := c.FetchPage(ctx, limit)
	if err != nil {
		return nil, err
	}
	return page.Users, nil
}

func (c *client) FetchPage(ctx context.Context, limit int) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.usersURL(limit), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrFetch, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: do request: %w", ErrFetch, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrFetch, resp.Status)
	}

	var body struct {
		Results *[]domain.User `json:"results"`
		Info    Info           `json:"info"`
		Error   string         `json:"error"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode body: %w", ErrFetch, err)
	}
	// the body must hold exactly one JSON value
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON body", ErrFetch)
	}
	if body.Results == nil {
		if body.Error != "" {
			return nil, fmt.Errorf("%w: service error: %s", ErrFetch, body.Error)
		}
		return nil, fmt.Errorf("%w: results field missing", ErrFetch)
	}

	return &Page{
		Users: *body.Results,
		Info:  body.Info,
	}, nil
}

// usersURL embeds limit verbatim; zero and negative values are not rejected.
func (c *client) usersURL(limit int) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/api/"
	q := u.Query()
	q.Set("results", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String()
}
