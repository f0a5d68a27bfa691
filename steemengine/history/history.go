// Package history implements the HTTP transport for the SteemEngine /
// HiveEngine account-history API.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Defaults for the SteemEngine history endpoint.
const (
	DefaultHostname = "api.steem-engine.com"
	DefaultPort     = 443
	DefaultPath     = "accounts/history"
	DefaultTimeout  = 120 * time.Second

	// DefaultLimit is applied when a query does not set a limit.
	DefaultLimit = 100
)

// Options configure the history endpoint. The zero value is completed with
// the defaults above.
type Options struct {
	Hostname string
	Port     int
	// Insecure switches the transport to plain HTTP. Default is HTTPS.
	Insecure bool
	Username string
	Password string
	Timeout  time.Duration
	Path     string
}

func (o Options) withDefaults() Options {
	if o.Hostname == "" {
		o.Hostname = DefaultHostname
	}
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.Path == "" {
		o.Path = DefaultPath
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	o.Path = strings.TrimPrefix(o.Path, "/")
	return o
}

// URL returns the endpoint URL in the form scheme://host:port/path.
func (o Options) URL() string {
	scheme := "https"
	if o.Insecure {
		scheme = "http"
	}
	o = o.withDefaults()
	return fmt.Sprintf("%s://%s:%d/%s", scheme, o.Hostname, o.Port, o.Path)
}

// FromURL parses scheme://[user:pass@]host[:port]/path into Options.
func FromURL(raw string) (Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Options{}, fmt.Errorf("parse history url: %w", err)
	}
	o := Options{
		Hostname: u.Hostname(),
		Insecure: u.Scheme == "http",
		Path:     u.Path,
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Options{}, fmt.Errorf("parse history port: %w", err)
		}
		o.Port = port
	} else if o.Insecure {
		o.Port = 80
	}
	if u.User != nil {
		o.Username = u.User.Username()
		o.Password, _ = u.User.Password()
	}
	return o, nil
}

// Client queries a SteemEngine history node over plain HTTP GET.
type Client struct {
	Endpoint string

	username string
	password string
	http     *http.Client
}

// New returns a Client for the given endpoint options.
func New(opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		Endpoint: opts.URL(),
		username: opts.Username,
		password: opts.Password,
		http:     &http.Client{Timeout: opts.Timeout},
	}
}

// Query filters an account-history request.
type Query struct {
	Account string
	// Symbol restricts the history to one token. Empty means all tokens.
	Symbol string
	Limit  int
	Offset int
	// Type is either "user" or "contract". Defaults to "user".
	Type string
}

// GetHistory fetches the transaction history for an account and returns the
// raw transaction rows. Transport and decode errors propagate as-is; there is
// no retry.
func (c *Client) GetHistory(ctx context.Context, q Query) ([]json.RawMessage, error) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Type == "" {
		q.Type = "user"
	}

	params := url.Values{}
	params.Set("account", q.Account)
	if q.Symbol != "" {
		params.Set("symbol", strings.ToUpper(q.Symbol))
	}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("type", q.Type)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create history request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read history response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history request failed with status %d: %s", resp.StatusCode, body)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode history response: %w", err)
	}
	return rows, nil
}
