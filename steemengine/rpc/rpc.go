// Package rpc implements the JSON-RPC transport for SteemEngine/HiveEngine
// contract table queries (find/findone) and blockchain-info lookups.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	jrpc "github.com/AdamSLevy/jsonrpc2/v14"
)

// Defaults for the SteemEngine contracts endpoint.
const (
	DefaultHostname = "api.steem-engine.com"
	DefaultPort     = 443
	DefaultPath     = "/rpc/contracts"
	DefaultTimeout  = 45 * time.Second

	// DefaultFindLimit is applied when a Find query does not set a limit.
	DefaultFindLimit = 1000
)

// Options configure the endpoint a Client talks to. The zero value is
// completed with the defaults above.
type Options struct {
	Hostname string
	Port     int
	// Insecure switches the transport to plain HTTP. Default is HTTPS.
	Insecure bool
	Username string
	Password string
	Timeout  time.Duration
	// Path is the JSON-RPC path on the host, e.g. /rpc/contracts or
	// /rpc/blockchain.
	Path string
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
	if !strings.HasPrefix(o.Path, "/") {
		o.Path = "/" + o.Path
	}
	return o
}

// URL returns the endpoint URL in the form scheme://host:port/path.
func (o Options) URL() string {
	scheme := "https"
	if o.Insecure {
		scheme = "http"
	}
	o = o.withDefaults()
	return fmt.Sprintf("%s://%s:%d%s", scheme, o.Hostname, o.Port, o.Path)
}

// FromURL parses scheme://[user:pass@]host[:port]/path into Options.
func FromURL(raw string) (Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Options{}, fmt.Errorf("parse endpoint url: %w", err)
	}
	o := Options{
		Hostname: u.Hostname(),
		Insecure: u.Scheme == "http",
		Path:     u.Path,
	}
	if p := u.Port(); p != "" {
		if _, err := fmt.Sscanf(p, "%d", &o.Port); err != nil {
			return Options{}, fmt.Errorf("parse endpoint port: %w", err)
		}
	} else if o.Insecure {
		o.Port = 80
	}
	if u.User != nil {
		o.Username = u.User.Username()
		o.Password, _ = u.User.Password()
	}
	return o, nil
}

// Client makes JSON-RPC requests to a SteemEngine-compatible node. Client
// embeds a jsonrpc2.Client, and thus also the http.Client. Use the embedded
// client's BasicAuth settings for authentication and the http.Client's
// transport settings to configure TLS.
type Client struct {
	Endpoint string
	jrpc.Client
}

// New returns a Client for the given endpoint options.
func New(opts Options) *Client {
	opts = opts.withDefaults()
	c := &Client{Endpoint: opts.URL()}
	c.Timeout = opts.Timeout
	if opts.Username != "" {
		c.BasicAuth = true
		c.User = opts.Username
		c.Password = opts.Password
	}
	return c
}

// Request makes a JSON-RPC request against the configured endpoint.
func (c *Client) Request(ctx context.Context, method string, params, result any) error {
	return c.Client.Request(ctx, c.Endpoint, method, params, result)
}

// Index selects a contract table index for a find query.
type Index struct {
	Index      string `json:"index"`
	Descending bool   `json:"descending"`
}

// FindQuery describes a contract table query for the find method.
type FindQuery struct {
	Contract string         `json:"contract"`
	Table    string         `json:"table"`
	Query    map[string]any `json:"query"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
	Indexes  []Index        `json:"indexes"`
}

// Find queries a contract table and returns the raw matching rows.
//
// A JSON null result decodes to a nil slice, while an empty array decodes to
// an empty non-nil slice. Callers depend on this distinction to tell a failed
// query apart from a legitimately empty match set.
func (c *Client) Find(ctx context.Context, q FindQuery) ([]json.RawMessage, error) {
	if q.Query == nil {
		q.Query = map[string]any{}
	}
	if q.Limit == 0 {
		q.Limit = DefaultFindLimit
	}
	if q.Indexes == nil {
		q.Indexes = []Index{}
	}
	var rows []json.RawMessage
	if err := c.Request(ctx, "find", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FindOne queries a contract table for a single row. A null response (symbol
// unknown, no matching row) returns nil with no error.
func (c *Client) FindOne(ctx context.Context, contract, table string, query map[string]any) (json.RawMessage, error) {
	if query == nil {
		query = map[string]any{}
	}
	params := struct {
		Contract string         `json:"contract"`
		Table    string         `json:"table"`
		Query    map[string]any `json:"query"`
	}{contract, table, query}

	var row json.RawMessage
	if err := c.Request(ctx, "findone", params, &row); err != nil {
		return nil, err
	}
	if isJSONNull(row) {
		return nil, nil
	}
	return row, nil
}

// GetTransactionInfo looks up an on-chain sidechain transaction by id. Meant
// for clients configured against the blockchain path (e.g. /rpc/blockchain).
// A null response returns nil with no error.
func (c *Client) GetTransactionInfo(ctx context.Context, txid string) (json.RawMessage, error) {
	params := struct {
		TxID string `json:"txid"`
	}{txid}

	var row json.RawMessage
	if err := c.Request(ctx, "getTransactionInfo", params, &row); err != nil {
		return nil, err
	}
	if isJSONNull(row) {
		return nil, nil
	}
	return row, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
