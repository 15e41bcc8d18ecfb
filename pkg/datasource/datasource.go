// Package datasource reads, creates and waits on remote datasources, the
// datasets synthesizers train on.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"synthkit/internal/logging"
	"synthkit/internal/poll"
)

var (
	// ErrNotAvailable reports a datasource that is not AVAILABLE when it must be.
	ErrNotAvailable = errors.New("datasource: not available")
	// ErrFailed reports a datasource whose preparation failed remotely.
	ErrFailed = errors.New("datasource: failed")
)

// DefaultPollInterval is the wait between availability checks.
const DefaultPollInterval = 10 * time.Second

// Transport is the subset of the HTTP transport the datasource client uses.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, payload any, out any) error
}

// Client reads and creates datasources.
type Client struct {
	transport Transport
	logger    *slog.Logger
	sleep     poll.Sleeper
}

// Option customizes the client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "datasource")
		}
	}
}

// WithSleeper replaces the wait between availability checks (tests).
func WithSleeper(sleeper poll.Sleeper) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleep = sleeper
		}
	}
}

// New wraps a transport.
func New(t Transport, opts ...Option) *Client {
	c := &Client{transport: t, logger: logging.NewNop(), sleep: poll.Sleep}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type metadataResponse struct {
	Columns []Column `json:"columns"`
}

// Get fetches a datasource and its column metadata.
func (c *Client) Get(ctx context.Context, uid string) (*DataSource, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, errors.New("datasource: uid is required")
	}
	var ds DataSource
	if err := c.transport.Get(ctx, "/datasource/"+uid, &ds); err != nil {
		return nil, fmt.Errorf("datasource: get %s: %w", uid, err)
	}
	var meta metadataResponse
	if err := c.transport.Get(ctx, "/datasource/"+uid+"/metadata", &meta); err != nil {
		return nil, fmt.Errorf("datasource: get %s metadata: %w", uid, err)
	}
	if ds.UID == "" {
		ds.UID = uid
	}
	ds.Columns = meta.Columns
	return &ds, nil
}

// List returns every datasource visible to the token. Column metadata is not fetched.
func (c *Client) List(ctx context.Context) ([]DataSource, error) {
	var out []DataSource
	if err := c.transport.Get(ctx, "/datasource", &out); err != nil {
		return nil, fmt.Errorf("datasource: list: %w", err)
	}
	return out, nil
}

// CreateRequest describes a new datasource.
type CreateRequest struct {
	Name         string
	DataType     Type
	ConnectorUID string
	// Config holds connector-specific fields merged into the payload, see MySQL.
	Config map[string]any
}

// MySQL builds the Config block of a MySQL-backed datasource. Either a query or a
// table selection may be given.
func MySQL(query string, tables map[string]any) map[string]any {
	cfg := map[string]any{}
	if q := strings.TrimSpace(query); q != "" {
		cfg["query"] = q
	}
	if len(tables) > 0 {
		cfg["tables"] = tables
	}
	return cfg
}

// Create registers a datasource. The service prepares it asynchronously; use
// WaitAvailable to block until it can be trained on.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*DataSource, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New("datasource: name is required")
	}
	dataType, err := ParseType(string(req.DataType))
	if err != nil {
		return nil, err
	}
	connectorUID := strings.TrimSpace(req.ConnectorUID)
	if connectorUID == "" {
		return nil, errors.New("datasource: connector uid is required")
	}

	payload := make(map[string]any, len(req.Config)+3)
	for k, v := range req.Config {
		payload[k] = v
	}
	payload["name"] = name
	payload["dataType"] = dataType
	payload["connector"] = map[string]string{"uid": connectorUID}

	var ds DataSource
	if err := c.transport.Post(ctx, "/datasource/", payload, &ds); err != nil {
		return nil, fmt.Errorf("datasource: create %q: %w", name, err)
	}
	c.logger.Info("datasource created",
		logging.String(logging.FieldUID, ds.UID),
		logging.String(logging.FieldState, string(ds.Status)),
	)
	return &ds, nil
}

// WaitAvailable polls the datasource until it is AVAILABLE or FAILED, or ctx ends.
func (c *Client) WaitAvailable(ctx context.Context, uid string, interval time.Duration) (*DataSource, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	var last *DataSource
	err := poll.Until(ctx, interval, c.sleep, func(ctx context.Context, _ int) (bool, error) {
		ds, err := c.Get(ctx, uid)
		if err != nil {
			return false, err
		}
		last = ds
		switch ds.Status {
		case StatusAvailable:
			return true, nil
		case StatusFailed:
			return false, fmt.Errorf("%w: %s", ErrFailed, uid)
		}
		c.logger.Info("Waiting for the datasource to become available...",
			logging.String(logging.FieldUID, uid),
			logging.String(logging.FieldState, string(ds.Status)),
		)
		return false, nil
	})
	if err != nil {
		return last, err
	}
	return last, nil
}

// RequireAvailable returns ErrNotAvailable unless ds is AVAILABLE.
func RequireAvailable(ds *DataSource) error {
	if ds == nil {
		return fmt.Errorf("%w: datasource is nil", ErrNotAvailable)
	}
	if ds.Status != StatusAvailable {
		return fmt.Errorf("%w: datasource %q has status %s", ErrNotAvailable, ds.UID, ds.Status)
	}
	return nil
}
