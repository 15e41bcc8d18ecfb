// Package connector manages the stored credentials the service uses to reach
// the data behind a datasource.
package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"synthkit/internal/logging"
)

// Type identifies the storage a connector points at.
type Type string

const (
	TypeAWSS3      Type = "aws-s3"
	TypeGCS        Type = "gcs"
	TypeAzureBlob  Type = "azure-blob"
	TypeAzureSQL   Type = "azure-sql"
	TypeFile       Type = "file"
	TypeMySQL      Type = "mysql"
	TypePostgreSQL Type = "postgresql"
	TypeSnowflake  Type = "snowflake"
	TypeBigQuery   Type = "bigquery"
)

var knownTypes = map[Type]struct{}{
	TypeAWSS3:      {},
	TypeGCS:        {},
	TypeAzureBlob:  {},
	TypeAzureSQL:   {},
	TypeFile:       {},
	TypeMySQL:      {},
	TypePostgreSQL: {},
	TypeSnowflake:  {},
	TypeBigQuery:   {},
}

// ParseType normalizes a connector type name.
func ParseType(raw string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownTypes[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, raw)
	}
	return t, nil
}

// Types lists the supported connector types in name order.
func Types() []Type {
	out := make([]Type, 0, len(knownTypes))
	for t := range knownTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	// ErrInvalidType reports an unsupported connector type.
	ErrInvalidType = errors.New("connector: invalid type")
	// ErrInvalidCredentials reports an empty or malformed credentials block.
	ErrInvalidCredentials = errors.New("connector: invalid credentials")
)

// Connector is a stored credential set as returned by the service.
type Connector struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// CreateRequest describes a new connector.
type CreateRequest struct {
	Type        Type
	Name        string
	Credentials map[string]any
}

type createPayload struct {
	Type        Type           `json:"type"`
	Name        string         `json:"name"`
	Credentials map[string]any `json:"credentials"`
}

// Transport is the subset of the HTTP transport the connector client uses.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, payload any, out any) error
}

// Client reads and creates connectors.
type Client struct {
	transport Transport
	logger    *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "connector")
		}
	}
}

// New wraps a transport.
func New(t Transport, opts ...Option) *Client {
	c := &Client{transport: t, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches a connector by uid.
func (c *Client) Get(ctx context.Context, uid string) (*Connector, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, errors.New("connector: uid is required")
	}
	var out Connector
	if err := c.transport.Get(ctx, "/connector/"+uid, &out); err != nil {
		return nil, fmt.Errorf("connector: get %s: %w", uid, err)
	}
	return &out, nil
}

// List returns every connector visible to the token.
func (c *Client) List(ctx context.Context) ([]Connector, error) {
	var out []Connector
	if err := c.transport.Get(ctx, "/connector", &out); err != nil {
		return nil, fmt.Errorf("connector: list: %w", err)
	}
	return out, nil
}

// Create registers a new connector and returns it as stored.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*Connector, error) {
	connType, err := ParseType(string(req.Type))
	if err != nil {
		return nil, err
	}
	if len(req.Credentials) == 0 {
		return nil, fmt.Errorf("%w: credentials are required for %s", ErrInvalidCredentials, connType)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = string(connType)
	}

	var out Connector
	payload := createPayload{Type: connType, Name: name, Credentials: req.Credentials}
	if err := c.transport.Post(ctx, "/connector/", payload, &out); err != nil {
		return nil, fmt.Errorf("connector: create %s: %w", connType, err)
	}
	c.logger.Info("connector created",
		logging.String(logging.FieldUID, out.UID),
		logging.String("type", string(connType)),
	)
	return &out, nil
}
