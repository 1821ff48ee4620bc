package flexdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
)

// Client is the root handle for a FlexDB service.
// It is immutable after construction and safe for concurrent use.
type Client struct {
	config     Config
	dispatcher *dispatcher
	lookup     LookupPolicy
}

// New builds a Client. Defaults are resolved here: an empty Endpoint becomes DefaultEndpoint.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("flexdb: invalid config: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Client{
		config: cfg,
		dispatcher: &dispatcher{
			baseURL:   cfg.Endpoint,
			auth:      authenticator{apiKey: cfg.APIKey},
			transport: o.buildTransport(),
			logger:    logger,
		},
		lookup: o.lookup,
	}, nil
}

// Endpoint returns the resolved service base URL.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// CreateStore creates a store named name under the account key (or anonymously without one).
// Service errors such as a 409 for a duplicate name are returned as *HTTPError.
func (c *Client) CreateStore(ctx context.Context, name string) (*Store, error) {
	raw, err := c.dispatcher.dispatch(ctx, http.MethodPost, "/stores", map[string]string{"name": name}, Account)
	if err != nil {
		return nil, err
	}
	return newStore(c, raw)
}

// GetStore fetches a store by name. It returns (nil, nil) when the store does not exist.
// Under the default FailuresAsAbsent policy every other failure is reported the same way;
// use WithLookupPolicy(FailuresAsErrors) or LookupStore to tell them apart.
func (c *Client) GetStore(ctx context.Context, name string) (*Store, error) {
	res := c.LookupStore(ctx, name)
	switch res.Status {
	case Found:
		return res.Store, nil
	case Failed:
		if c.lookup == FailuresAsErrors {
			return nil, res.Err
		}
	}
	return nil, nil
}

// LookupStatus classifies the outcome of LookupStore.
type LookupStatus int

const (
	NotFound LookupStatus = iota
	Found
	Failed
)

func (s LookupStatus) String() string {
	switch s {
	case Found:
		return "found"
	case Failed:
		return "failed"
	default:
		return "not found"
	}
}

// StoreLookup is the typed result of LookupStore.
type StoreLookup struct {
	Status LookupStatus
	Store  *Store
	Err    error
}

// LookupStore fetches a store by name and reports found, not found, or failed.
func (c *Client) LookupStore(ctx context.Context, name string) StoreLookup {
	raw, err := c.dispatcher.dispatch(ctx, http.MethodGet, "/stores/"+name, nil, Account)
	if err != nil {
		return StoreLookup{Status: Failed, Err: err}
	}
	if raw == nil {
		return StoreLookup{Status: NotFound}
	}
	store, err := newStore(c, raw)
	if err != nil {
		return StoreLookup{Status: Failed, Err: err}
	}
	return StoreLookup{Status: Found, Store: store}
}

// GetStores lists the stores visible to the account key.
func (c *Client) GetStores(ctx context.Context) ([]*Store, error) {
	raw, err := c.dispatcher.dispatch(ctx, http.MethodGet, "/stores", nil, Account)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("flexdb: decode store list: %w", err)
	}
	stores := make([]*Store, 0, len(items))
	for _, item := range items {
		store, err := newStore(c, item)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	return stores, nil
}

// EnsureStoreExists returns the store named name, creating it when GetStore finds none.
// The two steps are not atomic: a concurrent creator can win the race, in which case
// the *HTTPError from CreateStore (typically 409) is returned.
func (c *Client) EnsureStoreExists(ctx context.Context, name string) (*Store, error) {
	store, err := c.GetStore(ctx, name)
	if err != nil {
		return nil, err
	}
	if store != nil {
		return store, nil
	}
	return c.CreateStore(ctx, name)
}
