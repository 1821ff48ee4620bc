package flexdb

import (
	"errors"
	"net/http"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/flexdb/flexdb-go/internal/httpx"
)

// DefaultEndpoint is used when Config.Endpoint is empty.
const DefaultEndpoint = "https://flexdb.co/api/v1"

// Config holds the credentials and service location for a Client.
type Config struct {
	// APIKey is the account-level key. Optional; stores created without it are anonymous.
	APIKey string `yaml:"api_key" json:"-"`
	// Endpoint is the service base URL, e.g. "https://flexdb.co/api/v1".
	Endpoint string `yaml:"endpoint" json:"endpoint,omitempty"`
}

// withDefaults returns a copy of c with defaults resolved.
func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	return c
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Endpoint, validation.Required, validation.By(absoluteHTTPURL)),
	)
}

func absoluteHTTPURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

// LookupPolicy controls how GetStore reports failures other than not-found.
type LookupPolicy int

const (
	// FailuresAsAbsent makes GetStore report every failure as "no store".
	FailuresAsAbsent LookupPolicy = iota
	// FailuresAsErrors makes GetStore return failures as errors; only not-found is absent.
	FailuresAsErrors
)

type options struct {
	transport  Transport
	httpClient *http.Client
	userAgent  string
	logger     hclog.Logger
	lookup     LookupPolicy
}

// Option configures a Client.
type Option func(*options)

// WithTransport replaces the HTTP transport, e.g. with a stub in tests.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithHTTPClient sets the http.Client used by the default transport.
// Timeouts configured on it apply to every call.
func WithHTTPClient(h *http.Client) Option {
	return func(o *options) {
		o.httpClient = h
	}
}

// WithUserAgent sets the User-Agent sent by the default transport.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(logger hclog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLookupPolicy sets how GetStore treats failures.
func WithLookupPolicy(p LookupPolicy) Option {
	return func(o *options) {
		o.lookup = p
	}
}

func (o *options) buildTransport() Transport {
	if o.transport != nil {
		return o.transport
	}
	return httpx.NewClient(
		httpx.WithHTTPClient(o.httpClient),
		httpx.WithUserAgent(o.userAgent),
	)
}
