package options

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// DefaultSubmitPath is the collector route readings are posted to.
const DefaultSubmitPath = "/submit-reading"

var _ IOptions = (*EndpointOptions)(nil)

// EndpointOptions describes where and how readings are submitted.
type EndpointOptions struct {
	// BaseURL is the scheme and host of the collector, e.g. http://192.168.1.10:8080.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// Path is appended to BaseURL.
	Path string `json:"path" mapstructure:"path"`

	// RequestTimeout bounds one whole exchange.
	RequestTimeout time.Duration `json:"request-timeout" mapstructure:"request-timeout"`

	// BufferCapacity is the number of response bytes kept per exchange.
	BufferCapacity int `json:"buffer-capacity" mapstructure:"buffer-capacity"`
}

// NewEndpointOptions creates an EndpointOptions object with default parameters.
func NewEndpointOptions() *EndpointOptions {
	return &EndpointOptions{
		BaseURL:        "http://127.0.0.1:8080",
		Path:           DefaultSubmitPath,
		RequestTimeout: 10 * time.Second,
		BufferCapacity: 100,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *EndpointOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	u, err := url.Parse(o.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("invalid --endpoint.base-url: %w", err))
	case u.Scheme != "http":
		errs = append(errs, fmt.Errorf("--endpoint.base-url must use the http scheme, got %q", u.Scheme))
	case u.Host == "":
		errs = append(errs, fmt.Errorf("--endpoint.base-url has no host"))
	}
	if !strings.HasPrefix(o.Path, "/") {
		errs = append(errs, fmt.Errorf("--endpoint.path must start with '/'"))
	}
	if o.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("--endpoint.request-timeout must be positive"))
	}
	if o.BufferCapacity <= 0 {
		errs = append(errs, fmt.Errorf("--endpoint.buffer-capacity must be positive"))
	}

	return errs
}

// AddFlags adds flags for EndpointOptions to the specified FlagSet.
func (o *EndpointOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.BaseURL, "endpoint.base-url", o.BaseURL, "Base URL (scheme and host) of the reading collector.")
	fs.StringVar(&o.Path, "endpoint.path", o.Path, "Submission path appended to the base URL.")
	fs.DurationVar(&o.RequestTimeout, "endpoint.request-timeout", o.RequestTimeout, "Timeout of one submission exchange.")
	fs.IntVar(&o.BufferCapacity, "endpoint.buffer-capacity", o.BufferCapacity, "Bytes of the response body kept per exchange; the rest is dropped.")
}

// URL returns the full submission URL.
func (o *EndpointOptions) URL() string {
	return strings.TrimRight(o.BaseURL, "/") + o.Path
}
