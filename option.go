package spanverify

import (
	"net/http"

	"go.opentelemetry.io/otel/sdk/resource"
)

type config struct {
	endpoint string
	client   *http.Client
	resource *resource.Resource
}

func newConfig(opts []Option) *config {
	cfg := &config{client: http.DefaultClient}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Option configures a CaptureExporter or a Capture.
type Option func(*config)

// WithForwardEndpoint makes the exporter POST every batch as JSON to url,
// typically the /api/v2/spans route of a trace receiver.
func WithForwardEndpoint(url string) Option {
	return func(c *config) {
		c.endpoint = url
	}
}

// WithHTTPClient sets the client used to forward spans.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		if client != nil {
			c.client = client
		}
	}
}

// WithResource sets the resource of the tracer provider built by NewCapture.
func WithResource(res *resource.Resource) Option {
	return func(c *config) {
		c.resource = res
	}
}
