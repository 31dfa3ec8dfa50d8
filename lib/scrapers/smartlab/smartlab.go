package smartlab

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"bondradar-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("bondradar.lib.scrapers.smartlab")

const ListingURL = "https://smart-lab.ru/q/bonds/"

type Client struct {
	http *resty.Client
	url  string
}

type ClientOptions struct {
	// defaults to ListingURL
	Url string
	// defaults to 10 seconds, a hung fetch should surface as a
	// retryable transient to the delivery loop, not stall it
	Timeout time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Url == "" {
		opts.Url = ListingURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 10
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(opts.Timeout)

	telemetry.InstrumentResty(client, "scrapers/smartlab/http")

	return &Client{
		http: client,
		url:  opts.Url,
	}, nil
}

// FetchListing downloads the bond listing page and returns its raw
// markup. The caller only ever sees text or an error, transport details
// stay in here.
func (c *Client) FetchListing(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchListing")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch bond listing")
		return "", fmt.Errorf("fetch bond listing: %w", err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "bond listing returned an error status")
		return "", fmt.Errorf("fetch bond listing: status %s", res.Status())
	}

	return string(res.Body()), nil
}
