package geoip

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"socialguard/pkg/clients"
	"socialguard/pkg/logging"
)

const (
	DefaultIPAPIBaseURL = "http://ip-api.com/json"
	DefaultIPAPITimeout = 3 * time.Second
)

type ipAPIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	City    string `json:"city"`
	Country string `json:"country"`
	ISP     string `json:"isp"`
}

// IPAPIClient resolves addresses through the ip-api.com JSON endpoint.
type IPAPIClient struct {
	baseURL      string
	client       *http.Client
	httpExecutor failsafe.Executor[*http.Response]
	logger       logging.Logger
}

type IPAPIOption func(*IPAPIClient)

func WithIPAPIBaseURL(baseURL string) IPAPIOption {
	return func(c *IPAPIClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithIPAPIHTTPClient(httpClient *http.Client) IPAPIOption {
	return func(c *IPAPIClient) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

func WithIPAPIExecutor(executor failsafe.Executor[*http.Response]) IPAPIOption {
	return func(c *IPAPIClient) {
		c.httpExecutor = executor
	}
}

func WithIPAPILogger(logger logging.Logger) IPAPIOption {
	return func(c *IPAPIClient) {
		c.logger = logger
	}
}

func NewIPAPIClient(opts ...IPAPIOption) *IPAPIClient {
	c := &IPAPIClient{
		baseURL: DefaultIPAPIBaseURL,
		client:  clients.NewHTTPClient(DefaultIPAPITimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve makes one request; every failure mode yields Unknown.
func (c *IPAPIClient) Resolve(ctx context.Context, ip string) Location {
	addr := parsePublicIP(ip)
	if addr == nil {
		return Unknown
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(addr.String()), nil)
	if err != nil {
		return Unknown
	}

	resp, err := clients.ExecuteHTTP(ctx, c.httpExecutor, func() (*http.Response, error) {
		return c.client.Do(req)
	})
	if err != nil {
		c.debug(ip, "request failed", err)
		return Unknown
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.debug(ip, "unexpected status "+resp.Status, nil)
		return Unknown
	}

	var decoded ipAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&decoded); err != nil {
		c.debug(ip, "malformed response", err)
		return Unknown
	}
	if decoded.Status != "success" {
		c.debug(ip, "lookup failed: "+decoded.Message, nil)
		return Unknown
	}

	return Location{City: decoded.City, Country: decoded.Country, ISP: decoded.ISP}.normalize()
}

func (c *IPAPIClient) debug(ip, msg string, err error) {
	if c.logger == nil {
		return
	}
	entry := c.logger.WithField("ip", ip)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("geo lookup: " + msg)
}
