// Package client talks to the crisprs HTTP service.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/coronin/Crisprs/api"
	"github.com/coronin/Crisprs/codec"
)

const maxLineBytes = 64 << 20

// ErrNotFound is returned when the service reports a missing site.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client is a service client. It is safe for concurrent use.
type Client struct {
	client  *resty.Client
	baseURL string
}

// Option configures a Client.
type Option func(*resty.Client)

// WithTimeout bounds each request, including streamed searches.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithRetries retries failed idempotent requests n times.
func WithRetries(n int) Option {
	return func(c *resty.Client) { c.SetRetryCount(n) }
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(codec.Default.Marshal).
		SetJSONUnmarshaler(codec.Default.Unmarshal)
	for _, opt := range opts {
		opt(rc)
	}
	return &Client{client: rc, baseURL: baseURL}
}

// Health checks that the service is up.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, api.PathHealth, nil, nil)
	return err
}

// Index returns the metadata of the served index.
func (c *Client) Index(ctx context.Context) (api.IndexInfo, error) {
	var info api.IndexInfo
	_, err := c.get(ctx, api.PathIndex, nil, &info)
	return info, err
}

// Site returns the site with the given id.
func (c *Client) Site(ctx context.Context, id uint64) (api.Site, error) {
	var site api.Site
	_, err := c.get(ctx, api.PathSites+"/"+strconv.FormatUint(id, 10), nil, &site)
	return site, err
}

// Sites returns the sites with ids start..start+count-1.
func (c *Client) Sites(ctx context.Context, start, count uint64) ([]api.Site, error) {
	var sites []api.Site
	params := map[string]string{
		"start": strconv.FormatUint(start, 10),
		"count": strconv.FormatUint(count, 10),
	}
	_, err := c.get(ctx, api.PathSites, params, &sites)
	return sites, err
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) (*resty.Response, error) {
	var apiErr api.ErrorResponse
	req := c.client.R().SetContext(ctx).SetError(&apiErr).SetQueryParams(params)
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, err
	}
	return resp, checkResponse(resp.StatusCode(), apiErr.Error, resp.String())
}

// FindOffTargets streams the results of req as the service produces them. Per-query
// failures arrive as results with Error set; the iterator's error reports transport
// and protocol failures.
func (c *Client) FindOffTargets(ctx context.Context, req api.OffTargetRequest) iter.Seq2[api.Result, error] {
	return func(yield func(api.Result, error) bool) {
		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(req).
			SetHeader("Accept", api.ContentTypeNDJSON).
			SetDoNotParseResponse(true).
			Post(api.PathOffTargets)
		if err != nil {
			yield(api.Result{}, err)
			return
		}
		body := resp.RawBody()
		defer body.Close()

		if resp.StatusCode() != http.StatusOK {
			var apiErr api.ErrorResponse
			raw, _ := io.ReadAll(io.LimitReader(body, 1<<20))
			_ = codec.Default.Unmarshal(raw, &apiErr)
			yield(api.Result{}, checkResponse(resp.StatusCode(), apiErr.Error, ""))
			return
		}

		sc := bufio.NewScanner(body)
		sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
		for sc.Scan() {
			var res api.Result
			if err := codec.Default.Unmarshal(sc.Bytes(), &res); err != nil {
				yield(api.Result{}, fmt.Errorf("decode result: %w", err))
				return
			}
			if !yield(res, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(api.Result{}, err)
		}
	}
}

func checkResponse(status int, message, raw string) error {
	if status >= 200 && status < 300 {
		return nil
	}
	if message == "" {
		message = raw
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	}
	return &APIError{Status: status, Message: message}
}
