package facade

import (
	"context"
	"fmt"
	"time"

	"tradecore/internal/errs"
	"tradecore/pkg/types"

	"github.com/go-resty/resty/v2"
)

// RESTClient is the reference OrderExecution/GetCandles/GetOrderbook
// implementation: a thin, venue-agnostic wrapper over resty with HMAC
// request signing and per-endpoint-class rate limiting.
//
// It retries on transport error or 5xx, short-circuits in dry-run mode,
// and waits on the rate limiter before every dispatch. Venue-specific
// order encoding and on-chain signed orders are out of scope; HMAC
// request signing is handled by Signer.
type RESTClient struct {
	http   *resty.Client
	signer Signer
	limits *rateLimiter
	dryRun bool
}

// NewRESTClient builds a client against baseURL.
func NewRESTClient(baseURL string, timeout time.Duration, signer Signer, dryRun bool) *RESTClient {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	return &RESTClient{http: http, signer: signer, limits: newRateLimiter(), dryRun: dryRun}
}

func (c *RESTClient) signedRequest(ctx context.Context, method, path string, body []byte) (*resty.Request, error) {
	headers, err := c.signer.Headers(method, path, string(body))
	if err != nil {
		return nil, errs.Wrap(errs.Unauthorized, err, "sign request")
	}
	return c.http.R().SetContext(ctx).SetHeaders(headers), nil
}

// Open submits an order for execution.
func (c *RESTClient) Open(ctx context.Context, o *types.Order) (*types.Order, error) {
	if err := c.limits.order.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.Timeout, err, "rate limit wait for open")
	}
	if c.dryRun {
		o.Execution.Status = types.Created
		return o, nil
	}

	req, err := c.signedRequest(ctx, "POST", "/orders", nil)
	if err != nil {
		return nil, err
	}
	resp, err := req.SetBody(o).Post("/orders")
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, err, "open order %s", o.ID)
	}
	if resp.IsError() {
		return nil, httpError(resp.StatusCode(), "open order %s", o.ID)
	}
	return o, nil
}

// Cancel requests cancellation of a resting order.
func (c *RESTClient) Cancel(ctx context.Context, orderID string) (*types.Order, error) {
	if err := c.limits.cancel.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.Timeout, err, "rate limit wait for cancel")
	}
	path := "/orders/" + orderID
	if c.dryRun {
		return &types.Order{ID: orderID, Cancellation: &types.Cancellation{Status: types.CancelCreated}}, nil
	}

	req, err := c.signedRequest(ctx, "DELETE", path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := req.Delete(path)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, err, "cancel order %s", orderID)
	}
	if resp.IsError() {
		return nil, httpError(resp.StatusCode(), "cancel order %s", orderID)
	}
	return &types.Order{ID: orderID, Cancellation: &types.Cancellation{Status: types.CancelCreated}}, nil
}

// Get fetches the current state of an order.
func (c *RESTClient) Get(ctx context.Context, orderID string) (*types.Order, error) {
	if err := c.limits.book.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.Timeout, err, "rate limit wait for get order")
	}
	path := "/orders/" + orderID
	req, err := c.signedRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}
	var out types.Order
	resp, err := req.SetResult(&out).Get(path)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, err, "get order %s", orderID)
	}
	if resp.IsError() {
		return nil, httpError(resp.StatusCode(), "get order %s", orderID)
	}
	return &out, nil
}

// GetTrades fetches the fills for an order.
func (c *RESTClient) GetTrades(ctx context.Context, orderID string) ([]types.Trade, error) {
	if err := c.limits.book.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.Timeout, err, "rate limit wait for trades")
	}
	path := "/orders/" + orderID + "/trades"
	req, err := c.signedRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}
	var out []types.Trade
	resp, err := req.SetResult(&out).Get(path)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, err, "get trades for %s", orderID)
	}
	if resp.IsError() {
		return nil, httpError(resp.StatusCode(), "get trades for %s", orderID)
	}
	return out, nil
}

// GetCandles fetches historical OHLCV buckets.
func (c *RESTClient) GetCandles(ctx context.Context, market, timeframe string, limit int) ([]types.Candle, error) {
	if err := c.limits.book.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.Timeout, err, "rate limit wait for candles")
	}
	var out []types.Candle
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParams(map[string]string{"market": market, "timeframe": timeframe, "limit": fmt.Sprint(limit)}).
		SetResult(&out).
		Get("/candles")
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, err, "get candles for %s", market)
	}
	if resp.IsError() {
		return nil, httpError(resp.StatusCode(), "get candles for %s", market)
	}
	return out, nil
}

// GetOrderbook fetches a point-in-time book snapshot.
func (c *RESTClient) GetOrderbook(ctx context.Context, market string) ([]types.PriceLevel, []types.PriceLevel, error) {
	if err := c.limits.book.Wait(ctx); err != nil {
		return nil, nil, errs.Wrap(errs.Timeout, err, "rate limit wait for orderbook")
	}
	var out struct {
		Bids []types.PriceLevel `json:"bids"`
		Asks []types.PriceLevel `json:"asks"`
	}
	resp, err := c.http.R().SetContext(ctx).SetQueryParam("market", market).SetResult(&out).Get("/orderbook")
	if err != nil {
		return nil, nil, errs.Wrap(errs.Unavailable, err, "get orderbook for %s", market)
	}
	if resp.IsError() {
		return nil, nil, httpError(resp.StatusCode(), "get orderbook for %s", market)
	}
	return out.Bids, out.Asks, nil
}

func httpError(status int, format string, args ...any) error {
	cat := errs.Unavailable
	switch {
	case status == 404:
		cat = errs.NotFound
	case status == 401 || status == 403:
		cat = errs.Unauthorized
	case status == 429:
		cat = errs.RateLimited
	case status >= 400 && status < 500:
		cat = errs.InvalidParams
	}
	return errs.New(cat, format, args...)
}
