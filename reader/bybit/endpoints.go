package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// The four v2 public endpoints this collector polls. Each builder is pure
// parameter-to-URL mapping; values are sent to the exchange unvalidated and
// any rejection comes back through the envelope.

// OrderBookURL builds the level 2 order book URL. Each side has a fixed
// depth of 25.
func (c *Client) OrderBookURL(pair string) string {
	return fmt.Sprintf("%s/orderBook/L2?symbol=%s", c.base, pair)
}

// OrderBook fetches the level 2 order book for the pair.
func (c *Client) OrderBook(ctx context.Context, pair string) (json.RawMessage, error) {
	return c.Get(ctx, c.OrderBookURL(pair))
}

// TradesURL builds the trading-records URL returning the last limit trades.
func (c *Client) TradesURL(pair string, limit int) string {
	return fmt.Sprintf("%s/trading-records?symbol=%s&limit=%d", c.base, pair, limit)
}

// Trades fetches the most recent trades for the pair.
func (c *Client) Trades(ctx context.Context, pair string, limit int) (json.RawMessage, error) {
	return c.Get(ctx, c.TradesURL(pair, limit))
}

// CandlesURL builds the kline/list URL. The endpoint returns up to 200
// buckets starting at from.
func (c *Client) CandlesURL(pair, interval string, from int64) string {
	return fmt.Sprintf("%s/kline/list?symbol=%s&interval=%s&from=%d", c.base, pair, interval, from)
}

// Candles fetches kline buckets for the pair.
func (c *Client) Candles(ctx context.Context, pair, interval string, from int64) (json.RawMessage, error) {
	return c.Get(ctx, c.CandlesURL(pair, interval, from))
}

// TickerURL builds a single-bucket kline/list URL, which stands in for a
// tick endpoint on the v2 public surface.
func (c *Client) TickerURL(pair, interval string, from int64) string {
	return fmt.Sprintf("%s/kline/list?symbol=%s&interval=%s&from=%d&limit=1", c.base, pair, interval, from)
}

// Ticker fetches the latest kline bucket for the pair.
func (c *Client) Ticker(ctx context.Context, pair, interval string, from int64) (json.RawMessage, error) {
	return c.Get(ctx, c.TickerURL(pair, interval, from))
}

// IntervalSeconds converts a v2 kline interval token to its length in
// seconds. Numeric tokens are minutes; D, W and M are calendar buckets.
// Unknown tokens fall back to one minute.
func IntervalSeconds(interval string) int64 {
	switch interval {
	case "D":
		return 86400
	case "W":
		return 7 * 86400
	case "M":
		return 30 * 86400
	}
	if minutes, err := strconv.ParseInt(interval, 10, 64); err == nil && minutes > 0 {
		return minutes * 60
	}
	return 60
}
