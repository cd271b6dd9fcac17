package models

import (
	"encoding/json"
	"fmt"
)

// Envelope is the outer object every Bybit v2 public response is wrapped
// in. A ret_code of zero means success and Result holds the payload;
// any other code invalidates Result and RetMsg carries the reason.
type Envelope struct {
	RetCode int             `json:"ret_code"`
	RetMsg  string          `json:"ret_msg"`
	ExtCode string          `json:"ext_code"`
	ExtInfo string          `json:"ext_info"`
	Result  json.RawMessage `json:"result"`
	TimeNow string          `json:"time_now"`
}

// APIError is the failure variant of an unwrapped envelope. It carries the
// exchange's ret_code and ret_msg so callers can tell an application-level
// rejection apart from a transport failure.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bybit ret_code %d: %s", e.Code, e.Msg)
}

// OrderBookLevel is one price level from orderBook/L2. The v2 book carries
// a fixed depth of 25 levels per side.
type OrderBookLevel struct {
	Symbol string  `json:"symbol"`
	Price  string  `json:"price"`
	Size   float64 `json:"size"`
	Side   string  `json:"side"`
}

// Trade is one executed trade from trading-records.
type Trade struct {
	ID     int64   `json:"id"`
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Qty    float64 `json:"qty"`
	Side   string  `json:"side"`
	Time   string  `json:"time"`
}

// Candle is one kline bucket from kline/list.
type Candle struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	OpenTime int64  `json:"open_time"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
	Turnover string `json:"turnover"`
}

// Ticker is the latest tick. The v2 public surface has no dedicated tick
// endpoint, so it is the most recent kline bucket fetched with limit=1.
type Ticker Candle

// DecodeOrderBook decodes an orderBook/L2 result payload.
func DecodeOrderBook(raw json.RawMessage) ([]OrderBookLevel, error) {
	var levels []OrderBookLevel
	if err := json.Unmarshal(raw, &levels); err != nil {
		return nil, fmt.Errorf("decode order book: %w", err)
	}
	return levels, nil
}

// DecodeTrades decodes a trading-records result payload.
func DecodeTrades(raw json.RawMessage) ([]Trade, error) {
	var trades []Trade
	if err := json.Unmarshal(raw, &trades); err != nil {
		return nil, fmt.Errorf("decode trades: %w", err)
	}
	return trades, nil
}

// DecodeCandles decodes a kline/list result payload.
func DecodeCandles(raw json.RawMessage) ([]Candle, error) {
	var candles []Candle
	if err := json.Unmarshal(raw, &candles); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}
	return candles, nil
}

// DecodeTicker decodes a single-bucket kline/list result payload.
func DecodeTicker(raw json.RawMessage) (*Ticker, error) {
	var candles []Candle
	if err := json.Unmarshal(raw, &candles); err != nil {
		return nil, fmt.Errorf("decode ticker: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("decode ticker: empty kline result")
	}
	t := Ticker(candles[len(candles)-1])
	return &t, nil
}
