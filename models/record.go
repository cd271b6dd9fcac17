package models

// DataType names one collectable stream. The value doubles as the capture
// file's base name.
type DataType string

const (
	DataOrderBook DataType = "order_book"
	DataTrades    DataType = "trades"
	DataCandles   DataType = "candles"
	DataTicker    DataType = "ticker"
)

// Record is one line of a capture file: the unix time the response was
// received and the response itself. Response is either the raw result
// payload or, for an application-level rejection, the ret_msg string.
// Both shapes share the field so downstream readers must inspect the
// payload to tell them apart.
type Record struct {
	Ts       float64     `json:"ts"`
	Response interface{} `json:"response"`
}
