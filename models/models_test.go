package models

import (
	"encoding/json"
	"testing"
)

func TestEnvelopeDecode(t *testing.T) {
	body := `{"ret_code":0,"ret_msg":"OK","ext_code":"","ext_info":"","result":[{"symbol":"BTCUSD"}],"time_now":"1567109419.049271"}`
	var env Envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.RetCode != 0 {
		t.Errorf("unexpected ret_code: %d", env.RetCode)
	}
	if env.RetMsg != "OK" {
		t.Errorf("unexpected ret_msg: %s", env.RetMsg)
	}
	if string(env.Result) != `[{"symbol":"BTCUSD"}]` {
		t.Errorf("result payload not preserved: %s", env.Result)
	}
}

func TestDecodeOrderBook(t *testing.T) {
	raw := json.RawMessage(`[{"symbol":"BTCUSD","price":"9487.0","size":336241,"side":"Buy"}]`)
	levels, err := DecodeOrderBook(raw)
	if err != nil {
		t.Fatalf("DecodeOrderBook failed: %v", err)
	}
	if len(levels) != 1 {
		t.Fatalf("expected 1 level, got %d", len(levels))
	}
	if levels[0].Side != "Buy" || levels[0].Size != 336241 {
		t.Errorf("unexpected level: %+v", levels[0])
	}
}

func TestDecodeTrades(t *testing.T) {
	raw := json.RawMessage(`[{"id":7724919,"symbol":"BTCUSD","price":7773.5,"qty":10,"side":"Sell","time":"2019-08-29T20:34:08.000Z"}]`)
	trades, err := DecodeTrades(raw)
	if err != nil {
		t.Fatalf("DecodeTrades failed: %v", err)
	}
	if len(trades) != 1 || trades[0].Qty != 10 {
		t.Errorf("unexpected trades: %+v", trades)
	}
}

func TestDecodeTicker(t *testing.T) {
	raw := json.RawMessage(`[{"symbol":"BTCUSD","interval":"1","open_time":1567100400,"open":"9592","high":"9617.5","low":"9592","close":"9610.5","volume":"4849","turnover":"0.5"}]`)
	tick, err := DecodeTicker(raw)
	if err != nil {
		t.Fatalf("DecodeTicker failed: %v", err)
	}
	if tick.Close != "9610.5" {
		t.Errorf("unexpected close: %s", tick.Close)
	}

	if _, err := DecodeTicker(json.RawMessage(`[]`)); err == nil {
		t.Error("expected error for empty kline result")
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := DecodeCandles(json.RawMessage(`{"not":"a list"}`)); err == nil {
		t.Error("expected error for malformed candle payload")
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Code: 10001, Msg: "invalid symbol"}
	if err.Error() != "bybit ret_code 10001: invalid symbol" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestRecordLineShape(t *testing.T) {
	rec := Record{Ts: 1581231260.25, Response: json.RawMessage(`[{"symbol":"BTCUSD"}]`)}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if _, ok := decoded["ts"]; !ok {
		t.Error("record missing ts key")
	}
	if _, ok := decoded["response"]; !ok {
		t.Error("record missing response key")
	}
}
