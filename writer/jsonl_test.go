package writer

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	appconfig "bybitflow/config"
	"bybitflow/models"
)

func TestWriteLines(t *testing.T) {
	dir := t.TempDir()
	w, err := NewJSONL(dir, models.DataTrades)
	if err != nil {
		t.Fatalf("NewJSONL failed: %v", err)
	}

	recs := []models.Record{
		{Ts: 1581231260.1, Response: json.RawMessage(`[{"id":1}]`)},
		{Ts: 1581231260.2, Response: "invalid symbol"},
	}
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "trades.txt"))
	if err != nil {
		t.Fatalf("open capture file: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var decoded map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
		}
		if _, ok := decoded["ts"]; !ok {
			t.Errorf("line %d missing ts", lines+1)
		}
		if _, ok := decoded["response"]; !ok {
			t.Errorf("line %d missing response", lines+1)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
}

func TestOpenTruncatesPriorRun(t *testing.T) {
	dir := t.TempDir()

	w, err := NewJSONL(dir, models.DataTicker)
	if err != nil {
		t.Fatalf("NewJSONL failed: %v", err)
	}
	if err := w.Write(models.Record{Ts: 1, Response: "old"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	w, err = NewJSONL(dir, models.DataTicker)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "ticker.txt"))
	if err != nil {
		t.Fatalf("stat capture file: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("expected truncated file, got %d bytes", info.Size())
	}
}

func TestObjectKey(t *testing.T) {
	cfg := appconfig.Default()
	u := &S3Uploader{config: cfg}
	got := u.ObjectKey("BTCUSD", "run-1", models.DataOrderBook)
	want := "BTCUSD/kraken/run-1/order_book.txt"
	if got != want {
		t.Errorf("ObjectKey = %s, want %s", got, want)
	}
}
