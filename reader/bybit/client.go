package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	appconfig "bybitflow/config"
	"bybitflow/logger"
	"bybitflow/models"
)

// Client issues GET requests against the Bybit v2 public API and unwraps
// the response envelope.
type Client struct {
	base string
	http *http.Client
	log  *logger.Log
}

// NewClient creates a client with a pooled transport sized from the
// source configuration.
func NewClient(cfg *appconfig.Config) *Client {
	log := logger.GetLogger()

	transport := &http.Transport{
		MaxIdleConns:        cfg.Source.ConnectionPool.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Source.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:     cfg.Source.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:     cfg.Source.ConnectionPool.IdleConnTimeout(),
		DisableCompression:  false,
	}

	httpClient := &http.Client{Transport: transport, Timeout: cfg.Source.Timeout()}

	c := &Client{
		base: strings.TrimRight(cfg.Source.BaseURL, "/"),
		http: httpClient,
		log:  log,
	}

	log.WithComponent("bybit_client").WithFields(logger.Fields{
		"base_url": c.base,
		"timeout":  cfg.Source.Timeout().String(),
	}).Info("bybit client initialized")

	return c
}

// Get performs a synchronous GET against a fully formed URL and unwraps the
// envelope. On ret_code 0 it returns the result payload untouched; any other
// code yields a *models.APIError carrying ret_msg. Transport and decode
// failures are returned as-is.
func (c *Client) Get(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	if env.RetCode != 0 {
		return nil, &models.APIError{Code: env.RetCode, Msg: env.RetMsg}
	}

	return env.Result, nil
}
