package e2e

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sugawarayuuta/sonnet"
)

// APIError surfaces non-2xx responses from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

var (
	ErrNotFound = errors.New("not found")
	ErrCapacity = errors.New("capacity exceeded")
)

// Client is a typed wrapper over the server's HTTP surface.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

type keyValue struct {
	Key   uint64 `json:"key"`
	Value uint64 `json:"value"`
	Hit   bool   `json:"hit"`
}

// Status mirrors the server's decoded status register view.
type Status struct {
	StatusWord uint64 `json:"status_word"`
	Done       bool   `json:"done"`
	Hit        bool   `json:"hit"`
	Error      bool   `json:"error"`
	Adapter    string `json:"adapter_state"`
	Dispatcher string `json:"dispatcher_state"`
	Occupied   int    `json:"occupied"`
	Entries    int    `json:"entries"`
	Ticks      uint64 `json:"ticks"`
}

type busRequest struct {
	Op   string `json:"op"`
	Addr int    `json:"addr"`
	Data uint64 `json:"data"`
}

type busResponse struct {
	Addr    int    `json:"addr"`
	Data    uint64 `json:"data"`
	Granted bool   `json:"granted"`
}

// Put creates or overwrites a key with the given value.
func (c *Client) Put(ctx context.Context, key, value uint64) error {
	status, raw, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/keys/%d", key),
		map[string]uint64{"value": value})
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusInsufficientStorage:
		return ErrCapacity
	default:
		return &APIError{StatusCode: status, Body: string(raw)}
	}
}

// Get retrieves a key; ErrNotFound on a miss.
func (c *Client) Get(ctx context.Context, key uint64) (uint64, error) {
	status, raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/keys/%d", key), nil)
	if err != nil {
		return 0, err
	}
	switch status {
	case http.StatusOK:
		var kv keyValue
		if err := sonnet.Unmarshal(raw, &kv); err != nil {
			return 0, fmt.Errorf("decode get response: %w", err)
		}
		return kv.Value, nil
	case http.StatusNotFound:
		return 0, ErrNotFound
	default:
		return 0, &APIError{StatusCode: status, Body: string(raw)}
	}
}

// Delete removes a key; ErrNotFound when the key is absent.
func (c *Client) Delete(ctx context.Context, key uint64) error {
	status, raw, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/keys/%d", key), nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return &APIError{StatusCode: status, Body: string(raw)}
	}
}

// Status reads the decoded status view.
func (c *Client) Status(ctx context.Context) (Status, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "/v1/status", nil)
	if err != nil {
		return Status{}, err
	}
	if status != http.StatusOK {
		return Status{}, &APIError{StatusCode: status, Body: string(raw)}
	}
	var st Status
	if err := sonnet.Unmarshal(raw, &st); err != nil {
		return Status{}, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}

// BusWrite performs one raw write beat against the register file.
func (c *Client) BusWrite(ctx context.Context, addr int, data uint64) (bool, error) {
	status, raw, err := c.do(ctx, http.MethodPost, "/v1/bus",
		busRequest{Op: "write", Addr: addr, Data: data})
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, &APIError{StatusCode: status, Body: string(raw)}
	}
	var br busResponse
	if err := sonnet.Unmarshal(raw, &br); err != nil {
		return false, fmt.Errorf("decode bus response: %w", err)
	}
	return br.Granted, nil
}

// BusRead performs one raw read beat against the register file.
func (c *Client) BusRead(ctx context.Context, addr int) (uint64, error) {
	status, raw, err := c.do(ctx, http.MethodPost, "/v1/bus",
		busRequest{Op: "read", Addr: addr})
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, &APIError{StatusCode: status, Body: string(raw)}
	}
	var br busResponse
	if err := sonnet.Unmarshal(raw, &br); err != nil {
		return 0, fmt.Errorf("decode bus response: %w", err)
	}
	return br.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := sonnet.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}
