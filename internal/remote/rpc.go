package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/ganot/taskboard/internal/backend"
	"github.com/ganot/taskboard/internal/transport"
)

// rpcError is the error member of a JSON-RPC response as received.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

// rpcClient posts JSON-RPC requests to the server's /rpc endpoint.
type rpcClient struct {
	url    string
	http   *http.Client
	nextID atomic.Int64
}

// call invokes method with params, authenticating with token when it is not
// empty, and decodes the result into out. Application errors come back as
// *transport.APIError; unreachable servers as backend.ErrOffline.
func (c *rpcClient) call(ctx context.Context, token, method string, params, out any) error {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encoding %s params: %w", method, err)
		}
		raw = data
	}
	body, err := json.Marshal(transport.Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  raw,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %s", backend.ErrOffline, method, resp.Status)
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if decoded.Error != nil {
		return decodeError(method, decoded.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}
	return nil
}

func decodeError(method string, e *rpcError) error {
	if e.Code == transport.ErrApplication && len(e.Data) > 0 {
		var apiErr transport.APIError
		if err := json.Unmarshal(e.Data, &apiErr); err == nil && apiErr.Code != "" {
			return &apiErr
		}
	}
	return fmt.Errorf("%s: %s (code %d)", method, e.Message, e.Code)
}
