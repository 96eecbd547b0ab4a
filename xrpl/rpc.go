package xrpl

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/httpclient"
	"github.com/kbukum/ledgerflow/record"
)

// RPCClient implements Client over rippled's JSON-RPC interface. It is
// safe for concurrent use and shares one connection pool.
type RPCClient struct {
	http *httpclient.Client
}

// NewRPCClient creates a JSON-RPC client for the node at cfg.BaseURL.
func NewRPCClient(cfg httpclient.Config) (*RPCClient, error) {
	if cfg.BaseURL == "" {
		return nil, apperrors.MissingField("rpc.url")
	}
	c, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &RPCClient{http: c}, nil
}

type rpcRequest struct {
	Method string           `json:"method"`
	Params []map[string]any `json:"params"`
}

// Call issues one JSON-RPC request. Transport failures are returned as
// retryable TRANSIENT_FETCH errors, except client-side rejections (4xx other
// than 429, unencodable requests) which no retry can fix. An unsuccessful
// status is returned in the Response for the caller to judge.
func (c *RPCClient) Call(ctx context.Context, method string, params map[string]any) (*Response, error) {
	resp, err := c.http.PostJSON(ctx, "", rpcRequest{Method: method, Params: []map[string]any{params}})
	if err != nil {
		return nil, classify(method, err)
	}

	body, err := record.Decode(resp.Body)
	if err != nil {
		return nil, apperrors.TransientFetch(method, fmt.Errorf("decode response: %w", err))
	}
	result, ok := body.Map("result")
	if !ok {
		return nil, apperrors.TransientFetch(method, fmt.Errorf("response has no result"))
	}
	status, _ := result.String("status")
	return &Response{Status: status, Result: result}, nil
}

func classify(method string, err error) error {
	var httpErr *httpclient.Error
	if errors.As(err, &httpErr) && !httpErr.Retryable {
		e := apperrors.ExternalServiceError("xrpl "+method, err)
		e.Retryable = false
		return e
	}
	return apperrors.TransientFetch(method, err)
}

// Ledger fetches one ledger.
func (c *RPCClient) Ledger(ctx context.Context, req LedgerRequest) (*Response, error) {
	return c.Call(ctx, "ledger", req.params())
}

// LedgerData fetches one page of state objects.
func (c *RPCClient) LedgerData(ctx context.Context, req LedgerDataRequest) (*Response, error) {
	return c.Call(ctx, "ledger_data", req.params())
}

// LatestValidatedIndex asks for the validated ledger and returns its index.
func (c *RPCClient) LatestValidatedIndex(ctx context.Context) (int64, error) {
	resp, err := c.Call(ctx, "ledger", map[string]any{"ledger_index": "validated"})
	if err != nil {
		return 0, err
	}
	if !resp.Successful() {
		return 0, apperrors.TransientFetch("ledger", fmt.Errorf("unsuccessful response: %s", resp.ErrorMessage()))
	}
	if idx, ok := resp.Result.Int("ledger_index"); ok {
		return idx, nil
	}
	if ledger, ok := resp.Result.Map("ledger"); ok {
		if idx, ok := ledger.Int("ledger_index"); ok {
			return idx, nil
		}
	}
	return 0, apperrors.MissingField("ledger_index")
}
