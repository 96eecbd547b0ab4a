package xrpl

import (
	"context"

	"github.com/kbukum/ledgerflow/record"
)

// Stream names accepted by the subscribe command.
const (
	StreamLedger = "ledger"
)

// Message types emitted on a subscription.
const (
	TypeResponse     = "response"
	TypeLedgerClosed = "ledgerClosed"
)

// StatusSuccess is the status rippled reports for a successful request.
const StatusSuccess = "success"

// Client is the request/response RPC boundary.
type Client interface {
	// Ledger fetches one ledger, optionally with expanded transactions.
	Ledger(ctx context.Context, req LedgerRequest) (*Response, error)
	// LedgerData fetches one page of ledger state objects.
	LedgerData(ctx context.Context, req LedgerDataRequest) (*Response, error)
	// LatestValidatedIndex returns the index of the newest validated ledger.
	LatestValidatedIndex(ctx context.Context) (int64, error)
}

// LedgerRequest selects one ledger by index.
type LedgerRequest struct {
	LedgerIndex  int64
	Transactions bool
	Expand       bool
}

func (r LedgerRequest) params() map[string]any {
	return map[string]any{
		"ledger_index": r.LedgerIndex,
		"transactions": r.Transactions,
		"expand":       r.Expand,
	}
}

// LedgerDataRequest selects one page of state objects.
type LedgerDataRequest struct {
	LedgerIndex int64
	// Marker is the opaque continuation value from the previous page.
	Marker any
	// Limit bounds the page size; zero lets the server decide.
	Limit int
}

func (r LedgerDataRequest) params() map[string]any {
	p := map[string]any{
		"ledger_index": r.LedgerIndex,
		"binary":       false,
	}
	if r.Marker != nil {
		p["marker"] = r.Marker
	}
	if r.Limit > 0 {
		p["limit"] = r.Limit
	}
	return p
}

// Response is the decoded result of one RPC call.
type Response struct {
	Status string
	Result record.Record
}

// Successful reports whether the node accepted the request.
func (r *Response) Successful() bool {
	return r != nil && r.Status == StatusSuccess
}

// Marker returns the continuation marker, or nil on the last page.
func (r *Response) Marker() any {
	if r == nil || r.Result == nil {
		return nil
	}
	m, ok := r.Result["marker"]
	if !ok || m == nil || m == "" {
		return nil
	}
	return m
}

// ErrorMessage returns the node's error code, if any.
func (r *Response) ErrorMessage() string {
	if r == nil || r.Result == nil {
		return ""
	}
	if msg, ok := r.Result.String("error_message"); ok {
		return msg
	}
	msg, _ := r.Result.String("error")
	return msg
}

// Subscriber opens streaming subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, streams []string) (Subscription, error)
}

// Subscription is one live streaming connection.
type Subscription interface {
	// Recv blocks for the next message. It fails when the receive timeout
	// elapses, the peer closes the connection, or ctx is cancelled.
	Recv(ctx context.Context) (record.Record, error)
	Close() error
}
