package processor

import (
	"context"
	"fmt"

	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/logger"
	"github.com/kbukum/ledgerflow/record"
	"github.com/kbukum/ledgerflow/xrpl"
)

// FieldLedgerIndex carries the ledger index on envelopes, ledger responses
// and decomposed transactions.
const FieldLedgerIndex = "ledger_index"

// FetchRequest identifies a ledger to fetch. It is either an Index or an
// Envelope.
type FetchRequest interface {
	fetchRequest()
}

// Index requests a ledger by sequence number.
type Index int64

// Envelope requests the ledger named by the record's integer ledger_index.
type Envelope struct {
	Record record.Record
}

func (Index) fetchRequest()    {}
func (Envelope) fetchRequest() {}

// IndexRequest converts a bare index; it fits source.Map.
func IndexRequest(i int64) FetchRequest { return Index(i) }

// ResolveIndex extracts the ledger index a request names.
func ResolveIndex(req FetchRequest) (int64, error) {
	switch r := req.(type) {
	case Index:
		return int64(r), nil
	case Envelope:
		raw, present := r.Record[FieldLedgerIndex]
		if !present {
			return 0, apperrors.ContractViolation("fetch-ledger", "envelope has no ledger_index")
		}
		idx, ok := record.AsInt(raw)
		if !ok {
			return 0, apperrors.ContractViolation("fetch-ledger", fmt.Sprintf("envelope ledger_index %v is not an integer", raw))
		}
		return idx, nil
	case nil:
		return 0, apperrors.ContractViolation("fetch-ledger", "nil request")
	default:
		return 0, apperrors.ContractViolation("fetch-ledger", fmt.Sprintf("unsupported request %T", req))
	}
}

// FetchLedger fetches a full ledger, with expanded transactions, by index.
type FetchLedger struct {
	client xrpl.Client
	log    *logger.Logger
}

// NewFetchLedger creates a fetch processor over client.
func NewFetchLedger(client xrpl.Client, log *logger.Logger) *FetchLedger {
	return &FetchLedger{client: client, log: logger.OrNop(log).WithComponent("fetch-ledger")}
}

// Name implements Processor.
func (p *FetchLedger) Name() string { return "fetch-ledger" }

// Process returns the ledger response result. An unsuccessful response is
// a retryable TransientFetch error.
func (p *FetchLedger) Process(ctx context.Context, req FetchRequest) ([]record.Record, error) {
	idx, err := ResolveIndex(req)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Ledger(ctx, xrpl.LedgerRequest{LedgerIndex: idx, Transactions: true, Expand: true})
	if err != nil {
		return nil, err
	}
	if !resp.Successful() {
		return nil, apperrors.TransientFetch("ledger", fmt.Errorf("ledger %d: %s", idx, resp.ErrorMessage())).
			WithDetail(logger.FieldLedgerIndex, idx)
	}
	p.log.Debug("ledger fetched", logger.Fields(logger.FieldLedgerIndex, idx))
	return []record.Record{resp.Result}, nil
}
