package processor

import (
	"context"

	"github.com/kbukum/ledgerflow/logger"
	"github.com/kbukum/ledgerflow/record"
	"github.com/kbukum/ledgerflow/source"
)

// FieldTransactionCount is added to ledger headers.
const FieldTransactionCount = "transaction_count"

// LedgerIndexOf returns the index of a ledger response, a decomposed
// transaction or a stamped object, checking ledger_index, then
// ledger.ledger_index, then _LedgerIndex.
func LedgerIndexOf(r record.Record) (int64, bool) {
	if idx, ok := r.Int(FieldLedgerIndex); ok {
		return idx, true
	}
	if ledger, ok := r.Map("ledger"); ok {
		if idx, ok := ledger.Int(FieldLedgerIndex); ok {
			return idx, true
		}
	}
	return r.Int(source.FieldLedgerIndex)
}

// Decompose splits a ledger response into its transactions, stamping each
// with the ledger index.
type Decompose struct {
	log *logger.Logger
}

// NewDecompose creates a decompose processor.
func NewDecompose(log *logger.Logger) *Decompose {
	return &Decompose{log: logger.OrNop(log).WithComponent("decompose")}
}

// Name implements Processor.
func (p *Decompose) Name() string { return "decompose" }

// Process returns the ledger's transaction objects. Transactions share
// structure with the input. Non-object entries, such as bare hashes from an
// unexpanded ledger, are skipped.
func (p *Decompose) Process(_ context.Context, in record.Record) ([]record.Record, error) {
	idx, hasIdx := LedgerIndexOf(in)
	ledger, _ := in.Map("ledger")
	txs, _ := ledger.List("transactions")
	if len(txs) == 0 {
		p.log.Warn("ledger has no transactions", logger.Fields(logger.FieldLedgerIndex, idx))
		return []record.Record{}, nil
	}

	out := make([]record.Record, 0, len(txs))
	skipped := 0
	for _, item := range txs {
		tx, ok := record.AsRecord(item)
		if !ok {
			skipped++
			continue
		}
		if hasIdx {
			tx[FieldLedgerIndex] = idx
		}
		out = append(out, tx)
	}
	if skipped > 0 {
		p.log.Warn("skipped non-object transactions", logger.Fields(
			logger.FieldLedgerIndex, idx, logger.FieldCount, skipped,
		))
	}
	return out, nil
}

// LedgerHeader emits the ledger without its transaction list, stamped with
// _LedgerIndex and the transaction count.
type LedgerHeader struct {
	log *logger.Logger
}

// NewLedgerHeader creates a ledger header processor.
func NewLedgerHeader(log *logger.Logger) *LedgerHeader {
	return &LedgerHeader{log: logger.OrNop(log).WithComponent("ledger-header")}
}

// Name implements Processor.
func (p *LedgerHeader) Name() string { return "ledger-header" }

// Process implements Processor. The input is not modified.
func (p *LedgerHeader) Process(_ context.Context, in record.Record) ([]record.Record, error) {
	ledger, ok := in.Map("ledger")
	if !ok {
		p.log.Warn("response has no ledger object")
		return []record.Record{}, nil
	}
	header := make(record.Record, len(ledger)+2)
	for k, v := range ledger {
		if k == "transactions" {
			continue
		}
		header[k] = v
	}
	txs, _ := ledger.List("transactions")
	header[FieldTransactionCount] = int64(len(txs))
	if idx, ok := LedgerIndexOf(in); ok {
		header[source.FieldLedgerIndex] = idx
	}
	return []record.Record{header}, nil
}
