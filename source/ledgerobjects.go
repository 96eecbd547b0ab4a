package source

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/logger"
	"github.com/kbukum/ledgerflow/record"
	"github.com/kbukum/ledgerflow/resilience"
	"github.com/kbukum/ledgerflow/xrpl"
)

// Lineage fields stamped on every ledger object.
const (
	FieldExecutionID = "_ExecutionID"
	FieldSequence    = "_Sequence"
	FieldLedgerIndex = "_LedgerIndex"
)

// LedgerObjectsConfig configures a LedgerObjects walk.
type LedgerObjectsConfig struct {
	LedgerIndex int64
	// PageLimit is passed to ledger_data; zero lets the server decide.
	PageLimit int
	// ExecutionID is generated when empty.
	ExecutionID string
	Retry       resilience.RetryConfig
	Capacity    int
}

// LedgerObjects walks every state object of one ledger page by page,
// following the continuation marker until it runs out.
type LedgerObjects struct {
	*Base[record.Record]
	cfg    LedgerObjectsConfig
	client xrpl.Client
	log    *logger.Logger
}

// NewLedgerObjects creates a paginated object source.
func NewLedgerObjects(client xrpl.Client, cfg LedgerObjectsConfig, log *logger.Logger) (*LedgerObjects, error) {
	if cfg.LedgerIndex <= 0 {
		return nil, apperrors.InvalidInput("objects.ledger_index", "must be positive")
	}
	if cfg.ExecutionID == "" {
		cfg.ExecutionID = uuid.NewString()
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	l := &LedgerObjects{
		cfg:    cfg,
		client: client,
		log: logger.OrNop(log).WithComponent("ledger-objects").WithFields(logger.Fields(
			logger.FieldLedgerIndex, cfg.LedgerIndex,
			logger.FieldExecutionID, cfg.ExecutionID,
		)),
	}
	if l.cfg.Retry.Logger == nil {
		l.cfg.Retry.Logger = l.log
	}
	l.Base = NewBase[record.Record](fmt.Sprintf("ledger-objects-%d", cfg.LedgerIndex), cfg.Capacity, log, l.populate)
	return l, nil
}

// ExecutionID returns the id stamped on every emitted object.
func (l *LedgerObjects) ExecutionID() string { return l.cfg.ExecutionID }

func (l *LedgerObjects) populate(ctx context.Context, emit func(context.Context, record.Record) error) error {
	var marker any
	var seq int64
	pages := 0
	for {
		req := xrpl.LedgerDataRequest{LedgerIndex: l.cfg.LedgerIndex, Marker: marker, Limit: l.cfg.PageLimit}
		resp, err := resilience.Retry(ctx, l.cfg.Retry, func(ctx context.Context) (*xrpl.Response, error) {
			resp, err := l.client.LedgerData(ctx, req)
			if err != nil {
				return nil, err
			}
			if !resp.Successful() {
				return nil, apperrors.TransientFetch("ledger_data", fmt.Errorf("unsuccessful response: %s", resp.ErrorMessage()))
			}
			return resp, nil
		})
		if err != nil {
			return err
		}
		pages++

		state, _ := resp.Result.List("state")
		for _, item := range state {
			obj, ok := record.AsRecord(item)
			if !ok {
				continue
			}
			seq++
			obj[FieldExecutionID] = l.cfg.ExecutionID
			obj[FieldSequence] = seq
			obj[FieldLedgerIndex] = l.cfg.LedgerIndex
			if err := emit(ctx, obj); err != nil {
				return err
			}
		}

		marker = resp.Marker()
		if marker == nil {
			l.log.Info("ledger objects exhausted", logger.Fields("pages", pages, logger.FieldCount, seq))
			return nil
		}
	}
}
