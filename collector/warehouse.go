package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kbukum/ledgerflow/database"
	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/processor"
	"github.com/kbukum/ledgerflow/record"
	"github.com/kbukum/ledgerflow/source"
)

// Warehouse inserts one database.Row per record into a table.
type Warehouse struct {
	db    *database.DB
	table string
}

// NewWarehouse writes to table, or to the table configured on db when empty.
func NewWarehouse(db *database.DB, table string) *Warehouse {
	if table == "" {
		table = db.Config().Table
	}
	return &Warehouse{db: db, table: table}
}

// Name returns "warehouse".
func (c *Warehouse) Name() string { return "warehouse" }

// Table returns the destination table.
func (c *Warehouse) Table() string { return c.table }

// Collect inserts r.
func (c *Warehouse) Collect(ctx context.Context, r record.Record) error {
	row, err := ToRow(r)
	if err != nil {
		return apperrors.SinkFailure(c.Name(), err)
	}
	if err := c.db.WithContext(ctx).Table(c.table).Create(&row).Error; err != nil {
		return apperrors.SinkFailure(c.Name(), database.FromDatabase(err, "insert"))
	}
	return nil
}

// ToRow lifts the indexed columns out of r and stores r itself as JSON.
func ToRow(r record.Record) (database.Row, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return database.Row{}, fmt.Errorf("encode record: %w", err)
	}
	row := database.Row{Payload: string(payload)}
	if idx, ok := processor.LedgerIndexOf(r); ok {
		row.LedgerIndex = idx
	}
	row.Hash, _ = r.String("hash")
	row.TransactionType, _ = r.String("TransactionType")
	row.ExecutionID, _ = r.String(source.FieldExecutionID)
	return row, nil
}
