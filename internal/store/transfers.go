package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/arsenal/internal/model"
)

// TransferInput holds the fields of a transfer request.
type TransferInput struct {
	FromBaseID      int64
	ToBaseID        int64
	EquipmentTypeID int64
	Quantity        int
	TransferDate    time.Time
	Notes           string
}

func (in *TransferInput) normalize() error {
	in.Notes = strings.TrimSpace(in.Notes)
	if in.TransferDate.IsZero() {
		in.TransferDate = time.Now()
	}
	in.TransferDate = in.TransferDate.UTC()

	switch {
	case in.FromBaseID <= 0 || in.ToBaseID <= 0:
		return validationf("source and destination bases are required")
	case in.FromBaseID == in.ToBaseID:
		return validationf("source and destination base must differ")
	case in.EquipmentTypeID <= 0:
		return validationf("equipment type is required")
	case in.Quantity < 1:
		return validationf("quantity must be at least 1")
	}
	return nil
}

// RequestTransfer creates a pending transfer and reserves its quantity at the
// source base. If the source is short nothing is written.
func RequestTransfer(ctx context.Context, db *sql.DB, actor model.Actor, in TransferInput) (*model.Mutation[*model.Transfer], error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := authorizeRequest(actor, in.FromBaseID); err != nil {
		return nil, err
	}

	var id int64
	var m *model.Mutation[*model.Transfer]
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		if err := requireBase(ctx, tx, in.FromBaseID); err != nil {
			return err
		}
		if err := requireBase(ctx, tx, in.ToBaseID); err != nil {
			return err
		}
		if err := requireEquipmentType(ctx, tx, in.EquipmentTypeID); err != nil {
			return err
		}

		now := time.Now().UTC()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO transfers (from_base_id, to_base_id, equipment_type_id, quantity, status,
			     notes, transfer_date, requested_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.FromBaseID, in.ToBaseID, in.EquipmentTypeID, in.Quantity, model.TransferStatusPending,
			in.Notes, in.TransferDate, actorRef(actor), now, now,
		)
		if err != nil {
			return fmt.Errorf("creating transfer: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting transfer id: %w", err)
		}

		l := newLedger(tx, actor)
		if err := l.reserve(ctx, in.FromBaseID, in.EquipmentTypeID, in.Quantity, model.RefTransfer, id); err != nil {
			return err
		}
		m, err = transferMutation(ctx, tx, id, l)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ApproveTransfer decides a pending transfer. Without a receipt step the
// reserved quantity moves to the destination immediately and the transfer is
// completed; with one it stays reserved until CompleteTransfer.
func ApproveTransfer(ctx context.Context, db *sql.DB, actor model.Actor, id int64, requireReceipt bool) (*model.Mutation[*model.Transfer], error) {
	next := model.TransferStatusCompleted
	if requireReceipt {
		next = model.TransferStatusApproved
	}

	return decideTransfer(ctx, db, actor, id, model.TransferStatusPending, next,
		func(t *transferRow) error {
			return authorizeCommand(actor, "approving transfers", t.fromBase, t.toBase)
		},
		func(ctx context.Context, l *ledger, t *transferRow) error {
			if requireReceipt {
				return nil
			}
			return l.commitTransfer(ctx, t.fromBase, t.toBase, t.typeID, t.qty, t.id)
		},
	)
}

// CompleteTransfer records receipt of an approved transfer at its destination
// and moves the reserved quantity there.
func CompleteTransfer(ctx context.Context, db *sql.DB, actor model.Actor, id int64) (*model.Mutation[*model.Transfer], error) {
	return decideTransfer(ctx, db, actor, id, model.TransferStatusApproved, model.TransferStatusCompleted,
		func(t *transferRow) error {
			return authorizeCommand(actor, "receiving transfers", t.toBase)
		},
		func(ctx context.Context, l *ledger, t *transferRow) error {
			return l.commitTransfer(ctx, t.fromBase, t.toBase, t.typeID, t.qty, t.id)
		},
	)
}

// RejectTransfer declines a pending transfer and returns its reservation to the
// source base's available stock.
func RejectTransfer(ctx context.Context, db *sql.DB, actor model.Actor, id int64) (*model.Mutation[*model.Transfer], error) {
	return decideTransfer(ctx, db, actor, id, model.TransferStatusPending, model.TransferStatusRejected,
		func(t *transferRow) error {
			return authorizeCommand(actor, "rejecting transfers", t.fromBase, t.toBase)
		},
		func(ctx context.Context, l *ledger, t *transferRow) error {
			return l.release(ctx, t.fromBase, t.typeID, t.qty, model.RefTransfer, t.id)
		},
	)
}

type transferRow struct {
	id               int64
	fromBase, toBase int64
	typeID           int64
	qty              int
	status           string
}

// decideTransfer moves a transfer from one status to the next and applies the
// matching ledger change, all in one transaction. The status update is
// conditional on the expected current status, so a second decision on the
// same transfer fails with ErrInvalidState and leaves the ledger alone.
func decideTransfer(
	ctx context.Context, db *sql.DB, actor model.Actor, id int64, from, to string,
	authorize func(t *transferRow) error,
	apply func(ctx context.Context, l *ledger, t *transferRow) error,
) (*model.Mutation[*model.Transfer], error) {
	if !model.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidState, from, to)
	}

	var m *model.Mutation[*model.Transfer]
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		t := &transferRow{id: id}
		err := tx.QueryRowContext(ctx,
			`SELECT from_base_id, to_base_id, equipment_type_id, quantity, status FROM transfers WHERE id = ?`, id,
		).Scan(&t.fromBase, &t.toBase, &t.typeID, &t.qty, &t.status)
		if err == sql.ErrNoRows {
			return notFound("transfer")
		}
		if err != nil {
			return fmt.Errorf("looking up transfer: %w", err)
		}

		if err := authorize(t); err != nil {
			return err
		}
		if t.status != from {
			return fmt.Errorf("%w: transfer %d is %s, not %s", ErrInvalidState, id, t.status, from)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE transfers SET status = ?, decided_by = COALESCE(decided_by, ?), updated_at = ?
			 WHERE id = ? AND status = ?`,
			to, actorRef(actor), time.Now().UTC(), id, from,
		)
		if err != nil {
			return fmt.Errorf("updating transfer: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: transfer %d is no longer %s", ErrInvalidState, id, from)
		}

		l := newLedger(tx, actor)
		if err := apply(ctx, l, t); err != nil {
			return err
		}
		// The source row holds the reservation even when no quantity moved.
		l.touch(t.fromBase, t.typeID)
		m, err = transferMutation(ctx, tx, id, l)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// transferMutation reads the result of a transfer change inside its
// transaction.
func transferMutation(ctx context.Context, tx *sql.Tx, id int64, l *ledger) (*model.Mutation[*model.Transfer], error) {
	stock, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	t, err := GetTransfer(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return &model.Mutation[*model.Transfer]{Data: t, Stock: stock, Events: l.events}, nil
}

const transferSelect = `SELECT t.id, t.from_base_id, t.to_base_id, t.equipment_type_id, t.quantity, t.status,
        t.notes, t.transfer_date, t.requested_by, t.decided_by, t.created_at, t.updated_at,
        fb.name, tb.name, e.name
 FROM transfers t
 JOIN bases fb ON fb.id = t.from_base_id
 JOIN bases tb ON tb.id = t.to_base_id
 JOIN equipment_types e ON e.id = t.equipment_type_id`

func scanTransfer(row rowScanner) (*model.Transfer, error) {
	t := &model.Transfer{}
	var notes sql.NullString
	var fromName, toName, typeName string
	err := row.Scan(&t.ID, &t.FromBaseID, &t.ToBaseID, &t.EquipmentTypeID, &t.Quantity, &t.Status,
		&notes, &t.TransferDate, &t.RequestedBy, &t.DecidedBy, &t.CreatedAt, &t.UpdatedAt,
		&fromName, &toName, &typeName)
	if err != nil {
		return nil, err
	}
	t.Notes = notes.String
	t.FromBase = &model.Ref{ID: t.FromBaseID, Name: fromName}
	t.ToBase = &model.Ref{ID: t.ToBaseID, Name: toName}
	t.EquipmentType = &model.Ref{ID: t.EquipmentTypeID, Name: typeName}
	return t, nil
}

// GetTransfer returns a transfer by ID, or nil if it doesn't exist.
func GetTransfer(ctx context.Context, q querier, id int64) (*model.Transfer, error) {
	t, err := scanTransfer(q.QueryRowContext(ctx, transferSelect+` WHERE t.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}
	return t, nil
}

// transferSortColumns maps the sortBy values clients may send to columns.
var transferSortColumns = map[string]string{
	"transferDate": "t.transfer_date",
	"createdAt":    "t.created_at",
	"quantity":     "t.quantity",
	"status":       "t.status",
}

// TransferFilter narrows and orders ListTransfers. BaseID matches transfers on
// either side.
type TransferFilter struct {
	PageQuery
	SortBy string
	Order  string
	Status string
	BaseID int64
}

// ListTransfers returns one page of transfers. The default order is newest
// transfer date first.
func ListTransfers(ctx context.Context, db *sql.DB, f TransferFilter) (*model.Page[model.Transfer], error) {
	f.normalize()
	if f.SortBy == "" {
		f.SortBy = "transferDate"
	}
	column, ok := transferSortColumns[f.SortBy]
	if !ok {
		return nil, validationf("cannot sort by %q", f.SortBy)
	}
	direction := "DESC"
	switch strings.ToLower(f.Order) {
	case "", "desc":
	case "asc":
		direction = "ASC"
	default:
		return nil, validationf("invalid order %q", f.Order)
	}
	if f.Status != "" && !model.ValidTransferStatus(f.Status) {
		return nil, validationf("invalid status %q", f.Status)
	}

	where := ` WHERE 1=1`
	var args []any
	if f.Status != "" {
		where += ` AND t.status = ?`
		args = append(args, f.Status)
	}
	if f.BaseID > 0 {
		where += ` AND (t.from_base_id = ? OR t.to_base_id = ?)`
		args = append(args, f.BaseID, f.BaseID)
	}

	page := &model.Page[model.Transfer]{Items: []model.Transfer{}, Page: f.Page, Limit: f.Limit}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transfers t`+where, args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("counting transfers: %w", err)
	}

	query := transferSelect + where +
		fmt.Sprintf(` ORDER BY %s %s, t.id %s LIMIT ? OFFSET ?`, column, direction, direction)
	rows, err := db.QueryContext(ctx, query, append(args, f.Limit, f.offset())...)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		page.Items = append(page.Items, *t)
	}
	return page, rows.Err()
}
