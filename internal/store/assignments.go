package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/arsenal/internal/model"
)

// AssignmentInput holds the fields of a new assignment.
type AssignmentInput struct {
	AssetID            int64
	BaseID             int64 // optional; must match the asset's base when set
	AssignedTo         string
	Quantity           int
	AssignmentDate     time.Time
	ExpectedReturnDate *time.Time
	Notes              string
}

func (in *AssignmentInput) normalize() error {
	in.AssignedTo = strings.TrimSpace(in.AssignedTo)
	if in.AssignmentDate.IsZero() {
		in.AssignmentDate = time.Now()
	}
	in.AssignmentDate = in.AssignmentDate.UTC()
	if in.ExpectedReturnDate != nil {
		d := in.ExpectedReturnDate.UTC()
		in.ExpectedReturnDate = &d
	}

	switch {
	case in.AssetID <= 0:
		return validationf("asset is required")
	case in.AssignedTo == "":
		return validationf("assigned to is required")
	case in.Quantity < 1:
		return validationf("quantity must be at least 1")
	case in.ExpectedReturnDate != nil && in.ExpectedReturnDate.Before(in.AssignmentDate):
		return validationf("expected return date is before the assignment date")
	}
	return nil
}

// CreateAssignment reserves quantity from the asset's base stock and issues it
// to a person. If stock is short nothing is written.
func CreateAssignment(ctx context.Context, db *sql.DB, actor model.Actor, in AssignmentInput) (*model.Mutation[*model.Assignment], error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var m *model.Mutation[*model.Assignment]
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		baseID, typeID, status, err := assetStockKey(ctx, tx, in.AssetID)
		if err != nil {
			return err
		}
		if in.BaseID > 0 && in.BaseID != baseID {
			return validationf("asset %d does not belong to base %d", in.AssetID, in.BaseID)
		}
		if status == model.AssetStatusDecommissioned {
			return validationf("asset %d is decommissioned", in.AssetID)
		}
		if err := authorizeCommand(actor, "assigning equipment", baseID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO assignments (asset_id, base_id, equipment_type_id, assigned_to, assigned_by,
			     quantity, notes, assignment_date, expected_return_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.AssetID, baseID, typeID, in.AssignedTo, actorRef(actor),
			in.Quantity, in.Notes, in.AssignmentDate, in.ExpectedReturnDate,
		)
		if err != nil {
			return fmt.Errorf("creating assignment: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting assignment id: %w", err)
		}

		l := newLedger(tx, actor)
		if err := l.reserve(ctx, baseID, typeID, in.Quantity, model.RefAssignment, id); err != nil {
			return err
		}
		m, err = assignmentMutation(ctx, tx, id, l)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ReturnAssignment releases an active assignment's quantity back to available
// stock. A returned assignment is immutable; returning it again is ErrInvalidState.
func ReturnAssignment(ctx context.Context, db *sql.DB, actor model.Actor, id int64) (*model.Mutation[*model.Assignment], error) {
	var m *model.Mutation[*model.Assignment]
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		var baseID, typeID int64
		var qty int
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT base_id, equipment_type_id, quantity, status FROM assignments WHERE id = ?`, id,
		).Scan(&baseID, &typeID, &qty, &status)
		if err == sql.ErrNoRows {
			return notFound("assignment")
		}
		if err != nil {
			return fmt.Errorf("looking up assignment: %w", err)
		}

		if err := authorizeCommand(actor, "returning equipment", baseID); err != nil {
			return err
		}
		if status != model.AssignmentStatusActive {
			return fmt.Errorf("%w: assignment %d is already %s", ErrInvalidState, id, status)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE assignments SET status = ?, returned_at = ?
			 WHERE id = ? AND status = ?`,
			model.AssignmentStatusReturned, time.Now().UTC(), id, model.AssignmentStatusActive,
		)
		if err != nil {
			return fmt.Errorf("returning assignment: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: assignment %d is no longer active", ErrInvalidState, id)
		}

		l := newLedger(tx, actor)
		if err := l.release(ctx, baseID, typeID, qty, model.RefAssignment, id); err != nil {
			return err
		}
		m, err = assignmentMutation(ctx, tx, id, l)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// assignmentMutation reads the result of an assignment change inside its
// transaction.
func assignmentMutation(ctx context.Context, tx *sql.Tx, id int64, l *ledger) (*model.Mutation[*model.Assignment], error) {
	stock, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	a, err := GetAssignment(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return &model.Mutation[*model.Assignment]{Data: a, Stock: stock, Events: l.events}, nil
}

const assignmentSelect = `SELECT a.id, a.asset_id, a.base_id, a.equipment_type_id, a.assigned_to, a.assigned_by,
        a.quantity, a.status, a.notes, a.assignment_date, a.expected_return_date, a.returned_at,
        s.name, s.serial_number, e.name, b.name, u.username
 FROM assignments a
 JOIN assets s ON s.id = a.asset_id
 JOIN equipment_types e ON e.id = a.equipment_type_id
 JOIN bases b ON b.id = a.base_id
 LEFT JOIN users u ON u.id = a.assigned_by`

func scanAssignment(row rowScanner) (*model.Assignment, error) {
	a := &model.Assignment{Asset: &model.AssetRef{}}
	var notes, username sql.NullString
	var assignedBy sql.NullInt64
	var typeName, baseName string
	err := row.Scan(&a.ID, &a.AssetID, &a.BaseID, &a.EquipmentTypeID, &a.AssignedTo, &assignedBy,
		&a.Quantity, &a.Status, &notes, &a.AssignmentDate, &a.ExpectedReturnDate, &a.ReturnedAt,
		&a.Asset.Name, &a.Asset.SerialNumber, &typeName, &baseName, &username)
	if err != nil {
		return nil, err
	}
	a.Notes = notes.String
	a.Asset.ID = a.AssetID
	a.Asset.EquipmentType = &model.Ref{ID: a.EquipmentTypeID, Name: typeName}
	a.Base = &model.Ref{ID: a.BaseID, Name: baseName}
	// The user row is gone when the account was deleted.
	if assignedBy.Valid {
		a.AssignedBy = &model.UserRef{ID: assignedBy.Int64, Username: username.String}
	}
	return a, nil
}

// GetAssignment returns an assignment by ID, or nil if it doesn't exist.
func GetAssignment(ctx context.Context, q querier, id int64) (*model.Assignment, error) {
	a, err := scanAssignment(q.QueryRowContext(ctx, assignmentSelect+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", err)
	}
	return a, nil
}

// AssignmentFilter narrows ListAssignments.
type AssignmentFilter struct {
	PageQuery
	Status string
	BaseID int64
}

// ListAssignments returns one page of assignments, newest first.
func ListAssignments(ctx context.Context, db *sql.DB, f AssignmentFilter) (*model.Page[model.Assignment], error) {
	f.normalize()
	if f.Status != "" && f.Status != model.AssignmentStatusActive && f.Status != model.AssignmentStatusReturned {
		return nil, validationf("invalid status %q", f.Status)
	}

	where := ` WHERE 1=1`
	var args []any
	if f.Status != "" {
		where += ` AND a.status = ?`
		args = append(args, f.Status)
	}
	if f.BaseID > 0 {
		where += ` AND a.base_id = ?`
		args = append(args, f.BaseID)
	}

	page := &model.Page[model.Assignment]{Items: []model.Assignment{}, Page: f.Page, Limit: f.Limit}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assignments a`+where, args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("counting assignments: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		assignmentSelect+where+` ORDER BY a.assignment_date DESC, a.id DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.offset())...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		page.Items = append(page.Items, *a)
	}
	return page, rows.Err()
}
