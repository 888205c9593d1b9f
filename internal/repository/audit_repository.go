package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/apartment-portal/internal/billing"
)

// AuditRepo stores one row per bill lifecycle event in bill_events.
type AuditRepo struct{ db *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Record inserts e.
func (r *AuditRepo) Record(ctx context.Context, e billing.Event) error {
	if r == nil || r.db == nil {
		return ErrUnavailable
	}
	const q = `INSERT INTO bill_events
		(bill_id, event_type, tenant_id, billing_month, total_amount, status, actor_id, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		e.BillID, string(e.Type), nullString(e.TenantID), nullString(e.BillingMonth),
		e.TotalAmount, nullString(string(e.Status)), nullString(e.Actor), e.At.UTC())
	return err
}

// ListByBill returns the events of one bill, oldest first.
func (r *AuditRepo) ListByBill(ctx context.Context, billID string) ([]billing.Event, error) {
	if r == nil || r.db == nil {
		return nil, ErrUnavailable
	}
	const q = `SELECT event_type, tenant_id, billing_month, total_amount, status, actor_id, occurred_at
		FROM bill_events WHERE bill_id = ? ORDER BY occurred_at, id`
	rows, err := r.db.QueryContext(ctx, q, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []billing.Event{}
	for rows.Next() {
		var (
			e                            billing.Event
			typ                          string
			tenant, month, status, actor sql.NullString
			at                           time.Time
		)
		if err := rows.Scan(&typ, &tenant, &month, &e.TotalAmount, &status, &actor, &at); err != nil {
			return nil, err
		}
		e.Type = billing.EventType(typ)
		e.BillID = billID
		e.TenantID = tenant.String
		e.BillingMonth = month.String
		e.Status = billing.Status(status.String)
		e.Actor = actor.String
		e.At = at
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
