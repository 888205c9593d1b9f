// Package lifecycle drives a utility bill through create-and-send, edit,
// mark-paid and delete against the backend.
package lifecycle

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/apartment-portal/internal/backend"
	"github.com/iliyamo/apartment-portal/internal/billing"
	"github.com/iliyamo/apartment-portal/internal/store"
)

var (
	// ErrBillPaid is returned for an edit or payment of a bill already paid.
	ErrBillPaid = errors.New("bill is already paid")
	// ErrBusy is returned while another action on the same bill is running.
	ErrBusy = errors.New("another action on this bill is in progress")
	// ErrNotFound is returned by Find for an unknown bill id.
	ErrNotFound = errors.New("bill not found")
)

// Bill list keys in the shared list store.
const (
	BillsKey       = "bills"
	adminBillsKey  = BillsKey + ":admin"
	tenantBillsKey = BillsKey + ":tenant:"
)

// Backend is the part of the backend client the manager needs.
type Backend interface {
	ListBills(ctx context.Context) ([]billing.UtilityBill, error)
	ListMyBills(ctx context.Context) ([]billing.UtilityBill, error)
	CreateBill(ctx context.Context, p backend.BillPayload) (billing.UtilityBill, error)
	UpdateBill(ctx context.Context, id string, p backend.BillPayload) (billing.UtilityBill, error)
	MarkBillPaid(ctx context.Context, id string, p backend.Payment) (billing.UtilityBill, error)
	DeleteBill(ctx context.Context, id string) error
}

// Recorder keeps an audit trail of lifecycle events.
type Recorder interface {
	Record(ctx context.Context, e billing.Event) error
}

// Publisher announces lifecycle events to other services.
type Publisher interface {
	Publish(ctx context.Context, e billing.Event) error
}

// Manager runs bill actions for one signed-in user. It is cheap to build
// per request; the list store and locks are shared.
type Manager struct {
	backend   Backend
	bills     *store.ListStore[billing.UtilityBill]
	locks     *Locks
	recorder  Recorder
	publisher Publisher
	actor     string
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder attaches an audit recorder.
func WithRecorder(r Recorder) Option { return func(m *Manager) { m.recorder = r } }

// WithPublisher attaches an event publisher.
func WithPublisher(p Publisher) Option { return func(m *Manager) { m.publisher = p } }

// WithActor names the user on recorded events.
func WithActor(id string) Option { return func(m *Manager) { m.actor = id } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// NewManager returns a manager over b.
func NewManager(b Backend, bills *store.ListStore[billing.UtilityBill], locks *Locks, opts ...Option) *Manager {
	m := &Manager{backend: b, bills: bills, locks: locks, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// List returns every bill (admin scope).
func (m *Manager) List(ctx context.Context) ([]billing.UtilityBill, error) {
	return m.bills.Get(ctx, adminBillsKey, m.backend.ListBills)
}

// ListMine returns the signed-in tenant's bills.
func (m *Manager) ListMine(ctx context.Context, userID string) ([]billing.UtilityBill, error) {
	return m.bills.Get(ctx, tenantBillsKey+userID, m.backend.ListMyBills)
}

// Find looks a bill up in the admin list.
func (m *Manager) Find(ctx context.Context, id string) (billing.UtilityBill, error) {
	bills, err := m.List(ctx)
	if err != nil {
		return billing.UtilityBill{}, err
	}
	for _, b := range bills {
		if b.ID == id {
			return b, nil
		}
	}
	return billing.UtilityBill{}, ErrNotFound
}

// CreateAndSend validates form, computes its lines and total and submits
// the bill with status sent.
func (m *Manager) CreateAndSend(ctx context.Context, form BillForm) (billing.UtilityBill, error) {
	d, err := form.build(m.now())
	if err != nil {
		return billing.UtilityBill{}, err
	}
	release, ok := m.locks.tryLock("new:" + form.TenantID + ":" + d.month)
	if !ok {
		return billing.UtilityBill{}, ErrBusy
	}
	defer release()

	bill, err := m.backend.CreateBill(ctx, payload(form, d, billing.StatusSent))
	if err != nil {
		return billing.UtilityBill{}, err
	}
	m.changed(ctx, billing.EventSent, bill)
	return bill, nil
}

// Update recomputes a bill from form. Paid bills cannot be edited.
func (m *Manager) Update(ctx context.Context, id string, form BillForm) (billing.UtilityBill, error) {
	d, err := form.build(m.now())
	if err != nil {
		return billing.UtilityBill{}, err
	}
	release, ok := m.locks.tryLock(id)
	if !ok {
		return billing.UtilityBill{}, ErrBusy
	}
	defer release()

	if cur, err := m.known(ctx, id); err != nil {
		return billing.UtilityBill{}, err
	} else if cur != nil && !billing.CanEdit(*cur) {
		return billing.UtilityBill{}, ErrBillPaid
	}

	// No status: an edit never moves a bill between states.
	bill, err := m.backend.UpdateBill(ctx, id, payload(form, d, ""))
	if err != nil {
		return billing.UtilityBill{}, err
	}
	m.changed(ctx, billing.EventUpdated, bill)
	return bill, nil
}

// MarkPaid records a payment and moves the bill to paid. A bill known to
// be paid is refused locally; otherwise the backend decides.
func (m *Manager) MarkPaid(ctx context.Context, id, method, notes string) (billing.UtilityBill, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return billing.UtilityBill{}, &ValidationError{Fields: map[string]string{"paymentMethod": "Please select a payment method"}}
	}
	release, ok := m.locks.tryLock(id)
	if !ok {
		return billing.UtilityBill{}, ErrBusy
	}
	defer release()

	if cur, err := m.known(ctx, id); err != nil {
		return billing.UtilityBill{}, err
	} else if cur != nil && cur.Status == billing.StatusPaid {
		return billing.UtilityBill{}, ErrBillPaid
	}

	bill, err := m.backend.MarkBillPaid(ctx, id, backend.Payment{
		PaymentMethod: method,
		Notes:         notes,
		PaidAt:        m.now().UTC(),
	})
	if err != nil {
		return billing.UtilityBill{}, err
	}
	m.changed(ctx, billing.EventPaid, bill)
	return bill, nil
}

// Delete removes a bill. Confirmation is the caller's job.
func (m *Manager) Delete(ctx context.Context, id string) error {
	release, ok := m.locks.tryLock(id)
	if !ok {
		return ErrBusy
	}
	defer release()

	if err := m.backend.DeleteBill(ctx, id); err != nil {
		return err
	}
	m.changed(ctx, billing.EventDeleted, billing.UtilityBill{ID: id})
	return nil
}

// known returns the listed view of bill id, or nil when the bill is not in
// the list or the list cannot be loaded; the backend then decides.
func (m *Manager) known(ctx context.Context, id string) (*billing.UtilityBill, error) {
	b, err := m.Find(ctx, id)
	switch {
	case err == nil:
		return &b, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	}
	return nil, nil
}

// changed invalidates every bill list and notifies the side channels.
// Side-channel failures are logged only.
func (m *Manager) changed(ctx context.Context, t billing.EventType, b billing.UtilityBill) {
	m.bills.Invalidate(BillsKey)
	if m.recorder == nil && m.publisher == nil {
		return
	}
	e := billing.NewEvent(t, b, m.actor, m.now().UTC())
	ctx = context.WithoutCancel(ctx)
	if m.recorder != nil {
		if err := m.recorder.Record(ctx, e); err != nil {
			log.Printf("bill audit: %s %s: %v", e.Type, e.BillID, err)
		}
	}
	if m.publisher != nil {
		if err := m.publisher.Publish(ctx, e); err != nil {
			log.Printf("bill events: %s %s: %v", e.Type, e.BillID, err)
		}
	}
}

func payload(f BillForm, d draft, status billing.Status) backend.BillPayload {
	return backend.BillPayload{
		TenantID:      f.TenantID,
		BillingMonth:  d.month,
		BillingPeriod: d.period,
		Utilities:     d.lines,
		Subtotal:      d.total,
		TotalAmount:   d.total,
		DueDate:       d.dueDate,
		Status:        status,
		AdminNotes:    strings.TrimSpace(f.AdminNotes),
	}
}
