package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/apartment-portal/internal/backend"
	"github.com/iliyamo/apartment-portal/internal/billing"
	"github.com/iliyamo/apartment-portal/internal/store"
)

type fakeBackend struct {
	mu        sync.Mutex
	bills     []billing.UtilityBill
	listCalls int
	created   []backend.BillPayload
	updated   map[string]backend.BillPayload
	payments  map[string]backend.Payment
	deleted   []string
	failWith  error
	listErr   error
	entered   chan struct{}
	block     chan struct{}
}

func newFakeBackend(bills ...billing.UtilityBill) *fakeBackend {
	return &fakeBackend{bills: bills, updated: map[string]backend.BillPayload{}, payments: map[string]backend.Payment{}}
}

func (f *fakeBackend) ListBills(ctx context.Context) ([]billing.UtilityBill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]billing.UtilityBill(nil), f.bills...), nil
}

func (f *fakeBackend) ListMyBills(ctx context.Context) ([]billing.UtilityBill, error) {
	return f.ListBills(ctx)
}

func (f *fakeBackend) CreateBill(ctx context.Context, p backend.BillPayload) (billing.UtilityBill, error) {
	if f.block != nil {
		close(f.entered)
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return billing.UtilityBill{}, f.failWith
	}
	f.created = append(f.created, p)
	b := billing.UtilityBill{
		ID: "b" + string(rune('0'+len(f.created))), TenantID: p.TenantID, BillingMonth: p.BillingMonth,
		Lines: p.Utilities, Subtotal: p.Subtotal, TotalAmount: p.TotalAmount, DueDate: p.DueDate, Status: p.Status,
	}
	f.bills = append(f.bills, b)
	return b, nil
}

func (f *fakeBackend) UpdateBill(ctx context.Context, id string, p backend.BillPayload) (billing.UtilityBill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return billing.UtilityBill{}, f.failWith
	}
	f.updated[id] = p
	for i, b := range f.bills {
		if b.ID == id {
			f.bills[i].Lines, f.bills[i].TotalAmount = p.Utilities, p.TotalAmount
			return f.bills[i], nil
		}
	}
	return billing.UtilityBill{ID: id, TotalAmount: p.TotalAmount, Status: p.Status}, nil
}

func (f *fakeBackend) MarkBillPaid(ctx context.Context, id string, p backend.Payment) (billing.UtilityBill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return billing.UtilityBill{}, f.failWith
	}
	f.payments[id] = p
	for i, b := range f.bills {
		if b.ID == id {
			f.bills[i].Status = billing.StatusPaid
			f.bills[i].PaidAt = &p.PaidAt
			f.bills[i].PaymentMethod = p.PaymentMethod
			return f.bills[i], nil
		}
	}
	return billing.UtilityBill{}, &backend.BackendError{Status: 404, Message: "Bill not found"}
}

func (f *fakeBackend) DeleteBill(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.deleted = append(f.deleted, id)
	kept := f.bills[:0]
	for _, b := range f.bills {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	f.bills = kept
	return nil
}

type eventLog struct {
	mu     sync.Mutex
	events []billing.Event
	err    error
}

func (l *eventLog) Record(ctx context.Context, e billing.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return l.err
}

func (l *eventLog) Publish(ctx context.Context, e billing.Event) error { return l.Record(ctx, e) }

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newManager(b Backend, opts ...Option) *Manager {
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewManager(b, store.New[billing.UtilityBill](0), NewLocks(), opts...)
}

func octoberForm() BillForm {
	var f BillForm
	_ = json.Unmarshal([]byte(`{
		"tenantId": "t1",
		"billingMonth": "2026-10",
		"dueDate": "2026-11-05",
		"meteredUtilities": [
			{"utilityType": "electricity", "previousReading": "1200", "currentReading": "1250", "rate": 15},
			{"utilityType": "floor_heating", "previousReading": 300, "currentReading": 300, "rate": 8}
		],
		"serviceUtilities": [
			{"utilityType": "water_jar", "quantity": 2, "rate": 50},
			{"utilityType": "gas", "quantity": "", "rate": 900}
		]
	}`), &f)
	return f
}

func TestCreateAndSendPersistsComputedBill(t *testing.T) {
	fb := newFakeBackend()
	m := newManager(fb)

	bill, err := m.CreateAndSend(context.Background(), octoberForm())
	if err != nil {
		t.Fatalf("CreateAndSend: %v", err)
	}
	if len(fb.created) != 1 {
		t.Fatalf("expected one create, got %d", len(fb.created))
	}
	p := fb.created[0]
	if p.Status != billing.StatusSent || p.TotalAmount != 850 || p.Subtotal != 850 {
		t.Fatalf("unexpected payload status=%s total=%v subtotal=%v", p.Status, p.TotalAmount, p.Subtotal)
	}
	if len(p.Utilities) != 2 {
		t.Fatalf("zero-usage lines should be dropped, got %+v", p.Utilities)
	}
	if p.BillingPeriod.StartDate.Day() != 1 || p.BillingPeriod.EndDate.Day() != 31 {
		t.Fatalf("unexpected period %+v", p.BillingPeriod)
	}
	if !p.DueDate.Equal(time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected due date %v", p.DueDate)
	}
	if bill.ID == "" || billing.FormatCurrency(bill.TotalAmount) != "Rs. 850.00" {
		t.Fatalf("unexpected bill %+v", bill)
	}
}

func TestCreateAndSendValidation(t *testing.T) {
	tests := []struct {
		name   string
		edit   func(*BillForm)
		fields []string
	}{
		{"missing tenant", func(f *BillForm) { f.TenantID = "" }, []string{"tenantId"}},
		{"missing due date", func(f *BillForm) { f.DueDate = "" }, []string{"dueDate"}},
		{"both missing", func(f *BillForm) { f.TenantID, f.DueDate = "", "" }, []string{"tenantId", "dueDate"}},
		{"bad month", func(f *BillForm) { f.BillingMonth = "October" }, []string{"billingMonth"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend()
			f := octoberForm()
			tt.edit(&f)

			_, err := newManager(fb).CreateAndSend(context.Background(), f)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			for _, field := range tt.fields {
				if ve.Fields[field] == "" {
					t.Errorf("missing message for %s in %v", field, ve.Fields)
				}
			}
			if len(fb.created) != 0 {
				t.Fatal("invalid form reached the backend")
			}
		})
	}
}

func TestCreateDefaultsToCurrentMonth(t *testing.T) {
	fb := newFakeBackend()
	f := octoberForm()
	f.BillingMonth = ""
	if _, err := newManager(fb).CreateAndSend(context.Background(), f); err != nil {
		t.Fatalf("CreateAndSend: %v", err)
	}
	if fb.created[0].BillingMonth != "2026-10" {
		t.Fatalf("billing month = %q", fb.created[0].BillingMonth)
	}
}

func TestBackendErrorIsReturnedVerbatim(t *testing.T) {
	fb := newFakeBackend()
	fb.failWith = &backend.BackendError{Status: 400, Message: "Tenant not found"}
	_, err := newManager(fb).CreateAndSend(context.Background(), octoberForm())
	if backend.UserMessage(err, "") != "Tenant not found" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestMutationsRefreshTheList(t *testing.T) {
	fb := newFakeBackend(billing.UtilityBill{ID: "b0", Status: billing.StatusSent, TotalAmount: 100})
	m := newManager(fb)
	ctx := context.Background()

	if _, err := m.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := m.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}
	if fb.listCalls != 1 {
		t.Fatalf("expected cached list, got %d fetches", fb.listCalls)
	}

	if _, err := m.CreateAndSend(ctx, octoberForm()); err != nil {
		t.Fatalf("CreateAndSend: %v", err)
	}
	bills, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(bills) != 2 || fb.listCalls != 2 {
		t.Fatalf("list not refetched after create: %d bills, %d fetches", len(bills), fb.listCalls)
	}

	if err := m.Delete(ctx, "b0"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	bills, _ = m.List(ctx)
	if len(bills) != 1 || bills[0].ID == "b0" {
		t.Fatalf("deleted bill still listed: %+v", bills)
	}
}

func TestUpdateRecomputesAndRefusesPaid(t *testing.T) {
	fb := newFakeBackend(
		billing.UtilityBill{ID: "open", TenantID: "t1", Status: billing.StatusSent, TotalAmount: 1},
		billing.UtilityBill{ID: "done", TenantID: "t1", Status: billing.StatusPaid, TotalAmount: 1},
	)
	m := newManager(fb)
	ctx := context.Background()

	bill, err := m.Update(ctx, "open", octoberForm())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if bill.TotalAmount != 850 || fb.updated["open"].Status != "" {
		t.Fatalf("unexpected update %+v / %+v", bill, fb.updated["open"])
	}

	if _, err := m.Update(ctx, "done", octoberForm()); !errors.Is(err, ErrBillPaid) {
		t.Fatalf("expected ErrBillPaid, got %v", err)
	}
	if _, ok := fb.updated["done"]; ok {
		t.Fatal("paid bill update reached the backend")
	}
}

func TestUpdateNeverSendsStatus(t *testing.T) {
	// The backend holds b1 as paid but the list cannot be loaded, so the
	// edit goes through and the backend must see no state change in it.
	fb := newFakeBackend(billing.UtilityBill{ID: "b1", TenantID: "t1", Status: billing.StatusPaid})
	fb.listErr = &backend.BackendError{Status: 500, Message: "Failed to fetch utility bills"}
	m := newManager(fb)

	if _, err := m.Update(context.Background(), "b1", octoberForm()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	p, ok := fb.updated["b1"]
	if !ok {
		t.Fatal("update did not reach the backend")
	}
	if p.Status != "" {
		t.Fatalf("update carried status %q", p.Status)
	}
	raw, _ := json.Marshal(p)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	if _, ok := body["status"]; ok {
		t.Fatalf("status present in update body: %s", raw)
	}
}

func TestMarkPaid(t *testing.T) {
	fb := newFakeBackend(billing.UtilityBill{ID: "b1", Status: billing.StatusSent, TotalAmount: 850})
	log := &eventLog{}
	m := newManager(fb, WithRecorder(log), WithActor("admin-1"))
	ctx := context.Background()

	bill, err := m.MarkPaid(ctx, "b1", "bank_transfer", "paid at desk")
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if bill.Status != billing.StatusPaid || bill.PaymentMethod != "bank_transfer" || bill.PaidAt == nil || !bill.PaidAt.Equal(now) {
		t.Fatalf("unexpected bill %+v", bill)
	}
	if _, err := m.MarkPaid(ctx, "b1", "cash", ""); !errors.Is(err, ErrBillPaid) {
		t.Fatalf("second payment: expected ErrBillPaid, got %v", err)
	}
	if _, err := m.MarkPaid(ctx, "b1", " ", ""); err == nil {
		t.Fatal("expected validation error for blank method")
	}
	if len(log.events) != 1 || log.events[0].Type != billing.EventPaid || log.events[0].Actor != "admin-1" {
		t.Fatalf("unexpected events %+v", log.events)
	}
}

func TestSideChannelFailureDoesNotFailAction(t *testing.T) {
	fb := newFakeBackend()
	broken := &eventLog{err: errors.New("mysql down")}
	m := newManager(fb, WithRecorder(broken), WithPublisher(broken))
	if _, err := m.CreateAndSend(context.Background(), octoberForm()); err != nil {
		t.Fatalf("CreateAndSend failed because of a side channel: %v", err)
	}
	if len(broken.events) != 2 {
		t.Fatalf("expected record and publish attempts, got %d", len(broken.events))
	}
}

func TestConcurrentSubmitIsRefused(t *testing.T) {
	fb := newFakeBackend()
	fb.entered = make(chan struct{})
	fb.block = make(chan struct{})
	m := newManager(fb)

	first := make(chan error)
	go func() {
		_, err := m.CreateAndSend(context.Background(), octoberForm())
		first <- err
	}()
	<-fb.entered
	if _, err := m.CreateAndSend(context.Background(), octoberForm()); !errors.Is(err, ErrBusy) {
		t.Fatalf("second submit: expected ErrBusy, got %v", err)
	}
	close(fb.block)
	if err := <-first; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if len(fb.created) != 1 {
		t.Fatalf("expected exactly one create, got %d", len(fb.created))
	}
}

func TestFormFromBillRoundTrip(t *testing.T) {
	fb := newFakeBackend()
	bill, err := newManager(fb).CreateAndSend(context.Background(), octoberForm())
	if err != nil {
		t.Fatalf("CreateAndSend: %v", err)
	}
	f := FormFromBill(bill)
	if len(f.Metered) != 1 || f.Metered[0].UtilityType != billing.Electricity || f.Metered[0].CurrentReading != 1250 {
		t.Fatalf("unexpected metered rows %+v", f.Metered)
	}
	if len(f.Services) != 1 || f.Services[0].UtilityType != billing.WaterJar {
		t.Fatalf("unexpected service rows %+v", f.Services)
	}
	if f.DueDate != "2026-11-05" {
		t.Fatalf("due date = %q", f.DueDate)
	}
}
