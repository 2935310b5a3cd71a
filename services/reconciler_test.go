package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"tiffin-service/models"

	apperrors "tiffin-service/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- In-memory fakes ---

// memOrderRepo mirrors the store contract: Transition is atomic under a
// mutex the way the real implementation is atomic under a row lock.
type memOrderRepo struct {
	mu     sync.Mutex
	orders []*models.Order
}

func newMemOrderRepo() *memOrderRepo { return &memOrderRepo{} }

func (m *memOrderRepo) Create(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ProviderOrderRef != nil {
		for _, o := range m.orders {
			if o.ProviderOrderRef != nil && *o.ProviderOrderRef == *order.ProviderOrderRef {
				return fmt.Errorf("duplicate provider order ref %s", *order.ProviderOrderRef)
			}
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	cp := *order
	m.orders = append(m.orders, &cp)
	return nil
}

func (m *memOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, apperrors.ErrOrderNotFound
}

func (m *memOrderRepo) FindByProviderRef(ctx context.Context, ref string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o := m.lookupLocked(ref); o != nil {
		cp := *o
		return &cp, nil
	}
	return nil, apperrors.ErrOrderNotFound
}

func (m *memOrderRepo) Transition(ctx context.Context, ref string, from []string, mutate func(*models.Order)) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.lookupLocked(ref)
	if o == nil {
		return nil, apperrors.ErrOrderNotFound
	}
	allowed := false
	for _, s := range from {
		if o.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperrors.ErrConflictingTransition
	}
	mutate(o)
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (m *memOrderRepo) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOrderRepo) lookupLocked(ref string) *models.Order {
	for _, o := range m.orders {
		if o.ProviderOrderRef != nil && *o.ProviderOrderRef == ref {
			return o
		}
	}
	return nil
}

func (m *memOrderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type memCustomerRepo struct {
	mu        sync.Mutex
	customers []*models.Customer
}

func (m *memCustomerRepo) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCustomerRepo) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCustomerRepo) Create(ctx context.Context, customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	cp := *customer
	m.customers = append(m.customers, &cp)
	return nil
}

func (m *memCustomerRepo) Resolve(ctx context.Context, name, email, phone string) (*models.Customer, error) {
	if phone != "" {
		if c, err := m.FindByPhone(ctx, phone); err == nil {
			return c, nil
		}
	}
	if email != "" {
		if c, err := m.FindByEmail(ctx, email); err == nil {
			return c, nil
		}
	}
	cust := &models.Customer{Name: name, Email: email, Phone: phone}
	if err := m.Create(ctx, cust); err != nil {
		return nil, err
	}
	return cust, nil
}

type countingNotifier struct {
	mu       sync.Mutex
	subjects []string
}

func (n *countingNotifier) Notify(ctx context.Context, subject, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subjects)
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []models.PaymentEvent
}

func (p *capturingPublisher) SendPaymentEvent(event models.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) byType(eventType string) []models.PaymentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.PaymentEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// --- Helpers ---

type reconcilerFixture struct {
	orders    *memOrderRepo
	customers *memCustomerRepo
	notifier  *countingNotifier
	events    *capturingPublisher
	rec       *Reconciler
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()
	orders := newMemOrderRepo()
	customers := &memCustomerRepo{}
	notifier := &countingNotifier{}
	events := &capturingPublisher{}
	rec := NewReconciler(orders, customers, notifier, events, zap.NewNop())
	return &reconcilerFixture{orders: orders, customers: customers, notifier: notifier, events: events, rec: rec}
}

func (f *reconcilerFixture) seedOrder(t *testing.T, ref string, amount int64, status string) *models.Order {
	t.Helper()
	order := &models.Order{
		PlanID:           "daily-lunch",
		Amount:           amount,
		Currency:         "INR",
		ProviderOrderRef: &ref,
		Status:           status,
	}
	require.NoError(t, f.orders.Create(context.Background(), order))
	return order
}

func successEvent(ref, chargeRef string) *VerifiedEvent {
	return &VerifiedEvent{
		ProviderOrderRef:  ref,
		ProviderChargeRef: chargeRef,
		Signature:         "sig",
		Outcome:           OutcomeSucceeded,
	}
}

// --- Tests ---

func TestApplySuccessTransitionsCreatedOrder(t *testing.T) {
	f := newReconcilerFixture(t)
	f.seedOrder(t, "order_123", 50000, models.OrderStatusCreated)

	order, err := f.rec.Apply(context.Background(), successEvent("order_123", "pay_456"))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPaid, order.Status)
	require.NotNil(t, order.ProviderChargeRef)
	assert.Equal(t, "pay_456", *order.ProviderChargeRef)
	assert.Equal(t, int64(50000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, 1, f.notifier.count())
	assert.Len(t, f.events.byType("payment_succeeded"), 1)
}

func TestApplySuccessIsIdempotent(t *testing.T) {
	f := newReconcilerFixture(t)
	f.seedOrder(t, "order_123", 50000, models.OrderStatusCreated)

	first, err := f.rec.Apply(context.Background(), successEvent("order_123", "pay_456"))
	require.NoError(t, err)

	second, err := f.rec.Apply(context.Background(), successEvent("order_123", "pay_456"))
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, *first.ProviderChargeRef, *second.ProviderChargeRef)
	// A replay must not refresh UpdatedAt or notify again.
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.Equal(t, 1, f.notifier.count())
	assert.Len(t, f.events.byType("payment_succeeded"), 1)
}

func TestConcurrentSuccessEventsSettleExactlyOnce(t *testing.T) {
	f := newReconcilerFixture(t)
	f.seedOrder(t, "order_123", 50000, models.OrderStatusCreated)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.rec.Apply(context.Background(), successEvent("order_123", "pay_456"))
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	order, err := f.orders.FindByProviderRef(context.Background(), "order_123")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, 1, f.notifier.count())
	assert.Len(t, f.events.byType("payment_succeeded"), 1)
}

func TestApplyFailureMarksOrderFailed(t *testing.T) {
	f := newReconcilerFixture(t)
	f.seedOrder(t, "order_123", 50000, models.OrderStatusCreated)

	order, err := f.rec.Apply(context.Background(), &VerifiedEvent{
		ProviderOrderRef:  "order_123",
		ProviderChargeRef: "pay_456",
		Outcome:           OutcomeFailed,
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusFailed, order.Status)
	assert.Equal(t, 0, f.notifier.count(), "failures must not notify")
	assert.Len(t, f.events.byType("payment_failed"), 1)
}

func TestFailureAfterSettlementIsIgnored(t *testing.T) {
	f := newReconcilerFixture(t)
	f.seedOrder(t, "order_123", 50000, models.OrderStatusPaid)

	order, err := f.rec.Apply(context.Background(), &VerifiedEvent{
		ProviderOrderRef: "order_123",
		Outcome:          OutcomeFailed,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
}

func TestLateSuccessAfterFailureSettlesOrder(t *testing.T) {
	f := newReconcilerFixture(t)
	f.seedOrder(t, "order_123", 50000, models.OrderStatusFailed)

	order, err := f.rec.Apply(context.Background(), successEvent("order_123", "pay_456"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, 1, f.notifier.count())
}

func TestInterimStatusStoredLiterally(t *testing.T) {
	f := newReconcilerFixture(t)
	f.seedOrder(t, "order_123", 50000, models.OrderStatusCreated)

	order, err := f.rec.Apply(context.Background(), &VerifiedEvent{
		ProviderOrderRef: "order_123",
		Outcome:          "processing",
	})
	require.NoError(t, err)
	assert.Equal(t, "processing", order.Status)
	assert.Equal(t, 0, f.notifier.count())
	assert.Empty(t, f.events.byType("payment_failed"))

	// A later success still settles the order.
	order, err = f.rec.Apply(context.Background(), successEvent("order_123", "pay_456"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, 1, f.notifier.count())
}

func TestFallbackCreatesOrderForUnknownRef(t *testing.T) {
	f := newReconcilerFixture(t)

	// An existing customer with this phone must be matched, not duplicated.
	require.NoError(t, f.customers.Create(context.Background(), &models.Customer{
		Name:  "Asha",
		Phone: "9999999999",
		Email: "asha@example.com",
	}))

	ev := successEvent("order_unknown", "pay_456")
	ev.PlanID = "weekly-veg"
	ev.Customer = CustomerInfo{Name: "Asha", Email: "other@example.com", Phone: "9999999999"}

	order, err := f.rec.Apply(context.Background(), ev)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "weekly-veg", order.PlanID)
	require.NotNil(t, order.CustomerID)
	assert.Equal(t, 1, f.orders.count())
	assert.Equal(t, 1, f.notifier.count())

	// Phone resolution won: no second customer record.
	f.customers.mu.Lock()
	assert.Len(t, f.customers.customers, 1)
	f.customers.mu.Unlock()
}

func TestFallbackFailureOutcomeCreatesFailedOrder(t *testing.T) {
	f := newReconcilerFixture(t)

	order, err := f.rec.Apply(context.Background(), &VerifiedEvent{
		ProviderOrderRef: "order_unknown",
		Outcome:          OutcomeFailed,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, order.Status)
	assert.Equal(t, 0, f.notifier.count())
}

func TestFulfillOnlyFromPaid(t *testing.T) {
	f := newReconcilerFixture(t)

	created := f.seedOrder(t, "order_created", 1000, models.OrderStatusCreated)
	failed := f.seedOrder(t, "order_failed", 1000, models.OrderStatusFailed)
	paid := f.seedOrder(t, "order_paid", 1000, models.OrderStatusPaid)

	_, err := f.rec.Fulfill(context.Background(), created.ID)
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidTransition))

	_, err = f.rec.Fulfill(context.Background(), failed.ID)
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidTransition))

	// Statuses must be untouched by the rejected attempts.
	got, err := f.orders.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCreated, got.Status)

	order, err := f.rec.Fulfill(context.Background(), paid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFulfilled, order.Status)
	assert.Len(t, f.events.byType("order_fulfilled"), 1)

	// Fulfilling twice is an error, not a silent no-op.
	_, err = f.rec.Fulfill(context.Background(), paid.ID)
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidTransition))
}

func TestDuplicateSuccessAfterFulfillmentIsNoOp(t *testing.T) {
	f := newReconcilerFixture(t)
	f.seedOrder(t, "order_123", 50000, models.OrderStatusFulfilled)

	order, err := f.rec.Apply(context.Background(), successEvent("order_123", "pay_456"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFulfilled, order.Status)
	assert.Equal(t, 0, f.notifier.count())
}

func TestRejectForgeryMarksPendingOrderFailed(t *testing.T) {
	f := newReconcilerFixture(t)
	f.seedOrder(t, "order_123", 50000, models.OrderStatusCreated)

	f.rec.RejectForgery(context.Background(), "order_123", "pay_456", "bad-signature")

	order, err := f.orders.FindByProviderRef(context.Background(), "order_123")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, order.Status)
	assert.Equal(t, "bad-signature", order.ProviderSignature)
}

func TestRejectForgeryLeavesSettledOrderAlone(t *testing.T) {
	f := newReconcilerFixture(t)
	f.seedOrder(t, "order_123", 50000, models.OrderStatusPaid)

	f.rec.RejectForgery(context.Background(), "order_123", "pay_456", "bad-signature")

	order, err := f.orders.FindByProviderRef(context.Background(), "order_123")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
}

func TestRejectForgeryUnknownOrderIsNoOp(t *testing.T) {
	f := newReconcilerFixture(t)
	f.rec.RejectForgery(context.Background(), "order_missing", "pay_456", "bad-signature")
	assert.Equal(t, 0, f.orders.count())
}
