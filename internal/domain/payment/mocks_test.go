package payment

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/port/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// --- Mock Implementations ---

type MockPaymentDatabasePort struct {
	mock.Mock
}

func (m *MockPaymentDatabasePort) Create(ctx context.Context, payment *model.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentDatabasePort) FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentDatabasePort) FindByBookingID(ctx context.Context, bookingID uint64) (*model.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentDatabasePort) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, at time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentDatabasePort) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*model.Payment, error) {
	args := m.Called(ctx, createdBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

type MockBookingReaderPort struct {
	mock.Mock
}

func (m *MockBookingReaderPort) GetBooking(ctx context.Context, bookingID uint64) (*model.BookingInfo, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingInfo), args.Error(1)
}

type MockGatewayPort struct {
	mock.Mock
}

func (m *MockGatewayPort) Name() string {
	return "chapa"
}

func (m *MockGatewayPort) Initialize(ctx context.Context, req *outbound.InitializeRequest) (*outbound.InitializeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.InitializeResult), args.Error(1)
}

func (m *MockGatewayPort) Verify(ctx context.Context, req *outbound.VerifyRequest) (model.GatewayStatus, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.GatewayStatus), args.Error(1)
}

type MockNotificationPort struct {
	mock.Mock
}

func (m *MockNotificationPort) Enqueue(ctx context.Context, notification *model.PaymentNotification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

type MockEventPublisherPort struct {
	mock.Mock
}

func (m *MockEventPublisherPort) Publish(ctx context.Context, event interface{}) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// --- Fakes ---

// fakeLocker is an in-process LockerPort.
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, true, nil
}

// memPaymentStore is a PaymentDatabasePort with the same uniqueness and
// compare-and-set semantics as the SQL store.
type memPaymentStore struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*model.Payment
}

func newMemPaymentStore() *memPaymentStore {
	return &memPaymentStore{payments: make(map[uuid.UUID]*model.Payment)}
}

func (s *memPaymentStore) Create(_ context.Context, payment *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.BookingID == payment.BookingID || p.TransactionID == payment.TransactionID {
			return outbound.ErrRecordExists
		}
	}
	cp := *payment
	s.payments[payment.ID] = &cp
	return nil
}

func (s *memPaymentStore) FindByTransactionID(_ context.Context, transactionID string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memPaymentStore) FindByBookingID(_ context.Context, bookingID uint64) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.BookingID == bookingID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memPaymentStore) TransitionStatus(_ context.Context, id uuid.UUID, from, to model.PaymentStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = at
	return true, nil
}

func (s *memPaymentStore) ListPending(_ context.Context, createdBefore time.Time, limit int) ([]*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Payment
	for _, p := range s.payments {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(createdBefore) {
			cp := *p
			out = append(out, &cp)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memPaymentStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

// countingGateway reports a fixed verify outcome and counts calls.
type countingGateway struct {
	initCalls   atomic.Int32
	verifyCalls atomic.Int32
	status      model.GatewayStatus
	delay       time.Duration
}

func (g *countingGateway) Name() string { return "chapa" }

func (g *countingGateway) Initialize(_ context.Context, req *outbound.InitializeRequest) (*outbound.InitializeResult, error) {
	g.initCalls.Add(1)
	time.Sleep(g.delay)
	return &outbound.InitializeResult{CheckoutURL: "https://pay.example/" + req.TxRef, ProviderReference: req.TxRef}, nil
}

func (g *countingGateway) Verify(_ context.Context, _ *outbound.VerifyRequest) (model.GatewayStatus, error) {
	g.verifyCalls.Add(1)
	time.Sleep(g.delay)
	return g.status, nil
}

// countingNotifier records enqueued notifications.
type countingNotifier struct {
	mu   sync.Mutex
	sent []*model.PaymentNotification
}

func (n *countingNotifier) Enqueue(_ context.Context, notification *model.PaymentNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
