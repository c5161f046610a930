package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alxtravel/server/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReconciler_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("verifies stale pending payments", func(t *testing.T) {
		store := newMemPaymentStore()
		stale := pendingPayment()
		require.NoError(t, store.Create(ctx, stale))

		fresh := pendingPayment()
		fresh.ID = uuid.New()
		fresh.BookingID = 2
		fresh.TransactionID = "booking_2-1"
		fresh.CreatedAt = time.Now().UTC()
		require.NoError(t, store.Create(ctx, fresh))

		gateway := &countingGateway{status: model.GatewayStatusSucceeded}
		notifier := &countingNotifier{}
		domain := newConcurrentDomain(store, gateway, notifier)

		r := NewReconciler(domain, store, ReconcilerConfig{Interval: time.Hour, MinAge: 10 * time.Minute, BatchSize: 10}, zap.NewNop())
		result, err := r.RunOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Checked)
		assert.Equal(t, 1, result.Resolved)
		assert.Equal(t, int32(1), gateway.verifyCalls.Load())
		assert.Equal(t, 1, notifier.count())

		got, _ := store.FindByTransactionID(ctx, "booking_2-1")
		assert.Equal(t, model.PaymentStatusPending, got.Status)
	})

	t.Run("inconclusive payments stay pending", func(t *testing.T) {
		store := newMemPaymentStore()
		require.NoError(t, store.Create(ctx, pendingPayment()))

		gateway := &countingGateway{status: model.GatewayStatusUnknown}
		domain := newConcurrentDomain(store, gateway, &countingNotifier{})

		r := NewReconciler(domain, store, ReconcilerConfig{MinAge: time.Minute}, nil)
		result, err := r.RunOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Checked)
		assert.Equal(t, 0, result.Resolved)
	})

	t.Run("list failure is returned", func(t *testing.T) {
		paymentDB := new(MockPaymentDatabasePort)
		paymentDB.On("ListPending", ctx, mock.Anything, 50).Return(nil, errors.New("db down"))

		r := NewReconciler(nil, paymentDB, ReconcilerConfig{}, nil)
		_, err := r.RunOnce(ctx)

		assert.ErrorContains(t, err, "db down")
	})
}

func TestReconciler_StartStop(t *testing.T) {
	store := newMemPaymentStore()
	require.NoError(t, store.Create(context.Background(), pendingPayment()))

	gateway := &countingGateway{status: model.GatewayStatusFailed}
	domain := newConcurrentDomain(store, gateway, &countingNotifier{})

	r := NewReconciler(domain, store, ReconcilerConfig{Interval: 10 * time.Millisecond, MinAge: time.Minute}, zap.NewNop())
	r.Start(context.Background())

	assert.Eventually(t, func() bool {
		p, _ := store.FindByTransactionID(context.Background(), "booking_1-1")
		return p.Status == model.PaymentStatusFailed
	}, time.Second, 10*time.Millisecond)

	r.Stop()
	r.Stop()
}
