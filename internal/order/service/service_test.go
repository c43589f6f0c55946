package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/clock"
	"github.com/framekart/commerce/internal/order/domain"
	orderrepository "github.com/framekart/commerce/internal/order/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Order{}, &domain.OrderItem{}, &domain.TrackingEvent{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))
	svc := New(db, zap.NewNop(), orderrepository.New(db), nil, node, clk)
	return svc, db, node
}

func seedOrder(t *testing.T, db *gorm.DB, node *snowflake.Node, status string) *domain.Order {
	t.Helper()
	order := &domain.Order{
		ID:            node.Generate(),
		OrderNo:       "FK-20260315-" + node.Generate().String(),
		UserID:        node.Generate(),
		SessionID:     "cs_" + node.Generate().String(),
		Provider:      "stripe",
		Status:        status,
		PaymentStatus: domain.PaymentStatusPaid,
		Subtotal:      5000,
		Total:         5000,
		Currency:      "INR",
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestUpdateStatusAppendsTracking(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	order := seedOrder(t, db, node, domain.StatusProcessing)

	updated, err := svc.UpdateStatus(ctx, order.ID, domain.StatusConfirmed, "Mumbai DC", "Packed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	require.Len(t, updated.Tracking, 1)
	assert.Equal(t, domain.StatusConfirmed, updated.Tracking[0].Status)
	assert.Equal(t, "Mumbai DC", updated.Tracking[0].Location)

	// Earlier tracking entries stay untouched as the order moves on.
	updated, err = svc.UpdateStatus(ctx, order.ID, domain.StatusShipped, "In transit", "")
	require.NoError(t, err)
	require.Len(t, updated.Tracking, 2)
	assert.Equal(t, domain.StatusConfirmed, updated.Tracking[0].Status)
	assert.Equal(t, domain.StatusShipped, updated.Tracking[1].Status)
}

func TestUpdateStatusRejectsIllegalMoves(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	order := seedOrder(t, db, node, domain.StatusProcessing)

	_, err := svc.UpdateStatus(ctx, order.ID, domain.StatusDelivered, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, order.ID, "returned", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	delivered := seedOrder(t, db, node, domain.StatusDelivered)
	_, err = svc.UpdateStatus(ctx, delivered.ID, domain.StatusCancelled, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUpdateStatusCancelFromAnyActiveState(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	for _, status := range []string{domain.StatusProcessing, domain.StatusConfirmed, domain.StatusShipped} {
		order := seedOrder(t, db, node, status)
		updated, err := svc.UpdateStatus(ctx, order.ID, domain.StatusCancelled, "", "Customer request")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, updated.Status)
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc, _, node := newTestService(t)
	_, err := svc.UpdateStatus(context.Background(), node.Generate(), domain.StatusConfirmed, "", "")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestStats(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	seedOrder(t, db, node, domain.StatusProcessing)
	seedOrder(t, db, node, domain.StatusProcessing)
	seedOrder(t, db, node, domain.StatusDelivered)
	cancelled := seedOrder(t, db, node, domain.StatusCancelled)
	_ = cancelled

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalOrders)
	assert.EqualValues(t, 15000, stats.TotalRevenue, "cancelled orders excluded from revenue")

	counts := map[string]int64{}
	for _, row := range stats.StatusCounts {
		counts[row.Status] = row.Count
	}
	assert.EqualValues(t, 2, counts[domain.StatusProcessing])
	assert.EqualValues(t, 1, counts[domain.StatusDelivered])
	assert.EqualValues(t, 1, counts[domain.StatusCancelled])
}
