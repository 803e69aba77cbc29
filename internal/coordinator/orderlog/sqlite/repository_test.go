package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/orders-service/internal/coordinator/orderlog"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "nested", "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepository_SaveAndHistory(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	rows := []*orderlog.Entry{
		{SagaID: "saga-1", Broker: "upstox", UserID: "12345", Status: orderlog.StatusStarted, ErrorMessages: "[]", CreatedAt: base},
		{SagaID: "saga-1", OrderID: "upstox-1", Broker: "upstox", UserID: "12345", Status: orderlog.StatusPlaced, Step: "Record_Order_Step", Payload: `{"order_id":"upstox-1"}`, ErrorMessages: "[]", CreatedAt: base.Add(time.Second)},
		{OrderID: "upstox-1", Broker: "upstox", UserID: "12345", Status: orderlog.StatusCancelled, ErrorMessages: "[]", CreatedAt: base.Add(2 * time.Second)},
		{SagaID: "saga-2", OrderID: "upstox-2", Broker: "upstox", UserID: "12345", Status: orderlog.StatusPlaced, ErrorMessages: "[]", CreatedAt: base.Add(3 * time.Second)},
	}
	for _, r := range rows {
		require.NoError(t, repo.Save(ctx, r))
	}

	history, err := repo.History(ctx, "upstox-1")
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, orderlog.StatusStarted, history[0].Status)
	assert.Equal(t, orderlog.StatusPlaced, history[1].Status)
	assert.Equal(t, `{"order_id":"upstox-1"}`, history[1].Payload)
	assert.Equal(t, orderlog.StatusCancelled, history[2].Status)
	assert.True(t, history[2].CreatedAt.Equal(base.Add(2*time.Second)))
}

func TestRepository_HistoryUnknownOrder(t *testing.T) {
	repo := openTestRepo(t)

	history, err := repo.History(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NotNil(t, history)
}

func TestRepository_HistoryBySagaID(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	entry := orderlog.NewEntry(ctx, orderlog.Meta{SagaID: "saga-9", Broker: "fyers", UserID: "u1"},
		orderlog.StatusFailed, "Submit_Order_Step", "", []string{"broker down"})
	require.NoError(t, repo.Save(ctx, entry))

	history, err := repo.History(ctx, "saga-9")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, `["broker down"]`, history[0].ErrorMessages)
	assert.Empty(t, history[0].TraceID)
}
