package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/orders-service/internal/coordinator/orderlog"
	"github.com/jcmexdev/orders-service/internal/coordinator/orderlog/sqlite"
)

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	renderHistory(&buf, []*orderlog.Entry{
		{OrderID: "upstox-1", SagaID: "s-1", Status: orderlog.StatusStarted, CreatedAt: time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC)},
		{OrderID: "upstox-1", SagaID: "s-1", Status: orderlog.StatusFailed, Step: "Publish_Order_Step", ErrorMessages: "exchange down"},
	})

	out := buf.String()
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "2024-05-01T09:15:00Z")
	assert.Contains(t, out, "Publish_Order_Step")
	assert.Contains(t, out, "exchange down")
}

func TestHistoryCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "orders.db")
	journal, err := sqlite.Open(db)
	require.NoError(t, err)
	meta := orderlog.Meta{SagaID: "s-9", OrderID: "zerodha-9", Broker: "zerodha", UserID: "u1"}
	require.NoError(t, journal.Save(context.Background(), orderlog.NewEntry(context.Background(), meta, orderlog.StatusPlaced, "Record_Order_Step", "{}", nil)))
	require.NoError(t, journal.Close())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"history", "zerodha-9", "--db", db})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "ORDER_PLACED")
	assert.Contains(t, out.String(), "Record_Order_Step")

	root = newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"history", "missing", "--db", db})
	assert.Error(t, root.Execute())
}
