package brokers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
	"github.com/jcmexdev/orders-service/internal/orders-service/infra/adapters/brokerhttp"
	"github.com/jcmexdev/orders-service/internal/orders-service/infra/adapters/paper"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry(map[string]Gateway{
		"zerodha": {URL: "http://gateway.local", Token: "t"},
		"groww":   {},
	})

	assert.Equal(t, []string{"upstox", "zerodha", "shoonya", "groww", "angelone", "fyers"}, r.Names())

	z, err := r.Get("zerodha")
	require.NoError(t, err)
	assert.IsType(t, &brokerhttp.Client{}, z)

	g, err := r.Get("groww")
	require.NoError(t, err)
	assert.IsType(t, &paper.Broker{}, g)
	assert.Equal(t, "groww", g.Name())

	_, err = r.Get("robinhood")
	assert.ErrorIs(t, err, domain.ErrUnknownBroker)
}

func TestRegistry_NamesIsACopy(t *testing.T) {
	r := NewRegistry(nil)
	names := r.Names()
	names[0] = "mutated"
	assert.Equal(t, "upstox", r.Names()[0])
}
