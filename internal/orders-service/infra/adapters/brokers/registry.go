package brokers

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
	"github.com/jcmexdev/orders-service/internal/orders-service/core/ports"
	"github.com/jcmexdev/orders-service/internal/orders-service/infra/adapters/brokerhttp"
	"github.com/jcmexdev/orders-service/internal/orders-service/infra/adapters/paper"
)

// Supported is the fixed, ordered set of broker names the service routes to.
var Supported = []string{"upstox", "zerodha", "shoonya", "groww", "angelone", "fyers"}

// Gateway configures the REST gateway for one broker.
// Zero rates fall back to the client defaults.
type Gateway struct {
	URL       string
	Token     string
	ReadRate  float64
	WriteRate float64
}

var _ ports.BrokerRegistry = (*Registry)(nil)

type Registry struct {
	names   []string
	brokers map[string]ports.Broker
}

// NewRegistry builds one broker per supported name: a gateway client when a
// gateway URL is configured for it, otherwise a paper broker.
func NewRegistry(gateways map[string]Gateway) *Registry {
	r := &Registry{brokers: make(map[string]ports.Broker, len(Supported))}
	for _, name := range Supported {
		if gw, ok := gateways[name]; ok && gw.URL != "" {
			r.Register(brokerhttp.NewClient(name, gw.URL, brokerhttp.Options{
				Token:     gw.Token,
				ReadRate:  rate.Limit(gw.ReadRate),
				WriteRate: rate.Limit(gw.WriteRate),
			}))
			continue
		}
		r.Register(paper.NewBroker(name))
	}
	return r
}

// Register adds or replaces a broker. Registration order is kept for Names.
func (r *Registry) Register(b ports.Broker) {
	if _, exists := r.brokers[b.Name()]; !exists {
		r.names = append(r.names, b.Name())
	}
	r.brokers[b.Name()] = b
}

func (r *Registry) Get(name string) (ports.Broker, error) {
	b, ok := r.brokers[name]
	if !ok {
		return nil, fmt.Errorf("broker %q: %w", name, domain.ErrUnknownBroker)
	}
	return b, nil
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
