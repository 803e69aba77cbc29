package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Gateway is the REST gateway of one broker. Rates are requests per second.
type Gateway struct {
	URL       string  `yaml:"url"`
	Token     string  `yaml:"token"`
	ReadRate  float64 `yaml:"read_rate"`
	WriteRate float64 `yaml:"write_rate"`
}

type gatewaysFile struct {
	Brokers map[string]Gateway `yaml:"brokers"`
}

// LoadGateways reads a YAML file of the form
//
//	brokers:
//	  zerodha:
//	    url: http://zerodha-gateway:8080
//	    token: secret
//	    read_rate: 20
//	    write_rate: 10
func LoadGateways(path string) (map[string]Gateway, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read broker gateways: %w", err)
	}

	var f gatewaysFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse broker gateways: %w", err)
	}

	out := make(map[string]Gateway, len(f.Brokers))
	for name, gw := range f.Brokers {
		if gw.URL == "" {
			return nil, fmt.Errorf("parse broker gateways: %s has no url", name)
		}
		if err := gw.validate(name); err != nil {
			return nil, fmt.Errorf("parse broker gateways: %w", err)
		}
		out[name] = gw
	}
	return out, nil
}

// validate rejects negative rates. Zero keeps the client default.
func (gw Gateway) validate(name string) error {
	if gw.ReadRate < 0 {
		return fmt.Errorf("%s read_rate %v is negative", name, gw.ReadRate)
	}
	if gw.WriteRate < 0 {
		return fmt.Errorf("%s write_rate %v is negative", name, gw.WriteRate)
	}
	return nil
}
