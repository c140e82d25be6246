package oracle

import (
	"fmt"

	"docledger/internal/config"
	"docledger/internal/port"
)

// ProviderFactory is a function that creates an Oracle from a provider config.
type ProviderFactory func(cfg *config.OracleConfig) (port.Oracle, error)

// registry of oracle provider factories, populated by init() in each provider
// package or explicitly via Register.
var providers = map[string]ProviderFactory{}

// Register registers an oracle provider factory by name.
func Register(name string, factory ProviderFactory) {
	providers[name] = factory
}

// New creates an Oracle from a provider config using the registered factory.
func New(cfg *config.OracleConfig) (port.Oracle, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown oracle provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
