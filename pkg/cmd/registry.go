package cmd

import (
	"log/slog"

	"github.com/buyflow/buyflow/pkg/adserver"
	"github.com/buyflow/buyflow/pkg/adserver/mock"
)

// NewAdapterRegistry creates the ad server adapter registry with every
// built-in adapter registered. GAM and Kevel factories register here once
// their wire protocols land.
func NewAdapterRegistry(logger *slog.Logger) *adserver.Registry {
	registry := adserver.NewRegistry(logger)
	registry.Register(mock.NewFactory())

	return registry
}
