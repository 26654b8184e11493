package formats

import (
	"context"

	"github.com/buyflow/buyflow/pkg/models"
)

// Validator checks creative format references against a tenant's registered
// creative agents and the agent directory.
type Validator struct {
	registry Registry
}

// NewValidator creates a format validator backed by the given directory.
// Callers normally pass a CachedRegistry.
func NewValidator(registry Registry) *Validator {
	return &Validator{registry: registry}
}

// ValidateCreative checks a single creative's format reference. It returns
// the resolved FormatSpec on success so callers can reuse it without a second
// directory round trip.
func (v *Validator) ValidateCreative(ctx context.Context, tenant *models.Tenant, creative *models.Creative) (*models.FormatSpec, error) {
	ref := creative.Format

	if ref.AgentURL == "" || ref.FormatID == "" {
		return nil, &ValidationError{
			CreativeID: creative.CreativeID,
			AgentURL:   ref.AgentURL,
			FormatID:   ref.FormatID,
			Err:        ErrMissingFormatFields,
		}
	}

	if !agentRegistered(tenant, ref.AgentURL) {
		return nil, &ValidationError{
			CreativeID: creative.CreativeID,
			AgentURL:   ref.AgentURL,
			FormatID:   ref.FormatID,
			Err:        ErrUnregisteredAgent,
		}
	}

	spec, err := v.registry.GetFormat(ctx, ref.AgentURL, ref.FormatID)
	if err != nil {
		return nil, err
	}

	if spec == nil {
		return nil, &ValidationError{
			CreativeID: creative.CreativeID,
			AgentURL:   ref.AgentURL,
			FormatID:   ref.FormatID,
			Err:        ErrUnknownFormat,
		}
	}

	return spec, nil
}

// ValidateCreatives checks every creative and returns the resolved specs
// keyed by creative ID. The first failure stops the walk.
func (v *Validator) ValidateCreatives(ctx context.Context, tenant *models.Tenant, creatives []*models.Creative) (map[string]*models.FormatSpec, error) {
	specs := make(map[string]*models.FormatSpec, len(creatives))

	for _, creative := range creatives {
		spec, err := v.ValidateCreative(ctx, tenant, creative)
		if err != nil {
			return nil, err
		}

		specs[creative.CreativeID] = spec
	}

	return specs, nil
}

func agentRegistered(tenant *models.Tenant, agentURL string) bool {
	normalized := NormalizeAgentURL(agentURL)

	for _, registered := range tenant.CreativeAgents {
		if NormalizeAgentURL(registered) == normalized {
			return true
		}
	}

	return false
}
