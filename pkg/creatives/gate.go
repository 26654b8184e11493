// Package creatives decides whether the creatives attached to a media buy are
// complete enough to send to the ad server.
package creatives

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence"
)

// ErrCreativeNotReady marks a creative missing the content required for
// activation.
var ErrCreativeNotReady = errors.New("creative is missing required content")

// Problem describes one creative that failed the gate.
type Problem struct {
	CreativeID string
	Reason     string
}

// ValidationError aggregates every failing creative of a media buy. The gate
// is all-or-nothing, so a single error carries the full list instead of
// stopping at the first offender.
type ValidationError struct {
	MediaBuyID string
	Problems   []Problem
}

func (e *ValidationError) Error() string {
	reasons := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		reasons[i] = fmt.Sprintf("%s: %s", p.CreativeID, p.Reason)
	}

	return fmt.Sprintf("media buy %s has %d creative(s) not ready: %s",
		e.MediaBuyID, len(e.Problems), strings.Join(reasons, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrCreativeNotReady
}

// IsValidationError reports whether err is a creative gate failure.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

// Gate loads and checks creatives before dispatch.
type Gate struct {
	creatives persistence.CreativeRepository
}

// NewGate creates a creative gate over the given repository.
func NewGate(creatives persistence.CreativeRepository) *Gate {
	return &Gate{creatives: creatives}
}

// Check batch-loads every referenced creative and verifies each is ready for
// activation. A missing creative fails the load as a whole; content problems
// are collected across all creatives and returned in one ValidationError.
// Generative creatives are exempt from content checks because their content
// is produced by the agent after activation.
func (g *Gate) Check(ctx context.Context, tenantID, mediaBuyID string, creativeIDs []string, specs map[string]*models.FormatSpec) error {
	if len(creativeIDs) == 0 {
		return nil
	}

	loaded, err := g.creatives.GetByIDs(ctx, tenantID, creativeIDs)
	if err != nil {
		return err
	}

	var problems []Problem

	for _, creative := range loaded {
		spec := specs[creative.CreativeID]
		if spec != nil && spec.IsGenerative {
			continue
		}

		problems = append(problems, inspect(creative)...)
	}

	if len(problems) > 0 {
		return &ValidationError{MediaBuyID: mediaBuyID, Problems: problems}
	}

	return nil
}

// inspect resolves the creative's effective content. Slot-bound assets win,
// then any asset carrying content, then the top-level fields.
func inspect(creative *models.Creative) []Problem {
	url, width, height := effectiveContent(creative)

	var problems []Problem

	if url == "" {
		problems = append(problems, Problem{
			CreativeID: creative.CreativeID,
			Reason:     "no content URL",
		})
	}

	if width <= 0 || height <= 0 {
		problems = append(problems, Problem{
			CreativeID: creative.CreativeID,
			Reason:     fmt.Sprintf("invalid dimensions %gx%g", width, height),
		})
	}

	return problems
}

func effectiveContent(creative *models.Creative) (url string, width, height float64) {
	for _, asset := range creative.Assets {
		if asset.SlotID != "" && asset.URL != "" {
			return asset.URL, asset.Width, asset.Height
		}
	}

	for _, asset := range creative.Assets {
		if asset.URL != "" {
			return asset.URL, asset.Width, asset.Height
		}
	}

	return creative.ContentURL, creative.Width, creative.Height
}
