package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrBareStringFormat is returned when a creative format arrives as a bare
// string instead of a structured {agent_url, format_id} reference.
var ErrBareStringFormat = errors.New("creative format must be a structured object, not a string")

// FormatRef is a structured reference to a creative format hosted by a
// creative agent.
type FormatRef struct {
	AgentURL string `json:"agent_url" validate:"required,url"`
	FormatID string `json:"format_id" validate:"required"`
}

// UnmarshalJSON rejects the legacy bare-string form. Callers must send
// structured references; a string is caller error, never silently coerced.
func (f *FormatRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return ErrBareStringFormat
	}

	type alias FormatRef

	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	*f = FormatRef(a)

	return nil
}

// FormatSpec describes a creative format as published by a creative agent.
// Generative formats produce a different reference format later and are exempt
// from structural asset checks.
type FormatSpec struct {
	FormatID     string      `json:"format_id"`
	AgentURL     string      `json:"agent_url"`
	Name         string      `json:"name"`
	IsGenerative bool        `json:"is_generative"`
	AssetSlots   []AssetSlot `json:"asset_slots,omitempty"`
}

// AssetSlot is one required asset position within a format.
type AssetSlot struct {
	SlotID   string `json:"slot_id"`
	Required bool   `json:"required"`
}

// CreativeAsset is one piece of content attached to a creative, optionally
// bound to a slot of its format.
type CreativeAsset struct {
	SlotID string  `json:"slot_id,omitempty"`
	URL    string  `json:"url,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Creative is a buyer-owned piece of ad content referenced by packages.
type Creative struct {
	CreativeID  string          `json:"creative_id" validate:"required"`
	TenantID    string          `json:"tenant_id"   validate:"required"`
	PrincipalID string          `json:"principal_id"`
	Name        string          `json:"name"`
	Format      FormatRef       `json:"format"`
	Assets      []CreativeAsset `json:"assets,omitempty"`

	// Top-level fallbacks used when no asset carries the content.
	ContentURL string  `json:"content_url,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`

	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreativeAssignment binds a creative to a package of a media buy. The triple
// (media_buy_id, package_id, creative_id) is unique; rows are created only
// after format compatibility is confirmed.
type CreativeAssignment struct {
	AssignmentID string    `json:"assignment_id"`
	TenantID     string    `json:"tenant_id"    validate:"required"`
	MediaBuyID   string    `json:"media_buy_id" validate:"required"`
	PackageID    string    `json:"package_id"   validate:"required"`
	CreativeID   string    `json:"creative_id"  validate:"required"`
	Weight       int       `json:"weight,omitempty"`
	PlacementIDs []string  `json:"placement_ids,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
