package workflow

import (
	"time"

	"github.com/buyflow/buyflow/pkg/models"
)

// StatusInput is everything the status computation depends on. The resolver
// is a pure function of this struct and the clock passed by the caller.
type StatusInput struct {
	ManualApprovalRequired bool
	HasCreatives           bool
	CreativesApproved      bool
	StartTime              time.Time
	EndTime                time.Time
}

// ResolveStatus computes the externally visible status of a media buy. The
// rules apply top down and the first match wins:
//
//  1. flight over            -> completed
//  2. waiting on approval,
//     creatives, or start    -> pending_activation
//  3. otherwise              -> active
//
// paused is reserved for the pause flag and is not produced here.
func ResolveStatus(in StatusInput, now time.Time) models.MediaBuyStatus {
	if now.After(in.EndTime) {
		return models.MediaBuyStatusCompleted
	}

	if in.ManualApprovalRequired || !in.HasCreatives || !in.CreativesApproved || now.Before(in.StartTime) {
		return models.MediaBuyStatusPendingActivation
	}

	return models.MediaBuyStatusActive
}
