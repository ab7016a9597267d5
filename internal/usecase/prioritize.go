package usecase

import (
	"context"
	"fmt"

	"AquaWatch/internal/domain/models"
	domrepo "AquaWatch/internal/domain/repository"
	"AquaWatch/internal/services/decision/prioritizer"
)

// PrioritizeUseCase builds the cross-pond snapshot from the latest cached
// decisions.
type PrioritizeUseCase struct {
	decisions domrepo.DecisionCache
}

func NewPrioritizeUseCase(decisions domrepo.DecisionCache) *PrioritizeUseCase {
	return &PrioritizeUseCase{decisions: decisions}
}

func (uc *PrioritizeUseCase) Prioritize(ctx context.Context) (*models.MultiPondDecision, error) {
	snapshot, err := uc.decisions.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("prioritize snapshot: %w", err)
	}
	return prioritizer.Prioritize(snapshot), nil
}
