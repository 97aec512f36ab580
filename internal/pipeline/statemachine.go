package pipeline

import (
	"errors"
	"fmt"

	"github.com/landsafe/landsafe/internal/model"
)

// ErrInvalidTransition: the requested move is not legal from the claim's
// current status. Treated as an integration error, fatal to the operation.
var ErrInvalidTransition = errors.New("invalid pipeline transition")

// forward is the single legal next step for each non-terminal status.
// Everything else goes through the absorbing states.
var forward = map[model.PipelineStatus]model.PipelineStatus{
	model.StatusIntakePending: model.StatusAIVerified,
	model.StatusAIVerified:    model.StatusSpatialLocked,
	model.StatusSpatialLocked: model.StatusMinted,
	model.StatusMinted:        model.StatusGovtTitleSync,
}

// CanTransition reports whether from → to is a legal move. The pipeline is
// forward-only: no status is ever revisited, and REJECTED/DISPUTED absorb
// from any non-terminal state.
func CanTransition(from, to model.PipelineStatus) bool {
	if from.Terminal() {
		return false
	}
	if to.Absorbing() {
		return true
	}
	return forward[from] == to
}

// checkTransition wraps ErrInvalidTransition with the attempted move
func checkTransition(from, to model.PipelineStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
