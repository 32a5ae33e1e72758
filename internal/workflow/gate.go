package workflow

import (
	"fmt"
	"strings"

	"github.com/Kyz7/portfolio/internal/auth"
	"github.com/Kyz7/portfolio/internal/models"
)

type Policy string

const (
	// PolicyAutoApprove publishes every upload immediately, whoever the creator is.
	PolicyAutoApprove Policy = "auto_approve"
	// PolicyReview publishes admin uploads and queues everything else as pending.
	PolicyReview Policy = "review"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyAutoApprove, "":
		return PolicyAutoApprove, nil
	case PolicyReview:
		return PolicyReview, nil
	}
	return "", fmt.Errorf("unknown moderation policy %q", s)
}

var transitions = map[models.ModerationStatus][]models.ModerationStatus{
	models.StatusPending:  {models.StatusApproved, models.StatusRejected},
	models.StatusApproved: {models.StatusRejected},
	models.StatusRejected: {models.StatusApproved},
}

// CanTransition reports whether from -> to is part of the moderation state
// machine. Status updates are not blocked on it; it is recorded with each
// decision.
func CanTransition(from, to models.ModerationStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Gate decides the status of newly created resources.
type Gate struct {
	policy Policy
}

func NewGate(policy Policy) *Gate {
	return &Gate{policy: policy}
}

func (g *Gate) Policy() Policy { return g.policy }

func (g *Gate) InitialStatus(p *auth.Principal) models.ModerationStatus {
	if g.policy == PolicyReview && !p.IsAdmin() {
		return models.StatusPending
	}
	return models.StatusApproved
}
