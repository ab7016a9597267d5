package decision

import (
	"strings"

	"AquaWatch/internal/domain/models"
	"AquaWatch/internal/domain/service"
)

// TemplateReasoner renders the decision explanation from the recorded
// observations. It is the default strategy behind the reasoning contract;
// richer text generators can replace it without touching any scorer.
type TemplateReasoner struct{}

func NewTemplateReasoner() *TemplateReasoner { return &TemplateReasoner{} }

func (r *TemplateReasoner) Explain(d *models.Decision, observations []string) string {
	if len(observations) == 0 {
		return "Normal operating conditions."
	}
	return strings.TrimSpace(strings.Join(observations, " "))
}

var _ service.Reasoner = (*TemplateReasoner)(nil)
