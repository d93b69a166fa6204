package canary

import (
	"fmt"
	"strings"

	"github.com/agentauth/core/pkg/models"
)

// Injector weaves selected canaries into a challenge payload's
// instructions without ever touching its data field or the answer
// derivation it commits to (§4.7, invariant P8).
type Injector struct {
	catalog *Catalog
}

// NewInjector builds an Injector over catalog.
func NewInjector(catalog *Catalog) *Injector {
	return &Injector{catalog: catalog}
}

// Inject selects count canaries and rewrites payload.Instructions and
// payload.Context to include them, returning the updated payload and
// the canaries that were injected (so the caller can store them
// privately in the ChallengeRecord for later extraction).
func (inj *Injector) Inject(payload models.ChallengePayload, count int) (models.ChallengePayload, []models.Canary) {
	selected := inj.catalog.Select(count, "", nil)
	if len(selected) == 0 {
		return payload, nil
	}

	var prefixLines, otherLines []string
	for _, c := range selected {
		line := fmt.Sprintf("- %s: %s", c.ID, c.Prompt)
		if c.InjectionMethod == models.InjectionPrefix {
			prefixLines = append(prefixLines, line)
		} else {
			otherLines = append(otherLines, line)
		}
	}

	instructions := payload.Instructions
	if len(prefixLines) > 0 {
		instructions = "Before starting, answer these briefly:\n" + strings.Join(prefixLines, "\n") + "\n\n" + instructions
	}
	if len(otherLines) > 0 {
		instructions = instructions + "\n\nAlso, complete these side tasks (include answers in canary_responses keyed by id):\n" + strings.Join(otherLines, "\n")
	}

	ids := make([]string, len(selected))
	for i, c := range selected {
		ids[i] = c.ID
	}

	if payload.Context == nil {
		payload.Context = make(map[string]interface{})
	}
	payload.Context["canary_ids"] = ids
	payload.Instructions = instructions

	return payload, selected
}
