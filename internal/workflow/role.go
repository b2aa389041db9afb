package workflow

import (
	"context"
	"strings"
)

// DefaultRole is inferred when no vocabulary matches.
const DefaultRole = "general_user"

// roleVocabularies maps a role to the keywords that suggest it. Matching is
// case-insensitive substring search over the user message; earlier roles
// win on overlap so the order here is part of the contract.
var roleVocabularies = []struct {
	role     string
	keywords []string
}{
	{"landlord", []string{
		"landlord", "my property", "my listing", "list a property",
		"list my", "advertise", "pay-per-post", "posting fee",
	}},
	{"tenant", []string{
		"tenant", "looking for", "rent a", "find a home", "apartment",
		"house for rent", "move in", "application",
	}},
	{"admin", []string{
		"admin", "moderate", "verify listing", "refresh knowledge",
	}},
}

// RoleAnalyzer infers the requester's role from message keywords. It is
// deterministic, total, and never fails: unmatched messages get DefaultRole.
type RoleAnalyzer struct{}

func (RoleAnalyzer) Name() string { return "role_analyzer" }

func (RoleAnalyzer) Run(_ context.Context, state *ChatState) error {
	message := strings.ToLower(state.UserMessage)

	role := DefaultRole
	for _, vocab := range roleVocabularies {
		for _, kw := range vocab.keywords {
			if strings.Contains(message, kw) {
				role = vocab.role
				break
			}
		}
		if role != DefaultRole {
			break
		}
	}

	state.Metadata[MetaInferredRole] = role
	return nil
}
