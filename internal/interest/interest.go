// Package interest spots buying intent in customer messages.
package interest

import (
	"strings"

	"github.com/yoockh/bikeshop-agent/internal/conversation"
)

var strongPhrases = []string{
	"interested",
	"i want",
	"i'd like",
	"i'll take",
	"buy",
	"purchase",
	"order",
	"how can i buy",
	"how do i order",
	"looks perfect",
	"sounds great",
	"that's the one",
	"i like this",
	"i love",
}

// Short affirmations only count right after a recommendation.
var contextualPhrases = []string{
	"yes",
	"perfect",
	"great",
	"good",
	"that works",
	"sounds good",
	"definitely",
}

const maxAffirmationWords = 3

// Detect reports whether message signals that the customer wants to buy.
func Detect(message string, c conversation.Context) bool {
	_, ok := Match(message, c)
	return ok
}

// Match is Detect that also returns the phrase that fired.
func Match(message string, c conversation.Context) (string, bool) {
	lower := strings.ToLower(message)

	for _, p := range strongPhrases {
		if strings.Contains(lower, p) {
			return p, true
		}
	}

	if !c.HasRecommendations() || len(strings.Fields(lower)) > maxAffirmationWords {
		return "", false
	}
	for _, p := range contextualPhrases {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}
