package intent

import "strings"

var (
	productKeywords = []string{
		"bike", "bicycle", "mountain", "road", "city", "electric", "ebike",
		"recommend", "looking for", "need", "want", "price", "cost",
	}
	faqKeywords = []string{
		"warranty", "delivery", "ship", "return", "payment", "financing",
		"repair", "maintenance", "test", "insurance", "spare parts",
	}
	interestKeywords = []string{
		"interested", "buy", "purchase", "order", "like this", "want this",
		"perfect", "great", "sounds good",
	}
)

// Fallback classifies message with fixed keyword rules. The first matching rule wins.
func Fallback(message string) Result {
	lower := strings.ToLower(message)

	switch {
	case containsAny(lower, productKeywords):
		return Result{Intent: ProductInquiry, Confidence: 0.7, Fallback: true}
	case containsAny(lower, faqKeywords):
		return Result{Intent: FAQQuestion, Confidence: 0.7, Fallback: true}
	case containsAny(lower, interestKeywords):
		return Result{Intent: InterestSignal, Confidence: 0.8, Fallback: true}
	case looksLikeContact(message):
		return Result{Intent: LeadInfo, Confidence: 0.9, Fallback: true}
	}
	return Result{Intent: Chitchat, Confidence: 0.6, Fallback: true}
}

func looksLikeContact(message string) bool {
	if strings.ContainsAny(message, "@+") {
		return true
	}
	digits := strings.NewReplacer("-", "", " ", "").Replace(message)
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
