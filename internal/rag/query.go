package rag

import (
	"regexp"
	"strconv"
	"strings"
)

// amount accepts grouped thousands such as "2,000" or "1.500".
const amount = `(\d{1,3}(?:[.,]\d{3})+|\d+)`

var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)under (?:€)?` + amount),
	regexp.MustCompile(`(?i)below (?:€)?` + amount),
	regexp.MustCompile(`(?i)max (?:€)?` + amount),
	regexp.MustCompile(`(?i)budget (?:of )?(?:€)?` + amount),
	regexp.MustCompile(`(?i)(?:€)?` + amount + ` (?:euro|eur)`),
}

var thousandsSep = strings.NewReplacer(",", "", ".", "")

var (
	BikeTypes    = []string{"mountain", "city", "road", "electric", "hybrid", "gravel", "bmx"}
	bikeFeatures = []string{"aluminum", "carbon", "steel", "hydraulic", "disc", "suspension"}
	UseTags      = []string{"trail", "commuting", "racing", "touring", "off-road"}

	faqTopics     = []string{"warranty", "delivery", "return", "payment", "shipping", "size", "maintenance"}
	questionWords = map[string]bool{"what": true, "how": true, "when": true, "where": true, "why": true, "can": true, "do": true}
)

const maxKeywords = 5

// ExtractBudget finds a price ceiling such as "under €2000" or "1500 euro".
func ExtractBudget(text string) *int {
	for _, re := range budgetPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(thousandsSep.Replace(m[1]))
		if err != nil {
			continue
		}
		return &n
	}
	return nil
}

// ExtractBikeType returns the first bike type named in text.
func ExtractBikeType(text string) string {
	lower := strings.ToLower(text)
	for _, t := range BikeTypes {
		if strings.Contains(lower, t) {
			return t
		}
	}
	return ""
}

// ExtractUses returns every use tag named in text, in tag order.
func ExtractUses(text string) []string {
	return matching(strings.ToLower(text), UseTags)
}

// ProductQuery reduces a customer message to at most five search keywords.
func ProductQuery(text string) string {
	lower := strings.ToLower(text)

	var kw []string
	kw = append(kw, matching(lower, BikeTypes)...)
	kw = append(kw, matching(lower, bikeFeatures)...)
	kw = append(kw, matching(lower, UseTags)...)

	if len(kw) == 0 {
		for _, w := range strings.Fields(lower) {
			if len(w) > 3 {
				kw = append(kw, w)
				if len(kw) == 3 {
					break
				}
			}
		}
	}
	if len(kw) == 0 {
		return "bike"
	}
	if len(kw) > maxKeywords {
		kw = kw[:maxKeywords]
	}
	return strings.Join(kw, " ")
}

// FAQQuery keeps topic words and other content words, at most five.
func FAQQuery(text string) string {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	kw := matching(lower, faqTopics)
	seen := make(map[string]bool, len(kw))
	for _, k := range kw {
		seen[k] = true
	}

	for _, w := range words {
		if len(kw) >= maxKeywords {
			break
		}
		if questionWords[w] || len(w) <= 3 || seen[w] {
			continue
		}
		seen[w] = true
		kw = append(kw, w)
	}

	if len(kw) == 0 {
		for _, w := range words {
			if len(w) > 3 {
				kw = append(kw, w)
				if len(kw) == 3 {
					break
				}
			}
		}
	}
	if len(kw) > maxKeywords {
		kw = kw[:maxKeywords]
	}
	return strings.Join(kw, " ")
}

func matching(lower string, terms []string) []string {
	var out []string
	for _, t := range terms {
		if strings.Contains(lower, t) {
			out = append(out, t)
		}
	}
	return out
}
