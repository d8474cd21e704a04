package prompts

import (
	"strings"
	"testing"

	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/models"
)

func TestSystemRendersContext(t *testing.T) {
	budget := 2000
	c := conversation.Context{BikeType: "mountain", Budget: &budget, IntendedUse: []string{"trail"}, CustomerName: "John Doe"}

	out := System(conversation.StateNameCollected, c)
	for _, want := range []string{"Current conversation state: NAME_COLLECTED", "Type: mountain, Budget: €2000, Use: trail", "Customer info collected: Name: John Doe"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	empty := System(conversation.StateGreeting, conversation.Context{})
	if !strings.Contains(empty, "Not yet determined") || !strings.Contains(empty, "Customer info collected: None") {
		t.Errorf("unexpected empty rendering:\n%s", empty)
	}
}

func TestIntentUsesLastTwoMessages(t *testing.T) {
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "first"},
		{Role: conversation.RoleAssistant, Content: "second"},
		{Role: conversation.RoleUser, Content: "third"},
	}
	out := Intent("hello", history)
	if strings.Contains(out, "first") {
		t.Error("prompt should only carry the last two messages")
	}
	if !strings.Contains(out, "Assistant: second\nUser: third") {
		t.Errorf("context lines missing:\n%s", out)
	}
	if !strings.Contains(Intent("hi", nil), "No prior context") {
		t.Error("empty history should say so")
	}
}

func TestFallbackRecommendation(t *testing.T) {
	products := []models.ScoredProduct{
		{Product: models.Product{Name: "Trailblazer 500", Brand: "Ridge", PriceEUR: 1899, FrameMaterial: "aluminum", Gears: 12, IntendedUse: []string{"trail", "off-road", "enduro"}}},
		{Product: models.Product{Name: "Rock 300", Brand: "Ridge", PriceEUR: 999, FrameMaterial: "steel", Gears: 9, IntendedUse: []string{"trail"}}},
		{Product: models.Product{Name: "Third", Brand: "X", PriceEUR: 10}},
	}

	want := "Based on your needs, I recommend:" +
		"\n- Trailblazer 500 by Ridge (€1899): aluminum frame, 12 gears, perfect for trail, off-road." +
		"\n- Rock 300 by Ridge (€999): steel frame, 9 gears, perfect for trail." +
		"\n\nWould you like more details about any of these bikes?"
	if got := FallbackRecommendation(products); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
	if FallbackRecommendation(nil) != NoProducts {
		t.Fatal("no products should give the no-products reply")
	}
}

func TestLeadTexts(t *testing.T) {
	if got := AskEmail("John Doe"); got != "Thanks John Doe! What's your email address?" {
		t.Fatalf("AskEmail = %q", got)
	}
	if !strings.Contains(LeadConfirmed("John Doe"), "John Doe") || !strings.Contains(LeadNoted("Ana"), "Ana") {
		t.Fatal("lead replies must name the customer")
	}
}
