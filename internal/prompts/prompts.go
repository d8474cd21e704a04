// Package prompts holds the text the assistant sends to the model and the
// fixed replies it sends to customers.
package prompts

import (
	"fmt"
	"strings"

	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/models"
)

// Customer-facing replies.
const (
	Greeting         = "Hello! I'm your bike shop assistant. What type of bike are you looking for today?"
	AskName          = "Great! To help you further, may I have your name?"
	AskPhone         = "Perfect! And your phone number?"
	Clarify          = "Let me help you find the perfect bike. What are you looking for?"
	ChitchatGreeting = "Hello! I'm here to help you find the perfect bike. What type of bike are you looking for?"
	ChitchatDefault  = "I'm here to help you find the perfect bike. Is there anything specific you'd like to know about our bikes or services?"
	Apology          = "I apologize, but I encountered an error. Could you please try again?"
	SessionExpired   = "Session expired. Please start a new conversation."
	NoProducts       = "I couldn't find any bikes matching your criteria. Could you tell me more about what you're looking for?"
	NoFAQ            = "I'm not sure about that. Could you rephrase your question or contact our customer service?"
)

func AskEmail(name string) string {
	return fmt.Sprintf("Thanks %s! What's your email address?", name)
}

func LeadConfirmed(name string) string {
	return fmt.Sprintf("Excellent, %s! I've created your profile. A sales consultant will reach out to you within 24 hours. Is there anything else I can help you with today?", name)
}

func LeadNoted(name string) string {
	return fmt.Sprintf("Thank you, %s! I've noted your details. A sales consultant will contact you soon.", name)
}

// LeadAlreadyCreated answers buying signals after the lead exists.
func LeadAlreadyCreated(name string) string {
	return fmt.Sprintf("Thanks, %s! Your details are already with our sales team and a consultant will be in touch shortly. Is there anything else I can help you with?", name)
}

const systemTemplate = `You are a friendly and knowledgeable sales agent for an online bike shop.

Your goals:
1. Understand customer needs (bike type, budget, intended use)
2. Recommend bikes from the catalog using retrieved product information
3. Answer general questions from the FAQ knowledge base
4. Detect when the customer shows genuine interest (e.g., "I like this", "How can I order?")
5. Collect customer details (name, email, phone) when interest is confirmed
6. Create a lead in the CRM system

Guidelines:
- Be conversational and helpful
- Ask clarifying questions when needed
- Use retrieved product/FAQ data and never invent details
- Keep responses concise (2-3 sentences)
- When showing products, include name, price, and key features

Current conversation state: %s
Customer preferences: %s
Customer info collected: %s
`

// System renders the agent persona with what is known about the customer.
func System(state conversation.State, c conversation.Context) string {
	var prefs []string
	if c.BikeType != "" {
		prefs = append(prefs, "Type: "+c.BikeType)
	}
	if c.Budget != nil {
		prefs = append(prefs, fmt.Sprintf("Budget: €%d", *c.Budget))
	}
	if len(c.IntendedUse) > 0 {
		prefs = append(prefs, "Use: "+strings.Join(c.IntendedUse, ", "))
	}
	prefStr := "Not yet determined"
	if len(prefs) > 0 {
		prefStr = strings.Join(prefs, ", ")
	}

	var info []string
	if c.CustomerName != "" {
		info = append(info, "Name: "+c.CustomerName)
	}
	if c.CustomerEmail != "" {
		info = append(info, "Email: "+c.CustomerEmail)
	}
	if c.CustomerPhone != "" {
		info = append(info, "Phone: "+c.CustomerPhone)
	}
	infoStr := "None"
	if len(info) > 0 {
		infoStr = strings.Join(info, ", ")
	}

	out := fmt.Sprintf(systemTemplate, state, prefStr, infoStr)
	if c.PriorSummary != "" {
		out += "Previous conversations with this customer: " + c.PriorSummary + "\n"
	}
	return out
}

const IntentExamples = `
Examples:

Message: "I need a mountain bike for trail riding"
Intent: PRODUCT_INQUIRY

Message: "What's the warranty on electric bikes?"
Intent: FAQ_QUESTION

Message: "My name is John Doe"
Intent: LEAD_INFO

Message: "The Trailblazer 500 looks perfect!"
Intent: INTEREST_SIGNAL

Message: "Hello!"
Intent: CHITCHAT

Message: "Do you ship to Austria?"
Intent: FAQ_QUESTION

Message: "I'm interested in the Urban Cruiser"
Intent: INTEREST_SIGNAL

Message: "john@example.com"
Intent: LEAD_INFO
`

const intentTemplate = `Classify the user's intent from their message.

Intent types:
1. PRODUCT_INQUIRY: User wants bike recommendations or asks about bike features
2. FAQ_QUESTION: General question about delivery, warranty, payment, services, etc.
3. LEAD_INFO: User provides personal details (name, email, phone)
4. INTEREST_SIGNAL: User shows buying intent ("I like this", "interested", "want to buy")
5. CHITCHAT: Greeting, small talk, off-topic

User message: %q

Recent context:
%s

Respond with ONLY the intent type (one of the 5 options above) and a confidence score 0-1.
Format: {"intent": "INTENT_TYPE", "confidence": 0.95}
`

// Intent renders the classification prompt with the last two turns of history.
func Intent(message string, history []conversation.Message) string {
	if len(history) > 2 {
		history = history[len(history)-2:]
	}
	var lines []string
	for _, m := range history {
		switch m.Role {
		case conversation.RoleUser:
			lines = append(lines, "User: "+m.Content)
		case conversation.RoleAssistant:
			lines = append(lines, "Assistant: "+m.Content)
		}
	}
	ctx := "No prior context"
	if len(lines) > 0 {
		ctx = strings.Join(lines, "\n")
	}
	return fmt.Sprintf(intentTemplate, message, ctx)
}

const recommendationTemplate = `Based on the customer's needs, recommend the most suitable bikes from the search results.

Customer query: %q
Customer preferences:
- Type: %s
- Budget: %s
- Intended use: %s

Retrieved products:
%s
Provide a natural, conversational response recommending the top 2-3 bikes. Include:
- Product name and price
- Key features that match their needs
- Why it's a good fit

Keep it concise and friendly.
`

func Recommendation(query string, c conversation.Context, products []models.ScoredProduct) string {
	bikeType := orUnspecified(c.BikeType)
	budget := "Not specified"
	if c.Budget != nil {
		budget = fmt.Sprintf("€%d", *c.Budget)
	}
	uses := orUnspecified(strings.Join(c.IntendedUse, ", "))
	return fmt.Sprintf(recommendationTemplate, query, bikeType, budget, uses, formatProducts(products))
}

func formatProducts(products []models.ScoredProduct) string {
	var b strings.Builder
	for i, sp := range products {
		p := sp.Product
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Name)
		fmt.Fprintf(&b, "   Brand: %s\n", p.Brand)
		fmt.Fprintf(&b, "   Type: %s\n", p.Type)
		fmt.Fprintf(&b, "   Price: €%d\n", p.PriceEUR)
		fmt.Fprintf(&b, "   Features: %s frame, %s, %s\n", p.FrameMaterial, p.Suspension, p.Brakes)
		fmt.Fprintf(&b, "   Gears: %d, Wheel size: %g\", Weight: %gkg\n", p.Gears, p.WheelSize, p.WeightKG)
		fmt.Fprintf(&b, "   Intended use: %s\n", strings.Join(p.IntendedUse, ", "))
		fmt.Fprintf(&b, "   Color: %s\n", p.Color)
		if e := p.Electric; e != nil && e.MotorPowerW > 0 {
			fmt.Fprintf(&b, "   Motor: %dW, Battery: %dWh, Range: %dkm\n", e.MotorPowerW, e.BatteryCapacityWh, e.RangeKM)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FallbackRecommendation lists the top two products without the model.
func FallbackRecommendation(products []models.ScoredProduct) string {
	if len(products) == 0 {
		return NoProducts
	}
	if len(products) > 2 {
		products = products[:2]
	}

	var b strings.Builder
	b.WriteString("Based on your needs, I recommend:")
	for _, sp := range products {
		p := sp.Product
		uses := p.IntendedUse
		if len(uses) > 2 {
			uses = uses[:2]
		}
		useStr := "various activities"
		if len(uses) > 0 {
			useStr = strings.Join(uses, ", ")
		}
		fmt.Fprintf(&b, "\n- %s by %s (€%d): %s frame, %d gears, perfect for %s.", p.Name, p.Brand, p.PriceEUR, p.FrameMaterial, p.Gears, useStr)
	}
	b.WriteString("\n\nWould you like more details about any of these bikes?")
	return b.String()
}

const faqTemplate = `Answer the customer's question using the FAQ information provided.

Customer question: %q

Relevant FAQ entries:
%s
Provide a natural, helpful answer based on the FAQ. Don't add information not in the FAQ.
Keep it concise (2-3 sentences).
`

func FAQAnswer(query string, entries []models.ScoredFAQ) string {
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "FAQ %d:\nQ: %s\nA: %s\n\n", i+1, e.Entry.Question, e.Entry.Answer)
	}
	return fmt.Sprintf(faqTemplate, query, b.String())
}

func orUnspecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}
