package conversation

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RecommendedProduct is the short form of a product shown in the last recommendation.
type RecommendedProduct struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	PriceEUR int    `json:"price_eur"`
}

// Context carries what the assistant learned about the customer.
type Context struct {
	BikeType    string   `json:"bike_type,omitempty"`
	Budget      *int     `json:"budget,omitempty"`
	IntendedUse []string `json:"intended_use"`

	ShownProductIDs []int `json:"shown_product_ids"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	RecommendedProducts []RecommendedProduct `json:"recommended_products"`

	// PriorSummary is what customer memory recalled when the session started.
	PriorSummary string `json:"prior_summary,omitempty"`
}

// AddIntendedUse appends a use tag unless it is already known.
func (c *Context) AddIntendedUse(tag string) {
	for _, t := range c.IntendedUse {
		if t == tag {
			return
		}
	}
	c.IntendedUse = append(c.IntendedUse, tag)
}

// MarkShown records a product id once. It reports whether the id was new.
func (c *Context) MarkShown(id int) bool {
	for _, v := range c.ShownProductIDs {
		if v == id {
			return false
		}
	}
	c.ShownProductIDs = append(c.ShownProductIDs, id)
	return true
}

// HasRecommendations reports whether the last product turn showed anything.
func (c *Context) HasRecommendations() bool { return len(c.RecommendedProducts) > 0 }

// Session is one customer's conversation.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id,omitempty"`

	State    State     `json:"state"`
	Context  Context   `json:"context"`
	Messages []Message `json:"messages"`

	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// NewSession returns a session in GREETING with an empty context and log.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		State:      StateGreeting,
		Context:    Context{IntendedUse: []string{}, ShownProductIDs: []int{}, RecommendedProducts: []RecommendedProduct{}},
		Messages:   []Message{},
		CreatedAt:  now,
		LastActive: now,
	}
}

// AddMessage appends to the transcript and refreshes LastActive.
func (s *Session) AddMessage(role, content string) {
	now := s.touch()
	s.Messages = append(s.Messages, Message{Role: role, Content: content, Timestamp: now})
}

// UpdateState moves the session to next and refreshes LastActive.
func (s *Session) UpdateState(next State) {
	s.State = next
	s.touch()
}

// Apply runs ev through Transition and stores the result. It returns the new state.
func (s *Session) Apply(ev Event) State {
	next := Transition(s.State, ev)
	if next != s.State {
		s.UpdateState(next)
	}
	return s.State
}

// IsExpired reports whether the session has been idle for longer than ttl at now.
func (s *Session) IsExpired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.LastActive) > ttl
}

// RecentMessages returns at most n of the latest messages.
func (s *Session) RecentMessages(n int) []Message {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = cloneSlice(s.Messages)
	out.Context.IntendedUse = cloneSlice(s.Context.IntendedUse)
	out.Context.ShownProductIDs = cloneSlice(s.Context.ShownProductIDs)
	out.Context.RecommendedProducts = cloneSlice(s.Context.RecommendedProducts)
	if s.Context.Budget != nil {
		b := *s.Context.Budget
		out.Context.Budget = &b
	}
	return &out
}

// touch advances LastActive without ever moving it backwards.
func (s *Session) touch() time.Time {
	now := time.Now().UTC()
	if now.After(s.LastActive) {
		s.LastActive = now
	}
	return s.LastActive
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
