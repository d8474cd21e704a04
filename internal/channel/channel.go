// Package channel is the Redis contract between the live chat socket and the
// chat workers: inbound messages go on a stream, events come back on pub/sub.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yoockh/bikeshop-agent/internal/models"
	"github.com/yoockh/bikeshop-agent/internal/utils"
)

const (
	InboundStream = "chat:inbound"
	WorkerGroup   = "chat-workers"

	// inbound streams are trimmed to roughly this many entries
	maxStreamLen = 10000
)

var ErrMalformed = errors.New("channel: malformed inbound message")

func EventsChannel(sessionID string) string { return "conversation:" + sessionID + ":events" }

// Inbound is one customer message waiting for a worker. Exactly one of Text
// and AudioBase64 is set.
type Inbound struct {
	SessionID   string
	Text        string
	AudioBase64 string
	Language    string
	QueuedAt    time.Time
}

func (in Inbound) values() map[string]any {
	v := map[string]any{
		"session_id": in.SessionID,
		"queued_at":  strconv.FormatInt(in.QueuedAt.UnixMilli(), 10),
	}
	if in.Text != "" {
		v["text"] = in.Text
	}
	if in.AudioBase64 != "" {
		v["audio_base64"] = in.AudioBase64
		v["language"] = in.Language
	}
	return v
}

// ParseInbound reads an Inbound back from a stream entry.
func ParseInbound(msg redis.XMessage) (Inbound, error) {
	get := func(k string) string {
		s, _ := msg.Values[k].(string)
		return s
	}

	in := Inbound{
		SessionID:   get("session_id"),
		Text:        get("text"),
		AudioBase64: get("audio_base64"),
		Language:    get("language"),
	}
	if ms, err := strconv.ParseInt(get("queued_at"), 10, 64); err == nil {
		in.QueuedAt = time.UnixMilli(ms).UTC()
	}
	if in.SessionID == "" || (in.Text == "") == (in.AudioBase64 == "") {
		return Inbound{}, ErrMalformed
	}
	return in, nil
}

// Enqueue appends in to the inbound stream.
func Enqueue(ctx context.Context, rdb *redis.Client, in Inbound) error {
	if in.QueuedAt.IsZero() {
		in.QueuedAt = time.Now().UTC()
	}
	return rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: InboundStream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: in.values(),
	}).Err()
}

// Event is what the socket forwards to the browser.
type Event struct {
	Type string `json:"type"` // status | transcript | reply | error

	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`

	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`

	Response    string                  `json:"response,omitempty"`
	Products    []models.ProductSummary `json:"products,omitempty"`
	LeadCreated bool                    `json:"lead_created,omitempty"`
	State       string                  `json:"state,omitempty"`

	Code utils.Code `json:"code,omitempty"`

	Timestamp string `json:"timestamp"`
}

func stamp(ev Event) Event {
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	return ev
}

func Status(status, message string) Event {
	return stamp(Event{Type: "status", Status: status, Message: message})
}

func Error(code utils.Code, message string) Event {
	return stamp(Event{Type: "error", Code: code, Message: message})
}

func Transcript(text string, confidence float64) Event {
	return stamp(Event{Type: "transcript", Text: text, Confidence: confidence})
}

func Reply(response string, products []models.ProductSummary, leadCreated bool, state string) Event {
	return stamp(Event{Type: "reply", Response: response, Products: products, LeadCreated: leadCreated, State: state})
}

// Publish sends ev to everyone listening on the session.
func Publish(ctx context.Context, rdb *redis.Client, sessionID string, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, EventsChannel(sessionID), b).Err()
}
