package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

var _ Provider = (*VertexGemini)(nil)

func NewVertexGemini(ctx context.Context, projectID, location, modelName, credentialsFile string) (*VertexGemini, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	m := v.model(opts.Temperature)
	if opts.MaxTokens > 0 {
		m.SetMaxOutputTokens(opts.MaxTokens)
	}
	return v.send(ctx, m, messages)
}

func (v *VertexGemini) GenerateJSON(ctx context.Context, messages []Message, temperature float32, dst any) error {
	m := v.model(temperature)
	m.ResponseMIMEType = "application/json"

	text, err := v.send(ctx, m, messages)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFences(text)), dst); err != nil {
		return fmt.Errorf("llm: decode json reply: %w", err)
	}
	return nil
}

// model returns a fresh handle so per-call settings never leak between goroutines.
func (v *VertexGemini) model(temperature float32) *vertexgenai.GenerativeModel {
	m := v.client.GenerativeModel(v.modelName)
	m.SetTemperature(temperature)
	return m
}

func (v *VertexGemini) send(ctx context.Context, m *vertexgenai.GenerativeModel, messages []Message) (string, error) {
	var system []string
	var contents []*vertexgenai.Content
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant":
			contents = append(contents, &vertexgenai.Content{Role: "model", Parts: []vertexgenai.Part{vertexgenai.Text(msg.Content)}})
		default:
			contents = append(contents, &vertexgenai.Content{Role: "user", Parts: []vertexgenai.Part{vertexgenai.Text(msg.Content)}})
		}
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("llm: no user message to send")
	}
	if len(system) > 0 {
		m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(strings.Join(system, "\n\n"))}}
	}

	cs := m.StartChat()
	cs.History = contents[:len(contents)-1]
	resp, err := cs.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				out.WriteString(string(t))
			}
		}
		break
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", ErrEmptyResponse
	}
	return out.String(), nil
}

// stripFences removes a ```json fence some models wrap around JSON replies.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
