// Package gemini provides an implementation of model.Model backed by the
// Google Gen AI SDK (Gemini API or Vertex AI).
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/hupe1980/reactmesh/core"
	"github.com/hupe1980/reactmesh/model"
)

// Options configures the Gemini model adapter.
type Options struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// Model wraps the Gemini streaming API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a Gemini model. Without an explicit API key the SDK reads
// GEMINI_API_KEY or GOOGLE_API_KEY.
func NewModel(ctx context.Context, apiKey string, optFns ...func(o *Options)) (*Model, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return NewModelFromClient(client, optFns...), nil
}

// NewModelFromClient creates a Gemini model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:           "gemini-2.5-flash",
		Temperature:     0,
		MaxOutputTokens: 4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, opts: opts}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		system, rest := model.SplitSystem(req.Messages)

		temperature := m.opts.Temperature
		cfg := &genai.GenerateContentConfig{
			Temperature:     &temperature,
			MaxOutputTokens: m.opts.MaxOutputTokens,
			StopSequences:   req.Stop,
		}
		if system != "" {
			cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
		}

		if err := m.stream(ctx, buildContents(rest), cfg, out); err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

// buildContents converts rendered turns to Gemini contents.
func buildContents(msgs []core.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Content == "" {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if msg.Role == core.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

func (m *Model) stream(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig, out chan<- model.Response) error {
	var (
		id           string
		finishReason = "stop"
		usage        *model.TokenUsage
	)

	for resp, err := range m.client.Models.GenerateContentStream(ctx, m.opts.Model, contents, cfg) {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("gemini streaming error: %w", err)
		}

		id = resp.ResponseID
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			finishReason = string(resp.Candidates[0].FinishReason)
		}
		if md := resp.UsageMetadata; md != nil {
			usage = &model.TokenUsage{
				PromptTokens:     int(md.PromptTokenCount),
				CompletionTokens: int(md.CandidatesTokenCount),
				TotalTokens:      int(md.TotalTokenCount),
			}
		}

		if text := resp.Text(); text != "" {
			if !model.Send(ctx, out, model.Response{ID: id, Partial: true, Content: text}) {
				return ctx.Err()
			}
		}
	}

	if !model.Send(ctx, out, model.Response{ID: id, Partial: false, FinishReason: finishReason, Usage: usage}) {
		return ctx.Err()
	}

	return nil
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:     m.opts.Model,
		Provider: "gemini",
	}
}
