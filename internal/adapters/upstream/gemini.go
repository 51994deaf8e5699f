package upstream

import (
	"context"
	"time"

	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/logger"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini streams generate content responses
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
	log         *logger.Logger
}

// NewGemini returns a Gemini producer, an API key is required
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, perr.InvalidArgf("gemini api key is required")
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUpstream, "create gemini client")
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		log:         logger.Named("upstream.gemini"),
	}, nil
}

// Name identifies the producer in logs and analytics
func (g *Gemini) Name() string { return "gemini:" + g.model }

func (g *Gemini) config() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt(), genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}
	if g.temperature > 0 {
		t := float32(g.temperature)
		cfg.Temperature = &t
	}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.maxTokens)
	}
	return cfg
}

// Stream implements Producer
func (g *Gemini) Stream(ctx context.Context, req Request) <-chan Fragment {
	out := make(chan Fragment)
	go func() {
		defer close(out)

		contents := []*genai.Content{genai.NewContentFromText(UserPrompt(req), genai.RoleUser)}
		start := time.Now()
		n := 0
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, g.config()) {
			if err != nil {
				if ctx.Err() == nil {
					send(ctx, out, Fragment{Err: perr.Wrap(err, perr.ErrorCodeUpstream, "gemini stream failed")})
				}
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			n += len(text)
			if !send(ctx, out, Fragment{Text: text}) {
				return
			}
		}
		g.log.Debug().
			Str("debate_id", req.DebateID).
			Str("model", g.model).
			Int("bytes", n).
			Dur("took", time.Since(start)).
			Msg("gemini stream finished")
	}()
	return out
}
