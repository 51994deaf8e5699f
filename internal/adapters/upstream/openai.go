package upstream

import (
	"context"
	"errors"
	"time"

	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/logger"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI streams chat completions
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	log         *logger.Logger
}

// NewOpenAI returns an OpenAI producer, an API key is required
func NewOpenAI(cfg Config, extra ...option.RequestOption) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, perr.InvalidArgf("openai api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		log:         logger.Named("upstream.openai"),
	}, nil
}

// Name identifies the producer in logs and analytics
func (o *OpenAI) Name() string { return "openai:" + o.model }

// Stream implements Producer
func (o *OpenAI) Stream(ctx context.Context, req Request) <-chan Fragment {
	out := make(chan Fragment)
	go func() {
		defer close(out)

		params := openai.ChatCompletionNewParams{
			Model: o.model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(SystemPrompt()),
				openai.UserMessage(UserPrompt(req)),
			},
		}
		if o.temperature > 0 {
			params.Temperature = openai.Float(o.temperature)
		}
		if o.maxTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(o.maxTokens))
		}

		start := time.Now()
		stream := o.client.Chat.Completions.NewStreaming(ctx, params)
		defer func() { _ = stream.Close() }()

		n := 0
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			text := chunk.Choices[0].Delta.Content
			if text == "" {
				continue
			}
			n += len(text)
			if !send(ctx, out, Fragment{Text: text}) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			if ctx.Err() != nil {
				return
			}
			send(ctx, out, Fragment{Err: classify(err)})
			return
		}
		o.log.Debug().
			Str("debate_id", req.DebateID).
			Str("model", o.model).
			Int("bytes", n).
			Dur("took", time.Since(start)).
			Msg("openai stream finished")
	}()
	return out
}

// classify maps provider errors onto the upstream code, keeping the status in the message
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "openai status %d", apiErr.StatusCode)
	}
	return perr.Wrap(err, perr.ErrorCodeUpstream, "openai stream failed")
}
