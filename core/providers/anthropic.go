package providers

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider for Anthropic's Claude models.
type AnthropicProvider struct {
	client *anthropic.Client
	config AnthropicConfig
}

// NewAnthropicProvider creates a new Anthropic provider with the given
// configuration. A missing API key fails here, not at first use.
func NewAnthropicProvider(config AnthropicConfig) (*AnthropicProvider, error) {
	if config.Model == "" {
		config.Model = DefaultAnthropicConfig().Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultAnthropicConfig().MaxTokens
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{client: &client, config: config}, nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string {
	return string(ProviderTypeAnthropic)
}

// Generate performs a non-streaming completion request.
func (p *AnthropicProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	params := p.buildParams(req)

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic generate: %w", err)
	}

	var content string
	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += b.Text
		}
	}

	return &Response{
		Content:    content,
		Model:      string(msg.Model),
		StopReason: convertAnthropicStopReason(msg.StopReason),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

// Stream opens a streaming completion and returns the lazy fragment
// sequence. The call blocks until the backend produces its first text
// fragment; an error before that point is returned directly and unmodified.
func (p *AnthropicProvider) Stream(ctx context.Context, req *Request) (*StreamResult, error) {
	params := p.buildParams(req)
	model := string(params.Model)

	result := newStreamResult(model, 64)
	opened := make(chan struct{})
	fatal := make(chan error, 1)

	go func() {
		stream := p.client.Messages.NewStreaming(ctx, params)

		var inputTokens, outputTokens int
		var stopReason StopReason
		emitted := false

		for stream.Next() {
			event := stream.Current()
			switch ev := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
					if !emitted {
						emitted = true
						close(opened)
					}
					result.emit(delta.Text)
				}
			case anthropic.MessageStartEvent:
				if ev.Message.Usage.InputTokens > 0 {
					inputTokens = int(ev.Message.Usage.InputTokens)
				}
			case anthropic.MessageDeltaEvent:
				if ev.Usage.OutputTokens > 0 {
					outputTokens = int(ev.Usage.OutputTokens)
				}
				if ev.Delta.StopReason != "" {
					stopReason = convertAnthropicStopReason(ev.Delta.StopReason)
				}
			}
		}

		usage := Usage{InputTokens: inputTokens, OutputTokens: outputTokens}
		if err := stream.Err(); err != nil {
			if !emitted {
				// Failure before the first fragment is fatal to the caller.
				fatal <- err
				result.fail(err, usage)
				return
			}
			result.fail(fmt.Errorf("anthropic stream: %w", err), usage)
			return
		}

		if stopReason == "" {
			stopReason = StopReasonEndTurn
		}
		result.finish(usage, stopReason)
		if !emitted {
			// Zero-fragment streams still hand the result back.
			close(opened)
		}
	}()

	select {
	case err := <-fatal:
		return nil, err
	case <-opened:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// buildParams constructs Anthropic API parameters from a Request.
func (p *AnthropicProvider) buildParams(req *Request) anthropic.MessageNewParams {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleUser:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: messages,
	}

	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	} else if p.config.Temperature > 0 {
		params.Temperature = anthropic.Float(p.config.Temperature)
	}

	return params
}

// convertAnthropicStopReason maps Anthropic stop reasons to generic ones.
func convertAnthropicStopReason(reason anthropic.StopReason) StopReason {
	switch reason {
	case anthropic.StopReasonMaxTokens:
		return StopReasonMaxTokens
	case anthropic.StopReasonStopSequence:
		return StopReasonStopSequence
	default:
		return StopReasonEndTurn
	}
}
