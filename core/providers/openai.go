package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements Provider for OpenAI chat models. It exists so
// the backend is substitutable without touching the composers or the
// coaching manager; nothing above this package knows which vendor is wired.
type OpenAIProvider struct {
	client *openai.Client
	config OpenAIConfig
}

// NewOpenAIProvider creates a new OpenAI provider with the given
// configuration.
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.Model == "" {
		config.Model = DefaultOpenAIConfig().Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultOpenAIConfig().MaxTokens
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
	if config.Organization != "" {
		opts = append(opts, option.WithHeader("OpenAI-Organization", config.Organization))
	}

	client := openai.NewClient(opts...)
	return &OpenAIProvider{client: &client, config: config}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return string(ProviderTypeOpenAI)
}

// Generate performs a non-streaming completion request.
func (p *OpenAIProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	params := p.buildParams(req)

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai generate: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai generate: empty choices")
	}

	choice := completion.Choices[0]
	return &Response{
		Content:    choice.Message.Content,
		Model:      completion.Model,
		StopReason: convertOpenAIFinishReason(choice.FinishReason),
		Usage: Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}, nil
}

// Stream opens a streaming completion. Same contract as the Anthropic
// provider: blocks until the first fragment, pre-first failures return
// directly and unmodified.
func (p *OpenAIProvider) Stream(ctx context.Context, req *Request) (*StreamResult, error) {
	params := p.buildParams(req)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	result := newStreamResult(string(params.Model), 64)
	opened := make(chan struct{})
	fatal := make(chan error, 1)

	go func() {
		stream := p.client.Chat.Completions.NewStreaming(ctx, params)

		var usage Usage
		var stopReason StopReason
		emitted := false

		for stream.Next() {
			chunk := stream.Current()

			// The usage-bearing final chunk arrives with empty choices.
			if chunk.Usage.TotalTokens > 0 {
				usage.InputTokens = int(chunk.Usage.PromptTokens)
				usage.OutputTokens = int(chunk.Usage.CompletionTokens)
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			choice := chunk.Choices[0]
			if choice.FinishReason != "" {
				stopReason = convertOpenAIFinishReason(choice.FinishReason)
			}
			if choice.Delta.Content != "" {
				if !emitted {
					emitted = true
					close(opened)
				}
				result.emit(choice.Delta.Content)
			}
		}

		if err := stream.Err(); err != nil {
			if !emitted {
				fatal <- err
				result.fail(err, usage)
				return
			}
			result.fail(fmt.Errorf("openai stream: %w", err), usage)
			return
		}

		if stopReason == "" {
			stopReason = StopReasonEndTurn
		}
		result.finish(usage, stopReason)
		if !emitted {
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

// buildParams constructs OpenAI API parameters from a Request.
func (p *OpenAIProvider) buildParams(req *Request) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(model),
		Messages:  messages,
		MaxTokens: openai.Int(int64(maxTokens)),
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	} else if p.config.Temperature > 0 {
		params.Temperature = openai.Float(p.config.Temperature)
	}

	return params
}

// convertOpenAIFinishReason maps OpenAI finish reasons to generic ones.
func convertOpenAIFinishReason(reason string) StopReason {
	switch reason {
	case "length":
		return StopReasonMaxTokens
	case "stop":
		return StopReasonEndTurn
	default:
		return StopReasonEndTurn
	}
}
