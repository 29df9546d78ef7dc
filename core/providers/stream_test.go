package providers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamResultDeferredUsage(t *testing.T) {
	p := &ScriptedProvider{
		Chunks:     []string{"Hello", " world"},
		FinalUsage: Usage{InputTokens: 10, OutputTokens: 2},
	}

	result, err := p.Stream(context.Background(), &Request{Model: "test-model"})
	require.NoError(t, err)

	var b strings.Builder
	for frag := range result.Fragments() {
		b.WriteString(frag)
	}
	assert.Equal(t, "Hello world", b.String())

	usage, stop, err := result.Usage()
	require.NoError(t, err)
	assert.Equal(t, Usage{InputTokens: 10, OutputTokens: 2}, usage)
	assert.Equal(t, StopReasonEndTurn, stop)

	// Resolved once: a second call observes identical values.
	usage2, stop2, err2 := result.Usage()
	require.NoError(t, err2)
	assert.Equal(t, usage, usage2)
	assert.Equal(t, stop, stop2)
}

func TestStreamResultUsageBlocksUntilEnd(t *testing.T) {
	result := newStreamResult("m", 4)

	resolved := make(chan Usage, 1)
	go func() {
		u, _, _ := result.Usage()
		resolved <- u
	}()

	select {
	case <-resolved:
		t.Fatal("usage resolved before end-of-stream")
	case <-time.After(50 * time.Millisecond):
	}

	result.finish(Usage{InputTokens: 3, OutputTokens: 1}, StopReasonEndTurn)

	select {
	case u := <-resolved:
		assert.Equal(t, Usage{InputTokens: 3, OutputTokens: 1}, u)
	case <-time.After(time.Second):
		t.Fatal("usage never resolved")
	}
}

func TestStreamPreFirstFragmentFailureIsFatal(t *testing.T) {
	boom := errors.New("backend unavailable")
	p := &ScriptedProvider{Err: boom}

	_, err := p.Stream(context.Background(), &Request{})
	// Propagated unmodified, not wrapped.
	assert.Same(t, boom, err)
}

func TestStreamMidStreamFailure(t *testing.T) {
	boom := errors.New("connection reset")
	p := &ScriptedProvider{
		Chunks:    []string{"partial", " content", " never seen"},
		Err:       boom,
		FailAfter: 2,
	}

	result, err := p.Stream(context.Background(), &Request{})
	require.NoError(t, err)

	var got []string
	for frag := range result.Fragments() {
		got = append(got, frag)
	}
	// No partial-content recovery: the consumer keeps what arrived and the
	// error surfaces at the point of failure.
	assert.Equal(t, []string{"partial", " content"}, got)
	assert.ErrorIs(t, result.Err(), boom)

	_, _, err = result.Usage()
	assert.ErrorIs(t, err, boom)
}

func TestScriptedGenerate(t *testing.T) {
	p := &ScriptedProvider{
		Chunks:     []string{"a", "b"},
		FinalUsage: Usage{InputTokens: 5, OutputTokens: 1},
		Stop:       StopReasonMaxTokens,
	}

	resp, err := p.Generate(context.Background(), &Request{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "ab", resp.Content)
	assert.Equal(t, StopReasonMaxTokens, resp.StopReason)
	assert.Equal(t, 5, resp.Usage.InputTokens)
}

func TestAnthropicConfigValidation(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")

	cfg := DefaultAnthropicConfig()
	cfg.APIKey = "test-key"
	p, err := NewAnthropicProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
}

func TestOpenAIConfigValidation(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{})
	require.Error(t, err)

	cfg := DefaultOpenAIConfig()
	cfg.APIKey = "test-key"
	p, err := NewOpenAIProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}
