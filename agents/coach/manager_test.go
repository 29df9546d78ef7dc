package coach

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbound-labs/compass/core/events"
	"github.com/northbound-labs/compass/core/providers"
	"github.com/northbound-labs/compass/core/session"
)

func newTestManager(t *testing.T, provider providers.Provider, sink events.Sink) *Manager {
	t.Helper()
	m, err := NewManager(ManagerConfig{
		Provider:  provider,
		Sink:      sink,
		SessionID: "sess-1",
	})
	require.NoError(t, err)
	return m
}

func TestNewManagerRequiresProvider(t *testing.T) {
	_, err := NewManager(ManagerConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider is required")
}

func TestSendStreamingConcatenatesFragments(t *testing.T) {
	provider := &providers.ScriptedProvider{
		Chunks:     []string{"Hello", " world"},
		FinalUsage: providers.Usage{InputTokens: 10, OutputTokens: 2},
	}
	sink := &events.MemorySink{}
	m := newTestManager(t, provider, sink)

	stream, err := m.SendStreaming(context.Background(), fullContext(), session.NewState(), nil, "hi")
	require.NoError(t, err)
	assert.Equal(t, StateStreaming, m.State())

	var content string
	for fragment := range stream.Fragments() {
		content += fragment
	}
	assert.Equal(t, "Hello world", content)

	usage, stop, err := stream.Usage()
	require.NoError(t, err)
	assert.Equal(t, providers.Usage{InputTokens: 10, OutputTokens: 2}, usage)
	assert.Equal(t, providers.StopReasonEndTurn, stop)
	assert.Equal(t, StateCompleted, m.State())
}

func TestStreamUsageResolvesOnce(t *testing.T) {
	provider := &providers.ScriptedProvider{
		Chunks:     []string{"ok"},
		FinalUsage: providers.Usage{InputTokens: 3, OutputTokens: 1},
	}
	sink := &events.MemorySink{}
	m := newTestManager(t, provider, sink)

	stream, err := m.SendStreaming(context.Background(), fullContext(), session.NewState(), nil, "hi")
	require.NoError(t, err)
	for range stream.Fragments() {
	}

	first, _, err := stream.Usage()
	require.NoError(t, err)
	second, _, err := stream.Usage()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// One telemetry event no matter how many times usage is read.
	require.Len(t, sink.Events(), 1)
	e := sink.Events()[0]
	assert.Equal(t, "llm_usage", e.Name)
	assert.Equal(t, 3, e.Props["input_tokens"])
	assert.Equal(t, 1, e.Props["output_tokens"])
	assert.Equal(t, "sess-1", e.Props["session_id"])
}

func TestSendStreamingPreStreamFailure(t *testing.T) {
	boom := errors.New("backend down")
	provider := &providers.ScriptedProvider{Err: boom}
	sink := &events.MemorySink{}
	m := newTestManager(t, provider, sink)

	_, err := m.SendStreaming(context.Background(), fullContext(), session.NewState(), nil, "hi")
	// Propagated unmodified, not wrapped.
	assert.Same(t, boom, err)
	assert.Equal(t, StateFailed, m.State())
	assert.Empty(t, sink.Events())
}

func TestSendStreamingMidStreamFailure(t *testing.T) {
	boom := errors.New("connection reset")
	provider := &providers.ScriptedProvider{
		Chunks:    []string{"partial", " content"},
		Err:       boom,
		FailAfter: 1,
	}
	sink := &events.MemorySink{}
	m := newTestManager(t, provider, sink)

	stream, err := m.SendStreaming(context.Background(), fullContext(), session.NewState(), nil, "hi")
	require.NoError(t, err)

	var content string
	for fragment := range stream.Fragments() {
		content += fragment
	}
	assert.Equal(t, "partial", content)

	_, _, err = stream.Usage()
	assert.Same(t, boom, err)
	assert.Equal(t, StateFailed, m.State())
	assert.Empty(t, sink.Events(), "failed turns emit no usage event")
}

func TestSendStreamingSwallowsTelemetryFailure(t *testing.T) {
	provider := &providers.ScriptedProvider{
		Chunks:     []string{"fine"},
		FinalUsage: providers.Usage{InputTokens: 1, OutputTokens: 1},
	}
	sink := &events.MemorySink{Err: errors.New("sink down")}
	m := newTestManager(t, provider, sink)

	stream, err := m.SendStreaming(context.Background(), fullContext(), session.NewState(), nil, "hi")
	require.NoError(t, err)
	for range stream.Fragments() {
	}

	_, _, err = stream.Usage()
	require.NoError(t, err, "telemetry failure never reaches the caller")
	assert.Equal(t, StateCompleted, m.State())
}

func TestSendOnce(t *testing.T) {
	provider := &providers.ScriptedProvider{
		Chunks:     []string{"one ", "answer"},
		FinalUsage: providers.Usage{InputTokens: 7, OutputTokens: 4},
		Stop:       providers.StopReasonMaxTokens,
	}
	sink := &events.MemorySink{}
	m := newTestManager(t, provider, sink)

	res, err := m.SendOnce(context.Background(), fullContext(), session.NewState(), nil, "hi")
	require.NoError(t, err)
	assert.Equal(t, "one answer", res.Content)
	assert.Equal(t, 7, res.InputTokens)
	assert.Equal(t, 4, res.OutputTokens)
	assert.Equal(t, providers.StopReasonMaxTokens, res.StopReason)
	assert.Equal(t, StateCompleted, m.State())
	assert.Len(t, sink.Events(), 1)
}

func TestSendOnceFailure(t *testing.T) {
	boom := errors.New("backend down")
	m := newTestManager(t, &providers.ScriptedProvider{Err: boom}, nil)

	_, err := m.SendOnce(context.Background(), fullContext(), session.NewState(), nil, "hi")
	assert.Same(t, boom, err)
	assert.Equal(t, StateFailed, m.State())
}

func TestBuildRequestAppendsUserTurn(t *testing.T) {
	provider := &providers.ScriptedProvider{Chunks: []string{"ok"}}
	m := newTestManager(t, provider, nil)

	history := []providers.Message{
		{Role: providers.RoleUser, Content: "earlier question"},
		{Role: providers.RoleAssistant, Content: "earlier answer"},
	}
	_, err := m.SendOnce(context.Background(), fullContext(), session.NewState(), history, "new question")
	require.NoError(t, err)

	require.Len(t, provider.Requests, 1)
	req := provider.Requests[0]
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "earlier question", req.Messages[0].Content)
	assert.Equal(t, "new question", req.Messages[2].Content)
	assert.Equal(t, providers.RoleUser, req.Messages[2].Role)
	assert.Contains(t, req.SystemPrompt, "# COMPASS STRATEGY COACH")
}
