package coach

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/northbound-labs/compass/core/clientcontext"
	"github.com/northbound-labs/compass/core/events"
	"github.com/northbound-labs/compass/core/personas"
	"github.com/northbound-labs/compass/core/providers"
	"github.com/northbound-labs/compass/core/session"
)

// ManagerState tracks where a turn is in its lifecycle. The streaming path
// runs Idle -> Composing -> Streaming -> Completed|Failed; the blocking path
// skips Streaming.
type ManagerState string

const (
	StateIdle      ManagerState = "idle"
	StateComposing ManagerState = "composing"
	StateStreaming ManagerState = "streaming"
	StateCompleted ManagerState = "completed"
	StateFailed    ManagerState = "failed"
)

// Manager drives one session's backend calls. Its consumer-facing contract
// is single-threaded and cooperative: one turn at a time, fragments read to
// exhaustion before usage resolution. It implements no retries, no backoff,
// and no timeout of its own; callers impose any deadline via ctx.
type Manager struct {
	provider  providers.Provider
	registry  *personas.Registry
	sink      events.Sink
	logger    *slog.Logger
	sessionID string

	mu    sync.Mutex
	state ManagerState
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Provider  providers.Provider
	Registry  *personas.Registry // optional; nil uses the built-in catalog
	Sink      events.Sink        // optional; nil disables telemetry
	Logger    *slog.Logger       // optional; uses slog.Default() if nil
	SessionID string
}

// NewManager creates a session manager. The provider is required.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("coach manager: provider is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		provider:  cfg.Provider,
		registry:  cfg.Registry,
		sink:      cfg.Sink,
		logger:    cfg.Logger,
		sessionID: cfg.SessionID,
		state:     StateIdle,
	}, nil
}

// State returns the manager's current lifecycle state.
func (m *Manager) State() ManagerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s ManagerState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// TurnResult is the outcome of one blocking turn.
type TurnResult struct {
	Content      string
	InputTokens  int
	OutputTokens int
	StopReason   providers.StopReason
}

// buildRequest composes the instruction document and appends the new user
// turn to the ordered history.
func (m *Manager) buildRequest(cc *clientcontext.ClientContext, state session.State, history []providers.Message, userMessage string) *providers.Request {
	messages := make([]providers.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, providers.Message{
		Role:    providers.RoleUser,
		Content: userMessage,
	})
	return &providers.Request{
		SystemPrompt: BuildCoachingPrompt(m.registry, cc, state),
		Messages:     messages,
	}
}

// SendOnce performs one blocking turn. A backend failure is propagated
// unmodified; the caller owns any retry decision.
func (m *Manager) SendOnce(ctx context.Context, cc *clientcontext.ClientContext, state session.State, history []providers.Message, userMessage string) (*TurnResult, error) {
	m.setState(StateComposing)
	req := m.buildRequest(cc, state, history, userMessage)

	start := time.Now()
	resp, err := m.provider.Generate(ctx, req)
	if err != nil {
		m.setState(StateFailed)
		return nil, err
	}
	m.setState(StateCompleted)

	m.emitUsage(resp.Model, resp.Usage, time.Since(start))

	return &TurnResult{
		Content:      resp.Content,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		StopReason:   resp.StopReason,
	}, nil
}

// Stream is the consumer-facing streaming turn: a lazy fragment sequence
// plus a deferred usage accessor that resolves exactly once.
type Stream struct {
	result  *providers.StreamResult
	manager *Manager

	once  sync.Once
	usage providers.Usage
	stop  providers.StopReason
	err   error
}

// Fragments returns the text fragment channel. Read it to exhaustion before
// resolving usage; abandoning it early silently drops the remaining
// fragments without signaling the backend.
func (s *Stream) Fragments() <-chan string {
	return s.result.Fragments()
}

// Usage blocks until end-of-stream, resolves the token counts and stop
// reason, and emits one telemetry event with the wall-clock latency measured
// from request start. The resolution and the emission happen exactly once no
// matter how many times Usage is called. Calling it before the fragments are
// exhausted blocks rather than erroring.
func (s *Stream) Usage() (providers.Usage, providers.StopReason, error) {
	s.once.Do(func() {
		usage, stop, err := s.result.Usage()
		s.usage, s.stop, s.err = usage, stop, err

		if err != nil {
			s.manager.setState(StateFailed)
			return
		}
		s.manager.setState(StateCompleted)
		s.manager.emitUsage(s.result.Model(), usage, time.Since(s.result.StartedAt()))
	})
	return s.usage, s.stop, s.err
}

// SendStreaming opens one streaming turn. A failure before the first
// fragment is returned here, unmodified. A mid-stream failure surfaces
// through the stream itself; there is no partial-content recovery.
func (m *Manager) SendStreaming(ctx context.Context, cc *clientcontext.ClientContext, state session.State, history []providers.Message, userMessage string) (*Stream, error) {
	m.setState(StateComposing)
	req := m.buildRequest(cc, state, history, userMessage)

	result, err := m.provider.Stream(ctx, req)
	if err != nil {
		m.setState(StateFailed)
		return nil, err
	}
	m.setState(StateStreaming)

	return &Stream{result: result, manager: m}, nil
}

// emitUsage fires the per-turn telemetry event. Failures are logged and
// swallowed inside events.Emit; they never reach the caller.
func (m *Manager) emitUsage(model string, usage providers.Usage, latency time.Duration) {
	events.Emit(m.sink, m.logger, events.NewEvent("llm_usage", map[string]any{
		"model":         model,
		"input_tokens":  usage.InputTokens,
		"output_tokens": usage.OutputTokens,
		"latency_ms":    latency.Milliseconds(),
		"session_id":    m.sessionID,
	}))
}
