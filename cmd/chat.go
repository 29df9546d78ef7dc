package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/northbound-labs/compass/agents/coach"
	"github.com/northbound-labs/compass/core/clientcontext"
	"github.com/northbound-labs/compass/core/config"
	"github.com/northbound-labs/compass/core/events"
	"github.com/northbound-labs/compass/core/personas"
	"github.com/northbound-labs/compass/core/providers"
	"github.com/northbound-labs/compass/core/session"
	"github.com/northbound-labs/compass/core/store"
)

var (
	chatOrg     string
	chatUser    string
	chatSession string
	chatName    string
	chatVerbose bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start or resume a coaching conversation",
	Long: `Chat opens an interactive coaching session for an organization.

Examples:
  compass chat --org acme
  compass chat --org acme --user dana --session 7f3c...`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatOrg, "org", "", "organization id (required)")
	chatCmd.Flags().StringVar(&chatUser, "user", "", "user id, enables personal profile lookup")
	chatCmd.Flags().StringVar(&chatSession, "session", "", "session id to resume; omit to start fresh")
	chatCmd.Flags().StringVar(&chatName, "name", "", "name the coach addresses you by")
	chatCmd.Flags().BoolVarP(&chatVerbose, "verbose", "v", false, "verbose logging to stderr")
	chatCmd.MarkFlagRequired("org")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("chat needs an interactive terminal on stdin")
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(chatVerbose)

	st, err := store.New(store.Config{Path: cfg.Store.Path})
	if err != nil {
		return err
	}
	defer st.Close()

	registry := personas.NewRegistry(logger)
	defer registry.Close()
	overridePath := filepath.Join(cfg.Personas.Dir, "personas.yaml")
	if _, statErr := os.Stat(overridePath); statErr == nil {
		if cfg.Personas.HotReload {
			err = registry.Watch(overridePath)
		} else {
			err = registry.LoadOverrides(overridePath)
		}
		if err != nil {
			return err
		}
	}

	aggregator, err := clientcontext.NewAggregator(st, logger)
	if err != nil {
		return err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cc, err := aggregator.LoadClientContext(ctx, chatOrg, chatUser)
	if err != nil {
		return err
	}

	row, state, resuming, err := openSession(ctx, st, cc)
	if err != nil {
		return err
	}

	var sink events.Sink
	if cfg.Telemetry.Enabled {
		sink = &events.LoggingSink{Logger: logger}
	}
	manager, err := coach.NewManager(coach.ManagerConfig{
		Provider:  provider,
		Registry:  registry,
		Sink:      sink,
		Logger:    logger,
		SessionID: row.ID,
	})
	if err != nil {
		return err
	}

	fmt.Printf("session %s\n\n", row.ID)
	fmt.Println(coach.GenerateOpeningMessage(cc, state, chatName, resuming))
	fmt.Println()

	return chatLoop(ctx, chatLoopDeps{
		cfg:     cfg,
		store:   st,
		manager: manager,
		cc:      cc,
		row:     row,
		state:   state,
		stream:  cfg.Chat.Streaming,
	})
}

// openSession resumes the given session or creates a fresh one.
func openSession(ctx context.Context, st *store.Store, cc *clientcontext.ClientContext) (*store.SessionRow, session.State, bool, error) {
	if chatSession != "" {
		row, err := st.GetSession(ctx, chatSession)
		if err != nil {
			return nil, session.State{}, false, err
		}
		state, err := session.DecodeState(row.State)
		if err != nil {
			return nil, session.State{}, false, err
		}
		return row, state, true, nil
	}

	state := session.NewState()
	blob, err := session.EncodeState(state)
	if err != nil {
		return nil, session.State{}, false, err
	}
	row := store.SessionRow{
		ID:           uuid.NewString(),
		OrgID:        cc.OrgID,
		UserID:       chatUser,
		Kind:         store.SessionKindCoaching,
		State:        blob,
		CurrentPhase: string(state.CurrentPhase),
	}
	if err := st.CreateSession(ctx, row); err != nil {
		return nil, session.State{}, false, err
	}
	created, err := st.GetSession(ctx, row.ID)
	if err != nil {
		return nil, session.State{}, false, err
	}
	return created, state, false, nil
}

type chatLoopDeps struct {
	cfg     *config.Config
	store   *store.Store
	manager *coach.Manager
	cc      *clientcontext.ClientContext
	row     *store.SessionRow
	state   session.State
	stream  bool
}

func chatLoop(ctx context.Context, d chatLoopDeps) error {
	scanner := bufio.NewScanner(os.Stdin)
	var history []providers.Message
	revision := d.row.Revision
	state := d.state

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}

		reply, err := runTurn(ctx, d.manager, d.cc, state, history, input, d.stream)
		if err != nil {
			return err
		}
		fmt.Println()

		history = append(history,
			providers.Message{Role: providers.RoleUser, Content: input},
			providers.Message{Role: providers.RoleAssistant, Content: reply},
		)
		if max := d.cfg.Chat.MaxHistory; max > 0 && len(history) > max {
			history = history[len(history)-max:]
		}

		state = session.ApplyUpdate(state, session.Update{MessageDelta: 2})
		revision, state, err = persistState(ctx, d.store, d.row.ID, state, revision)
		if err != nil {
			return err
		}
	}
}

// runTurn sends one message and prints the reply, streamed or blocking.
func runTurn(ctx context.Context, m *coach.Manager, cc *clientcontext.ClientContext, state session.State, history []providers.Message, input string, streaming bool) (string, error) {
	if !streaming {
		res, err := m.SendOnce(ctx, cc, state, history, input)
		if err != nil {
			return "", err
		}
		fmt.Print(res.Content)
		fmt.Println()
		return res.Content, nil
	}

	stream, err := m.SendStreaming(ctx, cc, state, history, input)
	if err != nil {
		return "", err
	}
	var reply strings.Builder
	for fragment := range stream.Fragments() {
		fmt.Print(fragment)
		reply.WriteString(fragment)
	}
	fmt.Println()
	if _, _, err := stream.Usage(); err != nil {
		return "", err
	}
	return reply.String(), nil
}

// persistState saves the state blob under optimistic concurrency. On a
// revision conflict the row is reloaded and the save retried once against the
// fresh revision; the in-memory state still wins, which is the documented
// last-write behavior.
func persistState(ctx context.Context, st *store.Store, id string, state session.State, revision int64) (int64, session.State, error) {
	blob, err := session.EncodeState(state)
	if err != nil {
		return revision, state, err
	}

	err = st.SaveSessionState(ctx, id, blob, string(state.CurrentPhase), state.TotalMessages, revision)
	if err == store.ErrRevisionConflict {
		row, getErr := st.GetSession(ctx, id)
		if getErr != nil {
			return revision, state, getErr
		}
		revision = row.Revision
		err = st.SaveSessionState(ctx, id, blob, string(state.CurrentPhase), state.TotalMessages, revision)
	}
	if err != nil {
		return revision, state, err
	}
	return revision + 1, state, nil
}

// buildProvider constructs the configured backend.
func buildProvider(cfg *config.Config) (providers.Provider, error) {
	switch providers.ProviderType(cfg.Provider.Default) {
	case providers.ProviderTypeAnthropic:
		return providers.NewAnthropicProvider(cfg.AnthropicConfig())
	case providers.ProviderTypeOpenAI:
		return providers.NewOpenAIProvider(cfg.OpenAIConfig())
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Default)
	}
}
