package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/northbound-labs/compass/agents/intake"
	"github.com/northbound-labs/compass/core/clientcontext"
	"github.com/northbound-labs/compass/core/providers"
	"github.com/northbound-labs/compass/core/store"
)

var (
	intakeOrg     string
	intakeUser    string
	intakeName    string
	intakeVerbose bool
)

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Run the profiling interview for a new user",
	Long: `Intake runs the structured profiling interview that captures who the
client is before coaching begins. On completion the profile, including a
recommended coaching persona, is stored against the user and picked up by
later chat sessions.`,
	RunE: runIntake,
}

func init() {
	intakeCmd.Flags().StringVar(&intakeOrg, "org", "", "organization id (required)")
	intakeCmd.Flags().StringVar(&intakeUser, "user", "", "user id the profile is stored for (required)")
	intakeCmd.Flags().StringVar(&intakeName, "name", "", "name the interviewer addresses you by")
	intakeCmd.Flags().BoolVarP(&intakeVerbose, "verbose", "v", false, "verbose logging to stderr")
	intakeCmd.MarkFlagRequired("org")
	intakeCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(intakeCmd)
}

func runIntake(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("intake needs an interactive terminal on stdin")
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(intakeVerbose)

	st, err := store.New(store.Config{Path: cfg.Store.Path})
	if err != nil {
		return err
	}
	defer st.Close()

	aggregator, err := clientcontext.NewAggregator(st, logger)
	if err != nil {
		return err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cc, err := aggregator.LoadClientContext(ctx, intakeOrg, "")
	if err != nil {
		return err
	}

	profState := intake.NewProfilingState()
	blob, err := intake.EncodeProfilingState(profState)
	if err != nil {
		return err
	}
	row := store.SessionRow{
		ID:     uuid.NewString(),
		OrgID:  intakeOrg,
		UserID: intakeUser,
		Kind:   store.SessionKindProfiling,
		State:  blob,
	}
	if err := st.CreateSession(ctx, row); err != nil {
		return err
	}

	fmt.Printf("session %s\n\n", row.ID)
	fmt.Println("Introduce yourself to begin; the interview covers five short topics.")
	fmt.Println()

	return intakeLoop(ctx, st, provider, cc, row.ID, profState)
}

func intakeLoop(ctx context.Context, st *store.Store, provider providers.Provider, cc *clientcontext.ClientContext, sessionID string, profState intake.ProfilingState) error {
	scanner := bufio.NewScanner(os.Stdin)
	var history []providers.Message
	revision := int64(1)
	exchangesOnTopic := 0
	messages := 0

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

		reply, err := intakeTurn(ctx, provider, cc, profState, history, input)
		if err != nil {
			return err
		}
		history = append(history,
			providers.Message{Role: providers.RoleUser, Content: input},
			providers.Message{Role: providers.RoleAssistant, Content: reply},
		)
		messages += 2
		exchangesOnTopic++

		next := intake.Advance(profState, exchangesOnTopic)
		if next.DimensionIndex != profState.DimensionIndex {
			exchangesOnTopic = 0
		}
		profState = next

		revision, err = saveProfilingState(ctx, st, sessionID, profState, messages, revision)
		if err != nil {
			return err
		}

		if profState.Status == intake.StatusAwaitingSummary {
			return finishIntake(ctx, st, provider, cc, sessionID, profState, history)
		}
	}
}

// finishIntake runs the mandatory summary turn, parses the completion marker,
// and completes the session with the profile payload. A reply without a
// usable marker completes the session without a profile; that gap is reported
// to the user rather than repaired.
func finishIntake(ctx context.Context, st *store.Store, provider providers.Provider, cc *clientcontext.ClientContext, sessionID string, profState intake.ProfilingState, history []providers.Message) error {
	reply, err := intakeTurn(ctx, provider, cc, profState, history, "That's everything from my side.")
	if err != nil {
		return err
	}

	profile, err := intake.ExtractProfile(reply)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nwarning: %v; profile not saved\n", err)
		return st.CompleteSession(ctx, sessionID, nil)
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := st.CompleteSession(ctx, sessionID, payload); err != nil {
		return err
	}

	fmt.Printf("\nProfile saved. Recommended persona: %s\n", profile.CoachingApproach.RecommendedPersona)
	fmt.Println(profile.CoachingApproach.Reasoning)
	return nil
}

// intakeTurn streams one interviewer reply for the current interview state.
func intakeTurn(ctx context.Context, provider providers.Provider, cc *clientcontext.ClientContext, profState intake.ProfilingState, history []providers.Message, input string) (string, error) {
	messages := make([]providers.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, providers.Message{Role: providers.RoleUser, Content: input})

	result, err := provider.Stream(ctx, &providers.Request{
		SystemPrompt: intake.BuildIntakePrompt(cc, profState, intakeName),
		Messages:     messages,
	})
	if err != nil {
		return "", err
	}

	var reply strings.Builder
	for fragment := range result.Fragments() {
		fmt.Print(fragment)
		reply.WriteString(fragment)
	}
	fmt.Println()
	if _, _, err := result.Usage(); err != nil {
		return "", err
	}
	return reply.String(), nil
}

// saveProfilingState persists the interview state under the session's
// revision token, reloading once on a conflict.
func saveProfilingState(ctx context.Context, st *store.Store, sessionID string, profState intake.ProfilingState, messages int, revision int64) (int64, error) {
	blob, err := intake.EncodeProfilingState(profState)
	if err != nil {
		return revision, err
	}
	err = st.SaveSessionState(ctx, sessionID, blob, "", messages, revision)
	if err == store.ErrRevisionConflict {
		row, getErr := st.GetSession(ctx, sessionID)
		if getErr != nil {
			return revision, getErr
		}
		revision = row.Revision
		err = st.SaveSessionState(ctx, sessionID, blob, "", messages, revision)
	}
	if err != nil {
		return revision, err
	}
	return revision + 1, nil
}
