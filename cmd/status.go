package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/northbound-labs/compass/core/session"
	"github.com/northbound-labs/compass/core/store"
)

var statusSession string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a session's progress and suggested next focus",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusSession, "session", "", "session id (required)")
	statusCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.New(store.Config{Path: cfg.Store.Path})
	if err != nil {
		return err
	}
	defer st.Close()

	row, err := st.GetSession(cmd.Context(), statusSession)
	if err != nil {
		return err
	}
	state, err := session.DecodeState(row.State)
	if err != nil {
		return err
	}

	fmt.Printf("Session:  %s\n", row.ID)
	fmt.Printf("Status:   %s\n", row.Status)
	fmt.Printf("Phase:    %s (highest reached: %s)\n", state.CurrentPhase, row.HighestPhase)
	if row.CurrentPhase != string(state.CurrentPhase) {
		// The admin-writable mirror has diverged from the session's own state.
		fmt.Printf("Note:     phase mirror reads %s\n", row.CurrentPhase)
	}
	fmt.Printf("Messages: %d\n\n", state.TotalMessages)

	fmt.Println(session.Summarize(state).Render())
	fmt.Println()
	fmt.Println("Next focus:", session.SuggestNextFocus(state))
	return nil
}
