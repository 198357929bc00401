package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"relation-chatter/internal/affinity"
)

func init() {
	setScore := &cobra.Command{
		Use:   "set-score <user_id> <score>",
		Short: "Override a user's score",
		Long:  "Sets the score, clamped to the configured bounds. The change is recorded in the user's history.",
		Args:  cobra.ExactArgs(2),
		RunE:  runSetScore,
	}
	setScore.Flags().String("reason", affinity.ReasonOverride, "Reason stored with the history entry")
	RootCmd.AddCommand(setScore)

	RootCmd.AddCommand(&cobra.Command{
		Use:   "set-note <user_id> <note...>",
		Short: "Set the free-form note for a user",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runSetNote,
	})
	RootCmd.AddCommand(&cobra.Command{
		Use:   "clear-note <user_id>",
		Short: "Remove a user's note",
		Args:  cobra.ExactArgs(1),
		RunE:  runClearNote,
	})
}

func runSetScore(cmd *cobra.Command, args []string) (err error) {
	score, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("score must be an integer: %q", args[1])
	}
	reason, _ := cmd.Flags().GetString("reason")

	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(s, &err)

	actual, rec := s.SetScore(args[0], score, reason)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d (%+d)\n", rec.UserID, rec.Score, cfg.MaxScore, actual)
	return err
}

func runSetNote(cmd *cobra.Command, args []string) (err error) {
	note := strings.Join(args[1:], " ")
	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(s, &err)

	rec := s.SetNote(args[0], note)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: note set to %q\n", rec.UserID, rec.CustomNote)
	return err
}

func runClearNote(cmd *cobra.Command, args []string) (err error) {
	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(s, &err)

	rec := s.ClearNote(args[0])
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: note cleared\n", rec.UserID)
	return err
}
