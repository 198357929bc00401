package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"relation-chatter/internal/affinity"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "show <user_id>",
		Short: "Show one user's relation record",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	})
	RootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every user ordered by score",
		Args:  cobra.NoArgs,
		RunE:  runList,
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	s, cfg, err := openReadOnly()
	if err != nil {
		return err
	}
	rec, ok := s.Lookup(args[0])
	if !ok {
		return fmt.Errorf("no relation recorded for user %s", args[0])
	}
	if formatFlag == "json" {
		return writeJSON(cmd.OutOrStdout(), rec)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), affinity.Report(rec, cfg.MaxScore))
	return err
}

func runList(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	s, cfg, err := openReadOnly()
	if err != nil {
		return err
	}
	recs := s.All()
	if formatFlag == "json" {
		return writeJSON(cmd.OutOrStdout(), recs)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), affinity.List(recs, cfg.MaxScore))
	return err
}
