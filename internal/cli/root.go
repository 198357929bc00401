// Package cli implements the relationctl commands for inspecting and editing
// the relation table offline. Write commands must not run while the bot is
// serving the same file.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"relation-chatter/internal/config"
	"relation-chatter/internal/relation"
)

var (
	filePath   string
	adminsPath string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "relationctl",
	Short:         "Inspect and edit relation records",
	Long:          "Offline tool for the relation table kept by the bot. Stop the bot before running commands that write.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&filePath, "file", "", "Relation file (default: $RELATION_FILE_PATH or data/relation_data.json)")
	RootCmd.PersistentFlags().StringVar(&adminsPath, "admins-file", "", "Admin allow-list file (default: $RELATION_ADMINS_FILE_PATH or data/admins.json)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text or json")
}

func relationConfig() (*config.Relation, error) {
	cfg, err := config.ParseRelation()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if filePath != "" {
		cfg.FilePath = filePath
	}
	if adminsPath != "" {
		cfg.AdminsFilePath = adminsPath
	}
	return cfg, nil
}

func openStore() (*relation.Store, *config.Relation, error) {
	cfg, err := relationConfig()
	if err != nil {
		return nil, nil, err
	}
	s, err := relation.Open(cfg.FilePath, cfg.StoreOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return s, cfg, nil
}

func openReadOnly() (*relation.Store, *config.Relation, error) {
	cfg, err := relationConfig()
	if err != nil {
		return nil, nil, err
	}
	s, err := relation.OpenReadOnly(cfg.FilePath, cfg.StoreOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return s, cfg, nil
}

// closeStore performs the final save and reports it as the command error.
func closeStore(s *relation.Store, err *error) {
	if cerr := s.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("save: %w", cerr)
	}
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func checkFormat() error {
	if formatFlag != "text" && formatFlag != "json" {
		return fmt.Errorf("unknown format %q, want text or json", formatFlag)
	}
	return nil
}
