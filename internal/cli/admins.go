package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"relation-chatter/internal/auth"
)

func init() {
	admins := &cobra.Command{
		Use:   "admins",
		Short: "Manage the admin allow-list file",
	}

	admins.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List admins stored in the allow-list file",
		Args:  cobra.NoArgs,
		RunE:  runAdminsList,
	})

	add := &cobra.Command{
		Use:   "add <user_id>",
		Short: "Add or update an admin",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdminsAdd,
	}
	add.Flags().String("username", "", "Telegram username, informational")
	add.Flags().String("comment", "", "Free-form comment")
	admins.AddCommand(add)

	admins.AddCommand(&cobra.Command{
		Use:   "remove <user_id>",
		Short: "Remove an admin",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdminsRemove,
	})

	RootCmd.AddCommand(admins)
}

func openAdmins() (*auth.FileRepository, error) {
	cfg, err := relationConfig()
	if err != nil {
		return nil, err
	}
	return auth.NewFileRepository(cfg.AdminsFilePath)
}

func runAdminsList(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	repo, err := openAdmins()
	if err != nil {
		return err
	}
	svc, err := auth.NewWithRepo(repo, nil)
	if err != nil {
		return err
	}
	users := svc.List()
	if formatFlag == "json" {
		return writeJSON(cmd.OutOrStdout(), users)
	}
	if len(users) == 0 {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "No admins configured.")
		return err
	}
	for _, u := range users {
		line := u.ID
		if u.Username != "" {
			line += " @" + u.Username
		}
		if u.Comment != "" {
			line += " (" + u.Comment + ")"
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return err
		}
	}
	return nil
}

func runAdminsAdd(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	comment, _ := cmd.Flags().GetString("comment")
	repo, err := openAdmins()
	if err != nil {
		return err
	}
	if err := repo.Upsert(auth.User{ID: args[0], Username: username, Comment: comment}); err != nil {
		return fmt.Errorf("save admin: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s added\n", args[0])
	return err
}

func runAdminsRemove(cmd *cobra.Command, args []string) error {
	repo, err := openAdmins()
	if err != nil {
		return err
	}
	if err := repo.Remove(args[0]); err != nil {
		return fmt.Errorf("remove admin: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", args[0])
	return err
}
