package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/contrack/pkg/store"
)

// usersCmd represents the users command group
//
//nolint:gochecknoglobals // Cobra commands are typically global
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user roles",
}

//nolint:gochecknoglobals // Cobra commands are typically global
var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored user profiles",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var usersSetRoleCmd = &cobra.Command{
	Use:   "set-role <email> <admin|gestor>",
	Short: "Set a user's role",
	Args:  cobra.ExactArgs(2),
	RunE:  runUsersSetRole,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersSetRoleCmd)
}

func runUsersList(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx := context.Background()

	env, err := openCLIEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	users, err := env.tracker.Users(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EMAIL\tROLE\tCREATED")

	for i := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", users[i].Email, users[i].Role, users[i].CreatedAt.Format("2006-01-02"))
	}

	_ = w.Flush()

	return nil
}

func runUsersSetRole(cmd *cobra.Command, args []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	role, err := store.ParseRole(args[1])
	if err != nil {
		return err
	}

	ctx := context.Background()

	env, err := openCLIEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	profile, err := env.tracker.SetRole(ctx, args[0], role)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", profile.Email, profile.Role)

	return nil
}
