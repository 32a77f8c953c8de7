package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/household-ledger/internal/models"
	"github.com/magabrotheeeer/household-ledger/internal/services/users"
)

var errPasswordRequired = errors.New("--password is required")

// NewUsersCommand команды системных пользователей.
func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage system users"}

	listCmd := &cobra.Command{
		Use:          "list",
		Short:        "List system users",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				list, err := s.users.List(s.identity)
				if err != nil {
					return err
				}
				return s.out.Success(list, func(w io.Writer) error {
					rows := make([][]string, 0, len(list))
					for _, u := range list {
						rows = append(rows, []string{u.Username, u.Name, string(u.Role)})
					}
					return table(w, []string{"USERNAME", "NAME", "ROLE"}, rows)
				})
			})
		},
	}

	var in users.NewUser
	var role string
	addCmd := &cobra.Command{
		Use:          "add <username>",
		Short:        "Create a system user",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Username = args[0]
			in.Role = models.Role(role)
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.users.AddUser(ctx, s.identity, in); err != nil {
					return err
				}
				return s.out.Message("user "+in.Username+" added", map[string]string{"username": in.Username, "role": role})
			})
		},
	}
	addCmd.Flags().StringVar(&in.Name, "name", "", "display name")
	addCmd.Flags().StringVar(&in.Password, "password", "", "password")
	addCmd.Flags().StringVar(&role, "role", string(models.RoleReadOnly), "admin|read-only")
	_ = addCmd.MarkFlagRequired("password")

	removeCmd := &cobra.Command{
		Use:          "remove <username>",
		Short:        "Remove a system user",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.users.RemoveUser(ctx, s.identity, args[0]); err != nil {
					return err
				}
				return s.out.Message("user "+args[0]+" removed", map[string]string{"username": args[0]})
			})
		},
	}

	roleCmd := &cobra.Command{
		Use:          "role <username> <admin|read-only>",
		Short:        "Change the role of a system user",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.users.SetRole(ctx, s.identity, args[0], models.Role(args[1])); err != nil {
					return err
				}
				return s.out.Message("role of "+args[0]+" set to "+args[1], map[string]string{"username": args[0], "role": args[1]})
			})
		},
	}

	var newPassword string
	passwdCmd := &cobra.Command{
		Use:          "passwd <username>",
		Short:        "Change the password of a system user",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if newPassword == "" {
				return errPasswordRequired
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.users.ChangePassword(ctx, s.identity, args[0], newPassword); err != nil {
					return err
				}
				return s.out.Message("password of "+args[0]+" changed", map[string]string{"username": args[0]})
			})
		},
	}
	passwdCmd.Flags().StringVar(&newPassword, "password", "", "new password")

	var password string
	loginCmd := &cobra.Command{
		Use:          "login <username>",
		Short:        "Check credentials of a system user",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errPasswordRequired
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				u, err := s.users.Authenticate(s.identity, args[0], password)
				if err != nil {
					return err
				}
				return s.out.Message("logged in as "+u.Username+" ("+string(u.Role)+")",
					map[string]string{"username": u.Username, "name": u.Name, "role": string(u.Role)})
			})
		},
	}
	loginCmd.Flags().StringVar(&password, "password", "", "password")

	cmd.AddCommand(listCmd, addCmd, removeCmd, roleCmd, passwdCmd, loginCmd)
	return cmd
}
