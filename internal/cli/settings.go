package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/household-ledger/internal/services/settings"
)

// NewSettingsCommand команды правки списков настроек.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Edit categories, suppliers, payment methods and years",
	}
	for _, list := range settings.Lists {
		sub := newListEditCommand(rootOpts, string(list), "settings "+string(list),
			func(s *session) []string {
				values, err := s.settings.Values(s.identity, list)
				if err != nil {
					return []string{}
				}
				return values
			},
			func(s *session) func(context.Context, string, string) error {
				return func(ctx context.Context, identity, value string) error {
					return s.settings.Add(ctx, identity, list, value)
				}
			},
			func(s *session) func(context.Context, string, string) error {
				return func(ctx context.Context, identity, value string) error {
					return s.settings.Remove(ctx, identity, list, value)
				}
			})
		sub.AddCommand(newRenameCommand(rootOpts, list))
		cmd.AddCommand(sub)
	}
	return cmd
}

func newRenameCommand(rootOpts *RootOptions, list settings.List) *cobra.Command {
	return &cobra.Command{
		Use:          "rename <old> <new>",
		Short:        "Rename a value in settings " + string(list),
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.settings.Rename(ctx, s.identity, list, args[0], args[1]); err != nil {
					return err
				}
				return s.out.Message(args[0]+" renamed to "+args[1], map[string]string{"old": args[0], "value": args[1]})
			})
		},
	}
}
