// Package cli команды клиента household: загрузка и синхронизация снимка,
// учет расходов и доходов, автопарк, обслуживание дома, пользователи и
// резервные копии.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions глобальные флаги всех команд.
type RootOptions struct {
	ConfigPath string
	User       string
	Verbose    bool
	Format     string
}

// ValidFormats допустимые форматы вывода.
var ValidFormats = []string{"text", "json"}

// NewRootCommand создает корневую команду household.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "household",
		Short: "Household ledger client",
		SilenceErrors: true,
		Long:  "Household ledger keeps monthly expenses, income, vehicles and home maintenance in sync with the document server.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to client config (default: HOUSEHOLD_CONFIG)")
	cmd.PersistentFlags().StringVarP(&opts.User, "user", "u", "", "document owner (default: config user)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewExpenseCommand(opts))
	cmd.AddCommand(NewIncomeCommand(opts))
	cmd.AddCommand(NewNoteCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewVehicleCommand(opts))
	cmd.AddCommand(NewMaintenanceCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewUsersCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewLegacyCommand(opts))

	return cmd
}
