package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/household-ledger/internal/reconcile"
)

// NewBackupCommand выгрузка и загрузка резервной копии.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "backup", Short: "Export or import a backup file"}

	var out string
	exportCmd := &cobra.Command{
		Use:          "export",
		Short:        "Write the snapshot to a backup file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				raw, err := s.backup.Export(s.identity)
				if err != nil {
					return err
				}
				if out == "" {
					_, err := cmd.OutOrStdout().Write(raw)
					return err
				}
				if err := os.WriteFile(out, raw, 0o600); err != nil {
					return err
				}
				return s.out.Message("backup written to "+out, map[string]string{"file": out})
			})
		},
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")

	importCmd := &cobra.Command{
		Use:          "import <file>",
		Short:        "Replace the snapshot with a backup file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				snap, err := s.backup.Import(ctx, s.identity, raw)
				if err != nil {
					return err
				}
				v := newStatusView(s, reconcile.LoadResult{Snapshot: snap, Status: reconcile.StatusLoaded})
				return s.out.Success(v, v.print)
			})
		},
	}

	cmd.AddCommand(exportCmd, importCmd)
	return cmd
}

// NewLegacyCommand перенос данных, которые хранились на устройстве до синхронизации.
func NewLegacyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "legacy", Short: "Data kept on the device before sync"}

	importCmd := &cobra.Command{
		Use:   "import <dump.json>",
		Short: "Import a key/value dump of old device data",
		Long: `Import a JSON object with the old device keys expenses_<n>,
income_<n>, notes_<n> (n is 0-11) and fleetData. Values may be JSON
strings or inline JSON. After import the data waits for a decision
with: household sync resolve --use remote|local|merge`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dump, err := readDump(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, err := openSession(ctx, rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.mirror.ImportLegacy(ctx, dump)
			if err != nil {
				return err
			}
			s.out.Warn(fmt.Sprintf("imported %d legacy keys", n))
			v := newStatusView(s, s.load(ctx))
			return s.out.Success(v, v.print)
		},
	}

	cmd.AddCommand(importCmd)
	return cmd
}

func readDump(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	dump := make(map[string]string, len(fields))
	for k, v := range fields {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			dump[k] = s
			continue
		}
		dump[k] = string(v)
	}
	return dump, nil
}
