package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/household-ledger/internal/models"
	"github.com/magabrotheeeer/household-ledger/internal/reconcile"
)

// errNotConfirmed разрушительная команда без --yes.
var errNotConfirmed = errors.New("refusing to continue without --yes")

// StatusView итог загрузки снимка.
type StatusView struct {
	User         string `json:"user"`
	Status       string `json:"status"`
	State        string `json:"state"`
	UpdatedAt    int64  `json:"updatedAt"`
	Expenses     int    `json:"expenses"`
	Income       int    `json:"income"`
	Vehicles     int    `json:"vehicles"`
	Maintenance  int    `json:"maintenance"`
	Conflict     bool   `json:"conflict"`
	PendingLocal bool   `json:"pendingLocal"`
	Kept         string `json:"kept,omitempty"`
	Error        string `json:"error,omitempty"`
}

func newStatusView(s *session, res reconcile.LoadResult) StatusView {
	v := StatusView{
		User:         s.identity,
		Status:       res.Status.String(),
		State:        s.engine.State(s.identity).String(),
		UpdatedAt:    res.Snapshot.UpdatedAt,
		Vehicles:     len(res.Snapshot.Fleet.Vehicles),
		Maintenance:  len(res.Snapshot.Maintenance),
		Conflict:     res.Conflict,
		PendingLocal: res.PendingLocal,
	}
	for m := range models.MonthsInYear {
		v.Expenses += len(res.Snapshot.Expenses[m])
		v.Income += len(res.Snapshot.Income[m])
	}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	return v
}

func (v StatusView) print(w io.Writer) error {
	updated := "never"
	if v.UpdatedAt > 0 {
		updated = time.UnixMilli(v.UpdatedAt).Format(time.RFC3339)
	}
	rows := [][]string{
		{"user", v.User},
		{"status", v.Status},
		{"state", v.State},
		{"updated", updated},
		{"expenses", fmt.Sprint(v.Expenses)},
		{"income", fmt.Sprint(v.Income)},
		{"vehicles", fmt.Sprint(v.Vehicles)},
		{"maintenance", fmt.Sprint(v.Maintenance)},
	}
	if v.Conflict || v.PendingLocal {
		rows = append(rows, []string{"local data", "pending"})
	}
	if v.Kept != "" {
		rows = append(rows, []string{"kept", v.Kept})
	}
	return table(w, []string{"FIELD", "VALUE"}, rows)
}

// NewStatusCommand загружает снимок и печатает его состояние.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "status",
		Short:        "Load the snapshot and show sync status",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, err := openSession(ctx, rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			v := newStatusView(s, s.load(ctx))
			return s.out.Success(v, v.print)
		},
	}
}

// SyncOptions флаги команд sync.
type SyncOptions struct {
	Use string
	Yes bool
}

// NewSyncCommand команды управления синхронизацией.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Resolve local data, wipe or re-download the document",
	}
	cmd.AddCommand(newResolveCommand(rootOpts))
	cmd.AddCommand(newDeleteAllCommand(rootOpts))
	cmd.AddCommand(newForceDownloadCommand(rootOpts))
	return cmd
}

func newResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Decide what to do with local data from before sync",
		Long: `Decide what to do with data kept on this device before sync was enabled.

  remote  keep the server data and discard the local copy
  local   upload the local data, replacing expenses, income, notes and fleet
  merge   newer side wins by sync timestamp; on a tie records are
          matched by id and both sides are kept`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			choice, err := reconcile.ParseChoice(opts.Use)
			if err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				res, err := s.engine.Resolve(ctx, s.identity, choice, reconcile.TriggerManual)
				if err != nil {
					return err
				}
				if choice == reconcile.MergeBoth && res.Kept != reconcile.SideBoth {
					s.out.Warn(fmt.Sprintf("timestamps differ: %s data kept, the other side was discarded", res.Kept))
				}
				v := newStatusView(s, reconcile.LoadResult{Snapshot: res.Snapshot, Status: reconcile.StatusLoaded})
				v.Kept = string(res.Kept)
				return s.out.Success(v, v.print)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Use, "use", "", "remote|local|merge")
	_ = cmd.MarkFlagRequired("use")
	return cmd
}

func newDeleteAllCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{}
	cmd := &cobra.Command{
		Use:          "delete-all",
		Short:        "Delete the document on the server and the local copy",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Yes {
				return errNotConfirmed
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.engine.DeleteAll(ctx, s.identity); err != nil {
					return err
				}
				return s.out.Message("all data deleted", map[string]string{"user": s.identity})
			})
		},
	}
	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm deletion")
	return cmd
}

func newForceDownloadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{}
	cmd := &cobra.Command{
		Use:          "force-download",
		Short:        "Replace the local copy with the server document",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Yes {
				return errNotConfirmed
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

			res := s.engine.ForceDownload(ctx, s.identity)
			if res.Status == reconcile.StatusOffline {
				return fmt.Errorf("force download: %w", res.Err)
			}
			v := newStatusView(s, res)
			return s.out.Success(v, v.print)
		},
	}
	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm replacing the local copy")
	return cmd
}
