package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/magabrotheeeer/household-ledger/internal/models"
	"github.com/magabrotheeeer/household-ledger/internal/services/maintenance"
)

// MaintenanceOptions поля работы по дому из флагов.
type MaintenanceOptions struct {
	Type          string
	Area          string
	Supplier      string
	Date          string
	NextDate      string
	Cost          string
	Status        string
	Recurring     bool
	Period        int
	Desc          string
	LaunchExpense bool
}

func (o *MaintenanceOptions) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.Type, "type", "", "type of work")
	fs.StringVar(&o.Area, "area", "", "area of the house")
	fs.StringVar(&o.Supplier, "supplier", "", "supplier")
	fs.StringVar(&o.Date, "date", "", "date YYYY-MM-DD")
	fs.StringVar(&o.NextDate, "next", "", "next date YYYY-MM-DD")
	fs.StringVar(&o.Cost, "cost", "", "cost")
	fs.StringVar(&o.Status, "status", "", "pendente|em_andamento|concluida")
	fs.BoolVar(&o.Recurring, "recurring", false, "repeat every --period days")
	fs.IntVar(&o.Period, "period", 0, "recurrence period in days")
	fs.StringVar(&o.Desc, "desc", "", "description")
	fs.BoolVar(&o.LaunchExpense, "launch-expense", false, "also record the cost as an expense")
}

func (o *MaintenanceOptions) apply(fs *pflag.FlagSet, m *models.Maintenance) error {
	if fs.Changed("cost") {
		cost, err := parseAmount(o.Cost)
		if err != nil {
			return err
		}
		m.Cost = cost
	}
	set(fs, "type", &m.Type, o.Type)
	set(fs, "area", &m.Area, o.Area)
	set(fs, "supplier", &m.Supplier, o.Supplier)
	set(fs, "date", &m.Date, o.Date)
	set(fs, "next", &m.NextDate, o.NextDate)
	set(fs, "desc", &m.Desc, o.Desc)
	if fs.Changed("status") {
		m.Status = models.MaintenanceStatus(o.Status)
	}
	if fs.Changed("recurring") {
		m.Recurring = models.YesNo(o.Recurring)
	}
	if fs.Changed("period") {
		m.PeriodDays = o.Period
	}
	if fs.Changed("launch-expense") {
		m.LaunchExpense = models.YesNo(o.LaunchExpense)
	}
	return nil
}

// NewMaintenanceCommand команды обслуживания дома.
func NewMaintenanceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "maintenance",
		Aliases: []string{"mnt"},
		Short:   "Manage home maintenance",
	}

	create := &MaintenanceOptions{}
	createCmd := &cobra.Command{
		Use:          "create",
		Short:        "Create a maintenance record",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var m models.Maintenance
			if err := create.apply(cmd.Flags(), &m); err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				saved, err := s.maintenance.Create(ctx, s.identity, m)
				if err != nil {
					return err
				}
				return s.out.Message("maintenance "+saved.ID+" created", saved)
			})
		},
	}
	create.bind(createCmd.Flags())
	_ = createCmd.MarkFlagRequired("type")
	_ = createCmd.MarkFlagRequired("area")

	upd := &MaintenanceOptions{}
	updCmd := &cobra.Command{
		Use:          "update <id>",
		Short:        "Change fields of a maintenance record",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				m, err := findMaintenance(s, args[0])
				if err != nil {
					return err
				}
				if err := upd.apply(cmd.Flags(), &m); err != nil {
					return err
				}
				saved, err := s.maintenance.Update(ctx, s.identity, m)
				if err != nil {
					return err
				}
				return s.out.Message("maintenance "+saved.ID+" updated", saved)
			})
		},
	}
	upd.bind(updCmd.Flags())

	completeCmd := &cobra.Command{
		Use:          "complete <id>",
		Short:        "Mark work as done and schedule the next one if it repeats",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				next, err := s.maintenance.Complete(ctx, s.identity, args[0])
				if err != nil {
					return err
				}
				msg := "maintenance " + args[0] + " completed"
				if next != nil {
					msg += ", next on " + next.Date + " (" + next.ID + ")"
				}
				return s.out.Message(msg, map[string]any{"id": args[0], "next": next})
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:          "delete <id>",
		Short:        "Delete a maintenance record",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.maintenance.Delete(ctx, s.identity, args[0]); err != nil {
					return err
				}
				return s.out.Message("maintenance "+args[0]+" deleted", map[string]string{"id": args[0]})
			})
		},
	}

	attachCmd := &cobra.Command{
		Use:          "attach <id> <file>",
		Short:        "Upload a file and attach it to a maintenance record",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				file, err := s.maintenance.AttachFile(ctx, s.identity, args[0], filepath.Base(args[1]), data)
				if err != nil {
					return err
				}
				return s.out.Message("attached "+file.URL, file)
			})
		},
	}

	listCmd := &cobra.Command{
		Use:          "list",
		Short:        "List maintenance records",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				items, err := s.maintenance.List(s.identity)
				if err != nil {
					return err
				}
				today := time.Now()
				return s.out.Success(items, func(w io.Writer) error {
					rows := make([][]string, 0, len(items))
					for _, m := range items {
						status := maintenance.EffectiveStatus(m, today)
						rows = append(rows, []string{m.ID, m.Type, m.Area, m.Date, m.NextDate, string(status), m.Cost.StringFixed(2)})
					}
					return table(w, []string{"ID", "TYPE", "AREA", "DATE", "NEXT", "STATUS", "COST"}, rows)
				})
			})
		},
	}

	alertsCmd := &cobra.Command{
		Use:          "alerts",
		Short:        "Upcoming and overdue maintenance",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				alerts, err := s.maintenance.Alerts(s.identity)
				if err != nil {
					return err
				}
				return s.out.Success(alerts, func(w io.Writer) error {
					rows := make([][]string, 0, len(alerts))
					for _, a := range alerts {
						rows = append(rows, []string{a.Record.ID, a.Record.Type, a.Record.Area, a.Record.NextDate, string(a.Status), strconv.Itoa(a.DaysLeft)})
					}
					return table(w, []string{"ID", "TYPE", "AREA", "NEXT", "STATUS", "DAYS"}, rows)
				})
			})
		},
	}

	dashboardCmd := &cobra.Command{
		Use:          "dashboard",
		Short:        "Counts by status and costs by area",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				d, err := s.maintenance.Dashboard(s.identity)
				if err != nil {
					return err
				}
				return s.out.Success(d, func(w io.Writer) error {
					rows := [][]string{
						{"total", strconv.Itoa(d.Total)},
						{"upcoming", strconv.Itoa(d.Upcoming)},
						{"cost", d.TotalCost.StringFixed(2)},
					}
					for _, st := range []models.MaintenanceStatus{models.StatusPending, models.StatusInProgress, models.StatusDone, models.StatusOverdue} {
						rows = append(rows, []string{string(st), strconv.Itoa(d.ByStatus[st])})
					}
					return table(w, []string{"", "VALUE"}, rows)
				})
			})
		},
	}

	cmd.AddCommand(createCmd, updCmd, completeCmd, deleteCmd, attachCmd, listCmd, alertsCmd, dashboardCmd)
	cmd.AddCommand(newListEditCommand(rootOpts, "types", "maintenance types",
		func(s *session) []string { return currentOr(s).MaintenanceTypes },
		func(s *session) func(context.Context, string, string) error { return s.maintenance.AddType },
		func(s *session) func(context.Context, string, string) error { return s.maintenance.RemoveType }))
	cmd.AddCommand(newListEditCommand(rootOpts, "areas", "maintenance areas",
		func(s *session) []string { return currentOr(s).MaintenanceAreas },
		func(s *session) func(context.Context, string, string) error { return s.maintenance.AddArea },
		func(s *session) func(context.Context, string, string) error { return s.maintenance.RemoveArea }))
	return cmd
}

// newListEditCommand команды просмотра и правки пользовательского списка.
func newListEditCommand(
	rootOpts *RootOptions,
	use, what string,
	list func(*session) []string,
	add, remove func(*session) func(ctx context.Context, identity, value string) error,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:          use,
		Short:        "Show " + what,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				values := list(s)
				return s.out.Success(values, func(w io.Writer) error {
					rows := make([][]string, 0, len(values))
					for _, v := range values {
						rows = append(rows, []string{v})
					}
					return table(w, []string{"VALUE"}, rows)
				})
			})
		},
	}

	edit := func(name, short, done string, fn func(*session) func(context.Context, string, string) error) *cobra.Command {
		return &cobra.Command{
			Use:          name + " <value>",
			Short:        short,
			Args:         cobra.ExactArgs(1),
			SilenceUsage: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
					if err := fn(s)(ctx, s.identity, args[0]); err != nil {
						return err
					}
					return s.out.Message(args[0]+" "+done, map[string]string{"value": args[0]})
				})
			},
		}
	}
	cmd.AddCommand(edit("add", "Add to "+what, "added", add))
	cmd.AddCommand(edit("remove", "Remove from "+what, "removed", remove))
	return cmd
}

func currentOr(s *session) models.Snapshot {
	snap, err := s.engine.Current(s.identity)
	if err != nil {
		return models.NewSnapshot()
	}
	return snap
}

func findMaintenance(s *session, id string) (models.Maintenance, error) {
	items, err := s.maintenance.List(s.identity)
	if err != nil {
		return models.Maintenance{}, err
	}
	for _, m := range items {
		if m.ID == id {
			return m, nil
		}
	}
	return models.Maintenance{}, maintenance.ErrNotFound
}
