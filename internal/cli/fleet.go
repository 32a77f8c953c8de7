package cli

import (
	"context"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/magabrotheeeer/household-ledger/internal/models"
	"github.com/magabrotheeeer/household-ledger/internal/services/fleet"
)

// VehicleOptions поля автомобиля из флагов.
type VehicleOptions struct {
	Plate         string
	Brand         string
	Model         string
	Year          string
	Chassis       string
	Registration  string
	NextService   string
	NextServiceKm string
	Workshop      string
	Armored       string
	ArmorReview   string
	Insurer       string
	CurrentKm     string
	Notes         string
}

func (o *VehicleOptions) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.Plate, "plate", "", "license plate")
	fs.StringVar(&o.Brand, "brand", "", "brand")
	fs.StringVar(&o.Model, "model", "", "model")
	fs.StringVar(&o.Year, "year", "", "model year")
	fs.StringVar(&o.Chassis, "chassis", "", "chassis number")
	fs.StringVar(&o.Registration, "renavam", "", "registration number")
	fs.StringVar(&o.NextService, "next-service", "", "next service date YYYY-MM-DD")
	fs.StringVar(&o.NextServiceKm, "next-service-km", "", "odometer of next service")
	fs.StringVar(&o.Workshop, "workshop", "", "workshop")
	fs.StringVar(&o.Armored, "armored", "", "armoring company, empty if none")
	fs.StringVar(&o.ArmorReview, "armor-review", "", "armor review date YYYY-MM-DD")
	fs.StringVar(&o.Insurer, "insurer", "", "insurer")
	fs.StringVar(&o.CurrentKm, "km", "", "current odometer")
	fs.StringVar(&o.Notes, "notes", "", "notes")
}

func (o *VehicleOptions) apply(fs *pflag.FlagSet, v *models.Vehicle) {
	set(fs, "plate", &v.Plate, o.Plate)
	set(fs, "brand", &v.Brand, o.Brand)
	set(fs, "model", &v.Model, o.Model)
	set(fs, "year", &v.Year, o.Year)
	set(fs, "chassis", &v.Chassis, o.Chassis)
	set(fs, "renavam", &v.Registration, o.Registration)
	set(fs, "next-service", &v.NextService, o.NextService)
	set(fs, "next-service-km", &v.NextServiceKm, o.NextServiceKm)
	set(fs, "workshop", &v.Workshop, o.Workshop)
	set(fs, "armored", &v.Armored, o.Armored)
	set(fs, "armor-review", &v.ArmorReview, o.ArmorReview)
	set(fs, "insurer", &v.Insurer, o.Insurer)
	set(fs, "km", &v.CurrentKm, o.CurrentKm)
	set(fs, "notes", &v.Notes, o.Notes)
}

// NewVehicleCommand команды автопарка.
func NewVehicleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "vehicle", Short: "Manage vehicles and odometer readings"}

	add := &VehicleOptions{}
	addCmd := &cobra.Command{
		Use:          "add",
		Short:        "Add a vehicle",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var v models.Vehicle
			add.apply(cmd.Flags(), &v)
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.fleet.AddVehicle(ctx, s.identity, v); err != nil {
					return err
				}
				return s.out.Message("vehicle "+v.Plate+" added", v)
			})
		},
	}
	add.bind(addCmd.Flags())
	_ = addCmd.MarkFlagRequired("plate")

	upd := &VehicleOptions{}
	updCmd := &cobra.Command{
		Use:          "update <plate>",
		Short:        "Change fields of a vehicle",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				vehicles, err := s.fleet.Vehicles(s.identity)
				if err != nil {
					return err
				}
				v, ok := findVehicle(vehicles, args[0])
				if !ok {
					return errRecordNotFound
				}
				upd.apply(cmd.Flags(), &v)
				if err := s.fleet.UpdateVehicle(ctx, s.identity, args[0], v); err != nil {
					return err
				}
				return s.out.Message("vehicle "+v.Plate+" updated", v)
			})
		},
	}
	upd.bind(updCmd.Flags())

	removeCmd := &cobra.Command{
		Use:          "remove <plate>",
		Short:        "Remove a vehicle",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.fleet.RemoveVehicle(ctx, s.identity, args[0]); err != nil {
					return err
				}
				return s.out.Message("vehicle "+args[0]+" removed", map[string]string{"plate": args[0]})
			})
		},
	}

	listCmd := &cobra.Command{
		Use:          "list",
		Short:        "List vehicles",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				vehicles, err := s.fleet.Vehicles(s.identity)
				if err != nil {
					return err
				}
				return s.out.Success(vehicles, func(w io.Writer) error {
					rows := make([][]string, 0, len(vehicles))
					for _, v := range vehicles {
						rows = append(rows, []string{v.Plate, v.Brand, v.Model, v.Year, v.CurrentKm, v.NextService})
					}
					return table(w, []string{"PLATE", "BRAND", "MODEL", "YEAR", "KM", "NEXT SERVICE"}, rows)
				})
			})
		},
	}

	alertsCmd := &cobra.Command{
		Use:          "alerts",
		Short:        "Upcoming and overdue vehicle services",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				alerts, err := s.fleet.Alerts(s.identity)
				if err != nil {
					return err
				}
				return s.out.Success(alerts, func(w io.Writer) error {
					rows := make([][]string, 0, len(alerts))
					for _, a := range alerts {
						rows = append(rows, []string{a.Plate, string(a.Kind), strconv.Itoa(a.DaysLeft), a.Message})
					}
					return table(w, []string{"PLATE", "KIND", "DAYS", "MESSAGE"}, rows)
				})
			})
		},
	}

	cmd.AddCommand(addCmd, updCmd, removeCmd, listCmd, alertsCmd, newOdometerCommand(rootOpts))
	return cmd
}

func newOdometerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "odometer", Short: "Odometer history of a vehicle"}

	var r models.OdometerReading
	addCmd := &cobra.Command{
		Use:          "add <plate>",
		Short:        "Record an odometer reading",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.fleet.AddReading(ctx, s.identity, args[0], r); err != nil {
					return err
				}
				return s.out.Message("reading added", r)
			})
		},
	}
	addCmd.Flags().StringVar(&r.Date, "date", "", "date YYYY-MM-DD")
	addCmd.Flags().StringVar(&r.Km, "km", "", "odometer value")
	addCmd.Flags().StringVar(&r.Desc, "desc", "", "description")
	_ = addCmd.MarkFlagRequired("date")
	_ = addCmd.MarkFlagRequired("km")

	var date, km string
	removeCmd := &cobra.Command{
		Use:          "remove <plate>",
		Short:        "Remove an odometer reading",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.fleet.RemoveReading(ctx, s.identity, args[0], date, km); err != nil {
					return err
				}
				return s.out.Message("reading removed", map[string]string{"plate": args[0], "date": date, "km": km})
			})
		},
	}
	removeCmd.Flags().StringVar(&date, "date", "", "date of the reading")
	removeCmd.Flags().StringVar(&km, "km", "", "odometer value of the reading")
	_ = removeCmd.MarkFlagRequired("date")
	_ = removeCmd.MarkFlagRequired("km")

	cmd.AddCommand(addCmd, removeCmd)
	return cmd
}

func findVehicle(vehicles []models.Vehicle, plate string) (models.Vehicle, bool) {
	for _, v := range vehicles {
		if fleet.NormalizePlate(v.Plate) == fleet.NormalizePlate(plate) {
			return v, true
		}
	}
	return models.Vehicle{}, false
}
