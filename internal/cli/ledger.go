package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/magabrotheeeer/household-ledger/internal/models"
	"github.com/magabrotheeeer/household-ledger/internal/services/ledger"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

var errRecordNotFound = errors.New("record not found")

// RecordOptions поля записи расхода или дохода из флагов.
type RecordOptions struct {
	Date          string
	Description   string
	Amount        string
	Category      string
	Supplier      string
	PaymentMethod string
	DueDate       string
}

func (o *RecordOptions) bind(fs *pflag.FlagSet, expense bool) {
	fs.StringVar(&o.Date, "date", "", "date YYYY-MM-DD")
	fs.StringVar(&o.Description, "desc", "", "description")
	fs.StringVar(&o.Amount, "amount", "", "amount, e.g. 120.50")
	fs.StringVar(&o.DueDate, "due", "", "due date YYYY-MM-DD")
	if expense {
		fs.StringVar(&o.Category, "category", "", "category")
		fs.StringVar(&o.Supplier, "supplier", "", "supplier")
		fs.StringVar(&o.PaymentMethod, "payment", "", "payment method")
	}
}

// applyExpense переносит в e флаги, заданные в командной строке.
func (o *RecordOptions) applyExpense(fs *pflag.FlagSet, e *models.Expense) error {
	if fs.Changed("amount") {
		amount, err := parseAmount(o.Amount)
		if err != nil {
			return err
		}
		e.Amount = amount
	}
	set(fs, "date", &e.Date, o.Date)
	set(fs, "desc", &e.Description, o.Description)
	set(fs, "category", &e.Category, o.Category)
	set(fs, "supplier", &e.Supplier, o.Supplier)
	set(fs, "payment", &e.PaymentMethod, o.PaymentMethod)
	set(fs, "due", &e.DueDate, o.DueDate)
	return nil
}

func (o *RecordOptions) applyIncome(fs *pflag.FlagSet, in *models.Income) error {
	if fs.Changed("amount") {
		amount, err := parseAmount(o.Amount)
		if err != nil {
			return err
		}
		in.Amount = amount
	}
	set(fs, "date", &in.Date, o.Date)
	set(fs, "desc", &in.Description, o.Description)
	set(fs, "due", &in.DueDate, o.DueDate)
	return nil
}

func set(fs *pflag.FlagSet, name string, dst *string, v string) {
	if fs.Changed(name) {
		*dst = v
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// parseMonth переводит номер месяца 1–12 в индекс корзины.
func parseMonth(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > models.MonthsInYear {
		return 0, fmt.Errorf("invalid month %q: want 1-12", s)
	}
	return n - 1, nil
}

// ListOptions фильтр списка записей.
type ListOptions struct {
	Month string
	Year  int
	// Search подстрока описания без учета регистра.
	Search   string
	Category string
	Supplier string
}

func (o *ListOptions) matchExpense(e models.Expense) bool {
	if o.Year != 0 && e.Year != o.Year {
		return false
	}
	if o.Category != "" && e.Category != o.Category {
		return false
	}
	if o.Supplier != "" && e.Supplier != o.Supplier {
		return false
	}
	return o.Search == "" || strings.Contains(strings.ToLower(e.Description), strings.ToLower(o.Search))
}

// NewExpenseCommand команды учета расходов.
func NewExpenseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "expense", Short: "Manage expenses"}

	add := &RecordOptions{}
	addCmd := &cobra.Command{
		Use:          "add",
		Short:        "Add an expense",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var e models.Expense
			if err := add.applyExpense(cmd.Flags(), &e); err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				saved, err := s.ledger.AddExpense(ctx, s.identity, e)
				if err != nil {
					return err
				}
				return s.out.Message("expense "+saved.ID+" added", saved)
			})
		},
	}
	add.bind(addCmd.Flags(), true)
	_ = addCmd.MarkFlagRequired("date")
	_ = addCmd.MarkFlagRequired("amount")

	upd := &RecordOptions{}
	updCmd := &cobra.Command{
		Use:          "update <id>",
		Short:        "Change fields of an expense",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				e, err := findExpense(s, args[0])
				if err != nil {
					return err
				}
				if err := upd.applyExpense(cmd.Flags(), &e); err != nil {
					return err
				}
				saved, err := s.ledger.UpdateExpense(ctx, s.identity, e)
				if err != nil {
					return err
				}
				return s.out.Message("expense "+saved.ID+" updated", saved)
			})
		},
	}
	upd.bind(updCmd.Flags(), true)

	delCmd := &cobra.Command{
		Use:          "delete <id>",
		Short:        "Delete an expense",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.ledger.DeleteExpense(ctx, s.identity, args[0]); err != nil {
					return err
				}
				return s.out.Message("expense "+args[0]+" deleted", map[string]string{"id": args[0]})
			})
		},
	}

	list := &ListOptions{}
	listCmd := &cobra.Command{
		Use:          "list",
		Short:        "List expenses",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			months, err := monthFilter(list.Month)
			if err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				snap, err := s.engine.Current(s.identity)
				if err != nil {
					return err
				}
				var out []models.Expense
				for _, m := range months {
					for _, e := range snap.Expenses[m] {
						if list.matchExpense(e) {
							out = append(out, e)
						}
					}
				}
				return s.out.Success(out, func(w io.Writer) error {
					rows := make([][]string, 0, len(out))
					for _, e := range out {
						rows = append(rows, []string{e.ID, e.Date, e.Description, e.Category, e.Amount.StringFixed(2), attachmentMark(e.Attachment)})
					}
					return table(w, []string{"ID", "DATE", "DESCRIPTION", "CATEGORY", "AMOUNT", "FILE"}, rows)
				})
			})
		},
	}
	listCmd.Flags().StringVar(&list.Month, "month", "", "month 1-12 (default: all)")
	listCmd.Flags().IntVar(&list.Year, "year", 0, "year (default: all)")
	listCmd.Flags().StringVar(&list.Search, "search", "", "description contains (case-insensitive)")
	listCmd.Flags().StringVar(&list.Category, "category", "", "exact category")
	listCmd.Flags().StringVar(&list.Supplier, "supplier", "", "exact supplier")

	attachCmd := &cobra.Command{
		Use:          "attach <id> <file>",
		Short:        "Upload a receipt and attach it to an expense",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				e, err := findExpense(s, args[0])
				if err != nil {
					return err
				}
				name := filepath.Base(args[1])
				up, err := s.client.Upload(ctx, wire.UploadRequest{
					File:     wire.EncodeDataURL(name, data),
					Filename: name,
					UserID:   s.identity,
				})
				if err != nil {
					return err
				}
				e.Attachment = &models.Attachment{URL: up.URL, PublicID: up.PublicID}
				e.ReceiptPDF = ""
				saved, err := s.ledger.UpdateExpense(ctx, s.identity, e)
				if err != nil {
					return err
				}
				return s.out.Message("attached "+up.URL, saved)
			})
		},
	}

	cmd.AddCommand(addCmd, updCmd, delCmd, listCmd, attachCmd)
	return cmd
}

// NewIncomeCommand команды учета доходов.
func NewIncomeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "income", Short: "Manage income"}

	add := &RecordOptions{}
	addCmd := &cobra.Command{
		Use:          "add",
		Short:        "Add income",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in models.Income
			if err := add.applyIncome(cmd.Flags(), &in); err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				saved, err := s.ledger.AddIncome(ctx, s.identity, in)
				if err != nil {
					return err
				}
				return s.out.Message("income "+saved.ID+" added", saved)
			})
		},
	}
	add.bind(addCmd.Flags(), false)
	_ = addCmd.MarkFlagRequired("date")
	_ = addCmd.MarkFlagRequired("amount")

	upd := &RecordOptions{}
	updCmd := &cobra.Command{
		Use:          "update <id>",
		Short:        "Change fields of an income record",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				in, err := findIncome(s, args[0])
				if err != nil {
					return err
				}
				if err := upd.applyIncome(cmd.Flags(), &in); err != nil {
					return err
				}
				saved, err := s.ledger.UpdateIncome(ctx, s.identity, in)
				if err != nil {
					return err
				}
				return s.out.Message("income "+saved.ID+" updated", saved)
			})
		},
	}
	upd.bind(updCmd.Flags(), false)

	delCmd := &cobra.Command{
		Use:          "delete <id>",
		Short:        "Delete an income record",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.ledger.DeleteIncome(ctx, s.identity, args[0]); err != nil {
					return err
				}
				return s.out.Message("income "+args[0]+" deleted", map[string]string{"id": args[0]})
			})
		},
	}

	list := &ListOptions{}
	listCmd := &cobra.Command{
		Use:          "list",
		Short:        "List income",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			months, err := monthFilter(list.Month)
			if err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				snap, err := s.engine.Current(s.identity)
				if err != nil {
					return err
				}
				var out []models.Income
				for _, m := range months {
					for _, in := range snap.Income[m] {
						if list.Year == 0 || in.Year == list.Year {
							out = append(out, in)
						}
					}
				}
				return s.out.Success(out, func(w io.Writer) error {
					rows := make([][]string, 0, len(out))
					for _, in := range out {
						rows = append(rows, []string{in.ID, in.Date, in.Description, in.Amount.StringFixed(2)})
					}
					return table(w, []string{"ID", "DATE", "DESCRIPTION", "AMOUNT"}, rows)
				})
			})
		},
	}
	listCmd.Flags().StringVar(&list.Month, "month", "", "month 1-12 (default: all)")
	listCmd.Flags().IntVar(&list.Year, "year", 0, "year (default: all)")

	cmd.AddCommand(addCmd, updCmd, delCmd, listCmd)
	return cmd
}

// NewNoteCommand заметки месяца.
func NewNoteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "note", Short: "Monthly notes"}

	setCmd := &cobra.Command{
		Use:          "set <month> <text>",
		Short:        "Set the note of a month (empty text clears it)",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseMonth(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.ledger.SetNote(ctx, s.identity, idx, args[1]); err != nil {
					return err
				}
				return s.out.Message("note saved", map[string]any{"month": idx + 1, "content": args[1]})
			})
		},
	}

	showCmd := &cobra.Command{
		Use:          "show",
		Short:        "Show notes of all months",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				snap, err := s.engine.Current(s.identity)
				if err != nil {
					return err
				}
				return s.out.Success(snap.Notes, func(w io.Writer) error {
					var rows [][]string
					for m, n := range snap.Notes {
						if n != "" {
							rows = append(rows, []string{strconv.Itoa(m + 1), n})
						}
					}
					return table(w, []string{"MONTH", "NOTE"}, rows)
				})
			})
		},
	}

	cmd.AddCommand(setCmd, showCmd)
	return cmd
}

// NewSummaryCommand итоги месяца и года.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "summary", Short: "Monthly and yearly totals"}

	var year int
	monthCmd := &cobra.Command{
		Use:          "month <month>",
		Short:        "Totals of one month",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseMonth(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				sum, err := s.ledger.MonthSummary(s.identity, idx, year)
				if err != nil {
					return err
				}
				return s.out.Success(sum, func(w io.Writer) error {
					rows := [][]string{
						{"income", sum.Income.StringFixed(2)},
						{"expenses", sum.Expenses.StringFixed(2)},
						{"balance", sum.Balance.StringFixed(2)},
					}
					for _, c := range sum.Categories() {
						rows = append(rows, []string{"  " + c, sum.ByCategory[c].StringFixed(2)})
					}
					return table(w, []string{"", "TOTAL"}, rows)
				})
			})
		},
	}
	monthCmd.Flags().IntVar(&year, "year", 0, "year (default: all years)")

	yearCmd := &cobra.Command{
		Use:          "year <year>",
		Short:        "Totals of every month of a year",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			y, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				months, total, err := s.ledger.YearSummary(s.identity, y)
				if err != nil {
					return err
				}
				data := struct {
					Months []ledger.Summary `json:"months"`
					Total  ledger.Summary   `json:"total"`
				}{months, total}
				return s.out.Success(data, func(w io.Writer) error {
					rows := make([][]string, 0, len(months)+1)
					for _, m := range months {
						rows = append(rows, []string{strconv.Itoa(m.Month + 1), m.Income.StringFixed(2), m.Expenses.StringFixed(2), m.Balance.StringFixed(2)})
					}
					rows = append(rows, []string{"total", total.Income.StringFixed(2), total.Expenses.StringFixed(2), total.Balance.StringFixed(2)})
					return table(w, []string{"MONTH", "INCOME", "EXPENSES", "BALANCE"}, rows)
				})
			})
		},
	}

	cmd.AddCommand(monthCmd, yearCmd)
	return cmd
}

func monthFilter(s string) ([]int, error) {
	if s == "" {
		out := make([]int, models.MonthsInYear)
		for m := range out {
			out[m] = m
		}
		return out, nil
	}
	idx, err := parseMonth(s)
	if err != nil {
		return nil, err
	}
	return []int{idx}, nil
}

func findExpense(s *session, id string) (models.Expense, error) {
	snap, err := s.engine.Current(s.identity)
	if err != nil {
		return models.Expense{}, err
	}
	for m := range models.MonthsInYear {
		for _, e := range snap.Expenses[m] {
			if e.ID == id {
				return e, nil
			}
		}
	}
	return models.Expense{}, fmt.Errorf("expense %s: %w", id, errRecordNotFound)
}

func findIncome(s *session, id string) (models.Income, error) {
	snap, err := s.engine.Current(s.identity)
	if err != nil {
		return models.Income{}, err
	}
	for m := range models.MonthsInYear {
		for _, in := range snap.Income[m] {
			if in.ID == id {
				return in, nil
			}
		}
	}
	return models.Income{}, fmt.Errorf("income %s: %w", id, errRecordNotFound)
}

func attachmentMark(a *models.Attachment) string {
	if a == nil {
		return ""
	}
	return "yes"
}
