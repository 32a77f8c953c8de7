package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/household-ledger/internal/config"
	"github.com/magabrotheeeer/household-ledger/internal/identity"
	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/mirror"
	"github.com/magabrotheeeer/household-ledger/internal/reconcile"
	"github.com/magabrotheeeer/household-ledger/internal/remote"
	"github.com/magabrotheeeer/household-ledger/internal/services/backup"
	"github.com/magabrotheeeer/household-ledger/internal/services/fleet"
	"github.com/magabrotheeeer/household-ledger/internal/services/ledger"
	"github.com/magabrotheeeer/household-ledger/internal/services/maintenance"
	"github.com/magabrotheeeer/household-ledger/internal/services/settings"
	"github.com/magabrotheeeer/household-ledger/internal/services/users"
)

// configEnv переменная с путем к конфигу, если флаг --config не задан.
const configEnv = "HOUSEHOLD_CONFIG"

// session клиентские зависимости одного запуска команды.
type session struct {
	identity string
	log      *slog.Logger
	out      *OutputFormatter

	store    *mirror.SQLiteStore
	mirror   *mirror.Mirror
	resolver *identity.Resolver
	client   *remote.Client
	engine   *reconcile.Engine

	ledger      *ledger.Service
	fleet       *fleet.Service
	maintenance *maintenance.Service
	settings    *settings.Service
	users       *users.Service
	backup      *backup.Service
}

// openSession собирает зависимости по конфигу без обращения к серверу.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*session, error) {
	const op = "cli.openSession"

	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv(configEnv)
	}
	cfg, err := config.LoadClient(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id := opts.User
	if id == "" {
		id = cfg.User
	}
	if id == "" {
		return nil, fmt.Errorf("%s: %w: pass --user or set HOUSEHOLD_USER", op, reconcile.ErrNoIdentity)
	}

	log := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	if err := ensureDir(cfg.MirrorPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	store, err := mirror.Open(ctx, cfg.MirrorPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &session{
		identity: id,
		log:      log,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
		store:    store,
		mirror:   mirror.New(store, log),
		resolver: identity.New(),
		client:   remote.NewClient(cfg.ServerURL, cfg.Timeout),
	}
	s.resolver.Set(id)
	s.engine = reconcile.New(s.client, s.mirror, s.resolver, log)

	s.ledger = ledger.New(s.engine, log)
	s.fleet = fleet.New(s.engine, log)
	s.maintenance = maintenance.New(s.engine, s.client, log)
	s.settings = settings.New(s.engine, log)
	s.users = users.New(s.engine, log)
	s.backup = backup.New(s.engine, log)
	return s, nil
}

// load загружает снимок и сообщает о работе без сети и о старых локальных данных.
func (s *session) load(ctx context.Context) reconcile.LoadResult {
	res := s.engine.Load(ctx, s.identity)

	switch res.Status {
	case reconcile.StatusOffline:
		s.out.Warn("server unavailable, working from local copy; changes cannot be saved")
	case reconcile.StatusLoaded, reconcile.StatusEmpty:
		if n, err := s.users.UpgradeLegacyPasswords(ctx, s.identity); err != nil {
			s.log.Warn("failed to upgrade legacy passwords", sl.Err(err))
		} else if n > 0 {
			s.log.Info("legacy passwords upgraded", slog.Int("count", n))
		}
	}
	if res.Conflict {
		s.out.Warn("local data from before sync was found; choose with: household sync resolve --use remote|local|merge")
	} else if res.PendingLocal {
		s.out.Warn("local data from before sync was found and the server is empty; upload it with: household sync resolve --use local")
	}
	return res
}

func (s *session) Close() error {
	s.resolver.Clear()
	return s.store.Close()
}

// withSession открывает сессию, загружает снимок и выполняет fn.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			s.log.Warn("failed to close mirror", sl.Err(cerr))
		}
	}()

	s.load(ctx)
	return fn(ctx, s)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func ensureDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create mirror dir: %w", err)
	}
	return nil
}
