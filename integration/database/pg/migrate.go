package pg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies the goose migrations found under cfg.MigrationsPath in
// fsys. A nil fsys reads from the working directory.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, fsys fs.FS, log *slog.Logger) error {
	if cfg.MigrationsPath == "" {
		return ErrMigrationPathNotProvided
	}
	if fsys != nil {
		if _, err := fs.Stat(fsys, cfg.MigrationsPath); err != nil {
			return errors.Join(ErrMigrationsDirNotFound, err)
		}
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if log != nil {
		goose.SetLogger(&gooseLogger{log: log})
	}
	if cfg.MigrationsTable != "" {
		goose.SetTableName(cfg.MigrationsTable)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	if err := goose.UpContext(ctx, db, cfg.MigrationsPath); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}

type gooseLogger struct {
	log *slog.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error("migration failed", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, v...))))
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.log.Info("migration", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, v...))))
}
