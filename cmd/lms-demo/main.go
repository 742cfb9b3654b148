// Command lms-demo wires the library services over a chosen storage
// backend, seeds a small catalog, runs one borrow/return cycle and an
// overdue scan, and exits. It demonstrates the wiring, not a user
// interface.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/datdd/library-management-system/catalogservice"
	"github.com/datdd/library-management-system/datetime"
	"github.com/datdd/library-management-system/domain"
	"github.com/datdd/library-management-system/loanservice"
	"github.com/datdd/library-management-system/notification"
	"github.com/datdd/library-management-system/storage"
	"github.com/datdd/library-management-system/storage/cachingengine"
	"github.com/datdd/library-management-system/storage/fileengine"
	"github.com/datdd/library-management-system/storage/memoryengine"
	"github.com/datdd/library-management-system/storage/oteladapters"
	"github.com/datdd/library-management-system/storage/sqlengine"
	"github.com/datdd/library-management-system/userservice"
)

const (
	backendMemory  = "memory"
	backendFile    = "file"
	backendCaching = "caching"
	backendSQL     = "postgres"
)

func main() {
	backend := flag.String("backend", envOr("LMS_BACKEND", backendMemory),
		"storage backend: memory, file, caching or postgres")
	dataDir := flag.String("data-dir", envOr("LMS_DATA_DIR", "./lms-data"),
		"data directory for the file and caching backends")
	dsn := flag.String("dsn", envOr("LMS_POSTGRES_DSN", ""),
		"connection string for the postgres backend")
	sqlDriver := flag.String("sql-driver", envOr("LMS_SQL_DRIVER", "pgx"),
		"protocol adapter for the postgres backend: pgx or pq")
	flag.Parse()

	logHandler := slog.NewJSONHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(logHandler))

	if err := run(context.Background(), *backend, *dataDir, *dsn, *sqlDriver); err != nil {
		slog.Error("demo failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, backend, dataDir, dsn, sqlDriver string) error {
	storeLogger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.Default().Handler())

	store, cleanup, err := buildStore(ctx, backend, dataDir, dsn, sqlDriver, storeLogger)
	if err != nil {
		return err
	}
	defer cleanup()

	catalog, err := catalogservice.NewService(store)
	if err != nil {
		return err
	}
	users, err := userservice.NewService(store)
	if err != nil {
		return err
	}
	loans, err := loanservice.NewService(catalog, users, store,
		loanservice.WithNotifier(notification.NewConsoleNotifier(slog.Default())),
		loanservice.WithLoanDuration(14),
	)
	if err != nil {
		return err
	}

	if err := seed(ctx, catalog, users); err != nil {
		return err
	}

	record, err := loans.BorrowItem(ctx, "user_1", "item_1")
	if err != nil {
		return err
	}
	slog.Info("item borrowed",
		"loan_id", record.ID(), "due", datetime.Format(record.DueDate()))

	if err := loans.ReturnItem(ctx, "user_1", "item_1"); err != nil {
		return err
	}
	slog.Info("item returned", "loan_id", record.ID())

	// An already-due loan so the scan below has something to report.
	overdue, err := domain.NewLoanRecord("loan_overdue", "item_2", "user_2",
		time.Now().AddDate(0, 0, -30), time.Now().AddDate(0, 0, -16))
	if err != nil {
		return err
	}
	if err := store.SaveLoanRecord(ctx, overdue); err != nil {
		return err
	}

	sent, err := loans.ProcessOverdueItems(ctx)
	if err != nil {
		return err
	}
	slog.Info("overdue scan complete", "notices_sent", sent)

	if persister, ok := store.(*cachingengine.Store); ok {
		if err := persister.PersistAll(ctx); err != nil {
			return err
		}
	}

	return nil
}

func buildStore(
	ctx context.Context,
	backend, dataDir, dsn, sqlDriver string,
	logger *oteladapters.SlogBridgeLogger,
) (storage.Store, func(), error) {

	noop := func() {}

	switch backend {
	case backendMemory:
		return memoryengine.NewStore(memoryengine.WithLogger(logger)), noop, nil

	case backendFile:
		store, err := fileengine.NewStore(dataDir, fileengine.WithLogger(logger))
		return store, noop, err

	case backendCaching:
		store, err := cachingengine.NewStore(ctx, dataDir, cachingengine.WithLogger(logger))
		return store, noop, err

	case backendSQL:
		if dsn == "" {
			return nil, noop, fmt.Errorf("postgres backend needs a dsn")
		}
		switch sqlDriver {
		case "pgx":
			store, err := sqlengine.NewStoreFromDSN(dsn, sqlengine.WithContextualLogger(logger))
			if err != nil {
				return nil, noop, err
			}
			return store, func() { _ = store.Close(ctx) }, nil
		case "pq":
			db, err := sql.Open("postgres", dsn)
			if err != nil {
				return nil, noop, err
			}
			store, err := sqlengine.NewStoreFromSQLDB(db, sqlengine.WithContextualLogger(logger))
			if err != nil {
				return nil, noop, err
			}
			return store, func() { _ = store.Close(ctx); _ = db.Close() }, nil
		default:
			return nil, noop, fmt.Errorf("unknown sql driver %q", sqlDriver)
		}

	default:
		return nil, noop, fmt.Errorf("unknown backend %q", backend)
	}
}

func seed(ctx context.Context, catalog *catalogservice.Service, users *userservice.Service) error {
	if _, err := users.AddUser(ctx, "user_1", "Ada Lovelace"); err != nil {
		return err
	}
	if _, err := users.AddUser(ctx, "user_2", "Alan Turing"); err != nil {
		return err
	}

	if _, err := catalog.AddBook(ctx,
		"item_1", "Structure and Interpretation of Computer Programs",
		"author_1", "Harold Abelson", "978-0262510875", 1985); err != nil {
		return err
	}
	if _, err := catalog.AddBook(ctx,
		"item_2", "The Art of Computer Programming",
		"author_2", "Donald Knuth", "978-0201896831", 1968); err != nil {
		return err
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
