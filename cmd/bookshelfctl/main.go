package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bookshelf/internal/app"
	"bookshelf/internal/cli"
	"bookshelf/internal/config"
	"bookshelf/internal/storage"
	"bookshelf/internal/tracker"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists
	_ = godotenv.Load()

	storageConfig, err := config.LoadStorageFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bookshelfctl: failed to load config: %v\n", err)
		return 1
	}
	if storageConfig.Backend == config.BackendMock {
		fmt.Fprintln(os.Stderr, "WARNING: using the in-memory store, changes are not persisted")
	}

	bound, loc, err := config.LoadRulesFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bookshelfctl: failed to load config: %v\n", err)
		return 1
	}

	// Keep the terminal for command output
	logger := zap.NewNop()
	if os.Getenv("LOG_LEVEL") == "debug" {
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "bookshelfctl: failed to create logger: %v\n", err)
			return 1
		}
	}

	ctx := context.Background()
	db, err := app.OpenStorage(ctx, *storageConfig, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bookshelfctl: %v\n", err)
		return 1
	}
	defer db.Close()

	t := tracker.New(storage.NewObservable(db, logger), tracker.Options{Bound: bound, Location: loc}, logger)

	root := cli.NewRootCmd(t)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
