package main

import (
	"fmt"
	"os"

	"bookshelf/internal/app"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bookshelf: %v\n", err)
		os.Exit(1)
	}
}

// run builds the bot, API and digest, then serves until SIGINT or SIGTERM
func run() error {
	application, err := app.New()
	if err != nil {
		return err
	}
	return application.Run()
}
