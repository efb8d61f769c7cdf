package main

import (
	"log/slog"
	"os"

	"flarecli/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application exited with error", "error", err)
		os.Exit(1)
	}
}
