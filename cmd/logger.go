package cmd

import (
	"log/slog"
	"os"
)

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
