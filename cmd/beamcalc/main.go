package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/powerman/structlog"
)

func initLog(w io.Writer) {
	structlog.DefaultLogger.
		SetOutput(w).
		SetPrefixKeys(
			structlog.KeyApp, structlog.KeyLevel, structlog.KeyUnit,
		).
		SetDefaultKeyvals(
			structlog.KeyApp, filepath.Base(os.Args[0]),
			structlog.KeySource, structlog.Auto,
		).
		SetSuffixKeys(structlog.KeySource).
		SetKeysFormat(map[string]string{
			structlog.KeySource: " %6[2]s",
			structlog.KeyUnit:   " %6[2]s",
		})
}

func main() {
	initLog(os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
