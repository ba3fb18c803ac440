package cmd

import (
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/log"
)

// Logger builds a logfmt-handler logger writing to w at the given level.
func Logger(w io.Writer, lvl slog.Level) log.Logger {
	return log.NewLogger(log.LogfmtHandlerWithLevel(w, lvl))
}
