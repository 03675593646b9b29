package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// TerminateContext is cancelled on SIGINT, SIGTERM or SIGQUIT.
func TerminateContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

// RedirectFile makes from refer to the same file as to, e.g. to capture
// panics written to stderr in the log file.
func RedirectFile(from, to *os.File) error {
	return unix.Dup2(int(to.Fd()), int(from.Fd()))
}

func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
