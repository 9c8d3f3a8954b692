// Command matio inspects, combines and produces matrix files.
//
//	matio info FILE...
//	matio concat -o OUT SRC...
//	matio split -o DIR FILE
//	matio patches -o DIR -size HxW [-stride N] [-scales 1,0.5] [-mode mat|png] CLASS=DIR...
//	matio upload -bucket B [-prefix P] [-endpoint URL] FILE...
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/matio"
)

const usage = `usage: matio <command> [flags] [args]

commands:
  info      print the records of matrix files
  stats     print sums, norms and determinants of stored matrices
  concat    combine single-matrix files into one container
  split     write every matrix of a container to its own file
  patches   build a patch dataset from labelled image directories
  upload    copy matrix files to S3 or MinIO
`

var errUsage = errors.New("invalid usage")

type command func(ctx context.Context, env *env, args []string) error

var commands = map[string]command{
	"info":    runInfo,
	"stats":   runStats,
	"concat":  runConcat,
	"split":   runSplit,
	"patches": runPatches,
	"upload":  runUpload,
}

// env carries the process-wide dependencies of a command.
type env struct {
	stdout io.Writer
	stderr io.Writer
	logger *matio.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := &env{
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: matio.NewTextLogger(logLevel()),
	}
	if err := run(ctx, e, os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "matio: %v\n", err)
		}
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(os.Getenv("MATIO_LOG_LEVEL"))); err != nil {
		return slog.LevelWarn
	}
	return lvl
}

func run(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(e.stderr, usage)
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(e.stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
	return cmd(ctx, e, args[1:])
}

func (e *env) codec(optFns ...matio.Option) *matio.Codec {
	return matio.New(append([]matio.Option{matio.WithLogger(e.logger)}, optFns...)...)
}
