package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/marmos91/littlefs/internal/logger"
	"github.com/marmos91/littlefs/pkg/config"
	"github.com/marmos91/littlefs/pkg/filesystem"
	"github.com/marmos91/littlefs/pkg/metrics"
)

const usage = `littlefs - littlefs engine tool

Usage:
  littlefs [-config path] <command> [arguments]

Commands:
  decode <code>...              Describe raw engine return codes
  init [-force]                 Write a default configuration file
  format                        Format the configured storage
  mkdir [-p] <path>             Create a directory
  ls [path]                     List a directory
  stat <path>                   Describe an entry
  cat <path>                    Print a file
  write <path> [data]           Write a file (data from stdin when omitted)
  rm [-r] <path>                Remove an entry
  mv <old> <new>                Rename an entry
  getattr <path> <type>         Print a custom attribute
  setattr <path> <type> <data>  Set a custom attribute
  rmattr <path> <type>          Remove a custom attribute
  df                            Show bytes in use
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// env carries what every command needs.
type env struct {
	configPath string
	cfg        *config.Config
	stdin      io.Reader
	stdout     io.Writer
}

type command func(e *env, args []string) error

var commands = map[string]command{
	"decode":  runDecode,
	"init":    runInit,
	"format":  runFormat,
	"mkdir":   withFS(runMkdir),
	"ls":      withFS(runLs),
	"stat":    withFS(runStat),
	"cat":     withFS(runCat),
	"write":   withFS(runWrite),
	"rm":      withFS(runRm),
	"mv":      withFS(runMv),
	"getattr": withFS(runGetAttr),
	"setattr": withFS(runSetAttr),
	"rmattr":  withFS(runRmAttr),
	"df":      withFS(runDf),
}

// commands that run before any configuration exists
var noConfig = map[string]bool{
	"decode": true,
	"init":   true,
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	flags := flag.NewFlagSet("littlefs", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	configPath := flags.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/littlefs/config.yaml)")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if flags.NArg() == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	name := flags.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	e := &env{configPath: *configPath, stdin: stdin, stdout: stdout}

	if !noConfig[name] {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		if err := config.ConfigureLogging(&cfg.Logging); err != nil {
			return err
		}
		e.cfg = cfg
	}

	if err := cmd(e, flags.Args()[1:]); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// withFS mounts the configured filesystem around fn.
func withFS(fn func(e *env, fsys *filesystem.FS, args []string) error) command {
	return func(e *env, args []string) (err error) {
		ctx := context.Background()

		fsMetrics := config.InitializeMetrics(e.cfg)

		eng, store, err := config.CreateEngine(ctx, &e.cfg.Engine)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close store: %w", closeErr)
			}
		}()

		fsys, err := filesystem.Mount(eng,
			filesystem.WithAutoFormat(e.cfg.Engine.AutoFormat),
			filesystem.WithMetrics(fsMetrics),
		)
		if err != nil {
			return err
		}

		err = fn(e, fsys, args)
		if unmountErr := fsys.Unmount(); unmountErr != nil && err == nil {
			err = unmountErr
		}

		if fsMetrics != nil {
			if dumpErr := metrics.WriteText(os.Stderr); dumpErr != nil {
				logger.Warn("Failed to write metrics: %v", dumpErr)
			}
		}
		return err
	}
}
