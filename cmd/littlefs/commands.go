package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/marmos91/littlefs/pkg/config"
	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/marmos91/littlefs/pkg/filesystem"
	"github.com/marmos91/littlefs/pkg/lfs"
	"github.com/marmos91/littlefs/pkg/stream"
)

func exactArgs(args []string, n int, names string) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %s", errUsage, names)
	}
	return nil
}

func parseFlags(name string, args []string, define func(*flag.FlagSet)) ([]string, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	define(flags)
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	return flags.Args(), nil
}

func parseAttrType(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: attribute type %q must be 0-255", errUsage, s)
	}
	return uint8(n), nil
}

// runDecode prints what each raw engine code means.
func runDecode(e *env, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: expected at least one code", errUsage)
	}

	w := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tVARIANT\tMNEMONIC\tKIND\tMESSAGE")
	for _, arg := range args {
		n, err := strconv.ParseInt(arg, 0, 32)
		if err != nil {
			return fmt.Errorf("%w: %q is not a 32-bit integer", errUsage, arg)
		}

		code := int32(n)
		lfsErr := lfs.FromCode(code)
		text, _ := lfsErr.MarshalText()
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			code, text, lfs.ReturnCodeString(code), stream.KindOf(lfsErr), lfsErr.Error())
	}
	return w.Flush()
}

func runInit(e *env, args []string) error {
	var force bool
	rest, err := parseFlags("init", args, func(flags *flag.FlagSet) {
		flags.BoolVar(&force, "force", false, "Overwrite an existing config file")
	})
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 0, "no arguments"); err != nil {
		return err
	}

	configPath, err := config.InitConfig(e.configPath, force)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Configuration written to %s\n", configPath)
	return nil
}

func runFormat(e *env, args []string) (err error) {
	if err := exactArgs(args, 0, "no arguments"); err != nil {
		return err
	}

	eng, store, err := config.CreateEngine(context.Background(), &e.cfg.Engine)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close store: %w", closeErr)
		}
	}()

	if err := filesystem.Format(eng); err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Formatted %s storage\n", e.cfg.Engine.Type)
	return nil
}

func runMkdir(e *env, fsys *filesystem.FS, args []string) error {
	var parents bool
	rest, err := parseFlags("mkdir", args, func(flags *flag.FlagSet) {
		flags.BoolVar(&parents, "p", false, "Create missing parents")
	})
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 1, "<path>"); err != nil {
		return err
	}

	if parents {
		return fsys.MkdirAll(rest[0])
	}
	return fsys.Mkdir(rest[0])
}

func runLs(e *env, fsys *filesystem.FS, args []string) error {
	dir := "/"
	switch len(args) {
	case 0:
	case 1:
		dir = args[0]
	default:
		return fmt.Errorf("%w: expected [path]", errUsage)
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", info.Mode(), info.Size(), info.Name())
	}
	return w.Flush()
}

func runStat(e *env, fsys *filesystem.FS, args []string) error {
	if err := exactArgs(args, 1, "<path>"); err != nil {
		return err
	}

	info, err := fsys.Stat(args[0])
	if err != nil {
		return err
	}

	kind := engine.TypeReg
	if info.IsDir() {
		kind = engine.TypeDir
	}
	fmt.Fprintf(e.stdout, "Name: %s\nType: %s\nSize: %d\n", info.Name(), kind, info.Size())
	return nil
}

func runCat(e *env, fsys *filesystem.FS, args []string) error {
	if err := exactArgs(args, 1, "<path>"); err != nil {
		return err
	}

	file, err := fsys.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(e.stdout, file)
	return err
}

func runWrite(e *env, fsys *filesystem.FS, args []string) error {
	var data []byte
	switch len(args) {
	case 1:
		var err error
		if data, err = io.ReadAll(e.stdin); err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	case 2:
		data = []byte(args[1])
	default:
		return fmt.Errorf("%w: expected <path> [data]", errUsage)
	}

	return fsys.WriteFile(args[0], data)
}

func runRm(e *env, fsys *filesystem.FS, args []string) error {
	var recursive bool
	rest, err := parseFlags("rm", args, func(flags *flag.FlagSet) {
		flags.BoolVar(&recursive, "r", false, "Remove directories and their contents")
	})
	if err != nil {
		return err
	}
	if err := exactArgs(rest, 1, "<path>"); err != nil {
		return err
	}

	if recursive {
		return fsys.RemoveAll(rest[0])
	}
	return fsys.Remove(rest[0])
}

func runMv(e *env, fsys *filesystem.FS, args []string) error {
	if err := exactArgs(args, 2, "<old> <new>"); err != nil {
		return err
	}
	return fsys.Rename(args[0], args[1])
}

func runGetAttr(e *env, fsys *filesystem.FS, args []string) error {
	if err := exactArgs(args, 2, "<path> <type>"); err != nil {
		return err
	}
	attr, err := parseAttrType(args[1])
	if err != nil {
		return err
	}

	value, err := fsys.GetAttr(args[0], attr)
	if err != nil {
		return err
	}
	_, err = e.stdout.Write(value)
	return err
}

func runSetAttr(e *env, fsys *filesystem.FS, args []string) error {
	if err := exactArgs(args, 3, "<path> <type> <data>"); err != nil {
		return err
	}
	attr, err := parseAttrType(args[1])
	if err != nil {
		return err
	}
	return fsys.SetAttr(args[0], attr, []byte(args[2]))
}

func runRmAttr(e *env, fsys *filesystem.FS, args []string) error {
	if err := exactArgs(args, 2, "<path> <type>"); err != nil {
		return err
	}
	attr, err := parseAttrType(args[1])
	if err != nil {
		return err
	}
	return fsys.RemoveAttr(args[0], attr)
}

func runDf(e *env, fsys *filesystem.FS, args []string) error {
	if err := exactArgs(args, 0, "no arguments"); err != nil {
		return err
	}

	used, err := fsys.Used()
	if err != nil {
		return err
	}

	capacity := "unlimited"
	if c := e.cfg.Engine.Limits.CapacityBytes; c > 0 {
		capacity = strconv.FormatUint(c, 10)
	}
	fmt.Fprintf(e.stdout, "Used: %d\nCapacity: %s\n", used, capacity)
	return nil
}
