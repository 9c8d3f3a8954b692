package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/matio"
	"github.com/hupe1980/matio/codec"
	"github.com/hupe1980/matio/persistence"
	"github.com/hupe1980/matio/resource"
)

func newFlagSet(e *env, name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "usage: matio %s %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

func parse(fs *flag.FlagSet, args []string, minArgs int) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < minArgs {
		fs.Usage()
		return errUsage
	}
	return nil
}

func runInfo(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "info", "[-json] FILE...")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parse(fs, args, 1); err != nil {
		return err
	}

	c := e.codec()
	infos := make([]matio.FileInfo, 0, fs.NArg())
	for _, path := range fs.Args() {
		info, err := c.Inspect(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		infos = append(infos, info)
	}

	if *asJSON {
		data, err := codec.MarshalPretty(codec.Default, infos)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(e.stdout, "%s\n", data)
		return err
	}
	for _, info := range infos {
		kind := "single"
		if info.Container {
			kind = "container"
		}
		fmt.Fprintf(e.stdout, "%s: %s, %d record(s), %d bytes\n", info.Path, kind, len(info.Records), info.Size)
		for i, r := range info.Records {
			fmt.Fprintf(e.stdout, "  [%d] %s %v %s %d/%d bytes\n", i, r.Kind, r.Dims, r.Compression, r.PayloadSize, r.RawSize)
		}
	}
	return nil
}

func runConcat(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "concat", "-o OUT [-compression none|lz4|zstd] [-j N] [-mem BYTES] SRC...")
	out := fs.String("o", "", "output container file")
	comp := fs.String("compression", "none", "payload compression")
	jobs := fs.Int("j", 4, "parallel source loads")
	mem := fs.Int64("mem", 0, "memory budget in bytes for loaded sources (0 = unlimited)")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	if *out == "" {
		fs.Usage()
		return errUsage
	}
	c, err := persistence.ParseCompression(*comp)
	if err != nil {
		return err
	}
	rc := resource.NewController(resource.Config{MemoryLimitBytes: *mem, MaxConcurrentLoads: *jobs})
	mc := e.codec(matio.WithCompression(c), matio.WithResourceController(rc))
	if err := mc.SaveMatrixFiles(ctx, *out, fs.Args()); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "wrote %d matrices to %s\n", fs.NArg(), *out)
	return nil
}

func runSplit(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "split", "-o DIR FILE")
	dir := fs.String("o", ".", "output directory")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	src := fs.Arg(0)
	c := e.codec()
	ms, err := c.LoadMatrices(src, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	for i, m := range ms {
		path := filepath.Join(*dir, fmt.Sprintf("%s_%d.mat", base, i))
		if err := c.SaveMatrix(path, m); err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, path)
	}
	return nil
}
