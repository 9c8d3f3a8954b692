package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/matio/dataset/patch"
)

func parseSize(s string) (h, w int, err error) {
	hs, ws, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want HxW", s)
	}
	if h, err = strconv.Atoi(hs); err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if w, err = strconv.Atoi(ws); err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	return h, w, nil
}

func parseScales(s string) ([]float64, error) {
	var out []float64
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("scales %q: %w", s, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func runPatches(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "patches", "-o DIR -size HxW [-stride N] [-scales 1,0.5] [-mode mat|png] [-gray] CLASS=DIR...")
	out := fs.String("o", "", "output directory")
	size := fs.String("size", "32x32", "patch size")
	stride := fs.Int("stride", 0, "patch stride (default: patch height)")
	scales := fs.String("scales", "1", "comma-separated image scales")
	mode := fs.String("mode", "mat", "patch file format")
	gray := fs.Bool("gray", false, "load images as gray")
	if err := parse(fs, args, 1); err != nil {
		return err
	}

	cfg := patch.DefaultConfig()
	cfg.OutputDir = *out
	cfg.Gray = *gray
	var err error
	if cfg.PatchHeight, cfg.PatchWidth, err = parseSize(*size); err != nil {
		return err
	}
	cfg.Stride = cfg.PatchHeight
	if *stride > 0 {
		cfg.Stride = *stride
	}
	if cfg.Scales, err = parseScales(*scales); err != nil {
		return err
	}
	if cfg.SaveMode, err = patch.ParseSaveMode(*mode); err != nil {
		return err
	}

	dirs := make(map[string]string, fs.NArg())
	for _, a := range fs.Args() {
		class, dir, ok := strings.Cut(a, "=")
		if !ok || class == "" || dir == "" {
			return fmt.Errorf("argument %q: want CLASS=DIR", a)
		}
		dirs[class] = dir
	}
	samples, err := patch.Collect(dirs)
	if err != nil {
		return err
	}

	b, err := patch.NewBuilder(cfg, e.codec(), patch.WithLogger(e.logger))
	if err != nil {
		return err
	}
	rep, err := b.Build(ctx, samples)
	if err != nil {
		return err
	}
	for _, class := range rep.Classes() {
		fmt.Fprintf(e.stdout, "%s: %d/%d patches\n", class, rep.Saved[class].GetCardinality(), rep.Attempted[class])
	}
	for _, f := range rep.Failures {
		fmt.Fprintf(e.stderr, "failed: %s: %v\n", f.Path, f.Err)
	}
	return nil
}
