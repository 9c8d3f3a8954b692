package main

import (
	"context"
	"fmt"

	"github.com/hupe1980/matio/matrix"
	"gonum.org/v1/gonum/mat"
)

func runStats(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "stats", "FILE...")
	if err := parse(fs, args, 1); err != nil {
		return err
	}

	c := e.codec()
	for _, path := range fs.Args() {
		ms, err := c.LoadMatrices(path, true)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(e.stdout, "%s:\n", path)
		for i, m := range ms {
			line, err := recordStats(m)
			if err != nil {
				return fmt.Errorf("%s: record %d: %w", path, i, err)
			}
			fmt.Fprintf(e.stdout, "  [%d] %s\n", i, line)
		}
	}
	return nil
}

// recordStats summarizes one matrix. Non-empty rank-2 matrices also get
// their Frobenius norm and, when square, the determinant.
func recordStats(m matrix.Any) (string, error) {
	line := fmt.Sprintf("%s %v sum=%g", m.Kind(), m.Dims(), m.Sum())
	if m.Rank() != 2 || m.Len() == 0 {
		return line, nil
	}
	f, err := matrix.ToFloat64(m)
	if err != nil {
		return "", err
	}
	d, err := matrix.ToDense(f)
	if err != nil {
		return "", err
	}
	line += fmt.Sprintf(" norm=%g", mat.Norm(d, 2))
	if r, c := d.Dims(); r == c {
		line += fmt.Sprintf(" det=%g", mat.Det(d))
	}
	return line, nil
}
