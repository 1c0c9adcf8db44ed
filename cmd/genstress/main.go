// Command genstress writes a synthetic 100k-marker dataset for the stress
// scenario.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Problematy/goodmap-e2e-tests/internal/stressdata"
)

func main() {
	n := flag.Int("n", 100000, "number of markers to generate")
	out := flag.String("o", "e2e_stress_test_data.json", "output file")
	seed := flag.Int64("seed", 0, "random seed (0 = time-based)")
	flag.Parse()

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}

	fmt.Printf("Generating %d markers...\n", *n)
	if err := stressdata.New(s).Write(*out, *n); err != nil {
		slog.Error("generate stress data", "err", err)
		os.Exit(1)
	}
	fmt.Printf("Done! Wrote %d markers to %s\n", *n, *out)
}
