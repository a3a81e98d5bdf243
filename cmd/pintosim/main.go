// Command pintosim drives several independent simulated kernel boots
// concurrently: each one wires a scheduler, a process manager, and a
// demand-paged virtual memory layer together over in-memory device fakes,
// then runs a small demo workload that exercises priority donation,
// condition variables, copy-on-fork address space duplication, and
// file-backed mmap with writeback.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joeycumines/pintos-go/kconfig"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		manifestPath = flag.String("manifest", "", "path to a TOML boot manifest (optional)")
		instances    = flag.Int("instances", 3, "number of independent simulated boots to run concurrently")
		ticks        = flag.Int("ticks", 20_000, "timer ticks to pump per boot before giving up")
	)
	flag.Parse()

	if err := run(*manifestPath, *instances, *ticks); err != nil {
		fmt.Fprintln(os.Stderr, "pintosim:", err)
		os.Exit(1)
	}
}

func run(manifestPath string, instances, ticks int) error {
	manifest, err := kconfig.LoadManifest(manifestPath)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}

	var eg errgroup.Group
	for i := 0; i < instances; i++ {
		id := i
		eg.Go(func() error {
			in := newInstance(id, manifest, os.Stdout)
			if err := in.run(ticks); err != nil {
				return fmt.Errorf("instance %d: %w", id, err)
			}
			return nil
		})
	}
	return eg.Wait()
}
