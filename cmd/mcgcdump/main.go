// Command mcgcdump builds a small synthetic heap, runs one collection
// over it and prints a report of what the collector decided and did.
// It exists to exercise the collector package end to end the way a
// host embedder would drive it, not as a supported tool in its own
// right.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/inhies/go-bytesize"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/markcompact/mcgc/heap"
	"github.com/markcompact/mcgc/tracer"
)

func main() {
	var (
		pageCapacity = flag.Int("page-capacity", heap.DefaultPageSize, "bytes of object-area per page")
		alwaysGC     = flag.Bool("always-compact", false, "force the compacting branch")
		neverGC      = flag.Bool("never-compact", false, "force the non-compacting branch")
		global       = flag.Bool("global", false, "treat the run as a global GC (forces compaction)")
		verbose      = flag.Bool("v", false, "log every paged-space object the relocator moves (forwarding and new-space moves are not logged)")
		lockPath     = flag.String("lock", "", "path to a lock file serializing concurrent runs")
	)
	flag.Parse()

	if *lockPath != "" {
		fl := flock.New(*lockPath)
		locked, err := fl.TryLock()
		if err != nil {
			log.Fatalf("mcgcdump: acquiring lock %s: %v", *lockPath, err)
		}
		if !locked {
			log.Fatalf("mcgcdump: %s is held by another run; only one collector may run at a time", *lockPath)
		}
		defer fl.Unlock()
	}

	out := colorableOutput()

	demo := buildDemoHeap(*pageCapacity)
	demo.c.Flags.AlwaysCompact = *alwaysGC
	demo.c.Flags.NeverCompact = *neverGC
	demo.c.Flags.GCGlobal = *global
	demo.c.Flags.GCVerbose = *verbose

	before := snapshot(demo.h)

	start := time.Now()
	tr := tracer.New()
	demo.c.Collect(tr)
	elapsed := time.Since(start)

	after := snapshot(demo.h)

	report(out, before, after, tr, elapsed)
}

// colorableOutput wraps stdout so ANSI color codes render on every
// platform the host might run on, skipping color entirely when stdout
// isn't a terminal.
func colorableOutput() io.Writer {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return os.Stdout
	}
	return colorable.NewColorableStdout()
}

type spaceCounts struct {
	objects, bytes int
}

type heapSnapshot struct {
	new, old, code, mapSp spaceCounts
	large                 int
}

func snapshot(h *heap.Heap) heapSnapshot {
	var s heapSnapshot
	for _, id := range h.New.FromObjects {
		obj := h.Objects[id]
		s.new.objects++
		s.new.bytes += obj.Size
	}
	for _, p := range h.Old.Pages {
		for _, id := range p.Objects {
			obj := h.Objects[id]
			s.old.objects++
			s.old.bytes += obj.Size
		}
	}
	for _, p := range h.Code.Pages {
		for _, id := range p.Objects {
			obj := h.Objects[id]
			s.code.objects++
			s.code.bytes += obj.Size
		}
	}
	for _, p := range h.Map.Pages {
		for _, id := range p.Objects {
			obj := h.Objects[id]
			s.mapSp.objects++
			s.mapSp.bytes += obj.Size
		}
	}
	s.large = len(h.Large.Objects)
	return s
}

func report(out io.Writer, before, after heapSnapshot, tr *tracer.Counters, elapsed time.Duration) {
	mode := "sweep"
	if tr.IsCompacting {
		mode = "compact"
	}
	fmt.Fprintf(out, "mcgc collection: %s (%s)\n", mode, elapsed)
	fmt.Fprintf(out, "  new:  %3d -> %3d objects, %s -> %s\n",
		before.new.objects, after.new.objects, bytesize.New(float64(before.new.bytes)), bytesize.New(float64(after.new.bytes)))
	fmt.Fprintf(out, "  old:  %3d -> %3d objects, %s -> %s\n",
		before.old.objects, after.old.objects, bytesize.New(float64(before.old.bytes)), bytesize.New(float64(after.old.bytes)))
	fmt.Fprintf(out, "  code: %3d -> %3d objects, %s -> %s\n",
		before.code.objects, after.code.objects, bytesize.New(float64(before.code.bytes)), bytesize.New(float64(after.code.bytes)))
	fmt.Fprintf(out, "  map:  %3d -> %3d objects, %s -> %s\n",
		before.mapSp.objects, after.mapSp.objects, bytesize.New(float64(before.mapSp.bytes)), bytesize.New(float64(after.mapSp.bytes)))
	fmt.Fprintf(out, "  large: %d -> %d objects\n", before.large, after.large)
	fmt.Fprintf(out, "  marked count at finish: %d (expect 0)\n", tr.MarkedCount())
	fmt.Fprintf(out, "  live global objects: %d\n", tr.GlobalObjects)
	for _, mv := range tr.CodeMoves {
		fmt.Fprintf(out, "  code moved %s -> %s\n", mv[0], mv[1])
	}
}
