//go:build ignore

// Repeats an in-process thread-model plan with profiling support and
// reports whether goroutines or heap outlive the runs.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/wesleyorama2/contend/internal/config"
	"github.com/wesleyorama2/contend/internal/engine"
)

func main() {
	kind := flag.String("kind", "cpu", "workload kernel: cpu, mem or io")
	units := flag.Int("units", 16, "units per round")
	iterations := flag.Uint64("iterations", 200000, "kernel iterations per unit")
	rounds := flag.Int("rounds", 20, "number of plan executions")
	cpuProfile := flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile := flag.String("memprofile", "", "write memory profile to file")
	goroutineProfile := flag.String("goroutineprofile", "", "write goroutine profile to file")
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("Thread Model Leak Check")
	fmt.Println("========================================")
	fmt.Println()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		fmt.Printf("✓ CPU profiling enabled: %s\n", *cpuProfile)
	}

	cfg := &config.PlanConfig{
		Name: "leak-check",
		Runs: map[string]*config.RunConfig{
			"thread": {
				Model:        "thread",
				Kind:         *kind,
				Units:        *units,
				Iterations:   *iterations,
				WorkingSetMB: 8,
				PayloadMB:    1,
				PathPrefix:   os.TempDir() + "/contend_leak",
			},
		},
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var initialStats runtime.MemStats
	runtime.ReadMemStats(&initialStats)
	initialGoroutines := runtime.NumGoroutine()

	fmt.Printf("Initial state:\n")
	fmt.Printf("  Goroutines: %d\n", initialGoroutines)
	fmt.Printf("  Memory Allocated: %.2f MB\n", float64(initialStats.Alloc)/1024/1024)
	fmt.Println()

	fmt.Println("Round\tVerdict\t\tDuration\tGoroutines\tMemAlloc(MB)")
	fmt.Println("-----\t-------\t\t--------\t----------\t------------")

	failed := 0
	startTime := time.Now()
	for i := 1; i <= *rounds; i++ {
		eng, err := engine.NewEngine(cfg, engine.WithLogger(logger))
		if err != nil {
			log.Fatal("invalid plan: ", err)
		}
		result, err := eng.Run()
		if err != nil {
			log.Fatal("run failed: ", err)
		}
		if !result.Passed {
			failed++
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		fmt.Printf("%d\t%s\t\t%s\t\t%d\t\t%.2f\n",
			i, result.Verdict(), result.Duration.Round(time.Millisecond),
			runtime.NumGoroutine(), float64(m.Alloc)/1024/1024)
	}
	elapsed := time.Since(startTime)

	runtime.GC()
	var finalStats runtime.MemStats
	runtime.ReadMemStats(&finalStats)
	finalGoroutines := runtime.NumGoroutine()

	fmt.Println()
	fmt.Printf("Duration: %s\n", elapsed)
	fmt.Printf("Final state:\n")
	fmt.Printf("  Goroutines: %d (delta: %+d)\n", finalGoroutines, finalGoroutines-initialGoroutines)
	fmt.Printf("  Memory Allocated: %.2f MB (delta: %+.2f MB)\n",
		float64(finalStats.Alloc)/1024/1024,
		(float64(finalStats.Alloc)-float64(initialStats.Alloc))/1024/1024)
	fmt.Printf("  Total GC Runs: %d\n", finalStats.NumGC-initialStats.NumGC)
	fmt.Println()

	// every thread unit is joined before Run returns
	leaked := finalGoroutines > initialGoroutines+2
	if leaked {
		fmt.Printf("⚠ WARNING: Possible goroutine leak detected! (+%d goroutines)\n", finalGoroutines-initialGoroutines)
	} else {
		fmt.Println("✓ No goroutine leaks detected")
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatal("could not create memory profile: ", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
		fmt.Printf("✓ Memory profile written to: %s\n", *memProfile)
	}

	if *goroutineProfile != "" {
		f, err := os.Create(*goroutineProfile)
		if err != nil {
			log.Fatal("could not create goroutine profile: ", err)
		}
		defer f.Close()
		if err := pprof.Lookup("goroutine").WriteTo(f, 0); err != nil {
			log.Fatal("could not write goroutine profile: ", err)
		}
		fmt.Printf("✓ Goroutine profile written to: %s\n", *goroutineProfile)
	}

	if failed > 0 || leaked {
		fmt.Printf("✗ %d of %d rounds failed\n", failed, *rounds)
		os.Exit(1)
	}
	fmt.Println("✓ All rounds passed")
}
