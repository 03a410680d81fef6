package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/nodeattr"
	"github.com/aretw0/nodeattr/pkg/core"
)

func main() {
	count := flag.Int("count", 1000, "Number of nodes to generate")
	adapter := flag.String("adapter", "fs", "Storage adapter: fs or sqlite")
	keep := flag.Bool("keep", false, "Keep the benchmark data after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "nodeattr_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	uri := benchDir
	if *adapter == "sqlite" {
		uri = filepath.Join(benchDir, "bench.db")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	src, err := nodeattr.Open(uri, nodeattr.WithAdapter(*adapter), nodeattr.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	defer src.Close()

	ctx := context.Background()

	// 1. Generate nodes through the stores themselves.
	fmt.Printf("Generating %d nodes (%s) in %s...\n", *count, *adapter, benchDir)
	startGen := time.Now()
	for i := 0; i < *count; i++ {
		store, err := src.Node(ctx, fmt.Sprintf("plant/node_%d", i), true)
		if err != nil {
			panic(err)
		}
		for name, v := range map[string]any{
			core.TitleName: fmt.Sprintf("Node %d", i),
			"speed":        int64(i),
			"ratio":        0.5,
			"obsolete":     true,
		} {
			if err := store.Set(ctx, name, v); err != nil {
				panic(err)
			}
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	// 2. List
	startList := time.Now()
	ids, err := src.Nodes(ctx, "plant/**")
	if err != nil {
		panic(err)
	}
	listDuration := time.Since(startList)

	// 3. Apply one sheet to every node.
	title := "Benchmarked"
	s := &nodeattr.Sheet{
		Title: &title,
		Rows: []core.Row{
			{Name: "speed", Value: "1500", Type: "uint16"},
			{Name: "ratio", Value: "0.25", Type: "float32"},
			{Name: "limits", Value: "{'min': 0, 'max': 10}", Type: "expr"},
		},
	}
	startApply := time.Now()
	failures := 0
	for _, id := range ids {
		store, err := src.Node(ctx, id, false)
		if err != nil {
			panic(err)
		}
		res, err := nodeattr.Apply(ctx, store, s, nodeattr.WithLogger(logger))
		if err != nil {
			panic(err)
		}
		failures += res.Failures
	}
	applyDuration := time.Since(startApply)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d nodes, %s):\n", len(ids), *adapter)
	fmt.Printf("  List:  %v\n", listDuration)
	fmt.Printf("  Apply: %v (%v/node, %d failures)\n", applyDuration, applyDuration/time.Duration(max(len(ids), 1)), failures)
	fmt.Printf("--------------------------------------------------\n")
}
