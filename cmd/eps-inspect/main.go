package main

import (
	"fmt"
	"os"

	"github.com/raine/stock-metadata/internal/eps"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <file.eps> [more.eps...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for i, path := range os.Args[1:] {
		if i > 0 {
			fmt.Println()
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
			failed = true
			continue
		}
		meta, err := eps.Analyze(path, data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to analyze %s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Print(meta.Report())
	}
	if failed {
		os.Exit(1)
	}
}
