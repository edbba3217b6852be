package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pavanmanishd/pfalloc"
)

var (
	classesQuantum int
	classesFastMax int
)

func init() {
	cmd := newClassesCmd()
	cmd.Flags().IntVar(&classesQuantum, "quantum", pfalloc.DefaultQuantum, "Rounding granularity (power of two)")
	cmd.Flags().IntVar(&classesFastMax, "fast-max", pfalloc.DefaultFastMax, "Largest size served from free chains")
	rootCmd.AddCommand(cmd)
}

func newClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "Print the size-class table",
		Long: `The classes command prints every size class for a quantum and fast
threshold, with the range of request sizes each class serves.

Example:
  pfalloc classes
  pfalloc classes --quantum 16 --fast-max 256 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses(cmd.OutOrStdout(), classesQuantum, classesFastMax)
		},
	}
}

// SizeClass is one row of the classes table.
type SizeClass struct {
	Index   int `json:"index"`
	Size    int `json:"size"`
	MinReq  int `json:"min_request"`
	MaxReq  int `json:"max_request"`
	Payload int `json:"payload_with_header"`
}

func runClasses(w io.Writer, quantum, fastMax int) error {
	if quantum <= 0 || quantum&(quantum-1) != 0 {
		return fmt.Errorf("quantum must be a positive power of two, got %d", quantum)
	}
	if fastMax < quantum {
		return fmt.Errorf("fast-max %d is below the quantum %d", fastMax, quantum)
	}

	a := pfalloc.New(&pfalloc.Config{
		Quantum: quantum,
		FastMax: fastMax,
		Debug:   pfalloc.DebugChecked,
		Logger:  zap.NewNop(),
	})
	cfg := a.Config()
	hdr := a.HeaderSize()

	classes := make([]SizeClass, 0, cfg.FastMax/cfg.Quantum)
	for m := 1; m*cfg.Quantum <= cfg.FastMax; m++ {
		size := m * cfg.Quantum
		lo := size - cfg.Quantum + 1
		if m == 1 {
			lo = 0
		}
		classes = append(classes, SizeClass{
			Index:   m,
			Size:    size,
			MinReq:  lo,
			MaxReq:  size,
			Payload: size + hdr,
		})
	}

	if jsonOut {
		return printJSON(w, map[string]interface{}{
			"quantum":    cfg.Quantum,
			"fast_max":   cfg.FastMax,
			"arena_size": cfg.ArenaSize,
			"classes":    classes,
		})
	}

	fmt.Fprintf(w, "Quantum %d, FastMax %d, arena %d bytes, %d classes\n",
		cfg.Quantum, cfg.FastMax, cfg.ArenaSize, len(classes))
	fmt.Fprintf(w, "%5s  %6s  %13s  %8s\n", "class", "size", "requests", "w/header")
	for _, c := range classes {
		fmt.Fprintf(w, "%5d  %6d  %6d-%-6d  %8d\n", c.Index, c.Size, c.MinReq, c.MaxReq, c.Payload)
	}
	fmt.Fprintf(w, "larger requests go to the source\n")
	return nil
}
