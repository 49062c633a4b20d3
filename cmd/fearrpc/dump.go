package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fearrpc/process/memory_map"
	"fearrpc/process_blob"
	"fearrpc/table"
)

func newDumpCmd() *cobra.Command {
	var (
		pid        int
		output     string
		gameVer    string
		moduleOnly bool
	)

	cmd := &cobra.Command{
		Use:   "dump --pid PID --output DIR",
		Short: "Save the readable memory of a process for offline probing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			proc, info, err := openPID(pid)
			if err != nil {
				return err
			}
			defer proc.Close()

			regions, err := proc.MemoryMap()
			if err != nil {
				return fmt.Errorf("read memory map: %w", err)
			}

			meta := process_blob.Metadata{
				PID:         proc.GetPID(),
				Name:        info.Name,
				Version:     gameVer,
				PointerSize: proc.PointerSize(),
			}
			if base, err := proc.ModuleBase(); err == nil {
				meta.ModuleBase = base
			} else {
				log.Warn("No module base: ", err)
			}

			if moduleOnly {
				regions = moduleRegions(regions, uint64(meta.ModuleBase))
			}

			stats, err := process_blob.Save(output, proc, meta, regions)
			if err != nil {
				return err
			}

			t := table.New(table.Column{Header: "Regions"}, table.Column{Header: "Count", Right: true})
			t.Rowf("saved", "%d", stats.Saved)
			t.Rowf("unreadable", "%d", stats.Unreadable)
			t.Rowf("too large", "%d", stats.TooLarge)
			t.Rowf("read errors", "%d", stats.ReadErrors)
			t.Rowf("write errors", "%d", stats.WriteErrors)
			return t.Render(cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&pid, "pid", "p", 0, "process id to dump")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory")
	cmd.Flags().StringVar(&gameVer, "version", "", "game version recorded in the dump (FEAR, FEARMP, ...)")
	cmd.Flags().BoolVar(&moduleOnly, "module-only", false, "only save regions mapped from the main module")
	_ = cmd.MarkFlagRequired("pid")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// moduleRegions keeps the regions that share a backing file with the region
// at base, or the contiguous run starting at base when it is anonymous.
func moduleRegions(regions []memory_map.MemoryMapItem, base uint64) []memory_map.MemoryMapItem {
	first := memory_map.Find(base, regions)
	if first == nil {
		return nil
	}
	var out []memory_map.MemoryMapItem
	next := first.Address
	for _, r := range regions {
		if r.Address < first.Address {
			continue
		}
		if first.Pathname != "" && r.Pathname == first.Pathname || first.Pathname == "" && r.Address == next {
			out = append(out, r)
			next = r.End()
		}
	}
	return out
}
