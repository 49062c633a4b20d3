package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fearrpc/hexdump"
	"fearrpc/process"
	"fearrpc/process/memory_map"
	"fearrpc/process_blob"
	"fearrpc/search"
)

func newScanCmd() *cobra.Command {
	var (
		pid     int
		from    string
		pattern string
		limit   int
		color   bool
	)

	cmd := &cobra.Command{
		Use:   "scan (--pid PID | --from DIR) --aob PATTERN",
		Short: "Search process memory or a dump for a byte pattern",
		Example: `  fearrpc scan --pid 4242 --aob '"Docks" 2e 57'
  fearrpc scan --from ./dump --aob "8b 45 ?? c3" --limit 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			aob, err := search.ParseAOB(pattern)
			if err != nil {
				return err
			}

			var (
				r       process.Reader
				regions []memory_map.MemoryMapItem
			)
			switch {
			case pid != 0 && from != "":
				return errors.New("--pid and --from are mutually exclusive")
			case pid != 0:
				proc, _, err := openPID(pid)
				if err != nil {
					return err
				}
				defer proc.Close()
				if regions, err = proc.MemoryMap(); err != nil {
					return fmt.Errorf("read memory map: %w", err)
				}
				r = proc
			case from != "":
				img, err := process_blob.Load(from)
				if err != nil {
					return err
				}
				defer img.Close()
				r, regions = img, img.MemoryMap()
			default:
				return errors.New("one of --pid or --from is required")
			}

			out := cmd.OutOrStdout()
			matches := search.ScanRegions(r, regions, aob, limit)
			fmt.Fprintf(out, "%d matches for %s\n", len(matches), search.FormatAOB(aob))

			for _, m := range matches {
				data, start, err := hexdump.Around(r, m, len(aob.Pattern), 16, 16)
				if err != nil {
					fmt.Fprintf(out, "\n%s: %v\n", m.ToString(), err)
					continue
				}
				fmt.Fprintf(out, "\n%s\n", m.ToString())
				hexdump.Dump(out, data, hexdump.Options{
					Base:            start,
					PointerSize:     r.PointerSize(),
					Regions:         regions,
					HighlightOffset: int(m - start),
					HighlightLength: len(aob.Pattern),
					Color:           color,
				})
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&pid, "pid", "p", 0, "live process id")
	cmd.Flags().StringVarP(&from, "from", "f", "", "dump directory")
	cmd.Flags().StringVar(&pattern, "aob", "", `byte pattern, e.g. "8b 45 ?? c3"`)
	cmd.Flags().IntVar(&limit, "limit", 20, "stop after this many matches, 0 for all")
	cmd.Flags().BoolVar(&color, "color", false, "highlight matches")
	_ = cmd.MarkFlagRequired("aob")
	return cmd
}
