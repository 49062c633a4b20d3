package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"fearrpc/config"
	"fearrpc/discovery"
	"fearrpc/gamestate"
	"fearrpc/hexdump"
	"fearrpc/leveldb"
	"fearrpc/presence"
	"fearrpc/process"
	"fearrpc/process_blob"
	"fearrpc/table"
	"fearrpc/tracker"
)

func newProbeCmd(opts *rootOptions) *cobra.Command {
	var (
		from     string
		gameVer  string
		showDump bool
		color    bool
	)

	cmd := &cobra.Command{
		Use:   "probe --from DIR",
		Short: "Run address discovery and a state read against a saved dump",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			levels, err := leveldb.Load(cfg.Resolve(cfg.LevelDatabase))
			if err != nil {
				log.Warn("Level database: ", err)
			}

			img, err := process_blob.Load(from)
			if err != nil {
				return err
			}
			defer img.Close()

			if gameVer == "" {
				gameVer = img.Metadata.Version
			}
			if gameVer == "" {
				gameVer = "FEAR"
			}

			res, err := probe(img, gameVer, cfg, levels)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := res.table(img.Metadata).Render(out); err != nil {
				return err
			}
			if showDump {
				res.hexdumps(out, img, color)
			}

			payload, err := json.MarshalIndent(res.activity, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "\n%s\n", payload)
			return err
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "dump directory written by the dump command")
	cmd.Flags().StringVar(&gameVer, "version", "", "game version, defaults to the one recorded in the dump")
	cmd.Flags().BoolVar(&showDump, "hexdump", false, "hexdump the memory around each resolved address")
	cmd.Flags().BoolVar(&color, "color", false, "highlight the resolved bytes")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

type probeResult struct {
	version  string
	bounds   discovery.Bounds
	addrs    discovery.Addresses
	state    gamestate.State
	events   []gamestate.Event
	info     leveldb.Entry
	activity presence.Activity
}

// probe runs one discovery pass and one tick against a memory image.
func probe(img *process_blob.ProcessDump, version string, cfg config.Config, levels *leveldb.Database) (*probeResult, error) {
	base, err := img.ModuleBase()
	if err != nil {
		return nil, err
	}

	res := &probeResult{version: version, bounds: cfg.BoundsTable().Lookup(version)}
	discovery.New(cfg.DiscoveryConfig()).Discover(img, base, res.bounds, &res.addrs)

	game := gamestate.NewTracker()
	game.SetMode(version, tracker.IsMultiplayerVersion(version))
	res.events = game.Tick(img, &res.addrs, res.bounds)
	res.state = game.State()

	in := presence.Input{
		Version:          version,
		Multiplayer:      res.state.Multiplayer,
		InMenu:           res.state.InMenu,
		Level:            res.state.Level,
		Health:           res.state.Health,
		HealthKnown:      res.state.HealthKnown,
		Bounds:           res.bounds,
		Deaths:           res.state.Deaths,
		LargeImage:       presence.NewRotator(cfg.Images, cfg.ImageInterval).Next(version, time.Now()),
		MultiplayerImage: cfg.Images.Multiplayer,
	}
	if !res.state.InMenu {
		res.info = levels.Lookup(res.state.Level)
		in.Info = &res.info
	}
	res.activity = presence.Build(in)
	return res, nil
}

func (r *probeResult) table(meta process_blob.Metadata) *table.Table {
	t := table.New(table.Column{Header: "Field"}, table.Column{Header: "Address"}, table.Column{Header: "Value"})
	t.Row("process", "", fmt.Sprintf("%s (pid %d)", meta.Name, meta.PID))
	t.Row("module", meta.ModuleBase.ToString(), fmt.Sprintf("%d-bit", meta.PointerSize*8))
	t.Row("version", "", fmt.Sprintf("%s (health %.0f..%.0f)", r.version, r.bounds.Min, r.bounds.Max))
	t.Rule()
	t.Row("level", r.addrs.Level.String(), r.state.Level)
	if r.info.Key != "" || r.info.Location != "" {
		t.Row("location", "", fmt.Sprintf("%s / %s", r.info.EpisodeName, r.info.Location))
	}
	health := ""
	if r.state.HealthKnown {
		health = fmt.Sprintf("%.1f", r.state.Health)
	}
	t.Row("health", r.addrs.Health.String(), health)
	t.Row("deaths", r.addrs.Deaths.String(), fmt.Sprintf("%d", r.state.Deaths))
	for _, ev := range r.events {
		t.Row("event", "", ev.String())
	}
	return t
}

func (r *probeResult) hexdumps(w io.Writer, img *process_blob.ProcessDump, color bool) {
	show := func(name string, ra process.ResolvedAddress, span int) {
		addr, ok := ra.Get()
		if !ok {
			return
		}
		data, start, err := hexdump.Around(img, addr, span, 32, 32)
		if err != nil {
			fmt.Fprintf(w, "\n%s: %v\n", name, err)
			return
		}
		fmt.Fprintf(w, "\n%s at %s\n", name, addr.ToString())
		hexdump.Dump(w, data, hexdump.Options{
			Base:            start,
			PointerSize:     img.PointerSize(),
			Regions:         img.MemoryMap(),
			HighlightOffset: int(addr - start),
			HighlightLength: span,
			Color:           color,
		})
	}
	show("level", r.addrs.Level, len(r.state.Level))
	show("health", r.addrs.Health, 4)
	show("deaths", r.addrs.Deaths, 4)
}
