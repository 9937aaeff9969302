// Command psx is a thin CLI wrapper around the psx core: it loads a BIOS
// image (and optionally a boot executable and/or a CD-ROM image), then
// either runs a fixed number of frames headlessly or drives real-time
// playback paced by psx/timing. The optional --session flag is a thin YAML
// convenience layer over the same flags, not a configuration subsystem of
// the core library itself.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"

	"github.com/valerio/psxgo/psx"
	"github.com/valerio/psxgo/psx/cdimage"
	"github.com/valerio/psxgo/psx/raster"
	"github.com/valerio/psxgo/psx/timing"
)

// sessionFile describes the on-disk structure --session accepts: the same
// inputs the flags expose, as a reusable document instead of a long
// command line. Fields mirror the CLI flags one-to-one.
type sessionFile struct {
	BIOS     string `yaml:"bios"`
	Exe      string `yaml:"exe"`
	CDImage  string `yaml:"cd_image"`
	Frames   int    `yaml:"frames"`
	TTY      bool   `yaml:"tty"`
	RealTime bool   `yaml:"real_time"`
}

func main() {
	app := cli.NewApp()
	app.Name = "psx"
	app.Description = "A cycle-scheduled PlayStation core"
	app.Usage = "psx --bios <path> [options]"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "bios", Usage: "Path to the retail BIOS image"},
		cli.StringFlag{Name: "exe", Usage: "Path to a PSX-EXE boot executable to sideload"},
		cli.StringFlag{Name: "cd-image", Usage: "Path to a raw CD-ROM sector image"},
		cli.IntFlag{Name: "frames", Usage: "Number of VBlanks to run headlessly (0 disables the frame cap)"},
		cli.BoolFlag{Name: "tty", Usage: "Log BIOS kernel PutChar/Write output at info level"},
		cli.BoolFlag{Name: "real-time", Usage: "Pace playback to the PSX's nominal 60Hz frame rate instead of running as fast as possible"},
		cli.StringFlag{Name: "session", Usage: "Path to a YAML session file providing the above options instead of flags"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("psx: fatal", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	opts, err := resolveOptions(c)
	if err != nil {
		return err
	}
	if opts.BIOS == "" {
		cli.ShowAppHelp(c)
		return errors.New("no BIOS path provided (use --bios or --session)")
	}

	bios, err := os.ReadFile(opts.BIOS)
	if err != nil {
		return fmt.Errorf("psx: reading BIOS: %w", err)
	}

	var cdReader io.ReaderAt
	if opts.CDImage != "" {
		cdImage, err := cdimage.Open(opts.CDImage)
		if err != nil {
			return fmt.Errorf("psx: opening CD image: %w", err)
		}
		defer cdImage.Close()
		cdReader = cdImage
	}

	if opts.TTY {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
		slog.SetDefault(slog.New(handler))
	}

	sink := raster.NopSink{}

	var emu *psx.Emulator
	if opts.Exe != "" {
		exeData, err := os.ReadFile(opts.Exe)
		if err != nil {
			return fmt.Errorf("psx: reading boot executable: %w", err)
		}
		emu, err = psx.NewWithExecutable(bios, exeData, sink, cdReader)
		if err != nil {
			return fmt.Errorf("psx: constructing emulator: %w", err)
		}
	} else {
		emu, err = psx.New(bios, sink, cdReader)
		if err != nil {
			return fmt.Errorf("psx: constructing emulator: %w", err)
		}
	}

	limiter := timing.Limiter(timing.NewNoOpLimiter())
	if opts.RealTime {
		limiter = timing.NewTickerLimiter()
	}

	frame := 0
	for opts.Frames <= 0 || frame < opts.Frames {
		if err := emu.RunUntilFrame(); err != nil {
			return fmt.Errorf("psx: emulation halted: %w", err)
		}
		frame++
		limiter.WaitForNextFrame()
		if frame%60 == 0 {
			slog.Info("progress", "frame", frame, "instructions", emu.InstructionCount())
		}
		if opts.Frames <= 0 && frame > 1_000_000_000 {
			// A sanity backstop for an unbounded --real-time run launched
			// without --frames; real usage pairs --real-time with a host
			// that cancels the process, not with an internal frame cap.
			break
		}
	}

	slog.Info("done", "frames", frame, "instructions", emu.InstructionCount())
	return nil
}

// options is the resolved set of run parameters, whichever of flags or
// --session supplied them (flags take precedence over a loaded session
// file when both are present).
type options struct {
	BIOS     string
	Exe      string
	CDImage  string
	Frames   int
	TTY      bool
	RealTime bool
}

func resolveOptions(c *cli.Context) (options, error) {
	var opts options
	if path := c.String("session"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return opts, fmt.Errorf("psx: reading session file: %w", err)
		}
		var sf sessionFile
		if err := yaml.Unmarshal(data, &sf); err != nil {
			return opts, fmt.Errorf("psx: parsing session file: %w", err)
		}
		opts = options{
			BIOS:     sf.BIOS,
			Exe:      sf.Exe,
			CDImage:  sf.CDImage,
			Frames:   sf.Frames,
			TTY:      sf.TTY,
			RealTime: sf.RealTime,
		}
	}

	if v := c.String("bios"); v != "" {
		opts.BIOS = v
	}
	if v := c.String("exe"); v != "" {
		opts.Exe = v
	}
	if v := c.String("cd-image"); v != "" {
		opts.CDImage = v
	}
	if v := c.Int("frames"); v != 0 {
		opts.Frames = v
	}
	if c.Bool("tty") {
		opts.TTY = true
	}
	if c.Bool("real-time") {
		opts.RealTime = true
	}
	return opts, nil
}
