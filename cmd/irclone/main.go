package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/irclone/internal/adapters/console"
	"github.com/bft-labs/irclone/internal/adapters/replay"
	"github.com/bft-labs/irclone/internal/cliconfig"
	"github.com/bft-labs/irclone/internal/ports"
	"github.com/bft-labs/irclone/pkg/irclone"
	"github.com/bft-labs/irclone/pkg/log"
	"github.com/bft-labs/irclone/plugins/slotwatcher"
)

const helpDescription = `
Capture infrared remote codes into numbered slots and play them back.

Highlights:
  - Slots survive restarts as plain text records, one duration per line.
  - Works without hardware: feed recorded captures with --replay and watch
    the emitter output on stdout.
  - Configure via file, .env, IRCLONE_* environment variables, or flags.

Console commands (run):
  a | capture | send    press the primary button
  b | next              press the advance button
  t | status            show the status pixel
  hold [a|b]            hold a button down; release [a|b] lets go
  program | transmit    move the mode switch
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  irclone --replay captures.txt
  irclone capture --slot 2 --replay captures.txt
  irclone transmit --slot 2
  irclone slots --json
  irclone export backup.yaml.zst
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the resolved configuration from the root command to its
// subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	log     zerolog.Logger

	replayPath string
	profileDir string
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig(), log: cliconfig.Logger("info")}

	root := &cobra.Command{
		Use:           "irclone",
		Short:         "Capture infrared remote codes and play them back",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
		RunE: c.runE,
	}

	f := root.PersistentFlags()
	f.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.irclone/config.toml)")
	f.StringVar(&c.cfg.StoreDir, "store-dir", c.cfg.StoreDir, "directory holding one <slot>.txt record per slot")
	f.IntVar(&c.cfg.MaxCodes, "max-codes", c.cfg.MaxCodes, fmt.Sprintf("number of slots (1-%d)", irclone.MaxSlots))

	f.IntVar(&c.cfg.MinPulses, "min-pulses", c.cfg.MinPulses, "fewest raw samples accepted as a capture")
	f.IntVar(&c.cfg.MaxSamples, "max-samples", c.cfg.MaxSamples, "receiver buffer size in samples")
	f.IntVar(&c.cfg.StartMin, "start-min", c.cfg.StartMin, "shortest start pulse in microseconds (strict decoding)")
	f.IntVar(&c.cfg.StartMax, "start-max", c.cfg.StartMax, "longest start pulse in microseconds (strict decoding)")
	f.IntVar(&c.cfg.StopThreshold, "stop-threshold", c.cfg.StopThreshold, "gap in microseconds that ends a code")
	f.IntVar(&c.cfg.StopAfter, "stop-after", c.cfg.StopAfter, "pulses required before a gap may end a code")
	f.StringVar(&c.cfg.DecodeMode, "decode-mode", c.cfg.DecodeMode, "decoder: strict or simple")

	f.DurationVar(&c.cfg.TriggerDuration, "trigger", c.cfg.TriggerDuration, "receiver trigger pulse")
	f.DurationVar(&c.cfg.SettleDuration, "settle", c.cfg.SettleDuration, "wait after the first sample before decoding")
	f.DurationVar(&c.cfg.CaptureTimeout, "capture-timeout", c.cfg.CaptureTimeout, "give up waiting for a signal (0 waits forever)")
	f.DurationVar(&c.cfg.PollInterval, "poll", c.cfg.PollInterval, "button poll interval")

	f.IntVar(&c.cfg.CarrierHz, "carrier-hz", c.cfg.CarrierHz, "carrier frequency")
	f.Float64Var(&c.cfg.DutyCycle, "duty-cycle", c.cfg.DutyCycle, "carrier duty cycle in (0, 1]")
	f.StringVar(&c.cfg.RepeatMode, "repeat-mode", c.cfg.RepeatMode, "while held: code (NEC repeat frame) or full (whole code)")
	f.DurationVar(&c.cfg.RepeatInterval, "repeat-interval", c.cfg.RepeatInterval, "pause between full repeats")

	f.IntVar(&c.cfg.FlashCount, "flash-count", c.cfg.FlashCount, "indicator flashes per notification")
	f.DurationVar(&c.cfg.FlashInterval, "flash-interval", c.cfg.FlashInterval, "indicator flash on/off time")
	f.Float64Var(&c.cfg.Brightness, "brightness", c.cfg.Brightness, "indicator brightness in (0, 1]")

	f.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (trace, debug, info, warn, error, disabled)")
	f.BoolVar(&c.cfg.Debug, "debug", c.cfg.Debug, "log raw and decoded captures")

	c.runFlags(root.Flags())

	root.AddCommand(
		c.runCmd(),
		c.captureCmd(),
		c.transmitCmd(),
		c.slotsCmd(),
		c.exportCmd(),
		c.importCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		c.log.Error().Err(err).Msg("irclone")
		os.Exit(1)
	}
}

// load resolves configuration: defaults, then the config file, then .env,
// then IRCLONE_* variables, then flags.
func (c *cli) load(cmd *cobra.Command) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.LoadDotEnv(cliconfig.EnvFilePath()); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}

	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.log = cliconfig.Logger(c.cfg.LogLevel)
	c.log.Debug().Interface("config", c.cfg).Msg("configuration")
	return nil
}

// library converts the CLI configuration for pkg/irclone.
func (c *cli) library() irclone.Config {
	cfg := c.cfg
	return irclone.Config{
		StoreDir:        cfg.StoreDir,
		MaxCodes:        cfg.MaxCodes,
		MinPulses:       cfg.MinPulses,
		MaxSamples:      cfg.MaxSamples,
		StartMin:        uint16(cfg.StartMin),
		StartMax:        uint16(cfg.StartMax),
		StopThreshold:   uint16(cfg.StopThreshold),
		StopAfter:       cfg.StopAfter,
		DecodeMode:      cfg.DecodeMode,
		TriggerDuration: cfg.TriggerDuration,
		SettleDuration:  cfg.SettleDuration,
		CaptureTimeout:  cfg.CaptureTimeout,
		PollInterval:    cfg.PollInterval,
		CarrierHz:       cfg.CarrierHz,
		DutyCycle:       cfg.DutyCycle,
		RepeatMode:      cfg.RepeatMode,
		RepeatInterval:  cfg.RepeatInterval,
		FlashCount:      cfg.FlashCount,
		FlashInterval:   cfg.FlashInterval,
		Brightness:      cfg.Brightness,
		Debug:           cfg.Debug,
	}
}

// open creates an instance wired to stdout, with the receiver preloaded
// from replayPath when one is given.
func (c *cli) open(replayPath string, extra ...irclone.Option) (*irclone.Irclone, error) {
	logger := log.NewZerologAdapterWithLogger(c.log)

	receiver := replay.NewReceiver(c.cfg.MaxSamples, 0)
	if replayPath != "" {
		fh, err := os.Open(replayPath)
		if err != nil {
			return nil, fmt.Errorf("open replay file: %w", err)
		}
		captures, err := replay.ReadCaptures(fh)
		fh.Close()
		if err != nil {
			return nil, fmt.Errorf("read replay file: %w", err)
		}
		receiver.Enqueue(captures...)
		c.log.Info().Int("captures", len(captures)).Str("file", replayPath).Msg("replay captures loaded")
	}

	opts := []irclone.Option{
		irclone.WithLogger(logger),
		irclone.WithReceiver(receiver),
		irclone.WithEmitter(replay.NewEmitter(replay.EmitterConfig{
			Out:     os.Stdout,
			Carrier: ports.Carrier{FrequencyHz: c.cfg.CarrierHz, DutyCycle: c.cfg.DutyCycle},
		})),
		irclone.WithFeedback(console.NewFeedback(console.FeedbackConfig{
			Out:           os.Stdout,
			FlashCount:    c.cfg.FlashCount,
			FlashInterval: c.cfg.FlashInterval,
			Brightness:    c.cfg.Brightness,
		}, logger)),
	}
	w, err := irclone.New(c.library(), append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("create irclone: %w", err)
	}
	return w, nil
}

func (c *cli) runFlags(f *pflag.FlagSet) {
	f.StringVar(&c.replayPath, "replay", "", "file of recorded captures fed to the receiver")
	f.StringVar(&c.profileDir, "profile", "", "write a CPU profile into this directory")
}

func (c *cli) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the button loop from console commands on stdin (the default)",
		Args:  cobra.NoArgs,
		RunE:  c.runE,
	}
	c.runFlags(cmd.Flags())
	return cmd
}

func (c *cli) runE(cmd *cobra.Command, args []string) error {
	if c.profileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(c.profileDir), profile.NoShutdownHook).Stop()
	}
	return c.run(cmd.Context(), c.replayPath)
}

// run drives the control loop from console commands on stdin until stdin
// closes or a signal arrives.
func (c *cli) run(ctx context.Context, replayPath string) error {
	logger := log.NewZerologAdapterWithLogger(c.log)
	input := console.NewInput(os.Stdin, ports.ModeTransmit, logger)

	w, err := c.open(replayPath,
		irclone.WithInput(input),
		slotwatcher.WithDefaultSlotWatcher(),
	)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start irclone: %w", err)
	}

	select {
	case <-ctx.Done():
		c.log.Info().Msg("received signal, stopping...")
	case <-w.Done():
		if w.Status() == irclone.StateCrashed {
			c.log.Error().Msg("irclone crashed")
		}
	}

	if err := w.Stop(); err != nil {
		return fmt.Errorf("stop irclone: %w", err)
	}
	return nil
}
