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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/gifcase/gifship/internal/adapters/sim"
	"github.com/gifcase/gifship/internal/cliconfig"
	"github.com/gifcase/gifship/internal/watch"
	"github.com/gifcase/gifship/pkg/gifship"
	gifshiplog "github.com/gifcase/gifship/pkg/log"
)

const longHelp = `Deliver an animated GIF (or any blob) to a BLE display and only report
success once the device confirms it received every byte.

Transfers retry up to --max-attempts times. Connection faults back off
linearly; partial deliveries shrink the chunk size (240, 200, 160, 120) and
then lengthen the breather pause.

Configuration is read from $HOME/.gifship/config.toml, then GIFSHIP_*
environment variables, then flags.`

var exampleUsage = strings.TrimSpace(`
  gifship send cat.gif --address D0:CF:13:08:90:D9
  gifship watch cat.gif --address D0:CF:13:08:90:D9 --clear
  gifship send cat.gif --simulate --log-level debug
  gifship replay --address D0:CF:13:08:90:D9
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	log     zerolog.Logger
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig()}
	c.log, _ = cliconfig.Logger("info")

	root := &cobra.Command{
		Use:           "gifship",
		Short:         "Reliable blob transfer to a BLE display",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "send [payload]",
			Short: "Send a payload once",
			Args:  cobra.MaximumNArgs(1),
			RunE:  c.runSend,
		},
		&cobra.Command{
			Use:   "watch [payload]",
			Short: "Send a payload now and again whenever the file changes",
			Args:  cobra.MaximumNArgs(1),
			RunE:  c.runWatch,
		},
		&cobra.Command{
			Use:   "replay",
			Short: "Ask the device to replay its stored file",
			Args:  cobra.NoArgs,
			RunE:  c.runCommand(func(s *gifship.Shipper) func(context.Context) (gifship.Status, error) { return s.Replay }),
		},
		&cobra.Command{
			Use:   "info",
			Short: "Print the device's transfer status",
			Args:  cobra.NoArgs,
			RunE:  c.runCommand(func(s *gifship.Shipper) func(context.Context) (gifship.Status, error) { return s.Info }),
		},
	)

	c.bindFlags(root.PersistentFlags())

	if err := root.Execute(); err != nil {
		c.log.Error().Err(err).Msg("gifship")
		os.Exit(1)
	}
}

func (c *cli) bindFlags(f *pflag.FlagSet) {
	cfg := &c.cfg

	f.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.gifship/config.toml)")
	f.StringVar(&cfg.Address, "address", cfg.Address, "BLE address of the device")
	f.StringVar(&cfg.Payload, "payload", cfg.Payload, "payload file (or pass it as an argument)")

	f.StringVar(&cfg.ServiceUUID, "service-uuid", cfg.ServiceUUID, "GATT service UUID")
	f.StringVar(&cfg.ControlUUID, "control-uuid", cfg.ControlUUID, "control characteristic UUID")
	f.StringVar(&cfg.DataUUID, "data-uuid", cfg.DataUUID, "data characteristic UUID")
	f.StringVar(&cfg.StatusUUID, "status-uuid", cfg.StatusUUID, "status characteristic UUID")

	f.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "attempts before giving up")
	f.DurationVar(&cfg.BaseDelay, "base-delay", cfg.BaseDelay, "backoff unit after a connection fault")
	f.DurationVar(&cfg.SettleDelay, "settle-delay", cfg.SettleDelay, "pause after an unconfirmed transfer")
	f.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "connection establishment timeout")
	f.DurationVar(&cfg.PostConnectDelay, "post-connect-delay", cfg.PostConnectDelay, "settle time after connecting")
	f.DurationVar(&cfg.FinalizeDelay, "finalize-delay", cfg.FinalizeDelay, "settle time after END")

	f.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "initial chunk size in bytes (max 240)")
	f.IntVar(&cfg.YieldEveryWrites, "yield-every", cfg.YieldEveryWrites, "writes between cooperative yields")
	f.IntVar(&cfg.BreatherEveryBytes, "breather-every", cfg.BreatherEveryBytes, "bytes between breather pauses")
	f.DurationVar(&cfg.BreatherSleep, "breather-sleep", cfg.BreatherSleep, "initial breather pause")
	f.DurationVar(&cfg.MaxBreatherSleep, "max-breather-sleep", cfg.MaxBreatherSleep, "longest breather pause")

	f.IntVar(&cfg.MaxPayloadBytes, "max-payload-bytes", cfg.MaxPayloadBytes, "reject larger payloads (0 disables)")
	f.StringVar(&cfg.ReportDir, "report-dir", cfg.ReportDir, "directory for last_run.json (empty disables)")
	f.BoolVar(&cfg.Clear, "clear", cfg.Clear, "send CLEAR before each transfer")
	f.BoolVar(&cfg.Simulate, "simulate", cfg.Simulate, "use an in-process simulated device")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
}

// load applies defaults < file < env < flags and validates the result.
func (c *cli) load(cmd *cobra.Command, args []string) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}

	if len(args) > 0 {
		c.cfg.Payload = args[0]
	}

	log, err := cliconfig.Logger(c.cfg.LogLevel)
	if err != nil {
		return err
	}
	c.log = log

	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.log.Debug().Interface("config", c.cfg).Msg("configuration")
	return nil
}

func (c *cli) shipper() (*gifship.Shipper, error) {
	cfg := c.cfg
	gatt := cfg.BLE()

	libCfg := gifship.Config{
		DeviceID:         cfg.Address,
		ServiceUUID:      gatt.ServiceUUID,
		ControlUUID:      gatt.ControlUUID,
		DataUUID:         gatt.DataUUID,
		StatusUUID:       gatt.StatusUUID,
		MaxAttempts:      cfg.MaxAttempts,
		BaseDelay:        cfg.BaseDelay,
		SettleDelay:      cfg.SettleDelay,
		ConnectTimeout:   cfg.ConnectTimeout,
		PostConnectDelay: cfg.PostConnectDelay,
		FinalizeDelay:    cfg.FinalizeDelay,
		Pacing:           cfg.Pacing(),
		MaxPayloadBytes:  cfg.MaxPayloadBytes,
		Clear:            cfg.Clear,
	}

	opts := []gifship.Option{
		gifship.WithLogger(gifshiplog.NewZerologLogger(c.log)),
		gifship.WithEventHandler(&progressLog{log: c.log}),
	}
	if cfg.ReportDir != "" {
		opts = append(opts, gifship.WithReportDir(cfg.ReportDir))
	}
	if cfg.Simulate {
		if libCfg.DeviceID == "" {
			libCfg.DeviceID = "simulated"
		}
		opts = append(opts, gifship.WithTransport(sim.New()))
	}

	s, err := gifship.New(libCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create shipper: %w", err)
	}
	return s, nil
}

func (c *cli) runSend(cmd *cobra.Command, args []string) error {
	if err := c.load(cmd, args); err != nil {
		return err
	}
	if c.cfg.Payload == "" {
		return fmt.Errorf("a payload file is required")
	}

	s, err := c.shipper()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := s.ShipFile(ctx, c.cfg.Payload)
	if err != nil {
		return fmt.Errorf("send %s: %w", c.cfg.Payload, err)
	}
	c.log.Info().
		Str("run_id", res.RunID).
		Int("attempts", res.Attempts).
		Int("chunk", res.Pacing.ChunkSize).
		Str("status", res.Status.Raw).
		Msg("delivered")
	return nil
}

func (c *cli) runWatch(cmd *cobra.Command, args []string) error {
	if err := c.load(cmd, args); err != nil {
		return err
	}
	if c.cfg.Payload == "" {
		return fmt.Errorf("a payload file is required")
	}

	s, err := c.shipper()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ship := func(ctx context.Context, path string) error {
		_, err := s.ShipFile(ctx, path)
		return err
	}
	w := watch.New(watch.DefaultConfig(), c.cfg.Payload, ship, gifshiplog.NewZerologLogger(c.log))
	return w.Run(ctx)
}

func (c *cli) runCommand(pick func(*gifship.Shipper) func(context.Context) (gifship.Status, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := c.load(cmd, args); err != nil {
			return err
		}
		s, err := c.shipper()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := pick(s)(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), st.Raw)
		return nil
	}
}

// progressLog reports transfer events on the CLI logger.
type progressLog struct {
	gifship.BaseEventHandler
	log zerolog.Logger
}

func (p *progressLog) OnProgress(e gifship.ProgressEvent) {
	p.log.Debug().Int("attempt", e.Attempt).Msgf("sent %d/%d", e.Sent, e.Total)
}

func (p *progressLog) OnAttemptComplete(e gifship.AttemptEvent) {
	if e.Validated {
		return
	}
	ev := p.log.Warn().Int("attempt", e.Attempt).Dur("retry_in", e.NextDelay)
	if e.Err != nil {
		ev = ev.Err(e.Err)
	} else {
		ev = ev.Str("status", e.Status.Raw)
	}
	ev.Msg("attempt failed")
}

func (p *progressLog) OnPacingChange(e gifship.PacingEvent) {
	p.log.Info().
		Int("chunk", e.Change.ChunkSize).
		Dur("breather", e.Change.BreatherSleep).
		Msg("pacing tightened")
}
