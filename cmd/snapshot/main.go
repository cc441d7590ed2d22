package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"

	"github.com/rxtech-lab/argo-snapshot/internal/basket"
	"github.com/rxtech-lab/argo-snapshot/internal/driver"
	"github.com/rxtech-lab/argo-snapshot/internal/logger"
	"github.com/rxtech-lab/argo-snapshot/internal/version"
	"github.com/rxtech-lab/argo-snapshot/pkg/barwriter"
	"github.com/rxtech-lab/argo-snapshot/pkg/errors"
	"github.com/rxtech-lab/argo-snapshot/pkg/ibsession"
)

// snapshotAction resolves the basket, generates the request queue, and
// runs the driver against a live gateway session.
func snapshotAction(ctx context.Context, cmd *cli.Command) error {
	appLogger, err := newLogger(cmd.Bool("verbose"))
	if err != nil {
		return err
	}

	defer appLogger.Sync() //nolint:errcheck

	def, err := resolveBasket(cmd)
	if err != nil {
		return err
	}

	applyOverrides(cmd, &def)

	// Generation failures abort before any network activity.
	requests, err := basket.GenerateRequests(def, time.Now().UTC())
	if err != nil {
		return err
	}

	factory, err := newWriterFactory(cmd, appLogger)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(requests),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionShowCount(),
	)

	client := ibsession.NewClient(appLogger)

	drv, err := driver.New(client, driver.Config{
		Queue:           requests,
		Discipline:      def.Discipline,
		WriterFactory:   factory,
		IsFatal:         driver.NewFatalClassifier(cmd.Bool("require-realtime")),
		WatchdogTimeout: cmd.Duration("watchdog"),
		OnRequestDone: func(done, total int) {
			bar.Set(done) //nolint:errcheck
		},
	}, appLogger)
	if err != nil {
		return err
	}

	err = client.Connect(ctx,
		cmd.String("host"),
		int(cmd.Int("port")),
		int(cmd.Int("client-id")),
		drv,
	)
	if err != nil {
		return err
	}

	// SIGINT/SIGTERM request an orderly shutdown: the driver finalizes
	// the open partition before disconnecting.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		drv.Stop()
	}()

	return drv.Wait(ctx)
}

func newLogger(verbose bool) (*logger.Logger, error) {
	if verbose {
		return logger.NewLoggerWithLevel(zapcore.DebugLevel)
	}

	return logger.NewLogger()
}

// resolveBasket picks the basket definition: a named entry from the
// registry (or a user baskets file), or an ad-hoc single-symbol basket.
func resolveBasket(cmd *cli.Command) (basket.Definition, error) {
	name := cmd.String("basket")
	symbol := cmd.String("symbol")

	if name == "" && symbol == "" {
		return basket.Definition{}, errors.New(errors.ErrCodeMissingParameter, "either --basket or --symbol is required")
	}

	if name != "" && symbol != "" {
		return basket.Definition{}, errors.New(errors.ErrCodeInvalidParameter, "--basket and --symbol are mutually exclusive")
	}

	if name != "" {
		if path := cmd.String("baskets-file"); path != "" {
			defs, err := basket.LoadDefinitions(path)
			if err != nil {
				return basket.Definition{}, err
			}

			def, ok := defs[name]
			if !ok {
				return basket.Definition{}, errors.Newf(errors.ErrCodeUnknownBasket, "no basket named %q in %s", name, path)
			}

			return def, nil
		}

		return basket.Lookup(name)
	}

	exchange := cmd.String("exchange")
	if exchange == "" {
		return basket.Definition{}, errors.New(errors.ErrCodeMissingParameter, "--exchange is required with --symbol")
	}

	return basket.Single(symbol, exchange), nil
}

// applyOverrides lets query-shape flags override the basket defaults.
func applyOverrides(cmd *cli.Command, def *basket.Definition) {
	if v := cmd.String("bar-size"); v != "" {
		def.BarSize = v
	}

	if v := cmd.String("duration"); v != "" {
		def.Duration = v
	}

	if cmd.IsSet("rth") {
		def.UseRTH = cmd.Bool("rth")
	}
}

func newWriterFactory(cmd *cli.Command, appLogger *logger.Logger) (barwriter.Factory, error) {
	outDir := cmd.String("out")

	switch format := cmd.String("format"); format {
	case "csv":
		return barwriter.NewCSVFactory(outDir, cmd.Bool("extended"), appLogger), nil
	case "parquet":
		return barwriter.NewDuckDBFactory(outDir, appLogger), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown output format %q", format)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Usage:   "Download historical futures bars for a basket of contracts",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Gateway host",
				Value: "127.0.0.1",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Gateway port",
				Value: 7497,
			},
			&cli.IntFlag{
				Name:  "client-id",
				Usage: "API client id",
				Value: 0,
			},
			&cli.StringFlag{
				Name:    "basket",
				Aliases: []string{"b"},
				Usage:   fmt.Sprintf("Named basket to download (predefined: %s)", predefinedNames()),
			},
			&cli.StringFlag{
				Name:  "baskets-file",
				Usage: "YAML file with user basket definitions",
			},
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Single futures symbol (ad-hoc basket, requires --exchange)",
			},
			&cli.StringFlag{
				Name:  "exchange",
				Usage: "Exchange for --symbol",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory",
				Value:   "data",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: csv or parquet",
				Value: "csv",
			},
			&cli.BoolFlag{
				Name:  "extended",
				Usage: "Include bar_count and wap columns in CSV output",
			},
			&cli.StringFlag{
				Name:  "bar-size",
				Usage: "Bar granularity override (e.g. \"1 min\")",
			},
			&cli.StringFlag{
				Name:  "duration",
				Usage: "Lookback duration override (e.g. \"1 D\")",
			},
			&cli.BoolFlag{
				Name:  "rth",
				Usage: "Regular trading hours only",
			},
			&cli.BoolFlag{
				Name:  "require-realtime",
				Usage: "Treat delayed-data substitution as fatal",
			},
			&cli.DurationFlag{
				Name:  "watchdog",
				Usage: "Per-request timeout before the run is aborted",
				Value: driver.DefaultWatchdogTimeout,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Debug logging",
			},
		},
		Action: snapshotAction,
	}
}

func predefinedNames() string {
	names := make([]string, 0, len(basket.Predefined()))

	for name := range basket.Predefined() {
		names = append(names, name)
	}

	sort.Strings(names)

	return strings.Join(names, ", ")
}

func main() {
	cmd := newCommand()

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
