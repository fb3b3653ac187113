package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chassislab/wishbone/internal/config"
	"github.com/chassislab/wishbone/internal/database"
	"github.com/chassislab/wishbone/internal/dispatcher"
	"github.com/chassislab/wishbone/internal/geometry"
	"github.com/chassislab/wishbone/internal/influx"
	"github.com/chassislab/wishbone/internal/logging"
	intOtel "github.com/chassislab/wishbone/internal/otel"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

const binaryName = "wishbone"

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if err := execute(args, stdout, stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}

func usage(fs *pflag.FlagSet, stderr io.Writer) {
	fmt.Fprintf(stderr, "%s %s (%s)\n\n", binaryName, Version, BuildDate)
	fmt.Fprintf(stderr, "usage: %s [flags] <command> <suspension file>\n\n", binaryName)
	fmt.Fprintf(stderr, "commands: %s\n\nflags:\n", strings.Join(commandNames, ", "))
	fs.PrintDefaults()
}

func execute(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configDir := fs.StringP("config", "c", ".", "directory containing "+config.ConfigFileName)
	inches := fs.Bool("inches", false, "report hardpoints in inches")
	location := fs.String("location", "0,0,0", "suspension location in the chassis frame (x,y,z)")
	omega := fs.Float64("omega", 0, "initial wheel angular speed, rad/s")
	fs.String("log-level", "", "override the configured logLevel")
	fs.Usage = func() { usage(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errUsage
		}
		return err
	}
	if fs.NArg() != 2 {
		usage(fs, stderr)
		return errUsage
	}
	command, path := fs.Arg(0), fs.Arg(1)

	loc, err := geometry.PointFromString(*location)
	if err != nil {
		return fmt.Errorf("--location: %w", err)
	}

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintf(stderr, "warning: %v, using defaults\n", err)
	}
	if err := viper.BindPFlag("logLevel", fs.Lookup("log-level")); err != nil {
		return err
	}

	a := &app{
		out:      stdout,
		errOut:   stderr,
		location: loc,
		omega:    *omega,
		inches:   *inches,
		start:    time.Now(),
	}
	closeLogging, err := a.setupLogging()
	if err != nil {
		return err
	}
	defer closeLogging()

	if err := a.setupStorage(); err != nil {
		return err
	}
	defer a.closeStorage()

	a.setupInflux()
	defer a.closeInflux()

	if err := a.setupDispatcher(); err != nil {
		return err
	}

	_, err = a.dispatch.Dispatch(dispatcher.Event{Command: command, Args: []string{path}})
	// drain buffered telemetry before the managers close
	a.dispatch.Close()
	if errors.Is(err, dispatcher.ErrUnknownCommand) {
		usage(fs, stderr)
	}
	return err
}

// setupLogging wires slog (file, Graylog, OTel) and the zerolog logger the
// infrastructure managers use. The returned func flushes and closes them.
func (a *app) setupLogging() (func(), error) {
	logsDir := viper.GetString("logsDir")
	logFile, err := logging.OpenLogFile(logsDir, binaryName, a.start)
	if err != nil {
		return nil, err
	}
	closers := []func(){func() { logFile.Close() }}

	var graylog io.Writer
	if viper.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(viper.GetString("graylog.address"), binaryName)
		if err != nil {
			fmt.Fprintf(a.errOut, "warning: %v\n", err)
		} else {
			graylog = w
			closers = append(closers, func() { w.Close() })
		}
	}

	otelCfg := config.GetOTelConfig()
	var otelFile *os.File
	if otelCfg.Enabled {
		otelFile, err = logging.OpenLogFile(logsDir, binaryName+".otel", a.start)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { otelFile.Close() })
	}
	provider, err := intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		BatchTimeout:   otelCfg.BatchTimeout,
		MetricInterval: otelCfg.MetricInterval,
		LogWriter:      otelFile,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up otel: %w", err)
	}

	level := viper.GetString("logLevel")
	a.slogManager = logging.NewSlogManager().
		WithGraylog(graylog).
		WithContext(a.logContext)
	a.slogManager.Setup(logFile, level, provider.LoggerProvider())
	a.log = a.slogManager.Logger()
	a.zlog = logging.NewZerolog(logFile, level, graylog)

	a.log.Info("Starting", "version", Version, "buildDate", BuildDate, "config", viper.ConfigFileUsed())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.slogManager.Flush(ctx); err != nil {
			fmt.Fprintf(a.errOut, "warning: flushing logs: %v\n", err)
		}
		if err := provider.Shutdown(ctx); err != nil {
			fmt.Fprintf(a.errOut, "warning: %v\n", err)
		}
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}

// setupStorage connects the database when the engine records to one.
func (a *app) setupStorage() error {
	cfg := config.GetEngineConfig()
	switch cfg.Type {
	case config.EngineMemory:
		return nil
	case config.EngineSQLite, config.EnginePostgres:
	default:
		return fmt.Errorf("unknown engine.type %q", cfg.Type)
	}

	a.db = database.NewManager(a.zlog)
	if err := a.db.Connect(cfg.Type, cfg.SQLite.Path); err != nil {
		return err
	}
	if err := a.db.Setup(); err != nil {
		return err
	}
	if a.db.InMemory && cfg.SQLite.DumpPath != "" {
		a.db.SqliteFilePath = cfg.SQLite.DumpPath
	}
	return nil
}

func (a *app) closeStorage() {
	if a.db == nil {
		return
	}
	if a.db.InMemory && a.db.SqliteFilePath != "" {
		if err := a.db.DumpMemoryToDisk(); err != nil {
			a.log.Error("Failed to dump database", "error", err)
		} else {
			a.log.Info("Database written", "path", a.db.SqliteFilePath)
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Error("Failed to close database", "error", err)
	}
}

func (a *app) setupInflux() {
	if !viper.GetBool("influx.enabled") {
		return
	}
	backup := filepath.Join(viper.GetString("logsDir"), fmt.Sprintf("%s.%s.lp.gz", binaryName, a.start.Format("20060102_150405")))
	m := influx.NewManager(a.zlog, backup)
	if err := m.Connect(); err != nil {
		a.log.Error("InfluxDB disabled", "error", err)
		return
	}
	a.influx = m
}

func (a *app) closeInflux() {
	if a.influx == nil {
		return
	}
	if err := a.influx.Close(); err != nil {
		a.log.Error("Failed to close InfluxDB", "error", err)
	}
}
