// Command latexrun is the batch driver entry point: it assembles a
// Harness from CLI flags and dispatches a file or directory conversion
// through it.
package main

import (
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dginev/latexrun/internal/config"
	"github.com/dginev/latexrun/internal/harness"
	"github.com/dginev/latexrun/internal/telemetry"
)

const daemonExecName = "latexmls"

var (
	logJSON     bool
	logLevel    string
	metricsAddr string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "latexrun",
		Short:         "High-throughput batch driver for the latexmls conversion daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			telemetry.Init(telemetry.Config{
				Level:      telemetry.Level(logLevel),
				JSONOutput: logJSON,
			})
			if metricsAddr != "" {
				startMetricsServer(metricsAddr)
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit structured JSON logs instead of console-formatted ones")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "address to publish Prometheus metrics on (empty disables)")

	root.AddCommand(newConvertCmd())
	return root
}

func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(telemetry.Registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			telemetry.Logger.Error().Err(err).Msg("metrics server exited")
		}
	}()
}

func newConvertCmd() *cobra.Command {
	var (
		fromPort  int
		workers   int
		inputFile string
		outputDir string
		logDir    string
		autoflush int
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a file or directory of TeX jobs through a pool of latexmls daemons",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootOptions := config.FromFlags(cmd.Flags())

			h, err := harness.New(harness.Options{
				ExecName:    daemonExecName,
				FromPort:    fromPort,
				Workers:     workers,
				Autoflush:   autoflush,
				BootOptions: bootOptions,
			})
			if err != nil {
				return err
			}
			defer h.Close()

			info, err := os.Stat(inputFile)
			if err != nil {
				return fmt.Errorf("stat input %s: %w", inputFile, err)
			}

			if info.IsDir() {
				return h.ConvertDir(inputFile, outputDir, logDir)
			}

			resultPath := outputDir
			logPath := logDir
			return h.ConvertFile(inputFile, resultPath, logPath)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&fromPort, "from-port", 3334, "first port of the contiguous [from-port, from-port+workers) range")
	flags.IntVar(&workers, "workers", runtime.NumCPU(), "number of daemon workers to boot")
	flags.IntVar(&workers, "max-cpus", runtime.NumCPU(), "alias of --workers")
	flags.StringVar(&inputFile, "input-file", "", "input file or directory of .csv files to convert")
	flags.StringVar(&outputDir, "output-file", "result.csv", "result output path (or directory, when --input-file is a directory)")
	flags.StringVar(&logDir, "log-file", "runner.log", "status-code log output path (or directory, when --input-file is a directory)")
	flags.IntVar(&autoflush, "autoflush", 100, "successful calls before a worker is recycled (0 disables)")
	cmd.MarkFlagRequired("input-file")

	config.RegisterPassthroughFlags(flags)

	return cmd
}
