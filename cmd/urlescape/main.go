package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/grafana/escapers/pkg/appcommon"
	"github.com/grafana/escapers/pkg/ctxlog"
	"github.com/grafana/escapers/pkg/escape"
	"github.com/grafana/escapers/pkg/percent"
	"github.com/grafana/escapers/pkg/urlescape"
)

const (
	customEscaperName = "custom"
	metricPrefix      = "urlescape"
	maxLineSize       = 1024 * 1024
)

type config struct {
	Escaper      string         `yaml:"escaper"`
	LogLevel     string         `yaml:"log_level"`
	PrintMetrics bool           `yaml:"print_metrics"`
	Percent      percent.Config `yaml:"percent"`
}

func (cfg *config) RegisterFlags(flags *flag.FlagSet) {
	flags.StringVar(&cfg.Escaper, "escaper", urlescape.FormParameterName, fmt.Sprintf("Escaper to use, one of %v or %q to build one from the -percent.* flags.", urlescape.Names(), customEscaperName))
	flags.StringVar(&cfg.LogLevel, "log.level", "warn", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error, none]")
	flags.BoolVar(&cfg.PrintMetrics, "print-metrics", false, "Print the escaping metrics to stderr in the Prometheus text format before exiting.")
	cfg.Percent.RegisterFlags(flags)
}

func (cfg config) escaper() (escape.Escaper, error) {
	if cfg.Escaper == customEscaperName {
		return cfg.Percent.New()
	}
	return urlescape.Lookup(cfg.Escaper)
}

// run escapes every positional argument, or every line of stdin when there
// are none, writing one escaped line per input to stdout.
func run(cfg *config, fs *flag.FlagSet, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if err := appcommon.ParseFlagsAndConfigFile(fs, args, cfg); err != nil {
		return err
	}

	logger, err := ctxlog.NewLevelFilter(log.NewLogfmtLogger(log.NewSyncWriter(stderr)), cfg.LogLevel)
	if err != nil {
		return err
	}

	escaper, err := cfg.escaper()
	if err != nil {
		return errors.Wrap(err, "can't build escaper")
	}

	reg := prometheus.NewRegistry()
	escaper = escape.NewMeasuredEscaper(cfg.Escaper, escaper, escape.NewRecorder(metricPrefix, reg), time.Now)

	out := bufio.NewWriter(stdout)
	var total, failed int
	escapeOne := func(input string) error {
		total++
		escaped, err := escaper.Escape(input)
		if err != nil {
			failed++
			level.Error(logger).Log("msg", "can't escape input", "input", total, "err", err)
			return nil
		}
		level.Debug(logger).Log("msg", "escaped", "input", total, "rewritten", escaped != input)
		_, err = fmt.Fprintln(out, escaped)
		return err
	}

	if inputs := fs.Args(); len(inputs) > 0 {
		for _, input := range inputs {
			if err := escapeOne(input); err != nil {
				return errors.Wrap(err, "can't write output")
			}
		}
	} else {
		scanner := bufio.NewScanner(stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			if err := escapeOne(scanner.Text()); err != nil {
				return errors.Wrap(err, "can't write output")
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrap(err, "can't read input")
		}
	}
	if err := out.Flush(); err != nil {
		return errors.Wrap(err, "can't write output")
	}

	if cfg.PrintMetrics {
		if err := printMetrics(reg, stderr); err != nil {
			return err
		}
	}

	if failed > 0 {
		return errors.Errorf("%d of %d inputs could not be escaped", failed, total)
	}
	return nil
}

func printMetrics(g prometheus.Gatherer, w io.Writer) error {
	mfs, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "can't gather metrics")
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "can't write metrics")
		}
	}
	return nil
}

func main() {
	var cfg config
	flagext.RegisterFlags(&cfg)

	if err := run(&cfg, flag.CommandLine, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
