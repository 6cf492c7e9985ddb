package appcommon

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/grafana/dskit/middleware"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/escapers/pkg/ctxlog"
	"github.com/grafana/escapers/pkg/internalserver"
	"github.com/grafana/escapers/pkg/server"
	servermiddleware "github.com/grafana/escapers/pkg/server/middleware"
	"github.com/grafana/escapers/pkg/stopsignal"
)

var (
	CommitUnixTimestamp = "0"
	DockerTag           = "unset"
)

type Config struct {
	InstrumentBuckets string        `yaml:"instrument_buckets"`
	ServiceName       string        `yaml:"service_name"`
	LogLevel          string        `yaml:"log_level"`
	ShutdownDelay     time.Duration `yaml:"shutdown_delay"`

	ServerConfig         server.Config         `yaml:"server_config"`
	InternalServerConfig internalserver.Config `yaml:"internal_server_config"`
}

// RegisterFlags adds the flags required to config this to the given FlagSet
func (cfg *Config) RegisterFlags(flags *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("", flags)
}

// RegisterFlagsWithPrefix registers flags, adding the provided prefix if
// needed. If the prefix is not blank and doesn't end with '.', a '.' is
// appended to it.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, flags *flag.FlagSet) {
	if prefix != "" && !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	flags.StringVar(&cfg.InstrumentBuckets, prefix+"instrument-buckets", ".0005,.001,.0025,.005,.010,.025,.050,.100,.250,.500,1,2.5,5", "Buckets for instrumentation, comma separated list of seconds as floats.")
	flags.StringVar(&cfg.ServiceName, prefix+"service-name", "", "the service name reported in the build info metric")
	flags.StringVar(&cfg.LogLevel, prefix+"log.level", "info", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error, none]")
	flags.DurationVar(&cfg.ShutdownDelay, prefix+"shutdown-delay", 0, "How long to keep serving after a stop signal while reporting not ready.")

	cfg.ServerConfig.RegisterFlagsWithPrefix(prefix, flags)
	cfg.InternalServerConfig.RegisterFlagsWithPrefix(prefix, flags)
}

type App struct {
	Group *run.Group

	Logger      log.Logger
	LogProvider ctxlog.Provider
	Server      *server.Server
	closers     []func() error
}

// New creates a new App.
// Callers should call App.Close() after use.
func New(cfg Config, reg prometheus.Registerer, metricPrefix string) (app App, err error) {
	if cfg.ServiceName == "" {
		return app, fmt.Errorf("service name can't be empty")
	}

	app = App{
		Group: &run.Group{},
	}
	// If the function fails, make sure all resources are cleaned up before returning the error.
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stdout))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	if cfg.LogLevel != "" {
		logger, err = ctxlog.NewLevelFilter(logger, cfg.LogLevel)
		if err != nil {
			return app, err
		}
	}
	app.Logger = logger
	app.LogProvider = ctxlog.NewProvider(logger)

	router := mux.NewRouter()

	// Configure middlewares
	defBuckets, err := parseFloats(cfg.InstrumentBuckets)
	if err != nil {
		return app, fmt.Errorf("can't parse instrument buckets: %w", err)
	}
	instrumentMiddleware, err := servermiddleware.NewInstrument(router, defBuckets, metricPrefix, reg)
	if err != nil {
		return app, fmt.Errorf("can't initialize the instrumentation middleware %w", err)
	}

	logMiddleware := servermiddleware.NewLoggingMiddleware(logger)

	// Middlewares will be wrapped in order
	middlewares := []middleware.Interface{
		instrumentMiddleware,
		logMiddleware,
	}

	if cfg.ServerConfig.HTTPMaxRequestSizeLimit > 0 {
		requestLimitsMiddleware := servermiddleware.NewRequestLimitsMiddleware(cfg.ServerConfig.HTTPMaxRequestSizeLimit, logger)
		middlewares = append(middlewares, requestLimitsMiddleware)
	}

	srv, err := server.NewServer(logger, cfg.ServerConfig, router, middlewares)
	if err != nil {
		level.Error(logger).Log("msg", "failed to start server", "err", err)
		return app, fmt.Errorf("failed to start server: %w", err)
	}
	app.Server = srv
	app.closers = append(app.closers, srv.Close)

	signalHandler := stopsignal.NewSignalHandler(cfg.ShutdownDelay, logger)
	if cfg.InternalServerConfig.ReadinessProvider == nil {
		cfg.InternalServerConfig.ReadinessProvider = signalHandler
	}

	app.Group.Add(app.Server.Handler())
	app.Group.Add(internalserver.Handler(logger, cfg.InternalServerConfig))
	app.Group.Add(signalHandler.Handler(syscall.SIGTERM, syscall.SIGINT))

	if err := registerVersionMetrics(reg, cfg.ServiceName, metricPrefix); err != nil {
		return app, err
	}
	level.Info(logger).Log("msg", "Starting app", "docker_tag", DockerTag)

	return app, nil
}

type AppError []error

func (ae AppError) Error() string {
	var sb strings.Builder
	for i, err := range ae {
		sb.WriteString(fmt.Sprintf("error %d: ", i+1))
		sb.WriteString(err.Error())
		if i < len(ae)-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}

func (app App) Close() error {
	var errs AppError
	for _, closerFunc := range app.closers {
		if err := closerFunc(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) != 0 {
		return errs
	}
	return nil
}

func registerVersionMetrics(reg prometheus.Registerer, serviceName, metricPrefix string) error {
	buildDateGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricPrefix,
		Name:      "build_unix_timestamp",
		Help:      "A constant build date value reported by each instance as a Unix epoch timestamp.",
		ConstLabels: prometheus.Labels{
			"service_name": serviceName,
			"docker_tag":   DockerTag,
		},
	})
	parsedCommitTimestamp, err := strconv.ParseFloat(CommitUnixTimestamp, 64) //nolint:gomnd
	if err != nil {
		return fmt.Errorf("can't parse CommitUnixTimestamp: %w", err)
	}
	if err := reg.Register(buildDateGauge); err != nil {
		return err
	}
	buildDateGauge.Set(parsedCommitTimestamp)
	return nil
}

func parseFloats(str string) ([]float64, error) {
	if str == "" {
		return nil, errors.New("empty string")
	}
	strs := strings.Split(str, ",")
	vals := make([]float64, len(strs))
	var err error
	for i, s := range strs {
		vals[i], err = strconv.ParseFloat(strings.TrimSpace(s), 64) //nolint:gomnd
		if err != nil {
			return nil, fmt.Errorf("can't parse value %d: %w", i, err)
		}
	}
	return vals, nil
}
