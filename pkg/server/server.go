package server

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/grafana/dskit/middleware"
	"github.com/pkg/errors"
	"golang.org/x/net/netutil"
)

const (
	kb                                          = 1024
	defaultServerGracefulShutdown time.Duration = 5 * time.Second
	defaultHTTPReadTimeout        time.Duration = 30 * time.Second
	defaultHTTPWriteTimeout       time.Duration = 35 * time.Second
	defaultHTTPIdleTimeout        time.Duration = 30 * time.Second
	defaultHTTPRequestSizeLimit   int64         = 64 * kb

	defaultListenPort = 8000
)

type Config struct {
	HTTPListenAddress string `yaml:"http_listen_address"`
	// HTTPListenPort specifies the port to listen on. If the port is 0, a port
	// number is automatically chosen. The Addr method of Server can be used to
	// discover the chosen port. The value in Config will not be updated.
	HTTPListenPort int `yaml:"http_listen_port"`
	HTTPConnLimit  int `yaml:"http_conn_limit"`

	ServerGracefulShutdownTimeout time.Duration `yaml:"server_graceful_shutdown_timeout"`
	HTTPServerReadTimeout         time.Duration `yaml:"http_server_read_timeout"`
	HTTPServerWriteTimeout        time.Duration `yaml:"http_server_write_timeout"`
	HTTPServerIdleTimeout         time.Duration `yaml:"http_server_idle_timeout"`

	HTTPMaxRequestSizeLimit int64 `yaml:"http_max_request_size_limit"`

	PathPrefix string `yaml:"path_prefix"`
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
	flags.StringVar(&cfg.HTTPListenAddress, prefix+"server.http-listen-address", "0.0.0.0", "Sets listen address for the http server")
	flags.IntVar(&cfg.HTTPListenPort, prefix+"server.http-listen-port", defaultListenPort, "Sets listen address port for the http server")
	flags.IntVar(&cfg.HTTPConnLimit, prefix+"server.http-listen-conn-limit", 0, "Sets a limit to the amount of http connections, 0 means no limit")
	flags.DurationVar(&cfg.ServerGracefulShutdownTimeout, prefix+"server.graceful-shutdown-timeout", defaultServerGracefulShutdown, "Graceful shutdown period")
	flags.DurationVar(&cfg.HTTPServerReadTimeout, prefix+"server.http-server-read-timeout", defaultHTTPReadTimeout, "HTTP request read timeout")
	flags.DurationVar(&cfg.HTTPServerWriteTimeout, prefix+"server.http-server-write-timeout", defaultHTTPWriteTimeout, "HTTP request write timeout")
	flags.DurationVar(&cfg.HTTPServerIdleTimeout, prefix+"server.http-server-idle-timeout", defaultHTTPIdleTimeout, "HTTP request idle timeout")
	flags.Int64Var(&cfg.HTTPMaxRequestSizeLimit, prefix+"server.http-max-req-size-limit", defaultHTTPRequestSizeLimit, "HTTP max request body size limit in bytes, 0 means no limit")
	flags.StringVar(&cfg.PathPrefix, prefix+"server.path-prefix", "", "Base path to serve all API routes from (e.g. /v1/)")
}

// Server initializes a Router webserver as well as the desired middleware configuration
type Server struct {
	cfg          Config
	httpListener net.Listener
	Router       *mux.Router
	HTTPServer   *http.Server
	log          log.Logger
}

// NewServer initializes an httpserver with a router and all the configuration parameters given.
// Note that all the provided middlewares are wrapped in order.
func NewServer(logger log.Logger, cfg Config, router *mux.Router, middlewares []middleware.Interface) (*Server, error) {
	if router == nil {
		return nil, fmt.Errorf("router must be initialized")
	}

	// Setup listeners first, so we can fail early if the port is in use.
	httpListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.HTTPListenAddress, cfg.HTTPListenPort))
	if err != nil {
		return nil, errors.Wrap(err, "can't listen")
	}
	if cfg.HTTPConnLimit > 0 {
		httpListener = netutil.LimitListener(httpListener, cfg.HTTPConnLimit)
	}

	_ = level.Info(logger).Log("msg", "server listening on address", "addr", httpListener.Addr().String())

	if cfg.PathPrefix != "" {
		router = router.PathPrefix(cfg.PathPrefix).Subrouter()
	}

	httpServer := &http.Server{
		ReadTimeout:  cfg.HTTPServerReadTimeout,
		WriteTimeout: cfg.HTTPServerWriteTimeout,
		IdleTimeout:  cfg.HTTPServerIdleTimeout,
		Handler:      middleware.Merge(middlewares...).Wrap(router),
	}

	return &Server{
		cfg:          cfg,
		httpListener: httpListener,

		Router:     router,
		HTTPServer: httpServer,
		log:        logger,
	}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.httpListener.Addr()
}

// Handler returns two functions to run and stop the server.
func (s *Server) Handler() (run func() error, stop func(error)) {
	return s.Run, s.Shutdown
}

func (s *Server) Run() error {
	level.Info(s.log).Log("msg", "Starting http server", "addr", s.httpListener.Addr().String())

	err := s.HTTPServer.Serve(s.httpListener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(_ error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ServerGracefulShutdownTimeout)
	defer cancel()

	level.Info(s.log).Log("msg", "Shutting down http server")
	if err := s.HTTPServer.Shutdown(ctx); err != nil {
		_ = level.Error(s.log).Log("msg", "Server shutdown error", "err", err)
		return
	}
	level.Info(s.log).Log("msg", "Server shut down correctly")
}

// Close releases the listener of a server that may never have been run.
func (s *Server) Close() error {
	err := s.httpListener.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
