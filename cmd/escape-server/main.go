package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/escapers/pkg/appcommon"
	"github.com/grafana/escapers/pkg/escape"
	"github.com/grafana/escapers/pkg/escapehttp"
	"github.com/grafana/escapers/pkg/percent"
	"github.com/grafana/escapers/pkg/route"
)

const (
	metricPrefix      = "escape_server"
	customEscaperName = "custom"
)

type config struct {
	App appcommon.Config `yaml:",inline"`

	EnableCustom bool           `yaml:"enable_custom"`
	Custom       percent.Config `yaml:"custom"`
}

func (cfg *config) RegisterFlags(flags *flag.FlagSet) {
	cfg.App.RegisterFlags(flags)
	flags.BoolVar(&cfg.EnableCustom, "custom.enabled", false, fmt.Sprintf("Serve an extra escaper named %q built from the -custom.percent.* flags.", customEscaperName))
	cfg.Custom.RegisterFlagsWithPrefix("custom", flags)
}

func Run() (err error) {
	var cfg config
	flagext.RegisterFlags(&cfg)
	if err := appcommon.ParseFlagsAndConfigFile(flag.CommandLine, os.Args[1:], &cfg); err != nil {
		return err
	}

	if cfg.App.ServiceName == "" {
		cfg.App.ServiceName = "escape-server"
	}

	extra := map[string]escape.Escaper{}
	if cfg.EnableCustom {
		custom, err := cfg.Custom.New()
		if err != nil {
			return errors.Wrap(err, "invalid custom escaper")
		}
		extra[customEscaperName] = custom
	}

	reg := prometheus.DefaultRegisterer

	var app appcommon.App
	app, err = appcommon.New(cfg.App, reg, metricPrefix)
	if err != nil {
		return err
	}
	defer func() {
		innerErr := app.Close()
		if err == nil {
			err = innerErr
		}
	}()

	api := escapehttp.NewAPI(extra, escape.NewRecorder(metricPrefix, reg), app.LogProvider, time.Now)
	api.Register(route.NewMuxRegisterer(app.Server.Router))
	level.Info(app.Logger).Log("msg", "serving escapers", "custom", cfg.EnableCustom)

	// Handle OS Signals
	return app.Group.Run()
}

func main() {
	err := Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running application: %s", err)
		os.Exit(1)
	}
	os.Exit(0)
}
