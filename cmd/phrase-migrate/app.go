/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/acronis/phrase-migrate/executor"
	"github.com/acronis/phrase-migrate/httpclient"
	"github.com/acronis/phrase-migrate/internal/appconfig"
	"github.com/acronis/phrase-migrate/internal/appinfo"
	"github.com/acronis/phrase-migrate/internal/metricsserver"
	"github.com/acronis/phrase-migrate/internal/migrate"
	"github.com/acronis/phrase-migrate/internal/phrase"
	"github.com/acronis/phrase-migrate/log"
	"github.com/acronis/phrase-migrate/lrucache"
)

const metricsNamespace = "phrase_migrate"

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to a YAML or JSON configuration file",
		EnvVars: []string{"PHRASE_MIGRATE_CONFIG"},
	}
	envFileFlag = &cli.StringFlag{
		Name:  "env-file",
		Usage: "dotenv file exported into the environment before loading the configuration",
		Value: appconfig.DefaultEnvFile,
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "overrides log.level (error, warn, info, debug)",
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "serve Prometheus metrics on this address while running",
	}
	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "disable colored output",
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:                 appinfo.Name,
		Usage:                "migrate web translations to Phrase",
		Version:              appinfo.Version(),
		EnableBashCompletion: true,
		Flags:                []cli.Flag{configFlag, envFileFlag, logLevelFlag, metricsAddrFlag, noColorFlag},
		Before: func(cctx *cli.Context) error {
			if cctx.Bool(noColorFlag.Name) {
				color.NoColor = true
			}
			return nil
		},
		Commands: []*cli.Command{collectCmd, uploadCmd, migrateCmd, configCmd},
	}
}

// env holds what the commands share: the configuration, the logger and the optional metrics.
type env struct {
	cfg    *appconfig.Config
	logger log.FieldLogger

	execMetrics  *executor.PrometheusMetrics
	httpMetrics  *httpclient.PrometheusMetricsCollector
	cacheMetrics *lrucache.PrometheusMetrics

	closers []func()
}

func setupEnv(cctx *cli.Context) (*env, error) {
	cfg, err := appconfig.Load(cctx.String(configFlag.Name), cctx.String(envFileFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if lvl := cctx.String(logLevelFlag.Name); lvl != "" {
		cfg.Log.Level = log.Level(strings.ToLower(lvl))
	}
	if addr := cctx.String(metricsAddrFlag.Name); addr != "" {
		cfg.MetricsServer.Enabled = true
		cfg.MetricsServer.Address = addr
	}

	logger, closeLogger := log.NewLogger(cfg.Log)
	e := &env{cfg: cfg, logger: logger, closers: []func(){func() { closeLogger() }}}

	if cfg.MetricsServer.Enabled {
		if err = e.startMetrics(); err != nil {
			e.close()
			return nil, err
		}
	}
	return e, nil
}

func (e *env) startMetrics() error {
	e.execMetrics = executor.NewPrometheusMetricsWithOpts(executor.PrometheusMetricsOpts{Namespace: metricsNamespace})
	e.httpMetrics = httpclient.NewPrometheusMetricsCollector(metricsNamespace)
	e.cacheMetrics = lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{Namespace: metricsNamespace})
	buildInfo := appinfo.NewPrometheusBuildInfo(metricsNamespace)
	e.execMetrics.MustRegister()
	e.httpMetrics.MustRegister()
	e.cacheMetrics.MustRegister()
	prometheus.MustRegister(buildInfo)
	e.closers = append(e.closers, func() {
		e.execMetrics.Unregister()
		e.httpMetrics.Unregister()
		e.cacheMetrics.Unregister()
		prometheus.Unregister(buildInfo)
	})

	srv := metricsserver.New(e.cfg.MetricsServer, nil, e.logger)
	if err := srv.Listen(); err != nil {
		return fmt.Errorf("listen metrics server on %s: %w", e.cfg.MetricsServer.Address, err)
	}
	// Losing metrics doesn't stop the migration.
	go func() {
		if err := srv.Start(); err != nil {
			e.logger.Warn("metrics server failed, continuing without metrics", log.Error(err))
		}
	}()
	e.closers = append(e.closers, func() { _ = srv.Stop() })
	return nil
}

// close releases resources in reverse order, the logger is flushed last.
func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func (e *env) newUploader() (*migrate.Uploader, error) {
	var execMetrics executor.MetricsCollector
	if e.execMetrics != nil {
		execMetrics = e.execMetrics
	}
	exec, err := executor.New(e.cfg.Executor, executor.Opts{Logger: e.logger, MetricsCollector: execMetrics})
	if err != nil {
		return nil, err
	}

	httpOpts := httpclient.Opts{
		UserAgent:   appinfo.UserAgent(),
		RequestType: "phrase",
		Logger:      e.logger,
		AuthScheme:  phrase.AuthScheme,
	}
	if e.cfg.Phrase.Token != "" {
		httpOpts.AuthProvider = httpclient.StaticToken(e.cfg.Phrase.Token)
	}
	if e.httpMetrics != nil {
		httpOpts.Collector = e.httpMetrics
		e.cfg.HTTPClient.Metrics.Enabled = true
	}
	httpClient, err := httpclient.NewWithOpts(e.cfg.HTTPClient, httpOpts)
	if err != nil {
		return nil, fmt.Errorf("create HTTP client: %w", err)
	}

	clientOpts := phrase.ClientOpts{Logger: e.logger}
	if e.cacheMetrics != nil {
		clientOpts.LocalesCacheMetrics = e.cacheMetrics.ForCache(phrase.LocalesCacheName)
	}
	client, err := phrase.NewClientWithOpts(e.cfg.Phrase.ClientConfig(), httpClient, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("create Phrase client: %w", err)
	}
	return migrate.NewUploader(client, exec, e.logger), nil
}
