/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/carverauto/netscope/pkg/api"
	"github.com/carverauto/netscope/pkg/cache"
	"github.com/carverauto/netscope/pkg/config"
	"github.com/carverauto/netscope/pkg/dashboard"
	"github.com/carverauto/netscope/pkg/geo"
	"github.com/carverauto/netscope/pkg/kv"
	"github.com/carverauto/netscope/pkg/layout"
	"github.com/carverauto/netscope/pkg/lifecycle"
	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/metrics"
	"github.com/carverauto/netscope/pkg/status"
	"github.com/carverauto/netscope/pkg/tui"
	"github.com/carverauto/netscope/pkg/version"
	"github.com/joho/godotenv"
)

const serviceName = "netscope"

var (
	errFailedToLoadConfig = errors.New("failed to load config")
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to netscope config file (JSON or YAML)")
	headless := flag.Bool("headless", false, "Serve the dashboard over HTTP instead of the terminal")
	listen := flag.String("listen", "", "Status server listen address (headless mode)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(serviceName, version.GetFullVersion())

		return nil
	}

	// A missing .env is not an error.
	_ = godotenv.Load()

	ctx := context.Background()

	var cfg config.NetscopeConfig

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	if *listen != "" {
		cfg.Status.Listen = *listen
	}

	if !*headless {
		cfg.TerminalLogging()
	}

	appLogger, err := lifecycle.CreateComponentLogger(ctx, serviceName, cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if err := lifecycle.ShutdownLogger(); err != nil {
			log.Printf("Failed to shut down logger: %v", err)
		}
	}()

	tp, ctx, rootSpan, err := logger.InitializeTracing(ctx, logger.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.GetVersion(),
		Debug:          cfg.Logging.Debug,
		Logger:         appLogger,
		OTel:           &cfg.Logging.OTel,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	defer func() {
		rootSpan.End()

		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to shut down tracing: %v", err)
		}
	}()

	appLogger.Info().
		Str("version", version.GetFullVersion()).
		Interface("config", config.Redact(&cfg)).
		Msg("Starting netscope")

	app, err := newApp(ctx, &cfg, *headless, appLogger)
	if err != nil {
		return err
	}

	defer app.close()

	return lifecycle.RunService(ctx, app, appLogger)
}

// app owns the dashboard and its front end, either the terminal UI or the
// headless status server.
type app struct {
	dash   *dashboard.Dashboard
	front  lifecycle.Service
	store  kv.KVStore
	geo    *geo.Enricher
	logger logger.Logger
}

func newApp(ctx context.Context, cfg *config.NetscopeConfig, headless bool, log logger.Logger) (*app, error) {
	client, err := api.NewClient(cfg.Client(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	store, err := kv.Open(ctx, cfg.Cache, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	a := &app{store: store, logger: log}

	opts, err := a.options(ctx, cfg)
	if err != nil {
		a.close()

		return nil, err
	}

	a.dash, err = dashboard.New(cfg.Dashboard(), client, cache.New(store, log), layout.NewStore(store, log), log, opts...)
	if err != nil {
		a.close()

		return nil, fmt.Errorf("failed to create dashboard: %w", err)
	}

	if headless {
		a.front = status.NewServer(cfg.Status.Listen, a.dash, log)
	} else {
		a.front = tui.NewProgram(a.dash, cfg.ReportDir, log)
	}

	return a, nil
}

func (a *app) options(ctx context.Context, cfg *config.NetscopeConfig) ([]dashboard.Option, error) {
	var opts []dashboard.Option

	if cfg.Metrics.Enabled {
		if _, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
			ServiceName:    serviceName,
			ServiceVersion: version.GetVersion(),
			OTel:           &cfg.Logging.OTel,
		}); err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}

		recorder, err := metrics.NewRecorder(nil, cfg.Metrics.History)
		if err != nil {
			return nil, err
		}

		opts = append(opts, dashboard.WithRecorder(recorder))
	}

	enricher, err := geo.Open(cfg.GeoIPDB, a.logger)
	if err != nil {
		return nil, err
	}

	a.geo = enricher
	opts = append(opts, dashboard.WithGeo(enricher))

	if cfg.ReverseDNS.Enabled {
		resolver := geo.NewReverseResolver(cfg.ReverseDNS.Server, cfg.ReverseDNS.Timeout.Std(), a.logger)
		opts = append(opts, dashboard.WithReverseDNS(resolver))
	}

	return opts, nil
}

func (a *app) Start(ctx context.Context) error {
	a.dash.Seed(ctx)

	if err := a.dash.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dashboard: %w", err)
	}

	return a.front.Start(ctx)
}

func (a *app) Stop(ctx context.Context) error {
	frontErr := a.front.Stop(ctx)

	return errors.Join(frontErr, a.dash.Stop(ctx))
}

func (a *app) close() {
	if err := a.geo.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close GeoIP database")
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close cache")
	}
}
