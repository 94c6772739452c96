package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/coronin/Crisprs"
	"github.com/coronin/Crisprs/config"
	"github.com/coronin/Crisprs/server"
)

// location names the index served.
type location string

func (a *app) newServeCmd() *cobra.Command {
	var loc string
	cmd := &cobra.Command{
		Use:   "serve -i INDEX [--addr :8080]",
		Short: "Serve off-target searches over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if loc == "" {
				return usageErrorf("missing required option -i")
			}
			c, err := a.container(cmd.Context(), location(loc))
			if err != nil {
				return err
			}
			return c.Invoke(func(s *server.Server, db *crisprs.DB) error {
				defer db.Close()
				return s.Run(cmd.Context())
			})
		},
	}
	cmd.Flags().StringVarP(&loc, "index", "i", "", "index file or location")
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Float64("rate-limit", 0, "requests per second, 0 for unlimited")
	cmd.Flags().Int("max-queries", 10_000, "largest accepted query batch")
	cmd.Flags().Int64("cache-bytes", 64<<20, "memory for cached results, 0 to disable")
	a.bind(cmd.Flags(), "server.addr", "addr")
	a.bind(cmd.Flags(), "server.rate-limit", "rate-limit")
	a.bind(cmd.Flags(), "server.max-queries", "max-queries")
	a.bind(cmd.Flags(), "server.cache-bytes", "cache-bytes")
	return cmd
}

// container wires the service: configuration, metrics registry, DB and server.
func (a *app) container(ctx context.Context, loc location) (*dig.Container, error) {
	c := dig.New()
	constructors := []any{
		func() config.Config { return a.cfg },
		func() *crisprs.Logger { return a.log },
		func() location { return loc },
		newRegistry,
		newMetrics,
		func(cfg config.Config, log *crisprs.Logger, m crisprs.MetricsCollector, loc location) (*crisprs.DB, error) {
			return crisprs.Open(ctx, string(loc),
				crisprs.WithLogger(log),
				crisprs.WithMetricsCollector(m),
				crisprs.WithResolver(cfg.Resolver()),
				crisprs.WithSearchOptions(cfg.SearchOptions()...),
				crisprs.WithPrefetch(true),
			)
		},
		func(db *crisprs.DB, cfg config.Config, log *crisprs.Logger, reg *prometheus.Registry) *server.Server {
			return server.New(db, server.Options{Config: cfg.Server, Logger: log.Logger, Gatherer: reg})
		},
	}
	for _, ctor := range constructors {
		if err := c.Provide(ctor); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func newMetrics(reg *prometheus.Registry) (crisprs.MetricsCollector, error) {
	p, err := crisprs.NewPrometheusCollector(reg)
	if err != nil {
		return nil, err
	}
	return p, nil
}
