package main

import (
	"context"
	"sync"

	"github.com/dd0wney/cluso-netview/pkg/config"
	"github.com/dd0wney/cluso-netview/pkg/evolve"
	"github.com/dd0wney/cluso-netview/pkg/health"
	"github.com/dd0wney/cluso-netview/pkg/logging"
	"github.com/dd0wney/cluso-netview/pkg/metrics"
	"github.com/dd0wney/cluso-netview/pkg/netview"
	"github.com/dd0wney/cluso-netview/pkg/pubsub"
	"github.com/dd0wney/cluso-netview/pkg/scene"
)

// app wires a demo network producer to a view.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	metrics  *metrics.Registry
	bus      *pubsub.PubSub[evolve.MutationEvent]
	network  *evolve.Network
	producer *evolve.Producer
	view     *netview.View

	wg sync.WaitGroup
}

func newApp(cfg *config.Config, sub scene.Substrate, logger logging.Logger) (*app, error) {
	lc, err := cfg.LayoutConfig()
	if err != nil {
		return nil, err
	}

	reg := metrics.NewRegistry()
	view, err := netview.New(netview.Options{
		Scene:     cfg.SceneOptions(logger),
		Layout:    lc,
		Interval:  cfg.View.Interval,
		Substrate: sub,
		Logger:    logger,
		Metrics:   reg,
	})
	if err != nil {
		return nil, err
	}

	bus := pubsub.NewPubSub[evolve.MutationEvent](pubsub.DefaultBuffer)
	network := evolve.NewNetwork(cfg.Evolve)
	producer, err := evolve.NewProducer(network, view, evolve.ProducerConfig{
		Rate:    cfg.Producer.Rate,
		Bus:     bus,
		Metrics: reg,
		Logger:  logger,
	})
	if err != nil {
		view.Close()
		bus.Shutdown()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  reg,
		bus:      bus,
		network:  network,
		producer: producer,
		view:     view,
	}, nil
}

// start runs the producer until ctx is done and starts the animation.
func (a *app) start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.producer.Run(ctx); err != nil {
			a.logger.Error("producer failed", logging.Error(err))
		}
	}()
	a.view.Start()
}

// close stops the view and waits for the producer, whose context the caller
// must already have cancelled.
func (a *app) close() {
	a.view.Close()
	a.wg.Wait()
	a.bus.Shutdown()
}

// healthChecker reports on the animation, the producer and the scene.
func (a *app) healthChecker() *health.HealthChecker {
	hc := health.NewHealthChecker()

	animation := health.AnimationCheck(func() health.DriverState {
		return health.DriverState{
			Running:  a.view.Running(),
			LastTick: a.view.LastTick(),
			Interval: a.view.Interval(),
		}
	}, nil)
	hc.RegisterCheck("animation", animation)
	hc.RegisterReadinessCheck("animation", animation)

	hc.RegisterCheck("producer", health.ProducerCheck(a.view.LastPublish, 10*a.cfg.Producer.Rate, nil))
	hc.RegisterCheck("scene", health.SceneCheck(func() (nodes, links, dangling int) {
		r := a.view.LastReport()
		return r.Layout.Nodes, r.Layout.Links, r.Sync.Dangling
	}))
	hc.RegisterLivenessCheck("process", health.AlwaysHealthy("process"))
	return hc
}
