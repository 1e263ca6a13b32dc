package evolve

import (
	"context"
	"errors"
	"time"

	"github.com/dd0wney/cluso-netview/pkg/logging"
	"github.com/dd0wney/cluso-netview/pkg/metrics"
	"github.com/dd0wney/cluso-netview/pkg/netmodel"
	"github.com/dd0wney/cluso-netview/pkg/pubsub"
)

// TopicMutations is the bus topic every MutationEvent is published on.
const TopicMutations = "mutations"

// DefaultRate is the default delay between generations.
const DefaultRate = 500 * time.Millisecond

// Publisher receives each new snapshot. *netview.View satisfies it.
type Publisher interface {
	Publish(snap *netmodel.Snapshot)
}

// ProducerConfig configures a Producer.
type ProducerConfig struct {
	Rate    time.Duration
	Bus     *pubsub.PubSub[MutationEvent]
	Metrics *metrics.Registry
	Logger  logging.Logger
}

// Producer evolves a Network on its own goroutine and publishes a snapshot
// after every generation.
type Producer struct {
	net     *Network
	out     Publisher
	rate    time.Duration
	bus     *pubsub.PubSub[MutationEvent]
	metrics *metrics.Registry
	logger  logging.Logger
}

// NewProducer creates a producer feeding out.
func NewProducer(net *Network, out Publisher, cfg ProducerConfig) (*Producer, error) {
	if net == nil || out == nil {
		return nil, errors.New("producer needs a network and a publisher")
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	return &Producer{
		net:     net,
		out:     out,
		rate:    cfg.Rate,
		bus:     cfg.Bus,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With(logging.Component("evolve")),
	}, nil
}

// Step runs one generation and publishes the result.
func (p *Producer) Step() []MutationEvent {
	events := p.net.Mutate()
	snap := p.net.Snapshot()
	p.out.Publish(snap)

	structural := 0
	for _, ev := range events {
		if ev.Kind.Structural() {
			structural++
		}
		if p.metrics != nil {
			p.metrics.RecordMutation(string(ev.Kind))
		}
		if p.bus != nil {
			p.bus.Publish(TopicMutations, ev)
		}
	}

	if structural > 0 {
		p.logger.Info("topology changed",
			logging.Generation(snap.Generation),
			logging.Count(structural),
			logging.Int("nodes", len(snap.Nodes)),
			logging.Int("links", len(snap.Links)),
		)
	} else {
		p.logger.Debug("generation", logging.Generation(snap.Generation), logging.Count(len(events)))
	}
	return events
}

// Run publishes the initial network, then steps every Rate until ctx is
// cancelled.
func (p *Producer) Run(ctx context.Context) error {
	p.out.Publish(p.net.Snapshot())

	ticker := time.NewTicker(p.rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("producer stopped", logging.Generation(p.net.Generation()))
			return nil
		case <-ticker.C:
			p.Step()
		}
	}
}
