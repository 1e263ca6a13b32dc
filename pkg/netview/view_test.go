package netview

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/layout"
	"github.com/dd0wney/cluso-netview/pkg/logging"
	"github.com/dd0wney/cluso-netview/pkg/metrics"
	"github.com/dd0wney/cluso-netview/pkg/netmodel"
	"github.com/dd0wney/cluso-netview/pkg/scene"
)

// fakeSubstrate records calls and supports viewport fitting.
type fakeSubstrate struct {
	mu       sync.Mutex
	live     map[scene.Ref]bool
	events   []string
	repaints int
	rect     r2.Box
	rects    int
}

func newFakeSubstrate() *fakeSubstrate {
	return &fakeSubstrate{live: make(map[scene.Ref]bool)}
}

func (f *fakeSubstrate) Add(ref scene.Ref) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.live[ref] {
		f.events = append(f.events, "double add "+ref.String())
	}
	f.live[ref] = true
	f.events = append(f.events, "add")
}

func (f *fakeSubstrate) Remove(ref scene.Ref) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.live[ref] {
		f.events = append(f.events, "unknown remove "+ref.String())
	}
	delete(f.live, ref)
	f.events = append(f.events, "remove")
}

func (f *fakeSubstrate) RequestRepaint() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repaints++
	f.events = append(f.events, "repaint")
}

func (f *fakeSubstrate) ViewportSize() (int, int) { return 80, 24 }

func (f *fakeSubstrate) SetVisibleRect(rect r2.Box) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rect = rect
	f.rects++
	f.events = append(f.events, "fit")
}

func (f *fakeSubstrate) violations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		if strings.HasPrefix(e, "double ") || strings.HasPrefix(e, "unknown ") {
			out = append(out, e)
		}
	}
	return out
}

func newView(t *testing.T, sub scene.Substrate, reg *metrics.Registry) *View {
	t.Helper()
	cfg := layout.DefaultConfig()
	cfg.Step = time.Millisecond
	v, err := New(Options{
		Layout:    cfg,
		Interval:  time.Millisecond,
		Substrate: sub,
		Metrics:   reg,
	})
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v
}

func TestView_ConcreteScenario(t *testing.T) {
	v := newView(t, nil, nil)

	first := netmodel.NewSnapshot()
	first.Nodes[1] = netmodel.NodeSnapshot{Bias: 0.5}
	v.Sync(first)

	v.Read(func(s *scene.Scene) {
		nodes, links := s.Counts()
		assert.Equal(t, 1, nodes)
		assert.Zero(t, links)
		n, ok := s.Nodes.Find(1)
		require.True(t, ok)
		assert.Equal(t, 0.5, n.Bias)
	})

	second := netmodel.NewSnapshot()
	second.Nodes[1] = netmodel.NodeSnapshot{Bias: 0.5}
	second.Nodes[2] = netmodel.NodeSnapshot{Bias: -0.2}
	second.Links[netmodel.Link(1, 2)] = netmodel.LinkSnapshot{Weight: 1.0}
	v.Sync(second)

	v.Read(func(s *scene.Scene) {
		nodes, links := s.Counts()
		assert.Equal(t, 2, nodes)
		assert.Equal(t, 1, links)

		l, ok := s.Links.Find(netmodel.Link(1, 2))
		require.True(t, ok)
		assert.False(t, l.Bidirectional)
		assert.Equal(t, 1.0, l.Weight)

		src, dst, ok := s.Endpoints(l)
		require.True(t, ok)
		n1, _ := s.Nodes.Find(1)
		n2, _ := s.Nodes.Find(2)
		assert.Same(t, n1, src)
		assert.Same(t, n2, dst)
	})
}

func TestView_TickOrder(t *testing.T) {
	sub := newFakeSubstrate()
	v := newView(t, sub, nil)

	snap := netmodel.NewSnapshot()
	snap.Nodes[1] = netmodel.NodeSnapshot{}
	snap.Nodes[2] = netmodel.NodeSnapshot{}
	snap.Links[netmodel.Link(1, 2)] = netmodel.LinkSnapshot{Weight: 1}
	v.Publish(snap)

	report := v.Tick()
	assert.Equal(t, uint64(1), report.Tick)
	assert.Equal(t, 2, report.Sync.NodesCreated)
	assert.Equal(t, 1, report.Flush.LinksAdded)
	assert.Equal(t, []string{"add", "add", "add", "fit", "repaint"}, sub.events)
	assert.Equal(t, report.Extent.Box(), sub.rect)
	assert.Equal(t, report, v.LastReport())
}

func TestView_RemovalReachesSubstrate(t *testing.T) {
	sub := newFakeSubstrate()
	v := newView(t, sub, nil)

	snap := netmodel.NewSnapshot()
	snap.Nodes[1] = netmodel.NodeSnapshot{}
	snap.Nodes[2] = netmodel.NodeSnapshot{}
	v.Publish(snap)
	v.Tick()

	next := snap.Clone()
	delete(next.Nodes, 2)
	v.Publish(next)
	report := v.Tick()

	assert.Equal(t, 1, report.Flush.NodesRemoved)
	assert.Len(t, sub.live, 1)
	assert.Empty(t, sub.violations())
}

func TestView_ConnectPollsSource(t *testing.T) {
	v := newView(t, nil, nil)

	gen := uint64(0)
	v.Connect(SourceFunc(func() *netmodel.Snapshot {
		gen++
		s := netmodel.NewSnapshot()
		s.Generation = gen
		for i := 0; i < int(gen); i++ {
			s.Nodes[netmodel.NodeID(i)] = netmodel.NodeSnapshot{}
		}
		return s
	}))

	v.Tick()
	report := v.Tick()
	assert.Equal(t, uint64(2), report.Generation)
	assert.Equal(t, 2, report.Layout.Nodes)

	at, g := v.LastPublish()
	assert.False(t, at.IsZero())
	assert.Equal(t, uint64(2), g)

	v.Connect(nil)
	report = v.Tick()
	assert.Equal(t, uint64(2), report.Generation, "last snapshot stays current")
}

func TestView_StartStop(t *testing.T) {
	reg := metrics.NewRegistry()
	v := newView(t, nil, reg)

	v.Start()
	v.Start()
	assert.True(t, v.Running())
	assert.Equal(t, 1.0, gauge(t, reg.DriverRunning.Write))

	require.Eventually(t, func() bool { return v.LastReport().Tick >= 3 }, time.Second, time.Millisecond)
	assert.False(t, v.LastTick().IsZero())

	v.Stop()
	v.Stop()
	assert.False(t, v.Running())
	assert.Equal(t, 0.0, gauge(t, reg.DriverRunning.Write))

	ticks := v.LastReport().Tick
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, ticks, v.LastReport().Tick)
}

func TestView_RecordsMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	v := newView(t, nil, reg)

	snap := netmodel.NewSnapshot()
	snap.Generation = 9
	snap.Nodes[1] = netmodel.NodeSnapshot{}
	snap.Links[netmodel.Link(1, 5)] = netmodel.LinkSnapshot{}
	v.Publish(snap)
	v.Tick()

	var m dto.Metric
	require.NoError(t, reg.TicksTotal.Write(&m))
	assert.Equal(t, 1.0, m.GetCounter().GetValue())

	m.Reset()
	require.NoError(t, reg.DanglingLinks.Write(&m))
	assert.Equal(t, 1.0, m.GetCounter().GetValue())

	assert.Equal(t, 9.0, gauge(t, reg.ProducerGeneration.Write))
	assert.Equal(t, 1.0, gauge(t, reg.EntitiesLive.WithLabelValues(metrics.KindNode).Write))
}

func TestView_ConcurrentProducer(t *testing.T) {
	sub := newFakeSubstrate()
	v := newView(t, sub, nil)
	v.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for g := 0; g < 200; g++ {
			s := netmodel.NewSnapshot()
			s.Generation = uint64(g)
			for i := 0; i < g%13; i++ {
				s.Nodes[netmodel.NodeID(i)] = netmodel.NodeSnapshot{Bias: float64(g)}
				if i > 0 {
					s.Links[netmodel.Link(netmodel.NodeID(i-1), netmodel.NodeID(i))] = netmodel.LinkSnapshot{}
				}
			}
			v.Publish(s)
			if g%20 == 0 {
				time.Sleep(time.Millisecond)
			}
		}
	}()

	readers := 3
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				v.Read(func(s *scene.Scene) {
					s.Links.ForEach(func(_ netmodel.LinkID, _ scene.Handle, l *scene.VisualLink) bool {
						_, _, ok := s.Endpoints(l)
						assert.True(t, ok)
						return true
					})
				})
			}
		}()
	}
	wg.Wait()
	v.Stop()

	v.Tick()
	assert.Empty(t, sub.violations())
	v.Read(func(s *scene.Scene) {
		nodes, _ := s.Counts()
		assert.Equal(t, len(v.Current().Nodes), nodes)
	})
}

func TestView_RunIDIsStable(t *testing.T) {
	a := newView(t, nil, nil)
	b := newView(t, nil, nil)
	assert.NotEmpty(t, a.RunID())
	assert.Equal(t, a.RunID(), a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestNew_RejectsBadLayout(t *testing.T) {
	cfg := layout.DefaultConfig()
	cfg.Margin = 0.5
	_, err := New(Options{Layout: cfg})
	assert.Error(t, err)
}

func TestNew_ZeroLayoutUsesDefaults(t *testing.T) {
	v, err := New(Options{})
	require.NoError(t, err)
	defer v.Close()
	assert.Equal(t, layout.DefaultConfig().Step, v.Interval())
}

func gauge(t *testing.T, write func(*dto.Metric) error) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, write(&m))
	return m.GetGauge().GetValue()
}

func TestNew_IntervalDrivesIntegrationStep(t *testing.T) {
	cfg := layout.DefaultConfig()
	cfg.Step = 40 * time.Millisecond
	v, err := New(Options{Layout: cfg, Interval: 10 * time.Millisecond})
	require.NoError(t, err)
	defer v.Close()

	assert.Equal(t, 10*time.Millisecond, v.Interval())
	assert.Equal(t, 10*time.Millisecond, v.engine.Config().Step)
}

func TestNew_ZeroIntervalKeepsLayoutStep(t *testing.T) {
	cfg := layout.DefaultConfig()
	cfg.Step = 25 * time.Millisecond
	v, err := New(Options{Layout: cfg})
	require.NoError(t, err)
	defer v.Close()

	assert.Equal(t, 25*time.Millisecond, v.Interval())
	assert.Equal(t, 25*time.Millisecond, v.engine.Config().Step)
}

func TestView_TickIsTimedInLogs(t *testing.T) {
	var buf bytes.Buffer
	v, err := New(Options{Logger: logging.NewJSONLogger(&buf, logging.DebugLevel)})
	require.NoError(t, err)
	defer v.Close()

	report := v.Tick()
	assert.GreaterOrEqual(t, report.Duration, time.Duration(0))

	var found bool
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["msg"] == "tick" {
			found = true
			assert.EqualValues(t, 1, entry["tick"])
			assert.Contains(t, entry, "latency")
		}
	}
	assert.True(t, found, "no tick entry in %s", buf.String())
}
