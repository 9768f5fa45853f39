package forzadash

import (
	"bytes"
	"encoding/json"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"sync"
)

const (
	dropIncomplete = "incomplete"
	dropDecode     = "decode"
	dropEncode     = "encode"
)

// ChangeCache holds the last successfully published reduced record.
type ChangeCache struct {
	mu   sync.Mutex
	last []byte
}

func (c *ChangeCache) Equal(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last != nil && bytes.Equal(c.last, payload)
}

func (c *ChangeCache) Store(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = append([]byte(nil), payload...)
}

func (c *ChangeCache) Last() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.last...)
}

type DispatcherConfig struct {
	Schema    *Schema
	Publisher Publisher
	LiveView  LiveView
	// Reduced lists the metrics sent to the publisher. Defaults to active.
	Reduced []Metric
	Cache   *ChangeCache
	// Registerer is optional, no metrics are recorded without one.
	Registerer prometheus.Registerer
	// OnMetrics is called with every transformed record.
	OnMetrics func(*Metrics)
}

type Dispatcher struct {
	schema     *Schema
	publisher  Publisher
	liveView   LiveView
	reduced    []Metric
	cache      *ChangeCache
	onMetrics  func(*Metrics)
	forwarders []Forwarder
	stats      *dispatchStats

	// serializes the pipeline so at most one record is compared against and
	// written to the cache at a time
	mu sync.Mutex
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	d := &Dispatcher{
		schema:    cfg.Schema,
		publisher: cfg.Publisher,
		liveView:  cfg.LiveView,
		reduced:   cfg.Reduced,
		cache:     cfg.Cache,
		onMetrics: cfg.OnMetrics,
		stats:     newDispatchStats(cfg.Registerer),
	}
	if d.schema == nil {
		d.schema = DashSchema
	}
	if len(d.reduced) == 0 {
		d.reduced = []Metric{MetricActive}
	}
	if d.cache == nil {
		d.cache = &ChangeCache{}
	}
	return d
}

func (d *Dispatcher) AddForwarder(fwd Forwarder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.forwarders = append(d.forwarders, fwd)
}

func (d *Dispatcher) Cache() *ChangeCache {
	return d.cache
}

// HandlePacket runs one datagram through decode, transform and dispatch. A
// packet that fails to decode is dropped without touching the cache or any
// sink.
func (d *Dispatcher) HandlePacket(packet []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.packet()
	fields, err := d.schema.Decode(packet)
	if err != nil {
		if errors.Cause(err) == ErrIncompletePacket {
			d.stats.drop(dropIncomplete)
		} else {
			d.stats.drop(dropDecode)
		}
		return errors.Wrap(err, "unable to decode packet")
	}

	for _, fwd := range d.forwarders {
		if err := fwd.Forward(packet); err != nil {
			log.WithField("err", err).Warn("unable to forward packet")
		}
	}

	metrics := Transform(fields)
	if d.onMetrics != nil {
		d.onMetrics(metrics)
	}
	return d.dispatch(metrics)
}

// Dispatch sends an already transformed record to the sinks.
func (d *Dispatcher) Dispatch(metrics *Metrics) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dispatch(metrics)
}

func (d *Dispatcher) dispatch(metrics *Metrics) error {
	full, err := json.Marshal(metrics)
	if err != nil {
		d.stats.drop(dropEncode)
		return errors.Wrap(err, "unable to encode metrics")
	}
	reduced, err := json.Marshal(metrics.Reduce(d.reduced))
	if err != nil {
		d.stats.drop(dropEncode)
		return errors.Wrap(err, "unable to encode reduced metrics")
	}

	if d.liveView != nil {
		if err := d.liveView.Broadcast(full); err != nil {
			d.stats.liveViewError()
			log.WithField("err", err).Debug("unable to send to live view")
		} else {
			d.stats.liveViewSend()
		}
	}

	if d.publisher == nil || d.cache.Equal(reduced) {
		return nil
	}
	// the cache only moves forward once the publish succeeded, so the same
	// record is retried on the next packet
	if err := d.publisher.Publish(reduced); err != nil {
		d.stats.publishError()
		return errors.Wrap(err, "unable to publish state")
	}
	d.stats.publish()
	d.cache.Store(reduced)
	return nil
}

type dispatchStats struct {
	packets        prometheus.Counter
	dropped        *prometheus.CounterVec
	publishes      prometheus.Counter
	publishErrors  prometheus.Counter
	liveViewSends  prometheus.Counter
	liveViewErrors prometheus.Counter
}

func newDispatchStats(reg prometheus.Registerer) *dispatchStats {
	if reg == nil {
		return nil
	}
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: "forzadash",
			Subsystem: "pipeline",
			Name:      name,
			Help:      help,
		}
	}
	s := &dispatchStats{
		packets:        prometheus.NewCounter(opts("packets_total", "Packets handed to the pipeline")),
		dropped:        prometheus.NewCounterVec(opts("packets_dropped_total", "Packets dropped before reaching a sink"), []string{"reason"}),
		publishes:      prometheus.NewCounter(opts("publishes_total", "Reduced records published")),
		publishErrors:  prometheus.NewCounter(opts("publish_errors_total", "Failed publishes of the reduced record")),
		liveViewSends:  prometheus.NewCounter(opts("liveview_sends_total", "Full records sent to the live view")),
		liveViewErrors: prometheus.NewCounter(opts("liveview_errors_total", "Failed sends to the live view")),
	}
	reg.MustRegister(s.packets, s.dropped, s.publishes, s.publishErrors, s.liveViewSends, s.liveViewErrors)
	return s
}

func (s *dispatchStats) packet() {
	if s != nil {
		s.packets.Inc()
	}
}

func (s *dispatchStats) drop(reason string) {
	if s != nil {
		s.dropped.WithLabelValues(reason).Inc()
	}
}

func (s *dispatchStats) publish() {
	if s != nil {
		s.publishes.Inc()
	}
}

func (s *dispatchStats) publishError() {
	if s != nil {
		s.publishErrors.Inc()
	}
}

func (s *dispatchStats) liveViewSend() {
	if s != nil {
		s.liveViewSends.Inc()
	}
}

func (s *dispatchStats) liveViewError() {
	if s != nil {
		s.liveViewErrors.Inc()
	}
}
