// Package metrics records classroom activity as prometheus collectors.
//
// A Recorder is an events.EventHandler: register it with an emitter and
// every committed course, assignment and submission change is counted.
package metrics

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/phrazzld/classroom/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Recorder holds the collectors for one registry.
type Recorder struct {
	registry *prometheus.Registry
	logger   *slog.Logger

	EventsTotal       *prometheus.CounterVec
	SubmissionsTotal  *prometheus.CounterVec
	GradePercentage   *prometheus.HistogramVec
	OperationDuration *prometheus.HistogramVec
	UndecodableEvents prometheus.Counter
}

// NewRecorder registers the classroom collectors on a fresh registry under
// the given namespace.
func NewRecorder(namespace string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		logger:   logger.With(slog.String("component", "metrics")),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total number of classroom events",
			},
			[]string{"event_type"},
		),
		SubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Submissions accepted, by kind and lateness",
			},
			[]string{"kind", "late"},
		),
		GradePercentage: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "grade_percentage",
				Help:      "Distribution of grade percentages",
				Buckets:   prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"late"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Use case duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "outcome"},
		),
		UndecodableEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "undecodable_events_total",
				Help:      "Events whose payload could not be decoded",
			},
		),
	}
}

// Registry exposes the registry the collectors live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// HandleEvent implements events.EventHandler.
func (r *Recorder) HandleEvent(_ context.Context, event *events.Event) error {
	r.EventsTotal.WithLabelValues(event.Type).Inc()

	switch event.Type {
	case events.TypeSubmissionCreated, events.TypeSubmissionResubmitted, events.TypeSubmissionGraded:
	default:
		return nil
	}

	var p events.SubmissionPayload
	if err := event.UnmarshalPayload(&p); err != nil {
		r.UndecodableEvents.Inc()
		r.logger.Warn("undecodable submission event",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
		return err
	}
	late := strconv.FormatBool(p.Late)

	switch event.Type {
	case events.TypeSubmissionCreated:
		r.SubmissionsTotal.WithLabelValues("initial", late).Inc()
	case events.TypeSubmissionResubmitted:
		r.SubmissionsTotal.WithLabelValues("resubmission", late).Inc()
	case events.TypeSubmissionGraded:
		if p.Percentage != nil {
			r.GradePercentage.WithLabelValues(late).Observe(*p.Percentage)
		}
	}
	return nil
}

// ObserveOperation records how long a use case took, labelled with its
// outcome (ok, rejected or error).
func (r *Recorder) ObserveOperation(operation, outcome string, started time.Time) {
	r.OperationDuration.WithLabelValues(operation, outcome).Observe(time.Since(started).Seconds())
}

// Sample is one gathered counter or histogram series.
type Sample struct {
	Name   string
	Labels map[string]string
	// Value is the counter value, or the observation count for histograms.
	Value float64
	// Sum is the sum of observations for histograms.
	Sum float64
}

// Snapshot gathers every series in the registry, sorted by name.
func (r *Recorder) Snapshot() ([]Sample, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			s := Sample{Name: mf.GetName(), Labels: labels(m)}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				s.Value = m.GetCounter().GetValue()
			case dto.MetricType_HISTOGRAM:
				s.Value = float64(m.GetHistogram().GetSampleCount())
				s.Sum = m.GetHistogram().GetSampleSum()
			default:
				continue
			}
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func labels(m *dto.Metric) map[string]string {
	if len(m.GetLabel()) == 0 {
		return nil
	}
	l := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		l[lp.GetName()] = lp.GetValue()
	}
	return l
}
