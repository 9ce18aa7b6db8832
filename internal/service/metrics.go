package service

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jjenkins/billtracker/internal/bill"
	"github.com/jjenkins/billtracker/internal/model"
)

// Metrics holds the prometheus collectors for refresh runs
type Metrics struct {
	BillsRefreshed  *prometheus.CounterVec
	DecodeWarnings  prometheus.Counter
	RefreshDuration prometheus.Histogram
	BillsByLocation *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BillsRefreshed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billtracker_bills_refreshed_total",
				Help: "Bills refreshed from nmlegis.gov by result",
			},
			[]string{"result"},
		),
		DecodeWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billtracker_decode_warnings_total",
			Help: "Warnings raised while decoding action codes or projecting locations",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "billtracker_refresh_duration_seconds",
			Help:    "Duration of full refresh runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		BillsByLocation: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "billtracker_bills",
				Help: "Tracked bills by current location",
			},
			[]string{"location"},
		),
	}
	reg.MustRegister(m.BillsRefreshed, m.DecodeWarnings, m.RefreshDuration, m.BillsByLocation)
	return m
}

// LocationCounter is the slice of the bill store MetricsService needs
type LocationCounter interface {
	CountBills(ctx context.Context, year string) (int, error)
	CountByLocation(ctx context.Context, year string) ([]model.LocationCount, error)
}

// MetricsService calculates bill totals for the dashboard and the gauges
type MetricsService struct {
	counts  LocationCounter
	metrics *Metrics
}

// NewMetricsService creates a new MetricsService. metrics may be nil.
func NewMetricsService(counts LocationCounter, metrics *Metrics) *MetricsService {
	return &MetricsService{counts: counts, metrics: metrics}
}

// SystemMetrics represents the calculated totals for one legislative year
type SystemMetrics struct {
	Year            string
	TotalBills      int
	InCommittee     int
	OnFloor         int
	Signed          int
	BusiestLocation string
	BusiestCount    int
	ByLocation      []model.LocationCount
}

// Calculate computes the totals for year and refreshes the location gauges
func (m *MetricsService) Calculate(ctx context.Context, year string) (*SystemMetrics, error) {
	metrics := &SystemMetrics{Year: year}

	total, err := m.counts.CountBills(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate bill totals: %w", err)
	}
	metrics.TotalBills = total

	byLoc, err := m.counts.CountByLocation(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate location totals: %w", err)
	}
	metrics.ByLocation = byLoc

	for _, lc := range byLoc {
		switch {
		case lc.CurLoc == "":
			// never located
		case lc.CurLoc == "Signed" || lc.CurLoc == "SIGNED" || lc.CurLoc == "Chaptered":
			metrics.Signed += lc.Count
		case bill.IsSpecialLocation(lc.CurLoc):
			metrics.OnFloor += lc.Count
		default:
			metrics.InCommittee += lc.Count
			if lc.Count > metrics.BusiestCount {
				metrics.BusiestLocation = lc.CurLoc
				metrics.BusiestCount = lc.Count
			}
		}
	}

	if m.metrics != nil {
		m.metrics.BillsByLocation.Reset()
		for _, lc := range byLoc {
			m.metrics.BillsByLocation.WithLabelValues(lc.CurLoc).Set(float64(lc.Count))
		}
	}

	return metrics, nil
}
