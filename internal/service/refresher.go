package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jjenkins/billtracker/internal/bill"
	"github.com/jjenkins/billtracker/internal/cache"
	"github.com/jjenkins/billtracker/internal/decode"
	"github.com/jjenkins/billtracker/internal/model"
)

// RefreshStats tracks refresh statistics
type RefreshStats struct {
	mu        sync.Mutex
	Total     int
	Refreshed int
	Changed   int
	Unchanged int
	Failed    int
	Warnings  int
}

func (s *RefreshStats) record(fn func(*RefreshStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// BillSaver persists refreshed bills
type BillSaver interface {
	SaveBillWithSnapshot(ctx context.Context, b *model.Bill, snapshotDate time.Time) (bool, error)
}

// Refresher fetches, decodes and stores bills from nmlegis.gov
type Refresher struct {
	client     *NMLegisClient
	parser     *Parser
	bills      BillSaver
	locker     cache.Locker
	lockTTL    time.Duration
	workers    int
	metrics    *Metrics
	now        func() time.Time
	logger     *log.Logger
	errLogger  *log.Logger
	warnLogger *log.Logger
}

// NewRefresher creates a new Refresher. metrics may be nil.
func NewRefresher(client *NMLegisClient, parser *Parser, bills BillSaver, locker cache.Locker, lockTTL time.Duration, workers int, metrics *Metrics) *Refresher {
	if workers < 1 {
		workers = 1
	}
	return &Refresher{
		client:     client,
		parser:     parser,
		bills:      bills,
		locker:     locker,
		lockTTL:    lockTTL,
		workers:    workers,
		metrics:    metrics,
		now:        time.Now,
		logger:     log.New(os.Stdout, "", log.LstdFlags),
		errLogger:  log.New(os.Stderr, "ERROR: ", log.LstdFlags),
		warnLogger: log.New(os.Stderr, "WARNING: ", log.LstdFlags),
	}
}

// Refresh updates every bill in billnos for the given year code. Only one
// refresh per year code runs at a time; a concurrent call gets
// cache.ErrLocked.
func (r *Refresher) Refresh(ctx context.Context, yearcode string, billnos []string) (*RefreshStats, error) {
	unlock, err := r.locker.Lock(ctx, "refresh:"+yearcode, r.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to lock refresh for %s: %w", yearcode, err)
	}
	defer func() {
		if err := unlock(context.Background()); err != nil {
			r.errLogger.Printf("Failed to release refresh lock for %s: %v", yearcode, err)
		}
	}()

	start := r.now()
	stats := &RefreshStats{Total: len(billnos)}
	r.logger.Printf("Refreshing %d bills for year %s...", stats.Total, yearcode)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for idx, billno := range billnos {
		if gctx.Err() != nil {
			break
		}

		progress := fmt.Sprintf("[%d/%d]", idx+1, stats.Total)
		g.Go(func() error {
			if err := r.refreshBill(gctx, yearcode, billno, progress, stats); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.errLogger.Printf("Failed to refresh %s: %v", billno, err)
				stats.record(func(s *RefreshStats) { s.Failed++ })
				r.count("failed")
			}

			// Rate limiting delay between requests
			if d := r.client.Delay(); d > 0 {
				select {
				case <-gctx.Done():
				case <-time.After(d):
				}
			}
			return nil
		})
	}

	err = g.Wait()
	if r.metrics != nil {
		r.metrics.RefreshDuration.Observe(r.now().Sub(start).Seconds())
	}
	if err == nil {
		err = ctx.Err()
	}
	return stats, err
}

// RefreshOne refreshes a single bill without taking the year lock
func (r *Refresher) RefreshOne(ctx context.Context, yearcode, billno string) (*RefreshStats, error) {
	stats := &RefreshStats{Total: 1}
	if err := r.refreshBill(ctx, yearcode, billno, "[1/1]", stats); err != nil {
		stats.Failed++
		r.count("failed")
		return stats, err
	}
	return stats, nil
}

// refreshBill refreshes a single bill
func (r *Refresher) refreshBill(ctx context.Context, yearcode, billno, progress string, stats *RefreshStats) error {
	d, err := bill.Parse(billno)
	if err != nil {
		return err
	}

	r.logger.Printf("%s Refreshing %s...", progress, d)

	content, err := r.client.FetchBillPage(ctx, d, yearcode)
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}

	page, err := r.parser.Parse(content)
	if err != nil {
		if errors.Is(err, ErrNoBillPage) {
			// don't keep serving the error page from the cache
			if ferr := r.client.Forget(ctx, d, yearcode); ferr != nil {
				r.errLogger.Printf("Failed to drop cached page for %s: %v", d, ferr)
			}
		}
		return fmt.Errorf("failed to parse page: %w", err)
	}

	firLink, lescLink, err := r.client.AnalysisLinks(ctx, d, yearcode)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// keep going; the reports show up on a later refresh
		r.warnLogger.Printf("%s: %v", d, err)
	}

	result := decode.DecodeFullHistory(page.ActionCode)
	proj, err := decode.ProjectLocations(d.String(), result.History)
	if err != nil {
		return fmt.Errorf("failed to project locations: %w", err)
	}

	warnings := append(append([]string{}, result.Warnings...), proj.Warnings...)
	for _, w := range warnings {
		r.warnLogger.Printf("%s: %s", d, w)
	}
	if len(warnings) > 0 {
		stats.record(func(s *RefreshStats) { s.Warnings += len(warnings) })
		if r.metrics != nil {
			r.metrics.DecodeWarnings.Add(float64(len(warnings)))
		}
	}

	curloc := page.CurLoc
	if curloc == "" {
		curloc = result.CurrentLocation
	}

	now := r.now()
	b := &model.Bill{
		Billno:         d.String(),
		Year:           yearcode,
		Chamber:        d.Chamber,
		BillType:       d.Type,
		Number:         d.Number,
		Title:          page.Title,
		Sponsor:        page.Sponsor,
		SponsorLink:    page.SponsorLink,
		CurLoc:         curloc,
		CurLocLink:     page.CurLocLink,
		ActionCode:     page.ActionCode,
		Status:         page.Status,
		LastAction:     result.LastAction,
		LastActionDate: page.LastActionDate,
		ScheduledDate:  page.ScheduledDate,
		Checksum:       page.Checksum,
		URL:            r.client.BillURL(d, yearcode),
		ContentsLink:   page.ContentsLink,
		AmendLink:      page.AmendLink,
		FIRLink:        firLink,
		LESCLink:       lescLink,
		FetchedAt:      now,
	}

	snapshotDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	changed, err := r.bills.SaveBillWithSnapshot(ctx, b, snapshotDate)
	if err != nil {
		return fmt.Errorf("failed to save bill: %w", err)
	}

	stats.record(func(s *RefreshStats) {
		s.Refreshed++
		if changed {
			s.Changed++
		} else {
			s.Unchanged++
		}
	})

	if changed {
		r.logger.Printf("  %s changed (snapshot created): %s", d, result.LastAction)
		r.count("changed")
	} else {
		r.logger.Printf("  %s unchanged", d)
		r.count("unchanged")
	}

	return nil
}

// ListSession returns every bill filed in a regular session
func (r *Refresher) ListSession(ctx context.Context, yearcode string) ([]model.ListedBill, error) {
	content, err := r.client.FetchBillList(ctx, yearcode)
	if err != nil {
		return nil, err
	}
	bills, err := r.parser.ParseBillList(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bill list for %s: %w", yearcode, err)
	}
	return bills, nil
}

func (r *Refresher) count(result string) {
	if r.metrics != nil {
		r.metrics.BillsRefreshed.WithLabelValues(result).Inc()
	}
}

// PrintSummary prints the refresh statistics
func (r *Refresher) PrintSummary(stats *RefreshStats) {
	r.logger.Println("")
	r.logger.Println("=== Refresh Summary ===")
	r.logger.Printf("Total bills:     %d", stats.Total)
	r.logger.Printf("Refreshed:       %d", stats.Refreshed)
	r.logger.Printf("Changed:         %d", stats.Changed)
	r.logger.Printf("Unchanged:       %d", stats.Unchanged)
	r.logger.Printf("Failed:          %d", stats.Failed)
	r.logger.Printf("Warnings:        %d", stats.Warnings)

	if stats.Total > 0 {
		successRate := float64(stats.Refreshed) / float64(stats.Total) * 100
		r.logger.Printf("Success rate:    %.1f%%", successRate)
	}
}
