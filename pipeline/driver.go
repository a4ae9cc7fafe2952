// Package pipeline drives pages from the upstream fetch source through
// extraction and reconciliation, one outcome per page. A single page's
// failure never halts the run.
package pipeline

import (
	"context"
	"strings"
	"sync"

	"airbnb-harvester/extract"
	"airbnb-harvester/models"
	"airbnb-harvester/reconcile"
	"airbnb-harvester/utils"

	"github.com/PuerkitoBio/goquery"
)

// Page is one fetched listing page as handed over by the upstream source.
type Page struct {
	URL  string
	HTML string
}

// Outcome classifies one page's trip through the pipeline.
type Outcome int

const (
	// OutcomeStored means the record was reconciled and committed.
	OutcomeStored Outcome = iota
	// OutcomeSkipped means the page yielded no reconcilable record.
	OutcomeSkipped
	// OutcomeFailed means reconciliation failed and was rolled back.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStored:
		return "stored"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports one page's outcome. Record is set whenever extraction
// produced one, including for failed reconciliations.
type Result struct {
	URL     string
	Outcome Outcome
	Record  *models.ListingRecord
	Err     error
}

// Tally counts outcomes across a run.
type Tally struct {
	Stored  int
	Skipped int
	Failed  int
}

// Driver wires the Extractor and Reconciler together and fans pages across
// a bounded worker pool.
type Driver struct {
	extractor  *extract.Extractor
	reconciler *reconcile.Reconciler
	logger     *utils.Logger
	workers    int
}

// NewDriver creates a Driver running up to workers records concurrently.
func NewDriver(extractor *extract.Extractor, reconciler *reconcile.Reconciler, workers int, logger *utils.Logger) *Driver {
	if workers < 1 {
		workers = 1
	}
	return &Driver{
		extractor:  extractor,
		reconciler: reconciler,
		logger:     logger,
		workers:    workers,
	}
}

// Process runs one page through extract, validate and reconcile.
func (d *Driver) Process(ctx context.Context, page Page) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		d.logger.Warn("Unparsable page %s: %v", page.URL, err)
		return Result{URL: page.URL, Outcome: OutcomeSkipped, Err: err}
	}

	rec := d.extractor.Extract(doc)
	rec.URL = page.URL

	if !reconcile.CanReconcile(rec) {
		d.logger.Debug("Skipping %s: record missing title, location or host", page.URL)
		return Result{URL: page.URL, Outcome: OutcomeSkipped, Record: rec}
	}

	if err := d.reconciler.Reconcile(ctx, rec); err != nil {
		d.logger.Error("Reconciliation failed for %s: %v", page.URL, err)
		return Result{URL: page.URL, Outcome: OutcomeFailed, Record: rec, Err: err}
	}
	return Result{URL: page.URL, Outcome: OutcomeStored, Record: rec}
}

// Run consumes pages until the channel closes or ctx is cancelled. A
// cancellation stops picking up further pages; the record in flight still
// commits or rolls back.
func (d *Driver) Run(ctx context.Context, pages <-chan Page) []Result {
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case page, ok := <-pages:
					if !ok {
						return
					}
					results <- d.Process(ctx, page)
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []Result
	for res := range results {
		all = append(all, res)
	}

	tally := Count(all)
	d.logger.Info("Run complete: %d stored, %d skipped, %d failed",
		tally.Stored, tally.Skipped, tally.Failed)
	return all
}

// Count tallies outcomes.
func Count(results []Result) Tally {
	var t Tally
	for _, res := range results {
		switch res.Outcome {
		case OutcomeStored:
			t.Stored++
		case OutcomeSkipped:
			t.Skipped++
		case OutcomeFailed:
			t.Failed++
		}
	}
	return t
}

// StoredRecords returns the records of successfully reconciled pages.
func StoredRecords(results []Result) []*models.ListingRecord {
	var out []*models.ListingRecord
	for _, res := range results {
		if res.Outcome == OutcomeStored && res.Record != nil {
			out = append(out, res.Record)
		}
	}
	return out
}

// ExtractedRecords returns every record extraction produced, including ones
// that were later skipped or failed. Used for the audit CSV.
func ExtractedRecords(results []Result) []*models.ListingRecord {
	var out []*models.ListingRecord
	for _, res := range results {
		if res.Record != nil {
			out = append(out, res.Record)
		}
	}
	return out
}
