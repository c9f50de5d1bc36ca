// Package pipeline orchestrates one end-to-end reporting run: fetch the
// Flex statement, aggregate it into daily and window summaries, attach
// advisories, render documents and archive them.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tradekit/flexmetrics/internal/advisor"
	"github.com/tradekit/flexmetrics/internal/aggregate"
	"github.com/tradekit/flexmetrics/internal/config"
	"github.com/tradekit/flexmetrics/internal/flex"
	"github.com/tradekit/flexmetrics/internal/metrics"
	"github.com/tradekit/flexmetrics/internal/report"
	"github.com/tradekit/flexmetrics/internal/storage/archive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves a parsed Flex statement.
type Fetcher interface {
	Fetch(ctx context.Context) (*flex.Statement, error)
}

// Pipeline wires the fetch, aggregate, advise, render and archive stages.
type Pipeline struct {
	cfg     *config.Config
	logger  *zap.Logger
	fetcher Fetcher
	store   archive.Archive
	advisor *advisor.Advisor
	metrics *metrics.Registry
}

// New creates a Pipeline. A nil logger is replaced with a no-op one; the
// advisor rule table comes from configuration, falling back to the builtin
// rules when none are configured.
func New(cfg *config.Config, logger *zap.Logger, fetcher Fetcher, store archive.Archive, reg *metrics.Registry) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	var rules []advisor.Rule
	if len(cfg.Advisor.Rules) > 0 {
		rules = cfg.Advisor.Rules
	}
	return &Pipeline{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		store:   store,
		advisor: advisor.New(rules),
		metrics: reg,
	}
}

// Request describes one pipeline run. Today anchors window scheduling and
// the empty-day marker; Force adds window kinds beyond what the schedule
// says is due.
type Request struct {
	Today   time.Time
	Force   []aggregate.WindowKind
	Trigger string // "manual" or "scheduled"
}

// Result summarizes what a run produced.
type Result struct {
	RunID           string
	ParsedRecords   int
	InvalidRecords  int
	FilteredRecords int
	DaysWritten     int
	Windows         []string
	Paths           []string
}

// Run executes one full reporting run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := p.run(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordRun(req.Trigger, status, time.Since(start).Seconds())
	return res, err
}

func (p *Pipeline) run(ctx context.Context, req Request) (*Result, error) {
	today := req.Today.Truncate(24 * time.Hour)

	fetchStart := time.Now()
	stmt, err := p.fetcher.Fetch(ctx)
	fetchSeconds := time.Since(fetchStart).Seconds()
	if err != nil {
		p.metrics.RecordFlexFetch("error", fetchSeconds)
		return nil, fmt.Errorf("fetching statement: %w", err)
	}
	p.metrics.RecordFlexFetch("ok", fetchSeconds)

	account := statementAccount(stmt)

	valid, invalid := aggregate.Partition(stmt.Trades)
	kept, filtered := p.cfg.CostBasisFilter().Apply(valid)
	p.metrics.RecordRecords(len(stmt.Trades), invalid, filtered)

	p.logger.Info("statement fetched",
		zap.Int("records", len(stmt.Trades)),
		zap.Int("invalid", invalid),
		zap.Int("filtered", filtered),
		zap.Int("positions", len(stmt.Positions)),
	)

	byDate := aggregate.GroupByDate(kept)
	// A day with no fills still gets a marker summary so downstream
	// consumers can tell "no trading" from "no report".
	if _, ok := byDate[today]; !ok {
		byDate[today] = nil
	}

	meta := report.NewMeta(time.Now().UTC())
	obfuscate := p.cfg.Report.ObfuscateAccounts
	res := &Result{
		RunID:           meta.RunID,
		ParsedRecords:   len(stmt.Trades),
		InvalidRecords:  invalid,
		FilteredRecords: filtered,
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	days := make(map[time.Time]*aggregate.DailySummary, len(dates))
	for _, date := range dates {
		summary, err := aggregate.Daily(date, byDate[date])
		if err != nil {
			return res, fmt.Errorf("summarizing %s: %w", date.Format("2006-01-02"), err)
		}
		days[date] = summary

		// Run-wide drop counts ride on the anchor day's document.
		docInvalid, docFiltered := 0, 0
		if date.Equal(today) {
			docInvalid, docFiltered = invalid, filtered
		}
		doc := report.NewDailyDocument(meta, account, summary, docInvalid, docFiltered, obfuscate)
		path := report.DailyPath(date)
		if err := p.storeDocument(ctx, path, doc, "daily"); err != nil {
			return res, err
		}
		res.DaysWritten++
		res.Paths = append(res.Paths, path)
	}

	if len(stmt.Positions) > 0 {
		doc := report.NewPositionsDocument(meta, today, stmt.Positions, obfuscate)
		path := report.PositionsPath(today)
		if err := p.storeDocument(ctx, path, doc, "positions"); err != nil {
			return res, err
		}
		res.Paths = append(res.Paths, path)
	}
	if len(stmt.Cash) > 0 {
		doc := report.NewCashDocument(meta, today, stmt.Cash, obfuscate)
		path := report.CashPath(today)
		if err := p.storeDocument(ctx, path, doc, "cash"); err != nil {
			return res, err
		}
		res.Paths = append(res.Paths, path)
	}

	due := p.dueWindows(today, req.Force)
	if len(due) == 0 {
		return res, nil
	}

	type built struct {
		id    string
		paths []string
	}
	results := make([]built, len(due))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range due {
		i, kind := i, kind
		g.Go(func() error {
			id, paths, err := p.buildWindow(gctx, meta, account, kind, today, days)
			if err != nil {
				return err
			}
			results[i] = built{id: id, paths: paths}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	for _, b := range results {
		res.Windows = append(res.Windows, b.id)
		res.Paths = append(res.Paths, b.paths...)
	}
	return res, nil
}

// Rebuild regenerates one window summary from previously archived daily
// documents, without contacting the Flex service.
func (p *Pipeline) Rebuild(ctx context.Context, kind aggregate.WindowKind, date time.Time) (*Result, error) {
	meta := report.NewMeta(time.Now().UTC())
	res := &Result{RunID: meta.RunID}

	id, paths, err := p.buildWindow(ctx, meta, "", kind, date.Truncate(24*time.Hour), nil)
	if err != nil {
		return res, err
	}
	res.Windows = append(res.Windows, id)
	res.Paths = append(res.Paths, paths...)
	return res, nil
}

func (p *Pipeline) buildWindow(ctx context.Context, meta report.Meta, account string,
	kind aggregate.WindowKind, today time.Time, runDays map[time.Time]*aggregate.DailySummary) (string, []string, error) {

	from, to := windowRange(kind, today)

	days := make([]*aggregate.DailySummary, 0, len(runDays))
	have := make(map[time.Time]bool, len(runDays))
	for date, s := range runDays {
		if date.Before(from) || date.After(to) {
			continue
		}
		days = append(days, s)
		have[date] = true
	}

	stored, err := p.loadStoredDays(ctx, from, to, have)
	if err != nil {
		return "", nil, fmt.Errorf("loading archived days: %w", err)
	}
	days = append(days, stored...)
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	w, err := aggregate.Window(kind, days)
	if err != nil {
		return "", nil, fmt.Errorf("building %s window: %w", kind, err)
	}
	w.Recommendations = p.advisor.Advise(w)
	p.metrics.RecordWindow(string(kind))

	p.logger.Info("window built",
		zap.String("kind", string(kind)),
		zap.String("id", w.ID),
		zap.Int("tradingDays", w.ActiveDays),
		zap.Float64("netPnl", w.NetPnL),
	)

	doc := report.NewWindowDocument(meta, account, w, p.cfg.Report.ObfuscateAccounts)
	path := report.WindowPath(w)
	if err := p.storeDocument(ctx, path, doc, string(kind)); err != nil {
		return "", nil, err
	}
	paths := []string{path}

	if kind == aggregate.WindowMonth && p.cfg.Report.Narrative {
		text, err := report.Narrative(doc)
		if err != nil {
			return "", nil, fmt.Errorf("rendering narrative: %w", err)
		}
		npath := report.NarrativePath(w)
		if err := p.storeBytes(ctx, npath, text, "narrative"); err != nil {
			return "", nil, err
		}
		paths = append(paths, npath)
	}

	return w.ID, paths, nil
}

func (p *Pipeline) dueWindows(today time.Time, force []aggregate.WindowKind) []aggregate.WindowKind {
	due := p.cfg.AggregateSchedule().WindowsDue(today)
	for _, kind := range force {
		found := false
		for _, d := range due {
			if d == kind {
				found = true
				break
			}
		}
		if !found {
			due = append(due, kind)
		}
	}
	return due
}

// loadStoredDays pulls archived daily summaries for dates inside [from, to]
// that this run did not produce itself. Positions and cash side-documents
// under the same prefix are skipped by filename shape.
func (p *Pipeline) loadStoredDays(ctx context.Context, from, to time.Time, have map[time.Time]bool) ([]*aggregate.DailySummary, error) {
	paths, err := p.store.List(ctx, "daily")
	if err != nil {
		return nil, err
	}

	var days []*aggregate.DailySummary
	for _, path := range paths {
		name := strings.TrimSuffix(strings.TrimPrefix(path, "daily/"), ".json")
		date, err := time.Parse("2006-01-02", name)
		if err != nil {
			continue
		}
		if date.Before(from) || date.After(to) || have[date] {
			continue
		}

		data, err := p.store.Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		var doc report.DailyDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		if doc.Summary == nil {
			continue
		}
		// The summary's records live beside it on the document.
		doc.Summary.Trades = doc.Trades
		days = append(days, doc.Summary)
	}
	return days, nil
}

func (p *Pipeline) storeDocument(ctx context.Context, path string, doc any, kind string) error {
	data, err := report.Render(doc)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return p.storeBytes(ctx, path, data, kind)
}

func (p *Pipeline) storeBytes(ctx context.Context, path string, data []byte, kind string) error {
	if err := p.store.Store(ctx, path, data); err != nil {
		p.metrics.RecordArchiveWrite("error")
		return fmt.Errorf("storing %s: %w", path, err)
	}
	p.metrics.RecordArchiveWrite("ok")
	p.metrics.RecordDocument(kind)
	p.logger.Debug("document stored", zap.String("path", path))
	return nil
}

func statementAccount(stmt *flex.Statement) string {
	if len(stmt.Accounts) > 0 {
		return stmt.Accounts[0].AccountID
	}
	if len(stmt.Trades) > 0 {
		return stmt.Trades[0].AccountID
	}
	return ""
}

// windowRange returns the inclusive day range the window anchored at date
// covers: Monday through Sunday of its ISO week, or the whole calendar month.
func windowRange(kind aggregate.WindowKind, date time.Time) (time.Time, time.Time) {
	if kind == aggregate.WindowWeek {
		offset := (int(date.Weekday()) + 6) % 7
		monday := date.AddDate(0, 0, -offset)
		return monday, monday.AddDate(0, 0, 6)
	}
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	return first, first.AddDate(0, 1, -1)
}
