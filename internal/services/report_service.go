package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"woolreport/internal/logger"
	"woolreport/internal/metrics"
	"woolreport/internal/models"
	"woolreport/internal/report"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	saveModeCreate = "create"
	saveModeUpdate = "update"

	defaultListLimit = 50
)

// ReportService moves reports between the editable document and the
// normalized tables.
type ReportService struct {
	db         *gorm.DB
	logService LogWriter
	log        *logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

type SaveResult struct {
	Report  report.Report `json:"report"`
	Created bool          `json:"created"`
	EventID string        `json:"event_id"`
	Misses  []report.Miss `json:"misses"`
}

type ReportSummary struct {
	ID            string     `json:"id"`
	AuctionDate   string     `json:"auction_date"`
	CatalogueName string     `json:"catalogue_name"`
	SeasonID      string     `json:"season_id,omitempty"`
	Status        string     `json:"status"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type ListFilter struct {
	Status   string
	SeasonID string
	Limit    int
}

// BrokerEdit names the broker row and field a user just changed.
type BrokerEdit struct {
	Index int                `json:"broker_index"`
	Field report.BrokerField `json:"field"`
}

func NewReportService(db *gorm.DB, logService LogWriter, log *logger.Logger, m *metrics.Metrics) (*ReportService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if logService == nil {
		return nil, errors.New("log service is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	if m == nil {
		return nil, errors.New("metrics is nil")
	}

	return &ReportService{
		db:         db,
		logService: logService,
		log:        log,
		metrics:    m,
		now:        time.Now,
	}, nil
}

// SaveDraft creates the report when it has no id and otherwise replaces every
// stored row of it. All writes share one transaction.
func (s *ReportService) SaveDraft(ctx context.Context, r report.Report) (SaveResult, error) {
	if s == nil {
		return SaveResult{}, errors.New("report service is nil")
	}

	start := s.now()
	eventID := uuid.NewString()
	mode := saveModeUpdate
	if r.Auction.ID == "" {
		mode = saveModeCreate
	}
	log := s.log.With("event_id", eventID, "mode", mode)

	fail := func(err error) (SaveResult, error) {
		s.metrics.ReportSaves.WithLabelValues(mode, "fail").Inc()
		log.Error("report save failed", "auction_id", r.Auction.ID, "error", err)
		audit(ctx, s.logService, eventID, LogActionReportSave, LogOutcomeFail, "mode=%s auction=%s: %v", mode, r.Auction.ID, err)
		return SaveResult{}, err
	}

	if err := report.ValidateDraft(r); err != nil {
		return fail(err)
	}

	var auctionID string
	var created []createdReference
	var misses []report.Miss
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing *models.Auction
		if mode == saveModeUpdate {
			found, err := findAuction(tx, r.Auction.ID)
			if err != nil {
				return err
			}
			if found.Status == models.AuctionStatusArchived {
				return fmt.Errorf("%w: archived reports are read-only", ErrInvalidTransition)
			}
			existing = &found
		}

		var err error
		if created, err = createPending(tx, &r); err != nil {
			return fmt.Errorf("create references: %w", err)
		}
		snapshot, err := loadSnapshot(tx)
		if err != nil {
			return fmt.Errorf("load references: %w", err)
		}
		previous, err := previousPeriod(tx, r.Auction, snapshot)
		if err != nil {
			return err
		}

		report.Recalculate(&r, previous)
		payload, err := report.Decompose(r, report.NewResolver(snapshot))
		if err != nil {
			return fmt.Errorf("decompose report: %w", err)
		}
		misses = payload.Misses

		auction := payload.Auction
		if existing == nil {
			auction.ID = uuid.NewString()
			auction.Status = models.AuctionStatusDraft
			auction.PublishedAt = nil
			if err := tx.Create(&auction).Error; err != nil {
				return fmt.Errorf("create auction: %w", err)
			}
		} else {
			auction.Status = existing.Status
			auction.PublishedAt = existing.PublishedAt
			auction.MarketInsightID = existing.MarketInsightID
			auction.CreatedAt = existing.CreatedAt
			if err := tx.Save(&auction).Error; err != nil {
				return fmt.Errorf("update auction: %w", err)
			}
		}
		auctionID = auction.ID

		if err := writeCollections(tx, auctionID, payload, existing != nil); err != nil {
			return err
		}

		insightID, err := writeInsight(tx, auctionID, payload.Insight)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Auction{}).Where("id = ?", auctionID).
			Update("market_insight_id", insightID).Error; err != nil {
			return fmt.Errorf("link market insight: %w", err)
		}

		return nil
	})
	if err != nil {
		return fail(err)
	}

	log = log.With("auction_id", auctionID)
	for _, ref := range created {
		log.Info("reference created", "kind", ref.Kind, "id", ref.Reference.ID, "name", ref.Reference.Name)
		audit(ctx, s.logService, eventID, LogActionReferenceCreate, LogOutcomeSuccess, "kind=%s id=%s name=%s", ref.Kind, ref.Reference.ID, ref.Reference.Name)
	}
	for _, miss := range misses {
		s.metrics.ResolutionMisses.WithLabelValues(string(miss.Kind)).Inc()
		log.Warn("reference not resolved", "kind", miss.Kind, "name", miss.Name, "id", miss.ID)
		audit(ctx, s.logService, eventID, LogActionNameResolution, LogOutcomeWarn, "auction=%s kind=%s name=%q id=%q not found", auctionID, miss.Kind, miss.Name, miss.ID)
	}

	saved, err := s.Load(ctx, auctionID)
	if err != nil {
		return fail(fmt.Errorf("reload report: %w", err))
	}

	s.metrics.ReportSaves.WithLabelValues(mode, "success").Inc()
	s.metrics.SaveDuration.Observe(s.now().Sub(start).Seconds())
	log.Info("report saved", "misses", len(misses))
	audit(ctx, s.logService, eventID, LogActionReportSave, LogOutcomeSuccess, "mode=%s auction=%s catalogue=%s", mode, auctionID, saved.Auction.CatalogueName)

	if misses == nil {
		misses = []report.Miss{}
	}
	return SaveResult{Report: saved, Created: mode == saveModeCreate, EventID: eventID, Misses: misses}, nil
}

func writeCollections(tx *gorm.DB, auctionID string, payload report.Payload, replace bool) error {
	if replace {
		for _, target := range []struct {
			model any
			table string
		}{
			{&models.MicronPrice{}, "micron_prices"},
			{&models.BuyerPerformance{}, "buyer_performance"},
			{&models.BrokerPerformance{}, "broker_performance"},
			{&models.TopPerformer{}, "top_performers"},
		} {
			if err := tx.Where("auction_id = ?", auctionID).Delete(target.model).Error; err != nil {
				return fmt.Errorf("clear %s: %w", target.table, err)
			}
		}
	}

	for i := range payload.MicronPrices {
		payload.MicronPrices[i].ID = uuid.NewString()
		payload.MicronPrices[i].AuctionID = auctionID
	}
	for i := range payload.BuyerPerformance {
		payload.BuyerPerformance[i].ID = uuid.NewString()
		payload.BuyerPerformance[i].AuctionID = auctionID
	}
	for i := range payload.BrokerPerformance {
		payload.BrokerPerformance[i].ID = uuid.NewString()
		payload.BrokerPerformance[i].AuctionID = auctionID
	}
	for i := range payload.TopPerformers {
		payload.TopPerformers[i].ID = uuid.NewString()
		payload.TopPerformers[i].AuctionID = auctionID
	}

	if err := insertRows(tx, payload.MicronPrices, "micron_prices"); err != nil {
		return err
	}
	if err := insertRows(tx, payload.BuyerPerformance, "buyer_performance"); err != nil {
		return err
	}
	if err := insertRows(tx, payload.BrokerPerformance, "broker_performance"); err != nil {
		return err
	}
	return insertRows(tx, payload.TopPerformers, "top_performers")
}

func insertRows[T any](tx *gorm.DB, rows []T, table string) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// writeInsight updates, inserts or removes the auction's single insight and
// returns the id the auction should point at.
func writeInsight(tx *gorm.DB, auctionID string, insight *models.MarketInsight) (*string, error) {
	var existing []models.MarketInsight
	if err := tx.Where("auction_id = ?", auctionID).Limit(1).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("find market insight: %w", err)
	}

	if insight == nil {
		if len(existing) > 0 {
			if err := tx.Delete(&existing[0]).Error; err != nil {
				return nil, fmt.Errorf("delete market insight: %w", err)
			}
		}
		return nil, nil
	}

	if len(existing) > 0 {
		current := existing[0]
		if err := tx.Model(&current).Update("content", insight.Content).Error; err != nil {
			return nil, fmt.Errorf("update market insight: %w", err)
		}
		return &current.ID, nil
	}

	row := models.MarketInsight{ID: uuid.NewString(), AuctionID: auctionID, Content: insight.Content}
	if err := tx.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create market insight: %w", err)
	}
	return &row.ID, nil
}

// Load rebuilds the report for id. Sub-collections flagged absent on the
// auction are not queried; the rest load concurrently.
func (s *ReportService) Load(ctx context.Context, id string) (report.Report, error) {
	if s == nil {
		return report.Report{}, errors.New("report service is nil")
	}

	db := s.db.WithContext(ctx)
	auction, err := findAuction(db, id)
	if err != nil {
		return report.Report{}, err
	}

	rows := report.Rows{Auction: auction}
	var snapshot report.ReferenceSnapshot
	var insights []models.MarketInsight

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshot, err = loadSnapshot(s.db.WithContext(gctx))
		return err
	})
	if auction.HasMicronPrices {
		g.Go(func() error {
			return loadChildren(s.db.WithContext(gctx), id, "micron", &rows.MicronPrices, "micron_prices")
		})
	}
	if auction.HasBuyerPerformance {
		g.Go(func() error {
			return loadChildren(s.db.WithContext(gctx), id, "position", &rows.BuyerPerformance, "buyer_performance")
		})
	}
	if auction.HasBrokerPerformance {
		g.Go(func() error {
			return loadChildren(s.db.WithContext(gctx), id, "position", &rows.BrokerPerformance, "broker_performance")
		})
	}
	if auction.HasTopPerformers {
		g.Go(func() error {
			return loadChildren(s.db.WithContext(gctx), id, "position", &rows.TopPerformers, "top_performers")
		})
	}
	if auction.HasMarketInsights {
		g.Go(func() error {
			return loadChildren(s.db.WithContext(gctx), id, "created_at", &insights, "market_insights")
		})
	}
	if err := g.Wait(); err != nil {
		return report.Report{}, err
	}
	if len(insights) > 0 {
		rows.Insight = &insights[0]
	}

	previous, err := previousPeriod(db, report.Auction{ID: auction.ID, SeasonID: derefID(auction.SeasonID), AuctionDate: formatDate(auction.AuctionDate)}, snapshot)
	if err != nil {
		return report.Report{}, err
	}

	return report.Recompose(rows, report.NewResolver(snapshot), previous), nil
}

func loadChildren[T any](db *gorm.DB, auctionID string, order string, out *[]T, table string) error {
	if err := db.Where("auction_id = ?", auctionID).Order(order).Find(out).Error; err != nil {
		return fmt.Errorf("load %s: %w", table, err)
	}
	return nil
}

func (s *ReportService) List(ctx context.Context, filter ListFilter) ([]ReportSummary, error) {
	if s == nil {
		return nil, errors.New("report service is nil")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := s.db.WithContext(ctx).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "auction_date"}, Desc: true},
			{Column: clause.Column{Name: "created_at"}, Desc: true},
		}}).
		Limit(limit)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SeasonID != "" {
		query = query.Where("season_id = ?", filter.SeasonID)
	}

	var auctions []models.Auction
	if err := query.Find(&auctions).Error; err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}

	summaries := make([]ReportSummary, 0, len(auctions))
	for _, auction := range auctions {
		summaries = append(summaries, ReportSummary{
			ID:            auction.ID,
			AuctionDate:   formatDate(auction.AuctionDate),
			CatalogueName: report.FormatCatalogue(auction.CataloguePrefix, auction.CatalogueNumber),
			SeasonID:      derefID(auction.SeasonID),
			Status:        auction.Status,
			PublishedAt:   auction.PublishedAt,
			UpdatedAt:     auction.UpdatedAt,
		})
	}

	return summaries, nil
}

// Publish moves a saved draft to published once it passes full validation.
// published_at is written only on that first transition.
func (s *ReportService) Publish(ctx context.Context, id string) (report.Report, error) {
	if s == nil {
		return report.Report{}, errors.New("report service is nil")
	}

	r, err := s.Load(ctx, id)
	if errors.Is(err, ErrReportNotFound) {
		err = ErrNotSaved
	}
	if err != nil {
		audit(ctx, s.logService, "", LogActionReportPublish, LogOutcomeFail, "auction=%s: %v", id, err)
		return report.Report{}, err
	}

	switch r.Auction.Status {
	case models.AuctionStatusPublished:
		return r, nil
	case models.AuctionStatusArchived:
		audit(ctx, s.logService, "", LogActionReportPublish, LogOutcomeFail, "auction=%s is archived", id)
		return report.Report{}, fmt.Errorf("%w: archived to published", ErrInvalidTransition)
	}

	if err := report.ValidateForPublish(r); err != nil {
		audit(ctx, s.logService, "", LogActionReportPublish, LogOutcomeFail, "auction=%s: %v", id, err)
		return report.Report{}, err
	}

	result := s.db.WithContext(ctx).Model(&models.Auction{}).
		Where("id = ? AND status = ?", id, models.AuctionStatusDraft).
		Updates(map[string]any{
			"status":       models.AuctionStatusPublished,
			"published_at": s.now().UTC(),
		})
	if result.Error != nil {
		audit(ctx, s.logService, "", LogActionReportPublish, LogOutcomeFail, "auction=%s: %v", id, result.Error)
		return report.Report{}, fmt.Errorf("publish auction: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.metrics.ReportPublishes.Inc()
		s.log.Info("report published", "auction_id", id)
		audit(ctx, s.logService, "", LogActionReportPublish, LogOutcomeSuccess, "auction=%s catalogue=%s", id, r.Auction.CatalogueName)
	}

	return s.Load(ctx, id)
}

func (s *ReportService) Archive(ctx context.Context, id string) (report.Report, error) {
	if s == nil {
		return report.Report{}, errors.New("report service is nil")
	}

	auction, err := findAuction(s.db.WithContext(ctx), id)
	if err != nil {
		return report.Report{}, err
	}
	if auction.Status != models.AuctionStatusArchived {
		if err := s.db.WithContext(ctx).Model(&models.Auction{}).Where("id = ?", id).
			Update("status", models.AuctionStatusArchived).Error; err != nil {
			return report.Report{}, fmt.Errorf("archive auction: %w", err)
		}
		s.log.Info("report archived", "auction_id", id, "from", auction.Status)
		audit(ctx, s.logService, "", LogActionReportArchive, LogOutcomeSuccess, "auction=%s from=%s", id, auction.Status)
	}

	return s.Load(ctx, id)
}

// ArchivePublishedBefore archives every published report whose publication
// is older than cutoff.
func (s *ReportService) ArchivePublishedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	if s == nil {
		return 0, errors.New("report service is nil")
	}

	result := s.db.WithContext(ctx).Model(&models.Auction{}).
		Where("status = ? AND published_at < ?", models.AuctionStatusPublished, cutoff).
		Update("status", models.AuctionStatusArchived)
	if result.Error != nil {
		return 0, fmt.Errorf("archive published auctions: %w", result.Error)
	}

	return int(result.RowsAffected), nil
}

// Recalculate refreshes the derived fields of an unsaved report, applying the
// broker edit first when one is given.
func (s *ReportService) Recalculate(ctx context.Context, r report.Report, edit *BrokerEdit) (report.Report, error) {
	if s == nil {
		return report.Report{}, errors.New("report service is nil")
	}

	db := s.db.WithContext(ctx)
	snapshot, err := loadSnapshot(db)
	if err != nil {
		return report.Report{}, fmt.Errorf("load references: %w", err)
	}
	previous, err := previousPeriod(db, r.Auction, snapshot)
	if err != nil {
		return report.Report{}, err
	}

	if edit != nil {
		if edit.Index < 0 || edit.Index >= len(r.BrokerPerformance) {
			return report.Report{}, fmt.Errorf("broker index %d out of range", edit.Index)
		}
		row := &r.BrokerPerformance[edit.Index]
		report.ApplyBrokerEdit(row, edit.Field, previous.BrokerYTD(row.Broker))
	}

	report.Recalculate(&r, previous)
	return r, nil
}

func findAuction(db *gorm.DB, id string) (models.Auction, error) {
	if id == "" {
		return models.Auction{}, ErrReportNotFound
	}

	var auctions []models.Auction
	if err := db.Where("id = ?", id).Limit(1).Find(&auctions).Error; err != nil {
		return models.Auction{}, fmt.Errorf("find auction: %w", err)
	}
	if len(auctions) == 0 {
		return models.Auction{}, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}

	return auctions[0], nil
}

// previousPeriod loads the broker year-to-date figures of the latest earlier
// auction in the same season.
func previousPeriod(db *gorm.DB, current report.Auction, snapshot report.ReferenceSnapshot) (report.PreviousPeriod, error) {
	date, err := time.Parse(report.DateLayout, current.AuctionDate)
	if current.SeasonID == "" || err != nil {
		return report.PreviousPeriod{}, nil
	}

	query := db.Where("season_id = ? AND auction_date < ?", current.SeasonID, date).
		Order("auction_date desc").
		Limit(1)
	if current.ID != "" {
		query = query.Where("id <> ?", current.ID)
	}
	var prior []models.Auction
	if err := query.Find(&prior).Error; err != nil {
		return report.PreviousPeriod{}, fmt.Errorf("find previous auction: %w", err)
	}
	if len(prior) == 0 || !prior[0].HasBrokerPerformance {
		return report.PreviousPeriod{}, nil
	}

	var rows []models.BrokerPerformance
	if err := db.Where("auction_id = ?", prior[0].ID).Find(&rows).Error; err != nil {
		return report.PreviousPeriod{}, fmt.Errorf("load previous broker performance: %w", err)
	}

	ytd := make(map[string]int, len(rows))
	for _, row := range rows {
		if row.BrokerID == nil {
			continue
		}
		ytd[*row.BrokerID] = row.SoldYTD
	}

	return report.NewPreviousPeriod(ytd, snapshot.Brokers), nil
}

func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format(report.DateLayout)
}

func derefID(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
