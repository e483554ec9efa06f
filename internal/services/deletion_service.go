package services

import (
	"context"
	"errors"
	"fmt"

	"woolreport/internal/logger"
	"woolreport/internal/metrics"
	"woolreport/internal/models"
	"woolreport/internal/report"

	"gorm.io/gorm"
)

// DeletionPreview is what a user confirms before a report is removed.
type DeletionPreview struct {
	AuctionID         string `json:"auction_id"`
	CatalogueName     string `json:"catalogue_name"`
	AuctionDate       string `json:"auction_date"`
	Status            string `json:"status"`
	MarketInsights    int64  `json:"market_insights"`
	TopPerformers     int64  `json:"top_performers"`
	BrokerPerformance int64  `json:"broker_performance"`
	BuyerPerformance  int64  `json:"buyer_performance"`
	MicronPrices      int64  `json:"micron_prices"`
}

type dependentTable struct {
	table string
	model func() any
	count func(*DeletionPreview) *int64
}

// dependentTables is in delete order. The auction row goes last.
var dependentTables = []dependentTable{
	{table: "market_insights", model: func() any { return &models.MarketInsight{} }, count: func(p *DeletionPreview) *int64 { return &p.MarketInsights }},
	{table: "top_performers", model: func() any { return &models.TopPerformer{} }, count: func(p *DeletionPreview) *int64 { return &p.TopPerformers }},
	{table: "broker_performance", model: func() any { return &models.BrokerPerformance{} }, count: func(p *DeletionPreview) *int64 { return &p.BrokerPerformance }},
	{table: "buyer_performance", model: func() any { return &models.BuyerPerformance{} }, count: func(p *DeletionPreview) *int64 { return &p.BuyerPerformance }},
	{table: "micron_prices", model: func() any { return &models.MicronPrice{} }, count: func(p *DeletionPreview) *int64 { return &p.MicronPrices }},
}

type DeletionService struct {
	db         *gorm.DB
	logService LogWriter
	log        *logger.Logger
	metrics    *metrics.Metrics
}

func NewDeletionService(db *gorm.DB, logService LogWriter, log *logger.Logger, m *metrics.Metrics) (*DeletionService, error) {
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

	return &DeletionService{db: db, logService: logService, log: log, metrics: m}, nil
}

func (s *DeletionService) Preview(ctx context.Context, id string) (DeletionPreview, error) {
	if s == nil {
		return DeletionPreview{}, errors.New("deletion service is nil")
	}

	return preview(s.db.WithContext(ctx), id)
}

// Delete removes the report and every dependent row in one transaction. When
// a dependent delete fails the whole delete is rolled back and a
// *CascadeError naming the table is returned.
func (s *DeletionService) Delete(ctx context.Context, id string) (DeletionPreview, error) {
	if s == nil {
		return DeletionPreview{}, errors.New("deletion service is nil")
	}

	var removed DeletionPreview
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if removed, err = preview(tx, id); err != nil {
			return err
		}

		for _, dep := range dependentTables {
			if err := tx.Where("auction_id = ?", id).Delete(dep.model()).Error; err != nil {
				return &CascadeError{Table: dep.table, Err: err}
			}
		}
		if err := tx.Where("id = ?", id).Delete(&models.Auction{}).Error; err != nil {
			return &CascadeError{Table: "auctions", Err: err}
		}

		return nil
	})
	if err != nil {
		s.metrics.ReportDeletes.WithLabelValues("fail").Inc()
		s.log.Error("report delete failed", "auction_id", id, "error", err)
		audit(ctx, s.logService, "", LogActionReportDelete, LogOutcomeFail, "auction=%s: %v", id, err)
		return DeletionPreview{}, err
	}

	s.metrics.ReportDeletes.WithLabelValues("success").Inc()
	s.log.Info("report deleted", "auction_id", id, "catalogue", removed.CatalogueName)
	audit(ctx, s.logService, "", LogActionReportDelete, LogOutcomeSuccess,
		"auction=%s catalogue=%s insights=%d top_performers=%d brokers=%d buyers=%d micron_prices=%d",
		id, removed.CatalogueName, removed.MarketInsights, removed.TopPerformers,
		removed.BrokerPerformance, removed.BuyerPerformance, removed.MicronPrices)

	return removed, nil
}

func preview(db *gorm.DB, id string) (DeletionPreview, error) {
	auction, err := findAuction(db, id)
	if err != nil {
		return DeletionPreview{}, err
	}

	result := DeletionPreview{
		AuctionID:     auction.ID,
		CatalogueName: report.FormatCatalogue(auction.CataloguePrefix, auction.CatalogueNumber),
		AuctionDate:   formatDate(auction.AuctionDate),
		Status:        auction.Status,
	}
	for _, dep := range dependentTables {
		if err := db.Model(dep.model()).Where("auction_id = ?", id).Count(dep.count(&result)).Error; err != nil {
			return DeletionPreview{}, fmt.Errorf("count %s: %w", dep.table, err)
		}
	}

	return result, nil
}
