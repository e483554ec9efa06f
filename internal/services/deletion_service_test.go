package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"woolreport/internal/logger"
	"woolreport/internal/metrics"
	"woolreport/internal/models"

	"gorm.io/gorm"
)

func newTestDeletionService(t *testing.T, db *gorm.DB, logWriter LogWriter) *DeletionService {
	t.Helper()

	service, err := NewDeletionService(db, logWriter, logger.Nop(), metrics.New())
	if err != nil {
		t.Fatalf("NewDeletionService: %v", err)
	}
	return service
}

// seedAuctionRows inserts an auction with 5 micron, 3 buyer, 2 broker and 10
// top-performer rows plus one insight.
func seedAuctionRows(t *testing.T, db *gorm.DB, id string) {
	t.Helper()

	insightID := id + "-insight"
	auction := models.Auction{
		ID:                   id,
		CataloguePrefix:      "CG",
		CatalogueNumber:      "07",
		Status:               models.AuctionStatusDraft,
		HasMicronPrices:      true,
		HasBuyerPerformance:  true,
		HasBrokerPerformance: true,
		HasTopPerformers:     true,
		HasMarketInsights:    true,
		MarketInsightID:      &insightID,
	}
	if err := db.Create(&auction).Error; err != nil {
		t.Fatalf("insert auction: %v", err)
	}

	for i := 0; i < 5; i++ {
		row := models.MicronPrice{ID: fmt.Sprintf("%s-mp-%d", id, i), AuctionID: id, Micron: 17 + float64(i), CertCleanZARPerKg: floatPtr(150)}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("insert micron price: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		row := models.BuyerPerformance{ID: fmt.Sprintf("%s-bp-%d", id, i), AuctionID: id, Position: i + 1, Cat: 100}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("insert buyer performance: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		row := models.BrokerPerformance{ID: fmt.Sprintf("%s-br-%d", id, i), AuctionID: id, Position: i + 1}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("insert broker performance: %v", err)
		}
	}
	for i := 0; i < 10; i++ {
		row := models.TopPerformer{ID: fmt.Sprintf("%s-tp-%d", id, i), AuctionID: id, Position: i + 1, ProducerName: "Producer"}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("insert top performer: %v", err)
		}
	}
	insight := models.MarketInsight{ID: insightID, AuctionID: id, Content: "Firm market."}
	if err := db.Create(&insight).Error; err != nil {
		t.Fatalf("insert insight: %v", err)
	}
}

func TestNewDeletionServiceNilDB(t *testing.T) {
	if _, err := NewDeletionService(nil, &stubLogWriter{}, logger.Nop(), metrics.New()); err == nil {
		t.Fatalf("NewDeletionService nil db: expected error")
	}
}

func TestDeletionPreviewCounts(t *testing.T) {
	db := openReportDB(t)
	seedAuctionRows(t, db, "auction-1")
	service := newTestDeletionService(t, db, &stubLogWriter{})

	preview, err := service.Preview(context.Background(), "auction-1")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	want := DeletionPreview{
		AuctionID:         "auction-1",
		CatalogueName:     "CG07",
		Status:            models.AuctionStatusDraft,
		MarketInsights:    1,
		TopPerformers:     10,
		BrokerPerformance: 2,
		BuyerPerformance:  3,
		MicronPrices:      5,
	}
	if preview != want {
		t.Fatalf("preview = %+v, want %+v", preview, want)
	}
}

func TestDeleteRemovesEveryDependentRow(t *testing.T) {
	db := openReportDB(t)
	seedAuctionRows(t, db, "auction-1")
	seedAuctionRows(t, db, "auction-2")
	logWriter := &stubLogWriter{}
	service := newTestDeletionService(t, db, logWriter)

	removed, err := service.Delete(context.Background(), "auction-1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed.TopPerformers != 10 || removed.MicronPrices != 5 {
		t.Fatalf("removed = %+v, want counts of the deleted report", removed)
	}

	for _, table := range []string{"market_insights", "top_performers", "broker_performance", "buyer_performance", "micron_prices"} {
		if got := countRows(t, db, table, "auction-1"); got != 0 {
			t.Fatalf("%s rows = %d, want 0", table, got)
		}
		if got := countRows(t, db, table, "auction-2"); got == 0 {
			t.Fatalf("%s rows of other auction were removed", table)
		}
	}

	var auctions int64
	if err := db.Model(&models.Auction{}).Where("id = ?", "auction-1").Count(&auctions).Error; err != nil {
		t.Fatalf("count auctions: %v", err)
	}
	if auctions != 0 {
		t.Fatalf("auction rows = %d, want 0", auctions)
	}
	if logWriter.count(LogActionReportDelete, LogOutcomeSuccess) != 1 {
		t.Fatalf("delete logs = %d, want 1", logWriter.count(LogActionReportDelete, LogOutcomeSuccess))
	}
}

func TestDeleteFailureRollsBack(t *testing.T) {
	db := openReportDB(t)
	seedAuctionRows(t, db, "auction-1")

	trigger := "CREATE TRIGGER block_top_performers BEFORE DELETE ON top_performers BEGIN SELECT RAISE(ABORT, 'blocked'); END"
	if err := db.Exec(trigger).Error; err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	logWriter := &stubLogWriter{}
	service := newTestDeletionService(t, db, logWriter)

	_, err := service.Delete(context.Background(), "auction-1")
	var cascade *CascadeError
	if !errors.As(err, &cascade) {
		t.Fatalf("Delete error = %v, want CascadeError", err)
	}
	if cascade.Table != "top_performers" {
		t.Fatalf("table = %q, want %q", cascade.Table, "top_performers")
	}

	if got := countRows(t, db, "market_insights", "auction-1"); got != 1 {
		t.Fatalf("market insights = %d, want 1 after rollback", got)
	}
	var auctions int64
	if err := db.Model(&models.Auction{}).Where("id = ?", "auction-1").Count(&auctions).Error; err != nil {
		t.Fatalf("count auctions: %v", err)
	}
	if auctions != 1 {
		t.Fatalf("auction rows = %d, want 1", auctions)
	}
	if logWriter.count(LogActionReportDelete, LogOutcomeFail) != 1 {
		t.Fatalf("delete fail logs = %d, want 1", logWriter.count(LogActionReportDelete, LogOutcomeFail))
	}
}

func TestDeleteUnknownReport(t *testing.T) {
	db := openReportDB(t)
	service := newTestDeletionService(t, db, &stubLogWriter{})

	if _, err := service.Delete(context.Background(), "missing"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("Delete error = %v, want ErrReportNotFound", err)
	}
	if _, err := service.Preview(context.Background(), "missing"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("Preview error = %v, want ErrReportNotFound", err)
	}
}

func TestDeleteSavedReport(t *testing.T) {
	db := openReportDB(t)
	reports := newTestReportService(t, db, &stubLogWriter{})
	service := newTestDeletionService(t, db, &stubLogWriter{})
	ctx := context.Background()

	saved, err := reports.SaveDraft(ctx, sampleReport())
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if _, err := service.Delete(ctx, saved.Report.Auction.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := reports.Load(ctx, saved.Report.Auction.ID); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("Load after delete error = %v, want ErrReportNotFound", err)
	}
}
