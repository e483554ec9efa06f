package services

import (
	"context"
	"testing"

	"woolreport/internal/logger"
	"woolreport/internal/metrics"
	"woolreport/internal/report"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type loggedEntry struct {
	eventID *string
	action  string
	outcome string
	message *string
}

type stubLogWriter struct {
	entries []loggedEntry
}

func (s *stubLogWriter) CreateLog(ctx context.Context, eventID *string, action string, outcome string, message *string) error {
	var copied *string
	if message != nil {
		value := *message
		copied = &value
	}

	s.entries = append(s.entries, loggedEntry{
		eventID: eventID,
		action:  action,
		outcome: outcome,
		message: copied,
	})
	return nil
}

func (s *stubLogWriter) count(action string, outcome string) int {
	n := 0
	for _, entry := range s.entries {
		if entry.action == action && entry.outcome == outcome {
			n++
		}
	}
	return n
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	return db
}

var schema = []string{
	"CREATE TABLE buyers (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE)",
	"CREATE TABLE brokers (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE)",
	"CREATE TABLE provinces (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE)",
	"CREATE TABLE certifications (id TEXT PRIMARY KEY, code TEXT NOT NULL UNIQUE, name TEXT NOT NULL)",
	"CREATE TABLE commodity_types (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE)",
	"CREATE TABLE seasons (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE)",
	`CREATE TABLE auctions (
		id TEXT PRIMARY KEY,
		auction_date DATE,
		catalogue_prefix TEXT NOT NULL,
		catalogue_number TEXT NOT NULL,
		commodity_type_id TEXT,
		season_id TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		published_at DATETIME,
		offered_bales INTEGER NOT NULL DEFAULT 0,
		sold_bales INTEGER NOT NULL DEFAULT 0,
		clearance_rate_pct REAL NOT NULL DEFAULT 0,
		highest_price_cents_per_kg REAL NOT NULL DEFAULT 0,
		highest_price_micron REAL,
		highest_price_producer TEXT,
		highest_price_broker TEXT,
		highest_price_bales INTEGER NOT NULL DEFAULT 0,
		certified_offered_pct REAL NOT NULL DEFAULT 0,
		certified_sold_pct REAL NOT NULL DEFAULT 0,
		greasy_turnover_zar REAL NOT NULL DEFAULT 0,
		greasy_volume_kg REAL NOT NULL DEFAULT 0,
		greasy_avg_price_zar_per_kg REAL NOT NULL DEFAULT 0,
		merino_indicator_sa_cents REAL NOT NULL DEFAULT 0,
		merino_indicator_us_cents REAL NOT NULL DEFAULT 0,
		merino_indicator_euro_cents REAL NOT NULL DEFAULT 0,
		certified_indicator_sa_cents REAL NOT NULL DEFAULT 0,
		awex_emi_au_cents REAL NOT NULL DEFAULT 0,
		indicator_change_pct REAL NOT NULL DEFAULT 0,
		indicators_auto_filled BOOLEAN NOT NULL DEFAULT 0,
		zar_per_usd REAL NOT NULL DEFAULT 0,
		zar_per_eur REAL NOT NULL DEFAULT 0,
		zar_per_aud REAL NOT NULL DEFAULT 0,
		has_micron_prices BOOLEAN NOT NULL DEFAULT 0,
		has_buyer_performance BOOLEAN NOT NULL DEFAULT 0,
		has_broker_performance BOOLEAN NOT NULL DEFAULT 0,
		has_top_performers BOOLEAN NOT NULL DEFAULT 0,
		has_market_insights BOOLEAN NOT NULL DEFAULT 0,
		market_insight_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE micron_prices (
		id TEXT PRIMARY KEY,
		auction_id TEXT NOT NULL,
		micron REAL NOT NULL,
		non_cert_clean_zar_per_kg REAL,
		cert_clean_zar_per_kg REAL,
		pct_difference REAL
	)`,
	`CREATE TABLE buyer_performance (
		id TEXT PRIMARY KEY,
		auction_id TEXT NOT NULL,
		buyer_id TEXT,
		position INTEGER NOT NULL,
		cat INTEGER NOT NULL,
		share_pct REAL NOT NULL
	)`,
	`CREATE TABLE broker_performance (
		id TEXT PRIMARY KEY,
		auction_id TEXT NOT NULL,
		broker_id TEXT,
		position INTEGER NOT NULL,
		catalogue_offering INTEGER NOT NULL,
		withdrawn_before_sale INTEGER NOT NULL,
		wool_offered INTEGER NOT NULL,
		not_sold INTEGER NOT NULL,
		sold INTEGER NOT NULL,
		sold_overridden BOOLEAN NOT NULL DEFAULT 0,
		sold_pct REAL NOT NULL,
		sold_ytd INTEGER NOT NULL
	)`,
	`CREATE TABLE top_performers (
		id TEXT PRIMARY KEY,
		auction_id TEXT NOT NULL,
		province_id TEXT,
		certification_id TEXT,
		position INTEGER NOT NULL,
		producer_name TEXT NOT NULL,
		district TEXT NOT NULL,
		producer_number TEXT NOT NULL,
		bales INTEGER NOT NULL,
		description TEXT NOT NULL,
		micron REAL NOT NULL,
		price_cents_per_kg REAL NOT NULL
	)`,
	`CREATE TABLE market_insights (
		id TEXT PRIMARY KEY,
		auction_id TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

var referenceRows = []string{
	"INSERT INTO buyers (id, name) VALUES ('buyer-bkb', 'BKB'), ('buyer-std', 'Standard Wool')",
	"INSERT INTO brokers (id, name) VALUES ('broker-cw', 'Cape Wools'), ('broker-bkb', 'BKB Brokers')",
	"INSERT INTO provinces (id, name) VALUES ('prov-ec', 'Eastern Cape'), ('prov-fs', 'Free State')",
	"INSERT INTO certifications (id, code, name) VALUES ('cert-rws', 'RWS', 'Responsible Wool Standard')",
	"INSERT INTO commodity_types (id, name) VALUES ('ct-merino', 'Merino')",
	"INSERT INTO seasons (id, name) VALUES ('season-2526', '2025/26')",
}

// openReportDB returns a database with the report schema and a small set of
// reference rows.
func openReportDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := openTestDB(t)
	for _, query := range append(append([]string{}, schema...), referenceRows...) {
		if err := db.Exec(query).Error; err != nil {
			t.Fatalf("prepare schema: %v", err)
		}
	}

	return db
}

func countRows(t *testing.T, db *gorm.DB, table string, auctionID string) int64 {
	t.Helper()

	var count int64
	if err := db.Table(table).Where("auction_id = ?", auctionID).Count(&count).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func newTestReportService(t *testing.T, db *gorm.DB, logWriter LogWriter) *ReportService {
	t.Helper()

	service, err := NewReportService(db, logWriter, logger.Nop(), metrics.New())
	if err != nil {
		t.Fatalf("NewReportService: %v", err)
	}
	return service
}

func floatPtr(value float64) *float64 {
	return &value
}

// sampleReport is a complete report that passes publish validation.
func sampleReport() report.Report {
	r := report.Empty()
	r.Auction = report.Auction{
		AuctionDate:     "2025-09-10",
		CatalogueName:   "CG01",
		CommodityTypeID: "ct-merino",
		SeasonID:        "season-2526",
	}
	r.Supply = report.Supply{OfferedBales: 6507, SoldBales: 6084}
	r.HighestPrice = report.HighestPrice{CentsPerKg: 21500, Micron: floatPtr(16.2), Producer: "Karoo Farm", Broker: "Cape Wools", Bales: 4}
	r.CertifiedShare = report.CertifiedShare{OfferedPct: 41.2, SoldPct: 39.8}
	r.Greasy = report.GreasyStats{TurnoverZAR: 98500000, VolumeKg: 1020000, AvgPriceZARPerKg: 96.57}
	r.MarketIndices = report.MarketIndices{MerinoSACents: 18250, MerinoUSCents: 1040, MerinoEuroCents: 890, CertifiedSACents: 18700, AwexEMIAUCents: 1560, ChangePct: 1.2}
	r.CurrencyRates = report.CurrencyRates{ZARPerUSD: 17.55, ZARPerEUR: 20.51, ZARPerAUD: 11.62}
	r.MicronPrices = []report.MicronPriceRow{
		{Micron: 18.5, NonCertCleanZARPerKg: floatPtr(150), CertCleanZARPerKg: floatPtr(165)},
		{Micron: 21, CertCleanZARPerKg: floatPtr(160)},
		{Micron: 22},
	}
	r.BuyerPerformance = []report.BuyerRow{
		{Buyer: report.Named("BKB"), Cat: 1200},
		{Buyer: report.Named("standard  wool"), Cat: 800},
	}
	r.BrokerPerformance = []report.BrokerRow{
		{Broker: report.Named("Cape Wools"), CatalogueOffering: 1000, WithdrawnBeforeSale: 50, NotSold: 100},
	}
	r.TopPerformers = []report.ProvinceGroup{
		{
			Province: report.Named("Free State"),
			Producers: []report.Producer{
				{Name: "Karoo Farm", District: "Bethulie", ProducerNumber: "P100", Bales: 12, Description: "AAA", Micron: 17.8, PriceCentsPerKg: 20100, Certification: "RWS"},
				{Name: "Vlakte Trust", District: "Smithfield", ProducerNumber: "P200", Bales: 9, Description: "AA", Micron: 18.4, PriceCentsPerKg: 19600},
			},
		},
	}
	r.Insights = "Prices firmed across the merino range."
	return r
}
