package services

import (
	"context"
	"errors"
	"testing"

	"woolreport/internal/logger"
	"woolreport/internal/models"
	"woolreport/internal/report"

	"gorm.io/gorm"
)

func newTestReferenceService(t *testing.T, db *gorm.DB, logWriter LogWriter) *ReferenceService {
	t.Helper()

	service, err := NewReferenceService(db, logWriter, logger.Nop())
	if err != nil {
		t.Fatalf("NewReferenceService: %v", err)
	}
	return service
}

func TestNewReferenceServiceNilDB(t *testing.T) {
	if _, err := NewReferenceService(nil, &stubLogWriter{}, logger.Nop()); err == nil {
		t.Fatalf("NewReferenceService nil db: expected error")
	}
}

func TestReferenceServiceSnapshot(t *testing.T) {
	db := openReportDB(t)
	service := newTestReferenceService(t, db, &stubLogWriter{})

	snapshot, err := service.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snapshot.Buyers) != 2 || len(snapshot.Brokers) != 2 || len(snapshot.Provinces) != 2 {
		t.Fatalf("snapshot sizes = %d/%d/%d, want 2/2/2", len(snapshot.Buyers), len(snapshot.Brokers), len(snapshot.Provinces))
	}
	if len(snapshot.Certifications) != 1 || snapshot.Certifications[0].Name != "RWS" {
		t.Fatalf("certifications = %+v, want RWS code", snapshot.Certifications)
	}
	if snapshot.Buyers[0].Name != "BKB" {
		t.Fatalf("first buyer = %q, want %q", snapshot.Buyers[0].Name, "BKB")
	}
}

func TestReferenceServiceList(t *testing.T) {
	db := openReportDB(t)
	service := newTestReferenceService(t, db, &stubLogWriter{})

	seasons, err := service.List(context.Background(), "season")
	if err != nil {
		t.Fatalf("List seasons: %v", err)
	}
	if len(seasons) != 1 || seasons[0].ID != "season-2526" || seasons[0].Name != "2025/26" {
		t.Fatalf("seasons = %+v", seasons)
	}

	if _, err := service.List(context.Background(), "colour"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("List unknown kind error = %v, want ErrUnknownKind", err)
	}
}

func TestReferenceServiceCreate(t *testing.T) {
	db := openReportDB(t)
	logWriter := &stubLogWriter{}
	service := newTestReferenceService(t, db, logWriter)
	ctx := context.Background()

	created, err := service.Create(ctx, "broker", "  Van Wyk   Wool ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.Name != "Van Wyk Wool" {
		t.Fatalf("created = %+v, want trimmed name and id", created)
	}

	again, err := service.Create(ctx, "broker", "van wyk wool")
	if err != nil {
		t.Fatalf("Create duplicate: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("duplicate id = %q, want %q", again.ID, created.ID)
	}

	var count int64
	if err := db.Model(&models.Broker{}).Count(&count).Error; err != nil {
		t.Fatalf("count brokers: %v", err)
	}
	if count != 3 {
		t.Fatalf("brokers = %d, want 3", count)
	}
	if logWriter.count(LogActionReferenceCreate, LogOutcomeSuccess) != 1 {
		t.Fatalf("create logs = %d, want 1", logWriter.count(LogActionReferenceCreate, LogOutcomeSuccess))
	}

	cert, err := service.Create(ctx, string(report.KindCertification), "sawis")
	if err != nil {
		t.Fatalf("Create certification: %v", err)
	}
	if cert.Name != "SAWIS" {
		t.Fatalf("certification code = %q, want %q", cert.Name, "SAWIS")
	}

	if _, err := service.Create(ctx, "buyer", "   "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("Create blank error = %v, want ErrEmptyName", err)
	}
}
