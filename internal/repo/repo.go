package repo

import (
	"errors"
	"fmt"
	"strings"

	"woolreport/internal/config"
	"woolreport/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultReferenceSeedPath = "reference_seed.json"

func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return db, nil
}

// Migrate creates the schema and seeds reference tables that are still
// empty from the seed file at seedPath.
func Migrate(db *gorm.DB, seedPath string) error {
	if db == nil {
		return errors.New("db is nil")
	}

	if err := db.AutoMigrate(
		&models.Log{},
		&models.Buyer{},
		&models.Broker{},
		&models.Province{},
		&models.Certification{},
		&models.CommodityType{},
		&models.Season{},
		&models.Auction{},
		&models.MicronPrice{},
		&models.BuyerPerformance{},
		&models.BrokerPerformance{},
		&models.TopPerformer{},
		&models.MarketInsight{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if seedPath == "" {
		seedPath = DefaultReferenceSeedPath
	}
	seed, err := config.LoadReferenceSeed(seedPath)
	if err != nil {
		return fmt.Errorf("load reference seed: %w", err)
	}
	if err := ensureReferenceSeed(db, seed); err != nil {
		return fmt.Errorf("ensure reference seed: %w", err)
	}

	return nil
}

func ensureReferenceSeed(db *gorm.DB, seed config.ReferenceSeed) error {
	if db == nil {
		return errors.New("db is nil")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		provinces := make([]models.Province, 0, len(seed.Provinces))
		for _, name := range uniqueNames(seed.Provinces) {
			provinces = append(provinces, models.Province{ID: uuid.NewString(), Name: name})
		}
		if err := seedTable(tx, &models.Province{}, provinces, "provinces"); err != nil {
			return err
		}

		certifications := make([]models.Certification, 0, len(seed.Certifications))
		seen := make(map[string]bool, len(seed.Certifications))
		for _, cert := range seed.Certifications {
			code := strings.ToUpper(strings.TrimSpace(cert.Code))
			if seen[code] {
				continue
			}
			seen[code] = true
			name := strings.TrimSpace(cert.Name)
			if name == "" {
				name = code
			}
			certifications = append(certifications, models.Certification{ID: uuid.NewString(), Code: code, Name: name})
		}
		if err := seedTable(tx, &models.Certification{}, certifications, "certifications"); err != nil {
			return err
		}

		commodityTypes := make([]models.CommodityType, 0, len(seed.CommodityTypes))
		for _, name := range uniqueNames(seed.CommodityTypes) {
			commodityTypes = append(commodityTypes, models.CommodityType{ID: uuid.NewString(), Name: name})
		}
		if err := seedTable(tx, &models.CommodityType{}, commodityTypes, "commodity types"); err != nil {
			return err
		}

		seasons := make([]models.Season, 0, len(seed.Seasons))
		for _, name := range uniqueNames(seed.Seasons) {
			seasons = append(seasons, models.Season{ID: uuid.NewString(), Name: name})
		}
		return seedTable(tx, &models.Season{}, seasons, "seasons")
	})
}

func seedTable[T any](tx *gorm.DB, model any, rows []T, label string) error {
	var count int64
	if err := tx.Model(model).Count(&count).Error; err != nil {
		return fmt.Errorf("count %s: %w", label, err)
	}
	if count > 0 || len(rows) == 0 {
		return nil
	}

	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("create %s: %w", label, err)
	}

	return nil
}

func uniqueNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		key := strings.ToLower(trimmed)
		if trimmed == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
	}

	return out
}
