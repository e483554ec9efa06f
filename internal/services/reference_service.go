package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"woolreport/internal/logger"
	"woolreport/internal/models"
	"woolreport/internal/report"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReferenceKindCommodityType = "commodity_type"
	ReferenceKindSeason        = "season"
)

type referenceTable struct {
	table      string
	nameColumn string
}

var referenceTables = map[string]referenceTable{
	string(report.KindBuyer):         {table: "buyers", nameColumn: "name"},
	string(report.KindBroker):        {table: "brokers", nameColumn: "name"},
	string(report.KindProvince):      {table: "provinces", nameColumn: "name"},
	string(report.KindCertification): {table: "certifications", nameColumn: "code"},
	ReferenceKindCommodityType:       {table: "commodity_types", nameColumn: "name"},
	ReferenceKindSeason:              {table: "seasons", nameColumn: "name"},
}

// ReferenceService reads and extends the lookup tables behind the report
// dropdowns.
type ReferenceService struct {
	db         *gorm.DB
	logService LogWriter
	log        *logger.Logger
}

func NewReferenceService(db *gorm.DB, logService LogWriter, log *logger.Logger) (*ReferenceService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if logService == nil {
		return nil, errors.New("log service is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}

	return &ReferenceService{db: db, logService: logService, log: log}, nil
}

func (s *ReferenceService) Snapshot(ctx context.Context) (report.ReferenceSnapshot, error) {
	if s == nil {
		return report.ReferenceSnapshot{}, errors.New("reference service is nil")
	}

	return loadSnapshot(s.db.WithContext(ctx))
}

func (s *ReferenceService) List(ctx context.Context, kind string) ([]report.Reference, error) {
	if s == nil {
		return nil, errors.New("reference service is nil")
	}

	return listReferences(s.db.WithContext(ctx), kind)
}

// Create backs the "+Add New" option. A name that already exists after
// normalization returns the existing row instead of a duplicate.
func (s *ReferenceService) Create(ctx context.Context, kind string, name string) (report.Reference, error) {
	if s == nil {
		return report.Reference{}, errors.New("reference service is nil")
	}

	var ref report.Reference
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		ref, created, err = ensureReference(tx, kind, name)
		return err
	})
	if err != nil {
		return report.Reference{}, err
	}

	if created {
		s.log.Info("reference created", "kind", kind, "id", ref.ID, "name", ref.Name)
		audit(ctx, s.logService, "", LogActionReferenceCreate, LogOutcomeSuccess, "kind=%s id=%s name=%s", kind, ref.ID, ref.Name)
	}

	return ref, nil
}

func lookupTable(kind string) (referenceTable, error) {
	table, ok := referenceTables[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return referenceTable{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return table, nil
}

func listReferences(db *gorm.DB, kind string) ([]report.Reference, error) {
	table, err := lookupTable(kind)
	if err != nil {
		return nil, err
	}

	refs := []report.Reference{}
	if err := db.Table(table.table).
		Select("id, " + table.nameColumn + " AS name").
		Order(table.nameColumn).
		Scan(&refs).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", table.table, err)
	}

	return refs, nil
}

// loadSnapshot reads every resolvable reference table once.
func loadSnapshot(db *gorm.DB) (report.ReferenceSnapshot, error) {
	var snapshot report.ReferenceSnapshot
	var err error

	if snapshot.Buyers, err = listReferences(db, string(report.KindBuyer)); err != nil {
		return report.ReferenceSnapshot{}, err
	}
	if snapshot.Brokers, err = listReferences(db, string(report.KindBroker)); err != nil {
		return report.ReferenceSnapshot{}, err
	}
	if snapshot.Provinces, err = listReferences(db, string(report.KindProvince)); err != nil {
		return report.ReferenceSnapshot{}, err
	}
	if snapshot.Certifications, err = listReferences(db, string(report.KindCertification)); err != nil {
		return report.ReferenceSnapshot{}, err
	}

	return snapshot, nil
}

func ensureReference(tx *gorm.DB, kind string, name string) (report.Reference, bool, error) {
	table, err := lookupTable(kind)
	if err != nil {
		return report.Reference{}, false, err
	}
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return report.Reference{}, false, ErrEmptyName
	}

	existing, err := listReferences(tx, kind)
	if err != nil {
		return report.Reference{}, false, err
	}
	key := report.NormalizeName(name)
	for _, ref := range existing {
		if report.NormalizeName(ref.Name) == key {
			return ref, false, nil
		}
	}

	ref := report.Reference{ID: uuid.NewString(), Name: name}
	if table.table == "certifications" {
		ref.Name = strings.ToUpper(name)
		err = tx.Create(&models.Certification{ID: ref.ID, Code: ref.Name, Name: name}).Error
	} else {
		err = tx.Table(table.table).Create(map[string]any{"id": ref.ID, "name": ref.Name}).Error
	}
	if err != nil {
		return report.Reference{}, false, fmt.Errorf("create %s: %w", table.table, err)
	}

	return ref, true, nil
}

// createPending turns every named "+Add New" selection of r into an existing
// reference. Selections without a name are left for validation to reject.
func createPending(tx *gorm.DB, r *report.Report) ([]createdReference, error) {
	var created []createdReference
	resolve := func(kind report.Kind, sel *report.Selection) error {
		if !sel.Pending() || strings.TrimSpace(sel.Name) == "" {
			return nil
		}
		ref, isNew, err := ensureReference(tx, string(kind), sel.Name)
		if err != nil {
			return err
		}
		if isNew {
			created = append(created, createdReference{Kind: kind, Reference: ref})
		}
		*sel = report.Existing(ref.ID, ref.Name)
		return nil
	}

	for i := range r.BuyerPerformance {
		if err := resolve(report.KindBuyer, &r.BuyerPerformance[i].Buyer); err != nil {
			return nil, err
		}
	}
	for i := range r.BrokerPerformance {
		if err := resolve(report.KindBroker, &r.BrokerPerformance[i].Broker); err != nil {
			return nil, err
		}
	}
	for i := range r.TopPerformers {
		if err := resolve(report.KindProvince, &r.TopPerformers[i].Province); err != nil {
			return nil, err
		}
	}

	return created, nil
}

type createdReference struct {
	Kind      report.Kind
	Reference report.Reference
}
