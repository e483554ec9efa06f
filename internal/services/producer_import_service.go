package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"woolreport/internal/logger"
	"woolreport/internal/metrics"
	"woolreport/internal/report"

	"github.com/xuri/excelize/v2"
)

type producerColumn int

const (
	columnProvince producerColumn = iota
	columnName
	columnDistrict
	columnNumber
	columnBales
	columnDescription
	columnMicron
	columnPrice
	columnCertification
	columnCount
)

// headerKeywords maps a normalized header cell to its column. Cells are
// matched by prefix so "Price (c/kg)" and "Bales Sold" are found.
var headerKeywords = []struct {
	prefix string
	column producerColumn
}{
	{"province", columnProvince},
	{"region", columnProvince},
	{"producer no", columnNumber},
	{"producer number", columnNumber},
	{"number", columnNumber},
	{"no", columnNumber},
	{"producer", columnName},
	{"name", columnName},
	{"district", columnDistrict},
	{"town", columnDistrict},
	{"bales", columnBales},
	{"description", columnDescription},
	{"desc", columnDescription},
	{"micron", columnMicron},
	{"mic", columnMicron},
	{"price", columnPrice},
	{"c/kg", columnPrice},
	{"certification", columnCertification},
	{"cert", columnCertification},
	{"rws", columnCertification},
}

// ProducerImportService reads top-performer sheets exported by the brokers
// and groups them by province.
type ProducerImportService struct {
	logService LogWriter
	log        *logger.Logger
	metrics    *metrics.Metrics
}

func NewProducerImportService(logService LogWriter, log *logger.Logger, m *metrics.Metrics) (*ProducerImportService, error) {
	if logService == nil {
		return nil, errors.New("log service is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	if m == nil {
		return nil, errors.New("metrics is nil")
	}

	return &ProducerImportService{logService: logService, log: log, metrics: m}, nil
}

// Import parses a CSV or XLSX file into province groups in the order each
// province first appears. Province spellings are normalized.
func (s *ProducerImportService) Import(ctx context.Context, filename string, data []byte) ([]report.ProvinceGroup, error) {
	if s == nil {
		return nil, errors.New("producer import service is nil")
	}

	groups, count, err := parseProducerFile(filename, data)
	if err != nil {
		s.log.Warn("producer import failed", "file", filename, "error", err)
		audit(ctx, s.logService, "", LogActionProducerImport, LogOutcomeFail, "file=%s: %v", filename, err)
		return nil, err
	}

	s.metrics.ProducersImported.Add(float64(count))
	s.log.Info("producers imported", "file", filename, "producers", count, "provinces", len(groups))
	audit(ctx, s.logService, "", LogActionProducerImport, LogOutcomeSuccess, "file=%s producers=%d provinces=%d", filename, count, len(groups))
	return groups, nil
}

func parseProducerFile(filename string, data []byte) ([]report.ProvinceGroup, int, error) {
	if len(data) == 0 {
		return nil, 0, errors.New("import file is empty")
	}

	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSVRows(data)
	case ".xlsx":
		rows, err = readXlsxRows(data)
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnsupportedFile, filename)
	}
	if err != nil {
		return nil, 0, err
	}

	headerIndex, columns, err := findProducerHeader(rows)
	if err != nil {
		return nil, 0, err
	}

	return groupProducers(rows[headerIndex+1:], columns)
}

func readCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if first := firstLine(data); strings.Count(first, ";") > strings.Count(first, ",") {
		reader.Comma = ';'
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}

	return rows, nil
}

func firstLine(data []byte) string {
	if idx := bytes.IndexByte(data, '\n'); idx != -1 {
		return string(data[:idx])
	}
	return string(data)
}

// readXlsxRows returns the rows of the first sheet that has a producer
// header, or of the first sheet when none has.
func readXlsxRows(data []byte) ([][]string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = workbook.Close()
	}()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	var firstRows [][]string
	for i, sheet := range sheets {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for %s: %w", sheet, err)
		}
		if i == 0 {
			firstRows = rows
		}
		if _, _, err := findProducerHeader(rows); err == nil {
			return rows, nil
		}
	}

	return firstRows, nil
}

func findProducerHeader(rows [][]string) (int, [columnCount]int, error) {
	for index, row := range rows {
		columns := [columnCount]int{}
		for i := range columns {
			columns[i] = -1
		}
		for i, cell := range row {
			column, ok := matchHeader(cell)
			if ok && columns[column] == -1 {
				columns[column] = i
			}
		}
		if columns[columnProvince] != -1 && columns[columnName] != -1 {
			return index, columns, nil
		}
	}

	return 0, [columnCount]int{}, errors.New("header row with province and producer columns not found")
}

func matchHeader(cell string) (producerColumn, bool) {
	normalized := strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(cell, ".", " ")), " "))
	if normalized == "" {
		return 0, false
	}
	for _, keyword := range headerKeywords {
		if normalized == keyword.prefix || strings.HasPrefix(normalized, keyword.prefix+" ") ||
			(len(keyword.prefix) > 3 && strings.HasPrefix(normalized, keyword.prefix)) {
			return keyword.column, true
		}
	}
	return 0, false
}

func groupProducers(rows [][]string, columns [columnCount]int) ([]report.ProvinceGroup, int, error) {
	groups := make([]report.ProvinceGroup, 0)
	index := make(map[string]int)
	count := 0

	for lineNo, row := range rows {
		cell := func(column producerColumn) string {
			i := columns[column]
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		province := report.CanonicalProvince(cell(columnProvince))
		name := cell(columnName)
		if province == "" && name == "" {
			continue
		}
		if province == "" {
			return nil, 0, fmt.Errorf("row %d: province is empty", lineNo+1)
		}
		if name == "" {
			return nil, 0, fmt.Errorf("row %d: producer name is empty", lineNo+1)
		}

		bales, err := parseImportInt(cell(columnBales))
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", lineNo+1, err)
		}
		micron, err := parseImportFloat(cell(columnMicron))
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", lineNo+1, err)
		}
		price, err := parseImportFloat(cell(columnPrice))
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", lineNo+1, err)
		}

		key := report.NormalizeName(province)
		groupIndex, ok := index[key]
		if !ok {
			groupIndex = len(groups)
			index[key] = groupIndex
			groups = append(groups, report.ProvinceGroup{Province: report.Named(province), Producers: []report.Producer{}})
		}
		group := &groups[groupIndex]
		group.Producers = append(group.Producers, report.Producer{
			Position:        len(group.Producers) + 1,
			Name:            name,
			District:        cell(columnDistrict),
			ProducerNumber:  cell(columnNumber),
			Bales:           bales,
			Description:     cell(columnDescription),
			Micron:          micron,
			PriceCentsPerKg: price,
			Certification:   certificationFlag(cell(columnCertification)),
		})
		count++
	}

	if count == 0 {
		return nil, 0, errors.New("no producer rows found after header")
	}

	return groups, count, nil
}

// certificationFlag maps the sheet's certification cell to a code. Truthy
// flags mean RWS.
func certificationFlag(value string) string {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "RWS", "Y", "YES", "TRUE", "1", "X":
		return report.CertificationRWS
	case "", "N", "NO", "FALSE", "0", "-":
		return ""
	default:
		return strings.ToUpper(strings.TrimSpace(value))
	}
}

func cleanNumber(value string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	cleaned = strings.ReplaceAll(cleaned, "\u00a0", "")
	// A lone comma followed by three digits groups thousands ("20,100").
	// Any other lone comma is a decimal comma ("18,4").
	comma := strings.LastIndex(cleaned, ",")
	if strings.Count(cleaned, ",") == 1 && !strings.Contains(cleaned, ".") && len(cleaned)-comma-1 != 3 {
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	return cleaned
}

func parseImportInt(value string) (int, error) {
	cleaned := strings.NewReplacer(" ", "", "\u00a0", "", ",", "").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("parse int %q: %w", value, err)
	}
	return parsed, nil
}

func parseImportFloat(value string) (float64, error) {
	cleaned := cleanNumber(value)
	if cleaned == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", value, err)
	}
	return parsed, nil
}
