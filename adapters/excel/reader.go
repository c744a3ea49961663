package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"convtest/domain/conversion"
	"convtest/domain/core"
	"convtest/internal"

	"github.com/xuri/excelize/v2"
)

// Accepted header names per column, compared case-insensitively
var (
	nameHeaders    = []string{"variant", "name", "group"}
	trialsHeaders  = []string{"trials", "visitors", "n"}
	successHeaders = []string{"conversions", "successes", "k"}
)

// DataReader reads per-variant tallies from Excel or CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a reader; the file type follows the extension
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: logger}
}

// ReadTallies reads every data row as a named observation
func (r *DataReader) ReadTallies() ([]TallyRow, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}

	nameCol, err := findColumn(data.Headers, nameHeaders)
	if err != nil {
		return nil, err
	}
	trialsCol, err := findColumn(data.Headers, trialsHeaders)
	if err != nil {
		return nil, err
	}
	successCol, err := findColumn(data.Headers, successHeaders)
	if err != nil {
		return nil, err
	}

	tallies := make([]TallyRow, 0, len(data.Rows))
	for i, row := range data.Rows {
		line := i + 2 // 1-based, after the header
		if row[nameCol] == "" && row[trialsCol] == "" && row[successCol] == "" {
			continue
		}

		trials, err := strconv.Atoi(row[trialsCol])
		if err != nil {
			return nil, core.NewInvalidArgumentError(fmt.Sprintf("row %d %s", line, trialsCol), "not an integer")
		}
		successes, err := strconv.Atoi(row[successCol])
		if err != nil {
			return nil, core.NewInvalidArgumentError(fmt.Sprintf("row %d %s", line, successCol), "not an integer")
		}
		obs, err := conversion.NewObservation(trials, successes)
		if err != nil {
			return nil, core.NewFieldError(fmt.Sprintf("row %d", line), err)
		}
		tallies = append(tallies, TallyRow{Name: row[nameCol], Observation: obs})
	}

	r.logger.Debug("[DataReader] %d tallies read from %s", len(tallies), r.filePath)
	return tallies, nil
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*TallyData, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads the first sheet of the workbook
func (r *DataReader) readExcelData() (*TallyData, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel file must have at least a header row and one data row")
	}
	return r.processRows(rows), nil
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*TallyData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least a header row and one data row")
	}
	return r.processRows(rows), nil
}

// processRows converts raw string rows into TallyData
func (r *DataReader) processRows(rows [][]string) *TallyData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(RawRowData)
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Trace("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &TallyData{Headers: headers, Rows: dataRows}
}

func findColumn(headers []string, candidates []string) (string, error) {
	for _, want := range candidates {
		for _, h := range headers {
			if strings.EqualFold(h, want) {
				return h, nil
			}
		}
	}
	return "", core.NewInvalidArgumentError("header", fmt.Sprintf("missing column (one of %s)", strings.Join(candidates, ", ")))
}
