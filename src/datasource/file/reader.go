// reader.go
package file

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ReadDataset dispatches on the file extension. Both CSV and XLSX
// distributions of the datasets produce the same string-typed DataFrame.
func ReadDataset(filePath, sheetName string, headerRow int) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		return ReadCSV(filePath)
	case ".xlsx":
		return ReadXLSX(filePath, sheetName, headerRow)
	default:
		return dataframe.DataFrame{}, fmt.Errorf("unsupported dataset format: %s", filePath)
	}
}

// ReadCSV loads a published CSV into a DataFrame of string series.
// The source files are Windows-1252 encoded (port names carry non-ASCII
// characters), so bytes are decoded to UTF-8 before tokenizing. A row
// with the wrong field count is a hard error naming the row, never a
// silent drop.
func ReadCSV(filePath string) (dataframe.DataFrame, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	return ReadCSVReader(f)
}

// ReadCSVReader reads CSV bytes from any source (file, mail attachment).
func ReadCSVReader(r io.Reader) (dataframe.DataFrame, error) {
	decoded := transform.NewReader(r, charmap.Windows1252.NewDecoder())
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1 // row lengths are checked below with row numbers

	headers, err := reader.Read()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read header row: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, 1024)
	}

	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		if len(record) != len(headers) {
			return dataframe.DataFrame{}, fmt.Errorf(
				"malformed row %d: got %d fields, want %d", row, len(record), len(headers))
		}
		for i, v := range record {
			columns[i] = append(columns[i], strings.TrimSpace(v))
		}
	}

	return buildDataFrame(headers, columns), nil
}

// ReadXLSX loads one sheet of a workbook distribution into a DataFrame.
func ReadXLSX(filePath, sheetName string, headerRow int) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open xlsx file: %w", err)
	}

	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("workbook %s has no sheets", filePath)
	}
	sheet, ok := xlFile.Sheet[sheetName]
	if !ok {
		return dataframe.DataFrame{}, fmt.Errorf("workbook %s has no sheet %q", filePath, sheetName)
	}

	return ConvertSheet(sheet, headerRow)
}

// ConvertSheet turns an xlsx.Sheet into a string-typed DataFrame.
func ConvertSheet(sheet *xlsx.Sheet, headerRow int) (dataframe.DataFrame, error) {
	if len(sheet.Rows) <= headerRow {
		return dataframe.DataFrame{}, fmt.Errorf("sheet has no header row at index %d", headerRow)
	}

	var headers []string
	for _, cell := range sheet.Rows[headerRow].Cells {
		headers = append(headers, strings.TrimSpace(cell.String()))
	}

	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(sheet.Rows)-headerRow-1)
	}

	for n, row := range sheet.Rows[headerRow+1:] {
		if len(row.Cells) > len(headers) {
			return dataframe.DataFrame{}, fmt.Errorf(
				"malformed row %d: got %d cells, want at most %d",
				headerRow+n+2, len(row.Cells), len(headers))
		}
		for i := range headers {
			v := ""
			if i < len(row.Cells) {
				v = strings.TrimSpace(row.Cells[i].String())
			}
			columns[i] = append(columns[i], v)
		}
	}

	return buildDataFrame(headers, columns), nil
}

func buildDataFrame(headers []string, columns [][]string) dataframe.DataFrame {
	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}
	return dataframe.New(seriesList...)
}
