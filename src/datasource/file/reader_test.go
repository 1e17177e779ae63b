package file

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestReadCSVReader(t *testing.T) {
	csv := "Month,City1,City2,Passenger_Trips\n" +
		"2005-01,SYDNEY,MELBOURNE,100\n" +
		"2005-02,SYDNEY,MELBOURNE,110\n"

	df, err := ReadCSVReader(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, []string{"Month", "City1", "City2", "Passenger_Trips"}, df.Names())
	assert.Equal(t, []string{"SYDNEY", "SYDNEY"}, df.Col("City1").Records())
}

func TestReadCSVReaderRejectsShortRow(t *testing.T) {
	csv := "Month,City1,City2\n" +
		"2005-01,SYDNEY,MELBOURNE\n" +
		"2005-02,SYDNEY\n"

	_, err := ReadCSVReader(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

func TestReadCSVReaderDecodesWindows1252(t *testing.T) {
	// 0xC9 is É in Windows-1252
	csv := "Month,ForeignPort\n2005-01,NOUM\xc9A\n"

	df, err := ReadCSVReader(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"NOUMÉA"}, df.Col("ForeignPort").Records())
}

func TestReadDatasetUnsupportedFormat(t *testing.T) {
	_, err := ReadDataset("dataset.txt", "Data", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported dataset format")
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV("no_such_file.csv")
	assert.Error(t, err)
}

func TestConvertSheet(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Data")
	require.NoError(t, err)

	header := sheet.AddRow()
	header.AddCell().Value = "Month"
	header.AddCell().Value = "City1"
	row := sheet.AddRow()
	row.AddCell().Value = "2005-01"
	row.AddCell().Value = "SYDNEY"

	df, err := ConvertSheet(sheet, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, df.Nrow())
	assert.Equal(t, []string{"SYDNEY"}, df.Col("City1").Records())
}

func TestConvertSheetMissingHeaderRow(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Data")
	require.NoError(t, err)

	_, err = ConvertSheet(sheet, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}
