// data_handler.go
package email

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-gota/gota/dataframe"
	"github.com/tealeg/xlsx"

	datafile "AirTrafficInsight/src/datasource/file"
)

// DataFrameWrapper holds the most recently ingested table behind a lock,
// so the cron refresh and the pipeline can share it.
type DataFrameWrapper struct {
	df dataframe.DataFrame
	mu sync.RWMutex
}

func (d *DataFrameWrapper) GetDF() dataframe.DataFrame {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.df
}

func (d *DataFrameWrapper) SetDF(df dataframe.DataFrame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.df = df
}

// ReadCSV loads CSV attachment bytes into the wrapper.
func (d *DataFrameWrapper) ReadCSV(data []byte) error {
	df, err := datafile.ReadCSVReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to read csv attachment: %w", err)
	}
	d.SetDF(df)
	return nil
}

// ReadXLSX loads workbook attachment bytes into the wrapper.
func (d *DataFrameWrapper) ReadXLSX(data []byte, sheetName string, headerRow int) error {
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return err
	}

	if len(xlFile.Sheets) == 0 {
		return fmt.Errorf("attachment workbook has no sheets")
	}
	sheet, ok := xlFile.Sheet[sheetName]
	if !ok {
		return fmt.Errorf("attachment workbook has no sheet %q", sheetName)
	}

	df, err := datafile.ConvertSheet(sheet, headerRow)
	if err != nil {
		return fmt.Errorf("failed to convert attachment sheet: %w", err)
	}
	d.SetDF(df)
	return nil
}

// DatasetAttachmentHandler saves dataset attachments (CSV or XLSX) from
// matching mail into the data directory.
type DatasetAttachmentHandler struct {
	TargetSubject string
	DataDir       string
	processedUIDs map[uint32]bool
	mu            sync.RWMutex
}

func NewDatasetAttachmentHandler(subject, dataDir string) *DatasetAttachmentHandler {
	return &DatasetAttachmentHandler{
		TargetSubject: subject,
		DataDir:       dataDir,
		processedUIDs: make(map[uint32]bool),
	}
}

func (h *DatasetAttachmentHandler) isProcessed(uid uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.processedUIDs[uid]
}

func (h *DatasetAttachmentHandler) markAsProcessed(uid uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processedUIDs[uid] = true
}

// Handle saves the dataset attachments of one mail. Returns the saved
// paths; a mail seen before or with a non-matching subject is skipped.
func (h *DatasetAttachmentHandler) Handle(e *Email) ([]string, error) {
	if e == nil || h.isProcessed(e.UID) {
		return nil, nil
	}

	if !strings.Contains(e.Subject, h.TargetSubject) {
		return nil, nil
	}

	if err := os.MkdirAll(h.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	var saved []string
	for _, attachment := range e.Attachments {
		ext := strings.ToLower(filepath.Ext(attachment.Filename))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		filePath := filepath.Join(h.DataDir, attachment.Filename)
		if err := os.WriteFile(filePath, attachment.Content, 0644); err != nil {
			return saved, fmt.Errorf("failed to save attachment: %w", err)
		}
		saved = append(saved, filePath)
	}

	if len(saved) > 0 {
		h.markAsProcessed(e.UID)
	}

	return saved, nil
}
