package domain

import (
	"encoding/base64"
	"fmt"
	"time"
)

// SpreadsheetMIME is the content type of exported and imported spreadsheets.
const SpreadsheetMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportTimeLayout formats the timestamp embedded in export file names.
const ExportTimeLayout = "Jan 2, 2006 3:04 PM"

// ExportFilename names a downloaded export: "<resource> -<timestamp>.xlsx".
func ExportFilename(resource string, at time.Time) string {
	return fmt.Sprintf("%s -%s.xlsx", resource, at.Format(ExportTimeLayout))
}

// Document is an uploaded file encoded as a data URL.
type Document struct {
	DocumentNumber string `json:"documentNumber"`
	DocumentName   string `json:"documentName"`
	DocumentSize   int64  `json:"documentSize"`
	DocumentSource string `json:"documentSource"`
}

// ImportRequest is the body of spreadsheet import operations.
type ImportRequest struct {
	ExcelFile Document `json:"excelFile"`
}

// NewDocument encodes data as a base64 data URL document.
// An empty mime type defaults to SpreadsheetMIME.
func NewDocument(name, mime string, data []byte) Document {
	if mime == "" {
		mime = SpreadsheetMIME
	}
	return Document{
		DocumentName:   name,
		DocumentSize:   int64(len(data)),
		DocumentSource: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}
