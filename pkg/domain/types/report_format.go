package types

import "fmt"

// ReportFormat is the output document format of a report
type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatText ReportFormat = "text"
)

// IsValid checks if the report format is valid
func (f ReportFormat) IsValid() bool {
	switch f {
	case ReportFormatPDF, ReportFormatText:
		return true
	default:
		return false
	}
}

// ContentType returns the MIME type of documents in this format
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatPDF:
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension including the leading dot
func (f ReportFormat) Extension() string {
	switch f {
	case ReportFormatPDF:
		return ".pdf"
	default:
		return ".txt"
	}
}

func (f ReportFormat) String() string {
	return string(f)
}

// ParseReportFormat parses a string into a ReportFormat, defaulting to PDF
func ParseReportFormat(s string) (ReportFormat, error) {
	if s == "" {
		return ReportFormatPDF, nil
	}
	f := ReportFormat(s)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid report format: %s", s)
	}
	return f, nil
}
