package domain

import "time"

// SourceType is the declared format of an ingested statement file.
type SourceType string

const (
	SourcePDF SourceType = "PDF"
	SourceCSV SourceType = "CSV"
)

// FileRecord represents one ingested statement. FileHash is the unique key;
// re-ingesting identical bytes is a no-op.
type FileRecord struct {
	FileHash   string
	Filename   string
	SourceType SourceType
	Instrument PaymentMethod // statement-level instrument hint, Unknown if undetermined
	IngestedAt time.Time
}
