package export

import "fmt"

// Export artifact kinds. The spreadsheet kinds are produced by the
// spreadsheet subsystem; the names are fixed here so every artifact of a
// month follows the same pattern.
const (
	KindSummary = "samenvatting"
	KindLedger  = "belastingdienst"
	KindVAT     = "btw-aangifte"
)

// FileName builds the export file name for a kind and month:
// <kind>-<year>-<2-digit-month>.<ext>.
func FileName(kind string, year, month int, ext string) string {
	return fmt.Sprintf("%s-%d-%02d.%s", kind, year, month, ext)
}
