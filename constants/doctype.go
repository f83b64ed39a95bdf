package constants

import (
	"strings"
)

// DocumentType is a canonical grouping for the free-text "documentType" the model infers.
type DocumentType string

const (
	Passport      DocumentType = "Passport"
	NationalID    DocumentType = "NationalID"
	DriverLicense DocumentType = "DriverLicense"
	Invoice       DocumentType = "Invoice"
	Receipt       DocumentType = "Receipt"
	BankStatement DocumentType = "BankStatement"
	Transcript    DocumentType = "Transcript"
	Certificate   DocumentType = "Certificate"
	UtilityBill   DocumentType = "UtilityBill"
	Blueprint     DocumentType = "Blueprint"
	OtherDocument DocumentType = "Other"
)

var allDocumentTypes = []DocumentType{
	Passport,
	NationalID,
	DriverLicense,
	Invoice,
	Receipt,
	BankStatement,
	Transcript,
	Certificate,
	UtilityBill,
	Blueprint,
	OtherDocument,
}

// DocumentTypes returns every canonical document type as strings.
func DocumentTypes() []string {
	result := make([]string, len(allDocumentTypes))
	for i, t := range allDocumentTypes {
		result[i] = string(t)
	}
	return result
}

// CanonicalizeDocumentType maps a model label such as "Statement of Grades" onto a canonical type.
// The bool is false when the label was not recognized and OtherDocument was returned.
func CanonicalizeDocumentType(input string) (DocumentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return OtherDocument, false
	}

	synonyms := map[string]DocumentType{
		"id card":             NationalID,
		"identity card":       NationalID,
		"national id card":    NationalID,
		"driver's license":    DriverLicense,
		"drivers license":     DriverLicense,
		"driving licence":     DriverLicense,
		"tax invoice":         Invoice,
		"bill":                Invoice,
		"sales receipt":       Receipt,
		"statement":           BankStatement,
		"account statement":   BankStatement,
		"statement of grades": Transcript,
		"academic transcript": Transcript,
		"report card":         Transcript,
		"diploma":             Certificate,
		"electricity bill":    UtilityBill,
		"water bill":          UtilityBill,
		"drawing":             Blueprint,
		"floor plan":          Blueprint,
	}
	if t, ok := synonyms[normalized]; ok {
		return t, true
	}

	squashed := strings.NewReplacer(" ", "", "_", "", "-", "", "'", "").Replace(normalized)
	for _, t := range allDocumentTypes {
		if squashed == strings.ToLower(string(t)) {
			return t, true
		}
	}

	// Fall back to keyword containment, most specific first.
	for _, t := range allDocumentTypes[:len(allDocumentTypes)-1] {
		if strings.Contains(squashed, strings.ToLower(string(t))) {
			return t, true
		}
	}
	return OtherDocument, false
}
