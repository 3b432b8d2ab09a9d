package constants

import "strings"

// PDF is the only source format a ledger arrives in.
const PDF = "PDF"

// PDFMimeType is the content type accepted by the upload endpoints.
const PDFMimeType = "application/pdf"

// AllowedExtensions holds the file extensions picked up by directory ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDF reports whether content starts with the PDF signature.
func IsPDF(content []byte) bool {
	return len(content) >= 4 && string(content[:4]) == "%PDF"
}
