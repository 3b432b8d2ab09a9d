package pdftext

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n")

// Clean applies NFKC so ligatures and full-width digits match the ledger
// patterns, folds line endings and page breaks to "\n", and trims trailing
// blanks from every line.
func Clean(text string) string {
	text = norm.NFKC.String(text)
	text = lineBreaks.Replace(text)
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n")
}
