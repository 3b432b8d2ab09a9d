package ledger

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/results-ledger/constants"
)

// regNoPattern matches a registration number: batch digits, a department
// code, a serial, and an optional alphanumeric tail (e.g. 20CE53I).
var regNoPattern = `\d+(?:` + strings.Join(constants.Departments, "|") + `)\d+[A-Z0-9]*`

// Registration line family, tried in order.
var (
	reRegGuardian     = regexp.MustCompile(`(\d+)\s+(` + regNoPattern + `)\s+(.+?)\s*\[\s*S\(D\)\s*/\s*o\s*:\s*(.+?)\s*\]`)
	reRegBracket      = regexp.MustCompile(`(\d+)\s+(` + regNoPattern + `)\s+(.+?)\s*\[\s*(.+?)\s*\]`)
	reRegBare         = regexp.MustCompile(`(\d+)\s+(` + regNoPattern + `)\s+([A-Za-z].*)`)
	reTrailingBracket = regexp.MustCompile(`^(.+?)\s*\[\s*(.+?)\s*\]$`)
)

// Result lines.
var (
	reResultInline  = regexp.MustCompile(`(?i)Results?\s*:\s*([A-Z][A-Z\s]*)`)
	reResultKeyword = regexp.MustCompile(`(?i)\b(PASS|FAILS?|DISTINCTION|FIRST CLASS|SECOND CLASS)`)
	reResultBare    = regexp.MustCompile(`(?i)^Results?$`)
)

// SGPA summary line: "SGPA (Atempts) 7.11 (7) 5.64 (6)".
var (
	reAttemptsMarker = regexp.MustCompile(`(?i)\(At{1,2}empts\)`)
	reSGPALine       = regexp.MustCompile(`(?i)SGPA\s*\(At{1,2}empts\)\s*([\d.\s()]+)`)
	reSGPAGroup      = regexp.MustCompile(`(\d+\.\d+)\s*\(\d+\)`)
)

// CGPA summary line.
var (
	reCGPAPending = regexp.MustCompile(`(?i)CGPA[\s:]*Credit\(s\)\s*Pending`)
	reCGPAValue   = regexp.MustCompile(`(?i)CGPA[\s:]*(\d+\.?\d*)`)
)

// QP code shapes.
var qpCodeShapes = []*regexp.Regexp{
	regexp.MustCompile(`^\d{2}[A-Z]{2}\d{2}[A-Z]$`),    // 20CE53I
	regexp.MustCompile(`^\d{2}[A-Z]{2}\d{2}[A-Z]\d+$`), // 20CE53I2
	regexp.MustCompile(`^\d{2}[A-Z]+\d{2}[A-Z]$`),      // 20MEC45P
}

var reSemesterPrefix = regexp.MustCompile(`^[1-8]$`)

// Subject remainder layers: "<name> <IA> / <Tr> / <Pr> <P|F> <credit> <grade>".
const (
	markTok = `(\d+|AB|--)`
	tailTok = `\s*([A-F][+\-*]?)$`
	slashes = `\s*/\s*` + markTok + `\s*/\s*` + markTok
)

var (
	reSubjectStandard     = regexp.MustCompile(`^(.+?)\s+(\d+)` + slashes + `\s*([PF]\*?)\s+(\d+)` + tailTok)
	reSubjectConcatenated = regexp.MustCompile(`^(.+?)(\d+)` + slashes + `\s*([PF]\*?)\s+(\d+)` + tailTok)
	reSubjectFused        = regexp.MustCompile(`^(.+?)(\d+)` + slashes + `\s*([PF]\*?)(\d+)` + tailTok)
	reTrailingDigits      = regexp.MustCompile(`\d+$`)
)

// Metadata.
var (
	reInstitute         = regexp.MustCompile(`(?i)Institute\s*:\s*\d+\s*-\s*\[\s*([^\]]+)\s*\]`)
	reInstituteFallback = regexp.MustCompile(`(?i)(?:UNIVERSITY|COLLEGE|INSTITUTION)[^\n]*`)
	reProgramme         = regexp.MustCompile(`(?i)Programme\s*:\s*([A-Z]+)\s*-\s*([^\n]+)`)
	reProgrammeFallback = regexp.MustCompile(`(?i)(?:PROGRAMME|COURSE|BRANCH)[\s:]*([^\n]+)`)
	reResultDate        = regexp.MustCompile(`(?i)Result Date\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`)
	reResultDateLoose   = regexp.MustCompile(`(?i)(?:DATE|RESULT DATE)[\s:]*(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`)
	reExamTitle         = regexp.MustCompile(`(?i)RESULT LEDGER\s*-\s*DIPLOMA EXAMINATION\s+([A-Za-z]+/[A-Za-z]+-\d{4})`)
)

const monthAlt = `(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)`

// examPeriodFallbacks are tried in order. Each yields month1, optional
// month2 and year submatches.
var examPeriodFallbacks = []struct {
	re                   *regexp.Regexp
	month1, month2, year int
}{
	{regexp.MustCompile(`(?i)DIPLOMA.*?` + monthAlt + `[/\s]*` + monthAlt + `?[/\s]*([12]\d{3})`), 1, 2, 3},
	{regexp.MustCompile(`(?i)` + monthAlt + `[/\s]*` + monthAlt + `?[/\s]*([12]\d{3})`), 1, 2, 3},
	{regexp.MustCompile(`(?i)EXAMINATION.*?` + monthAlt + `[/\s]*([12]\d{3})`), 1, 0, 2},
}

// skipPhrases mark page furniture and metadata echoes.
var skipPhrases = []string{
	"BOARD OF TECHNICAL EXAMINATION",
	"RESULT LEDGER",
	"Page No :",
	"Continue...",
	"...Continue",
	"Note : This is only for Institutional Reference",
	"Institute :",
	"Programme :",
	"Result Date :",
	"Printed on :",
}

// summaryLabels mark the semester summary block under each student.
var summaryLabels = []string{
	"Semester I II III IV V VI",
	"Credit Applied",
	"Credit Earned",
	"(Ci x Gi)",
	"SGPA",
	"% Conversion",
	"CGPA",
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
