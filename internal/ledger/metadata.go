package ledger

import (
	"strconv"
	"strings"

	"github.com/joseph-ayodele/results-ledger/constants"
)

// Metadata holds the document-level ledger fields.
type Metadata struct {
	Institute       string
	Programme       string
	ResultDate      string
	ExaminationInfo string
}

// ExtractMetadata pulls every document-level field from the full text.
// defaultDate is used when no result date is printed. It never fails.
func ExtractMetadata(text, defaultDate string) Metadata {
	date := ExtractResultDate(text, defaultDate)
	return Metadata{
		Institute:       ExtractInstitute(text),
		Programme:       ExtractProgramme(text),
		ResultDate:      date,
		ExaminationInfo: ExtractExaminationPeriod(text, date),
	}
}

// ExtractInstitute reads "Institute : <code> - [ <name> ]", falling back to
// the first line fragment that names a university, college or institution.
func ExtractInstitute(text string) string {
	if m := reInstitute.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := reInstituteFallback.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	return constants.UnknownInstitute
}

// ExtractProgramme reads "Programme : <CODE> - <description>".
func ExtractProgramme(text string) string {
	if m := reProgramme.FindStringSubmatch(text); m != nil {
		return m[1] + " - " + strings.TrimSpace(m[2])
	}
	if m := reProgrammeFallback.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return constants.UnknownProgramme
}

// ExtractResultDate returns the printed result date literally, or
// defaultDate when none is found.
func ExtractResultDate(text, defaultDate string) string {
	if m := reResultDate.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := reResultDateLoose.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return defaultDate
}

// ExtractExaminationPeriod finds the examination session label such as
// "Nov/Dec 2023". Looser month/year patterns are tried before the month
// is derived from resultDate.
func ExtractExaminationPeriod(text, resultDate string) string {
	if m := reExamTitle.FindStringSubmatch(text); m != nil {
		return strings.Replace(m[1], "-", " ", 1)
	}

	for _, fb := range examPeriodFallbacks {
		m := fb.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		month1 := strings.ToUpper(m[fb.month1])
		year := m[fb.year]
		month2 := ""
		if fb.month2 > 0 {
			month2 = strings.ToUpper(m[fb.month2])
		}
		switch {
		case month1 != "" && month2 != "" && year != "":
			return month1 + "/" + month2 + " " + year
		case month1 != "" && year != "":
			return month1 + " " + year
		}
	}

	if parts := strings.Split(resultDate, "/"); len(parts) == 3 {
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			n = 0
		}
		return constants.MonthName(n) + " " + parts[2]
	}
	return constants.UnknownExamination
}
