package ledger

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/results-ledger/internal/entity"
)

// ValidateQPCode reports whether code has one of the accepted QP code
// shapes. Everything else is rejected so mark and serial tokens never
// pass for subject codes.
func ValidateQPCode(code string) bool {
	if len(code) < 6 {
		return false
	}
	for _, re := range qpCodeShapes {
		if re.MatchString(code) {
			return true
		}
	}
	return false
}

// LocateQPCode finds the QP code among the line tokens. It returns the
// code and the index of the first token after the code and its colon.
// A code with an attached colon wins over one followed by a lone colon.
func LocateQPCode(tokens []string) (code string, rest int, ok bool) {
	for i, tok := range tokens {
		if !strings.Contains(tok, ":") {
			continue
		}
		if c := strings.Replace(tok, ":", "", 1); ValidateQPCode(c) {
			return c, i + 1, true
		}
	}
	for i := 0; i < len(tokens)-1; i++ {
		if tokens[i+1] == ":" && ValidateQPCode(tokens[i]) {
			return tokens[i], i + 2, true
		}
	}
	return "", 0, false
}

// subjectFields is what a remainder layer recovers.
type subjectFields struct {
	name   string
	marks  entity.Marks
	flag   string
	credit int
	grade  string
}

// subjectLayer pairs a remainder pattern with its name cleanup.
type subjectLayer struct {
	name      string
	re        *regexp.Regexp
	stripName bool
}

// subjectLayers are evaluated first-match-wins.
var subjectLayers = []subjectLayer{
	{name: "standard", re: reSubjectStandard},
	{name: "concatenated", re: reSubjectConcatenated, stripName: true},
	{name: "fused", re: reSubjectFused, stripName: true},
}

func (l subjectLayer) parse(rest string) (subjectFields, bool) {
	m := l.re.FindStringSubmatch(rest)
	if m == nil {
		return subjectFields{}, false
	}
	name := m[1]
	if l.stripName {
		name = reTrailingDigits.ReplaceAllString(name, "")
	}
	// a nameless line would hand the IA digits to the name group
	if name = strings.TrimSpace(name); name == "" {
		return subjectFields{}, false
	}
	return subjectFields{
		name: name,
		marks: entity.Marks{
			IA: ParseMark(m[2]),
			Tr: ParseMark(m[3]),
			Pr: ParseMark(m[4]),
		},
		flag:   strings.ReplaceAll(m[5], "*", ""),
		credit: ParseCredit(m[6]),
		grade:  m[7],
	}, true
}

// parseSubjectRemainder resolves the text after the QP code. The layer
// name is returned for diagnostics.
func parseSubjectRemainder(rest string) (subjectFields, string, bool) {
	rest = strings.TrimSpace(rest)
	for _, l := range subjectLayers {
		if f, ok := l.parse(rest); ok {
			return f, l.name, true
		}
	}
	return subjectFields{}, "", false
}

// ParseSubjectLine turns one ledger line into a Subject. Lines without a
// valid QP code or whose remainder matches no layer yield ok == false.
func ParseSubjectLine(line string) (entity.Subject, bool) {
	tokens := strings.Fields(line)
	code, restIdx, ok := LocateQPCode(tokens)
	if !ok {
		return entity.Subject{}, false
	}
	f, _, ok := parseSubjectRemainder(strings.Join(tokens[restIdx:], " "))
	if !ok {
		return entity.Subject{}, false
	}

	sem := SemesterFromPrefix(tokens)
	if sem == nil {
		sem = SemesterFromCode(code)
	}
	return entity.Subject{
		QPCode:      code,
		SubjectName: f.name,
		Marks:       f.marks,
		Result:      NormalizePassFail(f.flag),
		Credits:     f.credit,
		Grade:       NormalizeGrade(f.grade),
		RawGrade:    f.grade,
		Semester:    sem,
	}, true
}
