package ledger

import (
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/results-ledger/constants"
	"github.com/joseph-ayodele/results-ledger/internal/entity"
)

type sectionState int

const (
	stateSeeking   sectionState = iota // no open student record
	stateInSection                     // a student is open and takes subject lines
)

func (s sectionState) String() string {
	if s == stateInSection {
		return "in_section"
	}
	return "seeking"
}

// sectionParser walks the ledger lines once and assembles students. One
// instance serves exactly one extraction.
type sectionParser struct {
	state    sectionState
	students []*entity.Student
	current  *entity.Student
	logger   *slog.Logger

	subjects int
	dropped  int
}

func newSectionParser(logger *slog.Logger) *sectionParser {
	return &sectionParser{state: stateSeeking, logger: logger}
}

// run classifies every line and returns the students in document order.
func (p *sectionParser) run(lines []string) []entity.Student {
	for i := 0; i < len(lines); i++ {
		next, hasNext := "", i+1 < len(lines)
		if hasNext {
			next = strings.TrimSpace(lines[i+1])
		}
		if p.step(strings.TrimSpace(lines[i]), next, hasNext) {
			i++
		}
	}

	out := make([]entity.Student, len(p.students))
	for i, s := range p.students {
		out[i] = *s
	}
	return out
}

// step handles one trimmed line. It reports whether the following line
// was consumed as a continuation.
func (p *sectionParser) step(line, next string, hasNext bool) bool {
	if line == "" || containsAny(line, skipPhrases) {
		return false
	}

	if st, ok := matchRegistration(line); ok {
		p.students = append(p.students, st)
		p.current = st
		p.state = stateInSection
		return false
	}

	if p.current == nil {
		return false
	}

	if label, consumed, ok := matchResult(line, next, hasNext); ok {
		p.current.FinalResult = label
		if IsSGPALine(line) {
			p.current.SGPA = ParseSGPA(line)
		}
		p.state = stateSeeking
		return consumed
	}

	if IsSGPALine(line) {
		p.current.SGPA = ParseSGPA(line)
		return false
	}

	if p.state != stateInSection {
		return false
	}

	if containsAny(line, summaryLabels) {
		if cgpa, ok := matchCGPA(line); ok {
			p.current.CGPA = cgpa
		}
		return false
	}

	subject, ok := ParseSubjectLine(line)
	if !ok {
		p.dropped++
		p.logger.Debug("ledger.section.line_dropped", "reg_no", p.current.RegNo, "line", line)
		return false
	}
	bucket := &p.current.SemesterResults[0]
	bucket.Subjects = append(bucket.Subjects, subject)
	p.subjects++
	return false
}

// matchRegistration tries the registration family in order and opens a
// new student on the first hit.
func matchRegistration(line string) (*entity.Student, bool) {
	var regNo, name, guardian string
	if m := reRegGuardian.FindStringSubmatch(line); m != nil {
		regNo, name, guardian = m[2], m[3], m[4]
	} else if m := reRegBracket.FindStringSubmatch(line); m != nil {
		regNo, name, guardian = m[2], m[3], m[4]
	} else if m := reRegBare.FindStringSubmatch(line); m != nil {
		regNo, name, guardian = m[2], m[3], constants.UnknownGuardian
		if b := reTrailingBracket.FindStringSubmatch(name); b != nil {
			name, guardian = b[1], b[2]
		}
	} else {
		return nil, false
	}

	return &entity.Student{
		RegNo:      strings.TrimSpace(regNo),
		Name:       strings.TrimSpace(name),
		FatherName: strings.TrimSpace(guardian),
		SemesterResults: []entity.SemesterResult{{
			Semester: constants.CurrentSemester,
			Subjects: []entity.Subject{},
		}},
		CGPA:        constants.CGPAPending,
		SGPA:        entity.SGPA{},
		FinalResult: constants.Unknown,
	}, true
}

// matchResult recognizes "Results : LABEL" and a bare "Results" line
// whose label sits on the next line after a colon.
func matchResult(line, next string, hasNext bool) (label string, consumedNext bool, ok bool) {
	if reResultBare.MatchString(line) {
		if hasNext && strings.HasPrefix(next, ":") {
			if label = trimResultLabel(next[1:]); label != "" {
				return label, true, true
			}
		}
		return "", false, false
	}
	m := reResultInline.FindStringSubmatch(line)
	if m == nil {
		return "", false, false
	}
	if label = trimResultLabel(m[1]); label == "" {
		return "", false, false
	}
	return label, false, true
}

// trimResultLabel cuts the label after the first outcome keyword.
func trimResultLabel(s string) string {
	s = strings.TrimSpace(s)
	if loc := reResultKeyword.FindStringSubmatchIndex(s); loc != nil {
		s = s[:loc[3]]
	}
	return strings.TrimSpace(s)
}

func matchCGPA(line string) (string, bool) {
	if reCGPAPending.MatchString(line) {
		return constants.CGPAPending, true
	}
	if m := reCGPAValue.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}
