package ledger

import (
	"strconv"
	"strings"

	"github.com/joseph-ayodele/results-ledger/constants"
)

// ParseMark converts one mark token. "AB" (absent) and "--" (not
// applicable) become zero, as does anything that is not an integer.
func ParseMark(tok string) int {
	tok = strings.TrimSpace(tok)
	if tok == "" || tok == "AB" || tok == "--" {
		return 0
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseCredit converts a credit count; non-numeric input is zero.
func ParseCredit(tok string) int {
	n, err := strconv.Atoi(strings.TrimSpace(tok))
	if err != nil {
		return 0
	}
	return n
}

// NormalizePassFail maps the P/F flag (with an optional trailing *) to
// the subject outcome label.
func NormalizePassFail(flag string) string {
	if strings.TrimSuffix(strings.TrimSpace(flag), "*") == "F" {
		return constants.SubjectFail
	}
	return constants.SubjectPass
}

// NormalizeGrade strips +, - and * modifiers leaving the bare letter.
func NormalizeGrade(tok string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '+', '-', '*', ' ':
			return -1
		}
		return r
	}, tok)
}

// SemesterFromPrefix reads the leading semester column of a subject line.
// It only applies to lines of three or more tokens.
func SemesterFromPrefix(tokens []string) *int {
	if len(tokens) < 3 || !reSemesterPrefix.MatchString(tokens[0]) {
		return nil
	}
	n := int(tokens[0][0] - '0')
	return &n
}

// SemesterFromCode derives the semester from a QP code: the first digit
// after the department letter block, when it is between 1 and 8.
func SemesterFromCode(code string) *int {
	i := 0
	for i < len(code) && isDigit(code[i]) {
		i++
	}
	if i == 0 {
		return nil
	}
	j := i
	for j < len(code) && isUpper(code[j]) {
		j++
	}
	if j == i || j >= len(code) || !isDigit(code[j]) {
		return nil
	}
	n := int(code[j] - '0')
	if n < 1 || n > 8 {
		return nil
	}
	return &n
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
