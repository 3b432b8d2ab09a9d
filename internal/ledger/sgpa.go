package ledger

import (
	"strconv"
	"strings"

	"github.com/joseph-ayodele/results-ledger/constants"
	"github.com/joseph-ayodele/results-ledger/internal/entity"
)

// IsSGPALine reports whether line carries the SGPA summary.
func IsSGPALine(line string) bool {
	return strings.Contains(line, "SGPA") && reAttemptsMarker.MatchString(line)
}

// ParseSGPA reads every "<decimal> (<attempts>)" group of an SGPA line.
// The n-th group is stored as "sem<n>"; the attempts count is not used to
// place it.
func ParseSGPA(line string) entity.SGPA {
	out := entity.SGPA{}
	m := reSGPALine.FindStringSubmatch(line)
	if m == nil {
		return out
	}
	for i, g := range reSGPAGroup.FindAllStringSubmatch(m[1], -1) {
		v, err := strconv.ParseFloat(g[1], 64)
		if err != nil {
			continue
		}
		out = append(out, entity.SGPAEntry{
			Key:   constants.SemesterKeyStart + strconv.Itoa(i+1),
			Value: v,
		})
	}
	return out
}
