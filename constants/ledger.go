package constants

// Fallback values substituted when a ledger field cannot be found.
const (
	UnknownInstitute   = "Unknown Institute"
	UnknownProgramme   = "Unknown Programme"
	UnknownExamination = "Unknown Examination"
	UnknownSubject     = "Unknown Subject"
	Unknown            = "Unknown"
)

// Student and subject labels.
const (
	CGPAPending      = "Pending"
	CurrentSemester  = "Current"
	SubjectPass      = "Pass"
	SubjectFail      = "Fail"
	UnknownGuardian  = "Unknown"
	SemesterKeyStart = "sem"
)

// Departments recognized inside registration numbers.
var Departments = []string{"CE", "ME", "EC", "CS", "EE"}

var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// MonthName maps 1..12 to a short month name; anything else is Unknown.
func MonthName(n int) string {
	if n < 1 || n > 12 {
		return Unknown
	}
	return monthNames[n-1]
}
