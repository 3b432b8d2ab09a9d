package entity

import "strings"

// Marks holds the three mark components of a subject. Absent or
// not-applicable components are stored as zero.
type Marks struct {
	IA int `json:"IA"`
	Tr int `json:"Tr"`
	Pr int `json:"Pr"`
}

// Subject is one ledger line resolved into a typed record.
type Subject struct {
	QPCode      string `json:"qpCode"`
	SubjectName string `json:"subjectName"`
	Marks       Marks  `json:"marks"`
	Result      string `json:"result"` // "Pass" | "Fail"
	Credits     int    `json:"credits"`
	Grade       string `json:"grade"`    // bare letter
	RawGrade    string `json:"rawGrade"` // grade token as printed, modifier included
	Semester    *int   `json:"semester,omitempty"`
}

// SemesterResult groups the subjects of one bucket.
type SemesterResult struct {
	Semester string    `json:"semester"`
	Subjects []Subject `json:"subjects"`
}

// Student represents one registration block of a ledger.
type Student struct {
	RegNo           string           `json:"regNo"`
	Name            string           `json:"name"`
	FatherName      string           `json:"fatherName"`
	SemesterResults []SemesterResult `json:"semesterResults"`
	CGPA            string           `json:"cgpa"`
	SGPA            SGPA             `json:"sgpa"`
	FinalResult     string           `json:"finalResult"`
}

// Subjects returns every subject of the student across buckets.
func (s *Student) Subjects() []Subject {
	var out []Subject
	for _, sr := range s.SemesterResults {
		out = append(out, sr.Subjects...)
	}
	return out
}

// ExtractionResult is the aggregate produced for one ledger document.
type ExtractionResult struct {
	Institute       string    `json:"institute"`
	Programme       string    `json:"programme"`
	ResultDate      string    `json:"resultDate"`
	ExaminationInfo string    `json:"examinationInfo"`
	Students        []Student `json:"students"`
	RawText         string    `json:"rawText"`
}

// Failed reports whether the final result label is a failing outcome.
func (s *Student) Failed() bool {
	return strings.Contains(strings.ToUpper(s.FinalResult), "FAIL")
}

// Passed reports whether the final result label is a passing outcome.
// "Unknown" is neither passed nor failed.
func (s *Student) Passed() bool {
	if s.Failed() {
		return false
	}
	up := strings.ToUpper(s.FinalResult)
	return strings.Contains(up, "PASS") || strings.Contains(up, "CLASS") || strings.Contains(up, "DISTINCTION")
}

// Totals counts students and subjects across a result.
func (r *ExtractionResult) Totals() (students, subjects, passed, failed int) {
	for i := range r.Students {
		st := &r.Students[i]
		subjects += len(st.Subjects())
		switch {
		case st.Passed():
			passed++
		case st.Failed():
			failed++
		}
	}
	return len(r.Students), subjects, passed, failed
}
