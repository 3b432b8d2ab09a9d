package contract

// BuildResultSchema returns the JSON-Schema (draft 2020-12 subset) every
// extraction result must satisfy before it leaves the service.
func BuildResultSchema() map[string]any {
	subject := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"qpCode":      map[string]any{"type": "string", "pattern": `^\d{2}[A-Z]+\d{2}[A-Z]\d*$`},
			"subjectName": map[string]any{"type": "string"},
			"marks":       marksSchema(),
			"result":      map[string]any{"type": "string", "enum": []string{"Pass", "Fail"}},
			"credits":     map[string]any{"type": "integer", "minimum": 0},
			"grade":       map[string]any{"type": "string", "pattern": `^[A-F]$`},
			"rawGrade":    map[string]any{"type": "string"},
			"semester":    map[string]any{"type": "integer", "minimum": 1, "maximum": 8},
		},
		"required": []string{"qpCode", "subjectName", "marks", "result", "credits", "grade"},
	}

	student := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"regNo":      map[string]any{"type": "string", "minLength": 1},
			"name":       map[string]any{"type": "string"},
			"fatherName": map[string]any{"type": "string"},
			"semesterResults": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"semester": map[string]any{"type": "string"},
						"subjects": map[string]any{"type": "array", "items": subject},
					},
					"required": []string{"semester", "subjects"},
				},
			},
			"cgpa": map[string]any{"type": "string"},
			"sgpa": map[string]any{
				"type":                 "object",
				"propertyNames":        map[string]any{"pattern": `^sem\d+$`},
				"additionalProperties": map[string]any{"type": "number", "minimum": 0},
			},
			"finalResult": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"regNo", "name", "fatherName", "semesterResults", "cgpa", "sgpa", "finalResult"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"institute":       map[string]any{"type": "string", "minLength": 1},
			"programme":       map[string]any{"type": "string", "minLength": 1},
			"resultDate":      map[string]any{"type": "string", "minLength": 1},
			"examinationInfo": map[string]any{"type": "string", "minLength": 1},
			"students":        map[string]any{"type": "array", "items": student},
			"rawText":         map[string]any{"type": "string"},
		},
		"required": []string{"institute", "programme", "resultDate", "examinationInfo", "students", "rawText"},
	}
}

func marksSchema() map[string]any {
	mark := map[string]any{"type": "integer", "minimum": 0}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           map[string]any{"IA": mark, "Tr": mark, "Pr": mark},
		"required":             []string{"IA", "Tr", "Pr"},
	}
}
