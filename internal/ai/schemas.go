package ai

import "google.golang.org/genai"

func stringSchema() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func stringArraySchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: stringSchema()}
}

func objectSchema(properties map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: properties, Required: required}
}

func arrayOf(item *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: item}
}

func contactSchema() *genai.Schema {
	return objectSchema(map[string]*genai.Schema{
		"email":       stringSchema(),
		"phone":       stringSchema(),
		"website":     stringSchema(),
		"address":     stringSchema(),
		"linkedinUrl": stringSchema(),
	}, "email", "phone")
}

func educationSchema() *genai.Schema {
	return objectSchema(map[string]*genai.Schema{
		"institution":    stringSchema(),
		"degree":         stringSchema(),
		"fieldOfStudy":   stringSchema(),
		"graduationDate": stringSchema(),
	}, "institution", "degree")
}

func certificationSchema() *genai.Schema {
	return objectSchema(map[string]*genai.Schema{
		"name":                stringSchema(),
		"issuingOrganization": stringSchema(),
		"date":                stringSchema(),
	}, "name")
}

func referenceSchema() *genai.Schema {
	return objectSchema(map[string]*genai.Schema{
		"name":    stringSchema(),
		"title":   stringSchema(),
		"company": stringSchema(),
		"phone":   stringSchema(),
		"email":   stringSchema(),
	}, "name")
}

func projectSchema() *genai.Schema {
	return objectSchema(map[string]*genai.Schema{
		"title":       stringSchema(),
		"date":        stringSchema(),
		"description": stringSchema(),
	}, "title")
}

// tailoredResumeSchema mirrors types.TailoredResumeData
func tailoredResumeSchema() *genai.Schema {
	return objectSchema(map[string]*genai.Schema{
		"fullName": stringSchema(),
		"jobTitle": stringSchema(),
		"contact":  contactSchema(),
		"summary":  stringSchema(),
		"workExperience": arrayOf(objectSchema(map[string]*genai.Schema{
			"jobTitle":         stringSchema(),
			"company":          stringSchema(),
			"startDate":        stringSchema(),
			"endDate":          stringSchema(),
			"responsibilities": stringArraySchema(),
		}, "jobTitle", "company", "responsibilities")),
		"education":            arrayOf(educationSchema()),
		"skills":               stringArraySchema(),
		"certifications":       arrayOf(certificationSchema()),
		"references":           arrayOf(referenceSchema()),
		"projects":             arrayOf(projectSchema()),
		"additionalExperience": arrayOf(projectSchema()),
		"additionalInfo": arrayOf(objectSchema(map[string]*genai.Schema{
			"title":   stringSchema(),
			"details": stringSchema(),
		}, "title", "details")),
	}, "fullName", "jobTitle", "contact", "summary", "workExperience", "education", "skills")
}

// analysisSchema mirrors types.AnalysisResult
func analysisSchema() *genai.Schema {
	mismatch := objectSchema(map[string]*genai.Schema{
		"userTitle":      stringSchema(),
		"suggestedTitle": stringSchema(),
		"reason":         stringSchema(),
	}, "userTitle", "suggestedTitle", "reason")
	mismatch.Nullable = genai.Ptr(true)

	return objectSchema(map[string]*genai.Schema{
		"tailoredResume":      tailoredResumeSchema(),
		"atsScore":            {Type: genai.TypeInteger},
		"atsScoreExplanation": stringSchema(),
		"qualificationMatches": arrayOf(objectSchema(map[string]*genai.Schema{
			"userQualification": stringSchema(),
			"jobRequirement":    stringSchema(),
			"explanation":       stringSchema(),
		}, "userQualification", "jobRequirement", "explanation")),
		"keywordGaps": arrayOf(objectSchema(map[string]*genai.Schema{
			"keyword": stringSchema(),
			"reason":  stringSchema(),
		}, "keyword", "reason")),
		"keywordGuide": arrayOf(objectSchema(map[string]*genai.Schema{
			"keyword":  stringSchema(),
			"guidance": stringSchema(),
			"resource": objectSchema(map[string]*genai.Schema{
				"title": stringSchema(),
				"type": {
					Type:   genai.TypeString,
					Format: "enum",
					Enum:   []string{"Article", "Video", "Course"},
				},
				"url": stringSchema(),
			}, "title", "type", "url"),
		}, "keyword", "guidance", "resource")),
		"jobTitleMismatch": mismatch,
	}, "tailoredResume", "atsScore", "atsScoreExplanation", "qualificationMatches", "keywordGaps", "keywordGuide")
}

// scoreSchema mirrors types.ScoreResult
func scoreSchema() *genai.Schema {
	return objectSchema(map[string]*genai.Schema{
		"atsScore":            {Type: genai.TypeInteger},
		"atsScoreExplanation": stringSchema(),
	}, "atsScore", "atsScoreExplanation")
}

// extractedTextSchema mirrors types.ExtractedText
func extractedTextSchema() *genai.Schema {
	return objectSchema(map[string]*genai.Schema{"text": stringSchema()}, "text")
}

// profileSchema mirrors types.ProfileData. Nothing is required since
// exported profiles are often incomplete.
func profileSchema() *genai.Schema {
	return objectSchema(map[string]*genai.Schema{
		"fullName":    stringSchema(),
		"email":       stringSchema(),
		"phone":       stringSchema(),
		"linkedinUrl": stringSchema(),
		"summary":     stringSchema(),
		"workExperience": arrayOf(objectSchema(map[string]*genai.Schema{
			"jobTitle":         stringSchema(),
			"company":          stringSchema(),
			"startDate":        stringSchema(),
			"endDate":          stringSchema(),
			"responsibilities": stringSchema(),
		})),
		"education":            arrayOf(educationSchema()),
		"skills":               stringArraySchema(),
		"certifications":       arrayOf(certificationSchema()),
		"references":           arrayOf(referenceSchema()),
		"projects":             arrayOf(projectSchema()),
		"additionalExperience": arrayOf(projectSchema()),
	})
}
