package types

// ProfileWorkExperience is the wizard's work entry. Responsibilities are a
// single free-text block until generation splits them.
type ProfileWorkExperience struct {
	JobTitle         string `json:"jobTitle"`
	Company          string `json:"company"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
	Responsibilities string `json:"responsibilities"`
}

// ProfileData is what the user supplies before generation. Partial
// profiles parsed from LinkedIn exports leave unknown fields empty.
type ProfileData struct {
	FullName             string                  `json:"fullName"`
	Email                string                  `json:"email"`
	Phone                string                  `json:"phone"`
	LinkedInURL          string                  `json:"linkedinUrl"`
	Summary              string                  `json:"summary"`
	RoleAppliedFor       string                  `json:"roleAppliedFor"`
	ProfilePicture       string                  `json:"profilePicture,omitempty"`
	WorkExperience       []ProfileWorkExperience `json:"workExperience"`
	Education            []Education             `json:"education"`
	Skills               []string                `json:"skills"`
	Certifications       []Certification         `json:"certifications"`
	References           []Reference             `json:"references"`
	Projects             []Project               `json:"projects"`
	AdditionalExperience []Project               `json:"additionalExperience"`
}

// GenerateInput is the input for generating a tailored resume and analysis.
type GenerateInput struct {
	Profile        ProfileData `json:"profile"`
	JobDescription string      `json:"jobDescription"`
	RoleTitle      string      `json:"roleTitle"`
	Template       string      `json:"template"`
}

// RescoreInput is the input for reconciling a document's ATS score.
type RescoreInput struct {
	Resume         TailoredResumeData `json:"resume"`
	JobDescription string             `json:"jobDescription"`
}

// IntegrateKeywordInput asks for keyword to be woven into one section.
type IntegrateKeywordInput struct {
	Resume  TailoredResumeData `json:"resume"`
	Keyword string             `json:"keyword"`
	Section string             `json:"section"`
}

// ImageInput carries raw image bytes for job description extraction.
type ImageInput struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
}

// ExtractedText is the job description recovered from an image.
type ExtractedText struct {
	Text string `json:"text"`
}

// ParseProfileInput is raw profile text, typically from a LinkedIn PDF.
type ParseProfileInput struct {
	Text string `json:"text"`
}
