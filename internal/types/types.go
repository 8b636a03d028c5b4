package types

// Contact holds the contact block of a tailored resume.
type Contact struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Website     string `json:"website,omitempty"`
	Address     string `json:"address,omitempty"`
	LinkedInURL string `json:"linkedinUrl,omitempty"`
}

// WorkExperience is one position in the tailored resume.
type WorkExperience struct {
	JobTitle         string   `json:"jobTitle"`
	Company          string   `json:"company"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	Responsibilities []string `json:"responsibilities"`
}

// Education is one degree entry.
type Education struct {
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	FieldOfStudy   string `json:"fieldOfStudy,omitempty"`
	GraduationDate string `json:"graduationDate"`
}

type Certification struct {
	Name                string `json:"name"`
	IssuingOrganization string `json:"issuingOrganization"`
	Date                string `json:"date"`
}

type Reference struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// Project is used both for projects and additional experience entries.
type Project struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type AdditionalInfo struct {
	Title   string `json:"title"`
	Details string `json:"details"`
}

// TailoredResumeData is the canonical resume document. Field paths address
// nodes in it by JSON field name and slice index.
type TailoredResumeData struct {
	FullName             string           `json:"fullName"`
	JobTitle             string           `json:"jobTitle"`
	Contact              Contact          `json:"contact"`
	Summary              string           `json:"summary"`
	WorkExperience       []WorkExperience `json:"workExperience"`
	Education            []Education      `json:"education"`
	Skills               []string         `json:"skills"`
	Certifications       []Certification  `json:"certifications"`
	References           []Reference      `json:"references"`
	Projects             []Project        `json:"projects"`
	AdditionalExperience []Project        `json:"additionalExperience"`
	AdditionalInfo       []AdditionalInfo `json:"additionalInfo"`
}

// KeywordGap is a job description keyword missing from the resume.
type KeywordGap struct {
	Keyword string `json:"keyword"`
	Reason  string `json:"reason"`
}

// LearningResource types
const (
	ResourceArticle = "Article"
	ResourceVideo   = "Video"
	ResourceCourse  = "Course"
)

type LearningResource struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	URL   string `json:"url"`
}

// KeywordGuideItem explains how to learn or demonstrate a keyword.
type KeywordGuideItem struct {
	Keyword  string           `json:"keyword"`
	Guidance string           `json:"guidance"`
	Resource LearningResource `json:"resource"`
}

// QualificationMatch pairs a profile qualification with the requirement it
// satisfies, both quoted verbatim.
type QualificationMatch struct {
	UserQualification string `json:"userQualification"`
	JobRequirement    string `json:"jobRequirement"`
	Explanation       string `json:"explanation"`
}

// JobTitleMismatch is reported when the candidate's title does not match
// the role they applied for.
type JobTitleMismatch struct {
	UserTitle      string `json:"userTitle"`
	SuggestedTitle string `json:"suggestedTitle"`
	Reason         string `json:"reason"`
}

// AnalysisResult is the canonical result of one generation.
type AnalysisResult struct {
	TailoredResume       TailoredResumeData   `json:"tailoredResume"`
	ATSScore             int                  `json:"atsScore"`
	ATSScoreExplanation  string               `json:"atsScoreExplanation"`
	QualificationMatches []QualificationMatch `json:"qualificationMatches"`
	KeywordGaps          []KeywordGap         `json:"keywordGaps"`
	KeywordGuide         []KeywordGuideItem   `json:"keywordGuide"`
	JobTitleMismatch     *JobTitleMismatch    `json:"jobTitleMismatch"`
}

// ScoreResult is the output of a reconciliation.
type ScoreResult struct {
	ATSScore            int    `json:"atsScore"`
	ATSScoreExplanation string `json:"atsScoreExplanation"`
}

// Score bands used for display
const (
	ScoreBandStrong = "strong"
	ScoreBandFair   = "fair"
	ScoreBandWeak   = "weak"
)

// ScoreBand classifies an ATS score for display.
func ScoreBand(score int) string {
	switch {
	case score > 75:
		return ScoreBandStrong
	case score > 50:
		return ScoreBandFair
	default:
		return ScoreBandWeak
	}
}

// Resume sections a keyword can be integrated into
const (
	SectionSummary        = "Summary"
	SectionWorkExperience = "Work Experience"
	SectionSkills         = "Skills"
)

// ValidSections lists the sections accepted by keyword integration.
var ValidSections = []string{SectionSummary, SectionWorkExperience, SectionSkills}

// IsValidSection reports whether s is a keyword integration target.
func IsValidSection(s string) bool {
	for _, v := range ValidSections {
		if v == s {
			return true
		}
	}
	return false
}
