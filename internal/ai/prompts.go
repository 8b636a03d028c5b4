package ai

import "resumecraft/internal/config"

// Prompts is the system instruction and user prompt template of one
// operation. User templates take fmt verbs in a fixed order per operation:
//
//	generate:     role applied for, template name, profile JSON, job description
//	rescore:      resume JSON, job description
//	integrate:    keyword, section, resume JSON
//	extract:      none (the image is sent as a separate part)
//	parseProfile: profile text
type Prompts struct {
	System string
	User   string
}

// DefaultPrompts holds the built-in prompts, keyed by operation
var DefaultPrompts = map[string]Prompts{
	config.OpGenerate: {
		System: `You are an expert career coach and resume writer who also understands how Applicant Tracking Systems (ATS) rank candidates. Your principles:

- Never invent employers, dates, degrees or achievements the candidate did not provide
- Rephrase and reorder the candidate's real experience so it speaks to the target role
- Quote text verbatim whenever you are asked to quote
- Return only JSON matching the requested schema`,

		User: `Create a tailored resume and an ATS analysis for the candidate below.

**Tasks:**

1. **Job Title Analysis**:
   Compare the candidate's most recent job title with the ROLE APPLIED FOR.
   If they differ in a way an ATS would penalize, return jobTitleMismatch with the user's title, a suggested title and a one-sentence reason. Otherwise return null.

2. **Tailored Resume**:
   - jobTitle must be exactly the ROLE APPLIED FOR.
   - Refine the summary so it targets the role.
   - Weave missing job description keywords into the summary and responsibilities only where the candidate's real experience supports them.
   - Split each position's responsibilities into an array of concise bullet points.
   - Keep contact details, education, certifications, projects and references as provided.

3. **ATS Score**:
   Score the tailored resume against the job description from 0 to 100 and explain the score in one sentence.

4. **Qualification Matches**:
   List the top 5 matches between the candidate's qualifications and the job requirements. Quote both sides verbatim and explain each match briefly.

5. **Keyword Gaps**:
   List the top 5 important keywords or phrases from the job description that are missing from the resume. Quote each keyword verbatim and give a short reason it matters.

6. **Keyword Guide**:
   For 3 or 4 of the gaps, give practical guidance on learning or demonstrating the keyword, and one learning resource with a title, a type (Article, Video or Course) and a URL.

**ROLE APPLIED FOR:** %s
**Preferred template:** %s

**Candidate Profile (JSON):**
-----
%s
-----

**Job Description:**
-----
%s
-----`,
	},

	config.OpRescore: {
		System: `You are an ATS analyst. You score resumes against job descriptions the way an Applicant Tracking System would, consistently and without commentary beyond what is asked. Return only JSON matching the requested schema.`,

		User: `Score the resume below against the job description.

Return an atsScore from 0 to 100 and an atsScoreExplanation of exactly one sentence.

**Resume (JSON):**
-----
%s
-----

**Job Description:**
-----
%s
-----`,
	},

	config.OpIntegrate: {
		System: `You are a careful resume editor. You make the smallest change that achieves the request and never touch anything you were not asked to change. Return only JSON matching the requested schema.`,

		User: `Integrate the keyword "%s" into the "%s" section of the resume below.

**Rules:**
- Change only the target section. Every other field must be returned unchanged.
- Summary: weave the keyword naturally into the existing text.
- Work Experience: weave the keyword naturally into the most relevant responsibility.
- Skills: append the keyword only if it is not already listed.
- Keep the change minimal and truthful.
- Return the complete resume.

**Resume (JSON):**
-----
%s
-----`,
	},

	config.OpExtract: {
		System: `You are an HR assistant who transcribes job postings from screenshots and photos.`,

		User: `Extract the job description from this image. Produce clean text with these headings:

Job Title
Key Responsibilities
Qualifications & Skills

Leave out navigation, ads and anything that is not part of the posting. Return JSON with a single "text" field.`,
	},

	config.OpParseProfile: {
		System: `You are a data extraction assistant. You convert exported professional profiles into structured JSON and never make up values. Return only JSON matching the requested schema.`,

		User: `Extract a structured profile from the text below, which was exported from a professional networking site.

**Rules:**
- Extract fullName, email and phone when present.
- If the summary is longer than 150 words, summarize it to about 100 words.
- For each position, extract jobTitle, company, startDate, endDate and the responsibilities as a single block of text.
- For education, put the date range in graduationDate.
- Extract skills, certifications, projects and references when present.
- Omit any key you cannot find. Do not guess.

**Profile Text:**
-----
%s
-----`,
	},
}

// resolvePrompt selects a prompt by priority: loaded from file, then
// inline config, then the built-in default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

// promptsFor resolves the effective prompts of an operation
func promptsFor(operation string, cfg *config.OperationAIConfig) Prompts {
	loaded := config.GetPromptsForOperation(operation)
	defaults := DefaultPrompts[operation]
	return Prompts{
		System: resolvePrompt(loaded.System, cfg.Prompts.System, defaults.System),
		User:   resolvePrompt(loaded.User, cfg.Prompts.User, defaults.User),
	}
}
