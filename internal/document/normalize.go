package document

import "resumecraft/internal/types"

// Normalize returns a copy of doc in which every absent sequence is an
// empty slice. External responses may omit optional arrays; templates and
// path edits rely on them being present. doc is not modified.
func Normalize(doc *types.TailoredResumeData) *types.TailoredResumeData {
	if doc == nil {
		doc = &types.TailoredResumeData{}
	}
	out := *doc

	out.WorkExperience = normalizeWork(out.WorkExperience)
	out.Education = orEmpty(out.Education)
	out.Skills = orEmpty(out.Skills)
	out.Certifications = orEmpty(out.Certifications)
	out.References = orEmpty(out.References)
	out.Projects = orEmpty(out.Projects)
	out.AdditionalExperience = orEmpty(out.AdditionalExperience)
	out.AdditionalInfo = orEmpty(out.AdditionalInfo)

	return &out
}

// NormalizeResult normalizes the embedded document and the result's own
// sequences. result is not modified.
func NormalizeResult(result *types.AnalysisResult) *types.AnalysisResult {
	if result == nil {
		result = &types.AnalysisResult{}
	}
	out := *result

	out.TailoredResume = *Normalize(&result.TailoredResume)
	out.QualificationMatches = orEmpty(out.QualificationMatches)
	out.KeywordGaps = orEmpty(out.KeywordGaps)
	out.KeywordGuide = orEmpty(out.KeywordGuide)
	if out.JobTitleMismatch != nil {
		m := *out.JobTitleMismatch
		out.JobTitleMismatch = &m
	}

	return &out
}

// NormalizeProfile fills absent sequences of a (possibly partial) profile.
func NormalizeProfile(profile *types.ProfileData) *types.ProfileData {
	if profile == nil {
		profile = &types.ProfileData{}
	}
	out := *profile

	out.WorkExperience = orEmpty(out.WorkExperience)
	out.Education = orEmpty(out.Education)
	out.Skills = orEmpty(out.Skills)
	out.Certifications = orEmpty(out.Certifications)
	out.References = orEmpty(out.References)
	out.Projects = orEmpty(out.Projects)
	out.AdditionalExperience = orEmpty(out.AdditionalExperience)

	return &out
}

func normalizeWork(work []types.WorkExperience) []types.WorkExperience {
	if work == nil {
		return []types.WorkExperience{}
	}
	for i := range work {
		if work[i].Responsibilities == nil {
			// Copy before filling so the caller's slice stays untouched.
			fixed := make([]types.WorkExperience, len(work))
			copy(fixed, work)
			for j := range fixed {
				fixed[j].Responsibilities = orEmpty(fixed[j].Responsibilities)
			}
			return fixed
		}
	}
	return work
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
