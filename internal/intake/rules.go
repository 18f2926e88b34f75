package intake

import "studybridge/pkg/types"

// RequiredRule declares a document category every application should carry,
// the alternative categories that also satisfy it, and what to tell the
// student when it is unmet. The rule set is fixed at process start.
type RequiredRule struct {
	Category       string
	Alternatives   []string
	Recommendation string
}

var RequiredRules = []RequiredRule{
	{
		Category:       types.CategoryTranscripts,
		Recommendation: "Upload your academic transcripts so we can shortlist universities for you.",
	},
	{
		Category:     types.CategoryLanguageTest,
		Alternatives: []string{types.CategoryIELTS, types.CategoryTOEFL, types.CategoryPTE},
		Recommendation: "Add an accepted English test result (IELTS, TOEFL or PTE). " +
			"Duolingo results alone are not accepted by most partner universities.",
	},
	{
		Category:       types.CategoryPassport,
		Recommendation: "A passport copy is required before any visa paperwork can begin.",
	},
	{
		Category:       types.CategoryStatement,
		Recommendation: "A statement of purpose strengthens every application. Draft one and upload it here.",
	},
	{
		Category:     types.CategoryFinancial,
		Alternatives: []string{types.CategoryBankStatement, types.CategorySponsorship},
		Recommendation: "Upload a bank statement or sponsorship letter to show proof of funds.",
	},
}

// Recommendations returns the recommendation string of every required rule
// not satisfied by the uploaded category set. A rule is satisfied by its own
// category or any of its listed alternatives; any other category, such as an
// unaccepted test type, does not count.
func Recommendations(uploaded []string) []string {
	have := make(map[string]struct{}, len(uploaded))
	for _, category := range uploaded {
		have[category] = struct{}{}
	}

	var out []string
	for _, rule := range RequiredRules {
		if _, ok := have[rule.Category]; ok {
			continue
		}

		satisfied := false
		for _, alt := range rule.Alternatives {
			if _, ok := have[alt]; ok {
				satisfied = true
				break
			}
		}

		if !satisfied {
			out = append(out, rule.Recommendation)
		}
	}

	return out
}
