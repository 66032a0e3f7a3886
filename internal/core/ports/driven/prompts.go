package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used by the analysis service.
const (
	// PromptSummarySystem is the system instruction for the policy summary.
	PromptSummarySystem = "summary_system"

	// PromptSummaryUser asks for the summary.
	// The template expects one %s placeholder for the full policy text.
	PromptSummaryUser = "summary_user"

	// PromptPageAnalysisSystem is the system instruction for page classification.
	PromptPageAnalysisSystem = "page_analysis_system"

	// PromptPageAnalysisUser introduces the page blocks. It has no placeholders;
	// the "--- PAGE n ---" blocks are appended after a blank line.
	PromptPageAnalysisUser = "page_analysis_user"
)

// PromptStoreAware is implemented by services whose prompts can be customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}

//nolint:lll // Prompt content is long and should not be wrapped.
var defaultPrompts = map[string]string{
	PromptSummarySystem: "You are an expert Insurance Policy Analyst. Your task is to analyze the provided policy text and generate " +
		"a concise, easy-to-understand summary. The summary must be at most 50 lines long. " +
		"Focus on the main coverage, key exclusions, and critical policy definitions.",

	PromptSummaryUser: "Provide a complete, human-readable summary of the following insurance policy text:\n\n%s",

	PromptPageAnalysisSystem: "You are a Policy Segmentation and Classification Agent. Your task is to review each provided page of the policy. " +
		"For each page, you must identify the primary section it covers (Classification) and provide a simplified, " +
		"plain-language summary of that page's content. Do not combine pages. Output ONLY the JSON array.",

	PromptPageAnalysisUser: "Analyze the following policy pages. For each page, identify its main classification (must be one of: " +
		"'Coverage', 'Exclusions', 'Claims Process', 'Deductibles/Limits', 'General Terms', 'Definitions') and " +
		"provide a single, simplified paragraph (the summary). " +
		"Respond with a JSON array of objects with the keys pageNumber, classification and summary.",
}

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// PromptNames lists every well-known prompt.
func PromptNames() []string {
	return []string{
		PromptSummarySystem,
		PromptSummaryUser,
		PromptPageAnalysisSystem,
		PromptPageAnalysisUser,
	}
}
