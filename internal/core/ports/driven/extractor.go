package driven

import "context"

// PageExtractor turns a policy file into per-page text.
type PageExtractor interface {
	// Extract returns the text of each page in order.
	// Pages without text are returned as empty strings.
	Extract(ctx context.Context, path string) ([]string, error)

	// PageCount returns the number of pages in the document.
	PageCount(ctx context.Context, path string) (int, error)

	// Supports returns true if the extractor handles the file.
	Supports(path string) bool
}

// CommandRunner executes external programs.
// It exists so extractors that shell out can be tested without the tool installed.
type CommandRunner interface {
	// Run executes name with args and returns standard output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// LookPath reports whether name is available.
	LookPath(name string) error
}
