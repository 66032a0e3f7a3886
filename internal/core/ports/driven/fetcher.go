package driven

import "context"

// PolicyFetcher retrieves a policy document to a local file.
//
// References take the form scheme://rest. Plain paths are local files.
type PolicyFetcher interface {
	// Scheme returns the reference scheme handled, e.g. "gdrive".
	Scheme() string

	// Fetch materialises ref as a local file. cleanup removes any
	// temporary file and is always safe to call.
	Fetch(ctx context.Context, ref string) (path string, cleanup func(), err error)
}
