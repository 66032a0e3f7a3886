package domain

// IndexState is the lifecycle state of a session's semantic index.
type IndexState string

// Index states. Degraded is terminal for a session.
const (
	IndexUninitialized IndexState = "uninitialized"
	IndexIndexing      IndexState = "indexing"
	IndexOperational   IndexState = "operational"
	IndexDegraded      IndexState = "degraded"
)

// DefaultFailureReason is used when there are no clauses to index.
const DefaultFailureReason = "RAG index is empty or failed to initialize (No clauses processed)."

// IndexEntry is the indexed form of a Clause.
type IndexEntry struct {
	// ID is the clause ID.
	ID string

	// Embedding is the clause vector.
	Embedding []float32

	// Document is the clause text.
	Document string

	// Metadata carries at least the source page.
	Metadata EntryMetadata
}

// EntryMetadata is the metadata stored alongside each entry.
type EntryMetadata struct {
	PageNum int `json:"page_num"`
}

// IndexMatch is a single nearest-neighbour result.
type IndexMatch struct {
	ID         string  `json:"clause_id"`
	Document   string  `json:"document"`
	PageNum    int     `json:"page_num"`
	Similarity float64 `json:"similarity"`
}

// IndexHandle describes a session's index.
// A degraded handle answers every query with FailureReason.
type IndexHandle struct {
	// Collection is the vector backend collection name.
	Collection string `json:"collection"`

	// State is the lifecycle state.
	State IndexState `json:"state"`

	// FailureReason is set when State is IndexDegraded.
	FailureReason string `json:"failure_reason,omitempty"`

	// Count is the number of entries at the time the handle was produced.
	Count int `json:"count"`
}

// NewDegradedHandle returns a handle in the terminal degraded state.
func NewDegradedHandle(collection, reason string) *IndexHandle {
	if reason == "" {
		reason = DefaultFailureReason
	}
	return &IndexHandle{
		Collection:    collection,
		State:         IndexDegraded,
		FailureReason: reason,
	}
}

// NewOperationalHandle returns a handle for a populated collection.
func NewOperationalHandle(collection string, count int) *IndexHandle {
	return &IndexHandle{
		Collection: collection,
		State:      IndexOperational,
		Count:      count,
	}
}

// IsDegraded returns true when queries must short-circuit to FailureReason.
// A nil handle or an empty operational handle counts as degraded.
func (h *IndexHandle) IsDegraded() bool {
	if h == nil {
		return true
	}
	return h.State != IndexOperational || h.Count == 0
}

// Reason returns the failure reason for a degraded handle.
func (h *IndexHandle) Reason() string {
	if h == nil || h.FailureReason == "" {
		return DefaultFailureReason
	}
	return h.FailureReason
}

// IsSettled returns true once indexing has finished, successfully or not.
func (h *IndexHandle) IsSettled() bool {
	return h != nil && (h.State == IndexOperational || h.State == IndexDegraded)
}
