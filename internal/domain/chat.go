package domain

// Role identifies the author of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PendingContent marks an assistant turn whose answer has not arrived yet
const PendingContent = "..."

// ErrorPrefix is prepended to failure messages shown as assistant turns
const ErrorPrefix = "Error: "

// TurnStatus is the lifecycle phase of a turn
type TurnStatus string

const (
	// TurnComplete turns are created final: user questions and synthetic notices
	TurnComplete TurnStatus = "complete"
	TurnPending  TurnStatus = "pending"
	TurnResolved TurnStatus = "resolved"
	TurnError    TurnStatus = "error"
)

// Turn represents one entry in the conversation
type Turn struct {
	ID      string          `json:"id"`
	Role    Role            `json:"role"`
	Status  TurnStatus      `json:"status"`
	Content string          `json:"content"`
	Sources []SourceExcerpt `json:"sources"`
}

// Pending reports whether the turn is an unresolved assistant placeholder
func (t Turn) Pending() bool {
	return t.Status == TurnPending
}

// HasSources reports whether the turn carries citations
func (t Turn) HasSources() bool {
	return len(t.Sources) > 0
}

// SourceExcerpt represents a cited fragment of the document
type SourceExcerpt struct {
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// QueryRequest is the body sent to the question-answering service
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is the answer returned by the question-answering service
type QueryResponse struct {
	Answer  string          `json:"answer"`
	Sources []SourceExcerpt `json:"sources"`
}

// UploadAck is the acknowledgement returned by the ingestion service.
// Its body is kept for logging only.
type UploadAck struct {
	Raw []byte `json:"-"`
}

// View is a consistent snapshot of everything a renderer needs
type View struct {
	DocumentName string `json:"document_name,omitempty"`
	HasDocument  bool   `json:"has_document"`
	Submitting   bool   `json:"submitting"`
	Turns        []Turn `json:"turns"`
	// Expanded is the index of the turn showing its sources, or -1
	Expanded int    `json:"expanded"`
	Draft    string `json:"draft"`
	Awaiting bool   `json:"awaiting"`
}

// CanAsk reports whether a question submission would be accepted
func (v View) CanAsk() bool {
	return v.HasDocument && !v.Awaiting
}
