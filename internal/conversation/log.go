// Package conversation holds the ordered turns of one document conversation
// and the placeholder protocol used while an answer is outstanding.
package conversation

import (
	"sync"

	"github.com/google/uuid"

	"github.com/liliang-cn/pdfinsight/internal/domain"
)

// NoExpansion is the Expanded value when no turn shows its sources
const NoExpansion = -1

// Log is an append-only sequence of turns. The only in-place mutation is the
// settlement of a pending assistant turn, addressed by its id.
type Log struct {
	mu       sync.RWMutex
	turns    []domain.Turn
	expanded int
}

// NewLog creates an empty log
func NewLog() *Log {
	return &Log{expanded: NoExpansion}
}

// AppendExchange appends the user turn and its pending assistant turn as one step.
// It returns the id of the pending turn.
func (l *Log) AppendExchange(question string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.awaitingLocked() {
		return "", domain.ErrQuestionInFlight
	}

	pending := newTurn(domain.RoleAssistant, domain.TurnPending, domain.PendingContent)
	l.turns = append(l.turns, newTurn(domain.RoleUser, domain.TurnComplete, question), pending)
	return pending.ID, nil
}

// Resolve replaces the content and sources of the pending turn id.
//
// An id that is no longer in the log returns ErrTurnNotFound and changes nothing.
// An id that is present but no longer the pending tail returns ErrStaleTurn; the
// answer is dropped and an error turn is appended in its place.
func (l *Log) Resolve(id, answer string, sources []domain.SourceExcerpt) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return domain.ErrTurnNotFound
	}
	if i != len(l.turns)-1 || !l.turns[i].Pending() {
		l.turns = append(l.turns, newTurn(domain.RoleAssistant, domain.TurnError, domain.ErrorPrefix+"answer arrived out of order"))
		return domain.ErrStaleTurn
	}

	l.turns[i].Status = domain.TurnResolved
	l.turns[i].Content = answer
	l.turns[i].Sources = copySources(sources)
	return nil
}

// Fail swaps the pending turn id for an assistant error turn. The user turn stays.
func (l *Log) Fail(id, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return domain.ErrTurnNotFound
	}
	if !l.turns[i].Pending() {
		return domain.ErrStaleTurn
	}

	l.turns[i] = newTurn(domain.RoleAssistant, domain.TurnError, domain.ErrorPrefix+message)
	return nil
}

// Reset discards every turn and starts over with one assistant turn
func (l *Log) Reset(status domain.TurnStatus, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = []domain.Turn{newTurn(domain.RoleAssistant, status, content)}
}

// ToggleExpand collapses index if it is expanded, otherwise expands it
func (l *Log) ToggleExpand(index int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.expanded == index {
		l.expanded = NoExpansion
		return
	}
	l.expanded = index
}

// Expanded returns the index of the expanded turn, or NoExpansion
func (l *Log) Expanded() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.expanded
}

// AwaitingAnswer reports whether the last turn is a pending placeholder
func (l *Log) AwaitingAnswer() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.awaitingLocked()
}

// Len returns the number of turns
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.turns)
}

// Turns returns a copy of every turn in order
func (l *Log) Turns() []domain.Turn {
	turns, _ := l.Snapshot()
	return turns
}

// Snapshot returns a copy of the turns together with the expanded index
func (l *Log) Snapshot() ([]domain.Turn, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Turn, len(l.turns))
	for i, t := range l.turns {
		t.Sources = copySources(t.Sources)
		out[i] = t
	}
	return out, l.expanded
}

func (l *Log) awaitingLocked() bool {
	n := len(l.turns)
	return n > 0 && l.turns[n-1].Pending()
}

// indexLocked scans from the tail; the settled turn is almost always last
func (l *Log) indexLocked(id string) int {
	for i := len(l.turns) - 1; i >= 0; i-- {
		if l.turns[i].ID == id {
			return i
		}
	}
	return -1
}

func newTurn(role domain.Role, status domain.TurnStatus, content string) domain.Turn {
	return domain.Turn{
		ID:      uuid.New().String(),
		Role:    role,
		Status:  status,
		Content: content,
		Sources: []domain.SourceExcerpt{},
	}
}

func copySources(sources []domain.SourceExcerpt) []domain.SourceExcerpt {
	out := make([]domain.SourceExcerpt, len(sources))
	copy(out, sources)
	return out
}
