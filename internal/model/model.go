package model

import (
	"time"
)

// SessionState is the explicit lifecycle tag for a participant session.
type SessionState string

const (
	// StateNotStarted means no question has been sent to the participant yet.
	StateNotStarted SessionState = "not_started"
	// StateAwaitingAnswer means a question has been sent and a reply is pending.
	StateAwaitingAnswer SessionState = "awaiting_answer"
)

// NotStartedIndex is the sentinel LastQuestionIndex of a session that has not
// been sent its first question. Creation and reset both store this value
// together with an empty answer list, so the state tag derives from the index
// alone.
const NotStartedIndex = -1

// Session is the durable per-participant quiz progress record. The key is the
// transport-level sender identity, used verbatim.
type Session struct {
	Key               string    `json:"key"`
	Answers           []string  `json:"answers"`
	LastQuestionIndex int       `json:"last_question_index"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// State returns the session's lifecycle tag.
func (s Session) State() SessionState {
	if s.LastQuestionIndex == NotStartedIndex {
		return StateNotStarted
	}
	return StateAwaitingAnswer
}

// Question is one immutable quiz entry. ExpectedAnswer is matched as a
// case-insensitive substring of the participant's reply; Feedback is shown
// after the verdict regardless of correctness.
type Question struct {
	Prompt         string `json:"prompt"`
	ExpectedAnswer string `json:"expected_answer"`
	Feedback       string `json:"feedback"`
}

// CompletedRun records one exported quiz run for auditing and offline export.
type CompletedRun struct {
	ID         string    `json:"id"`
	SessionKey string    `json:"session_key"`
	Answers    []string  `json:"answers"`
	ExportedAt time.Time `json:"exported_at"`
}

// RunExport is the top-level document produced by the export subcommand.
// NumQuestions is the answer count of the newest run; individual runs carry
// their own answer lists and may predate a bank change.
type RunExport struct {
	NumQuestions int            `json:"num_questions"`
	Runs         []CompletedRun `json:"runs"`
}

// QuizConfig holds runtime parameters set via CLI flags.
type QuizConfig struct {
	ExportURL    string   // webhook receiving completed answer sets
	AdminNumbers []string // senders allowed to run admin commands
}
