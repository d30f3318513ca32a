package quiz

import (
	"fmt"
	"strings"

	"github.com/quizline/quizline/internal/model"
)

// Result is the outcome of one turn: the reply to send and the session fields
// to persist. When Completed is true, Answers holds the full answer set for
// export and the persisted fields are the reset values.
type Result struct {
	Reply             string
	Answers           []string
	LastQuestionIndex int
	Completed         bool
}

// Engine computes quiz turns against a fixed question bank. Step is pure:
// it never performs I/O, so a turn can be replayed against a refetched
// session after a write conflict or a failed export.
type Engine struct {
	bank *Bank
}

// NewEngine creates an engine over the given bank.
func NewEngine(bank *Bank) *Engine {
	return &Engine{bank: bank}
}

// Bank returns the engine's question bank.
func (e *Engine) Bank() *Bank {
	return e.bank
}

// Step advances a session by one turn. The incoming body is the answer to the
// pending question, except on first contact where it is only the trigger and
// is ignored.
func (e *Engine) Step(sess model.Session, body string) (Result, error) {
	if sess.State() == model.StateNotStarted {
		first, ok := e.bank.Get(0)
		if !ok {
			return Result{}, fmt.Errorf("question bank is empty")
		}
		return Result{
			Reply:             WelcomeText + "\n\n" + first.Prompt,
			Answers:           []string{},
			LastQuestionIndex: 0,
		}, nil
	}

	i := sess.LastQuestionIndex
	q, ok := e.bank.Get(i)
	if !ok {
		return Result{}, fmt.Errorf("session %s points past the question bank (index %d of %d)", sess.Key, i, e.bank.Len())
	}

	verdict := IncorrectText
	if strings.Contains(strings.ToLower(body), strings.ToLower(q.ExpectedAnswer)) {
		verdict = CorrectText
	}
	reply := verdict + " " + q.Feedback + "\n\n"

	// Recompute the answer set from the persisted session every time, so a
	// replayed terminal turn after a failed export carries a fresh copy.
	answers := make([]string, 0, len(sess.Answers)+1)
	answers = append(answers, sess.Answers...)
	answers = append(answers, body)

	if e.bank.IsLast(i) {
		return Result{
			Reply:             reply + ClosingText,
			Answers:           answers,
			LastQuestionIndex: model.NotStartedIndex,
			Completed:         true,
		}, nil
	}

	next, ok := e.bank.Get(i + 1)
	if !ok {
		return Result{}, fmt.Errorf("no question at index %d", i+1)
	}
	return Result{
		Reply:             reply + next.Prompt,
		Answers:           answers,
		LastQuestionIndex: i + 1,
	}, nil
}
