package quiz

import (
	"strings"
	"testing"

	"github.com/quizline/quizline/internal/model"
)

func testBank(t *testing.T) *Bank {
	t.Helper()
	return &Bank{questions: []model.Question{
		{Prompt: "Q0?", ExpectedAnswer: "19", Feedback: "F0."},
		{Prompt: "Q1?", ExpectedAnswer: "29", Feedback: "F1."},
		{Prompt: "Q2?", ExpectedAnswer: "Memphis", Feedback: "F2."},
	}}
}

func notStarted(key string) model.Session {
	return model.Session{Key: key, Answers: []string{}, LastQuestionIndex: model.NotStartedIndex}
}

func TestStepFirstContact(t *testing.T) {
	e := NewEngine(testBank(t))

	// The first inbound message is only the trigger; its text is ignored.
	for _, body := range []string{"hi", "", "19", "START THE QUIZ"} {
		res, err := e.Step(notStarted("+15551234567"), body)
		if err != nil {
			t.Fatalf("Step(%q): %v", body, err)
		}
		want := WelcomeText + "\n\nQ0?"
		if res.Reply != want {
			t.Errorf("Step(%q) reply = %q, want %q", body, res.Reply, want)
		}
		if res.LastQuestionIndex != 0 {
			t.Errorf("Step(%q) index = %d, want 0", body, res.LastQuestionIndex)
		}
		if len(res.Answers) != 0 {
			t.Errorf("Step(%q) answers = %v, want empty", body, res.Answers)
		}
		if res.Completed {
			t.Errorf("Step(%q) unexpectedly completed", body)
		}
	}
}

func TestStepVerdict(t *testing.T) {
	e := NewEngine(testBank(t))
	sess := notStarted("+15551234567")
	sess.LastQuestionIndex = 0

	tests := []struct {
		name    string
		body    string
		correct bool
	}{
		{"exact match", "19", true},
		{"containment with extra words", "I think it was 19 years old", true},
		{"unrelated text", "MEMPHIS", false},
		{"wrong answer", "42", false},
		{"empty body", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Step(sess, tt.body)
			if err != nil {
				t.Fatalf("Step: %v", err)
			}
			wantPrefix := IncorrectText
			if tt.correct {
				wantPrefix = CorrectText
			}
			if !strings.HasPrefix(res.Reply, wantPrefix+" F0.") {
				t.Errorf("reply = %q, want prefix %q", res.Reply, wantPrefix+" F0.")
			}
		})
	}
}

func TestStepCaseInsensitiveContainment(t *testing.T) {
	e := NewEngine(testBank(t))
	sess := notStarted("+15551234567")
	sess.LastQuestionIndex = 2
	sess.Answers = []string{"19", "29"}

	res, err := e.Step(sess, "it happened in memphis, tennessee")
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !strings.HasPrefix(res.Reply, CorrectText) {
		t.Errorf("expected affirmative verdict, got %q", res.Reply)
	}
}

func TestStepMidQuiz(t *testing.T) {
	e := NewEngine(testBank(t))

	// Answering at any non-final index appends exactly one answer and moves
	// to the next question, correct or not.
	for i := 0; i < e.Bank().Len()-1; i++ {
		sess := notStarted("+15551234567")
		sess.LastQuestionIndex = i
		for j := 0; j < i; j++ {
			sess.Answers = append(sess.Answers, "earlier")
		}

		res, err := e.Step(sess, "whatever")
		if err != nil {
			t.Fatalf("Step at index %d: %v", i, err)
		}
		if res.LastQuestionIndex != i+1 {
			t.Errorf("index %d: next index = %d, want %d", i, res.LastQuestionIndex, i+1)
		}
		if len(res.Answers) != i+1 {
			t.Errorf("index %d: answers len = %d, want %d", i, len(res.Answers), i+1)
		}
		if res.Answers[len(res.Answers)-1] != "whatever" {
			t.Errorf("index %d: last answer = %q", i, res.Answers[len(res.Answers)-1])
		}
		next, _ := e.Bank().Get(i + 1)
		if !strings.HasSuffix(res.Reply, "\n\n"+next.Prompt) {
			t.Errorf("index %d: reply %q does not end with next prompt", i, res.Reply)
		}
		if res.Completed {
			t.Errorf("index %d: unexpectedly completed", i)
		}
	}
}

func TestStepTerminal(t *testing.T) {
	e := NewEngine(testBank(t))
	sess := notStarted("+15551234567")
	sess.LastQuestionIndex = 2
	sess.Answers = []string{"19", "29"}

	res, err := e.Step(sess, "Memphis")
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !res.Completed {
		t.Fatal("expected completed turn")
	}
	if res.LastQuestionIndex != model.NotStartedIndex {
		t.Errorf("next index = %d, want %d", res.LastQuestionIndex, model.NotStartedIndex)
	}
	if len(res.Answers) != 3 {
		t.Fatalf("completed answers len = %d, want 3", len(res.Answers))
	}
	if res.Answers[2] != "Memphis" {
		t.Errorf("final answer = %q, want %q", res.Answers[2], "Memphis")
	}
	if !strings.HasSuffix(res.Reply, "\n\n"+ClosingText) {
		t.Errorf("reply %q does not end with closing text", res.Reply)
	}
}

func TestStepTerminalReplayIsFresh(t *testing.T) {
	e := NewEngine(testBank(t))
	sess := notStarted("+15551234567")
	sess.LastQuestionIndex = 2
	sess.Answers = []string{"19", "29"}

	// Stepping twice from the same persisted session must not compound the
	// answer list: a retried terminal turn recomputes it from scratch.
	first, err := e.Step(sess, "Memphis")
	if err != nil {
		t.Fatalf("first Step: %v", err)
	}
	second, err := e.Step(sess, "Memphis")
	if err != nil {
		t.Fatalf("second Step: %v", err)
	}
	if len(first.Answers) != 3 || len(second.Answers) != 3 {
		t.Errorf("answers len = %d and %d, want 3 and 3", len(first.Answers), len(second.Answers))
	}
	if len(sess.Answers) != 2 {
		t.Errorf("input session mutated: answers len = %d, want 2", len(sess.Answers))
	}
}

func TestStepIndexPastBank(t *testing.T) {
	e := NewEngine(testBank(t))
	sess := notStarted("+15551234567")
	sess.LastQuestionIndex = 99

	if _, err := e.Step(sess, "hi"); err == nil {
		t.Error("expected error for index past the bank")
	}
}
