package quiz

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/quizline/quizline/internal/model"
)

// Message copy sent around the questions. Edit these to change the quiz voice.
const (
	WelcomeText   = `Thanks for playing Minds on King Trivia! Let's get started.`
	ClosingText   = `Thank you for playing!`
	CorrectText   = `You got it.`
	IncorrectText = `Hmm, not quite.`
)

// defaultQuestions is the built-in question set, used when no questions file
// is configured.
var defaultQuestions = []model.Question{
	{
		Prompt:         `How old was Martin Luther King Jr. when he graduated from Morehouse College with a degree in Sociology?`,
		ExpectedAnswer: `19`,
		Feedback:       `After skipping 9th and 12th grades and entering college at 15, MLK was 19 when he earned his first degree. He would earn another BA and a Ph.D. by 1955.`,
	},
	{
		Prompt:         `How many times was MLK sent to jail?`,
		ExpectedAnswer: `29`,
		Feedback:       `During MLK's career as an activist he was jailed 29 times, often for trumped-up offenses and civil disobedience.`,
	},
	{
		Prompt:         `MLK once said "I may not get there with you. But I want you to know tonight, that we, as a people, will get to the Promised Land." In what U.S. city were these words said, shortly before he was assassinated on April 4, 1968?`,
		ExpectedAnswer: `Memphis`,
		Feedback:       `Dr. King said these words and was later assassinated in Memphis, Tenneesee while supporting a workers' strike.`,
	},
	{
		Prompt:         `And finally, for a nerdy one - which iconic sci-fi character did MLK play a role in preserving?`,
		ExpectedAnswer: `Uhura`,
		Feedback:       `MLK convinced Nichelle Nichols to continue playing Lieutentant Uhura on "Star Trek" after the first season because she was playing a major character who did not conform to stereotypes of the day. Black actors (like Whoopi Goldberg) and space explorers (like Ronald McNair) cited Uhura as an inspiration for their work.`,
	},
}

// Bank is a read-only ordered sequence of questions, fixed at process start.
type Bank struct {
	questions []model.Question
}

// DefaultBank returns a bank with the built-in question set.
func DefaultBank() *Bank {
	return &Bank{questions: defaultQuestions}
}

// LoadBank reads questions from a JSON file. The file holds an array of
// {prompt, expected_answer, feedback} objects.
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%s contains no questions", path)
	}
	for i, q := range questions {
		if q.Prompt == "" || q.ExpectedAnswer == "" {
			return nil, fmt.Errorf("%s: question %d is missing a prompt or expected answer", path, i)
		}
	}

	return &Bank{questions: questions}, nil
}

// Get returns the question at index i, or false when i is out of range.
// Callers treat an out-of-range lookup as "no more questions".
func (b *Bank) Get(i int) (model.Question, bool) {
	if i < 0 || i >= len(b.questions) {
		return model.Question{}, false
	}
	return b.questions[i], true
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// IsLast reports whether i is the final question index.
func (b *Bank) IsLast(i int) bool {
	return i == len(b.questions)-1
}
