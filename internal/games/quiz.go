package games

// Question is one quiz entry: a prompt, its options and the correct index.
type Question struct {
	Prompt       string
	Options      []string
	CorrectIndex int
}

// QuizBank serves a fixed ordered question sequence through a cyclic
// cursor: answering advances to the next question and wraps after the last.
type QuizBank struct {
	questions []Question
	cursor    int
}

// NewQuizBank builds a bank over the given sequence. An empty sequence
// falls back to the default set.
func NewQuizBank(questions []Question) *QuizBank {
	if len(questions) == 0 {
		questions = DefaultQuestions()
	}

	return &QuizBank{questions: questions}
}

// DefaultQuestions returns the product's original question set.
func DefaultQuestions() []Question {
	return []Question{
		{Prompt: "Capital of Pakistan?", Options: []string{"Lahore", "Islamabad", "Karachi"}, CorrectIndex: 1},
		{Prompt: "Currency of USA?", Options: []string{"Euro", "Yen", "Dollar"}, CorrectIndex: 2},
		{Prompt: "2 + 2 = ?", Options: []string{"3", "4", "5"}, CorrectIndex: 1},
	}
}

// Current returns the question at the cursor.
func (b *QuizBank) Current() Question {
	return b.questions[b.cursor]
}

// Answer checks the chosen option against the current question and advances
// the cursor, wrapping to the start after the last question.
func (b *QuizBank) Answer(index int) bool {
	correct := index == b.questions[b.cursor].CorrectIndex
	b.cursor = (b.cursor + 1) % len(b.questions)

	return correct
}

// Len reports the number of questions in the bank.
func (b *QuizBank) Len() int {
	return len(b.questions)
}
