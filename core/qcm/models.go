// Package qcm holds the payloads of the timed multiple-choice exams (QCM): sessions, attempts,
// answers and results. Attempt state and scoring live on the backend; the countdown helpers
// only derive display values from the attempt's deadline.
package qcm

import (
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/olympia/core"
)

// Attempt statuses
const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
	StatusExpired    = "expired"
)

type Session struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Level           string    `json:"level"`
	DurationMinutes int       `json:"durationMinutes"`
	StartsAt        time.Time `json:"startsAt"` // UTC
	EndsAt          time.Time `json:"endsAt"`   // UTC
	QuestionCount   int       `json:"questionCount"`
	MaxTabSwitches  int       `json:"maxTabSwitches"` // 0: unlimited
}

func (s Session) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// IsOpen reports whether attempts may be started at `now`.
func (s Session) IsOpen(now time.Time) bool {
	return !now.Before(s.StartsAt) && now.Before(s.EndsAt)
}

type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Question struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Multiple bool     `json:"multiple"` // several choices may be selected
	Points   float64  `json:"points"`
	Choices  []Choice `json:"choices"`
}

type Attempt struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"sessionId"`
	CandidateID string     `json:"candidateId"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`  // UTC
	DeadlineAt  time.Time  `json:"deadlineAt"` // UTC
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	TabSwitches int        `json:"tabSwitches"`
	Questions   []Question `json:"questions,omitempty"`
	Answers     []Answer   `json:"answers,omitempty"`
}

func (a Attempt) IsInProgress() bool { return a.Status == StatusInProgress }

// Remaining returns the time left before the deadline; it is never negative and is 0 once the
// attempt is no longer in progress.
func (a Attempt) Remaining(now time.Time) time.Duration {
	if !a.IsInProgress() {
		return 0
	}
	if left := a.DeadlineAt.Sub(now); left > 0 {
		return left
	}
	return 0
}

// Expired reports whether the attempt is expired, or still in progress past its deadline.
func (a Attempt) Expired(now time.Time) bool {
	if a.Status == StatusExpired {
		return true
	}
	return a.IsInProgress() && !now.Before(a.DeadlineAt)
}

// Answered returns the answer given to question `questionID`, if any.
func (a Attempt) Answered(questionID string) (Answer, bool) {
	for _, ans := range a.Answers {
		if ans.QuestionID == questionID {
			return ans, true
		}
	}
	return Answer{}, false
}

type Answer struct {
	QuestionID string    `json:"questionId" validate:"required"`
	ChoiceIDs  []string  `json:"choiceIds" validate:"required,min=1,unique,dive,required"`
	AnsweredAt time.Time `json:"answeredAt"` // UTC
}

func (ans *Answer) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, ans)
}

// TabSwitch reports that the candidate left the exam tab.
type TabSwitch struct {
	LeftAt     time.Time  `json:"leftAt"`               // UTC
	ReturnedAt *time.Time `json:"returnedAt,omitempty"` // UTC; nil if not back yet
}

// Away returns how long the candidate stayed away, 0 if not back yet.
func (ts TabSwitch) Away() time.Duration {
	if ts.ReturnedAt == nil || ts.ReturnedAt.Before(ts.LeftAt) {
		return 0
	}
	return ts.ReturnedAt.Sub(ts.LeftAt)
}

type QuestionScore struct {
	QuestionID string  `json:"questionId"`
	IsCorrect  bool    `json:"isCorrect"`
	Points     float64 `json:"points"`
}

type Result struct {
	AttemptID   string          `json:"attemptId"`
	Score       float64         `json:"score"`
	MaxScore    float64         `json:"maxScore"`
	Scores      []QuestionScore `json:"scores"`
	SubmittedAt time.Time       `json:"submittedAt"` // UTC
}

// Percent returns the score as a percentage of the max score.
func (r Result) Percent() float64 {
	if r.MaxScore <= 0 {
		return 0
	}
	return r.Score * 100 / r.MaxScore
}

// FormatCountdown renders d as MM:SS, or H:MM:SS from one hour on. Negative durations render as 00:00.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second) / time.Second)
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
