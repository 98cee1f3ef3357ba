package api

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/trezcool/olympia/core/qcm"
)

const (
	sessionsPath = "/qcm/sessions"
	attemptsPath = "/qcm/attempts"
)

func attemptPath(id string, sub ...string) string {
	p := attemptsPath + "/" + url.PathEscape(id)
	for _, s := range sub {
		p += "/" + s
	}
	return p
}

// ListSessions lists the QCM sessions the logged in candidate may attempt.
func (c *Client) ListSessions(ctx context.Context) ([]qcm.Session, error) {
	var sessions []qcm.Session
	err := c.Get(ctx, sessionsPath, nil, &sessions)
	return sessions, errors.Wrap(err, "listing sessions")
}

// StartAttempt starts (or resumes) the candidate's attempt of a session; the backend sets its deadline.
func (c *Client) StartAttempt(ctx context.Context, sessionID string) (qcm.Attempt, error) {
	var attempt qcm.Attempt
	err := c.Post(ctx, sessionsPath+"/"+url.PathEscape(sessionID)+"/attempts", nil, &attempt)
	return attempt, errors.Wrap(err, "starting attempt")
}

func (c *Client) GetAttempt(ctx context.Context, attemptID string) (qcm.Attempt, error) {
	var attempt qcm.Attempt
	err := c.Get(ctx, attemptPath(attemptID), nil, &attempt)
	return attempt, errors.Wrap(err, "getting attempt")
}

// SubmitAnswer records the answer to one question; a later answer to the same question replaces it.
func (c *Client) SubmitAnswer(ctx context.Context, attemptID string, ans qcm.Answer) (qcm.Answer, error) {
	if err := ans.Validate(c.validate, c.translator); err != nil {
		return qcm.Answer{}, err
	}
	if ans.AnsweredAt.IsZero() {
		ans.AnsweredAt = c.nowFunc().UTC()
	}
	var saved qcm.Answer
	err := c.Post(ctx, attemptPath(attemptID, "answers"), ans, &saved)
	return saved, errors.Wrap(err, "submitting answer")
}

// ReportTabSwitch reports that the candidate left the exam tab. The returned attempt may be
// expired once the session's tab switch limit is exceeded.
func (c *Client) ReportTabSwitch(ctx context.Context, attemptID string, ts qcm.TabSwitch) (qcm.Attempt, error) {
	var attempt qcm.Attempt
	err := c.Post(ctx, attemptPath(attemptID, "tab-switches"), ts, &attempt)
	return attempt, errors.Wrap(err, "reporting tab switch")
}

// FinishAttempt submits the attempt and returns its result.
func (c *Client) FinishAttempt(ctx context.Context, attemptID string) (qcm.Result, error) {
	var result qcm.Result
	err := c.Post(ctx, attemptPath(attemptID, "finish"), nil, &result)
	return result, errors.Wrap(err, "finishing attempt")
}
