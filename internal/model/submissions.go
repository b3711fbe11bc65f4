package model

import (
	"context"
	"database/sql"
	"encoding/json"

	appErr "gavel/pkg/errors"
)

// SubmissionsModel is the judge's view of the submissions table.
type SubmissionsModel interface {
	// MarkJudging performs the conditional PENDING/JUDGING -> JUDGING claim.
	// Returns false when the row is already terminal (redelivered job).
	MarkJudging(ctx context.Context, id string) (bool, error)

	// FinishJudging writes the final verdict and per-test output.
	FinishJudging(ctx context.Context, id string, final FinalResult) error

	// FindOne loads a submission row.
	FindOne(ctx context.Context, id string) (*Submission, error)
}

type defaultSubmissionsModel struct {
	conn *sql.DB
}

// NewSubmissionsModel returns a model for the submissions table.
func NewSubmissionsModel(conn *sql.DB) SubmissionsModel {
	return &defaultSubmissionsModel{conn: conn}
}

func (m *defaultSubmissionsModel) MarkJudging(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE submissions SET verdict = $1 WHERE id = $2 AND verdict IN ($3, $4)`
	res, err := m.conn.ExecContext(ctx, query, VerdictJudging, id, VerdictPending, VerdictJudging)
	if err != nil {
		return false, appErr.Wrapf(err, appErr.DatabaseError, "mark submission judging failed")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, appErr.Wrapf(err, appErr.DatabaseError, "mark submission judging failed")
	}
	return affected > 0, nil
}

func (m *defaultSubmissionsModel) FinishJudging(ctx context.Context, id string, final FinalResult) error {
	output, err := json.Marshal(final.JudgeOutput)
	if err != nil {
		return appErr.Wrapf(err, appErr.InternalServerError, "encode judge output failed")
	}
	const query = `UPDATE submissions
		SET verdict = $1,
		    execution_time = $2,
		    memory_used = $3,
		    test_cases_passed = $4,
		    total_test_cases = $5,
		    judge_output = $6,
		    judged_at = $7
		WHERE id = $8`
	_, err = m.conn.ExecContext(ctx, query,
		final.Verdict,
		final.ExecutionTimeMs,
		final.MemoryUsedKB,
		final.TestCasesPassed,
		final.TotalTestCases,
		output,
		final.JudgedAt,
		id,
	)
	if err != nil {
		return appErr.Wrapf(err, appErr.DatabaseError, "persist final verdict failed")
	}
	return nil
}

func (m *defaultSubmissionsModel) FindOne(ctx context.Context, id string) (*Submission, error) {
	const query = `SELECT id, problem_id, user_id, language, code, verdict,
		execution_time, memory_used, test_cases_passed, total_test_cases,
		COALESCE(judge_output, '[]'), submitted_at, judged_at
		FROM submissions WHERE id = $1`
	row := m.conn.QueryRowContext(ctx, query, id)

	var sub Submission
	var output []byte
	var judgedAt sql.NullTime
	err := row.Scan(
		&sub.ID, &sub.ProblemID, &sub.UserID, &sub.Language, &sub.Code, &sub.Verdict,
		&sub.ExecutionTimeMs, &sub.MemoryUsedKB, &sub.TestCasesPassed, &sub.TotalTestCases,
		&output, &sub.SubmittedAt, &judgedAt,
	)
	if err == sql.ErrNoRows {
		return nil, appErr.New(appErr.SubmissionNotFound)
	}
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "load submission failed")
	}
	if len(output) > 0 {
		if err := json.Unmarshal(output, &sub.JudgeOutput); err != nil {
			return nil, appErr.Wrapf(err, appErr.DatabaseError, "decode judge output failed")
		}
	}
	if judgedAt.Valid {
		t := judgedAt.Time
		sub.JudgedAt = &t
	}
	return &sub, nil
}
