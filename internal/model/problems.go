package model

import (
	"context"
	"database/sql"
	"encoding/json"

	appErr "gavel/pkg/errors"
)

// ProblemsModel is the judge's read-only view of the problems table.
type ProblemsModel interface {
	FindOne(ctx context.Context, id string) (*Problem, error)
}

type defaultProblemsModel struct {
	conn *sql.DB
}

// NewProblemsModel returns a model for the problems table.
func NewProblemsModel(conn *sql.DB) ProblemsModel {
	return &defaultProblemsModel{conn: conn}
}

func (m *defaultProblemsModel) FindOne(ctx context.Context, id string) (*Problem, error) {
	const query = `SELECT id, time_limit, memory_limit,
		COALESCE(checker_code, ''), COALESCE(checker_language, ''),
		COALESCE(test_cases, '[]'), COALESCE(test_data_key, ''), COALESCE(test_data_hash, '')
		FROM problems WHERE id = $1`
	row := m.conn.QueryRowContext(ctx, query, id)

	var p Problem
	var cases []byte
	err := row.Scan(
		&p.ID, &p.TimeLimitMs, &p.MemoryLimitMB,
		&p.CheckerCode, &p.CheckerLanguage,
		&cases, &p.TestDataKey, &p.TestDataHash,
	)
	if err == sql.ErrNoRows {
		return nil, appErr.New(appErr.ProblemNotFound)
	}
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "load problem failed")
	}
	if len(cases) > 0 {
		if err := json.Unmarshal(cases, &p.TestCases); err != nil {
			return nil, appErr.Wrapf(err, appErr.DatabaseError, "decode test cases failed")
		}
	}
	return &p, nil
}
