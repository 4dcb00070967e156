package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/rtc6-controller/internal/motionlist"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("list run not found")

// RunSummary is one row of list_runs.
type RunSummary struct {
	RunID            string    `json:"run_id"`
	Host             string    `json:"host"`
	Slot             int       `json:"slot"`
	InstructionCount int       `json:"instruction_count"`
	ExecutedAt       time.Time `json:"executed_at"`
}

// Journal records executed lists for one card. It implements
// motionlist.Journal.
type Journal struct {
	db    *DB
	host  string
	newID func() string
}

// NewJournal returns a journal that tags runs with host.
func NewJournal(db *DB, host string) *Journal {
	return &Journal{db: db, host: host, newID: uuid.NewString}
}

// RecordRun stores the run and its instructions in one transaction.
func (j *Journal) RecordRun(run motionlist.Run) error {
	_, err := j.db.InsertRun(j.newID(), j.host, run)
	return err
}

// InsertRun stores run under runID and returns the id.
func (db *DB) InsertRun(runID, host string, run motionlist.Run) (string, error) {
	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin run %s: %w", runID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO list_runs (run_id, host, slot, instruction_count, executed_at) VALUES (?, ?, ?, ?, ?)`,
		runID, host, run.Slot, len(run.Instructions), run.ExecutedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("insert run %s: %w", runID, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO list_instructions (run_id, seq, kind, x, y, angle) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare instructions: %w", err)
	}
	defer stmt.Close()
	for i, in := range run.Instructions {
		if _, err := stmt.Exec(runID, i, in.Kind.String(), in.X, in.Y, in.AngleDeg); err != nil {
			return "", fmt.Errorf("insert instruction %d of run %s: %w", i, runID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", runID, err)
	}
	return runID, nil
}

// Runs returns the most recent runs first. A non-positive limit means 100.
func (db *DB) Runs(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`SELECT run_id, host, slot, instruction_count, executed_at
		FROM list_runs ORDER BY executed_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r          RunSummary
			executedAt string
		)
		if err := rows.Scan(&r.RunID, &r.Host, &r.Slot, &r.InstructionCount, &executedAt); err != nil {
			return nil, err
		}
		if r.ExecutedAt, err = time.Parse(time.RFC3339Nano, executedAt); err != nil {
			return nil, fmt.Errorf("run %s: bad executed_at %q: %w", r.RunID, executedAt, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// RunInstructions returns the instructions of a run in execution order.
func (db *DB) RunInstructions(runID string) ([]motionlist.Instruction, error) {
	var count int
	err := db.QueryRow(`SELECT instruction_count FROM list_runs WHERE run_id = ?`, runID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT kind, x, y, angle FROM list_instructions WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]motionlist.Instruction, 0, count)
	for rows.Next() {
		var (
			kind string
			in   motionlist.Instruction
		)
		if err := rows.Scan(&kind, &in.X, &in.Y, &in.AngleDeg); err != nil {
			return nil, err
		}
		if in.Kind, err = motionlist.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
