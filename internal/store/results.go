package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ppiankov/argintel/internal/model"
)

// SaveArguments inserts or updates arguments
func (s *Store) SaveArguments(ctx context.Context, args []model.Argument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO arguments (id, bill_id, user_id, comment_id, position, strength, reasoning, claims, evidence, created_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			position=excluded.position, strength=excluded.strength, reasoning=excluded.reasoning,
			claims=excluded.claims, evidence=excluded.evidence, processed_at=excluded.processed_at`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range args {
		claims, err := marshal(a.Claims)
		if err != nil {
			return fmt.Errorf("encoding claims of %s: %w", a.ID, err)
		}
		evidence, err := marshal(a.Evidence)
		if err != nil {
			return fmt.Errorf("encoding evidence of %s: %w", a.ID, err)
		}
		var processed sql.NullString
		if a.ProcessedAt != nil {
			processed = sql.NullString{String: formatTime(*a.ProcessedAt), Valid: true}
		}
		_, err = stmt.ExecContext(ctx,
			a.ID, a.BillID, a.UserID, a.CommentID, string(a.Position), a.Strength, a.Reasoning,
			claims, evidence, formatTime(a.CreatedAt), processed)
		if err != nil {
			return fmt.Errorf("inserting argument %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// FindArgumentsByBill returns a bill's arguments ordered by creation time
func (s *Store) FindArgumentsByBill(ctx context.Context, billID string) ([]model.Argument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bill_id, user_id, comment_id, position, strength, reasoning, claims, evidence, created_at, processed_at
		 FROM arguments WHERE bill_id = ? ORDER BY created_at, id`, billID)
	if err != nil {
		return nil, fmt.Errorf("querying arguments: %w", err)
	}
	defer rows.Close()

	var args []model.Argument
	for rows.Next() {
		var a model.Argument
		var commentID, reasoning, created, processed sql.NullString
		var position, claims, evidence string
		if err := rows.Scan(&a.ID, &a.BillID, &a.UserID, &commentID, &position, &a.Strength,
			&reasoning, &claims, &evidence, &created, &processed); err != nil {
			return nil, fmt.Errorf("scanning argument: %w", err)
		}
		a.CommentID, a.Reasoning, a.Position = commentID.String, reasoning.String, model.Position(position)
		if err := json.Unmarshal([]byte(claims), &a.Claims); err != nil {
			return nil, fmt.Errorf("decoding claims of %s: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(evidence), &a.Evidence); err != nil {
			return nil, fmt.Errorf("decoding evidence of %s: %w", a.ID, err)
		}
		if a.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parsing created_at of %s: %w", a.ID, err)
		}
		if processed.Valid {
			t, err := parseTime(processed)
			if err != nil {
				return nil, fmt.Errorf("parsing processed_at of %s: %w", a.ID, err)
			}
			a.ProcessedAt = &t
		}
		args = append(args, a)
	}
	return args, rows.Err()
}

// beginRun registers a pipeline run of a bill. Registering the same run
// again is a no-op.
func beginRun(ctx context.Context, tx *sql.Tx, runID, billID string) error {
	if runID == "" {
		return errors.New("run ID is required")
	}
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO runs (id, bill_id) VALUES (?, ?)`, runID, billID)
	if err != nil {
		return fmt.Errorf("registering run %s: %w", runID, err)
	}
	return nil
}

// latestRun selects the most recent run of a bill
const latestRun = `(SELECT id FROM runs WHERE bill_id = ? ORDER BY seq DESC LIMIT 1)`

// SaveClusters records the clusters of one run. Earlier runs are kept.
// Member arguments must already be saved.
func (s *Store) SaveClusters(ctx context.Context, runID, billID string, clusters []model.ArgumentCluster) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := beginRun(ctx, tx, runID, billID); err != nil {
		return err
	}
	for _, c := range clusters {
		data, err := marshal(c)
		if err != nil {
			return fmt.Errorf("encoding cluster %s: %w", c.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO clusters (run_id, id, bill_id, name, position, size, data) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, c.ID, billID, c.Name, string(c.Position), c.Size, data)
		if err != nil {
			return fmt.Errorf("inserting cluster %s: %w", c.ID, err)
		}
		for _, argID := range c.Arguments {
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO cluster_members (run_id, cluster_id, argument_id) VALUES (?, ?, ?)`,
				runID, c.ID, argID)
			if err != nil {
				return fmt.Errorf("inserting member %s of cluster %s: %w", argID, c.ID, err)
			}
		}
	}
	return tx.Commit()
}

// FindClustersByBill returns the clusters of a bill's latest run, largest
// first
func (s *Store) FindClustersByBill(ctx context.Context, billID string) ([]model.ArgumentCluster, error) {
	return findJSON[model.ArgumentCluster](ctx, s.db,
		`SELECT data FROM clusters WHERE run_id = `+latestRun+` ORDER BY size DESC, id`, billID)
}

// FindClustersByRun returns the clusters of one run, largest first
func (s *Store) FindClustersByRun(ctx context.Context, runID string) ([]model.ArgumentCluster, error) {
	return findJSON[model.ArgumentCluster](ctx, s.db,
		`SELECT data FROM clusters WHERE run_id = ? ORDER BY size DESC, id`, runID)
}

// ClusterOf returns the ID of the cluster that holds an argument in the
// latest run that clustered it
func (s *Store) ClusterOf(ctx context.Context, argumentID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT m.cluster_id FROM cluster_members m JOIN runs r ON r.id = m.run_id
		 WHERE m.argument_id = ? ORDER BY r.seq DESC LIMIT 1`, argumentID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying cluster member: %w", err)
	}
	return id, nil
}

// SaveCoalitions records the coalitions of one run. Earlier runs are kept.
func (s *Store) SaveCoalitions(ctx context.Context, runID, billID string, coalitions []model.Coalition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := beginRun(ctx, tx, runID, billID); err != nil {
		return err
	}
	for _, c := range coalitions {
		data, err := marshal(c)
		if err != nil {
			return fmt.Errorf("encoding coalition %s: %w", c.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO coalitions (run_id, id, bill_id, name, power, data) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, c.ID, billID, c.Name, c.Power, data)
		if err != nil {
			return fmt.Errorf("inserting coalition %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// FindCoalitionsByBill returns the coalitions of a bill's latest run, most
// powerful first
func (s *Store) FindCoalitionsByBill(ctx context.Context, billID string) ([]model.Coalition, error) {
	return findJSON[model.Coalition](ctx, s.db,
		`SELECT data FROM coalitions WHERE run_id = `+latestRun+` ORDER BY power DESC, id`, billID)
}

// FindCoalitionsByRun returns the coalitions of one run, most powerful first
func (s *Store) FindCoalitionsByRun(ctx context.Context, runID string) ([]model.Coalition, error) {
	return findJSON[model.Coalition](ctx, s.db,
		`SELECT data FROM coalitions WHERE run_id = ? ORDER BY power DESC, id`, runID)
}

// SaveBrief stores a generated brief. Briefs are never overwritten.
func (s *Store) SaveBrief(ctx context.Context, brief model.LegislativeBrief) error {
	data, err := marshal(brief)
	if err != nil {
		return fmt.Errorf("encoding brief %s: %w", brief.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO briefs (id, bill_id, generated_at, format, data) VALUES (?, ?, ?, ?, ?)`,
		brief.ID, brief.BillID, formatTime(brief.GeneratedAt), string(brief.Format), data)
	if err != nil {
		return fmt.Errorf("inserting brief %s: %w", brief.ID, err)
	}
	return nil
}

// LatestBrief returns the most recently generated brief of a bill
func (s *Store) LatestBrief(ctx context.Context, billID string) (model.LegislativeBrief, error) {
	briefs, err := findJSON[model.LegislativeBrief](ctx, s.db,
		`SELECT data FROM briefs WHERE bill_id = ? ORDER BY generated_at DESC, rowid DESC LIMIT 1`, billID)
	if err != nil {
		return model.LegislativeBrief{}, err
	}
	if len(briefs) == 0 {
		return model.LegislativeBrief{}, fmt.Errorf("brief for bill %s: %w", billID, ErrNotFound)
	}
	return briefs[0], nil
}

func findJSON[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning: %w", err)
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("decoding: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
