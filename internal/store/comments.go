package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ppiankov/argintel/internal/model"
)

// SaveComments inserts or updates comments. Updating a comment keeps its
// processed mark.
func (s *Store) SaveComments(ctx context.Context, comments []model.Comment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO comments (id, bill_id, user_id, text, timestamp)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			bill_id=excluded.bill_id, user_id=excluded.user_id,
			text=excluded.text, timestamp=excluded.timestamp`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range comments {
		if _, err := stmt.ExecContext(ctx, c.ID, c.BillID, c.UserID, c.Text, formatTime(c.Timestamp)); err != nil {
			return fmt.Errorf("inserting comment %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// UnprocessedComments returns a bill's comments not yet marked processed,
// oldest first
func (s *Store) UnprocessedComments(ctx context.Context, billID string) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bill_id, user_id, text, timestamp FROM comments
		 WHERE bill_id = ? AND processed_at IS NULL
		 ORDER BY timestamp, id`, billID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		var ts sql.NullString
		if err := rows.Scan(&c.ID, &c.BillID, &c.UserID, &c.Text, &ts); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		if c.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parsing timestamp of %s: %w", c.ID, err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// PendingBills lists bills that have unprocessed comments
func (s *Store) PendingBills(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT bill_id FROM comments WHERE processed_at IS NULL ORDER BY bill_id`)
	if err != nil {
		return nil, fmt.Errorf("querying bills: %w", err)
	}
	defer rows.Close()

	var bills []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning bill: %w", err)
		}
		bills = append(bills, id)
	}
	return bills, rows.Err()
}

// MarkProcessed stamps comments as processed
func (s *Store) MarkProcessed(ctx context.Context, commentIDs []string, at time.Time) error {
	for _, ids := range chunks(commentIDs) {
		args := make([]any, 0, len(ids)+1)
		args = append(args, formatTime(at))
		for _, id := range ids {
			args = append(args, id)
		}
		_, err := s.db.ExecContext(ctx,
			`UPDATE comments SET processed_at = ? WHERE id IN (`+placeholders(len(ids))+`)`, args...)
		if err != nil {
			return fmt.Errorf("marking comments processed: %w", err)
		}
	}
	return nil
}

// SaveStakeholders inserts or replaces stakeholder metadata
func (s *Store) SaveStakeholders(ctx context.Context, stakeholders []model.Stakeholder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO stakeholders (user_id, region, demographic, sector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, sh := range stakeholders {
		if _, err := stmt.ExecContext(ctx, sh.UserID, sh.Region, sh.Demographic, sh.Sector); err != nil {
			return fmt.Errorf("inserting stakeholder %s: %w", sh.UserID, err)
		}
	}
	return tx.Commit()
}

// Stakeholders returns the known metadata for the given users. Users
// without metadata are omitted.
func (s *Store) Stakeholders(ctx context.Context, userIDs []string) ([]model.Stakeholder, error) {
	out := []model.Stakeholder{}
	for _, ids := range chunks(userIDs) {
		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}

		rows, err := s.db.QueryContext(ctx,
			`SELECT user_id, region, demographic, sector FROM stakeholders
			 WHERE user_id IN (`+placeholders(len(ids))+`) ORDER BY user_id`, args...)
		if err != nil {
			return nil, fmt.Errorf("querying stakeholders: %w", err)
		}
		out, err = scanStakeholders(rows, out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanStakeholders(rows *sql.Rows, out []model.Stakeholder) ([]model.Stakeholder, error) {
	defer rows.Close()
	for rows.Next() {
		var sh model.Stakeholder
		var region, demographic, sector sql.NullString
		if err := rows.Scan(&sh.UserID, &region, &demographic, &sector); err != nil {
			return nil, fmt.Errorf("scanning stakeholder: %w", err)
		}
		sh.Region, sh.Demographic, sh.Sector = region.String, demographic.String, sector.String
		out = append(out, sh)
	}
	return out, rows.Err()
}
