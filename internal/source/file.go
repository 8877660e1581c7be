package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/argintel/internal/model"
)

const maxLineBytes = 1 << 20

// FileSource reads comments from a JSON-lines file, one comment per line
type FileSource struct {
	path string
}

// NewFileSource creates a file source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Comments returns the file's comments on billID. An empty billID returns
// every comment.
func (s *FileSource) Comments(ctx context.Context, billID string) ([]model.Comment, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open comments: %w", err)
	}
	defer f.Close()

	all, err := ReadComments(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	if billID == "" {
		return all, nil
	}

	var out []model.Comment
	for _, c := range all {
		if c.BillID == billID {
			out = append(out, c)
		}
	}
	return out, ctx.Err()
}

// ReadComments decodes JSON-lines comments. Blank lines and lines starting
// with # are skipped. Comments without an ID or bill are rejected.
func ReadComments(r io.Reader) ([]model.Comment, error) {
	var comments []model.Comment
	err := readLines(r, func(n int, line []byte) error {
		var c model.Comment
		if err := json.Unmarshal(line, &c); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if c.ID == "" || c.BillID == "" {
			return fmt.Errorf("line %d: comment_id and bill_id are required", n)
		}
		comments = append(comments, c)
		return nil
	})
	return comments, err
}

// ReadStakeholders decodes JSON-lines stakeholder metadata
func ReadStakeholders(r io.Reader) ([]model.Stakeholder, error) {
	var out []model.Stakeholder
	err := readLines(r, func(n int, line []byte) error {
		var s model.Stakeholder
		if err := json.Unmarshal(line, &s); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if s.UserID == "" {
			return fmt.Errorf("line %d: user_id is required", n)
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func readLines(r io.Reader, fn func(n int, line []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(n, []byte(line)); err != nil {
			return err
		}
	}
	return scanner.Err()
}
