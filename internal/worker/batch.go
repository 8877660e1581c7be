package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// Outcome is the result of one item of an ordered batch
type Outcome[R any] struct {
	Index int
	Value R
	Err   error
}

// GetError returns the error of the outcome
func (o *Outcome[R]) GetError() error {
	return o.Err
}

type mapJob[T, R any] struct {
	index int
	item  T
	fn    func(context.Context, T) (R, error)
}

func (j *mapJob[T, R]) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &Outcome[R]{Index: j.index, Err: err}
	}
	v, err := j.fn(ctx, j.item)
	return &Outcome[R]{Index: j.index, Value: v, Err: err}
}

// Map runs fn over items on a pool of workers and returns one outcome per
// item, in input order. Items that never ran because ctx was cancelled carry
// ctx's error.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) []Outcome[R] {
	outcomes := make([]Outcome[R], len(items))
	if len(items) == 0 {
		return outcomes
	}

	pool := NewPool(ctx, workers)
	pool.Start()

	for i, item := range items {
		if !pool.Submit(&mapJob[T, R]{index: i, item: item, fn: fn}) {
			break
		}
	}

	done := make([]bool, len(items))
	for _, r := range pool.Wait() {
		o := r.(*Outcome[R])
		outcomes[o.Index] = *o
		done[o.Index] = true
	}

	// Jobs dropped by cancellation never produced a result
	for i := range outcomes {
		if done[i] {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		outcomes[i] = Outcome[R]{Index: i, Err: err}
	}
	return outcomes
}

// ReadLines reads one entry per line from a file. Blank lines and lines
// starting with # are skipped; duplicates keep their first position.
func ReadLines(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
