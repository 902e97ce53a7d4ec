package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const pollInterval = 250 * time.Millisecond

// TailOptions controls Tail. A negative Offset returns the last Limit
// matching records; otherwise reading starts at Offset.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	Filter Filter
}

// TailResult carries the matching records and the offset to resume from.
type TailResult struct {
	Records []Record
	Offset  int64
}

// Tail reads matching records from the log at path. A missing file yields an
// empty result. With Follow set it waits up to Wait for new records.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	if opts.Offset < 0 {
		records, offset, err := readLast(path, opts.Limit, opts.Filter)
		if err != nil {
			return result, err
		}
		return TailResult{Records: records, Offset: offset}, nil
	}

	offset := opts.Offset
	if offset > info.Size() {
		// truncated or rotated
		offset = 0
	}
	if !opts.Follow {
		records, next, err := readForward(path, offset, opts.Filter)
		return TailResult{Records: records, Offset: next}, err
	}
	return waitForRecords(ctx, path, offset, opts.Wait, opts.Filter)
}

// scan calls fn for every matching record from the current position of file
// and returns the offset after the last complete line.
func scan(file *os.File, start int64, filter Filter, fn func(Record)) (int64, error) {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	offset := start
	for scanner.Scan() {
		line := scanner.Text()
		offset += int64(len(line)) + 1
		rec, ok := ParseRecord(line)
		if ok && filter.Match(rec) {
			fn(rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return start, fmt.Errorf("read log file: %w", err)
	}
	return offset, nil
}

func readLast(path string, limit int, filter Filter) ([]Record, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	ring := make([]Record, limit)
	count, idx := 0, 0
	offset, err := scan(file, 0, filter, func(rec Record) {
		ring[idx] = rec
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	records := make([]Record, count)
	if count == limit {
		for i := 0; i < count; i++ {
			records[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(records, ring[:count])
	}
	return records, offset, nil
}

func readForward(path string, offset int64, filter Filter) ([]Record, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}
	var records []Record
	next, err := scan(file, offset, filter, func(rec Record) {
		records = append(records, rec)
	})
	return records, next, err
}

func waitForRecords(ctx context.Context, path string, offset int64, wait time.Duration, filter Filter) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		records, next, err := readForward(path, result.Offset, filter)
		if err != nil {
			return result, err
		}
		result.Offset = next
		if len(records) > 0 || !time.Now().Before(deadline) {
			result.Records = records
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}
