package chapters

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadLines loads a local "[time] title" text file, dropping blank lines and
// a UTF-8 byte order mark.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open timestamp file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read timestamp file: %w", err)
	}
	return lines, nil
}
