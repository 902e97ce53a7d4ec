package workflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mixchapters/internal/metadata"
	"mixchapters/internal/search"
)

// ErrInputClosed indicates the prompt's input ended before an answer.
var ErrInputClosed = errors.New("prompt input closed")

// ChoiceKind is the selector's verdict on a candidate list.
type ChoiceKind int

const (
	// ChoicePick selects Choice.Result.
	ChoicePick ChoiceKind = iota
	// ChoiceRefuse means no candidate fits; the file needs review.
	ChoiceRefuse
	// ChoiceSkip leaves the file alone.
	ChoiceSkip
)

// Choice is a selector verdict.
type Choice struct {
	Kind   ChoiceKind
	Result search.Result
}

// Selector picks a candidate for a file and confirms stored references.
type Selector interface {
	Choose(ctx context.Context, file string, candidates []search.Result) (Choice, error)
	ConfirmStored(ctx context.Context, file string, stored metadata.Stored) (bool, error)
}

// AutoSelector takes the best candidate scoring at least MinScore.
type AutoSelector struct {
	MinScore float64
}

// Choose picks the first candidate; candidates arrive sorted by score.
func (s AutoSelector) Choose(_ context.Context, _ string, candidates []search.Result) (Choice, error) {
	if len(candidates) == 0 || candidates[0].Score < s.MinScore {
		return Choice{Kind: ChoiceRefuse}, nil
	}
	return Choice{Kind: ChoicePick, Result: candidates[0]}, nil
}

// ConfirmStored always accepts the stored reference.
func (AutoSelector) ConfirmStored(context.Context, string, metadata.Stored) (bool, error) {
	return true, nil
}

// PromptSelector asks on a terminal.
type PromptSelector struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptSelector reads answers from in and writes prompts to out.
func NewPromptSelector(in io.Reader, out io.Writer) *PromptSelector {
	return &PromptSelector{in: bufio.NewReader(in), out: out}
}

// Choose lists candidates and reads a number, "r" to refuse all, or "s" to
// skip the file. Invalid answers are asked again.
func (s *PromptSelector) Choose(ctx context.Context, file string, candidates []search.Result) (Choice, error) {
	if len(candidates) == 0 {
		return Choice{Kind: ChoiceRefuse}, nil
	}
	fmt.Fprintf(s.out, "\n%s\n%s\n", file, RenderCandidates(candidates))
	for {
		answer, err := s.ask(ctx, fmt.Sprintf("Select 1-%d, r to refuse all, s to skip: ", len(candidates)))
		if err != nil {
			return Choice{}, err
		}
		switch strings.ToLower(answer) {
		case "r":
			return Choice{Kind: ChoiceRefuse}, nil
		case "s":
			return Choice{Kind: ChoiceSkip}, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(candidates) {
			return Choice{Kind: ChoicePick, Result: candidates[n-1]}, nil
		}
		fmt.Fprintf(s.out, "%q is not a choice\n", answer)
	}
}

// ConfirmStored asks whether to reuse the stored reference. Empty input
// means yes.
func (s *PromptSelector) ConfirmStored(ctx context.Context, file string, stored metadata.Stored) (bool, error) {
	fmt.Fprintf(s.out, "\n%s already references\n  %s\n  %s\n", file, stored.Title, stored.URL)
	for {
		answer, err := s.ask(ctx, "Reuse it? [Y/n]: ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "", "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

func (s *PromptSelector) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && line != "":
	case errors.Is(err, io.EOF):
		return "", ErrInputClosed
	default:
		return "", fmt.Errorf("prompt: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// RenderCandidates renders ranked candidates as a table.
func RenderCandidates(candidates []search.Result) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Score", "Duration", "Date", "Title"})
	for _, r := range candidates {
		tw.AppendRow(table.Row{r.Index, fmt.Sprintf("%.1f", r.Score), r.DurationLabel(), r.Date, r.Title})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
