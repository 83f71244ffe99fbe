// Package diff computes a line-by-line diff of two texts.
//
// The diff is derived from a longest common subsequence (LCS) table over the lines of both
// texts. Every line of the inputs ends up in the result exactly once: lines only present in the
// new text are [Added], lines only present in the old text are [Removed], and lines on the LCS
// are [Unchanged]. The result is deterministic: whenever several minimal diffs exist, insertions
// are preferred over deletions while walking the table backwards from the end of both texts.
package diff

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a line of a diff.
type Kind int

const (
	Unchanged Kind = iota // Line is present in both texts
	Added                 // Line is only present in the new text
	Removed               // Line is only present in the old text
)

var kindNames = [...]string{
	Unchanged: "unchanged",
	Added:     "added",
	Removed:   "removed",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// MarshalText encodes k as "added", "removed" or "unchanged".
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("invalid kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText is the inverse of [Kind.MarshalText].
func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if string(b) == name {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("invalid kind %q", b)
}

// Line is a single classified line. Content never contains the line separator.
type Line struct {
	Kind    Kind   `json:"type"`
	Content string `json:"content"`
}

func (l Line) String() string {
	switch l.Kind {
	case Added:
		return "+" + l.Content
	case Removed:
		return "-" + l.Content
	default:
		return " " + l.Content
	}
}

// Stats summarizes a diff.
type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// String returns a compact summary like "+3 -2", or "No changes" if nothing was added or
// removed.
func (s Stats) String() string {
	var parts []string
	if s.Added > 0 {
		parts = append(parts, "+"+strconv.Itoa(s.Added))
	}
	if s.Removed > 0 {
		parts = append(parts, "-"+strconv.Itoa(s.Removed))
	}
	if len(parts) == 0 {
		return "No changes"
	}
	return strings.Join(parts, " ")
}

// Count counts the added and removed lines in lines.
func Count(lines []Line) Stats {
	var s Stats
	for _, l := range lines {
		switch l.Kind {
		case Added:
			s.Added++
		case Removed:
			s.Removed++
		}
	}
	return s
}

// Result is the complete diff of two texts.
//
//   - Filtering Lines to Added and Unchanged reproduces the lines of the new text.
//   - Filtering Lines to Removed and Unchanged reproduces the lines of the old text.
type Result struct {
	Lines []Line `json:"lines"`
	Stats Stats  `json:"stats"`
}

// String formats r with one line per diff line, each prefixed by '+', '-' or ' '.
func (r Result) String() string {
	var sb strings.Builder
	for _, l := range r.Lines {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Compute diffs the lines of oldText and newText. It never fails, but time and memory grow with
// the product of the number of lines in both texts. Use a [Differ] to bound that.
//
// An empty text is a single empty line, so diffing "" against "a\nb" removes that line and adds
// two: the stats are +2 -1.
func Compute(oldText, newText string) Result {
	x, y := SplitLines(oldText), SplitLines(newText)
	return compute(x, y)
}

// Summarize diffs oldText and newText and returns the summary of the result, see
// [Stats.String].
func Summarize(oldText, newText string) string {
	return Compute(oldText, newText).Stats.String()
}

// Deref returns *s, or the empty string if s is nil. An absent text diffs like an empty one.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func compute(x, y []string) Result {
	lines := backtrack(x, y, buildTable(x, y))
	return Result{
		Lines: lines,
		Stats: Count(lines),
	}
}

// ErrTooLarge is returned by a [Differ] if the inputs exceed its capacity.
var ErrTooLarge = errors.New("input too large to diff")

// SizeError describes inputs that exceed the capacity of a [Differ]. It matches [ErrTooLarge].
type SizeError struct {
	OldLines, NewLines int
	MaxCells           int
}

func (err *SizeError) Error() string {
	return fmt.Sprintf("%v: %d x %d lines exceed the limit of %d table cells", ErrTooLarge, err.OldLines, err.NewLines, err.MaxCells)
}

func (err *SizeError) Is(target error) bool { return target == ErrTooLarge }

// Option configures a [Differ].
type Option func(*Differ)

// MaxCells limits the size of the LCS table to n cells. The table has one cell more than lines
// in each dimension. A limit of zero or less disables the check.
func MaxCells(n int) Option {
	return func(d *Differ) {
		d.maxCells = n
	}
}

// Differ computes diffs like [Compute] and [Summarize], but refuses inputs that exceed a
// configured capacity. A Differ is immutable and safe for concurrent use.
type Differ struct {
	maxCells int
}

// New creates a new Differ. Without options, it behaves exactly like [Compute].
func New(opts ...Option) *Differ {
	d := &Differ{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(d)
	}
	return d
}

// Compute is like the package level [Compute] function, but returns a [*SizeError] if the
// inputs are too large.
func (d *Differ) Compute(oldText, newText string) (Result, error) {
	x, y := SplitLines(oldText), SplitLines(newText)
	if err := d.check(len(x), len(y)); err != nil {
		return Result{}, err
	}
	return compute(x, y), nil
}

// Summarize is like the package level [Summarize] function, but returns a [*SizeError] if the
// inputs are too large.
func (d *Differ) Summarize(oldText, newText string) (string, error) {
	r, err := d.Compute(oldText, newText)
	if err != nil {
		return "", err
	}
	return r.Stats.String(), nil
}

func (d *Differ) check(m, n int) error {
	if d.maxCells <= 0 {
		return nil
	}
	cells, ok := tableSize(m, n)
	if !ok || cells > d.maxCells {
		return &SizeError{OldLines: m, NewLines: n, MaxCells: d.maxCells}
	}
	return nil
}
