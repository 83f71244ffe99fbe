package diff

import (
	"math"
	"slices"
	"strings"
)

// SplitLines splits text at every '\n'. The separator is not part of the lines and no other
// normalization takes place (in particular, "\r" is kept). An empty text consists of a single
// empty line.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// table is the LCS length table for two line sequences x and y, stored in a flat row-major slice
// with (len(x)+1) rows and (len(y)+1) columns. Cell (i, j) holds the length of the LCS of x[:i]
// and y[:j].
type table struct {
	v []int
	w int
}

func (t table) get(i, j int) int    { return t.v[i*t.w+j] }
func (t table) set(i, j int, v int) { t.v[i*t.w+j] = v }

// tableSize returns the number of cells of the table for m and n lines, and false if that number
// doesn't fit into an int.
func tableSize(m, n int) (int, bool) {
	if m < 0 || n < 0 || m == math.MaxInt || n == math.MaxInt {
		return 0, false
	}
	rows, cols := m+1, n+1
	if rows > math.MaxInt/cols {
		return 0, false
	}
	return rows * cols, true
}

func buildTable(x, y []string) table {
	size, ok := tableSize(len(x), len(y))
	if !ok {
		panic("inputs too large")
	}

	// Row and column zero stay zero.
	t := table{v: make([]int, size), w: len(y) + 1}
	for i := 1; i <= len(x); i++ {
		for j := 1; j <= len(y); j++ {
			if x[i-1] == y[j-1] {
				t.set(i, j, t.get(i-1, j-1)+1)
			} else {
				t.set(i, j, max(t.get(i-1, j), t.get(i, j-1)))
			}
		}
	}
	return t
}

// backtrack walks t from the bottom right corner to the top left one and returns the lines of
// the diff in document order.
//
// Matching lines are always taken. Otherwise an insertion is preferred over a deletion unless the
// deletion keeps a strictly longer LCS. This order decides how interleaved insertions and
// deletions are arranged and must not change.
func backtrack(x, y []string, t table) []Line {
	lines := make([]Line, 0, len(x)+len(y))
	i, j := len(x), len(y)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && x[i-1] == y[j-1]:
			lines = append(lines, Line{Unchanged, x[i-1]})
			i--
			j--
		case j > 0 && (i == 0 || t.get(i, j-1) >= t.get(i-1, j)):
			lines = append(lines, Line{Added, y[j-1]})
			j--
		default:
			lines = append(lines, Line{Removed, x[i-1]})
			i--
		}
	}
	slices.Reverse(lines)
	return lines
}
