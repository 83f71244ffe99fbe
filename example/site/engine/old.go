//go:build ignore

package diff

// Compute diffs the lines of oldText and newText.
func Compute(oldText, newText string) Result {
	x, y := SplitLines(oldText), SplitLines(newText)
	return compute(x, y)
}
