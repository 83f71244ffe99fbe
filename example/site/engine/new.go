//go:build ignore

package diff

// Compute diffs the lines of oldText and newText. It returns an error if the LCS table would
// exceed the configured number of cells.
func (d *Differ) Compute(oldText, newText string) (Result, error) {
	x, y := SplitLines(oldText), SplitLines(newText)
	if err := d.check(len(x), len(y)); err != nil {
		return Result{}, err
	}
	return compute(x, y), nil
}
