package normalize

import "fmt"

// DateError reports a candidate whose date string matched none of the
// accepted formats. It fails the individual candidate, never the batch.
type DateError struct {
	Raw string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("normalize: unparsable date %q", e.Raw)
}

// AmountError reports a candidate whose amount string could not be parsed
// into a signed fixed-point value.
type AmountError struct {
	Raw string
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("normalize: unparsable amount %q", e.Raw)
}
