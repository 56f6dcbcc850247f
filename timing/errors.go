package timing

import (
	"fmt"
)

// MalformedRecordError reports a timing file that does not match the
// expected schema: a missing required field, a value of the wrong JSON
// type, or a document that isn't an array of objects.
type MalformedRecordError struct {
	// Index is the position of the offending record in the array, or -1
	// if the problem is with the document as a whole.
	Index int
	// VIC is the record's VIC if it could be decoded, or zero.
	VIC    int
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("malformed timing file: %s", e.Reason)
	case e.Field == "":
		return fmt.Sprintf("malformed timing record %d: %s", e.Index, e.Reason)
	case e.VIC != 0:
		return fmt.Sprintf("malformed timing record %d (VIC %d): field %q: %s", e.Index, e.VIC, e.Field, e.Reason)
	default:
		return fmt.Sprintf("malformed timing record %d: field %q: %s", e.Index, e.Field, e.Reason)
	}
}
