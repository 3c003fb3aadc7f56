package xmltree

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// SizeError reports input above the configured ceiling. It is returned
// before any tokenizing happens.
type SizeError struct {
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	if e.Size < 0 {
		return fmt.Sprintf("document exceeds the %s size limit", humanize.IBytes(uint64(e.Limit)))
	}
	return fmt.Sprintf("document is %s, limit is %s",
		humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit)))
}

// SecurityError reports input rejected by the DTD and entity defenses.
type SecurityError struct {
	Reason string
}

func (e *SecurityError) Error() string {
	return "unsafe document: " + e.Reason
}

// SyntaxError reports malformed XML.
type SyntaxError struct {
	Line   int
	Reason string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed XML at line %d: %s", e.Line, e.Reason)
	}
	return "malformed XML: " + e.Reason
}
