package shapebind

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes.
const (
	CodeInvalidType = "invalid_type"
	CodeRequired    = "required"
	CodeCustom      = "custom"
	CodeUnknownKind = "unknown_kind"
	CodeInvalidNode = "invalid_node"
	CodeParseError  = "parse_error"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // Dotted path (for example: a.b.c). Empty for the root.
	Code    string // One of the codes listed above.
	Message string
	Schema  string // Name of the schema that produced the issue, if any.
	Cause   error  // Optional: underlying error (custom validators).
	// Params carries structured parameters (e.g., {"expected":"number", "got":"string"})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at a.b
		fmt.Fprintf(b, "%s at %s", it.Code, displayPath(it.Path))
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Paths lists the path of every issue in order.
func (iss Issues) Paths() []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Path
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

func displayPath(p string) string {
	if p == "" {
		return "<root>"
	}
	return p
}
