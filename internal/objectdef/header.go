// Package objectdef understands the object-definition files exported from
// the legacy warehouse: one file per object, starting with a
// CREATE <KIND> "<namespace>"."<name>" header and followed by one or more
// statements separated by ';'.
//
// The header match is deliberately narrow. It extracts kind, namespace and
// name and nothing else; the statements themselves are handed to the target
// warehouse verbatim.
package objectdef

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind is the object kind named in a definition header.
type Kind string

const (
	KindView      Kind = "VIEW"
	KindForceView Kind = "FORCE VIEW"
	KindSchema    Kind = "SCHEMA"
	KindTable     Kind = "TABLE"
)

// UnknownNamespace is reported when a file's namespace cannot be determined.
const UnknownNamespace = "unknown"

// ErrInvalidHeader is returned when a file does not start with a recognised
// CREATE header.
var ErrInvalidHeader = errors.New("invalid object header")

var headerRE = regexp.MustCompile(`(?i)^\s*CREATE\s+(FORCE\s+VIEW|VIEW|SCHEMA|TABLE)\s+"([^"]+)"\."([^"]+)"`)

// Header is the parsed declaration at the top of a definition file.
type Header struct {
	Kind      Kind
	Namespace string
	Name      string

	// end is the byte offset just past the header in the source text.
	end int
}

// ParseHeader matches the CREATE header at the start of text.
func ParseHeader(text string) (Header, error) {
	m := headerRE.FindStringSubmatchIndex(text)
	if m == nil {
		return Header{}, fmt.Errorf("%w: expected CREATE VIEW/FORCE VIEW/SCHEMA/TABLE \"<schema>\".\"<name>\"", ErrInvalidHeader)
	}
	kind := strings.ToUpper(strings.Join(strings.Fields(text[m[2]:m[3]]), " "))
	return Header{
		Kind:      Kind(kind),
		Namespace: text[m[4]:m[5]],
		Name:      text[m[6]:m[7]],
		end:       m[1],
	}, nil
}

// Body returns the text following the header.
func (h Header) Body(text string) string {
	if h.end > len(text) {
		return ""
	}
	return text[h.end:]
}

// IsBlank reports whether s holds nothing but whitespace and statement
// delimiters.
func IsBlank(s string) bool {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), ";")) == ""
}

// StemName derives a fallback object name from a file path: the base name
// with a trailing ".sql" removed.
func StemName(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".sql") {
		return base[:len(base)-len(ext)]
	}
	return base
}
