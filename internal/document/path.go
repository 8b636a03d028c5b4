package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses one node of a resume document. Elements are either
// string keys (JSON field names) or int slice indices.
type Path []any

// ParsePath converts the dotted form "workExperience.0.responsibilities.2"
// into a Path. Purely numeric segments become indices.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	segments := strings.Split(s, ".")
	path := make(Path, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, s)
		}
		if idx, err := strconv.Atoi(seg); err == nil {
			if idx < 0 {
				return nil, fmt.Errorf("%w: negative index in %q", ErrInvalidPath, s)
			}
			path = append(path, idx)
			continue
		}
		path = append(path, seg)
	}
	return path, nil
}

// MustParsePath is ParsePath for literals known to be valid.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the path in dotted form.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, el := range p {
		parts[i] = fmt.Sprint(el)
	}
	return strings.Join(parts, ".")
}

// Append returns a new path with elems added. The receiver is not modified.
func (p Path) Append(elems ...any) Path {
	out := make(Path, 0, len(p)+len(elems))
	out = append(out, p...)
	return append(out, elems...)
}
