package sandbox

import (
	"path/filepath"
	"strings"
)

// Sanitizer confirms that a resolved path stays lexically inside the root.
// The check is pure path algebra; no filesystem access is allowed.
type Sanitizer func(root, resolved string) error

// LexicalSanitizer is the default Sanitizer. It compares cleaned paths and
// rejects anything that does not remain under root.
func LexicalSanitizer(root, resolved string) error {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(resolved))
	if err != nil {
		return &PathSecurityError{Name: resolved, Reason: "cannot be resolved against the sandbox root"}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return &PathSecurityError{Name: resolved, Reason: "escapes the sandbox root"}
	}
	return nil
}

// PathResolver resolves caller-supplied names to paths confined under a
// sandbox root.
type PathResolver struct {
	sanitize Sanitizer
}

// NewPathResolver creates a resolver. A nil sanitizer selects LexicalSanitizer.
func NewPathResolver(sanitize Sanitizer) *PathResolver {
	if sanitize == nil {
		sanitize = LexicalSanitizer
	}
	return &PathResolver{sanitize: sanitize}
}

// Resolve joins name under root after validating it. Traversal segments,
// separators, hidden-file markers, and absolute paths are all rejected with
// PathSecurityError. Pure: performs no filesystem access.
func (p *PathResolver) Resolve(root, name string) (string, error) {
	switch {
	case name == "":
		return "", &PathSecurityError{Name: name, Reason: "name is empty"}
	case filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, "\\"):
		return "", &PathSecurityError{Name: name, Reason: "absolute paths are not allowed"}
	case strings.ContainsAny(name, `/\`):
		return "", &PathSecurityError{Name: name, Reason: "path separators are not allowed"}
	case strings.Contains(name, ".."):
		return "", &PathSecurityError{Name: name, Reason: "parent directory references are not allowed"}
	case strings.HasPrefix(name, "."):
		return "", &PathSecurityError{Name: name, Reason: "hidden file names are not allowed"}
	}

	resolved := filepath.Join(root, name)
	if err := p.sanitize(root, resolved); err != nil {
		return "", err
	}
	return resolved, nil
}
