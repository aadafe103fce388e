package sandbox

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveValidName(t *testing.T) {
	p := NewPathResolver(nil)

	path, err := p.Resolve("/sandbox/root", "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/sandbox/root", "report.pdf"), path)
}

func TestResolveRejectsUnsafeNames(t *testing.T) {
	p := NewPathResolver(nil)

	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"parent segment", ".."},
		{"embedded traversal", "..secret"},
		{"slash", "dir/file.txt"},
		{"backslash", `dir\file.txt`},
		{"absolute", "/etc/passwd"},
		{"hidden", ".bashrc"},
		{"traversal with slash", "../escape.txt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Resolve("/sandbox/root", tc.in)
			require.Error(t, err)

			var pathErr *PathSecurityError
			assert.ErrorAs(t, err, &pathErr)
		})
	}
}

func TestResolveConsultsSanitizer(t *testing.T) {
	called := false
	p := NewPathResolver(func(root, resolved string) error {
		called = true
		return &PathSecurityError{Name: resolved, Reason: "vetoed"}
	})

	_, err := p.Resolve("/sandbox/root", "fine.txt")
	require.Error(t, err)
	assert.True(t, called)
}

func TestLexicalSanitizer(t *testing.T) {
	assert.NoError(t, LexicalSanitizer("/root", "/root/file.txt"))
	assert.Error(t, LexicalSanitizer("/root", "/root/../other/file.txt"))
	assert.Error(t, LexicalSanitizer("/root", "/elsewhere/file.txt"))
}
