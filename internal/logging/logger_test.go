package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactPath(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "identity segment masked",
			in:   "/tmp/zipline/users/9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08/file.txt",
			want: "/tmp/zipline/users/[redacted]/file.txt",
		},
		{
			name: "root without file",
			in:   "/tmp/zipline/users/abc123",
			want: "/tmp/zipline/users/[redacted]",
		},
		{
			name: "shared root untouched",
			in:   "/tmp/zipline/file.txt",
			want: "/tmp/zipline/file.txt",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RedactPath(tc.in))
		})
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose", OutputPaths: []string{"stdout"}})
	assert.Error(t, err)
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	assert.NotNil(t, logger)
	logger.Info("default logger works")
}
