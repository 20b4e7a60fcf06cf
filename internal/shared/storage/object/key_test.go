package object

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerHash(t *testing.T) {
	h := OwnerHash("google:12345")
	assert.Len(t, h, 64)
	assert.Equal(t, h, OwnerHash("google:12345"))
	assert.NotEqual(t, h, OwnerHash("google:12346"))
	assert.Equal(t, OwnerHash("anonymous"), OwnerHash(""))
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"resume.pdf", "resume.pdf"},
		{"  Jane Doe CV (final).pdf ", "Jane_Doe_CV_final_.pdf"},
		{"dir/sub\\cv.pdf", "dir_sub_cv.pdf"},
		{"résumé.pdf", "r_sum_.pdf"},
	}
	for _, tt := range tests {
		got, err := CleanName(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestCleanNameRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "../etc/passwd", "***", "."} {
		_, err := CleanName(in)
		assert.ErrorIs(t, err, ErrInvalidName, "%q", in)
	}
}

func TestCleanNameTruncatesKeepingExtension(t *testing.T) {
	got, err := CleanName(strings.Repeat("a", 200) + ".pdf")
	require.NoError(t, err)
	assert.Len(t, got, maxNameLen)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestBuildKey(t *testing.T) {
	key, err := BuildKey("user-1", "cv.pdf", time.Date(2026, time.February, 3, 23, 0, 0, 0, time.FixedZone("x", -5*3600)))
	require.NoError(t, err)
	parts := strings.Split(key, "/")
	require.Len(t, parts, 4)
	assert.Equal(t, OwnerHash("user-1"), parts[0])
	assert.Equal(t, "2026", parts[1])
	assert.Equal(t, "02", parts[2])
	assert.True(t, strings.HasSuffix(parts[3], "_cv.pdf"))
}
