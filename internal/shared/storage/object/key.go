package object

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const maxNameLen = 96

// ErrInvalidName is returned when a file name has nothing left after cleaning
// or tries to escape its directory.
var ErrInvalidName = errors.New("invalid file name")

// OwnerHash is the directory used for an owner. Raw user ids never appear in keys.
func OwnerHash(owner string) string {
	if owner == "" {
		owner = "anonymous"
	}
	sum := sha256.Sum256([]byte(owner))
	return hex.EncodeToString(sum[:])
}

// CleanName keeps letters, digits, dot, dash and underscore from the base
// name; anything else becomes a single underscore.
func CleanName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidName
	}
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(name) {
		ok := r == '.' || r == '-' || r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
		if !ok {
			if !lastUnderscore {
				b.WriteByte('_')
			}
			lastUnderscore = true
			continue
		}
		b.WriteRune(r)
		lastUnderscore = r == '_'
	}
	out := strings.Trim(b.String(), "_")
	if out == "" || strings.Trim(out, ".") == "" {
		return "", ErrInvalidName
	}
	if len(out) > maxNameLen {
		ext := path.Ext(out)
		if len(ext) >= maxNameLen {
			ext = ""
		}
		out = out[:maxNameLen-len(ext)] + ext
	}
	return out, nil
}

// BuildKey returns <owner hash>/<yyyy>/<mm>/<uuid>_<clean name>.
func BuildKey(owner, fileName string, now time.Time) (string, error) {
	name, err := CleanName(fileName)
	if err != nil {
		return "", fmt.Errorf("file name %q: %w", fileName, err)
	}
	now = now.UTC()
	return path.Join(
		OwnerHash(owner),
		now.Format("2006"),
		now.Format("01"),
		uuid.NewString()+"_"+name,
	), nil
}
