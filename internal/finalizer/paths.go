package finalizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const unknownUser = "Unknown_User"

// maxSuffix bounds the collision scan so a broken directory cannot spin forever.
const maxSuffix = 10000

var unsafeChars = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", "\x00", "_",
)

// SafeName strips characters that are not allowed in a single path element.
func SafeName(name, fallback string) string {
	name = unsafeChars.Replace(strings.TrimSpace(name))
	name = strings.Trim(name, ". ")
	if name == "" {
		return fallback
	}
	return name
}

// RelativeDir is year/MonthName/dd.mm.yyyy/subPath/user.
func RelativeDir(at time.Time, subPath, displayName string) string {
	return filepath.Join(
		at.Format("2006"),
		at.Format("January"),
		at.Format("02.01.2006"),
		subPath,
		SafeName(displayName, unknownUser),
	)
}

// Reserve creates name in dir, or name(1), name(2), ... when taken, and returns the
// open file together with the name it got. Creation uses O_EXCL so two writers never
// share a name.
func Reserve(dir, name string) (*os.File, string, error) {
	base := SafeName(filepath.Base(name), "file")
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 0; i < maxSuffix; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s(%d)%s", stem, i, ext)
		}
		f, err := os.OpenFile(filepath.Join(dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free name for %s in %s", base, dir)
}
