// Package validator classifies uploaded files as accepted or rejected.
package validator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PFEPLTechHub/document-bot/internal/utils"
)

const DefaultMaxSize int64 = 20 * 1024 * 1024

var dangerousExtensions = map[string]struct{}{
	"exe": {}, "msi": {}, "bat": {}, "cmd": {}, "ps1": {}, "vbs": {}, "js": {},
	"py": {}, "php": {}, "rb": {}, "pl": {}, "sh": {},
	"dll": {}, "sys": {}, "drv": {}, "bin": {},
}

var videoExtensions = map[string]struct{}{
	"mp4": {}, "avi": {}, "mov": {}, "wmv": {}, "flv": {},
	"mkv": {}, "webm": {}, "mpeg": {}, "mpg": {}, "m4v": {},
}

// Outcome is the result of classifying one file. Hash is set even when the file is rejected.
type Outcome struct {
	Errors []string
	Hash   string
	Note   string
}

func (o Outcome) Accepted() bool {
	return len(o.Errors) == 0
}

// Report is what the reputation service knows about a hash.
type Report struct {
	Known     bool
	Positives int
}

type Reputation interface {
	Lookup(ctx context.Context, hash string) (Report, error)
}

type Validator struct {
	maxSize    int64
	reputation Reputation
}

// New builds a validator. reputation may be nil, in which case the lookup is skipped.
func New(maxSize int64, reputation Reputation) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Validator{maxSize: maxSize, reputation: reputation}
}

func Extension(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// CheckExtension allows everything except dangerous and video types.
func CheckExtension(filename string) (string, bool) {
	ext := Extension(filename)
	if _, ok := dangerousExtensions[ext]; ok {
		return fmt.Sprintf("Dangerous file type detected: %s", ext), false
	}
	if _, ok := videoExtensions[ext]; ok {
		return fmt.Sprintf("Video file extension %s not allowed.", ext), false
	}
	return "", true
}

func (v *Validator) CheckSize(size int64) (string, bool) {
	if size > v.maxSize {
		return fmt.Sprintf("File too large: %s (max: %s)", utils.FormatFileSize(size), utils.FormatFileSize(v.maxSize)), false
	}
	return "", true
}

func (v *Validator) MaxSize() int64 {
	return v.maxSize
}

// Precheck runs the checks that need no file contents. It leaves Hash empty.
func (v *Validator) Precheck(filename string, size int64) Outcome {
	var out Outcome
	if msg, ok := CheckExtension(filename); !ok {
		out.Errors = append(out.Errors, msg)
	}
	if msg, ok := v.CheckSize(size); !ok {
		out.Errors = append(out.Errors, msg)
	}
	return out
}

// Classify runs the extension, size and reputation checks against the file at path.
// The returned error is only for failing to read the file.
func (v *Validator) Classify(ctx context.Context, filename, path string, size int64) (Outcome, error) {
	out := v.Precheck(filename, size)

	hash, err := HashFile(path)
	if err != nil {
		return out, err
	}
	out.Hash = hash

	if !out.Accepted() {
		return out, nil
	}

	if v.reputation == nil {
		out.Note = "Reputation scan skipped (not configured)"
		return out, nil
	}

	report, err := v.reputation.Lookup(ctx, hash)
	switch {
	case err != nil:
		out.Note = "Reputation scan failed, proceeding anyway"
	case report.Known && report.Positives > 0:
		out.Errors = append(out.Errors, fmt.Sprintf("VirusTotal detected %d threats in file", report.Positives))
	default:
		out.Note = "Reputation scan passed"
	}
	return out, nil
}

// HashFile returns the hex SHA-256 of the file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
