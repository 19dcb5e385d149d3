package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hako/durafmt"
)

const (
	progressWidth  = 10
	progressFilled = "█"
	progressEmpty  = "░"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders bytes in base-1024 units with one decimal.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/math.Pow(1024, float64(i)), sizeUnits[i])
}

// ProgressBar renders "[███░░░░░░░] 30%".
func ProgressBar(current, total int) string {
	if total <= 0 {
		return fmt.Sprintf("[%s] 0%%", strings.Repeat(progressEmpty, progressWidth))
	}
	if current > total {
		current = total
	}
	filled := current * progressWidth / total
	percent := float64(current) / float64(total) * 100
	return fmt.Sprintf("[%s%s] %.0f%%",
		strings.Repeat(progressFilled, filled),
		strings.Repeat(progressEmpty, progressWidth-filled),
		percent)
}

// FormatAge renders how long ago t was, e.g. "3 minutes".
func FormatAge(t, now time.Time) string {
	age := now.Sub(t)
	if age < time.Minute {
		return "less than a minute"
	}
	return durafmt.Parse(age.Truncate(time.Minute)).LimitFirstN(2).String()
}
