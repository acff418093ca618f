package utils

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const DateLayout string = "2006-01-02"

var fileSizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count with binary multiples and at most two
// decimals, e.g. 1536 -> "1.5 KB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	const k float64 = 1024

	v := float64(bytes)
	i := 0

	for v >= k && i < len(fileSizeUnits)-1 {
		v /= k
		i++
	}

	v = math.Round(v*100) / 100

	return strconv.FormatFloat(v, 'f', -1, 64) + " " + fileSizeUnits[i]
}

// FileExtension returns the lowercased extension without the dot.
func FileExtension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// FileKind groups attachments for display purposes.
func FileKind(name string) string {
	switch FileExtension(name) {
	case "pdf":
		return "pdf"
	case "doc", "docx":
		return "document"
	case "jpg", "jpeg", "png", "gif":
		return "image"
	default:
		return "file"
	}
}

// ParseReportDate parses a YYYY-MM-DD value as a calendar day. The result is
// anchored at midnight UTC so it never shifts when stored in a date column.
func ParseReportDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("Invalid date '%s': %w", s, err)
	}

	return d, nil
}

// FormatSimpleDate renders a calendar day as DD/MM/YYYY.
func FormatSimpleDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format("02/01/2006")
}

// Today returns the current calendar day in the application time zone.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateLayout)
}
