package handler

import "strconv"

// formatUploadLimit renders a byte limit for error messages, rounding down
// to the largest whole unit.
func formatUploadLimit(limit int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
	)
	switch {
	case limit <= 0:
		return "0B"
	case limit >= mb:
		return strconv.FormatInt(limit/mb, 10) + "MB"
	case limit >= kb:
		return strconv.FormatInt(limit/kb, 10) + "KB"
	default:
		return strconv.FormatInt(limit, 10) + "B"
	}
}
