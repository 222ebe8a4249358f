package main

import (
	"encoding/json"
	"io"
	"slices"
	"time"

	"github.com/ersonp/kin-core/internal/infrastructure/parsers"
)

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(parsers.DateLayout)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func contains(slice []string, item string) bool {
	return slices.Contains(slice, item)
}
