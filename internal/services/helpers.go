package services

import (
	"context"
	"strings"

	"github.com/charlesng35/releasetrack/internal/models"
)

const (
	defaultPerPage = 50
	maxPerPage     = 200
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func normaliseIDs(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// normalisePage clamps pagination input to sane bounds.
func normalisePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > maxPerPage {
		perPage = defaultPerPage
	}
	return page, perPage
}

// optionalID converts a patch value into a nullable column: nil keeps the current
// value, an empty string clears it.
func optionalID(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// recordIDs is normaliseIDs restricted to values that parse as UUIDs, so a
// stray reference never reaches a uuid column.
func recordIDs(values []string) []string {
	var out []string
	for _, value := range normaliseIDs(values) {
		if models.IsValidID(value) {
			out = append(out, value)
		}
	}
	return out
}
