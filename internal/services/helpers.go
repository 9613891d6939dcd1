package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var courseLevels = map[string]bool{
	"BEGINNER":     true,
	"INTERMEDIATE": true,
	"ADVANCED":     true,
}

func NormalizeRequired(value, message string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", errors.New(message)
	}
	return trimmed, nil
}

// NormalizeLevel upper-cases and validates a course level, defaulting empty
// input to BEGINNER.
func NormalizeLevel(value string) (string, error) {
	level := strings.ToUpper(strings.TrimSpace(value))
	if level == "" {
		return "BEGINNER", nil
	}
	if !courseLevels[level] {
		return "", ErrBadRequest("level must be one of BEGINNER, INTERMEDIATE, ADVANCED")
	}
	return level, nil
}

// CleanIDList trims, drops empties and de-duplicates while preserving order.
func CleanIDList(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		value := strings.TrimSpace(id)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		cleaned = append(cleaned, value)
	}
	return cleaned
}

// textListJSON encodes a list-of-strings field for a JSONB column. A nil list
// encodes as an empty array, never null.
func textListJSON(items []string) []byte {
	if items == nil {
		items = []string{}
	}
	encoded, _ := json.Marshal(items)
	return encoded
}

func decodeTextList(raw []byte) []string {
	items := []string{}
	_ = json.Unmarshal(raw, &items)
	return items
}

func formatTime(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.UTC().Format(time.RFC3339)
	return &formatted
}
