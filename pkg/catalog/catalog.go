// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	apperrors "activity-signup/internal/common/errors"
	"activity-signup/internal/registry"

	"github.com/xeipuuv/gojsonschema"
)

// Load reads and validates a catalog file and returns its activities.
func Load(path string) ([]registry.Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse validates raw catalog JSON. source is only used in error details.
func Parse(source string, data []byte) ([]registry.Activity, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, apperrors.NewCatalogInvalidError(source, []string{err.Error()})
	}
	if !result.Valid() {
		problems := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			problems[i] = desc.String()
		}
		return nil, apperrors.NewCatalogInvalidError(source, problems)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, apperrors.NewCatalogInvalidError(source, []string{err.Error()})
	}

	if problems := checkRules(file.Activities); len(problems) > 0 {
		return nil, apperrors.NewCatalogInvalidError(source, problems)
	}

	out := make([]registry.Activity, 0, len(file.Activities))
	for _, e := range file.Activities {
		participants := e.Participants
		if participants == nil {
			participants = []string{}
		}
		out = append(out, registry.Activity{
			Name:            e.Name,
			Description:     e.Description,
			Schedule:        e.Schedule,
			MaxParticipants: e.MaxParticipants,
			Participants:    participants,
		})
	}
	return out, nil
}

// checkRules covers what the schema cannot: names unique across entries.
func checkRules(entries []Entry) []string {
	var problems []string
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Name] {
			problems = append(problems, fmt.Sprintf("duplicate activity name %q", e.Name))
		}
		seen[e.Name] = true
	}
	return problems
}

// Write encodes activities as a catalog document, sorted by name.
func Write(w io.Writer, activities []registry.Activity) error {
	entries := make([]Entry, 0, len(activities))
	for _, a := range activities {
		participants := a.Participants
		if participants == nil {
			participants = []string{}
		}
		entries = append(entries, Entry{
			Name:            a.Name,
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    participants,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(File{
		Version:     "1.0.0",
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Activities:  entries,
	})
}
