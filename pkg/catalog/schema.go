// pkg/catalog/schema.go
package catalog

import _ "embed"

// File is the on-disk catalog document.
type File struct {
	Version     string  `json:"version"`
	LastUpdated string  `json:"lastUpdated"`
	Activities  []Entry `json:"activities"`
}

// Entry is one activity in a catalog file.
type Entry struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

//go:embed catalog.schema.json
var schemaJSON []byte
