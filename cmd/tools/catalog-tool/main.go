// cmd/tools/catalog-tool/main.go
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"activity-signup/internal/registry"
	"activity-signup/pkg/catalog"
)

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, out io.Writer) error {
	switch command {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("path", "configs/activities.json", "Path to catalog file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		activities, err := catalog.Load(*path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Catalog validation passed. Found %d activities.\n", len(activities))
		return nil

	case "show":
		fs := flag.NewFlagSet("show", flag.ContinueOnError)
		path := fs.String("path", "", "Path to catalog file (empty shows the built-in catalog)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		activities, err := load(*path)
		if err != nil {
			return err
		}
		show(out, activities)
		return nil

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		path := fs.String("path", "configs/activities.json", "Path to catalog file")
		name := fs.String("name", "", "Activity name (e.g., Chess Club)")
		description := fs.String("description", "", "Description")
		schedule := fs.String("schedule", "", "Schedule (e.g., Fridays, 3:30 PM - 5:00 PM)")
		maxParticipants := fs.Int("max", 0, "Maximum participants")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *name == "" || *maxParticipants <= 0 {
			return fmt.Errorf("name and a positive max are required for add")
		}
		activities, err := loadOrEmpty(*path)
		if err != nil {
			return err
		}
		for _, a := range activities {
			if a.Name == *name {
				return fmt.Errorf("activity %q already exists", *name)
			}
		}
		activities = append(activities, registry.Activity{
			Name:            *name,
			Description:     *description,
			Schedule:        *schedule,
			MaxParticipants: *maxParticipants,
			Participants:    []string{},
		})
		if err := save(*path, activities); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added activity: %s\n", *name)
		return nil

	case "export-default":
		fs := flag.NewFlagSet("export-default", flag.ContinueOnError)
		path := fs.String("path", "", "Destination file (empty writes to stdout)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *path == "" {
			return catalog.Write(out, catalog.Default())
		}
		if err := save(*path, catalog.Default()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote built-in catalog to %s\n", *path)
		return nil

	case "help":
		help()
		return nil
	}
	help()
	return fmt.Errorf("unknown command %q", command)
}

func load(path string) ([]registry.Activity, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

func loadOrEmpty(path string) ([]registry.Activity, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return catalog.Load(path)
}

// save validates the encoded document before touching the file.
func save(path string, activities []registry.Activity) error {
	var buf bytes.Buffer
	if err := catalog.Write(&buf, activities); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if _, err := catalog.Parse(path, buf.Bytes()); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

func show(out io.Writer, activities []registry.Activity) {
	reg := registry.New(activities)
	for _, name := range reg.Names() {
		a, err := reg.Get(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "%s (%d/%d, %d spots left)\n", a.Name, len(a.Participants), a.MaxParticipants, a.Availability())
		fmt.Fprintf(out, "  %s\n", a.Schedule)
		if len(a.Participants) > 0 {
			fmt.Fprintf(out, "  %s\n", strings.Join(a.Participants, ", "))
		}
	}
}

func help() {
	fmt.Print(`
Usage: catalog-tool <command> [flags]

Commands:
  validate        Validate a catalog file against the schema
  show            Print activities with their availability
  add             Append a new, empty activity to a catalog file
  export-default  Write the built-in catalog as JSON
  help            Show this help message

Examples:
  catalog-tool validate -path configs/activities.json
  catalog-tool show
  catalog-tool add -path configs/activities.json -name "Robotics Club" -schedule "Saturdays, 10:00 AM - 12:00 PM" -max 8
  catalog-tool export-default -path configs/activities.json

Use 'catalog-tool <command> -h' for more information about a command.
` + "\n")
}
