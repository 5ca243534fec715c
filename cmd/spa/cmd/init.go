package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/docopt/docopt-go"

	"github.com/go-drift/spa/cmd/spa/internal/config"
	"github.com/go-drift/spa/cmd/spa/internal/templates"
)

func init() {
	RegisterCommand(&Command{
		Name:  "init",
		Short: "Create a new spa project",
		Usage: `Create a new spa project in a new directory.

This command creates:
  - A new directory at the specified path
  - go.mod with the specified module path
  - spa.yaml with three routes
  - layout.html and the views/ templates and model scripts

The project name is derived from the directory basename.
The module path defaults to the project name if not specified.

Usage:
  spa init <directory> [<module-path>]

Examples:
  spa init todo
  spa init ./projects/todo github.com/username/todo`,
		Run: runInit,
	})
}

// runInit creates a new spa project. The project name is derived from the
// directory basename; the module path defaults to the project name.
func runInit(opts docopt.Opts) error {
	raw := stringOpt(opts, "<directory>", "")
	if strings.HasPrefix(raw, "~") {
		return fmt.Errorf("tilde (~) is not expanded by spa; use an absolute path or $HOME instead")
	}

	dir := filepath.Clean(raw)
	if err := validateDirectory(dir); err != nil {
		return err
	}

	projectName := filepath.Base(dir)
	if err := validateProjectName(projectName); err != nil {
		return fmt.Errorf("invalid project name %q (derived from directory basename): %w", projectName, err)
	}
	modulePath := stringOpt(opts, "<module-path>", projectName)

	if err := scaffoldProject(dir, projectName, modulePath); err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Project created successfully!\n\n")
	fmt.Fprintf(stdout, "Next steps:\n")
	fmt.Fprintf(stdout, "  cd %s\n", dir)
	fmt.Fprintf(stdout, "  spa routes           # List routes\n")
	fmt.Fprintf(stdout, "  spa serve            # Preview in the browser\n")
	return nil
}

// scaffoldProject creates the project directory and writes the template
// files. On failure the half-written directory is removed.
func scaffoldProject(dir, appName, modulePath string) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}

	fmt.Fprintf(stdout, "Creating new spa project: %s\n", appName)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data := templates.InitData{
		AppName:    appName,
		ModulePath: modulePath,
	}
	for _, f := range templates.InitFiles {
		if err := writeInitTemplate(dir, f, data); err != nil {
			safeRemoveAll(dir)
			return err
		}
		fmt.Fprintf(stdout, "  Created %s\n", f.DestPath)
	}

	// The scaffold must load with the current schema.
	if _, err := config.Resolve(dir); err != nil {
		safeRemoveAll(dir)
		return fmt.Errorf("generated %s is invalid: %w", config.FileName, err)
	}
	return nil
}

func writeInitTemplate(projectDir string, f templates.InitFile, data templates.InitData) error {
	content, err := templates.Process(f.TemplatePath, data)
	if err != nil {
		return fmt.Errorf("failed to process template %s: %w", f.TemplatePath, err)
	}

	destPath := filepath.Join(projectDir, filepath.FromSlash(f.DestPath))
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", f.DestPath, err)
	}
	if err := os.WriteFile(destPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.DestPath, err)
	}
	return nil
}

// validateDirectory rejects directory paths that would be dangerous to create or
// clean up. This includes filesystem roots (/, C:\), the current/parent directory,
// and root-level absolute paths (e.g. /etc, C:\Users).
func validateDirectory(dir string) error {
	switch dir {
	case "", "/", ".", "..":
		return fmt.Errorf("directory %q is not a valid project location", dir)
	}
	// Reject filesystem roots (\, C:\, etc.)
	if isVolumeRoot(dir) {
		return fmt.Errorf("directory %q is not a valid project location", dir)
	}
	// Reject root-level absolute paths (e.g. /etc, /home, C:\Users)
	if filepath.IsAbs(dir) && isVolumeRoot(filepath.Dir(dir)) {
		return fmt.Errorf("refusing to create project at root-level path %q", dir)
	}
	return nil
}

// isVolumeRoot reports whether dir is a filesystem root. On Unix this is "/",
// on Windows this covers drive roots like "C:\" and the bare root "\".
func isVolumeRoot(dir string) bool {
	return dir == filepath.VolumeName(dir)+string(filepath.Separator)
}

// safeRemoveAll removes a directory only if the path passes validateDirectory.
// It silently no-ops for dangerous paths rather than returning an error, since
// it is called on cleanup paths where the original error should not be masked.
func safeRemoveAll(dir string) {
	if validateDirectory(dir) != nil {
		return
	}
	os.RemoveAll(dir)
}

var validProjectName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// validateProjectName checks that a project name (derived from the directory
// basename) is a valid identifier: starts with a letter, contains only letters,
// digits, underscores, and hyphens.
func validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("project name cannot start with a dot")
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("project name cannot start with a hyphen")
	}
	if !validProjectName.MatchString(name) {
		return fmt.Errorf("project name must start with a letter and contain only letters, numbers, underscores, and hyphens")
	}
	return nil
}
