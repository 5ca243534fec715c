package cmd

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/docopt/docopt-go"
)

func TestValidateDirectory(t *testing.T) {
	type tc struct {
		name    string
		dir     string
		wantErr bool
	}
	tests := []tc{
		{"simple name", "myapp", false},
		{"relative path", "projects/myapp", false},
		{"dot-slash relative", "./projects/myapp", false},

		{"empty", "", true},
		{"root slash", "/", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
	}
	if runtime.GOOS != "windows" {
		tests = append(tests,
			tc{"absolute nested", "/home/user/projects/myapp", false},
			tc{"root-level /etc", "/etc", true},
			tc{"root-level /tmp", "/tmp", true},
		)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDirectory(tt.dir)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateDirectory(%q) error = %v, wantErr %v", tt.dir, err, tt.wantErr)
			}
		})
	}
}

func TestValidateProjectName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"todo", false},
		{"my-app", false},
		{"my_app2", false},
		{"", true},
		{".hidden", true},
		{"-bad", true},
		{"1app", true},
		{"my app", true},
	}
	for _, tt := range tests {
		err := validateProjectName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateProjectName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestScaffoldProject(t *testing.T) {
	captureStdout(t)
	dir := filepath.Join(t.TempDir(), "projects", "todo")

	if err := scaffoldProject(dir, "todo", "github.com/user/todo"); err != nil {
		t.Fatalf("scaffoldProject(%q) unexpected error: %v", dir, err)
	}

	gomod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		t.Fatalf("failed to read go.mod: %v", err)
	}
	if got := string(gomod); !strings.Contains(got, "module github.com/user/todo") {
		t.Errorf("go.mod should contain the module path, got:\n%s", got)
	}
	for _, name := range []string{"spa.yaml", "layout.html", "views/home.html", "views/home.star", "views/greet.star"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should exist: %v", name, err)
		}
	}
}

func TestScaffoldProject_RejectsExistingDirectory(t *testing.T) {
	captureStdout(t)
	dir := filepath.Join(t.TempDir(), "todo")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := scaffoldProject(dir, "todo", "todo"); err == nil {
		t.Fatal("expected error for existing directory, got nil")
	}
}

func TestRunInit_RejectsBadPaths(t *testing.T) {
	for _, dir := range []string{"/", ".", "..", "~/todo"} {
		err := runInit(docopt.Opts{"<directory>": dir})
		if err == nil {
			t.Errorf("expected error for directory %q, got nil", dir)
		}
	}
	err := runInit(docopt.Opts{"<directory>": "~/todo"})
	if err == nil || !strings.Contains(err.Error(), "tilde") {
		t.Errorf("expected tilde-specific error, got: %v", err)
	}
}
