// Package templates provides embedded template files for project creation
// and the dev server page.
package templates

import (
	"embed"
	"io/fs"
	"path"
	"strings"
	"text/template"
)

//go:embed init shell.html.tmpl
var FS embed.FS

// ShellPath is the dev server page template.
const ShellPath = "shell.html.tmpl"

// InitData contains the data for init template substitution.
type InitData struct {
	AppName    string // e.g., "my_app"
	ModulePath string // e.g., "github.com/me/my_app"
}

// ShellData contains the data for the dev server page.
type ShellData struct {
	AppName    string
	SocketPath string // e.g., "/ws"
	IDAttr     string // attribute carrying node ids
}

// InitFile maps an embedded init template to its place in a new project.
type InitFile struct {
	TemplatePath string
	DestPath     string
}

// InitFiles lists the files written by spa init, in creation order.
var InitFiles = []InitFile{
	{"init/go.mod.tmpl", "go.mod"},
	{"init/spa.yaml.tmpl", "spa.yaml"},
	{"init/layout.html", "layout.html"},
	{"init/home.html", "views/home.html"},
	{"init/home.star", "views/home.star"},
	{"init/about.html", "views/about.html"},
	{"init/greet.html", "views/greet.html"},
	{"init/greet.star", "views/greet.star"},
}

// Process executes the embedded template at path with data.
func Process(path string, data any) (string, error) {
	content, err := ReadFile(path)
	if err != nil {
		return "", err
	}
	return ProcessTemplate(string(content), data)
}

// ProcessTemplate processes a template string with the given data.
func ProcessTemplate(content string, data any) (string, error) {
	tmpl, err := template.New("").Parse(content)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// ListFiles returns all files in the embedded filesystem under the given path.
func ListFiles(root string) ([]string, error) {
	var files []string

	err := fs.WalkDir(FS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})

	return files, err
}

// ReadFile reads a file from the embedded filesystem.
func ReadFile(path string) ([]byte, error) {
	return FS.ReadFile(path)
}

// FileName returns just the filename from a path.
func FileName(p string) string {
	return path.Base(p)
}
