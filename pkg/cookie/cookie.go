// Package cookie reads and writes name=value pairs in a cookie string, the
// way document.cookie behaves in a browser.
package cookie

import (
	"sort"
	"strings"
)

// Parse splits a cookie header ("a=1; b=2") into its pairs. Leading
// whitespace is trimmed from names; a pair without '=' maps to "".
// Later duplicates win.
func Parse(header string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimLeft(part, " \t")
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		out[name] = value
	}
	return out
}

// Jar holds cookies in insertion order.
type Jar struct {
	names  []string
	values map[string]string
}

// NewJar creates a jar from a cookie header.
func NewJar(header string) *Jar {
	j := &Jar{values: map[string]string{}}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimLeft(part, " \t")
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		j.Set(name, value)
	}
	return j
}

// Get returns the value of name.
func (j *Jar) Get(name string) (string, bool) {
	v, ok := j.values[name]
	return v, ok
}

// Set stores name=value, replacing an existing value in place.
func (j *Jar) Set(name, value string) *Jar {
	if _, ok := j.values[name]; !ok {
		j.names = append(j.names, name)
	}
	j.values[name] = value
	return j
}

// Delete removes name.
func (j *Jar) Delete(name string) {
	if _, ok := j.values[name]; !ok {
		return
	}
	delete(j.values, name)
	for i, n := range j.names {
		if n == name {
			j.names = append(j.names[:i], j.names[i+1:]...)
			break
		}
	}
}

// Names returns the cookie names, sorted.
func (j *Jar) Names() []string {
	names := append([]string(nil), j.names...)
	sort.Strings(names)
	return names
}

// String renders the jar as a cookie header.
func (j *Jar) String() string {
	parts := make([]string, len(j.names))
	for i, name := range j.names {
		parts[i] = name + "=" + j.values[name]
	}
	return strings.Join(parts, "; ")
}
