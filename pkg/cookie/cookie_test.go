package cookie

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestParse(t *testing.T) {
	got := Parse("a=1;  b=two; flag; c=x=y;")
	assert.Equal(t, map[string]string{"a": "1", "b": "two", "flag": "", "c": "x=y"}, got)
	assert.Equal(t, 0, len(Parse("")))
}

func TestJar(t *testing.T) {
	j := NewJar("session=abc; theme=dark")
	v, ok := j.Get("session")
	assert.Equal(t, true, ok)
	assert.Equal(t, "abc", v)

	j.Set("theme", "light").Set("lang", "en")
	assert.Equal(t, "session=abc; theme=light; lang=en", j.String())
	assert.Equal(t, []string{"lang", "session", "theme"}, j.Names())

	j.Delete("session")
	j.Delete("missing")
	_, ok = j.Get("session")
	assert.Equal(t, false, ok)
	assert.Equal(t, "theme=light; lang=en", j.String())
}
