package jsonp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestURL(t *testing.T) {
	got, err := URL("http://api.test/users?v=2", "cb", map[string]string{"b": "x y", "a": "1"})
	if err != nil {
		t.Fatal(err)
	}
	want := "http://api.test/users?v=2&callback=cb&a=1&b=x+y"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		body string
		want string
		ok   bool
	}{
		{`cb({"a":1})`, `{"a":1}`, true},
		{" cb([1,2]);\n", `[1,2]`, true},
		{`other({})`, "", false},
		{`cb({}`, "", false},
	}
	for _, tt := range tests {
		got, err := Unwrap([]byte(tt.body), "cb")
		if (err == nil) != tt.ok {
			t.Errorf("Unwrap(%q) error = %v", tt.body, err)
			continue
		}
		if tt.ok && string(got) != tt.want {
			t.Errorf("Unwrap(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cb := r.URL.Query().Get(CallbackParam)
		if !strings.HasPrefix(cb, "spa_") {
			http.Error(w, "bad callback", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, "%s({\"name\":%q});", cb, r.URL.Query().Get("user"))
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	c := &Client{HTTP: srv.Client()}
	if err := c.Fetch(context.Background(), srv.URL, map[string]string{"user": "sal"}, &out); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if out.Name != "sal" {
		t.Errorf("name = %q, want sal", out.Name)
	}
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "alert(1)")
	}))
	defer srv.Close()

	c := &Client{}
	var out any
	if err := c.Fetch(context.Background(), srv.URL+"/missing", nil, &out); err == nil {
		t.Error("Fetch(404) should fail")
	}
	if err := c.Fetch(context.Background(), srv.URL, nil, &out); err == nil {
		t.Error("Fetch(wrong callback) should fail")
	}
}

func TestCallbackNamesAreUnique(t *testing.T) {
	if CallbackName() == CallbackName() {
		t.Error("callback names repeat")
	}
}
