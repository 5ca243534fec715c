package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestParseFragmentSingleElement(t *testing.T) {
	_, root, err := ParseFragment("\n  <div id=\"app\"><p>hi</p></div>  \n")
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	if root.Data != "div" {
		t.Errorf("root = %q, want div", root.Data)
	}
	if id, _ := Attr(root, "id"); id != "app" {
		t.Errorf("id = %q, want app", id)
	}
	if got := Text(root); got != "hi" {
		t.Errorf("Text() = %q, want hi", got)
	}
}

func TestParseFragmentWrapsSeveralNodes(t *testing.T) {
	d, root, err := ParseFragment("<p>a</p><p>b</p>")
	if err != nil {
		t.Fatal(err)
	}
	if root.Data != "div" || len(Children(root)) != 2 {
		t.Errorf("root = %s", RenderString(root))
	}
	if d.Root() != root {
		t.Error("Root() should be the first parsed tree")
	}
}

func TestTextAndValue(t *testing.T) {
	_, root, _ := ParseFragment(`<div><span>old <b>bold</b></span><input value="v"><textarea>t</textarea></div>`)
	kids := Children(root)
	span, input, area := kids[0], kids[1], kids[2]

	if got := Text(span); got != "old bold" {
		t.Errorf("Text(span) = %q", got)
	}
	SetText(span, "new")
	if got := RenderString(span); got != "<span>new</span>" {
		t.Errorf("after SetText = %q", got)
	}

	if got := Value(input); got != "v" {
		t.Errorf("Value(input) = %q", got)
	}
	SetValue(input, "w")
	if got, _ := Attr(input, "value"); got != "w" {
		t.Errorf("value attr = %q", got)
	}

	if got := Value(area); got != "t" {
		t.Errorf("Value(textarea) = %q", got)
	}
	SetValue(area, "u")
	if got := Text(area); got != "u" {
		t.Errorf("textarea text = %q", got)
	}
}

func TestSiblingsAndInsert(t *testing.T) {
	_, root, _ := ParseFragment(`<ul><li>a</li> <li>b</li></ul>`)
	a := Children(root)[0]
	b := NextElement(a)
	if b == nil || Text(b) != "b" {
		t.Fatalf("NextElement(a) = %v", b)
	}
	if PrevElement(b) != a || NextElement(b) != nil {
		t.Error("sibling navigation mismatch")
	}

	c := Element("li")
	SetText(c, "c")
	Insert(root, a, c)
	if got := RenderString(root); got != "<ul><li>c</li><li>a</li> <li>b</li></ul>" {
		t.Errorf("after Insert = %q", got)
	}
	Insert(root, nil, c)
	if got := Text(Children(root)[2]); got != "c" {
		t.Errorf("moved node = %q, want c last", got)
	}
	Detach(c)
	Detach(c)
	if len(Children(root)) != 2 {
		t.Errorf("children after Detach = %d", len(Children(root)))
	}
}

func TestIDs(t *testing.T) {
	d, root, _ := ParseFragment(`<div><button>go</button></div>`)
	button := Children(root)[0]
	id := d.ID(button)
	if id == "" || d.ID(button) != id {
		t.Fatalf("ID() not stable: %q", id)
	}
	if len(id) != 26 || strings.ToLower(id) != id {
		t.Errorf("ID() = %q, want a lower-case ULID", id)
	}
	if n, ok := d.ByID(id); !ok || n != button {
		t.Error("ByID() did not find the node")
	}

	d2 := New()
	d2.SetRoot(root)
	if n, ok := d2.ByID(id); !ok || n != button {
		t.Error("ByID() should find ids by walking the root")
	}
	if _, ok := d2.ByID("missing"); ok {
		t.Error("ByID(missing) = true")
	}
}

func TestListeners(t *testing.T) {
	d, root, _ := ParseFragment(`<div><input></div>`)
	input := Children(root)[0]

	var got []string
	d.On(input, "input", func(ev Event) { got = append(got, "input:"+ev.Value) })
	id := d.On(input, "click", func(Event) { got = append(got, "click") })
	d.On(root, "click", func(ev Event) {
		if ev.Target != input {
			t.Error("bubbled event lost its target")
		}
		got = append(got, "parent-click")
	})

	if n := d.Emit(input, Event{Type: "input", Value: "x"}); n != 1 {
		t.Errorf("Emit(input) called %d listeners", n)
	}
	if Value(input) != "x" {
		t.Errorf("input value = %q, want x", Value(input))
	}
	if n := d.Emit(input, Event{Type: "click"}); n != 2 {
		t.Errorf("Emit(click) called %d listeners", n)
	}

	d.RemoveListener(input, id)
	d.Off(input, "input")
	if d.Listeners(input, "input") != 0 || d.Listeners(input, "click") != 0 {
		t.Error("listeners left after Off")
	}
	d.Emit(input, Event{Type: "click"})

	want := "input:x click parent-click parent-click"
	if strings.Join(got, " ") != want {
		t.Errorf("calls = %q, want %q", strings.Join(got, " "), want)
	}
}

func TestAdoptSharesTables(t *testing.T) {
	app, layout, _ := ParseFragment(`<main></main>`)
	view, el, _ := ParseFragment(`<button>b</button>`)
	clicks := 0
	view.On(el, "click", func(Event) { clicks++ })
	id := view.ID(el)

	app.Adopt(view)
	layout.AppendChild(el)
	app.Emit(el, Event{Type: "click"})
	view.On(el, "click", func(Event) { clicks++ })
	app.Emit(el, Event{Type: "click"})

	if clicks != 3 {
		t.Errorf("clicks = %d, want 3", clicks)
	}
	if n, ok := app.ByID(id); !ok || n != el {
		t.Error("adopted id not found")
	}
}

func TestPanickingListenerDoesNotStopDelivery(t *testing.T) {
	d := New()
	n := Element("button")
	ran := false
	d.On(n, "click", func(Event) { panic("boom") })
	d.On(n, "click", func(Event) { ran = true })
	d.Emit(n, Event{Type: "click"})
	if !ran {
		t.Error("second listener did not run")
	}
}

func TestWalkStops(t *testing.T) {
	_, root, _ := ParseFragment(`<div><a></a><b></b><i></i></div>`)
	var seen []string
	Walk(root, func(n *html.Node) bool {
		seen = append(seen, n.Data)
		return n.Data != "b"
	})
	if strings.Join(seen, ",") != "div,a,b" {
		t.Errorf("Walk visited %v", seen)
	}
}
