package observe

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/runloop"
)

func newTestStore(t *testing.T, data map[string]any, opts ...Option) *Store {
	t.Helper()
	s, err := New(data, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func record(s *Store, key string, log *[]string) func() {
	return s.OnChange(key, func(ev *ChangeEvent) {
		*log = append(*log, key+"<-"+ev.Key)
	})
}

func TestNewRejectsNonObject(t *testing.T) {
	for _, data := range []any{nil, 42, "x", []any{1}} {
		_, err := New(data)
		var typeErr *errors.TypeError
		if !stderrors.As(err, &typeErr) {
			t.Errorf("New(%#v) error = %v, want *TypeError", data, err)
		}
	}
}

func TestNewRejectsUnaddressableNames(t *testing.T) {
	_, err := New(map[string]any{"a": map[string]any{"b.c": 1}})
	var nameErr *errors.ReservedNameError
	if !stderrors.As(err, &nameErr) {
		t.Fatalf("error = %v, want *ReservedNameError", err)
	}
	if nameErr.Name != "b.c" || nameErr.Path != "a" {
		t.Errorf("ReservedNameError = %+v", nameErr)
	}
}

func TestNewNormalizesTypedValues(t *testing.T) {
	type row map[string]int
	s := newTestStore(t, map[string]any{
		"tags": []string{"a", "b"},
		"rows": []row{{"n": 1}},
		"meta": map[string]string{"k": "v"},
	})
	tags, ok := s.MustGet("tags").(*Array)
	if !ok || tags.Len() != 2 || tags.Index(1) != "b" {
		t.Errorf("tags = %#v", s.MustGet("tags"))
	}
	if got := s.MustGet("rows.0.n"); got != 1 {
		t.Errorf("rows.0.n = %v, want 1", got)
	}
	if got := s.MustGet("meta.k"); got != "v" {
		t.Errorf("meta.k = %v, want v", got)
	}
}

func TestRedundantWriteQueuesNothing(t *testing.T) {
	s := newTestStore(t, map[string]any{"a": 1, "o": map[string]any{"b": "x"}})
	o := s.MustGet("o")

	if err := s.Set("a", 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("o.b", "x"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("o", o); err != nil {
		t.Fatal(err)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d after redundant writes, want 0", s.Pending())
	}

	s.Set("a", 2)
	if s.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", s.Pending())
	}
}

func TestNilMapWriteOverNilQueuesNothing(t *testing.T) {
	s := newTestStore(t, map[string]any{"m": nil, "list": []any{nil}})

	for range 2 {
		if err := s.Set("m", map[string]any(nil)); err != nil {
			t.Fatal(err)
		}
		if err := s.Set("m", map[string]string(nil)); err != nil {
			t.Fatal(err)
		}
	}
	list := s.MustGet("list").(*Array)
	if err := list.SetIndex(0, map[string]any(nil)); err != nil {
		t.Fatal(err)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d after nil map writes over nil, want 0", s.Pending())
	}
	if v := s.MustGet("m"); v != nil {
		t.Errorf("m = %#v, want nil", v)
	}

	s.Set("m", map[string]any{"k": 1})
	if s.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", s.Pending())
	}
}

func TestWriteIsSynchronousDeliveryIsDeferred(t *testing.T) {
	s := newTestStore(t, map[string]any{"a": 1})
	var got []string
	record(s, "a", &got)

	s.Set("a", 2)
	if v := s.MustGet("a"); v != 2 {
		t.Errorf("Get(a) = %v right after Set, want 2", v)
	}
	if len(got) != 0 {
		t.Fatalf("handler ran synchronously: %v", got)
	}
	s.Tick()
	if len(got) != 1 {
		t.Errorf("handler calls after Tick = %v, want 1", got)
	}
}

func TestSetUnknownFieldFails(t *testing.T) {
	s := newTestStore(t, map[string]any{"o": map[string]any{"b": 1}})
	var accessErr *errors.PropertyAccessError
	if err := s.Set("o.c", 1); !stderrors.As(err, &accessErr) {
		t.Errorf("Set(o.c) error = %v, want *PropertyAccessError", err)
	}
	if err := s.Set("x.y", 1); !stderrors.As(err, &accessErr) {
		t.Errorf("Set(x.y) error = %v, want *PropertyAccessError", err)
	}
	if _, err := s.Get("o.b.c.d"); !stderrors.As(err, &accessErr) {
		t.Errorf("Get(o.b.c.d) error = %v, want *PropertyAccessError", err)
	}
}

func TestBubblingOrder(t *testing.T) {
	s := newTestStore(t, map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}},
	})
	var got []string
	record(s, "", &got)
	record(s, "a", &got)
	record(s, "a.b", &got)
	record(s, "a.b.c", &got)
	record(s, "a.bc", &got)

	s.Set("a.b.c", 2)
	s.Flush()

	want := []string{"a.b.c<-a.b.c", "a.b<-a.b.c", "a<-a.b.c", "<-a.b.c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("delivery = %v, want %v", got, want)
	}
}

func TestStopPropagation(t *testing.T) {
	s := newTestStore(t, map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}},
	})
	var got []string
	record(s, "a", &got)
	s.OnChange("a.b", func(ev *ChangeEvent) {
		got = append(got, "stopper")
		ev.StopPropagation()
	})
	record(s, "a.b", &got)
	record(s, "a.b.c", &got)

	s.Set("a.b.c", 2)
	s.Flush()

	want := []string{"a.b.c<-a.b.c", "stopper", "a.b<-a.b.c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("delivery = %v, want %v", got, want)
	}
}

func TestOneEventPerTickFIFO(t *testing.T) {
	s := newTestStore(t, map[string]any{"a": 0, "b": 0})
	var got []string
	record(s, "", &got)

	s.Set("a", 1)
	s.Set("b", 1)
	s.Set("a", 2)

	for i, want := range []string{"<-a", "<-b", "<-a"} {
		if !s.Tick() {
			t.Fatalf("Tick() %d = false", i)
		}
		if len(got) != i+1 || got[i] != want {
			t.Fatalf("after tick %d got %v, want last %q", i, got, want)
		}
	}
	if s.Tick() {
		t.Error("Tick() on empty queue = true")
	}
}

func TestArrayMutatorsQueueOneEventAtArrayScope(t *testing.T) {
	s := newTestStore(t, map[string]any{
		"key": []any{1, 2, 3, map[string]any{"a": "b"}},
	})
	var got []string
	record(s, "key", &got)
	list := s.MustGet("key").(*Array)

	list.Push(9)
	if s.Pending() != 1 {
		t.Fatalf("Pending() after Push = %d, want 1", s.Pending())
	}

	// Element contents are plain data.
	elem := list.Index(3).(map[string]any)
	elem["a"] = "x"
	if err := s.Set("key.3.a", "y"); err != nil {
		t.Fatal(err)
	}
	if s.Pending() != 1 {
		t.Errorf("Pending() after element mutation = %d, want 1", s.Pending())
	}

	s.Flush()
	if fmt.Sprint(got) != "[key<-key]" {
		t.Errorf("delivery = %v", got)
	}
}

func TestArrayIndexWrite(t *testing.T) {
	s := newTestStore(t, map[string]any{"list": []any{"a", "b"}})
	var got []string
	record(s, "list", &got)

	if err := s.Set("list.1", "c"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("list.1", "c"); err != nil {
		t.Fatal(err)
	}
	s.Flush()
	if fmt.Sprint(got) != "[list<-list.1]" {
		t.Errorf("delivery = %v", got)
	}

	var accessErr *errors.PropertyAccessError
	if err := s.Set("list.5", "z"); !stderrors.As(err, &accessErr) {
		t.Errorf("Set(list.5) error = %v, want *PropertyAccessError", err)
	}
}

func TestArrayMutators(t *testing.T) {
	s := newTestStore(t, map[string]any{"n": []any{3, 1, 2}})
	a := s.MustGet("n").(*Array)

	if n := a.Push(4, 5); n != 5 {
		t.Errorf("Push() = %d, want 5", n)
	}
	if v := a.Pop(); v != 5 {
		t.Errorf("Pop() = %v, want 5", v)
	}
	if v := a.Shift(); v != 3 {
		t.Errorf("Shift() = %v, want 3", v)
	}
	if n := a.Unshift(0); n != 4 {
		t.Errorf("Unshift() = %d, want 4", n)
	}
	a.Sort(func(x, y any) int { return x.(int) - y.(int) })
	if got := fmt.Sprint(a.Items()); got != "[0 1 2 4]" {
		t.Errorf("after Sort = %s", got)
	}
	a.Reverse()
	if got := fmt.Sprint(a.Items()); got != "[4 2 1 0]" {
		t.Errorf("after Reverse = %s", got)
	}
	if s.Pending() != 6 {
		t.Errorf("Pending() = %d, want one event per mutator (6)", s.Pending())
	}
}

func TestSpliceClamps(t *testing.T) {
	tests := []struct {
		start, count int
		insert       []any
		removed      string
		result       string
	}{
		{1, 1, nil, "[b]", "[a c d]"},
		{-2, 1, []any{"x"}, "[c]", "[a b x d]"},
		{-10, 1, nil, "[a]", "[b c d]"},
		{10, 1, []any{"x"}, "[]", "[a b c d x]"},
		{2, 10, nil, "[c d]", "[a b]"},
		{1, -1, []any{"x", "y"}, "[]", "[a x y b c d]"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d", tt.start, tt.count), func(t *testing.T) {
			s := newTestStore(t, map[string]any{"l": []any{"a", "b", "c", "d"}})
			a := s.MustGet("l").(*Array)
			removed := a.Splice(tt.start, tt.count, tt.insert...)
			if got := fmt.Sprint(removed); got != tt.removed {
				t.Errorf("removed = %s, want %s", got, tt.removed)
			}
			if got := fmt.Sprint(a.Items()); got != tt.result {
				t.Errorf("result = %s, want %s", got, tt.result)
			}
		})
	}
}

func TestDefaultSortComparesStrings(t *testing.T) {
	s := newTestStore(t, map[string]any{"l": []any{10, 9, 1}})
	a := s.MustGet("l").(*Array)
	a.Sort(nil)
	if got := fmt.Sprint(a.Items()); got != "[1 10 9]" {
		t.Errorf("Sort(nil) = %s, want [1 10 9]", got)
	}
}

func TestReassignedObjectIsDetached(t *testing.T) {
	s := newTestStore(t, map[string]any{
		"key1": map[string]any{"key2": "v"},
	})
	old := s.MustGet("key1").(*Object)

	s.Set("key1", map[string]any{"key2": "w"})
	s.Flush()

	if !old.Detached() {
		t.Fatal("old object should be detached")
	}
	if err := old.SetField("key2", "changed"); err != nil {
		t.Fatal(err)
	}
	if s.Pending() != 0 {
		t.Errorf("write to detached object queued %d events", s.Pending())
	}
	if got := s.MustGet("key1.key2"); got != "w" {
		t.Errorf("key1.key2 = %v, want w", got)
	}

	fresh := s.MustGet("key1").(*Object)
	if fresh.Scope() != "key1" || fresh.Detached() {
		t.Errorf("fresh object scope = %q detached = %v", fresh.Scope(), fresh.Detached())
	}
}

func TestReassignedArrayIsDetached(t *testing.T) {
	s := newTestStore(t, map[string]any{"l": []any{1}})
	old := s.MustGet("l").(*Array)
	s.Set("l", []any{2})
	s.Flush()

	old.Push(3)
	if s.Pending() != 0 {
		t.Errorf("mutating a detached array queued %d events", s.Pending())
	}
}

func TestNestedValueBecomesObserved(t *testing.T) {
	s := newTestStore(t, map[string]any{"o": 0})
	var got []string
	record(s, "o", &got)

	s.Set("o", map[string]any{"p": map[string]any{"q": 1}})
	s.Set("o.p.q", 2)
	s.Flush()

	want := "[o<-o o<-o.p.q]"
	if fmt.Sprint(got) != want {
		t.Errorf("delivery = %v, want %s", got, want)
	}
}

func TestSnapshotIsPlain(t *testing.T) {
	data := map[string]any{
		"o": map[string]any{"l": []any{1, 2}},
	}
	s := newTestStore(t, data)
	snap := s.Snapshot()
	o, ok := snap["o"].(map[string]any)
	if !ok {
		t.Fatalf("snapshot o = %T", snap["o"])
	}
	if _, ok := o["l"].([]any); !ok {
		t.Errorf("snapshot o.l = %T", o["l"])
	}
	o["l"] = nil
	if s.MustGet("o.l") == nil {
		t.Error("mutating a snapshot changed the store")
	}
}

func TestHandlerPanicIsIsolated(t *testing.T) {
	prev := errors.DefaultHandler
	var reported []*errors.PanicError
	errors.SetHandler(panicRecorder(func(p *errors.PanicError) {
		reported = append(reported, p)
	}))
	defer errors.SetHandler(prev)

	var buf bytes.Buffer
	s := newTestStore(t, map[string]any{"a": 0},
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	var got []string
	s.OnChange("a", func(*ChangeEvent) { panic("broken") })
	record(s, "a", &got)
	record(s, "", &got)

	s.Set("a", 1)
	s.Set("a", 2)
	s.Flush()

	if len(got) != 4 {
		t.Errorf("healthy handlers ran %d times, want 4", len(got))
	}
	if len(reported) != 2 || reported[0].Op != "observe.dispatch" || reported[0].Key != "a" {
		t.Errorf("reported = %+v", reported)
	}
	if !strings.Contains(buf.String(), "change handler panicked") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestUnsubscribe(t *testing.T) {
	s := newTestStore(t, map[string]any{"a": 0})
	var got []string
	off := record(s, "a", &got)
	s.Set("a", 1)
	s.Flush()
	off()
	off()
	s.Set("a", 2)
	s.Flush()
	if len(got) != 1 {
		t.Errorf("handler ran %d times, want 1", len(got))
	}
}

func TestUnsubscribeDuringDelivery(t *testing.T) {
	s := newTestStore(t, map[string]any{"a": 0})
	var got []string
	var offSecond func()
	s.OnChange("a", func(*ChangeEvent) {
		got = append(got, "first")
		offSecond()
	})
	offSecond = s.OnChange("a", func(*ChangeEvent) {
		got = append(got, "second")
	})
	s.Set("a", 1)
	s.Flush()
	if fmt.Sprint(got) != "[first]" {
		t.Errorf("delivery = %v, want [first]", got)
	}
}

func TestQueueLimitDropsOldest(t *testing.T) {
	var buf bytes.Buffer
	s := newTestStore(t, map[string]any{"a": 0, "b": 0, "c": 0},
		WithQueueLimit(2),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	var got []string
	record(s, "", &got)

	s.Set("a", 1)
	s.Set("b", 1)
	s.Set("c", 1)
	s.Flush()

	if fmt.Sprint(got) != "[<-b <-c]" {
		t.Errorf("delivery = %v, want [<-b <-c]", got)
	}
	if !strings.Contains(buf.String(), "key=a") {
		t.Errorf("overflow log = %q", buf.String())
	}
}

func TestCommands(t *testing.T) {
	s := newTestStore(t, map[string]any{"n": 0})
	s.Define("inc", func(st *Store, event any) {
		st.Set("n", st.MustGet("n").(int)+1)
	})
	s.Define("noop", func(*Store, any) {})
	s.Define("noop", nil)

	if err := s.Call("inc", nil); err != nil {
		t.Fatal(err)
	}
	if got := s.MustGet("n"); got != 1 {
		t.Errorf("n = %v, want 1", got)
	}
	var accessErr *errors.PropertyAccessError
	if err := s.Call("missing", nil); !stderrors.As(err, &accessErr) {
		t.Errorf("Call(missing) error = %v", err)
	}
	if got := fmt.Sprint(s.Commands()); got != "[inc]" {
		t.Errorf("Commands() = %s", got)
	}
}

func TestObserveOnLoop(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	loop := runloop.New(runloop.WithClock(clock))
	s := newTestStore(t, map[string]any{"a": 0}, WithInterval(50*time.Millisecond))
	var got []string
	record(s, "a", &got)

	s.StartObserve(loop).StartObserve(loop)
	if !s.Observing() {
		t.Fatal("Observing() = false")
	}
	s.Set("a", 1)
	s.Set("a", 2)

	loop.Pump()
	if len(got) != 0 {
		t.Fatalf("delivered before the interval: %v", got)
	}
	clock.Advance(50 * time.Millisecond)
	loop.Pump()
	if len(got) != 1 {
		t.Fatalf("after one interval delivered %d, want 1", len(got))
	}

	s.StopObserve()
	s.StopObserve()
	clock.Advance(time.Second)
	loop.Pump()
	if len(got) != 1 || s.Pending() != 1 {
		t.Errorf("after StopObserve delivered %d pending %d", len(got), s.Pending())
	}
}

func TestTeardown(t *testing.T) {
	s := newTestStore(t, map[string]any{"o": map[string]any{"a": 1}})
	o := s.MustGet("o").(*Object)
	s.Set("o.a", 2)
	s.Teardown()
	if s.Pending() != 0 {
		t.Errorf("Pending() after Teardown = %d", s.Pending())
	}
	o.SetField("a", 3)
	s.Set("o", 4)
	if s.Pending() != 0 || !o.Detached() {
		t.Errorf("torn down store still queues: %d", s.Pending())
	}
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type panicRecorder func(*errors.PanicError)

func (r panicRecorder) HandleError(*errors.Error)          {}
func (r panicRecorder) HandlePanic(err *errors.PanicError) { r(err) }

func ExampleStore() {
	store, _ := New(map[string]any{
		"user": map[string]any{"name": "sal"},
	})
	store.OnChange("user", func(ev *ChangeEvent) {
		fmt.Println("changed:", ev.Key)
	})
	store.Set("user.name", "bob")
	store.Tick()
	// Output: changed: user.name
}
