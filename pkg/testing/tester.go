package testing

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/go-drift/spa/pkg/dom"
	"github.com/go-drift/spa/pkg/logging"
	"github.com/go-drift/spa/pkg/mvvm"
	"github.com/go-drift/spa/pkg/observe"
	"github.com/go-drift/spa/pkg/runloop"
)

// DefaultSettleTimeout bounds how much fake time Settle may advance.
const DefaultSettleTimeout = 10 * time.Second

// ErrSettleTimeout is returned when Settle exceeds its timeout.
var ErrSettleTimeout = errors.New("Settle timed out: change queue did not drain")

// ViewTester mounts a view model on a run loop driven by a fake clock.
// Nothing happens between calls: time advances only through Pump and
// Settle, so change delivery is deterministic.
type ViewTester struct {
	clock    *FakeClock
	loop     *runloop.Loop
	interval time.Duration
	vm       *mvvm.ViewModel
}

// NewViewTester creates a tester with a fresh fake clock and loop.
// Call Cleanup() when done, or use NewViewTesterWithT() instead.
func NewViewTester() *ViewTester {
	clk := NewFakeClock()
	return &ViewTester{
		clock:    clk,
		loop:     runloop.New(runloop.WithClock(clk)),
		interval: observe.DefaultInterval,
	}
}

// NewViewTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewViewTesterWithT(t *testing.T) *ViewTester {
	tester := NewViewTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup destroys the mounted view model, if any.
func (t *ViewTester) Cleanup() {
	if t.vm != nil {
		t.vm.Destroy()
		t.vm = nil
	}
}

// SetInterval sets the dispatch interval. Must be called before Mount.
func (t *ViewTester) SetInterval(d time.Duration) {
	if d > 0 {
		t.interval = d
	}
}

// Clock returns the fake clock for advancing time in tests.
func (t *ViewTester) Clock() *FakeClock {
	return t.clock
}

// Loop returns the run loop the view model observes on.
func (t *ViewTester) Loop() *runloop.Loop {
	return t.loop
}

// Mount creates (or replaces) the view model for template and factory,
// binds it with ctx and runs its mount hook.
func (t *ViewTester) Mount(template string, factory mvvm.Factory, ctx mvvm.Context, opts ...mvvm.Option) error {
	t.Cleanup()

	opts = append([]mvvm.Option{
		mvvm.WithLoop(t.loop),
		mvvm.WithInterval(t.interval),
		mvvm.WithLogger(logging.Discard()),
	}, opts...)
	vm, err := mvvm.New(template, factory, opts...)
	if err != nil {
		return err
	}
	if err := vm.Create(ctx); err != nil {
		return err
	}
	vm.Mount()
	t.vm = vm
	return nil
}

// ViewModel returns the mounted view model, or nil.
func (t *ViewTester) ViewModel() *mvvm.ViewModel {
	return t.vm
}

// Store returns the mounted view model's store, or nil.
func (t *ViewTester) Store() *observe.Store {
	if t.vm == nil {
		return nil
	}
	return t.vm.Store()
}

// Document returns the mounted view model's document, or nil.
func (t *ViewTester) Document() *dom.Document {
	if t.vm == nil {
		return nil
	}
	return t.vm.Document()
}

// Root returns the mounted view's root element, or nil.
func (t *ViewTester) Root() *html.Node {
	if t.vm == nil {
		return nil
	}
	return t.vm.Element()
}

// Pump advances the clock by one dispatch interval and pumps the loop,
// delivering at most one queued change event.
func (t *ViewTester) Pump() {
	t.clock.Advance(t.interval)
	t.loop.Pump()
}

// Settle pumps until no change events or loop tasks are pending.
// Returns ErrSettleTimeout if that takes longer than DefaultSettleTimeout
// of fake time.
func (t *ViewTester) Settle() error {
	return t.SettleWithin(DefaultSettleTimeout)
}

// SettleWithin is Settle with an explicit timeout.
func (t *ViewTester) SettleWithin(timeout time.Duration) error {
	t.loop.Pump()
	var elapsed time.Duration
	for t.needsWork() {
		if elapsed >= timeout {
			return ErrSettleTimeout
		}
		t.Pump()
		elapsed += t.interval
	}
	return nil
}

func (t *ViewTester) needsWork() bool {
	if t.loop.Pending() > 0 {
		return true
	}
	store := t.Store()
	return store != nil && store.Observing() && store.Pending() > 0
}

// Find evaluates a finder against the mounted view.
func (t *ViewTester) Find(finder Finder) FinderResult {
	if t.vm == nil {
		return FinderResult{finder: finder}
	}
	return FinderResult{
		nodes:  finder.Evaluate(t.vm.Element()),
		finder: finder,
	}
}

// Input sets the value of the first node matching finder and emits an
// input event on it.
func (t *ViewTester) Input(finder Finder, value string) error {
	return t.emit(finder, dom.Event{Type: "input", Value: value})
}

// Click emits a click event on the first node matching finder.
func (t *ViewTester) Click(finder Finder) error {
	return t.emit(finder, dom.Event{Type: "click"})
}

// Emit dispatches ev on the first node matching finder.
func (t *ViewTester) Emit(finder Finder, ev dom.Event) error {
	return t.emit(finder, ev)
}

func (t *ViewTester) emit(finder Finder, ev dom.Event) error {
	n := t.Find(finder).FirstOrNil()
	if n == nil {
		return fmt.Errorf("no node for %s event: %s", ev.Type, finder.Description())
	}
	t.vm.Document().Emit(n, ev)
	return nil
}

// Text returns the text of the first node matching finder, or "" if none.
func (t *ViewTester) Text(finder Finder) string {
	n := t.Find(finder).FirstOrNil()
	if n == nil {
		return ""
	}
	return dom.Text(n)
}

// HTML renders the mounted view.
func (t *ViewTester) HTML() string {
	if t.vm == nil {
		return ""
	}
	return dom.RenderString(t.vm.Element())
}
