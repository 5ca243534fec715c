package testing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/go-drift/spa/pkg/directive"
	"github.com/go-drift/spa/pkg/mvvm"
	"github.com/go-drift/spa/pkg/observe"
	spatest "github.com/go-drift/spa/pkg/testing"
)

const counterTemplate = `<div><span sp-text="count"></span><input sp-bind="name"><button sp-click="inc">+</button></div>`

func counterModel() mvvm.Model {
	return mvvm.Model{
		Data: map[string]any{"count": 0, "name": "sal"},
		Commands: map[string]observe.Command{
			"inc": func(store *observe.Store, _ any) {
				store.Set("count", store.MustGet("count").(int)+1)
			},
		},
	}
}

func TestViewTester_ClickAndSettle(t *testing.T) {
	tester := spatest.NewViewTesterWithT(t)
	if err := tester.Mount(counterTemplate, counterModel, mvvm.Context{}); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	label := spatest.ByDirective(directive.KindText, "count")
	if got := tester.Text(label); got != "0" {
		t.Fatalf("initial text = %q, want 0", got)
	}

	if err := tester.Click(spatest.ByTag("button")); err != nil {
		t.Fatal(err)
	}
	if got := tester.Store().MustGet("count"); got != 1 {
		t.Errorf("count = %v, want 1", got)
	}
	// Store writes land immediately; the view follows on a later tick.
	if got := tester.Text(label); got != "0" {
		t.Errorf("text before settle = %q, want 0", got)
	}
	if err := tester.Settle(); err != nil {
		t.Fatal(err)
	}
	if got := tester.Text(label); got != "1" {
		t.Errorf("text after settle = %q, want 1", got)
	}
}

func TestViewTester_PumpDeliversOneEventPerInterval(t *testing.T) {
	tester := spatest.NewViewTesterWithT(t)
	tester.SetInterval(50 * time.Millisecond)
	if err := tester.Mount(counterTemplate, counterModel, mvvm.Context{}); err != nil {
		t.Fatal(err)
	}
	button := spatest.ByTag("button")
	tester.Click(button)
	tester.Click(button)
	store := tester.Store()
	if store.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", store.Pending())
	}

	start := tester.Clock().Now()
	tester.Pump()
	if store.Pending() != 1 {
		t.Errorf("Pending() after one pump = %d, want 1", store.Pending())
	}
	if elapsed := tester.Clock().Now().Sub(start); elapsed != 50*time.Millisecond {
		t.Errorf("elapsed = %v, want 50ms", elapsed)
	}
	tester.Pump()
	if store.Pending() != 0 {
		t.Errorf("Pending() after two pumps = %d, want 0", store.Pending())
	}
}

func TestViewTester_InputUpdatesStore(t *testing.T) {
	tester := spatest.NewViewTesterWithT(t)
	if err := tester.Mount(counterTemplate, counterModel, mvvm.Context{}); err != nil {
		t.Fatal(err)
	}
	field := spatest.ByDirective(directive.KindBind, "name")
	if got := tester.Find(field).Value(); got != "sal" {
		t.Fatalf("initial value = %q, want sal", got)
	}
	if err := tester.Input(field, "kim"); err != nil {
		t.Fatal(err)
	}
	if got := tester.Store().MustGet("name"); got != "kim" {
		t.Errorf("name = %v, want kim", got)
	}
	if err := tester.Settle(); err != nil {
		t.Fatal(err)
	}
	if got := tester.Find(field).Value(); got != "kim" {
		t.Errorf("value after settle = %q, want kim", got)
	}
}

func TestViewTester_EmitWithoutMatch(t *testing.T) {
	tester := spatest.NewViewTesterWithT(t)
	if err := tester.Click(spatest.ByTag("button")); err == nil {
		t.Error("Click() before Mount should fail")
	}
	if err := tester.Mount(counterTemplate, counterModel, mvvm.Context{}); err != nil {
		t.Fatal(err)
	}
	if err := tester.Click(spatest.ByTag("a")); err == nil {
		t.Error("Click() with no match should fail")
	}
}

func TestViewTester_SettleTimeout(t *testing.T) {
	tester := spatest.NewViewTesterWithT(t)
	factory := func() mvvm.Model {
		return mvvm.Model{
			Data: map[string]any{"n": 0},
			OnMount: func(store *observe.Store) {
				// Every delivery queues another change.
				store.OnChange("n", func(*observe.ChangeEvent) {
					store.Set("n", store.MustGet("n").(int)+1)
				})
				store.Set("n", 1)
			},
		}
	}
	if err := tester.Mount(`<div></div>`, factory, mvvm.Context{}); err != nil {
		t.Fatal(err)
	}
	if err := tester.SettleWithin(time.Second); !errors.Is(err, spatest.ErrSettleTimeout) {
		t.Errorf("SettleWithin() error = %v, want ErrSettleTimeout", err)
	}
}

func TestViewTester_CleanupDestroys(t *testing.T) {
	var destroyed bool
	factory := func() mvvm.Model {
		m := counterModel()
		m.OnDestroy = func(*observe.Store) { destroyed = true }
		return m
	}
	tester := spatest.NewViewTester()
	if err := tester.Mount(counterTemplate, factory, mvvm.Context{}); err != nil {
		t.Fatal(err)
	}
	vm := tester.ViewModel()
	tester.Cleanup()
	if !destroyed {
		t.Error("OnDestroy did not run")
	}
	if vm.State() != mvvm.StateDestroyed {
		t.Errorf("State() = %v, want destroyed", vm.State())
	}
	if tester.Root() != nil || tester.Store() != nil {
		t.Error("tester still holds the view model after Cleanup")
	}
}

func TestViewTester_SnapshotMatchesFile(t *testing.T) {
	tester := spatest.NewViewTesterWithT(t)
	if err := tester.Mount(counterTemplate, counterModel, mvvm.Context{}); err != nil {
		t.Fatal(err)
	}
	tester.Click(spatest.ByTag("button"))
	if err := tester.Settle(); err != nil {
		t.Fatal(err)
	}
	tester.CaptureSnapshot().MatchesFile(t, "testdata/counter_clicked.snapshot.json")
}
