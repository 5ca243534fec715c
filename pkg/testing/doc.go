// Package testing provides a view testing framework for spa.
//
// # Quick Start
//
// Create a tester, mount a view model, and make assertions:
//
//	func TestCounter(t *testing.T) {
//	    tester := spatest.NewViewTesterWithT(t)
//	    tester.Mount(counterTemplate, counterModel, mvvm.Context{})
//
//	    // Find nodes
//	    label := tester.Find(spatest.ByDirective(directive.KindText, "count"))
//
//	    // Simulate events
//	    tester.Click(spatest.ByTag("button"))
//	    tester.Settle()
//
//	    // Assert state
//	    if label.Text() != "1" {
//	        t.Errorf("count = %q, want 1", label.Text())
//	    }
//	}
//
// # Time
//
// The tester owns a run loop on a FakeClock. Pump advances the clock by one
// dispatch interval and pumps the loop, delivering at most one change
// event. Settle pumps until no events are queued.
//
// # Snapshot Testing
//
// Capture and compare the rendered view and the model data:
//
//	tester.CaptureSnapshot().MatchesFile(t, "testdata/counter.snapshot.json")
//
// Update snapshots with:
//
//	SPA_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import spatest "github.com/go-drift/spa/pkg/testing"
package testing
