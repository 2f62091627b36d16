package device

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func ids(devices []Device) []string {
	out := make([]string, len(devices))
	for i, d := range devices {
		out[i] = d.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRegistry_RegisterUnique(t *testing.T) {
	r := NewRegistry()

	if !r.Register(Device{ID: "a", Label: "One"}) {
		t.Error("first Register should report a new device")
	}
	if r.Register(Device{ID: "a", Label: "Two"}) {
		t.Error("second Register should report a replacement")
	}

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	d, ok := r.Get("a")
	if !ok || d.Label != "Two" {
		t.Errorf("Get(a) = %+v, %v; want replaced entry", d, ok)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	r.Register(Device{ID: "a"})
	r.Register(Device{ID: "b"})

	if !r.Unregister("a") {
		t.Error("Unregister(a) = false, want true")
	}
	if r.Unregister("a") {
		t.Error("second Unregister(a) = true, want false")
	}
	if r.Unregister("missing") {
		t.Error("Unregister(missing) = true, want false")
	}

	if got := ids(r.Snapshot()); !equal(got, []string{"b"}) {
		t.Errorf("Snapshot() = %v, want [b]", got)
	}
}

func TestRegistry_Ordering(t *testing.T) {
	tests := []struct {
		name     string
		devices  []Device
		expected []string
	}{
		{
			name: "sorted by display name",
			devices: []Device{
				{ID: "3", Label: "Charlie"},
				{ID: "1", Label: "Alpha"},
				{ID: "2", Label: "Bravo"},
			},
			expected: []string{"1", "2", "3"},
		},
		{
			name: "unlabeled devices sort by ID",
			devices: []Device{
				{ID: "d0:73:d5:00:00:02"},
				{ID: "d0:73:d5:00:00:01"},
			},
			expected: []string{"d0:73:d5:00:00:01", "d0:73:d5:00:00:02"},
		},
		{
			name: "equal labels tie-break on ID",
			devices: []Device{
				{ID: "z", Label: "Lamp"},
				{ID: "m", Label: "Lamp"},
			},
			expected: []string{"m", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for _, d := range tt.devices {
				r.Register(d)
			}
			if got := ids(r.Snapshot()); !equal(got, tt.expected) {
				t.Errorf("Snapshot() order = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRegistry_UpdateResorts(t *testing.T) {
	r := NewRegistry()
	r.Register(Device{ID: "a", Label: "Alpha"})
	r.Register(Device{ID: "b", Label: "Bravo"})

	ok := r.Update("a", func(d *Device) { d.Label = "Zulu" })
	if !ok {
		t.Fatal("Update(a) = false, want true")
	}
	if got := ids(r.Snapshot()); !equal(got, []string{"b", "a"}) {
		t.Errorf("Snapshot() after relabel = %v, want [b a]", got)
	}

	if r.Update("missing", func(d *Device) {}) {
		t.Error("Update(missing) = true, want false")
	}
}

func TestRegistry_UpdateCannotChangeID(t *testing.T) {
	r := NewRegistry()
	r.Register(Device{ID: "a"})

	r.Update("a", func(d *Device) { d.ID = "b" })

	if _, ok := r.Get("a"); !ok {
		t.Error("device a should still be registered under its ID")
	}
	if _, ok := r.Get("b"); ok {
		t.Error("device should not be reachable under a new ID")
	}
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	r := NewRegistry()
	r.Register(Device{ID: "a", Label: "Alpha"})

	snap := r.Snapshot()
	snap[0].Label = "Mutated"

	d, _ := r.Get("a")
	if d.Label != "Alpha" {
		t.Errorf("registry entry changed through snapshot: %q", d.Label)
	}
}

func TestRegistry_View(t *testing.T) {
	r := NewRegistry()
	r.Register(Device{ID: "a", Label: "Alpha"})

	var seen string
	if !r.View("a", func(d Device) { seen = d.Label }) {
		t.Fatal("View() = false for a registered device")
	}
	if seen != "Alpha" {
		t.Errorf("View() saw label %q, want Alpha", seen)
	}

	called := false
	if r.View("missing", func(Device) { called = true }) || called {
		t.Error("View() must not call fn for an unknown ID")
	}
}

func TestRegistry_ViewBlocksUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(Device{ID: "a"})

	inView := make(chan struct{})
	release := make(chan struct{})
	viewDone := make(chan struct{})
	go func() {
		defer close(viewDone)
		r.View("a", func(Device) {
			close(inView)
			<-release
		})
	}()
	<-inView

	removed := make(chan bool, 1)
	go func() { removed <- r.Unregister("a") }()

	select {
	case <-removed:
		t.Fatal("Unregister() returned while View() was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-viewDone
	if !<-removed {
		t.Error("Unregister() after View() = false, want true")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(3)
		id := fmt.Sprintf("dev-%02d", i)
		go func() {
			defer wg.Done()
			r.Register(Device{ID: id})
		}()
		go func() {
			defer wg.Done()
			r.Update(id, func(d *Device) { d.Label = "L" + id })
		}()
		go func() {
			defer wg.Done()
			_ = r.Snapshot()
		}()
	}
	wg.Wait()

	if r.Len() != 50 {
		t.Errorf("Len() = %d, want 50", r.Len())
	}
}
