package player

import "testing"

func TestBufferingControllerFiresOnlyOnEdges(t *testing.T) {
	t.Parallel()
	var events []bool
	b := newBufferingController(func(v bool) { events = append(events, v) })

	b.Set(true)
	b.Set(true) // repeated, must not fire again
	b.Set(false)
	b.Set(false)
	b.Set(true)

	want := []bool{true, false, true}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
	if !b.Get() {
		t.Fatal("Get() = false after final Set(true)")
	}
}
