package emit

import "testing"

func TestBufferedEmitterHistory(t *testing.T) {
	emitter := NewBufferedEmitter()

	emitter.Emit(Event{SearchID: "s1", Iteration: 0, Msg: "iteration_start"})
	emitter.Emit(Event{SearchID: "s1", Iteration: 1, Msg: "iteration_start"})
	emitter.Emit(Event{SearchID: "s2", Iteration: 0, Msg: "iteration_start"})

	s1 := emitter.History("s1")
	if len(s1) != 2 {
		t.Fatalf("expected 2 events for s1, got %d", len(s1))
	}
	if s1[0].Iteration != 0 || s1[1].Iteration != 1 {
		t.Errorf("expected events in emission order, got %+v", s1)
	}

	if len(emitter.History("unknown")) != 0 {
		t.Error("expected empty history for an unknown search")
	}
}

func TestBufferedEmitterClear(t *testing.T) {
	emitter := NewBufferedEmitter()
	emitter.Emit(Event{SearchID: "s1", Msg: "iteration_start"})
	emitter.Emit(Event{SearchID: "s2", Msg: "iteration_start"})

	emitter.Clear("s1")
	if len(emitter.History("s1")) != 0 {
		t.Error("expected s1 history cleared")
	}
	if len(emitter.History("s2")) != 1 {
		t.Error("expected s2 history untouched")
	}

	emitter.Clear("")
	if len(emitter.History("s2")) != 0 {
		t.Error("expected Clear(\"\") to remove all history")
	}
}

func TestBufferedEmitterConcurrentUse(t *testing.T) {
	emitter := NewBufferedEmitter()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			emitter.Emit(Event{SearchID: "s1", Iteration: i, Msg: "iteration_start"})
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if len(emitter.History("s1")) != 8 {
		t.Fatalf("expected 8 events, got %d", len(emitter.History("s1")))
	}
}
