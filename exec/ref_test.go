package exec

import "testing"

func TestRefReadWriteSequentialConsistency(t *testing.T) {
	m := NewMachine(func(h *Handle) (int, error) { return 0, nil }, NewSequentialConsistency(), nil)
	r := &Ref[int]{id: m.allocRef(1), m: m}

	m.writeRef(0, r.id, 2)
	if got := m.readRef(1, r.id); got != 2 {
		t.Fatalf("readRef from another thread = %v, want 2 (SC writes are immediately visible)", got)
	}
}

func TestRefWriteBufferedUnderTSOUntilFlush(t *testing.T) {
	m := NewMachine(func(h *Handle) (int, error) { return 0, nil }, NewTSO(), nil)
	r := &Ref[int]{id: m.allocRef(1), m: m}

	m.writeRef(0, r.id, 2)
	if got := m.readRef(0, r.id); got != 2 {
		t.Fatalf("writer's own readRef = %v, want 2 (a thread always sees its own writes)", got)
	}
	if got := m.readRef(1, r.id); got != 1 {
		t.Fatalf("other thread's readRef before flush = %v, want 1 (still-buffered write)", got)
	}

	m.flushRef(0, r.id)
	if got := m.readRef(1, r.id); got != 2 {
		t.Fatalf("other thread's readRef after flush = %v, want 2", got)
	}
}

func TestRefWriteBufferedUnderPSOUntilFlush(t *testing.T) {
	m := NewMachine(func(h *Handle) (int, error) { return 0, nil }, NewPSO(), nil)
	r := &Ref[int]{id: m.allocRef(0), m: m}

	m.writeRef(3, r.id, 9)
	if got := m.readRef(4, r.id); got != 0 {
		t.Fatalf("other thread's readRef before flush = %v, want 0", got)
	}
	m.flushRef(3, r.id)
	if got := m.readRef(4, r.id); got != 9 {
		t.Fatalf("other thread's readRef after flush = %v, want 9", got)
	}
}
