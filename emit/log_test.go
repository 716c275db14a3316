package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitterTextOutput(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, false)

	event := Event{
		SearchID:  "search-001",
		Iteration: 3,
		Tid:       2,
		Msg:       "trace_result",
		Meta:      map[string]interface{}{"failure": "deadlock"},
	}
	emitter.Emit(event)

	output := buf.String()
	for _, want := range []string{"search-001", "trace_result", "tid=2"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got: %s", want, output)
		}
	}
}

func TestLogEmitterJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, true)

	emitter.Emit(Event{SearchID: "s1", Iteration: 1, Msg: "iteration_start"})

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON line, got error: %v (output: %s)", err, buf.String())
	}
	if decoded["searchID"] != "s1" {
		t.Errorf("expected searchID s1, got %v", decoded["searchID"])
	}
}

func TestLogEmitterEmitBatchPreservesOrder(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, true)

	events := []Event{
		{SearchID: "s1", Iteration: 0, Msg: "iteration_start"},
		{SearchID: "s1", Iteration: 0, Msg: "iteration_end"},
	}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "iteration_start") || !strings.Contains(lines[1], "iteration_end") {
		t.Errorf("expected events in emission order, got: %v", lines)
	}
}
