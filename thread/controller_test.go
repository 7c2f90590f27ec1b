package thread

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestControllerCombinesPolicies(t *testing.T) {
	log := NewLog("thread-1")
	for i := 0; i < 4; i++ {
		buildCallPair(t, log, "analyze")
	}
	buildCallPair(t, log, "save")

	controller := NewController(
		zerolog.Nop(),
		NewTriggerPolicy(map[string][]string{"save": {"analyze"}}),
		NewWindowPolicy(2),
	)

	// The trigger policy clears all analyze pairs after save completes.
	removed := controller.AfterToolCall(log, "save")
	if removed != 8 {
		t.Errorf("expected 8 turns removed, got %d", removed)
	}
	assertNoOrphans(t, log.Turns())

	// Window policy applies before the next reasoning step; save is within
	// its window so nothing more goes.
	if removed := controller.BeforeReasoningStep(log); removed != 0 {
		t.Errorf("expected no further eviction, got %d", removed)
	}
}

func TestControllerNoPoliciesIsNoop(t *testing.T) {
	log := NewLog("thread-1")
	buildCallPair(t, log, "analyze")

	controller := NewController(zerolog.Nop())
	if removed := controller.AfterToolCall(log, "analyze"); removed != 0 {
		t.Errorf("expected no eviction, got %d", removed)
	}
	if removed := controller.BeforeReasoningStep(log); removed != 0 {
		t.Errorf("expected no eviction, got %d", removed)
	}
}

func TestControllerWindowBeforeReasoning(t *testing.T) {
	log := NewLog("thread-1")
	for i := 0; i < 5; i++ {
		buildCallPair(t, log, "analyze")
	}

	controller := NewController(zerolog.Nop(), NewWindowPolicy(2))
	controller.BeforeReasoningStep(log)

	count := 0
	for _, turn := range log.Turns() {
		if turn.CallsTool("analyze") {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 invocations after eviction, got %d", count)
	}
}
