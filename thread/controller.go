package thread

import "github.com/rs/zerolog"

// Controller applies eviction policies to a log. It composes any number of
// policies; their decisions are merged before removal so a unit selected by
// one policy is never split by another.
//
// The controller is invoked synchronously by the agent loop: once after
// every completed tool call and once before every reasoning step. No two
// decisions are ever computed concurrently against the same log.
type Controller struct {
	policies []Policy
	logger   zerolog.Logger
}

// NewController creates a controller over the given policies.
// With no policies the controller is a no-op.
func NewController(logger zerolog.Logger, policies ...Policy) *Controller {
	return &Controller{policies: policies, logger: logger}
}

// AfterToolCall computes and applies eviction for a just-completed tool.
// Returns the number of turns removed.
func (c *Controller) AfterToolCall(log *Log, toolName string) int {
	merged := NewDecision()
	for _, policy := range c.policies {
		decision := policy.AfterToolCall(toolName, log.Turns())
		for _, id := range decision.IDs() {
			merged.Add(id)
		}
	}
	return c.apply(log, merged, "after_tool_call", toolName)
}

// BeforeReasoningStep computes and applies eviction ahead of a model call.
// Returns the number of turns removed.
func (c *Controller) BeforeReasoningStep(log *Log) int {
	merged := NewDecision()
	for _, policy := range c.policies {
		decision := policy.BeforeReasoningStep(log.Turns())
		for _, id := range decision.IDs() {
			merged.Add(id)
		}
	}
	return c.apply(log, merged, "before_reasoning_step", "")
}

func (c *Controller) apply(log *Log, decision Decision, hook, toolName string) int {
	if decision.Empty() {
		return 0
	}
	before := log.Len()
	log.Remove(decision)
	removed := before - log.Len()
	event := c.logger.Debug().
		Str("thread_id", log.ThreadID()).
		Str("hook", hook).
		Int("removed", removed).
		Int("remaining", log.Len())
	if toolName != "" {
		event = event.Str("tool", toolName)
	}
	event.Msg("evicted turns")
	return removed
}
