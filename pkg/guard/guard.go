package guard

import (
	"log"

	"clinic-assistant-be/pkg/conversation"
)

// Reason is the typed cause attached to a blocking verdict.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonIllegalText         Reason = "ILLEGAL_TEXT"
	ReasonPriceWithoutService Reason = "PRICE_WITHOUT_SERVICE"
	ReasonPriceWithoutArea    Reason = "PRICE_WITHOUT_AREA"
	ReasonAskAreaAgain        Reason = "ASK_AREA_AGAIN"
	ReasonStageMismatch       Reason = "STAGE_MISMATCH"
)

// Verdict is the tagged result of a guard. Guards never return errors or
// panic outward; a recovered panic converts to a pass so a broken heuristic
// cannot take the turn down.
type Verdict struct {
	Blocked bool
	Reply   string
	Guard   string
	Reason  Reason

	// PreferenceDelta carries style preferences the preference guard
	// extracted. The orchestrator merges it into state; nothing else is
	// allowed to mutate state from inside a guard.
	PreferenceDelta map[string]string
}

func pass() Verdict { return Verdict{} }

func block(name, reply string) Verdict {
	return Verdict{Blocked: true, Guard: name, Reply: reply}
}

// Input is everything a pre-generation guard may look at. Guards are pure
// over this snapshot.
type Input struct {
	Prev          conversation.State
	Classified    conversation.Classified
	Message       string
	RetrievalMode string // retrieval mode for the resolved service
}

// Guard is one deterministic validator in the pipeline.
type Guard interface {
	Name() string
	Evaluate(in Input) Verdict
}

// Policy holds the tunable heuristics shared by the guards. These mirror the
// configurable guard policy; nothing in this package hard-codes thresholds.
type Policy struct {
	ShortMessageRunes  int
	RefinementKeywords []string
	ChitchatKeywords   []string
	ForbiddenTokens    []string
}

// Pipeline runs guards in fixed order and stops at the first block.
type Pipeline struct {
	guards []Guard
	logger *log.Logger
}

func NewPipeline(logger *log.Logger, guards ...Guard) *Pipeline {
	return &Pipeline{guards: guards, logger: logger}
}

// Evaluate walks the ordered guards. A panicking guard is logged and treated
// as a pass.
func (p *Pipeline) Evaluate(in Input) Verdict {
	for _, g := range p.guards {
		v := p.safeEvaluate(g, in)
		if v.Blocked {
			p.logger.Printf("[GUARD] %s blocked (reason=%s)", g.Name(), v.Reason)
			return v
		}
	}
	return pass()
}

func (p *Pipeline) safeEvaluate(g Guard, in Input) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Printf("[GUARD] %s panicked: %v (treated as pass)", g.Name(), r)
			v = pass()
		}
	}()
	return g.Evaluate(in)
}
