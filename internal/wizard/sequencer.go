package wizard

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
)

var ErrNoForm = errors.New("step has no form")

type Action int

const (
	ActionWait Action = iota
	ActionRender
	ActionRedirect
)

func (a Action) String() string {
	switch a {
	case ActionWait:
		return "wait"
	case ActionRender:
		return "render"
	case ActionRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Decision is the outcome of resolving a route against the session profile.
type Decision struct {
	Action   Action
	Step     int
	Kind     onboarding.StepKind
	Location string
	// Notice carries the review outcome for rejected or update_needed profiles.
	Notice  string
	Profile *onboarding.Profile
}

// Sequencer maps /{flow}-onboarding/step/{n} routes to step components and decides when
// the caller has to be sent elsewhere.
type Sequencer struct {
	flow     onboarding.Flow
	gate     *Gate
	deps     StepDeps
	navigate func(path string)
}

// NewSequencer builds the sequencer for a flow. navigate receives the target path of
// onNext/onPrev; nil discards it.
func NewSequencer(flow onboarding.Flow, gate *Gate, deps StepDeps, navigate func(path string)) *Sequencer {
	if navigate == nil {
		navigate = func(string) {}
	}
	return &Sequencer{flow: flow, gate: gate, deps: deps, navigate: navigate}
}

func (s *Sequencer) Flow() onboarding.Flow {
	return s.flow
}

func ParseStep(path string) int {
	return onboarding.ParseStepPath(path)
}

func (s *Sequencer) Resolve(path string) Decision {
	step := ParseStep(path)
	if s.gate.Loading() {
		return Decision{Action: ActionWait, Step: step}
	}

	profile := s.gate.Profile()
	if profile != nil {
		if profile.Complete() && step != onboarding.FinalStep {
			return Decision{Action: ActionRedirect, Step: step, Location: onboarding.HomePath, Profile: profile}
		}
		if allowed, ok := profile.AllowedStep(); ok && step > allowed {
			return Decision{Action: ActionRedirect, Step: step, Location: s.flow.StepPath(allowed), Profile: profile}
		}
	}

	kind, _ := s.flow.Kind(step)
	d := Decision{Action: ActionRender, Step: step, Kind: kind, Profile: profile}
	if profile != nil && profile.Status != onboarding.StatusNormal && profile.RejectionReason != "" {
		d.Notice = profile.RejectionReason
	}
	return d
}

// Component returns the form for a step, pre-filled from the current profile and wired to
// navigate to the adjacent steps.
func (s *Sequencer) Component(step int) (Component, error) {
	deps := s.deps
	deps.Gate = s.gate
	deps.OnNext = func() { s.navigate(s.flow.StepPath(step + 1)) }
	if step > onboarding.FirstStep {
		deps.OnPrev = func() { s.navigate(s.flow.StepPath(step - 1)) }
	}

	c, err := NewComponent(s.flow, step, deps)
	if err != nil {
		return nil, err
	}
	c.Prefill(s.gate.Profile())
	return c, nil
}
