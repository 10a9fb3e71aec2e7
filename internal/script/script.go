// Package script replays timed notification sessions described in YAML.
//
//	name: publish-flow
//	steps:
//	  - at: 0s
//	    op: notify
//	    ref: upload
//	    title: Uploading photo
//	    forever: true
//	  - at: 1500ms
//	    op: update
//	    ref: upload
//	    title: Photo uploaded
//	    variant: success
//	    duration: 3s
//	  - at: 2s
//	    op: dismiss_all
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/chirp/internal/core/notify"
)

// Op is a script operation.
type Op string

const (
	OpNotify     Op = "notify"
	OpUpdate     Op = "update"
	OpDismiss    Op = "dismiss"
	OpDismissAll Op = "dismiss_all"
)

// Script is a named list of steps.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one operation performed At after the script starts. Ref names a
// notification so later steps can update or dismiss it.
type Step struct {
	At          time.Duration  `yaml:"at"`
	Op          Op             `yaml:"op"`
	Ref         string         `yaml:"ref"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Variant     notify.Variant `yaml:"variant"`
	Duration    *time.Duration `yaml:"duration"`
	Forever     bool           `yaml:"forever"`
	Action      *notify.Action `yaml:"action"`
}

// Parse decodes and validates a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &s, nil
}

// Load reads a script file. The file name is used when the script has no name.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	return s, nil
}

// Validate checks every step. Refs must be introduced by a notify step that
// runs no later than the steps that use them.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return criterio.NewFieldErrors("steps", fmt.Errorf("array is empty"))
	}

	var errs criterio.FieldErrorsBuilder
	introduced := map[string]bool{}

	for _, step := range s.ordered() {
		prefix := fmt.Sprintf("steps[%d]", step.index)

		if step.At < 0 {
			errs = errs.Append(prefix+".at", fmt.Errorf("must not be negative, got %s", step.At))
		}

		switch step.Op {
		case OpNotify:
			if step.Ref != "" {
				if introduced[step.Ref] {
					errs = errs.Append(prefix+".ref", fmt.Errorf("ref %q already used", step.Ref))
				}
				introduced[step.Ref] = true
			}
			if err := step.data().Validate(); err != nil {
				errs = errs.Append(prefix, err)
			}
		case OpUpdate, OpDismiss:
			if step.Ref == "" {
				errs = errs.Append(prefix+".ref", fmt.Errorf("is required for %s", step.Op))
			} else if !introduced[step.Ref] {
				errs = errs.Append(prefix+".ref", fmt.Errorf("ref %q is not notified before use", step.Ref))
			}
			if step.Op == OpUpdate {
				if err := step.patch().Validate(); err != nil {
					errs = errs.Append(prefix, err)
				}
			}
		case OpDismissAll:
		default:
			errs = errs.Append(prefix+".op", fmt.Errorf("unknown op %q", step.Op))
		}
	}

	return errs.ToError()
}

type indexedStep struct {
	Step
	index int
}

// ordered returns steps sorted by At, keeping file order for ties.
func (s *Script) ordered() []indexedStep {
	out := make([]indexedStep, len(s.Steps))
	for i, st := range s.Steps {
		out[i] = indexedStep{Step: st, index: i}
	}
	slices.SortStableFunc(out, func(a, b indexedStep) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	return out
}

func (st Step) duration() *time.Duration {
	if st.Forever {
		return notify.DurationOf(notify.Forever)
	}
	return st.Duration
}

func (st Step) data() notify.Data {
	return notify.Data{
		Title:       st.Title,
		Description: st.Description,
		Variant:     st.Variant,
		Duration:    st.duration(),
		Action:      st.Action,
	}
}

// patch only carries the fields a step sets.
func (st Step) patch() notify.Patch {
	var p notify.Patch
	if st.Title != "" {
		p.Title = &st.Title
	}
	if st.Description != "" {
		p.Description = &st.Description
	}
	if st.Variant != "" {
		p.Variant = &st.Variant
	}
	p.Duration = st.duration()
	p.Action = st.Action
	return p
}
