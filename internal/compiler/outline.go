// Package compiler turns a YAML experiment outline into a runnable tree.
// The outline covers structure, labels and page bodies; anything requiring
// code (visibility predicates, custom checks) is attached through the tree
// package's options after compiling.
package compiler

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/ctreffe/alfred/pkg/session"
	"github.com/ctreffe/alfred/pkg/tree"
)

// Outline mirrors the YAML document describing an experiment.
type Outline struct {
	Experiment Experiment  `yaml:"experiment"`
	Children   []ChildSpec `yaml:"children"`
}

// Experiment carries the metadata block.
type Experiment struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Type      string `yaml:"type"`
	Condition string `yaml:"condition"`
}

// ChildSpec is one entry of a children list: either a page or a nested
// section, never both.
type ChildSpec struct {
	Page    *PageSpec    `yaml:"page,omitempty"`
	Section *SectionSpec `yaml:"section,omitempty"`
}

// SectionSpec describes a container.
type SectionSpec struct {
	Tag       string      `yaml:"tag"`
	Kind      string      `yaml:"kind"` // plain (default), gated, strict
	JumpLabel string      `yaml:"jump_label"`
	Shuffle   bool        `yaml:"shuffle"`
	Children  []ChildSpec `yaml:"children"`
}

// PageSpec describes a leaf.
type PageSpec struct {
	Tag       string           `yaml:"tag"`
	Title     string           `yaml:"title"`
	Subtitle  string           `yaml:"subtitle"`
	Body      string           `yaml:"body"`
	JumpLabel string           `yaml:"jump_label"`
	Hidden    bool             `yaml:"hidden"`
	Behaviors []map[string]any `yaml:"behaviors"`
}

// Parse decodes and validates an outline document.
func Parse(data []byte) (*Outline, error) {
	var o Outline
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to parse outline: %w", err)
	}
	if o.Experiment.Name == "" {
		return nil, fmt.Errorf("outline is missing experiment.name")
	}
	if len(o.Children) == 0 {
		return nil, fmt.Errorf("outline %q has no children", o.Experiment.Name)
	}
	return &o, nil
}

// Meta returns the session metadata described by the outline.
func (o *Outline) Meta() session.Metadata {
	return session.Metadata{
		Name:      o.Experiment.Name,
		Version:   o.Experiment.Version,
		Type:      o.Experiment.Type,
		Condition: o.Experiment.Condition,
	}
}

// Build compiles the outline into a content tree rooted in a strict section,
// so top-level blocks are always worked through one at a time.
func (o *Outline) Build() (*tree.Section, error) {
	root := tree.NewStrictSection(tree.WithSectionTag("content"))
	if err := appendChildren(root, o.Children); err != nil {
		return nil, err
	}
	return root, nil
}

func appendChildren(parent *tree.Section, specs []ChildSpec) error {
	for _, spec := range specs {
		switch {
		case spec.Page != nil && spec.Section != nil:
			return fmt.Errorf("child is both a page and a section")
		case spec.Page != nil:
			page, err := buildPage(spec.Page)
			if err != nil {
				return err
			}
			if err := parent.Append(page); err != nil {
				return err
			}
		case spec.Section != nil:
			sec, err := buildSection(spec.Section)
			if err != nil {
				return err
			}
			if err := parent.Append(sec); err != nil {
				return err
			}
		default:
			return fmt.Errorf("child is neither a page nor a section")
		}
	}
	return nil
}

func buildSection(spec *SectionSpec) (*tree.Section, error) {
	var opts []tree.SectionOption
	if spec.Tag != "" {
		opts = append(opts, tree.WithSectionTag(spec.Tag))
	}
	if spec.JumpLabel != "" {
		opts = append(opts, tree.WithSectionJump(spec.JumpLabel))
	}

	var sec *tree.Section
	switch spec.Kind {
	case "", "plain":
		sec = tree.NewSection(opts...)
	case "gated":
		sec = tree.NewGatedSection(opts...)
	case "strict":
		sec = tree.NewStrictSection(opts...)
	default:
		return nil, fmt.Errorf("section %q: unknown kind %q", spec.Tag, spec.Kind)
	}

	if err := appendChildren(sec, spec.Children); err != nil {
		return nil, err
	}
	if spec.Shuffle {
		sec.Randomize(false)
	}
	return sec, nil
}

func buildPage(spec *PageSpec) (*tree.Page, error) {
	var opts []tree.PageOption
	if spec.Tag != "" {
		opts = append(opts, tree.WithTag(spec.Tag))
	}
	if spec.Subtitle != "" {
		opts = append(opts, tree.WithSubtitle(spec.Subtitle))
	}
	if spec.Body != "" {
		opts = append(opts, tree.WithBody(spec.Body))
	}
	if spec.JumpLabel != "" {
		opts = append(opts, tree.WithJump(spec.JumpLabel))
	}
	if spec.Hidden {
		opts = append(opts, tree.WithHidden())
	}
	for _, raw := range spec.Behaviors {
		behavior, err := buildBehavior(raw)
		if err != nil {
			return nil, fmt.Errorf("page %q: %w", spec.Title, err)
		}
		opts = append(opts, tree.WithBehaviors(behavior))
	}
	return tree.NewPage(spec.Title, opts...), nil
}

func buildBehavior(raw map[string]any) (tree.Behavior, error) {
	kind, _ := raw["kind"].(string)
	switch kind {
	case "minimum_display_time":
		var opts struct {
			Seconds float64 `mapstructure:"seconds"`
		}
		if err := mapstructure.Decode(raw, &opts); err != nil {
			return nil, fmt.Errorf("behavior %q: %w", kind, err)
		}
		if opts.Seconds <= 0 {
			return nil, fmt.Errorf("behavior %q needs seconds > 0", kind)
		}
		return tree.NewMinimumDisplayTime(time.Duration(opts.Seconds * float64(time.Second))), nil
	case "hide_after_show":
		return tree.HideAfterShow{}, nil
	default:
		return nil, fmt.Errorf("unknown behavior kind %q", kind)
	}
}
