// Package alfred is the library facade for authoring and running
// experiments: multi-page, branching page trees a participant works through
// as one resumable session, with every accepted transition durably recorded
// by the saving pipeline.
//
// Experiments are authored against pkg/tree, run through pkg/session and
// persisted by pkg/saving; this package re-exports the constructors an
// authoring script needs.
package alfred

import (
	"github.com/ctreffe/alfred/pkg/session"
	"github.com/ctreffe/alfred/pkg/tree"
)

// Version is the release version of alfred.
const Version = "0.1.0"

// Re-exported core types.
type (
	Page      = tree.Page
	Section   = tree.Section
	Behavior  = tree.Behavior
	JumpEntry = tree.JumpEntry
	Session   = session.Session
	Metadata  = session.Metadata
)

// Re-exported constructors.
var (
	NewPage          = tree.NewPage
	NewSection       = tree.NewSection
	NewGatedSection  = tree.NewGatedSection
	NewStrictSection = tree.NewStrictSection
	NewSession       = session.New
)
