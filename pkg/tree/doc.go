// Package tree implements the experiment tree: Page leaves and Section
// containers with a movement cursor. A Section's legal transitions are decided
// by an injected Policy; the shipped policies are Plain (free movement within
// visible siblings), Gated (an append-only high-water mark with a closing gate
// in front of unexplored territory) and Strict (movement confined to the
// currently active branch).
//
// Navigation is single-threaded per session; the tree performs no locking.
package tree
