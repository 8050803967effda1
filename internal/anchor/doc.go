// Package anchor correlates the two clock domains of the syncer.
//
// An Anchor records that a relative (musical) position occurred at an
// absolute (transport) position. Every tick to frame query is answered
// relative to the current anchor, and a hard sync replaces the anchor with
// a newly observed correlation point while deriving the tempo that joins
// the two.
//
// Anchors are immutable values. The one shared "current" anchor lives in a
// Cell, which publishes replacements with a single pointer swap so readers
// never observe a half-updated pair.
package anchor
