package ndjson

import "github.com/streamjson/goyajl"

// writingCtx tracks the nesting depth of the array the handler is
// currently projecting, so it can tell a sibling element (which needs
// a separating comma or newline) from a nested structure passed
// through untouched.
type writingCtx struct {
	numOpenBraces   int
	numOpenBrackets int
	insideArray     bool
	first           bool
}

// newWritingCtx starts writing mode once a selector path has been
// fully resolved to an array: braces/brackets record the depth at
// which that array's elements live.
func newWritingCtx(braces, brackets int) *writingCtx {
	return &writingCtx{numOpenBraces: braces, numOpenBrackets: brackets, first: true}
}

// firstWritingCtx is used when no selector path was given at all: the
// whole document is expected to be a single top-level array.
func firstWritingCtx() *writingCtx {
	return &writingCtx{numOpenBrackets: 1, first: true}
}

func (w *writingCtx) isAtCorrectLocation(ctx *goyajl.Context) bool {
	return ctx.NumOpenBrackets() == w.numOpenBrackets && ctx.NumOpenBraces() == w.numOpenBraces
}

func (w *writingCtx) isInsideArray() bool { return w.insideArray }

func (w *writingCtx) setInsideArray() { w.insideArray = true }

func (w *writingCtx) isFirstValue() bool { return w.insideArray && w.first }

func (w *writingCtx) markSeen() { w.first = false }
