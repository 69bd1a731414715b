// Package ndjson projects a JSON document down to newline-delimited
// JSON by following a selector path to a single array and re-emitting
// each of its elements as one line of output, without ever
// materializing the document as a tree.
package ndjson

import "github.com/streamjson/goyajl"

// Selector addresses one step of a path into a JSON document: either a
// key in an object or a position in an array. A path is a slice of
// Selectors applied in document order, e.g. []Selector{Identifier("foo"),
// Index(1)} addresses foo[1].
type Selector interface {
	isSelector()
}

// Identifier selects a value by object key.
type Identifier string

func (Identifier) isSelector() {}

// Index selects a value by its position in an array.
type Index int

func (Index) isSelector() {}

// isLocation reports whether the Context currently sits at the nesting
// depth a particular selector step was resolved against, independent
// of which sibling key or index is active there.
type isLocation interface {
	isCorrectLocation(ctx *goyajl.Context) bool
}

// objSelector matches when the Context has exactly one more open brace
// than the number of Identifier steps that precede this one in the
// path.
type objSelector struct {
	numOpenBraces int
}

func (s objSelector) isCorrectLocation(ctx *goyajl.Context) bool {
	return s.numOpenBraces+1 == ctx.NumOpenBraces()
}

// arraySelector is the bracket-depth counterpart of objSelector.
type arraySelector struct {
	numOpenBrackets int
}

func (s arraySelector) isCorrectLocation(ctx *goyajl.Context) bool {
	return s.numOpenBrackets+1 == ctx.NumOpenBrackets()
}

// selectState walks a selector path against incoming parse events
// before any output is written. stack and selectors are kept in
// reverse order so the step currently being matched is always the
// last element of each slice; a match pops both, and once both are
// empty the handler switches into writing mode.
type selectState struct {
	stack     []isLocation
	selectors []Selector
	i         int
}

func (s *selectState) isIdentifierSelectorSelection(ctx *goyajl.Context, val string) bool {
	if len(s.selectors) == 0 || len(s.stack) == 0 {
		return false
	}

	ident, ok := s.selectors[len(s.selectors)-1].(Identifier)
	if !ok {
		return false
	}

	return s.stack[len(s.stack)-1].isCorrectLocation(ctx) && string(ident) == val
}

func (s *selectState) isArrayIndexSelectorSelection(ctx *goyajl.Context) bool {
	if len(s.selectors) == 0 || len(s.stack) == 0 {
		return false
	}

	idx, ok := s.selectors[len(s.selectors)-1].(Index)
	if !ok {
		return false
	}

	return s.stack[len(s.stack)-1].isCorrectLocation(ctx) && s.i == int(idx)
}

// removeLast pops the step that was just matched and reports whether
// the whole path has now been consumed.
func (s *selectState) removeLast() bool {
	s.selectors = s.selectors[:len(s.selectors)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.i = 0

	return len(s.stack) == 0 && len(s.selectors) == 0
}

// newArrayLocation advances the sibling counter used against Index
// selectors every time a new array element starts at the location the
// current selector step is watching.
func (s *selectState) newArrayLocation(ctx *goyajl.Context) {
	if len(s.stack) == 0 {
		return
	}

	if s.stack[len(s.stack)-1].isCorrectLocation(ctx) && ctx.ParserStatus() == goyajl.ArrayNeedVal {
		s.i++
	}
}

// buildSelectState precomputes, for every selector step, the brace or
// bracket depth at which that step was encountered, counting only
// prior steps of the same kind. The resulting stack is reversed so
// selectState can always match against its tail.
func buildSelectState(selectors []Selector) *selectState {
	stack := make([]isLocation, len(selectors))

	var braceCount, bracketCount int
	for i, sel := range selectors {
		switch sel.(type) {
		case Identifier:
			stack[i] = objSelector{numOpenBraces: braceCount}
			braceCount++
		case Index:
			stack[i] = arraySelector{numOpenBrackets: bracketCount}
			bracketCount++
		}
	}

	revStack := make([]isLocation, len(stack))
	revSelectors := make([]Selector, len(selectors))
	for i := range stack {
		revStack[len(stack)-1-i] = stack[i]
		revSelectors[len(selectors)-1-i] = selectors[i]
	}

	return &selectState{stack: revStack, selectors: revSelectors}
}
