package ndjson

import (
	"fmt"
	"io"
	"strconv"

	"github.com/streamjson/goyajl"
)

// Handler implements goyajl.Handler, driving a parse of a JSON
// document into a stream of newline-delimited JSON values: each
// element of the array addressed by selectors (or the top-level array
// itself, if selectors is empty) is written as one line to out.
//
// Handler holds two mutually exclusive states, mirroring the two
// phases of the projection: selecting walks the selector path without
// producing output, writing has resolved the path to an array and
// streams its elements. Exactly one of selecting/writing is non-nil
// at any time.
type Handler struct {
	out io.Writer
	err error

	selecting *selectState
	writing   *writingCtx
}

// New constructs a Handler that writes to out, following selectors to
// find the array to project. An empty selectors treats the document
// itself as the target array.
func New(out io.Writer, selectors []Selector) *Handler {
	h := &Handler{out: out}

	if len(selectors) == 0 {
		h.writing = firstWritingCtx()
		return h
	}

	h.selecting = buildSelectState(selectors)

	return h
}

// Err returns the first error encountered writing to out, if any.
func (h *Handler) Err() error { return h.err }

func (h *Handler) write(s string) {
	if h.err != nil {
		return
	}

	if _, err := io.WriteString(h.out, s); err != nil {
		h.err = err
	}
}

// increment advances the selector walk by one step, switching the
// Handler into writing mode once the whole path has been consumed.
func (h *Handler) increment(ctx *goyajl.Context) {
	if h.selecting == nil {
		return
	}

	if h.selecting.removeLast() {
		h.writing = newWritingCtx(ctx.NumOpenBraces(), ctx.NumOpenBrackets()+1)
		h.selecting = nil
	}
}

// separator emits the comma or newline that precedes a sibling value
// at the projected location: a comma for a sibling under siblingStatus
// outside the target location, a newline between successive elements
// inside it. requireInsideArray matches mapKey/handleValue, which only
// treat the location as "inside" an array projection; mapStart checks
// location alone, since a selected object doesn't have to be wrapped
// in an array.
func (h *Handler) separator(ctx *goyajl.Context, w *writingCtx, siblingStatus goyajl.ParserStatus, requireInsideArray bool) {
	switch {
	case !w.isAtCorrectLocation(ctx) && ctx.ParserStatus() == siblingStatus:
		h.write(",")
	case (!requireInsideArray || w.isInsideArray()) && w.isAtCorrectLocation(ctx):
		if w.isFirstValue() {
			w.markSeen()
		} else {
			h.write("\n")
		}
	}
}

func (h *Handler) mapKey(ctx *goyajl.Context, val string) {
	if h.selecting != nil {
		if h.selecting.isIdentifierSelectorSelection(ctx, val) {
			h.increment(ctx)
		}
		return
	}

	w := h.writing
	h.separator(ctx, w, goyajl.MapNeedKey, true)
	h.write(fmt.Sprintf("%q: ", val))
}

func (h *Handler) handleValue(ctx *goyajl.Context, val string) goyajl.Status {
	if h.selecting != nil {
		h.selecting.newArrayLocation(ctx)
		return goyajl.Continue
	}

	w := h.writing
	h.separator(ctx, w, goyajl.ArrayNeedVal, true)
	h.write(val)

	return goyajl.Continue
}

func (h *Handler) mapStart(ctx *goyajl.Context) {
	if h.selecting != nil {
		h.selecting.newArrayLocation(ctx)
		if h.selecting.isArrayIndexSelectorSelection(ctx) {
			h.increment(ctx)
		}
		return
	}

	w := h.writing
	h.separator(ctx, w, goyajl.ArrayNeedVal, false)
	h.write("{ ")
}

func (h *Handler) mapEnd(ctx *goyajl.Context) {
	w := h.writing
	if w == nil {
		return
	}

	h.write(" }")
	if w.isAtCorrectLocation(ctx) {
		h.write("\n")
	}
}

// arrayStart runs the selecting step and, unlike mapStart, always
// re-checks writing state afterward: resolving the selector path to
// an array happens on exactly this token, and the array just entered
// needs to see itself as already in writing mode on the same call.
func (h *Handler) arrayStart(ctx *goyajl.Context) {
	if h.selecting != nil {
		h.selecting.newArrayLocation(ctx)
		if h.selecting.isArrayIndexSelectorSelection(ctx) {
			h.increment(ctx)
		}
	}

	w := h.writing
	if w == nil {
		return
	}

	if !w.isInsideArray() {
		w.setInsideArray()
		return
	}

	h.separator(ctx, w, goyajl.ArrayNeedVal, false)
	h.write("[")
}

func (h *Handler) arrayEnd(ctx *goyajl.Context) goyajl.Status {
	w := h.writing
	if w == nil {
		return goyajl.Continue
	}

	if w.isInsideArray() && w.isAtCorrectLocation(ctx) {
		h.write("\n")
	}

	if w.isAtCorrectLocation(ctx) {
		return goyajl.Abort
	}

	h.write("]")

	return goyajl.Continue
}

func (h *Handler) HandleNull(ctx *goyajl.Context) goyajl.Status {
	return h.handleValue(ctx, "null")
}

func (h *Handler) HandleBool(ctx *goyajl.Context, v bool) goyajl.Status {
	return h.handleValue(ctx, strconv.FormatBool(v))
}

func (h *Handler) HandleInt(ctx *goyajl.Context, v int64) goyajl.Status {
	return h.handleValue(ctx, strconv.FormatInt(v, 10))
}

func (h *Handler) HandleDouble(ctx *goyajl.Context, v float64) goyajl.Status {
	return h.handleValue(ctx, strconv.FormatFloat(v, 'g', -1, 64))
}

func (h *Handler) HandleString(ctx *goyajl.Context, s string) goyajl.Status {
	return h.handleValue(ctx, fmt.Sprintf("%q", s))
}

func (h *Handler) HandleStartMap(ctx *goyajl.Context) goyajl.Status {
	h.mapStart(ctx)
	return goyajl.Continue
}

func (h *Handler) HandleMapKey(ctx *goyajl.Context, key string) goyajl.Status {
	h.mapKey(ctx, key)
	return goyajl.Continue
}

func (h *Handler) HandleEndMap(ctx *goyajl.Context) goyajl.Status {
	h.mapEnd(ctx)
	return goyajl.Continue
}

func (h *Handler) HandleStartArray(ctx *goyajl.Context) goyajl.Status {
	h.arrayStart(ctx)
	return goyajl.Continue
}

func (h *Handler) HandleEndArray(ctx *goyajl.Context) goyajl.Status {
	return h.arrayEnd(ctx)
}
