package goyajl

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/streamjson/goyajl/bytesource"
)

// event is one recorded callback invocation, captured alongside the
// Context state visible at the moment the callback fired.
type event struct {
	kind             string
	str              string
	boolVal          bool
	intVal           int64
	floatVal         float64
	openBraces       int
	openBrackets     int
	status           ParserStatus
	lastEnclosing    Enclosing
	hasLastEnclosing bool
}

// recordingHandler implements Handler, recording every event it sees.
// If abortAt is non-negative, it returns Abort once len(events) reaches
// abortAt.
type recordingHandler struct {
	events  []event
	abortAt int
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{abortAt: -1}
}

func (h *recordingHandler) record(ctx *Context, e event) Status {
	e.openBraces = ctx.NumOpenBraces()
	e.openBrackets = ctx.NumOpenBrackets()
	e.status = ctx.ParserStatus()
	e.lastEnclosing, e.hasLastEnclosing = ctx.LastEnclosing()
	h.events = append(h.events, e)

	if h.abortAt >= 0 && len(h.events) >= h.abortAt {
		return Abort
	}

	return Continue
}

func (h *recordingHandler) HandleNull(ctx *Context) Status {
	return h.record(ctx, event{kind: "null"})
}

func (h *recordingHandler) HandleBool(ctx *Context, v bool) Status {
	return h.record(ctx, event{kind: "bool", boolVal: v})
}

func (h *recordingHandler) HandleInt(ctx *Context, v int64) Status {
	return h.record(ctx, event{kind: "int", intVal: v})
}

func (h *recordingHandler) HandleDouble(ctx *Context, v float64) Status {
	return h.record(ctx, event{kind: "double", floatVal: v})
}

func (h *recordingHandler) HandleString(ctx *Context, s string) Status {
	return h.record(ctx, event{kind: "string", str: s})
}

func (h *recordingHandler) HandleStartMap(ctx *Context) Status {
	return h.record(ctx, event{kind: "start_map"})
}

func (h *recordingHandler) HandleMapKey(ctx *Context, key string) Status {
	return h.record(ctx, event{kind: "map_key", str: key})
}

func (h *recordingHandler) HandleEndMap(ctx *Context) Status {
	return h.record(ctx, event{kind: "end_map"})
}

func (h *recordingHandler) HandleStartArray(ctx *Context) Status {
	return h.record(ctx, event{kind: "start_array"})
}

func (h *recordingHandler) HandleEndArray(ctx *Context) Status {
	return h.record(ctx, event{kind: "end_array"})
}

func kinds(events []event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.kind
	}

	return out
}

func assertStringSlicesEqual(t *testing.T, got, want []string) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("event count = %d, want %d\n got:  %v\n want: %v", len(got), len(want), got, want)
	}

	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("event[%d] = %q, want %q\n got:  %v\n want: %v", i, got[i], want[i], got, want)
		}
	}
}

func TestParseArrayOfMixedValues(t *testing.T) {
	h := newRecordingHandler()
	p := NewParser(h)

	if err := p.Parse(bytesource.FromBytes([]byte(`[false,5,5.5,"foo"]`))); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if err := p.FinishParse(); err != nil {
		t.Fatalf("FinishParse() error = %v", err)
	}

	assertStringSlicesEqual(t, kinds(h.events), []string{
		"start_array", "bool", "int", "double", "string", "end_array",
	})

	for i, e := range h.events {
		if e.kind == "start_array" || e.kind == "end_array" {
			continue
		}

		if e.openBrackets != 1 {
			t.Errorf("event[%d] %q fired with openBrackets=%d, want 1", i, e.kind, e.openBrackets)
		}
	}

	// At-context-event assertion: when end_array is dispatched for
	// [false,5,5.5,"foo"], the Context still has status ArrayGotVal,
	// last enclosing LeftBracket, counters (braces=0, brackets=1), since
	// the callback fires before the closing ']' mutates the Context.
	last := h.events[len(h.events)-1]
	if last.kind != "end_array" {
		t.Fatalf("last event = %q, want end_array", last.kind)
	}

	if last.status != ArrayGotVal {
		t.Errorf("end_array status = %v, want %v", last.status, ArrayGotVal)
	}

	if !last.hasLastEnclosing || last.lastEnclosing != EnclosingBracket {
		t.Errorf("end_array last enclosing = (%v, ok=%v), want (%v, ok=true)", last.lastEnclosing, last.hasLastEnclosing, EnclosingBracket)
	}

	if last.openBraces != 0 || last.openBrackets != 1 {
		t.Errorf("end_array counters = (braces=%d, brackets=%d), want (braces=0, brackets=1)", last.openBraces, last.openBrackets)
	}
}

func TestParseNestedDocument(t *testing.T) {
	h := newRecordingHandler()
	p := NewParser(h)

	input := `{"a":[1,2,{"b":true}],"c":null}`

	if err := p.Parse(bytesource.FromBytes([]byte(input))); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if err := p.FinishParse(); err != nil {
		t.Fatalf("FinishParse() error = %v", err)
	}

	assertStringSlicesEqual(t, kinds(h.events), []string{
		"start_map", "map_key", "start_array", "int", "int", "start_map", "map_key",
		"bool", "end_map", "end_array", "map_key", "null", "end_map",
	})

	var startMaps, endMaps, startArrays, endArrays int
	for _, e := range h.events {
		switch e.kind {
		case "start_map":
			startMaps++
		case "end_map":
			endMaps++
		case "start_array":
			startArrays++
		case "end_array":
			endArrays++
		}
	}

	if startMaps != endMaps {
		t.Errorf("start_map count %d != end_map count %d", startMaps, endMaps)
	}

	if startArrays != endArrays {
		t.Errorf("start_array count %d != end_array count %d", startArrays, endArrays)
	}
}

func TestParseHandlerAbortStopsEarly(t *testing.T) {
	h := newRecordingHandler()
	h.abortAt = 2
	p := NewParser(h)

	if err := p.Parse(bytesource.FromBytes([]byte(`[1,2,3,4,5]`))); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(h.events) != 2 {
		t.Fatalf("len(events) = %d, want 2 after abort", len(h.events))
	}
}

func TestParseRejectsMismatchedCloser(t *testing.T) {
	h := newRecordingHandler()
	p := NewParser(h)

	err := p.Parse(bytesource.FromBytes([]byte(`{"a":1]`)))
	if err == nil {
		t.Fatal("Parse() error = nil, want malformed_json error")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error is not *ParseError: %v", err)
	}

	if parseErr.Kind() != KindMalformedJSON {
		t.Errorf("Kind() = %v, want %v", parseErr.Kind(), KindMalformedJSON)
	}
}

func TestParseRejectsTrailingScalar(t *testing.T) {
	h := newRecordingHandler()
	p := NewParser(h)

	err := p.Parse(bytesource.FromBytes([]byte(`5 5`)))
	if err == nil {
		t.Fatal("Parse() error = nil, want malformed_json error for a second top-level value")
	}
}

func TestFinishParseRejectsUnbalancedDocument(t *testing.T) {
	h := newRecordingHandler()
	p := NewParser(h)

	if err := p.Parse(bytesource.FromBytes([]byte(`{"a":1`))); err != nil {
		t.Fatalf("Parse() error = %v, want nil (an exhausted source is not itself an error)", err)
	}

	if err := p.FinishParse(); err == nil {
		t.Fatal("FinishParse() error = nil, want malformed_json for an unbalanced document")
	}
}

func TestParseInvalidUTF8String(t *testing.T) {
	h := newRecordingHandler()
	p := NewParser(h)

	err := p.Parse(bytesource.FromBytes([]byte("\"\xc3\x28\"")))
	if err == nil {
		t.Fatal("Parse() error = nil, want a utf8_error")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error is not *ParseError: %v", err)
	}

	if parseErr.Kind() != KindUTF8Error {
		t.Errorf("Kind() = %v, want %v", parseErr.Kind(), KindUTF8Error)
	}
}

// genJSON produces a bounded random JSON value (depth <= 8, <= 10
// children per collection), mirroring the proptest generator the
// original implementation used for its round-trip property.
func genJSON(r *rand.Rand, depth int) interface{} {
	const maxDepth = 8
	const maxChildren = 10

	leafOrContainer := r.Intn(6)
	if depth >= maxDepth {
		leafOrContainer = r.Intn(4)
	}

	switch leafOrContainer {
	case 0:
		return nil
	case 1:
		return r.Intn(2) == 0
	case 2:
		return r.Float64()*2000 - 1000
	case 3:
		return randString(r)
	case 4:
		n := r.Intn(maxChildren + 1)
		arr := make([]interface{}, n)
		for i := range arr {
			arr[i] = genJSON(r, depth+1)
		}

		return arr
	default:
		n := r.Intn(maxChildren + 1)
		obj := make(map[string]interface{}, n)
		for i := 0; i < n; i++ {
			obj[randString(r)] = genJSON(r, depth+1)
		}

		return obj
	}
}

func randString(r *rand.Rand) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ "
	n := r.Intn(12)
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}

	return string(b)
}

func TestParseRoundTripsBoundedRandomDocuments(t *testing.T) {
	r := rand.New(rand.NewSource(20260731))

	for i := 0; i < 200; i++ {
		value := genJSON(r, 0)

		encoded, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("iteration %d: json.Marshal() error = %v", i, err)
		}

		h := newRecordingHandler()
		p := NewParser(h)

		if err := p.Parse(bytesource.FromBytes(encoded)); err != nil {
			t.Fatalf("iteration %d: Parse(%s) error = %v", i, encoded, err)
		}

		if err := p.FinishParse(); err != nil {
			t.Fatalf("iteration %d: FinishParse(%s) error = %v", i, encoded, err)
		}

		for _, e := range h.events {
			if e.openBraces+e.openBrackets < 0 {
				t.Fatalf("iteration %d: negative depth in event %+v", i, e)
			}
		}
	}
}
