package ndjson

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

// TestNDJSONMatchesGJSONOracle cross-checks a projection against an
// independently-implemented JSON library: gjson extracts the target
// array without going through any of this repository's own parsing
// code, and each projected line must decode to the same value as the
// corresponding gjson element.
func TestNDJSONMatchesGJSONOracle(t *testing.T) {
	input := `{"items":[{"id":1,"tags":["a","b"]},{"id":2,"tags":[]},{"id":3,"tags":["c","d","e"]}]}`

	out := project(t, input, []Selector{Identifier("items")})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	oracle := gjson.Get(input, "items").Array()
	if len(lines) != len(oracle) {
		t.Fatalf("got %d lines, gjson oracle has %d elements:\n%s", len(lines), len(oracle), out)
	}

	for i, line := range lines {
		var got interface{}
		if err := json.Unmarshal([]byte(line), &got); err != nil {
			t.Fatalf("line %d: %q is not valid JSON: %v", i, line, err)
		}

		var want interface{}
		if err := json.Unmarshal([]byte(oracle[i].Raw), &want); err != nil {
			t.Fatalf("line %d: gjson oracle value not valid JSON: %v", i, err)
		}

		if !reflect.DeepEqual(got, want) {
			t.Errorf("line %d mismatch: got %v, want %v", i, got, want)
		}
	}
}
