package goyajl

// Enclosing records an unclosed '{' or '[' in the current nesting
// chain.
type Enclosing byte

const (
	// EnclosingBrace is recorded when the parser enters a map.
	EnclosingBrace Enclosing = iota
	// EnclosingBracket is recorded when the parser enters an array.
	EnclosingBracket
)

// ParserStatus is the enumerated control state of the push parser.
type ParserStatus byte

const (
	// Start is the initial status, before any token has been seen.
	Start ParserStatus = iota
	// MapStart follows a '{': the parser expects a key or '}'.
	MapStart
	// MapSep follows a key: the parser expects ':'.
	MapSep
	// MapNeedVal follows ':': the parser expects a value.
	MapNeedVal
	// MapGotVal follows a value inside a map: the parser expects ',' or '}'.
	MapGotVal
	// MapNeedKey follows ',' inside an object: the parser expects a key.
	MapNeedKey
	// ArrayStart follows a '[': the parser expects a value or ']'.
	ArrayStart
	// ArrayNeedVal follows ',' inside an array: the parser expects a value.
	ArrayNeedVal
	// ArrayGotVal follows a value inside an array: the parser expects ',' or ']'.
	ArrayGotVal
	// GotValue records that a top-level scalar was accepted.
	GotValue
	// ParseComplete is reached once EOF has been observed and the buffer
	// is fully consumed; the stack may still be non-empty, which
	// FinishParse reports as an unbalanced document.
	ParseComplete
	// ParseErrorStatus is part of the status set but is never entered by
	// Parser; structural errors are recorded as LexicalError.
	ParseErrorStatus
	// LexicalError records a lexical error from the Lexer, or a token
	// that is not valid in the current status.
	LexicalError
)

func (s ParserStatus) String() string {
	switch s {
	case Start:
		return "Start"
	case MapStart:
		return "MapStart"
	case MapSep:
		return "MapSep"
	case MapNeedVal:
		return "MapNeedVal"
	case MapGotVal:
		return "MapGotVal"
	case MapNeedKey:
		return "MapNeedKey"
	case ArrayStart:
		return "ArrayStart"
	case ArrayNeedVal:
		return "ArrayNeedVal"
	case ArrayGotVal:
		return "ArrayGotVal"
	case GotValue:
		return "GotValue"
	case ParseComplete:
		return "ParseComplete"
	case ParseErrorStatus:
		return "ParseError"
	case LexicalError:
		return "LexicalError"
	}

	panic("unknown parser status")
}

// Context carries the parser's structural state: the open-enclosing
// stack, the current ParserStatus, and running counts of unclosed '{'
// and '['. A Context is owned by its Parser for the Parser's lifetime;
// Handlers only ever observe it by read-only reference during a
// callback.
type Context struct {
	stack        []Enclosing
	status       ParserStatus
	openBraces   int
	openBrackets int
}

func newContext() *Context {
	return &Context{status: Start}
}

// NumOpenBrackets is the number of '[' encountered without a
// corresponding ']' at this point in the parse.
func (c *Context) NumOpenBrackets() int { return c.openBrackets }

// NumOpenBraces is the number of '{' encountered without a
// corresponding '}' at this point in the parse.
func (c *Context) NumOpenBraces() int { return c.openBraces }

// ParserStatus is the current control state of the parser.
func (c *Context) ParserStatus() ParserStatus { return c.status }

// LastEnclosing returns the top of the enclosing stack and whether the
// stack is non-empty.
func (c *Context) LastEnclosing() (Enclosing, bool) {
	if len(c.stack) == 0 {
		return 0, false
	}

	return c.stack[len(c.stack)-1], true
}

// Depth is the current nesting depth: NumOpenBraces + NumOpenBrackets.
func (c *Context) Depth() int { return c.openBraces + c.openBrackets }

func (c *Context) setStatus(s ParserStatus) { c.status = s }

func (c *Context) pushEnclosing(e Enclosing) {
	c.stack = append(c.stack, e)

	if e == EnclosingBrace {
		c.openBraces++
	} else {
		c.openBrackets++
	}
}

func (c *Context) popEnclosing() {
	top, ok := c.LastEnclosing()
	if !ok {
		return
	}

	c.stack = c.stack[:len(c.stack)-1]

	if top == EnclosingBrace {
		c.openBraces--
	} else {
		c.openBrackets--
	}
}
