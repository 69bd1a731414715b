package goyajl

import (
	"errors"

	"github.com/streamjson/goyajl/lexer"
)

// ByteSource is the streaming contract the Parser pulls bytes from.
// FillBuf returns the currently buffered bytes, or an empty slice at
// EOF. Consume advances the source past n bytes that have now been
// folded into the Parser's own buffer.
type ByteSource interface {
	FillBuf() ([]byte, error)
	Consume(n int)
}

// compactThreshold is the byte offset past which the Parser compacts
// its internal buffer, discarding already-consumed bytes, so a very
// long stream doesn't grow the buffer without bound.
const compactThreshold = 1_000_000_000

// Parser pulls bytes from a ByteSource, tokenizes them with the lexer
// package, applies token-driven transitions to a Context, and invokes
// Handler callbacks. A Parser instance is not safe for concurrent use
// and owns its Context for its entire lifetime.
type Parser struct {
	handler Handler
	ctx     *Context

	buf    []byte
	offset int
}

// NewParser constructs a Parser that will dispatch events to handler.
func NewParser(handler Handler) *Parser {
	return &Parser{handler: handler, ctx: newContext()}
}

// Parse runs until the byte source is exhausted, the handler returns
// Abort, or a lexical/structural error is detected.
func (p *Parser) Parse(src ByteSource) error {
	sourceExhausted := false

	for p.ctx.status != ParseComplete && p.ctx.status != LexicalError {
		if !sourceExhausted {
			chunk, err := src.FillBuf()
			if err != nil {
				return readErrorf(err, "byte source read failed")
			}

			p.buf = append(p.buf, chunk...)
			src.Consume(len(chunk))

			if len(chunk) == 0 {
				sourceExhausted = true
			}
		}

		tail := p.buf[p.offset:]

		if len(tail) == 0 {
			if sourceExhausted {
				p.ctx.setStatus(ParseComplete)
				return nil
			}

			continue
		}

		// atEOF=sourceExhausted lets Scan finalize a trailing token (a
		// bare number with nothing after it) instead of reporting
		// Incomplete forever once no more bytes will ever arrive.
		n, tok, scanErr := lexer.Scan(tail, sourceExhausted)
		if errors.Is(scanErr, lexer.ErrIncomplete) {
			if sourceExhausted {
				p.ctx.setStatus(LexicalError)
				return malformedJSONf("unexpected end of input while scanning a token")
			}

			continue
		}
		if scanErr != nil {
			p.ctx.setStatus(LexicalError)

			if errors.Is(scanErr, lexer.ErrInvalidUTF8) {
				return utf8Errorf(scanErr, "invalid string contents")
			}

			return malformedJSONf("lexical error: %v", scanErr)
		}

		p.offset += n

		if p.offset > compactThreshold {
			p.buf = append(p.buf[:0], p.buf[p.offset:]...)
			p.offset = 0
		}

		status, dispatchErr := p.dispatch(tok)
		if dispatchErr != nil {
			return dispatchErr
		}

		if status == Abort {
			return nil
		}
	}

	if p.ctx.status == LexicalError {
		return malformedJSONf("parse failed due to malformed json: open braces: %d, open brackets: %d",
			p.ctx.NumOpenBraces(), p.ctx.NumOpenBrackets())
	}

	return nil
}

// FinishParse verifies that a successfully completed parse reached
// ParseComplete with no unbalanced braces or brackets.
func (p *Parser) FinishParse() error {
	if p.ctx.status != ParseComplete {
		return malformedJSONf("did not reach ParseComplete status")
	}

	if p.ctx.NumOpenBraces() != 0 || p.ctx.NumOpenBrackets() != 0 {
		return malformedJSONf("unbalanced document: open braces: %d, open brackets: %d",
			p.ctx.NumOpenBraces(), p.ctx.NumOpenBrackets())
	}

	return nil
}

// dispatch applies the (status, token) state transition table from the
// design: it updates the Context and invokes the matching Handler
// callback, returning the callback's Status.
func (p *Parser) dispatch(tok lexer.Token) (Status, error) {
	ctx := p.ctx

	switch tok.Kind {
	case lexer.KindWhitespace:
		return Continue, nil

	case lexer.KindLeftBrace:
		if !acceptsValue(ctx.status) {
			err := malformedJSONf("unexpected '{' in status %v", ctx.status)
			ctx.setStatus(LexicalError)
			return Continue, err
		}

		status := p.handler.HandleStartMap(ctx)
		ctx.pushEnclosing(EnclosingBrace)
		ctx.setStatus(MapStart)
		return status, nil

	case lexer.KindLeftBracket:
		if !acceptsValue(ctx.status) {
			err := malformedJSONf("unexpected '[' in status %v", ctx.status)
			ctx.setStatus(LexicalError)
			return Continue, err
		}

		status := p.handler.HandleStartArray(ctx)
		ctx.pushEnclosing(EnclosingBracket)
		ctx.setStatus(ArrayStart)
		return status, nil

	case lexer.KindRightBrace:
		status := p.handler.HandleEndMap(ctx)

		top, ok := ctx.LastEnclosing()
		if !ok || top != EnclosingBrace {
			ctx.setStatus(LexicalError)
			return Continue, malformedJSONf(
				"parsed right brace without a corresponding left brace: braces=%d brackets=%d",
				ctx.NumOpenBraces(), ctx.NumOpenBrackets())
		}

		ctx.popEnclosing()
		ctx.setStatus(statusAfterClose(ctx))
		return status, nil

	case lexer.KindRightBracket:
		status := p.handler.HandleEndArray(ctx)

		top, ok := ctx.LastEnclosing()
		if !ok || top != EnclosingBracket {
			ctx.setStatus(LexicalError)
			return Continue, malformedJSONf(
				"parsed right bracket without a corresponding left bracket: braces=%d brackets=%d",
				ctx.NumOpenBraces(), ctx.NumOpenBrackets())
		}

		ctx.popEnclosing()
		ctx.setStatus(statusAfterClose(ctx))
		return status, nil

	case lexer.KindComma:
		switch ctx.status {
		case MapGotVal:
			ctx.setStatus(MapNeedKey)
		case ArrayGotVal:
			ctx.setStatus(ArrayNeedVal)
		default:
			ctx.setStatus(LexicalError)
			return Continue, malformedJSONf("unexpected ',' in status %v", ctx.status)
		}

		return Continue, nil

	case lexer.KindColon:
		if ctx.status != MapSep {
			ctx.setStatus(LexicalError)
			return Continue, malformedJSONf("unexpected ':' in status %v", ctx.status)
		}

		ctx.setStatus(MapNeedVal)
		return Continue, nil

	case lexer.KindString:
		return p.dispatchString(tok.Text)

	case lexer.KindNull:
		status := p.handler.HandleNull(ctx)
		return status, p.acceptScalar()

	case lexer.KindBool:
		status := p.handler.HandleBool(ctx, tok.Bool)
		return status, p.acceptScalar()

	case lexer.KindInt:
		status := p.handler.HandleInt(ctx, tok.Int)
		return status, p.acceptScalar()

	case lexer.KindFloat:
		status := p.handler.HandleDouble(ctx, tok.Float64)
		return status, p.acceptScalar()
	}

	panic("unknown token kind")
}

func (p *Parser) dispatchString(s string) (Status, error) {
	ctx := p.ctx

	switch ctx.status {
	case ArrayStart, ArrayNeedVal:
		status := p.handler.HandleString(ctx, s)
		ctx.setStatus(ArrayGotVal)
		return status, nil
	case MapNeedVal:
		status := p.handler.HandleString(ctx, s)
		ctx.setStatus(MapGotVal)
		return status, nil
	case Start:
		status := p.handler.HandleString(ctx, s)
		ctx.setStatus(GotValue)
		return status, nil
	case MapStart, MapNeedKey:
		status := p.handler.HandleMapKey(ctx, s)
		ctx.setStatus(MapSep)
		return status, nil
	default:
		ctx.setStatus(LexicalError)
		return Continue, malformedJSONf("unexpected string in status %v", ctx.status)
	}
}

// acceptScalar applies the "any value-accepting status" transition
// shared by null/bool/int/double tokens.
func (p *Parser) acceptScalar() error {
	ctx := p.ctx

	switch ctx.status {
	case ArrayStart, ArrayNeedVal:
		ctx.setStatus(ArrayGotVal)
	case MapNeedVal:
		ctx.setStatus(MapGotVal)
	case Start:
		ctx.setStatus(GotValue)
	default:
		ctx.setStatus(LexicalError)
		return malformedJSONf("unexpected value in status %v", ctx.status)
	}

	return nil
}

// acceptsValue reports whether a value (scalar, map or array) may start
// in status s.
func acceptsValue(s ParserStatus) bool {
	return s == Start || s == MapNeedVal || s == ArrayStart || s == ArrayNeedVal
}

// statusAfterClose derives the post-close status by inspecting the new
// stack top.
func statusAfterClose(ctx *Context) ParserStatus {
	top, ok := ctx.LastEnclosing()
	if !ok {
		return GotValue
	}

	if top == EnclosingBrace {
		return MapGotVal
	}

	return ArrayGotVal
}
