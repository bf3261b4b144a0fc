// Package wire implements the tchatd line protocol: a whitespace-separated,
// quoted/escaped tokenizer and the request/response frame codec built on it.
package wire

import "fmt"

// ParseError is returned by Tokenize, ParseRequest, and ParseResponse when
// the input cannot be turned into tokens or a well-formed frame. Tag is set
// when ParseRequest managed to recover at least the tag token before
// failing, so a caller can still address its error reply to that tag.
type ParseError struct {
	Input  string
	Reason string
	Tag    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s: %q", e.Reason, e.Input)
}

func parseErrorf(input, format string, args ...any) *ParseError {
	return &ParseError{Input: input, Reason: fmt.Sprintf(format, args...)}
}

func parseErrorWithTag(input, tag, format string, args ...any) *ParseError {
	return &ParseError{Input: input, Reason: fmt.Sprintf(format, args...), Tag: tag}
}
