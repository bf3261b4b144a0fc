package wire

import "strings"

// Tokenize splits a single logical line into tokens, honoring `"…"` quoting
// and `\` escaping. The grammar is a single left-to-right pass over runes
// with two flags, inQuote and inEscape:
//
//   - `\` outside an escape starts one: it consumes no character itself.
//   - `"` outside an escape toggles inQuote.
//   - ` ` outside a quote and an escape separates tokens; empty accumulators
//     produce no token.
//   - Any other rune, including an escaped `"` or `\`, is appended literally
//     and clears inEscape.
//
// If the input ends still inside a quote or an escape, Tokenize fails.
func Tokenize(input string) ([]string, error) {
	trimmed := strings.TrimRight(input, " \t\r\n")

	var (
		inQuote  bool
		inEscape bool
		tokens   []string
		curr     strings.Builder
	)

	for _, ch := range trimmed {
		switch {
		case ch == '\\' && !inEscape:
			inEscape = true
		case ch == '"' && !inEscape:
			inQuote = !inQuote
		case ch == ' ' && !inQuote && !inEscape:
			if curr.Len() > 0 {
				tokens = append(tokens, curr.String())
				curr.Reset()
			}
		default:
			curr.WriteRune(ch)
			inEscape = false
		}
	}

	if inQuote || inEscape {
		return nil, parseErrorf(input, "unexpected end of line")
	}

	if curr.Len() > 0 {
		tokens = append(tokens, curr.String())
	}

	return tokens, nil
}

// Detokenize is the inverse of Tokenize: it renders a slice of non-empty
// tokens back into a single line such that Tokenize(Detokenize(tokens))
// reproduces tokens exactly. Any token containing a space is wrapped in
// double quotes; embedded `"` and `\` are escaped as `\"` and `\\` in every
// token, quoted or not.
func Detokenize(tokens []string) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(tok)
		if strings.Contains(tok, " ") {
			escaped = `"` + escaped + `"`
		}
		parts[i] = escaped
	}
	return strings.Join(parts, " ")
}
