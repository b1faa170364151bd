package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// delimiters recognised around a pattern, as in "/^[a-z]+$/i" or "#\d+#".
const delimiters = "/#~@!%;,"

// CompilePattern compiles a constraints.pattern value. Patterns may be bare
// regular expressions ("^[a-z]+$") or delimited with trailing flags
// ("/^[a-z]+$/i"), the form most existing schemas use. The i, m, s and U
// flags map onto RE2 inline flags; other flags are rejected.
//
// Matching is unanchored: a pattern must carry its own ^ and $ to match the
// whole value.
func CompilePattern(p string) (*regexp.Regexp, error) {
	expr, flags, delimited := splitDelimited(p)
	if !delimited {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		return re, nil
	}

	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's', 'U':
			inline.WriteRune(f)
		case 'u', 'D':
			// UTF-8 mode is the only mode; $ already means end of text.
		default:
			return nil, fmt.Errorf("invalid pattern %q: unsupported flag %q", p, f)
		}
	}
	if inline.Len() > 0 {
		expr = "(?" + inline.String() + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
	}
	return re, nil
}

// splitDelimited recognises "/expr/flags" style patterns.
func splitDelimited(p string) (expr, flags string, ok bool) {
	if len(p) < 2 || strings.IndexByte(delimiters, p[0]) < 0 {
		return "", "", false
	}
	end := strings.LastIndexByte(p, p[0])
	if end <= 0 {
		return "", "", false
	}
	flags = p[end+1:]
	for i := 0; i < len(flags); i++ {
		if !isAlnum(flags[i]) {
			return "", "", false
		}
	}
	return p[1:end], flags, true
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
