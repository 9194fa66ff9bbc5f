package expr

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes layer expressions such as `diff & ~(nsdm | psdm)`.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},

	// Selection functions, matched before identifiers.
	{Name: "KwNotInteract", Pattern: `\bnot_interact\b`},
	{Name: "KwInteract", Pattern: `\binteract\b`},

	{Name: "Not", Pattern: `~`},
	{Name: "And", Pattern: `&`},
	{Name: "Or", Pattern: `\|`},
	{Name: "Comma", Pattern: `,`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},

	// Paint names may carry dots and dashes (met1.pin, li-lbl).
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.\-]*`},
})
