package expr

import "github.com/alecthomas/participle/v2/lexer"

// Expr is a union of one or more terms.
// Example: poly | li
type Expr struct {
	Pos   lexer.Position
	Left  *Term   `parser:"@@"`
	Right []*Term `parser:"( Or @@ )*"`
}

// Term is an intersection of one or more unary expressions.
// Example: diff & nsdm
type Term struct {
	Left  *Unary   `parser:"@@"`
	Right []*Unary `parser:"( And @@ )*"`
}

// Unary is a complement, a selection call, a parenthesized expression or a
// paint name.
type Unary struct {
	Pos   lexer.Position
	Not   *Unary  `parser:"  Not @@"`
	Call  *Call   `parser:"| @@"`
	Sub   *Expr   `parser:"| LParen @@ RParen"`
	Layer *string `parser:"| @Ident"`
}

// Call is interact(a, b) or not_interact(a, b).
type Call struct {
	Negated bool  `parser:"( @KwNotInteract | KwInteract )"`
	A       *Expr `parser:"LParen @@"`
	B       *Expr `parser:"Comma @@ RParen"`
}
