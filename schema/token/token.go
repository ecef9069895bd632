// Package token defines the lexical token kinds produced by schema/lexer.
package token

// Kind enumerates every token kind the schema lexer can produce.
type Kind int

const (
	Invalid Kind = iota
	EOF

	Ident
	IntLiteral
	FloatLiteral
	StringLiteral

	// Keywords.
	KwInclude
	KwNamespace
	KwTable
	KwStruct
	KwEnum
	KwUnion
	KwRootType
	KwRpcService
	KwFileExtension
	KwFileIdentifier
	KwAttribute
	KwNativeInclude

	// Symbols.
	LBrace
	RBrace
	LParen
	RParen
	LBracket
	RBracket
	Colon
	Semicolon
	Comma
	Equals

	// Comment kinds. The lexer never emits these as tokens: comments are
	// attached to tokens as Pre/Post, and these kinds label each
	// CommentBlock.
	LineComment // `//`
	OuterDoc    // `///`
	InnerDoc    // `//!`

	Newline
)

var keywords = map[string]Kind{
	"include":         KwInclude,
	"namespace":       KwNamespace,
	"table":           KwTable,
	"struct":          KwStruct,
	"enum":            KwEnum,
	"union":           KwUnion,
	"root_type":       KwRootType,
	"rpc_service":     KwRpcService,
	"file_extension":  KwFileExtension,
	"file_identifier": KwFileIdentifier,
	"attribute":       KwAttribute,
	"native_include":  KwNativeInclude,
}

// Lookup returns the keyword Kind for ident, or (Ident, false) if ident is
// not a reserved word.
func Lookup(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	if !ok {
		return Ident, false
	}
	return k, true
}

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case EOF:
		return "eof"
	case Ident:
		return "identifier"
	case IntLiteral:
		return "integer literal"
	case FloatLiteral:
		return "float literal"
	case StringLiteral:
		return "string literal"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case Colon:
		return "':'"
	case Semicolon:
		return "';'"
	case Comma:
		return "','"
	case Equals:
		return "'='"
	case LineComment:
		return "comment"
	case OuterDoc:
		return "outer docstring"
	case InnerDoc:
		return "inner docstring"
	case Newline:
		return "newline"
	default:
		for name, kk := range keywords {
			if kk == k {
				return "'" + name + "'"
			}
		}
		return "?"
	}
}

// Token is one lexed token with its source position.
type Token struct {
	Kind       Kind
	Start, End int // byte offsets into the source
	Text       string

	// Pre/Post hold comment text attached to this token: everything
	// accumulated since the previous real (non-comment, non-newline)
	// token, partitioned into blocks by blank lines (Pre), and a
	// trailing same-line comment (Post). See schema/lexer for how these
	// are populated.
	Pre  []CommentBlock
	Post string
}

// CommentBlock is a paragraph of contiguous comment lines of the same
// kind, as produced by the lexer's paragraph-break tracking.
type CommentBlock struct {
	Kind  Kind // LineComment, OuterDoc, or InnerDoc
	Lines []string
}
