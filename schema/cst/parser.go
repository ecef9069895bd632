package cst

import (
	"github.com/shardbuf/shardbuf/diag"
	"github.com/shardbuf/shardbuf/schema/token"
)

// Parser builds a lossless CST from a token stream.
type Parser struct {
	file   string
	toks   []token.Token
	pos    int
	ctx    *diag.Ctx
	lines  []int // byte offset of the start of each line, for span->line/col
}

// NewParser returns a Parser over toks (as produced by lexer.Tokens),
// reporting syntax errors to ctx under the given file name.
func NewParser(file string, toks []token.Token, ctx *diag.Ctx) *Parser {
	return &Parser{file: file, toks: toks, ctx: ctx}
}

func (p *Parser) cur() token.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token.Token{Kind: token.EOF}
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	t := p.cur()
	p.errorf(t, "expected %s, found %s", k, t.Kind)
	return t, false
}

func (p *Parser) errorf(t token.Token, format string, args ...any) {
	p.ctx.Errorf(diag.Parse, diag.Span{File: p.file, Start: t.Start, End: t.End}, format, args...)
}

func leaf(kind Kind, t token.Token) *Node {
	return &Node{Kind: kind, Span: Span{Start: t.Start, End: t.End}, Token: &t}
}

// recoverToDeclBoundary skips tokens until the next top-level declaration
// keyword or EOF (left unconsumed), or past the next `;`, so one
// malformed declaration doesn't cascade into spurious errors for the rest
// of the file. No node is created for the skipped tokens.
func (p *Parser) recoverToDeclBoundary() {
	for {
		switch p.cur().Kind {
		case token.EOF, token.KwInclude, token.KwNamespace, token.KwTable,
			token.KwStruct, token.KwEnum, token.KwUnion, token.KwRootType,
			token.KwRpcService, token.KwFileExtension, token.KwFileIdentifier,
			token.KwAttribute, token.KwNativeInclude:
			return
		case token.Semicolon:
			p.advance()
			return
		default:
			p.advance()
		}
	}
}

// ParseFile parses an entire schema file into a File node.
func (p *Parser) ParseFile() *Node {
	start := 0
	var children []*Node
	for !p.at(token.EOF) {
		before := p.pos
		decl := p.parseTopLevel()
		if decl != nil {
			children = append(children, decl)
		}
		if p.pos == before {
			// Guarantee forward progress even on totally
			// unrecognized input.
			p.recoverToDeclBoundary()
			if p.pos == before {
				p.advance()
			}
		}
	}
	end := start
	if len(p.toks) > 0 {
		end = p.toks[len(p.toks)-1].End
	}
	return &Node{Kind: File, Span: Span{Start: start, End: end}, Children: children}
}

func (p *Parser) parseTopLevel() *Node {
	switch p.cur().Kind {
	case token.KwInclude:
		return p.parseInclude()
	case token.KwNamespace:
		return p.parseNamespace()
	case token.KwRootType:
		return p.parseRootType()
	case token.KwFileExtension:
		return p.parseSimpleStringDecl(FileExtension, token.KwFileExtension)
	case token.KwFileIdentifier:
		return p.parseSimpleStringDecl(FileIdentifier, token.KwFileIdentifier)
	case token.KwAttribute:
		return p.parseAttributeDecl()
	case token.KwNativeInclude:
		return p.parseNativeInclude()
	case token.KwTable:
		return p.parseRecord(TableDecl, token.KwTable)
	case token.KwStruct:
		return p.parseRecord(StructDecl, token.KwStruct)
	case token.KwEnum:
		return p.parseEnum()
	case token.KwUnion:
		return p.parseUnion()
	case token.KwRpcService:
		return p.parseRpcService()
	case token.EOF:
		return nil
	default:
		t := p.advance()
		p.errorf(t, "unexpected token %s at top level", t.Kind)
		inv := leaf(Invalid, t)
		return inv
	}
}

func (p *Parser) parseInclude() *Node {
	start := p.cur().Start
	p.advance()
	str, _ := p.expect(token.StringLiteral)
	semi, _ := p.expect(token.Semicolon)
	return &Node{Kind: Include, Span: Span{Start: start, End: semi.End}, Name: str.Text,
		Children: []*Node{leaf(Invalid, str)}}
}

func (p *Parser) parseNativeInclude() *Node {
	start := p.cur().Start
	p.advance()
	str, _ := p.expect(token.StringLiteral)
	semi, _ := p.expect(token.Semicolon)
	return &Node{Kind: NativeIncludeDecl, Span: Span{Start: start, End: semi.End}, Name: str.Text}
}

func (p *Parser) parseNamespace() *Node {
	start := p.cur().Start
	p.advance()
	var name string
	for {
		id, ok := p.expect(token.Ident)
		if !ok {
			break
		}
		if name == "" {
			name = id.Text
		} else {
			name += "." + id.Text
		}
		if p.at(token.Equals) || !p.consumeDot() {
			break
		}
	}
	semi, _ := p.expect(token.Semicolon)
	return &Node{Kind: Namespace, Span: Span{Start: start, End: semi.End}, Name: name}
}

// consumeDot handles dotted namespace paths. The lexer treats '.' as part
// of an identifier's continuation characters, so namespace paths like
// `a.b.c` lex as one Ident token; this helper exists for defensiveness if a
// future lexer change splits on '.'.
func (p *Parser) consumeDot() bool { return false }

func (p *Parser) parseRootType() *Node {
	start := p.cur().Start
	p.advance()
	id, _ := p.expect(token.Ident)
	semi, _ := p.expect(token.Semicolon)
	return &Node{Kind: RootType, Span: Span{Start: start, End: semi.End}, Name: id.Text}
}

func (p *Parser) parseSimpleStringDecl(kind Kind, kw token.Kind) *Node {
	start := p.cur().Start
	p.advance()
	str, _ := p.expect(token.StringLiteral)
	semi, _ := p.expect(token.Semicolon)
	return &Node{Kind: kind, Span: Span{Start: start, End: semi.End}, Name: str.Text}
}

func (p *Parser) parseAttributeDecl() *Node {
	start := p.cur().Start
	p.advance()
	str, ok := p.expect(token.StringLiteral)
	name := str.Text
	if !ok {
		id, _ := p.expect(token.Ident)
		name = id.Text
	}
	semi, _ := p.expect(token.Semicolon)
	return &Node{Kind: AttributeDecl, Span: Span{Start: start, End: semi.End}, Name: name}
}

// parseRecord parses a table or struct declaration: `table Name { fields }`.
func (p *Parser) parseRecord(kind Kind, kw token.Kind) *Node {
	start := p.cur().Start
	p.advance()
	id, _ := p.expect(token.Ident)
	attrs := p.tryParseAttributeList()

	var fields []*Node
	if _, ok := p.expect(token.LBrace); ok {
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			fields = append(fields, p.parseField())
		}
	}
	end, _ := p.expect(token.RBrace)

	children := fields
	if attrs != nil {
		children = append([]*Node{attrs}, children...)
	}
	return &Node{Kind: kind, Span: Span{Start: start, End: end.End}, Name: id.Text, Token: &id, Children: children}
}

func (p *Parser) parseField() *Node {
	start := p.cur().Start
	id, _ := p.expect(token.Ident)
	p.expect(token.Colon)
	typ := p.parseType()

	var defVal *Node
	if p.at(token.Equals) {
		p.advance()
		v := p.advance()
		defVal = leaf(Invalid, v)
	}
	attrs := p.tryParseAttributeList()
	semi, _ := p.expect(token.Semicolon)

	var children []*Node
	children = append(children, typ)
	if defVal != nil {
		children = append(children, defVal)
	}
	if attrs != nil {
		children = append(children, attrs)
	}
	return &Node{Kind: Field, Span: Span{Start: start, End: semi.End}, Name: id.Text, Token: &id, Children: children}
}

func (p *Parser) parseType() *Node {
	start := p.cur()
	if p.at(token.LBracket) {
		p.advance()
		elem := p.parseType()
		var size *Node
		if p.at(token.Colon) {
			p.advance()
			n := p.advance()
			size = leaf(Invalid, n)
		}
		end, _ := p.expect(token.RBracket)
		kind := VectorType
		children := []*Node{elem}
		if size != nil {
			kind = ArrayType
			children = append(children, size)
		}
		return &Node{Kind: kind, Span: Span{Start: start.Start, End: end.End}, Children: children}
	}
	id, _ := p.expect(token.Ident)
	return &Node{Kind: TypeRef, Span: Span{Start: id.Start, End: id.End}, Name: id.Text}
}

func (p *Parser) tryParseAttributeList() *Node {
	if !p.at(token.LParen) {
		return nil
	}
	start := p.cur().Start
	p.advance()
	var attrs []*Node
	for !p.at(token.RParen) && !p.at(token.EOF) {
		attrs = append(attrs, p.parseAttribute())
		if p.at(token.Comma) {
			p.advance()
		}
	}
	end, _ := p.expect(token.RParen)
	return &Node{Kind: AttributeList, Span: Span{Start: start, End: end.End}, Children: attrs}
}

func (p *Parser) parseAttribute() *Node {
	id, _ := p.expect(token.Ident)
	n := &Node{Kind: Attribute, Span: Span{Start: id.Start, End: id.End}, Name: id.Text}
	if p.at(token.Colon) {
		p.advance()
		v := p.advance()
		n.Children = []*Node{leaf(Invalid, v)}
		n.Span.End = v.End
	}
	return n
}

func (p *Parser) parseEnum() *Node {
	start := p.cur().Start
	p.advance()
	id, _ := p.expect(token.Ident)
	p.expect(token.Colon)
	underlying, _ := p.expect(token.Ident)
	attrs := p.tryParseAttributeList()

	var variants []*Node
	if _, ok := p.expect(token.LBrace); ok {
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			variants = append(variants, p.parseEnumVariant())
			if p.at(token.Comma) {
				p.advance()
			}
		}
	}
	end, _ := p.expect(token.RBrace)
	children := []*Node{{Kind: TypeRef, Name: underlying.Text, Span: Span{Start: underlying.Start, End: underlying.End}}}
	if attrs != nil {
		children = append(children, attrs)
	}
	children = append(children, variants...)
	return &Node{Kind: EnumDecl, Span: Span{Start: start, End: end.End}, Name: id.Text, Token: &id, Children: children}
}

func (p *Parser) parseEnumVariant() *Node {
	id, _ := p.expect(token.Ident)
	n := &Node{Kind: EnumVariant, Name: id.Text, Span: Span{Start: id.Start, End: id.End}, Token: &id}
	if p.at(token.Equals) {
		p.advance()
		v := p.advance()
		n.Children = []*Node{leaf(Invalid, v)}
		n.Span.End = v.End
	}
	return n
}

func (p *Parser) parseUnion() *Node {
	start := p.cur().Start
	p.advance()
	id, _ := p.expect(token.Ident)
	attrs := p.tryParseAttributeList()

	var variants []*Node
	if _, ok := p.expect(token.LBrace); ok {
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			variants = append(variants, p.parseUnionVariant())
			if p.at(token.Comma) {
				p.advance()
			}
		}
	}
	end, _ := p.expect(token.RBrace)
	var children []*Node
	if attrs != nil {
		children = append(children, attrs)
	}
	children = append(children, variants...)
	return &Node{Kind: UnionDecl, Span: Span{Start: start, End: end.End}, Name: id.Text, Token: &id, Children: children}
}

func (p *Parser) parseUnionVariant() *Node {
	id, _ := p.expect(token.Ident)
	n := &Node{Kind: UnionVariant, Name: id.Text, Span: Span{Start: id.Start, End: id.End}, Token: &id}
	if p.at(token.Colon) {
		p.advance()
		typ := p.parseType()
		n.Children = []*Node{typ}
		n.Span.End = typ.Span.End
	}
	return n
}

func (p *Parser) parseRpcService() *Node {
	start := p.cur().Start
	p.advance()
	id, _ := p.expect(token.Ident)
	var methods []*Node
	if _, ok := p.expect(token.LBrace); ok {
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			methods = append(methods, p.parseRpcMethod())
		}
	}
	end, _ := p.expect(token.RBrace)
	return &Node{Kind: RpcServiceDecl, Span: Span{Start: start, End: end.End}, Name: id.Text, Token: &id, Children: methods}
}

func (p *Parser) parseRpcMethod() *Node {
	start := p.cur().Start
	id, _ := p.expect(token.Ident)
	p.expect(token.LParen)
	req, _ := p.expect(token.Ident)
	p.expect(token.RParen)
	p.expect(token.Colon)
	resp, _ := p.expect(token.Ident)
	attrs := p.tryParseAttributeList()
	semi, _ := p.expect(token.Semicolon)
	children := []*Node{
		{Kind: TypeRef, Name: req.Text},
		{Kind: TypeRef, Name: resp.Text},
	}
	if attrs != nil {
		children = append(children, attrs)
	}
	return &Node{Kind: RpcMethod, Span: Span{Start: start, End: semi.End}, Name: id.Text, Token: &id, Children: children}
}
