package ast

import (
	"strconv"
	"strings"

	"github.com/shardbuf/shardbuf/diag"
	"github.com/shardbuf/shardbuf/schema/cst"
	"github.com/shardbuf/shardbuf/schema/token"
)

// Converter lowers one file's CST into an ast.File.
type Converter struct {
	file string
	ctx  *diag.Ctx
	// IgnoreDocstringErrors mirrors the top-level `--ignore-docstring-errors`
	// / `ignore_docstring_errors` option: it suppresses only the narrow
	// class of docstring-placement complaints.
	IgnoreDocstringErrors bool
}

// NewConverter returns a Converter reporting diagnostics to ctx under the
// given file name.
func NewConverter(file string, ctx *diag.Ctx) *Converter {
	return &Converter{file: file, ctx: ctx}
}

func (c *Converter) span(n *cst.Node) Span { return Span{Start: n.Span.Start, End: n.Span.End} }

func (c *Converter) errorf(n *cst.Node, kind diag.Kind, format string, args ...any) {
	c.ctx.Errorf(kind, diag.Span{File: c.file, Start: n.Span.Start, End: n.Span.End}, format, args...)
}

func (c *Converter) notSupported(n *cst.Node, what string) {
	c.errorf(n, diag.NotSupported, "%s is not supported", what)
}

// docFromToken extracts the outer/inner docstring paragraphs attached to a
// CST leaf token via its pre-comment attribution.
func docFromToken(t *token.Token) Doc {
	if t == nil {
		return Doc{}
	}
	var d Doc
	for _, block := range t.Pre {
		switch block.Kind {
		case token.OuterDoc:
			d.Outer = append(d.Outer, block.Lines...)
		case token.InnerDoc:
			d.Inner = append(d.Inner, block.Lines...)
		}
	}
	return d
}

// docFromNode extracts the docstring attached to a declaration, field, or
// variant node via the identifying token the parser records on it (the
// name identifier, whose leading comments the lexer attributes as Pre).
func docFromNode(n *cst.Node) Doc {
	if n.Token != nil {
		return docFromToken(n.Token)
	}
	return Doc{}
}

// Convert lowers a parsed cst.File node into an ast.File.
func (c *Converter) Convert(root *cst.Node) *File {
	f := &File{}
	for i, child := range root.Children {
		leading := i == 0
		switch child.Kind {
		case cst.Namespace:
			f.Namespace = Path(child.Name)
		case cst.Include:
			f.Includes = append(f.Includes, child.Name)
		case cst.NativeIncludeDecl:
			c.notSupported(child, "native_include")
		case cst.RootType:
			f.RootType = child.Name
		case cst.FileIdentifier:
			f.FileIdent = child.Name
		case cst.FileExtension:
			f.FileExt = child.Name
		case cst.AttributeDecl:
			f.Attributes = append(f.Attributes, child.Name)
			c.notSupported(child, "user attribute declarations")
		case cst.TableDecl:
			f.Declarations = append(f.Declarations, c.convertRecord(child, DeclTable, leading))
		case cst.StructDecl:
			f.Declarations = append(f.Declarations, c.convertRecord(child, DeclStruct, leading))
		case cst.EnumDecl:
			f.Declarations = append(f.Declarations, c.convertEnum(child, leading))
		case cst.UnionDecl:
			f.Declarations = append(f.Declarations, c.convertUnion(child, leading))
		case cst.RpcServiceDecl:
			f.Declarations = append(f.Declarations, c.convertRpcService(child, leading))
			c.notSupported(child, "rpc_service")
		case cst.Invalid:
			// Already diagnosed by the parser.
		}
	}
	return f
}

// checkDocPlacement flags an inner doc comment (`//!`) attached to
// anything but the file's first declaration: `//!` documents the file
// itself, the way Rust restricts it to a module's leading position, so
// one trailing on a later table or enum is almost certainly a mistake
// rather than an intentional file-level doc. Reported as an error unless
// IgnoreDocstringErrors is set, in which case it is only a warning.
func (c *Converter) checkDocPlacement(n *cst.Node, leading bool) {
	if leading || n.Token == nil {
		return
	}
	for _, block := range n.Token.Pre {
		if block.Kind != token.InnerDoc {
			continue
		}
		const msg = "inner doc comment (//!) documents the file and must precede the first declaration"
		span := diag.Span{File: c.file, Start: n.Span.Start, End: n.Span.End}
		if c.IgnoreDocstringErrors {
			c.ctx.Warnf(diag.Parse, span, "%s", msg)
		} else {
			c.ctx.Errorf(diag.Parse, span, "%s", msg)
		}
		return
	}
}

func (c *Converter) convertRecord(n *cst.Node, kind DeclKind, leading bool) Decl {
	c.checkDocPlacement(n, leading)
	d := Decl{Kind: kind, Name: n.Name, Doc: docFromNode(n), Span: c.span(n)}
	var fieldNodes []*cst.Node
	for _, child := range n.Children {
		switch child.Kind {
		case cst.AttributeList:
			d.Attrs = c.interpretAttrs(child, declKindLabel(kind))
		case cst.Field:
			fieldNodes = append(fieldNodes, child)
		}
	}
	for _, fn := range fieldNodes {
		d.Fields = append(d.Fields, c.convertField(fn))
	}
	if kind == DeclStruct && len(d.Fields) == 0 {
		c.notSupported(n, "empty structs")
	}
	return d
}

func declKindLabel(k DeclKind) string {
	switch k {
	case DeclTable:
		return "table"
	case DeclStruct:
		return "struct"
	case DeclEnum:
		return "enum"
	case DeclUnion:
		return "union"
	case DeclRpcService:
		return "rpc_service"
	default:
		return "declaration"
	}
}

func (c *Converter) convertField(n *cst.Node) Field {
	f := Field{Name: n.Name, Doc: docFromNode(n), Span: c.span(n)}
	for _, child := range n.Children {
		switch child.Kind {
		case cst.TypeRef, cst.VectorType, cst.ArrayType:
			f.Type = c.convertType(child)
		case cst.AttributeList:
			f.Attrs = c.interpretAttrs(child, "field")
		case cst.Invalid:
			if lit := c.convertLiteralFromToken(child); lit != nil {
				f.Default = lit
			}
		}
	}
	return f
}

func (c *Converter) convertType(n *cst.Node) Type {
	switch n.Kind {
	case cst.TypeRef:
		if kind, ok := ResolveBuiltin(n.Name); ok {
			return Type{Kind: kind}
		}
		return Type{Kind: TypeNamed, Name: Path(n.Name)}
	case cst.VectorType:
		elem := c.convertType(n.Children[0])
		return Type{Kind: TypeVector, Elem: &elem}
	case cst.ArrayType:
		elem := c.convertType(n.Children[0])
		size := 0
		if len(n.Children) > 1 && n.Children[1].Token != nil {
			size, _ = strconv.Atoi(n.Children[1].Token.Text)
		}
		return Type{Kind: TypeArray, Elem: &elem, Size: size}
	default:
		return Type{Kind: TypeNamed}
	}
}

func (c *Converter) convertEnum(n *cst.Node, leading bool) Decl {
	c.checkDocPlacement(n, leading)
	d := Decl{Kind: DeclEnum, Name: n.Name, Doc: docFromNode(n), Span: c.span(n)}
	for _, child := range n.Children {
		switch child.Kind {
		case cst.TypeRef:
			d.EnumBase = Path(child.Name)
		case cst.AttributeList:
			d.Attrs = c.interpretAttrs(child, "enum")
		case cst.EnumVariant:
			m := EnumMember{Name: child.Name, Doc: docFromNode(child)}
			if len(child.Children) > 0 {
				m.Value = c.convertLiteralFromToken(child.Children[0])
			}
			d.Variants = append(d.Variants, m)
		}
	}
	return d
}

func (c *Converter) convertUnion(n *cst.Node, leading bool) Decl {
	c.checkDocPlacement(n, leading)
	d := Decl{Kind: DeclUnion, Name: n.Name, Doc: docFromNode(n), Span: c.span(n)}
	for _, child := range n.Children {
		switch child.Kind {
		case cst.AttributeList:
			d.Attrs = c.interpretAttrs(child, "union")
		case cst.UnionVariant:
			m := UnionMember{Name: child.Name, Doc: docFromNode(child)}
			if len(child.Children) > 0 {
				m.Type = c.convertType(child.Children[0])
			} else {
				m.Type = Type{Kind: TypeNamed, Name: Path(child.Name)}
			}
			d.Members = append(d.Members, m)
		}
	}
	return d
}

func (c *Converter) convertRpcService(n *cst.Node, leading bool) Decl {
	c.checkDocPlacement(n, leading)
	d := Decl{Kind: DeclRpcService, Name: n.Name, Doc: docFromNode(n), Span: c.span(n)}
	for _, child := range n.Children {
		if child.Kind != cst.RpcMethod {
			continue
		}
		m := RpcMethod{Name: child.Name, Doc: docFromNode(child)}
		if len(child.Children) > 0 {
			m.Request = Path(child.Children[0].Name)
		}
		if len(child.Children) > 1 {
			m.Response = Path(child.Children[1].Name)
		}
		d.Methods = append(d.Methods, m)
	}
	return d
}

// unsupportedButAccepted lists metadata keys that are tolerated for
// compatibility with upstream FlatBuffers schemas carrying hints meant for
// other toolchains.
var unsupportedButAccepted = map[string]bool{
	"original_order": true,
	"cpp_type":       true,
	"native_inline":  true,
}

func (c *Converter) interpretAttrs(n *cst.Node, onKind string) Attrs {
	var a Attrs
	seen := map[string]bool{}
	a.Extra = map[string]*Literal{}

	for _, attr := range n.Children {
		name := attr.Name
		if seen[name] {
			c.errorf(attr, diag.Type, "duplicate attribute %q", name)
			continue
		}
		seen[name] = true
		a.Raw = append(a.Raw, name)

		var value *Literal
		if len(attr.Children) > 0 {
			value = c.convertLiteralFromToken(attr.Children[0])
		}

		switch name {
		case "force_align":
			if value == nil || value.Kind != LitInt {
				c.errorf(attr, diag.Type, "force_align requires an integer value")
				continue
			}
			if onKind != "struct" && onKind != "field" {
				c.errorf(attr, diag.Type, "force_align is not accepted on %s", onKind)
				continue
			}
			v := int(value.Int)
			a.ForceAlign = &v
		case "required":
			if onKind != "field" {
				c.errorf(attr, diag.Type, "required is not accepted on %s", onKind)
				continue
			}
			a.Required = true
		case "deprecated":
			if onKind != "field" {
				c.errorf(attr, diag.Type, "deprecated is not accepted on %s", onKind)
				continue
			}
			a.Deprecated = true
		case "id":
			if value == nil || value.Kind != LitInt {
				c.errorf(attr, diag.Type, "id requires an integer value")
				continue
			}
			if onKind != "field" {
				c.errorf(attr, diag.Type, "id is not accepted on %s", onKind)
				continue
			}
			v := int(value.Int)
			a.ID = &v
		case "key":
			if onKind != "field" {
				c.errorf(attr, diag.Type, "key is not accepted on %s", onKind)
				continue
			}
			a.Key = true
		case "bit_flags":
			if onKind != "enum" {
				c.errorf(attr, diag.Type, "bit_flags is not accepted on %s", onKind)
				continue
			}
			a.BitFlags = true
		default:
			if unsupportedButAccepted[name] {
				c.ctx.Warnf(diag.NotSupported, diag.Span{File: c.file, Start: attr.Span.Start, End: attr.Span.End},
					"attribute %q is accepted but has no effect", name)
				a.Extra[name] = value
				continue
			}
			c.errorf(attr, diag.NotSupported, "unsupported attribute %q", name)
		}
	}
	return a
}

// convertLiteralFromToken decodes the literal carried by an Invalid-kind
// leaf node wrapping a raw token. The parser defers literal interpretation
// to this pass, which guards integer literals against uint64 overflow;
// the check against a field's declared type happens in schema/ir's
// default propagation.
func (c *Converter) convertLiteralFromToken(n *cst.Node) *Literal {
	if n == nil || n.Token == nil {
		return nil
	}
	t := *n.Token
	sp := Span{Start: t.Start, End: t.End}
	switch t.Kind {
	case token.IntLiteral:
		return c.parseIntLiteral(t.Text, sp)
	case token.FloatLiteral:
		v, err := strconv.ParseFloat(stripUnderscores(t.Text), 64)
		if err != nil {
			c.ctx.Errorf(diag.Type, diag.Span{File: c.file, Start: t.Start, End: t.End}, "invalid float literal %q", t.Text)
		}
		return &Literal{Kind: LitFloat, Flt: v, Span: sp}
	case token.StringLiteral:
		return &Literal{Kind: LitString, Str: t.Text, Span: sp}
	case token.Ident:
		switch t.Text {
		case "true":
			return &Literal{Kind: LitBool, Int: 1, Span: sp}
		case "false":
			return &Literal{Kind: LitBool, Int: 0, Span: sp}
		default:
			return &Literal{Kind: LitIdent, Str: t.Text, Span: sp}
		}
	default:
		return nil
	}
}

func stripUnderscores(s string) string { return strings.ReplaceAll(s, "_", "") }

// parseIntLiteral parses decimal or 0x-hex integer literals with
// underscores allowed between digits. Overflow against a specific field's
// declared width is checked later by the resolver's default-propagation
// pass, the first point a literal's target type is known; here we only
// guard against overflowing uint64.
func (c *Converter) parseIntLiteral(text string, sp Span) *Literal {
	clean := stripUnderscores(text)
	neg := strings.HasPrefix(clean, "-")
	if neg {
		clean = clean[1:]
	}
	base := 10
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		base = 16
		clean = clean[2:]
	}
	u, err := strconv.ParseUint(clean, base, 64)
	if err != nil {
		// Might still fit as a negative int64 via ParseInt path.
		i, err2 := strconv.ParseInt(text, 0, 64)
		if err2 != nil {
			c.ctx.Errorf(diag.Type, diag.Span{File: c.file, Start: sp.Start, End: sp.End}, "invalid integer literal %q", text)
			return &Literal{Kind: LitInt, Span: sp}
		}
		return &Literal{Kind: LitInt, Int: i, Span: sp}
	}
	if neg {
		return &Literal{Kind: LitInt, Int: -int64(u), Span: sp}
	}
	if u > 1<<63-1 {
		return &Literal{Kind: LitInt, Uint: u, Span: sp}
	}
	return &Literal{Kind: LitInt, Int: int64(u), Span: sp}
}
