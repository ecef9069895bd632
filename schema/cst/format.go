package cst

import "strings"

// Format renders a canonical, whitespace-normalized rendering of a parsed
// File: two-space indented fields, one declaration kind's keyword per
// line, a blank line between top-level declarations. It discards source
// comments (attaching them to the printed form is future work, not
// needed for `shardbufc format`'s current contract of a stable,
// idempotent rewrite).
func Format(file *Node) string {
	var b strings.Builder
	for i, decl := range file.Children {
		if i > 0 {
			b.WriteByte('\n')
		}
		formatDecl(&b, decl)
	}
	return b.String()
}

func formatDecl(b *strings.Builder, n *Node) {
	switch n.Kind {
	case Include:
		b.WriteString("include \"" + n.Name + "\";\n")
	case NativeIncludeDecl:
		b.WriteString("native_include \"" + n.Name + "\";\n")
	case Namespace:
		b.WriteString("namespace " + n.Name + ";\n")
	case RootType:
		b.WriteString("root_type " + n.Name + ";\n")
	case FileExtension:
		b.WriteString("file_extension \"" + n.Name + "\";\n")
	case FileIdentifier:
		b.WriteString("file_identifier \"" + n.Name + "\";\n")
	case AttributeDecl:
		b.WriteString("attribute \"" + n.Name + "\";\n")
	case TableDecl:
		formatRecord(b, "table", n)
	case StructDecl:
		formatRecord(b, "struct", n)
	case EnumDecl:
		formatEnum(b, n)
	case UnionDecl:
		formatUnion(b, n)
	case RpcServiceDecl:
		formatRpcService(b, n)
	}
}

func formatRecord(b *strings.Builder, kw string, n *Node) {
	var attrs *Node
	var fields []*Node
	for _, c := range n.Children {
		if c.Kind == AttributeList {
			attrs = c
			continue
		}
		fields = append(fields, c)
	}
	b.WriteString(kw + " " + n.Name + attrListString(attrs) + " {\n")
	for _, f := range fields {
		formatField(b, f)
	}
	b.WriteString("}\n")
}

func formatField(b *strings.Builder, f *Node) {
	var typ, defVal, attrs *Node
	for i, c := range f.Children {
		switch {
		case i == 0:
			typ = c
		case c.Kind == AttributeList:
			attrs = c
		default:
			defVal = c
		}
	}
	b.WriteString("  " + f.Name + ": " + typeString(typ))
	if defVal != nil {
		b.WriteString(" = " + tokenText(defVal))
	}
	b.WriteString(attrListString(attrs))
	b.WriteString(";\n")
}

func formatEnum(b *strings.Builder, n *Node) {
	var underlying, attrs *Node
	var variants []*Node
	for i, c := range n.Children {
		switch {
		case i == 0:
			underlying = c
		case c.Kind == AttributeList:
			attrs = c
		default:
			variants = append(variants, c)
		}
	}
	b.WriteString("enum " + n.Name + ": " + underlying.Name + attrListString(attrs) + " {\n")
	for i, v := range variants {
		b.WriteString("  " + v.Name)
		if len(v.Children) > 0 {
			b.WriteString(" = " + tokenText(v.Children[0]))
		}
		if i < len(variants)-1 {
			b.WriteString(",")
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
}

func formatUnion(b *strings.Builder, n *Node) {
	var attrs *Node
	var variants []*Node
	for _, c := range n.Children {
		if c.Kind == AttributeList {
			attrs = c
			continue
		}
		variants = append(variants, c)
	}
	b.WriteString("union " + n.Name + attrListString(attrs) + " {\n")
	for i, v := range variants {
		b.WriteString("  " + v.Name)
		if len(v.Children) > 0 {
			b.WriteString(": " + typeString(v.Children[0]))
		}
		if i < len(variants)-1 {
			b.WriteString(",")
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
}

func formatRpcService(b *strings.Builder, n *Node) {
	b.WriteString("rpc_service " + n.Name + " {\n")
	for _, m := range n.Children {
		var attrs *Node
		req, resp := m.Children[0], m.Children[1]
		if len(m.Children) > 2 {
			attrs = m.Children[2]
		}
		b.WriteString("  " + m.Name + "(" + req.Name + "): " + resp.Name + attrListString(attrs) + ";\n")
	}
	b.WriteString("}\n")
}

func typeString(n *Node) string {
	switch n.Kind {
	case TypeRef:
		return n.Name
	case VectorType:
		return "[" + typeString(n.Children[0]) + "]"
	case ArrayType:
		return "[" + typeString(n.Children[0]) + ":" + tokenText(n.Children[1]) + "]"
	default:
		return ""
	}
}

func tokenText(n *Node) string {
	if n == nil || n.Token == nil {
		return ""
	}
	return n.Token.Text
}

func attrListString(n *Node) string {
	if n == nil || len(n.Children) == 0 {
		return ""
	}
	parts := make([]string, len(n.Children))
	for i, a := range n.Children {
		if len(a.Children) > 0 {
			parts[i] = a.Name + ": " + tokenText(a.Children[0])
		} else {
			parts[i] = a.Name
		}
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
