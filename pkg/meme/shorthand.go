package meme

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

var (
	styleLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n,]+`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{4}|[0-9A-Fa-f]{3})\b`},
		{Name: "Length", Pattern: `\d+(?:px)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9_-]*`},
	})

	styleParser = participle.MustBuild[styleExpr](
		participle.Lexer(styleLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
		participle.CaseInsensitive("Ident"),
	)
)

type styleExpr struct {
	Items []*styleItem `parser:"@@+"`
}

type styleItem struct {
	Fill   *string     `parser:"  'fill' @Color"`
	Stroke *strokeSpec `parser:"| 'stroke' @@"`
	Size   *string     `parser:"| @Length"`
	Family *string     `parser:"| @(String | Ident)"`
}

type strokeSpec struct {
	Parts []string `parser:"@(Length | Color)+"`
}

// ParseStyle applies a shorthand style expression on top of base.
//
// Recognised tokens:
//
//	<n>px | <n>          font size
//	<Family> | "<Family>"  font family (quote names containing spaces)
//	fill <#color>        fill colour
//	stroke [<n>px] [<#color>]  outline width and/or colour
func ParseStyle(expr string, base Style) (Style, error) {
	if strings.TrimSpace(expr) == "" {
		return base, nil
	}
	ast, err := styleParser.ParseString("", expr)
	if err != nil {
		return base, errs.Wrap(errs.ErrCodeInvalidStyle, err, "invalid style %q", expr)
	}

	s := base
	for _, item := range ast.Items {
		switch {
		case item.Fill != nil:
			s.FillColor = normalizeColor(*item.Fill)
		case item.Stroke != nil:
			for _, p := range item.Stroke.Parts {
				if strings.HasPrefix(p, "#") {
					s.StrokeColor = normalizeColor(p)
					continue
				}
				n, err := parseLength(p)
				if err != nil {
					return base, errs.Wrap(errs.ErrCodeInvalidStyle, err, "invalid stroke width %q", p)
				}
				s.StrokeWidth = n
			}
		case item.Size != nil:
			n, err := parseLength(*item.Size)
			if err != nil {
				return base, errs.Wrap(errs.ErrCodeInvalidStyle, err, "invalid font size %q", *item.Size)
			}
			s.FontSize = n
		case item.Family != nil:
			if isKeyword(*item.Family) {
				return base, errs.New(errs.ErrCodeInvalidStyle, "invalid style %q: %s needs a value", expr, strings.ToLower(*item.Family))
			}
			s.FontFamily = canonicalFamily(*item.Family)
		}
	}
	return s, nil
}

// isKeyword catches "fill" or "stroke" that the grammar fell back to
// reading as a family name because no value followed.
func isKeyword(s string) bool {
	return strings.EqualFold(s, "fill") || strings.EqualFold(s, "stroke")
}

func parseLength(tok string) (int, error) {
	return strconv.Atoi(strings.TrimSuffix(tok, "px"))
}

func normalizeColor(c string) string {
	return strings.ToUpper(c)
}

// canonicalFamily maps a case-insensitive match of a known family to its
// canonical spelling; unknown names are kept as written.
func canonicalFamily(name string) string {
	for _, f := range Families {
		if strings.EqualFold(f, name) {
			return f
		}
	}
	return name
}
