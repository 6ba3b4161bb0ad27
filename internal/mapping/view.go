package mapping

// ViewOrigin records where a generated view came from.
type ViewOrigin string

// View origins.
const (
	OriginSynthesized ViewOrigin = "synthesized"
	OriginPrecompiled ViewOrigin = "precompiled"
	OriginUserDefined ViewOrigin = "user-defined"
	OriginForeignKey  ViewOrigin = "foreign-key"
)

// GeneratedView is a compiled query fragment bound to one view key.
//
// A GeneratedView is never mutated after construction and is safe to share
// across goroutines. Expr is the view expression when one is available
// (synthesized and foreign-key views); precompiled and user-defined views
// carry text only. Expr is typed as any so that mapping does not depend on
// the view IR package.
type GeneratedView struct {
	Key    ViewKey
	Text   string
	Expr   any
	Origin ViewOrigin
}

// NewGeneratedView creates a view for key.
func NewGeneratedView(key ViewKey, text string, expr any, origin ViewOrigin) *GeneratedView {
	return &GeneratedView{Key: key, Text: text, Expr: expr, Origin: origin}
}
