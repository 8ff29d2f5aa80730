package lang

// Expr is a parsed expression. The set of implementations is closed.
type Expr interface {
	// Pos reports the 1-based source position of the expression.
	Pos() (line, col int)
	isExpr()
}

type IntLit struct {
	Line, Col int
	Value     int64
}

type NumLit struct {
	Line, Col int
	Value     float64
}

type StrLit struct {
	Line, Col int
	Value     string
}

type BoolLit struct {
	Line, Col int
	Value     bool
}

type Ident struct {
	Line, Col int
	Name      string
}

// Unary is a prefix operator application; only "-" exists.
type Unary struct {
	Line, Col int
	Op        string
	X         Expr
}

type Binary struct {
	Line, Col int
	Op        string
	X, Y      Expr
}

// Call is a builtin constructor call such as rand(...) or read(...).
type Call struct {
	Line, Col int
	Fn        string
	Args      []Expr
}

// Method is a method call on a receiver expression, X.mean(0).
type Method struct {
	Line, Col int
	Recv      Expr
	Name      string
	Args      []Expr
}

// Index is the two-component bracket read X[rows, cols].
type Index struct {
	Line, Col  int
	Recv       Expr
	Rows, Cols IndexKey
}

// IndexKey is one component of an index expression: a single position
// (or matrix selection), or a range with optional bounds.
type IndexKey struct {
	Colon bool // a range form, including the bare ':'
	Start Expr // nil when omitted
	Stop  Expr // nil when omitted; only set on range forms
}

func (x *IntLit) Pos() (int, int)  { return x.Line, x.Col }
func (x *NumLit) Pos() (int, int)  { return x.Line, x.Col }
func (x *StrLit) Pos() (int, int)  { return x.Line, x.Col }
func (x *BoolLit) Pos() (int, int) { return x.Line, x.Col }
func (x *Ident) Pos() (int, int)   { return x.Line, x.Col }
func (x *Unary) Pos() (int, int)   { return x.Line, x.Col }
func (x *Binary) Pos() (int, int)  { return x.Line, x.Col }
func (x *Call) Pos() (int, int)    { return x.Line, x.Col }
func (x *Method) Pos() (int, int)  { return x.Line, x.Col }
func (x *Index) Pos() (int, int)   { return x.Line, x.Col }

func (*IntLit) isExpr()  {}
func (*NumLit) isExpr()  {}
func (*StrLit) isExpr()  {}
func (*BoolLit) isExpr() {}
func (*Ident) isExpr()   {}
func (*Unary) isExpr()   {}
func (*Binary) isExpr()  {}
func (*Call) isExpr()    {}
func (*Method) isExpr()  {}
func (*Index) isExpr()   {}

// Stmt is one interactive line: a binding or a bare expression.
type Stmt struct {
	Name string // binding target; empty for a bare expression
	X    Expr
}
