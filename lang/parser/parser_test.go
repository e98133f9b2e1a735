package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cosec/lang/ast"
	"cosec/lang/cpp"
	"cosec/lang/parser"
	"cosec/lang/token"
	"cosec/lang/types"
)

type noOpener struct{}

func (noOpener) Open(path string) ([]byte, string, bool) { return nil, "", false }

func parse(t *testing.T, src string) (*ast.TranslationUnit, error) {
	t.Helper()
	fset := token.NewFileSet()
	pp := cpp.New(fset, noOpener{}, nil, "t.c", []byte(src), nil)
	return parser.ParseFile(fset, pp, "t.c")
}

func requireDecl[T any](t *testing.T, tu *ast.TranslationUnit, i int) T {
	t.Helper()
	require.Greater(t, len(tu.Decls), i)
	d, ok := tu.Decls[i].(T)
	require.Truef(t, ok, "decl %d has type %T", i, tu.Decls[i])
	return d
}

func TestParseSimpleVarDecl(t *testing.T) {
	tu, err := parse(t, "int x = 1;\n")
	require.NoError(t, err)
	require.Len(t, tu.Decls, 1)
	v := requireDecl[*ast.VarDecl](t, tu, 0)
	require.Equal(t, "x", v.Name)
	require.Equal(t, types.Int, v.Type.Kind)
}

func TestParseMultiDeclaratorVarDecl(t *testing.T) {
	tu, err := parse(t, "int a = 1, b, *c;\n")
	require.NoError(t, err)
	require.Len(t, tu.Decls, 3)

	a := requireDecl[*ast.VarDecl](t, tu, 0)
	require.Equal(t, "a", a.Name)
	require.Equal(t, types.Int, a.Type.Kind)

	b := requireDecl[*ast.VarDecl](t, tu, 1)
	require.Equal(t, "b", b.Name)
	require.Equal(t, types.Int, b.Type.Kind)
	require.Nil(t, b.Init)

	c := requireDecl[*ast.VarDecl](t, tu, 2)
	require.Equal(t, "c", c.Name)
	require.Equal(t, types.Pointer, c.Type.Kind)
	require.Equal(t, types.Int, c.Type.Elem.Kind)
}

func TestParseMultiDeclaratorTypedef(t *testing.T) {
	tu, err := parse(t, "typedef int i32, *i32p;\n")
	require.NoError(t, err)
	require.Len(t, tu.Decls, 2)

	a := requireDecl[*ast.TypedefDecl](t, tu, 0)
	require.Equal(t, "i32", a.Name)
	require.Equal(t, types.Int, a.Type.Kind)

	b := requireDecl[*ast.TypedefDecl](t, tu, 1)
	require.Equal(t, "i32p", b.Name)
	require.Equal(t, types.Pointer, b.Type.Kind)
}

func TestParseParenDeclaratorFunctionPointer(t *testing.T) {
	tu, err := parse(t, "int (*fp)(int);\n")
	require.NoError(t, err)
	v := requireDecl[*ast.VarDecl](t, tu, 0)
	require.Equal(t, "fp", v.Name)
	require.Equal(t, types.Pointer, v.Type.Kind)
	require.Equal(t, types.Func, v.Type.Elem.Kind)
	require.Equal(t, types.Int, v.Type.Elem.Return.Kind)
}

func TestParseMultiDimensionalArray(t *testing.T) {
	tu, err := parse(t, "int a[3][4];\n")
	require.NoError(t, err)
	v := requireDecl[*ast.VarDecl](t, tu, 0)
	require.Equal(t, types.Array, v.Type.Kind)
	require.Equal(t, 3, v.Type.ArrayLen)
	require.Equal(t, types.Array, v.Type.Elem.Kind)
	require.Equal(t, 4, v.Type.Elem.ArrayLen)
	require.Equal(t, types.Int, v.Type.Elem.Elem.Kind)
}

func TestParseFunctionDefinitionWithBody(t *testing.T) {
	tu, err := parse(t, "int add(int a, int b) { return a + b; }\n")
	require.NoError(t, err)
	fn := requireDecl[*ast.FuncDecl](t, tu, 0)
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	require.NotNil(t, fn.Body)
	require.Len(t, fn.Body.Stmts, 1)
	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.X.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, token.PLUS, bin.Op)
}

func TestParseMultiDeclaratorForInit(t *testing.T) {
	tu, err := parse(t, "int main(void) { for (int i = 0, j = 0; i < j; i++) ; return 0; }\n")
	require.NoError(t, err)
	fn := requireDecl[*ast.FuncDecl](t, tu, 0)
	require.Len(t, fn.Body.Stmts, 2)
	forStmt, ok := fn.Body.Stmts[0].(*ast.ForStmt)
	require.True(t, ok)
	block, ok := forStmt.Init.(*ast.CompoundStmt)
	require.True(t, ok)
	require.Len(t, block.Stmts, 2)
}

func TestParseIfElseAndLabel(t *testing.T) {
	tu, err := parse(t, `
int f(int x) {
	if (x > 0)
		return 1;
	else
		return -1;
done:
	return 0;
}
`)
	require.NoError(t, err)
	fn := requireDecl[*ast.FuncDecl](t, tu, 0)
	_, ok := fn.Body.Stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	lbl, ok := fn.Body.Stmts[1].(*ast.LabeledStmt)
	require.True(t, ok)
	require.Equal(t, "done", lbl.Label)
}

func TestParseStructWithBitFields(t *testing.T) {
	tu, err := parse(t, "struct flags { unsigned a : 1; unsigned b : 3; };\n")
	require.NoError(t, err)
	rd := requireDecl[*ast.RecordDecl](t, tu, 0)
	require.Equal(t, types.Struct, rd.Type.Kind)
	fa, ok := rd.Type.Field("a")
	require.True(t, ok)
	require.True(t, fa.HasBitSize)
	require.Equal(t, 1, fa.BitWidth)
}

func TestParseEnumConstantFolding(t *testing.T) {
	tu, err := parse(t, "enum color { RED, GREEN = 5, BLUE };\n")
	require.NoError(t, err)
	rd := requireDecl[*ast.RecordDecl](t, tu, 0)
	require.Equal(t, types.Enum, rd.Type.Kind)
	want := map[string]int64{"RED": 0, "GREEN": 5, "BLUE": 6}
	for _, ec := range rd.Type.EnumConsts {
		require.Equal(t, want[ec.Name], ec.Value, ec.Name)
	}
}

func TestParseDesignatedInitializer(t *testing.T) {
	tu, err := parse(t, "int a[4] = { [2] = 7, 9 };\n")
	require.NoError(t, err)
	v := requireDecl[*ast.VarDecl](t, tu, 0)
	lit, ok := v.Init.(*ast.InitListExpr)
	require.True(t, ok)
	require.Len(t, lit.Elems, 2)
	require.NotNil(t, lit.Designators[0].Index)
}

func TestParseCompoundLiteral(t *testing.T) {
	tu, err := parse(t, "int f(void) { struct point { int x; int y; } p = (struct point){1, 2}; return p.x; }\n")
	require.NoError(t, err)
	fn := requireDecl[*ast.FuncDecl](t, tu, 0)
	require.NotEmpty(t, fn.Body.Stmts)
}

func TestParseUndeclaredBreakIsError(t *testing.T) {
	_, err := parse(t, "int f(void) { break; return 0; }\n")
	require.Error(t, err)
}
