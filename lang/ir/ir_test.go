package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cosec/lang/cpp"
	"cosec/lang/ir"
	"cosec/lang/parser"
	"cosec/lang/token"
)

type noOpener struct{}

func (noOpener) Open(path string) ([]byte, string, bool) { return nil, "", false }

func lower(t *testing.T, src string) *ir.Program {
	t.Helper()
	fset := token.NewFileSet()
	pp := cpp.New(fset, noOpener{}, nil, "t.c", []byte(src), nil)
	tu, err := parser.ParseFile(fset, pp, "t.c")
	require.NoError(t, err)
	prog := ir.Lower(tu)
	requireWellFormed(t, prog)
	return prog
}

// requireWellFormed checks every lowered function against spec §3's "every
// basic block except the last is terminated by exactly one branch/cbr/return"
// invariant: a BR/CBR/RET may only be a block's final instruction, never
// followed by anything else (e.g. a PHI-incoming immediate misplaced after
// the predecessor's own branch).
func requireWellFormed(t *testing.T, prog *ir.Program) {
	t.Helper()
	for _, g := range prog.Globals {
		if g.Fn == nil {
			continue
		}
		for _, bb := range g.Fn.Blocks {
			for i, ins := range bb.Ins {
				if i == len(bb.Ins)-1 {
					continue
				}
				isTerm := ins.Op == ir.BR || ins.Op == ir.CBR || ins.Op == ir.RET
				require.False(t, isTerm, "%s bb%d: terminator %s at index %d is not the block's last instruction", g.Fn.Name, bb.Index, ins.Op, i)
			}
		}
	}
}

func findFn(t *testing.T, prog *ir.Program, name string) *ir.IrFn {
	t.Helper()
	for _, g := range prog.Globals {
		if g.Name == name && g.Fn != nil {
			return g.Fn
		}
	}
	t.Fatalf("no lowered function named %q", name)
	return nil
}

// allIns flattens every instruction of fn across every block, in block
// order, for assertions that don't care which block an instruction lives in.
func allIns(fn *ir.IrFn) []*ir.IrIns {
	var out []*ir.IrIns
	for _, bb := range fn.Blocks {
		out = append(out, bb.Ins...)
	}
	return out
}

func countOp(fn *ir.IrFn, op ir.Op) int {
	n := 0
	for _, ins := range allIns(fn) {
		if ins.Op == op {
			n++
		}
	}
	return n
}

func TestLowerIfElseBranchesToDistinctBlocks(t *testing.T) {
	prog := lower(t, `
int f(int x) {
	if (x > 0)
		return 1;
	else
		return -1;
}
`)
	fn := findFn(t, prog, "f")
	require.Len(t, fn.Blocks, 4) // entry, then, else, merge
	require.Equal(t, ir.CBR, fn.Blocks[0].Ins[len(fn.Blocks[0].Ins)-1].Op)
	require.Equal(t, ir.RET, fn.Blocks[1].Ins[len(fn.Blocks[1].Ins)-1].Op)
	require.Equal(t, ir.RET, fn.Blocks[2].Ins[len(fn.Blocks[2].Ins)-1].Op)
}

func TestLowerWhileLoopsBackAndBreaksOut(t *testing.T) {
	prog := lower(t, `
int f(int n) {
	int i = 0;
	while (i < n) {
		if (i == 5)
			break;
		i++;
	}
	return i;
}
`)
	fn := findFn(t, prog, "f")
	require.GreaterOrEqual(t, countOp(fn, ir.CBR), 2) // loop condition + inner if
	require.Equal(t, 1, countOp(fn, ir.RET))
}

func TestLowerForLoopEmitsIncrementAddAndOneReturn(t *testing.T) {
	prog := lower(t, `
int f(void) {
	int s = 0;
	for (int i = 0; i < 10; i++)
		s += i;
	return s;
}
`)
	fn := findFn(t, prog, "f")
	require.Equal(t, 1, countOp(fn, ir.RET))
	require.GreaterOrEqual(t, countOp(fn, ir.ADD), 2) // i++ and s += i
}

func TestLowerShortCircuitAndSharesFalseChainAcrossOperands(t *testing.T) {
	prog := lower(t, `
int f(int a, int b) {
	if (a && b)
		return 1;
	return 0;
}
`)
	fn := findFn(t, prog, "f")
	// two NE-against-zero comparisons (one per operand converted to a
	// condition) and two conditional branches, one per operand.
	require.Equal(t, 2, countOp(fn, ir.NE))
	require.Equal(t, 2, countOp(fn, ir.CBR))
}

func TestLowerShortCircuitOrDischargesToPhiWhenStored(t *testing.T) {
	prog := lower(t, `
int f(int a, int b) {
	int c = a || b;
	return c;
}
`)
	fn := findFn(t, prog, "f")
	require.Equal(t, 1, countOp(fn, ir.PHI))
}

func TestLowerPointerArithmeticScalesByElementSize(t *testing.T) {
	prog := lower(t, `
int f(int *p) {
	int *q = p + 1;
	return *q;
}
`)
	fn := findFn(t, prog, "f")
	require.Equal(t, 1, countOp(fn, ir.IDX))
	require.Equal(t, 1, countOp(fn, ir.MUL)) // integer operand scaled by sizeof(int) before IDX
}

func TestLowerPointerDifferenceDividesByElementSize(t *testing.T) {
	prog := lower(t, `
long f(int *p, int *q) {
	return p - q;
}
`)
	fn := findFn(t, prog, "f")
	require.Equal(t, 1, countOp(fn, ir.SUB))
	require.Equal(t, 1, countOp(fn, ir.SDIV))
}

func TestLowerCompoundAssignTruncatesToStorageType(t *testing.T) {
	prog := lower(t, `
int f(void) {
	char c = 0;
	c += 1;
	return c;
}
`)
	fn := findFn(t, prog, "f")
	require.Equal(t, 1, countOp(fn, ir.TRUNC))
}

func TestLowerConstantInitializerBecomesGlobalPlusCopy(t *testing.T) {
	prog := lower(t, `
int f(void) {
	int a[3] = {1, 2, 3};
	return a[0];
}
`)
	fn := findFn(t, prog, "f")
	require.Equal(t, 1, countOp(fn, ir.COPY))

	var anon int
	for _, g := range prog.Globals {
		if g.Label != "" {
			anon++
		}
	}
	require.Equal(t, 1, anon)
}

func TestLowerMixedInitializerZeroFillsOmittedSlots(t *testing.T) {
	prog := lower(t, `
int f(int x) {
	int a[3] = {x, 2};
	return a[0];
}
`)
	fn := findFn(t, prog, "f")
	require.Equal(t, 0, countOp(fn, ir.COPY)) // not all-constant, so no global+copy
	require.Equal(t, 1, countOp(fn, ir.ZERO)) // the 3rd, omitted element
}

func TestLowerSwitchEmitsOneCompareForEachCaseLabel(t *testing.T) {
	prog := lower(t, `
int f(int x) {
	int r = 0;
	switch (x) {
	case 1:
		r = 1;
		break;
	case 2:
		r = 2;
		break;
	default:
		r = -1;
	}
	return r;
}
`)
	fn := findFn(t, prog, "f")
	require.Equal(t, 2, countOp(fn, ir.EQ)) // one per case label
	require.Equal(t, 1, countOp(fn, ir.RET))
}

func TestLowerFunctionFallsOffEndSynthesizesReturn(t *testing.T) {
	prog := lower(t, `
void f(void) {
	int x = 1;
}
`)
	fn := findFn(t, prog, "f")
	last := fn.Blocks[len(fn.Blocks)-1]
	require.Equal(t, ir.RET, last.Ins[len(last.Ins)-1].Op)
}

func TestDumpProducesReadableText(t *testing.T) {
	prog := lower(t, "int f(int x) { return x + 1; }\n")
	buf := &byteBuffer{}
	ir.Dump(buf, prog)
	require.Contains(t, string(buf.b), "func f")
	require.Contains(t, string(buf.b), "ret")
}

type byteBuffer struct{ b []byte }

func (w *byteBuffer) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}
