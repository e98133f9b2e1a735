package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a readable textual rendering of prog to w, one instruction
// per line grouped by function and basic block, matching the general
// one-node-per-line texture of lang/ast's Printer but with no dependency on
// it (the IR has no lang/ast.Node tree to Walk).
func Dump(w io.Writer, prog *Program) {
	for _, g := range prog.Globals {
		if g.Fn == nil {
			fmt.Fprintf(w, "global %s %s\n", g.Name, g.Type)
			continue
		}
		dumpFn(w, g.Fn)
	}
}

func dumpFn(w io.Writer, fn *IrFn) {
	fmt.Fprintf(w, "func %s %s\n", fn.Name, fn.Type)
	for _, bb := range fn.Blocks {
		fmt.Fprintf(w, "bb%d:\n", bb.Index)
		for _, ins := range bb.Ins {
			fmt.Fprintf(w, "  %s\n", dumpIns(ins))
		}
	}
}

func dumpIns(ins *IrIns) string {
	var sb strings.Builder
	if ins.Type != nil && ins.Op != STORE && ins.Op != BR && ins.Op != CBR && ins.Op != RET && ins.Op != ZERO && ins.Op != COPY && ins.Op != CARG {
		fmt.Fprintf(&sb, "v%d = ", ins.ID)
	}
	fmt.Fprintf(&sb, "%s", ins.Op)

	switch ins.Op {
	case IMM:
		fmt.Fprintf(&sb, " %d", ins.IntImm)
	case FIMM:
		fmt.Fprintf(&sb, " %g", ins.FloatImm)
	case GLOBAL:
		fmt.Fprintf(&sb, " %s", ins.GlobalRef)
	case FARG:
		fmt.Fprintf(&sb, " %d", ins.IntImm)
	case ELEM:
		fmt.Fprintf(&sb, " v%d, %s+%d", ins.Args[0].ID, ins.FieldName, ins.FieldOff)
	case BR:
		fmt.Fprintf(&sb, " bb%d", ins.True.Index)
	case CBR:
		fmt.Fprintf(&sb, " v%d, bb%d, bb%d", ins.Args[0].ID, ins.True.Index, ins.False.Index)
	case PHI:
		for i, p := range ins.PhiPreds {
			fmt.Fprintf(&sb, " [bb%d: v%d]", p.Index, ins.PhiVals[i].ID)
		}
	case CALL:
		fmt.Fprintf(&sb, " v%d", ins.Callee.ID)
	case CARG:
		for _, a := range ins.CallArgs {
			fmt.Fprintf(&sb, " v%d", a.ID)
		}
	default:
		for _, a := range ins.Args {
			fmt.Fprintf(&sb, " v%d", a.ID)
		}
	}
	return sb.String()
}
