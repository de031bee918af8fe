package vm

import (
	"strings"
	"testing"
)

// assertContains checks that the generated assembly contains the
// expected substring.
func assertContains(t *testing.T, asm, expected string) {
	t.Helper()
	if !strings.Contains(asm, expected) {
		t.Errorf("expected assembly to contain %q, but it didn't.\nAssembly:\n%s", expected, asm)
	}
}

func mustTranslate(t *testing.T, prog *Program) string {
	t.Helper()
	asm, err := Translate(prog)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	return asm
}

func TestTranslate_EmptyProgramHasPreamble(t *testing.T) {
	asm := mustTranslate(t, NewProgram())
	assertContains(t, asm, "@256")
	assertContains(t, asm, "@SP")
	assertContains(t, asm, "M=D")
}

func TestTranslate_Templates(t *testing.T) {
	tests := []struct {
		name        string
		instruction Instruction
		want        []string
	}{
		{"Push Constant", Push{SegConstant, 7}, []string{"@7", "D=A"}},
		{"Push Local", Push{SegLocal, 2}, []string{"@LCL", "D=M", "@2", "A=D+A"}},
		{"Push Argument", Push{SegArgument, 0}, []string{"@ARG"}},
		{"Push Temp", Push{SegTemp, 2}, []string{"@7"}},
		{"Push Pointer This", Push{SegPointer, 0}, []string{"@THIS"}},
		{"Pop Pointer That", Pop{SegPointer, 1}, []string{"@THAT"}},
		{"Pop This Via Scratch", Pop{SegThis, 4}, []string{"@THIS", "@R13"}},
		{"Add", Arithmetic{OpAdd}, []string{"M=D+M"}},
		{"Sub", Arithmetic{OpSub}, []string{"M=M-D"}},
		{"And", Arithmetic{OpAnd}, []string{"M=D&M"}},
		{"Or", Arithmetic{OpOr}, []string{"M=D|M"}},
		{"Neg", Arithmetic{OpNeg}, []string{"M=-M"}},
		{"Not", Arithmetic{OpNot}, []string{"M=!M"}},
		{"Eq", Arithmetic{OpEq}, []string{"D=M-D", "M=-1", "D;JEQ", "M=0"}},
		{"Gt", Arithmetic{OpGt}, []string{"D;JGT"}},
		{"Lt", Arithmetic{OpLt}, []string{"D;JLT"}},
		{"Label", Label{"LOOP"}, []string{"(LOOP)"}},
		{"Goto", Goto{"LOOP"}, []string{"@LOOP", "0;JMP"}},
		{"If Goto Branches On Nonzero", IfGoto{"LOOP"}, []string{"D;JNE"}},
		{"Call", Call{"Math.max", 2}, []string{"@Math.max", "@7", "D=D-A", "@ARG"}},
		{"Return", Return{}, []string{"@R13", "@R14", "@R15"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := NewProgram()
			prog.Instructions = []Instruction{tt.instruction}
			asm := mustTranslate(t, prog)
			for _, want := range tt.want {
				assertContains(t, asm, want)
			}
		})
	}
}

func TestTranslate_StaticUsesGlobalSlot(t *testing.T) {
	prog := NewProgram()
	// slot 3 resolved at parse time lands at cell 16+3
	prog.Instructions = []Instruction{Push{SegStatic, 3}}
	asm := mustTranslate(t, prog)
	assertContains(t, asm, "@19")
}

func TestTranslate_SynthesizedLabelsAreUnique(t *testing.T) {
	prog := NewProgram()
	for i := 0; i < 5; i++ {
		prog.Instructions = append(prog.Instructions, Arithmetic{OpEq})
	}
	prog.Instructions = append(prog.Instructions, Call{"f", 0})
	asm := mustTranslate(t, prog)

	seen := make(map[string]bool)
	for _, line := range strings.Split(asm, "\n") {
		if strings.HasPrefix(line, "($") && strings.HasSuffix(line, ")") {
			if seen[line] {
				t.Errorf("label %s defined twice", line)
			}
			seen[line] = true
		}
	}
	if len(seen) != 6 {
		t.Errorf("expected 6 synthesized labels, found %d", len(seen))
	}
}

func TestTranslate_FunctionSetupZeroesLocals(t *testing.T) {
	prog := NewProgram()
	prog.Instructions = []Instruction{Label{"f"}, FunctionSetup{3}}
	asm := mustTranslate(t, prog)
	assertContains(t, asm, "(f)")
	if got := strings.Count(asm, "M=0"); got != 3 {
		t.Errorf("expected 3 zero-writes for 3 locals, found %d", got)
	}
}

func TestTranslate_IndexRangeErrors(t *testing.T) {
	tests := []struct {
		name        string
		instruction Instruction
	}{
		{"Pointer Index Too Big", Push{SegPointer, 2}},
		{"Temp Index Too Big", Pop{SegTemp, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := NewProgram()
			prog.Instructions = []Instruction{tt.instruction}
			if _, err := Translate(prog); err == nil {
				t.Errorf("Translate(%v) succeeded; want range error", tt.instruction)
			}
		})
	}
}
