package vm

import (
	"strings"
	"testing"
)

func TestInstructionStrings(t *testing.T) {
	tests := []struct {
		instruction Instruction
		want        string
	}{
		{Arithmetic{OpAdd}, "add"},
		{Arithmetic{OpNot}, "not"},
		{Push{SegConstant, 7}, "push constant 7"},
		{Pop{SegThat, 2}, "pop that 2"},
		{Label{"LOOP"}, "label LOOP"},
		{FunctionSetup{2}, "init 2 locals"},
		{Call{"Math.max", 3}, "call Math.max 3"},
		{Goto{"END"}, "goto END"},
		{IfGoto{"END"}, "if-goto END"},
		{Return{}, "return"},
	}
	for _, tt := range tests {
		if got := tt.instruction.String(); got != tt.want {
			t.Errorf("String() = %q; want %q", got, tt.want)
		}
	}
}

func TestKeywordTablesAgree(t *testing.T) {
	// the name array and the lookup map must be exact inverses
	for op, name := range arithmeticNames {
		if got := arithmeticByName[name]; got != ArithmeticOpcode(op) {
			t.Errorf("arithmeticByName[%q] = %v; want %v", name, got, ArithmeticOpcode(op))
		}
	}
	if len(arithmeticByName) != len(arithmeticNames) {
		t.Errorf("arithmetic table sizes differ: %d vs %d", len(arithmeticByName), len(arithmeticNames))
	}
	for seg, name := range segmentNames {
		if got := segmentByName[name]; got != MemorySegment(seg) {
			t.Errorf("segmentByName[%q] = %v; want %v", name, got, MemorySegment(seg))
		}
	}
	if len(segmentByName) != len(segmentNames) {
		t.Errorf("segment table sizes differ: %d vs %d", len(segmentByName), len(segmentNames))
	}
}

func TestGrowStaticNeverShrinks(t *testing.T) {
	prog := NewProgram()
	prog.growStatic(5)
	prog.growStatic(3)
	if prog.StaticSize != 5 {
		t.Errorf("StaticSize = %d; want 5", prog.StaticSize)
	}
	prog.growStatic(8)
	if prog.StaticSize != 8 {
		t.Errorf("StaticSize = %d; want 8", prog.StaticSize)
	}
}

func TestDrawTree(t *testing.T) {
	prog := NewProgram()
	if err := Parse(prog, "push constant 7\nadd\nfunction Main.main 2\nreturn", "test.vm"); err != nil {
		t.Fatalf("parse: %v", err)
	}
	drawn := prog.DrawTree()
	if drawn == "" {
		t.Fatal("DrawTree returned an empty string")
	}
	// short single-word leaves are never wrapped by the drawer
	for _, want := range []string{"add", "return"} {
		if !strings.Contains(drawn, want) {
			t.Errorf("tree drawing missing %q:\n%s", want, drawn)
		}
	}
}
