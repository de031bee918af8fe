package vm

import (
	"fmt"
	"strings"
)

// Memory map of the target machine. The first five cells hold the
// stack, local, argument, this and that pointers; R13-R15 are scratch
// cells, needed because the machine cannot move a value between two
// registers without staging it through addressed memory.
const (
	tempBase   = 5 // first temp cell
	tempLength = 4
	staticBase = 16  // first static slot
	stackBase  = 256 // initial stack pointer
)

const (
	scratchValue  = "R13" // pop target address / return value
	scratchArg    = "R14" // caller argument pointer during return
	scratchReturn = "R15" // return address during return
)

// segmentPointers maps the base-pointer-indirect segments to the name
// of the cell holding their base address.
var segmentPointers = map[MemorySegment]string{
	SegLocal:    "LCL",
	SegArgument: "ARG",
	SegThis:     "THIS",
	SegThat:     "THAT",
}

// translator emits assembly for one Program. It is discarded after a
// single Translate call; nextLabel makes every synthesized label unique
// within the output.
type translator struct {
	out       strings.Builder
	nextLabel int
}

// Translate lowers a parsed Program to Hack assembly text. Input that
// came from Parse never fails; errors only flag IR constructed by hand
// with out-of-range pointer or temp indices.
func Translate(prog *Program) (string, error) {
	t := &translator{}
	t.comment("bootstrap")
	t.line("@%d", stackBase)
	t.line("D=A")
	t.line("@SP")
	t.line("M=D")
	for _, in := range prog.Instructions {
		t.comment("%s", in)
		if err := t.instruction(in); err != nil {
			return "", err
		}
	}
	return t.out.String(), nil
}

func (t *translator) line(format string, args ...any) {
	fmt.Fprintf(&t.out, format+"\n", args...)
}

func (t *translator) comment(format string, args ...any) {
	t.line("// "+format, args...)
}

// newLabel synthesizes a unique internal label. The '$' prefix cannot
// appear in a parsed identifier, so user labels never collide with it.
func (t *translator) newLabel(kind string) string {
	l := fmt.Sprintf("$%s_%d", kind, t.nextLabel)
	t.nextLabel++
	return l
}

//  Stack primitives

// pushD writes the D register to the top of the stack and increments
// the stack pointer.
func (t *translator) pushD() {
	t.line("@SP")
	t.line("A=M")
	t.line("M=D")
	t.line("@SP")
	t.line("M=M+1")
}

// popD decrements the stack pointer and reads the exposed cell into D,
// leaving A addressing that cell.
func (t *translator) popD() {
	t.line("@SP")
	t.line("AM=M-1")
	t.line("D=M")
}

func (t *translator) instruction(in Instruction) error {
	switch in := in.(type) {
	case Arithmetic:
		t.arithmetic(in.Op)
	case Push:
		return t.push(in)
	case Pop:
		return t.pop(in)
	case Label:
		t.line("(%s)", in.Name)
	case FunctionSetup:
		t.functionSetup(in.Locals)
	case Call:
		t.call(in)
	case Goto:
		t.line("@%s", in.Target)
		t.line("0;JMP")
	case IfGoto:
		// Nonzero is truthy, so the branch is on JNE rather than on a
		// comparison against the all-bits-set true value.
		t.popD()
		t.line("@%s", in.Target)
		t.line("D;JNE")
	case Return:
		t.funcReturn()
	default:
		return fmt.Errorf("unknown instruction %T", in)
	}
	return nil
}

//  Arithmetic

func (t *translator) arithmetic(op ArithmeticOpcode) {
	switch op {
	case OpAdd:
		t.binary("M=D+M")
	case OpSub:
		t.binary("M=M-D")
	case OpAnd:
		t.binary("M=D&M")
	case OpOr:
		t.binary("M=D|M")
	case OpNeg:
		t.unary("M=-M")
	case OpNot:
		t.unary("M=!M")
	case OpEq:
		t.compare("JEQ")
	case OpGt:
		t.compare("JGT")
	case OpLt:
		t.compare("JLT")
	}
}

// binary pops the right operand into D and combines it in place with
// the value now exposed at the top of the stack.
func (t *translator) binary(combine string) {
	t.popD()
	t.line("A=A-1")
	t.line(combine)
}

// unary transforms the top of the stack in place; nothing is popped.
func (t *translator) unary(transform string) {
	t.line("@SP")
	t.line("A=M-1")
	t.line(transform)
}

// compare subtracts the popped right operand from the left one, writes
// true (all bits set) unconditionally, then branches over a write of
// false when the difference satisfies jump (JEQ, JGT or JLT).
func (t *translator) compare(jump string) {
	done := t.newLabel("CMP")
	t.popD()
	t.line("A=A-1")
	t.line("D=M-D")
	t.line("M=-1")
	t.line("@%s", done)
	t.line("D;%s", jump)
	t.line("@SP")
	t.line("A=M-1")
	t.line("M=0")
	t.line("(%s)", done)
}

//  Push / pop

func (t *translator) push(in Push) error {
	switch in.Segment {
	case SegConstant:
		t.line("@%d", in.Index)
		t.line("D=A")
	case SegLocal, SegArgument, SegThis, SegThat:
		t.line("@%s", segmentPointers[in.Segment])
		t.line("D=M")
		t.line("@%d", in.Index)
		t.line("A=D+A")
		t.line("D=M")
	default:
		addr, err := t.directAddress(in.Segment, in.Index)
		if err != nil {
			return err
		}
		t.line("@%s", addr)
		t.line("D=M")
	}
	t.pushD()
	return nil
}

func (t *translator) pop(in Pop) error {
	switch in.Segment {
	case SegConstant:
		// Unreachable for parsed programs; Parse rejects this form.
		return fmt.Errorf("cannot pop into the constant segment")
	case SegLocal, SegArgument, SegThis, SegThat:
		t.line("@%s", segmentPointers[in.Segment])
		t.line("D=M")
		t.line("@%d", in.Index)
		t.line("D=D+A")
		t.line("@%s", scratchValue)
		t.line("M=D")
		t.popD()
		t.line("@%s", scratchValue)
		t.line("A=M")
		t.line("M=D")
	default:
		addr, err := t.directAddress(in.Segment, in.Index)
		if err != nil {
			return err
		}
		t.popD()
		t.line("@%s", addr)
		t.line("M=D")
	}
	return nil
}

// directAddress resolves the directly addressed segments to a concrete
// cell. Static slots were already rebased to program-global indices by
// the parser.
func (t *translator) directAddress(seg MemorySegment, index int) (string, error) {
	switch seg {
	case SegPointer:
		switch index {
		case 0:
			return "THIS", nil
		case 1:
			return "THAT", nil
		}
		return "", fmt.Errorf("pointer index %d out of range (expected 0 or 1)", index)
	case SegTemp:
		if index >= tempLength {
			return "", fmt.Errorf("temp index %d out of range (expected below %d)", index, tempLength)
		}
		return fmt.Sprintf("%d", tempBase+index), nil
	case SegStatic:
		return fmt.Sprintf("%d", staticBase+index), nil
	}
	return "", fmt.Errorf("segment %s is not directly addressed", seg)
}

//  Function protocol

// functionSetup pushes locals zero values, establishing the local
// segment. It always directly follows the function's entry Label.
func (t *translator) functionSetup(locals int) {
	for i := 0; i < locals; i++ {
		t.line("@SP")
		t.line("A=M")
		t.line("M=0")
		t.line("@SP")
		t.line("M=M+1")
	}
}

// call saves the caller's frame and transfers control to the callee.
// The push order (return address, LCL, ARG, THIS, THAT) is mirrored
// exactly by funcReturn's restore order.
func (t *translator) call(in Call) {
	ret := t.newLabel("RET")
	t.line("@%s", ret)
	t.line("D=A")
	t.pushD()
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		t.line("@%s", reg)
		t.line("D=M")
		t.pushD()
	}
	// ARG = SP - (args + 5): the five cells just pushed sit between
	// the arguments and the new frame.
	t.line("@SP")
	t.line("D=M")
	t.line("@%d", in.Args+5)
	t.line("D=D-A")
	t.line("@ARG")
	t.line("M=D")
	// LCL = SP
	t.line("@SP")
	t.line("D=M")
	t.line("@LCL")
	t.line("M=D")
	t.line("@%s", in.Function)
	t.line("0;JMP")
	t.line("(%s)", ret)
}

// funcReturn unwinds one frame: the locals and arguments are reclaimed,
// the caller's segment pointers come back, and the single return value
// takes the stack slot the first argument occupied.
func (t *translator) funcReturn() {
	// Put the return value aside.
	t.popD()
	t.line("@%s", scratchValue)
	t.line("M=D")
	// Collapse the local segment, exposing the saved pointers.
	t.line("@LCL")
	t.line("D=M")
	t.line("@SP")
	t.line("M=D")
	// The caller's argument pointer marks where the return value goes;
	// capture it before the saved ARG overwrites it.
	t.line("@ARG")
	t.line("D=M")
	t.line("@%s", scratchArg)
	t.line("M=D")
	// Restore in mirror order of call's pushes, then grab the return
	// address. With zero arguments the return-value slot and the
	// return-address cell coincide, so the address must be read before
	// the value is written.
	for _, reg := range []string{"THAT", "THIS", "ARG", "LCL"} {
		t.popD()
		t.line("@%s", reg)
		t.line("M=D")
	}
	t.popD()
	t.line("@%s", scratchReturn)
	t.line("M=D")
	// Reclaim the argument slots and leave the return value on top.
	t.line("@%s", scratchArg)
	t.line("D=M")
	t.line("@SP")
	t.line("M=D")
	t.line("@%s", scratchValue)
	t.line("D=M")
	t.pushD()
	t.line("@%s", scratchReturn)
	t.line("A=M")
	t.line("0;JMP")
}
