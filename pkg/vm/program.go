package vm

import "fmt"

// ArithmeticOpcode identifies one of the stack machine's arithmetic or
// logic commands.
type ArithmeticOpcode int

const (
	OpAdd ArithmeticOpcode = iota
	OpSub
	OpNeg
	OpEq
	OpGt
	OpLt
	OpAnd
	OpOr
	OpNot
)

// arithmeticNames is indexed by ArithmeticOpcode and holds the keyword
// exactly as it appears in VM source.
var arithmeticNames = [...]string{
	OpAdd: "add",
	OpSub: "sub",
	OpNeg: "neg",
	OpEq:  "eq",
	OpGt:  "gt",
	OpLt:  "lt",
	OpAnd: "and",
	OpOr:  "or",
	OpNot: "not",
}

// arithmeticByName maps VM source text to its opcode.
var arithmeticByName = map[string]ArithmeticOpcode{
	"add": OpAdd,
	"sub": OpSub,
	"neg": OpNeg,
	"eq":  OpEq,
	"gt":  OpGt,
	"lt":  OpLt,
	"and": OpAnd,
	"or":  OpOr,
	"not": OpNot,
}

func (op ArithmeticOpcode) String() string {
	if int(op) >= 0 && int(op) < len(arithmeticNames) {
		return arithmeticNames[op]
	}
	return fmt.Sprintf("ArithmeticOpcode(%d)", int(op))
}

// MemorySegment identifies the addressing mode of a push or pop command.
type MemorySegment int

const (
	SegArgument MemorySegment = iota
	SegLocal
	SegStatic
	SegConstant // push only: an immediate value, not an address
	SegThis
	SegThat
	SegPointer
	SegTemp
)

// segmentNames is indexed by MemorySegment and holds the keyword exactly
// as it appears in VM source.
var segmentNames = [...]string{
	SegArgument: "argument",
	SegLocal:    "local",
	SegStatic:   "static",
	SegConstant: "constant",
	SegThis:     "this",
	SegThat:     "that",
	SegPointer:  "pointer",
	SegTemp:     "temp",
}

// segmentByName maps VM source text to its segment.
var segmentByName = map[string]MemorySegment{
	"argument": SegArgument,
	"local":    SegLocal,
	"static":   SegStatic,
	"constant": SegConstant,
	"this":     SegThis,
	"that":     SegThat,
	"pointer":  SegPointer,
	"temp":     SegTemp,
}

func (seg MemorySegment) String() string {
	if int(seg) >= 0 && int(seg) < len(segmentNames) {
		return segmentNames[seg]
	}
	return fmt.Sprintf("MemorySegment(%d)", int(seg))
}

//  Instruction nodes

// Instruction is implemented by every IR node. One node corresponds to
// one VM command, except "function", which the parser splits into a
// Label followed by a FunctionSetup.
type Instruction interface {
	instruction()
	String() string
}

// Arithmetic applies one ArithmeticOpcode to the top of the stack.
type Arithmetic struct {
	Op ArithmeticOpcode
}

func (Arithmetic) instruction()     {}
func (a Arithmetic) String() string { return a.Op.String() }

// Push reads from a segment cell (or takes an immediate, for the
// constant segment) and pushes the value.
//
// For the static segment, Index is the program-global slot assigned at
// parse time, not the index written in the source file.
type Push struct {
	Segment MemorySegment
	Index   int
}

func (Push) instruction() {}
func (p Push) String() string {
	return fmt.Sprintf("push %s %d", p.Segment, p.Index)
}

// Pop pops the top of the stack into a segment cell. Segment is never
// SegConstant; the parser rejects that form.
type Pop struct {
	Segment MemorySegment
	Index   int
}

func (Pop) instruction() {}
func (p Pop) String() string {
	return fmt.Sprintf("pop %s %d", p.Segment, p.Index)
}

// Label declares a jump target. Function entry points are also Labels.
type Label struct {
	Name string
}

func (Label) instruction()     {}
func (l Label) String() string { return "label " + l.Name }

// FunctionSetup zero-initializes Locals local slots at this program
// point. The parser emits it immediately after a function's entry Label.
type FunctionSetup struct {
	Locals int
}

func (FunctionSetup) instruction() {}
func (f FunctionSetup) String() string {
	return fmt.Sprintf("init %d locals", f.Locals)
}

// Call transfers control to a function, passing the Args values most
// recently pushed onto the stack.
type Call struct {
	Function string
	Args     int
}

func (Call) instruction() {}
func (c Call) String() string {
	return fmt.Sprintf("call %s %d", c.Function, c.Args)
}

// Goto jumps unconditionally to a Label.
type Goto struct {
	Target string
}

func (Goto) instruction()     {}
func (g Goto) String() string { return "goto " + g.Target }

// IfGoto pops the top of the stack and jumps if the value is nonzero.
type IfGoto struct {
	Target string
}

func (IfGoto) instruction()     {}
func (g IfGoto) String() string { return "if-goto " + g.Target }

// Return transfers control back to the most recent caller, leaving one
// return value on the stack.
type Return struct{}

func (Return) instruction()   {}
func (Return) String() string { return "return" }

//  Program

// Program is the intermediate representation accumulated by parsing.
// Instruction order is significant: it is lowered verbatim as control
// flow. Several source files may be parsed into one Program; they form
// a single compilation unit.
type Program struct {
	Instructions []Instruction

	// StaticSize is one past the highest static slot used by any file
	// parsed into this program so far. It never decreases.
	StaticSize int
}

func NewProgram() *Program {
	return &Program{}
}

func (p *Program) append(in Instruction) {
	p.Instructions = append(p.Instructions, in)
}

// growStatic raises the static high-water mark to size if it is not
// already that high.
func (p *Program) growStatic(size int) {
	if size > p.StaticSize {
		p.StaticSize = size
	}
}
