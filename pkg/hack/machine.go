package hack

import "strings"

// RAMSize is the number of addressable words.
const RAMSize = 32768

// Machine executes decoded instructions against a word-addressable RAM.
// A and D are the address and data registers; PC indexes prog.
type Machine struct {
	RAM  [RAMSize]int16
	A, D int16
	PC   int

	prog []Instr
}

func NewMachine(prog []Instr) *Machine {
	return &Machine{prog: prog}
}

// Run executes instructions until the program counter falls off the end
// of the program or maxSteps instructions have run, whichever comes
// first. It returns the number of steps taken; a program spinning on a
// terminal label exhausts maxSteps, which is fine for tests that only
// inspect RAM afterwards.
func (m *Machine) Run(maxSteps int) int {
	steps := 0
	for steps < maxSteps && m.PC >= 0 && m.PC < len(m.prog) {
		m.Step()
		steps++
	}
	return steps
}

// Step executes the instruction at PC.
func (m *Machine) Step() {
	in := m.prog[m.PC]
	if in.IsA {
		m.A = in.Addr
		m.PC++
		return
	}
	value := m.eval(in.Comp)
	// A memory write addresses the cell A selected before this
	// instruction, even when A itself is also a destination.
	if strings.ContainsRune(in.Dest, 'M') {
		m.RAM[m.addr()] = value
	}
	if strings.ContainsRune(in.Dest, 'A') {
		m.A = value
	}
	if strings.ContainsRune(in.Dest, 'D') {
		m.D = value
	}
	if in.Jump != "" && jumpTaken(in.Jump, value) {
		m.PC = int(uint16(m.A)) & (RAMSize - 1)
	} else {
		m.PC++
	}
}

// addr is the RAM cell currently selected by the A register.
func (m *Machine) addr() int {
	return int(uint16(m.A)) & (RAMSize - 1)
}

func (m *Machine) eval(comp string) int16 {
	a, d := m.A, m.D
	mem := m.RAM[m.addr()]
	switch comp {
	case "0":
		return 0
	case "1":
		return 1
	case "-1":
		return -1
	case "D":
		return d
	case "A":
		return a
	case "M":
		return mem
	case "!D":
		return ^d
	case "!A":
		return ^a
	case "!M":
		return ^mem
	case "-D":
		return -d
	case "-A":
		return -a
	case "-M":
		return -mem
	case "D+1":
		return d + 1
	case "A+1":
		return a + 1
	case "M+1":
		return mem + 1
	case "D-1":
		return d - 1
	case "A-1":
		return a - 1
	case "M-1":
		return mem - 1
	case "D+A":
		return d + a
	case "D+M":
		return d + mem
	case "D-A":
		return d - a
	case "D-M":
		return d - mem
	case "A-D":
		return a - d
	case "M-D":
		return mem - d
	case "D&A":
		return d & a
	case "D&M":
		return d & mem
	case "D|A":
		return d | a
	case "D|M":
		return d | mem
	}
	// Unreachable: Assemble validates every comp field.
	return 0
}

func jumpTaken(jump string, value int16) bool {
	switch jump {
	case "JGT":
		return value > 0
	case "JEQ":
		return value == 0
	case "JGE":
		return value >= 0
	case "JLT":
		return value < 0
	case "JNE":
		return value != 0
	case "JLE":
		return value <= 0
	case "JMP":
		return true
	}
	return false
}

// SP returns the stack pointer cell.
func (m *Machine) SP() int16 {
	return m.RAM[0]
}

// StackTop returns the value most recently pushed.
func (m *Machine) StackTop() int16 {
	return m.RAM[int(m.SP())-1]
}
