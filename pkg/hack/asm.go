// Package hack decodes and executes Hack 16-bit assembly so that tests
// can run translated programs against the real stack-machine semantics.
// It is test infrastructure: the translator itself only emits text.
package hack

import (
	"fmt"
	"strconv"
	"strings"
)

// Instr is one decoded machine instruction: either an A-instruction
// loading Addr into the address register, or a C-instruction with its
// dest, comp and jump fields.
type Instr struct {
	IsA  bool
	Addr int16
	Dest string // any of "A", "D", "M" combined; empty when absent
	Comp string
	Jump string // "JGT".."JMP"; empty when absent
}

// predefinedSymbols holds the machine's fixed symbol table.
var predefinedSymbols = map[string]int16{
	"SP":     0,
	"LCL":    1,
	"ARG":    2,
	"THIS":   3,
	"THAT":   4,
	"R0":     0,
	"R1":     1,
	"R2":     2,
	"R3":     3,
	"R4":     4,
	"R5":     5,
	"R6":     6,
	"R7":     7,
	"R8":     8,
	"R9":     9,
	"R10":    10,
	"R11":    11,
	"R12":    12,
	"R13":    13,
	"R14":    14,
	"R15":    15,
	"SCREEN": 16384,
	"KBD":    24576,
}

var validComps = map[string]bool{
	"0": true, "1": true, "-1": true,
	"D": true, "A": true, "M": true,
	"!D": true, "!A": true, "!M": true,
	"-D": true, "-A": true, "-M": true,
	"D+1": true, "A+1": true, "M+1": true,
	"D-1": true, "A-1": true, "M-1": true,
	"D+A": true, "D+M": true,
	"D-A": true, "D-M": true,
	"A-D": true, "M-D": true,
	"D&A": true, "D&M": true,
	"D|A": true, "D|M": true,
}

var validJumps = map[string]bool{
	"JGT": true, "JEQ": true, "JGE": true,
	"JLT": true, "JNE": true, "JLE": true,
	"JMP": true,
}

// clean strips a // comment and all whitespace from one source line.
func clean(raw string) string {
	if i := strings.Index(raw, "//"); i >= 0 {
		raw = raw[:i]
	}
	return strings.Join(strings.Fields(raw), "")
}

// Assemble decodes assembly text into executable instructions.
// Pass 1 collects (LABEL) addresses, pass 2 resolves symbols and
// decodes instruction fields. Unknown symbols are an error; translated
// programs reference only predefined cells, numeric addresses and
// their own labels.
func Assemble(src string) ([]Instr, error) {
	lines := strings.Split(src, "\n")

	labels := make(map[string]int16)
	addr := 0
	for i, raw := range lines {
		text := clean(raw)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "(") {
			if !strings.HasSuffix(text, ")") {
				return nil, fmt.Errorf("malformed label %q on line %d", text, i+1)
			}
			name := text[1 : len(text)-1]
			if _, exists := labels[name]; exists {
				return nil, fmt.Errorf("duplicate label %q on line %d", name, i+1)
			}
			labels[name] = int16(addr)
			continue
		}
		addr++
	}

	var prog []Instr
	for i, raw := range lines {
		text := clean(raw)
		if text == "" || strings.HasPrefix(text, "(") {
			continue
		}
		in, err := decode(text, labels)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		prog = append(prog, in)
	}
	return prog, nil
}

func decode(text string, labels map[string]int16) (Instr, error) {
	if strings.HasPrefix(text, "@") {
		sym := text[1:]
		if value, err := strconv.Atoi(sym); err == nil {
			if value < 0 || value > 32767 {
				return Instr{}, fmt.Errorf("address %d out of range", value)
			}
			return Instr{IsA: true, Addr: int16(value)}, nil
		}
		if value, ok := predefinedSymbols[sym]; ok {
			return Instr{IsA: true, Addr: value}, nil
		}
		if value, ok := labels[sym]; ok {
			return Instr{IsA: true, Addr: value}, nil
		}
		return Instr{}, fmt.Errorf("unknown symbol %q", sym)
	}

	var in Instr
	rest := text
	if eq := strings.IndexByte(rest, '='); eq >= 0 {
		in.Dest = rest[:eq]
		rest = rest[eq+1:]
	}
	if sc := strings.IndexByte(rest, ';'); sc >= 0 {
		in.Jump = rest[sc+1:]
		rest = rest[:sc]
	}
	in.Comp = rest

	for _, ch := range in.Dest {
		if ch != 'A' && ch != 'D' && ch != 'M' {
			return Instr{}, fmt.Errorf("bad dest %q in %q", in.Dest, text)
		}
	}
	if !validComps[in.Comp] {
		return Instr{}, fmt.Errorf("bad comp %q in %q", in.Comp, text)
	}
	if in.Jump != "" && !validJumps[in.Jump] {
		return Instr{}, fmt.Errorf("bad jump %q in %q", in.Jump, text)
	}
	return in, nil
}
