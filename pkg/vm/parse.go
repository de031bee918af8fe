package vm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// maxInteger is the largest value a numeric argument may take: the
// target machine loads immediates through a 15-bit address field.
const maxInteger = 32767

// commandNames lists the non-arithmetic command keywords, in the order
// they are enumerated in diagnostics.
var commandNames = []string{
	"push", "pop", "label", "goto", "if-goto", "function", "call", "return",
}

// parser holds all mutable state for a single pass over one source file.
// Successive files parsed into the same Program share its instruction
// list and static high-water mark.
type parser struct {
	src   []rune
	pos   int    // index of the next rune to consume
	line  int    // 1-based source line
	col   int    // 1-based source column, counted in characters
	label string // file label used in diagnostics

	// staticBase is the Program's static high-water mark at the moment
	// this session started. Every static index in this file is rebased
	// by it, so statics in different files never alias.
	staticBase int

	out *Program
}

// position is a saved line:column pair for error reporting.
type position struct {
	line, col int
}

// Parse scans one VM source text and appends its commands to prog.
// It stops at the first error; commands appended before the error
// remain in prog. label names the source in diagnostics, typically the
// originating file path.
func Parse(prog *Program, source, label string) error {
	p := &parser{
		src:        []rune(source),
		line:       1,
		col:        1,
		label:      label,
		staticBase: prog.StaticSize,
		out:        prog,
	}
	for {
		more, err := p.command()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

//  Scanning

func (p *parser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peek2() rune {
	if p.pos+1 >= len(p.src) {
		return 0
	}
	return p.src[p.pos+1]
}

// advance consumes one rune, tracking line and column.
func (p *parser) advance() {
	if p.pos >= len(p.src) {
		return
	}
	if p.src[p.pos] == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	p.pos++
}

// nextSymbol skips whitespace and // comments, then returns the next
// maximal run of non-whitespace characters along with the position of
// its first character. ok is false at end of input.
func (p *parser) nextSymbol() (pos position, sym string, ok bool) {
	inComment := false
skip:
	for p.pos < len(p.src) {
		ch := p.peek()
		switch {
		case inComment:
			if ch == '\n' {
				inComment = false
			}
			p.advance()
		case unicode.IsSpace(ch):
			p.advance()
		case ch == '/' && p.peek2() == '/':
			p.advance()
			p.advance()
			inComment = true
		default:
			// A lone '/' is not valid syntax, but treating it as part
			// of a symbol triggers the ordinary expected-token error,
			// which says what should have been there instead.
			break skip
		}
	}
	pos = position{p.line, p.col}
	start := p.pos
	for p.pos < len(p.src) && !unicode.IsSpace(p.peek()) {
		p.advance()
	}
	if p.pos == start {
		return pos, "", false
	}
	return pos, string(p.src[start:p.pos]), true
}

//  Diagnostics

// at formats a saved position as file:line:column.
func (p *parser) at(pos position) string {
	return fmt.Sprintf("%s:%d:%d", p.label, pos.line, pos.col)
}

// here is the parser's current position, used by end-of-file errors.
func (p *parser) here() position {
	return position{p.line, p.col}
}

func (p *parser) errExpectedOneOf(pos position, problem string, expected []string) error {
	return fmt.Errorf("%s, expected one of:\n%s.\nencountered at %s",
		problem, strings.Join(expected, ", "), p.at(pos))
}

func (p *parser) errUnknownSymbol(pos position, found string, expected []string) error {
	return p.errExpectedOneOf(pos, fmt.Sprintf("found unknown symbol %q", found), expected)
}

func (p *parser) errUnexpectedEOF(expected []string) error {
	return p.errExpectedOneOf(p.here(), "unexpected end of file", expected)
}

//  Commands

// command parses one complete command. more is false when the input is
// exhausted before a command starts; running out of input in the middle
// of a command is an error.
func (p *parser) command() (more bool, err error) {
	pos, sym, ok := p.nextSymbol()
	if !ok {
		return false, nil
	}
	if op, found := arithmeticByName[sym]; found {
		p.out.append(Arithmetic{Op: op})
		return true, nil
	}
	switch sym {
	case "push":
		err = p.pushPop(true)
	case "pop":
		err = p.pushPop(false)
	case "label":
		var name string
		if name, err = p.identifier(); err == nil {
			p.out.append(Label{Name: name})
		}
	case "goto":
		var name string
		if name, err = p.identifier(); err == nil {
			p.out.append(Goto{Target: name})
		}
	case "if-goto":
		var name string
		if name, err = p.identifier(); err == nil {
			p.out.append(IfGoto{Target: name})
		}
	case "function":
		// The entry point and the local-zeroing prologue are two
		// separate IR nodes, emitted back to back.
		var name string
		var locals int
		if name, err = p.identifier(); err != nil {
			break
		}
		if locals, err = p.integer(); err != nil {
			break
		}
		p.out.append(Label{Name: name})
		p.out.append(FunctionSetup{Locals: locals})
	case "call":
		var name string
		var args int
		if name, err = p.identifier(); err != nil {
			break
		}
		if args, err = p.integer(); err != nil {
			break
		}
		p.out.append(Call{Function: name, Args: args})
	case "return":
		p.out.append(Return{})
	default:
		expected := append(append([]string{}, commandNames...), arithmeticNames[:]...)
		return false, p.errUnknownSymbol(pos, sym, expected)
	}
	return err == nil, err
}

// pushPop parses the segment and index arguments shared by push and pop.
func (p *parser) pushPop(isPush bool) error {
	segPos, seg, err := p.segment()
	if err != nil {
		return err
	}
	index, err := p.integer()
	if err != nil {
		return err
	}
	if seg == SegStatic {
		// Rebase to a program-global slot so files parsed later never
		// reuse it.
		index += p.staticBase
		p.out.growStatic(index + 1)
	}
	if isPush {
		p.out.append(Push{Segment: seg, Index: index})
		return nil
	}
	if seg == SegConstant {
		return fmt.Errorf("it is illegal to pop into the constant segment.\nencountered at %s", p.at(segPos))
	}
	p.out.append(Pop{Segment: seg, Index: index})
	return nil
}

//  Arguments

func (p *parser) segment() (position, MemorySegment, error) {
	pos, sym, ok := p.nextSymbol()
	if !ok {
		return p.here(), 0, p.errUnexpectedEOF(segmentNames[:])
	}
	seg, found := segmentByName[sym]
	if !found {
		return pos, 0, p.errUnknownSymbol(pos, sym, segmentNames[:])
	}
	return pos, seg, nil
}

func (p *parser) integer() (int, error) {
	pos, sym, ok := p.nextSymbol()
	if !ok {
		return 0, fmt.Errorf("unexpected end of file, expected an integer.\nencountered at %s", p.at(p.here()))
	}
	value, err := strconv.Atoi(sym)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("expected a nonnegative integer, got %q instead.\nencountered at %s", sym, p.at(pos))
	}
	if value > maxInteger {
		return 0, fmt.Errorf("the integer %q is too big (expected %d or below).\nencountered at %s", sym, maxInteger, p.at(pos))
	}
	return value, nil
}

func (p *parser) identifier() (string, error) {
	pos, sym, ok := p.nextSymbol()
	if !ok {
		return "", fmt.Errorf("unexpected end of file, expected an identifier.\nencountered at %s", p.at(p.here()))
	}
	for i, ch := range sym {
		legal := ch == '_' || ch == '.' || ch == ':' ||
			(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9')
		if !legal || (i == 0 && ch >= '0' && ch <= '9') {
			return "", fmt.Errorf("encountered illegal character %q in identifier %q.\nencountered at %s", ch, sym, p.at(pos))
		}
	}
	return sym, nil
}
