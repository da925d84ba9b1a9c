package vm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Deferred is a jump whose label operand is patched after the full scan.
type Deferred struct {
	Ip    Word   // Address of the unresolved jump.
	Label string // Label the jump refers to.
}

// Context is the state of a single assembly pass.
type Context struct {
	Label    map[string]Word // Map of labels to program addresses.
	Deferred []Deferred      // Jumps waiting on a label, in source order.
	Equate   map[string]Word // Integer defines visible to $(...) expressions.
}

// NewContext creates an empty assembly context.
func NewContext() (ctx *Context) {
	ctx = &Context{
		Label:  make(map[string]Word, 16),
		Equate: make(map[string]Word),
	}

	return
}

// LineResult is the outcome of parsing one source line.
type LineResult struct {
	Label string      // Label defined on the line, if any.
	Words []string    // Instruction words, after comments and labels are removed.
	Code  Instruction // Parsed instruction.
}

var reParen = regexp.MustCompile(`\$\([^\$]*\)`)

// stripComment removes a '#' comment and everything after it.
func stripComment(line string) string {
	text, _, _ := strings.Cut(line, "#")
	return text
}

// ParseLine parses a single line of assembly into an instruction.
//
// ip is the address the instruction will occupy. A label defined on the line
// is bound to ip, and a jump to a label is recorded in ctx as deferred.
// A nil ctx parses against a fresh, discarded context.
func ParseLine(line string, ip Word, ctx *Context) (result LineResult, err error) {
	if ctx == nil {
		ctx = NewContext()
	}

	line = strings.TrimLeft(line, " \t\r\n")
	if len(line) == 0 {
		err = ErrEmptyLine
		return
	}

	line = stripComment(line)

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := ctx.parenEval(str[2 : len(str)-1])
		if _err != nil && err == nil {
			err = errors.Join(ErrInvalidOperand, _err)
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		err = ErrEmptyLine
		return
	}

	if strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if len(label) == 0 {
			err = ErrInvalidInstruction
			return
		}
		if _, ok := ctx.Label[label]; ok {
			err = ErrLabelDuplicate
			return
		}
		words = words[1:]
		if len(words) == 0 {
			err = ErrLabelLonely
			return
		}
		result.Label = label
	}

	result.Words = words

	op, ok := opcodeMap[words[0]]
	if !ok {
		err = ErrInvalidInstruction
		return
	}

	args := words[1:]
	if op.HasOperand() {
		if len(args) == 0 {
			err = ErrOperandNotFound
			return
		}
	}
	if (op.HasOperand() && len(args) > 1) || (!op.HasOperand() && len(args) > 0) {
		err = ErrInvalidOperand
		return
	}

	var deferred string

	switch op {
	case OP_PUSH, OP_DUP:
		var value Word
		value, err = valueOf(args[0])
		if err != nil {
			err = errors.Join(ErrInvalidOperand, err)
			return
		}
		result.Code = Instruction{Op: op, Operand: value}
	case OP_JUMP, OP_JUMPIF:
		addr, _err := valueOf(args[0])
		if _err != nil {
			deferred = args[0]
			result.Code = makeUnresolved(op)
		} else {
			result.Code = Instruction{Op: op, Operand: addr}
		}
	default:
		result.Code = MakeCode(op)
	}

	if len(result.Label) != 0 {
		ctx.Label[result.Label] = ip
	}

	if len(deferred) != 0 {
		ctx.Deferred = append(ctx.Deferred, Deferred{Ip: ip, Label: deferred})
	}

	return
}

// valueOf returns the value of a numeric word.
func valueOf(word string) (value Word, err error) {
	value, err = strconv.ParseInt(word, 10, 64)
	if err == nil {
		return
	}

	digits := strings.TrimLeft(word, "+-")
	if len(digits) > 2 && digits[0] == '0' && strings.ContainsRune("xXoObB", rune(digits[1])) {
		value, err = strconv.ParseInt(word, 0, 64)
		if err == nil {
			return
		}
	}

	err = ErrParseNumber(word)
	return
}

// parenEval does compile-time $(...) evaluations
func (ctx *Context) parenEval(expr string) (value Word, err error) {
	thread := starlark.Thread{Name: "basm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, val := range ctx.Equate {
		pred[key] = starlark.MakeInt64(val)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}
