// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"io"
	"maps"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/basicml/word"
)

// asmLine is a single line of assembler source:
//
//	[label:]... [MNEMONIC [arg] | .directive arg...] [; comment]
type asmLine struct {
	Labels      []string        `( @Ident ":" )*`
	Directive   *asmDirective   `( @@`
	Instruction *asmInstruction `| @@ )?`
}

type asmDirective struct {
	Name string    `@Directive`
	Args []*asmArg `@@*`
}

type asmInstruction struct {
	Mnemonic string  `@Ident`
	Arg      *asmArg `@@?`
}

type asmArg struct {
	Word   *string `  @Word`
	Number *string `| @Number`
	Expr   *string `| @Expr`
	Name   *string `| @Ident`
}

var asmLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `;[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Expr", Pattern: `\$\((?:[^()\n]|\([^()\n]*\))*\)`},
	{Name: "Directive", Pattern: `\.[A-Za-z]+`},
	{Name: "Word", Pattern: `[+-][0-9]+`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `:`},
})

var asmParser = participle.MustBuild[asmLine](
	participle.Lexer(asmLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// asmPending is a word-emitting line waiting for label resolution.
type asmPending struct {
	lineNo  int
	text    string
	address int
	line    *asmLine
}

// Assembler is a two pass assembler for BasicML mnemonic source.
//
// The zero Assembler produces classic four digit words.
type Assembler struct {
	Verbose bool       // If set, verbosely logs the assembler actions.
	Codec   word.Codec // Word format of the program.
	Decoder Decoder    // Instruction format of the program.
	Size    int        // Memory size limit, or 0 for no limit.
	Noop    bool       // Accept the reserved NOOP mnemonic.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to addresses.
	Equate    map[string]int    // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate. Values
// that are not integers are ignored when assembling.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string, lineno int) (value int, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.predefine {
		v, perr := strconv.Atoi(str)
		if perr != nil {
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	for key, v := range asm.Equate {
		pred[key] = starlark.MakeInt(v)
	}
	for key, v := range asm.Label {
		pred[key] = starlark.MakeInt(v)
	}
	pred["LINENO"] = starlark.MakeInt(lineno)

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

// valueOf resolves an argument with the labels and equates known so far.
func (asm *Assembler) valueOf(arg *asmArg, lineno int) (value int, err error) {
	switch {
	case arg.Word != nil:
		value, err = strconv.Atoi(*arg.Word)
	case arg.Number != nil:
		value, err = strconv.Atoi(*arg.Number)
	case arg.Expr != nil:
		expr := *arg.Expr
		value, err = asm.parenEval(expr[2:len(expr)-1], lineno)
	case arg.Name != nil:
		name := *arg.Name
		if v, ok := asm.Equate[name]; ok {
			value = v
		} else if v, ok := asm.Label[name]; ok {
			value = v
		} else if v, perr := strconv.Atoi(asm.predefine[name]); perr == nil {
			value = v
		} else {
			err = ErrLabelMissing(name)
		}
	}

	return
}

// directive handles .equ and .org, and sizes .word, during the first
// pass. It returns the address of the next word.
func (asm *Assembler) directive(dir *asmDirective, lineno int, address int) (next int, err error) {
	next = address

	switch strings.ToLower(dir.Name) {
	case ".equ":
		if len(dir.Args) != 2 || dir.Args[0].Name == nil {
			err = ErrEquateSyntax
			return
		}
		name := *dir.Args[0].Name
		_, ok := asm.Equate[name]
		if ok {
			err = errors.Join(ErrEquateDuplicate, errors.New(name))
			return
		}
		var value int
		value, err = asm.valueOf(dir.Args[1], lineno)
		if err != nil {
			err = errors.Join(ErrEquateSyntax, err)
			return
		}
		asm.Equate[name] = value
	case ".org":
		if len(dir.Args) != 1 {
			err = ErrOrgSyntax
			return
		}
		var value int
		value, err = asm.valueOf(dir.Args[0], lineno)
		switch {
		case err != nil:
			err = errors.Join(ErrOrgSyntax, err)
		case value < address:
			err = ErrOrgOverlap
		case asm.Size > 0 && value >= asm.Size:
			err = errors.Join(word.ErrRange, ErrProgramSize)
		default:
			next = value
		}
	case ".word":
		if len(dir.Args) != 1 {
			err = ErrWordSyntax
			return
		}
		next = address + 1
	default:
		err = errors.Join(ErrDirective, errors.New(dir.Name))
	}

	return
}

// encode produces the word for an emitting line once all labels are known.
func (asm *Assembler) encode(pending asmPending) (text string, err error) {
	var value int

	if dir := pending.line.Directive; dir != nil {
		value, err = asm.valueOf(dir.Args[0], pending.lineNo)
		if err != nil {
			err = errors.Join(ErrWordSyntax, err)
			return
		}
		return asm.Codec.Format(value)
	}

	instr := pending.line.Instruction
	op, err := ParseOpcode(instr.Mnemonic)
	if err != nil && asm.Noop && strings.EqualFold(instr.Mnemonic, OP_NOOP.String()) {
		op, err = OP_NOOP, nil
	}
	if err != nil {
		return
	}

	var operand int
	if instr.Arg != nil {
		operand, err = asm.valueOf(instr.Arg, pending.lineNo)
		if err != nil {
			return
		}
	} else if op.HasOperand() {
		err = errors.Join(ErrOperandMissing, errors.New(op.String()))
		return
	}

	value, err = asm.Decoder.Encode(op, operand)
	if err != nil {
		return
	}

	return asm.Codec.Format(value)
}

// Parse assembles an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	if asm.Codec.Width == 0 {
		asm.Codec.Width = 4
	}
	if asm.Decoder.OperandWidth == 0 {
		asm.Decoder.OperandWidth = asm.Codec.Width / 2
	}

	asm.Label = make(map[string]int, 16)
	asm.Equate = make(map[string]int, 16)

	// Pass 1: parse, assign addresses, and collect labels and equates.
	var pending []asmPending
	address := 0
	for scanner.Scan() {
		line = scanner.Text()
		lineno += 1

		if asm.Verbose {
			logrus.WithField("line", lineno).Debug(line)
		}

		code, _, _ := strings.Cut(line, ";")
		if len(strings.TrimSpace(code)) == 0 {
			continue
		}

		var ast *asmLine
		ast, err = asmParser.ParseString("", line)
		if err != nil {
			return
		}

		for _, label := range ast.Labels {
			_, ok := asm.Label[label]
			if ok {
				err = errors.Join(ErrLabelDuplicate, errors.New(label))
				return
			}
			asm.Label[label] = address
		}

		next := address
		switch {
		case ast.Directive != nil:
			next, err = asm.directive(ast.Directive, lineno, address)
			if err != nil {
				return
			}
			if strings.ToLower(ast.Directive.Name) != ".word" {
				address = next
				continue
			}
		case ast.Instruction != nil:
			next = address + 1
		default:
			continue
		}

		if asm.Size > 0 && next > asm.Size {
			err = errors.Join(word.ErrRange, ErrProgramSize)
			return
		}

		pending = append(pending, asmPending{
			lineNo:  lineno,
			text:    line,
			address: address,
			line:    ast,
		})
		address = next
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Pass 2: resolve arguments and encode.
	prog = &Program{
		Words: make([]string, address),
	}
	for n := range prog.Words {
		prog.Words[n] = asm.Codec.Zero()
	}

	for _, item := range pending {
		line = item.text
		lineno = item.lineNo

		var text string
		text, err = asm.encode(item)
		if err != nil {
			prog = nil
			return
		}

		prog.Words[item.address] = text
		prog.Listing = append(prog.Listing, Line{
			LineNo:  item.lineNo,
			Address: item.address,
			Text:    item.text,
			Word:    text,
		})
	}

	if asm.Verbose {
		logrus.WithFields(logrus.Fields{
			"words":  len(prog.Words),
			"labels": len(asm.Label),
		}).Debug("asm: assembled")
	}

	return
}

// Equates returns a copy of the labels and equates of the last Parse.
func (asm *Assembler) Equates() (symbols map[string]int) {
	symbols = maps.Clone(asm.Equate)
	if symbols == nil {
		symbols = map[string]int{}
	}
	maps.Copy(symbols, asm.Label)
	return
}
