// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package assembler

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

var directives = map[string]DirectiveType{
	".ORIG":   DIRECTIVE_ORIG,
	".BYTE":   DIRECTIVE_BYTE,
	".WORD":   DIRECTIVE_WORD,
	".BLKB":   DIRECTIVE_BLKB,
	".STRING": DIRECTIVE_STRING,
	".END":    DIRECTIVE_END,
}

var instructions = map[string]InstructionType{
	"CLS":  INSTRUCTION_CLS,
	"RET":  INSTRUCTION_RET,
	"SYS":  INSTRUCTION_SYS,
	"JP":   INSTRUCTION_JP,
	"CALL": INSTRUCTION_CALL,
	"SE":   INSTRUCTION_SE,
	"SNE":  INSTRUCTION_SNE,
	"LD":   INSTRUCTION_LD,
	"ADD":  INSTRUCTION_ADD,
	"OR":   INSTRUCTION_OR,
	"AND":  INSTRUCTION_AND,
	"XOR":  INSTRUCTION_XOR,
	"SUB":  INSTRUCTION_SUB,
	"SHR":  INSTRUCTION_SHR,
	"SUBN": INSTRUCTION_SUBN,
	"SHL":  INSTRUCTION_SHL,
	"RND":  INSTRUCTION_RND,
	"DRW":  INSTRUCTION_DRW,
	"SKP":  INSTRUCTION_SKP,
	"SKNP": INSTRUCTION_SKNP,
}

var specials = map[string]OperandType{
	"I":   OPERAND_INDEX,
	"DT":  OPERAND_DELAY,
	"ST":  OPERAND_SOUND,
	"K":   OPERAND_KEY,
	"F":   OPERAND_FONT,
	"B":   OPERAND_BCD,
	"[I]": OPERAND_MEMORY,
}

func parseDirective(ident string) DirectiveType {
	return directives[strings.ToUpper(ident)]
}

func parseInstruction(ident string) InstructionType {
	return instructions[strings.ToUpper(ident)]
}

func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	result, err := encoding.DecodeLiteral(token.Value)

	if err != nil {
		return 0, &InvalidLiteralError{token.Position}
	}

	if bits < 16 {
		limit := uint16(1)<<bits - 1

		if result > limit {
			return 0, &OversizedLiteralError{token.Position, limit, result}
		}
	}

	return result, nil
}

func isHexDigits(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, c := range s {
		if !unicode.Is(unicode.ASCII_Hex_Digit, c) {
			return false
		}
	}

	return true
}

func parseRegister(token *Token) (uint16, bool, error) {
	ident := token.Value

	if len(ident) < 2 || (ident[0] != 'V' && ident[0] != 'v') {
		return 0, false, nil
	}

	if !isHexDigits(ident[1:]) {
		return 0, false, nil
	}

	if len(ident) != 2 {
		return 0, false, &InvalidRegisterError{token.Position}
	}

	reg, _ := strconv.ParseUint(ident[1:], 16, 4)

	return uint16(reg), true, nil
}

func parseOperand(token *Token) (Operand, error) {
	operand := Operand{Token: token}

	switch token.Type {
	case TOKEN_LITERAL:
		value, err := parseLiteral(token, LITERAL_WORD)

		if err != nil {
			return operand, err
		}

		operand.Type = OPERAND_LITERAL
		operand.Value = value

	case TOKEN_IDENT:
		if reg, ok, err := parseRegister(token); err != nil {
			return operand, err
		} else if ok {
			operand.Type = OPERAND_REGISTER
			operand.Value = reg
		} else if special, ok := specials[strings.ToUpper(token.Value)]; ok {
			operand.Type = special
		} else {
			operand.Type = OPERAND_LABEL
		}

	case TOKEN_STRING:
		operand.Type = OPERAND_STRING
	}

	return operand, nil
}

// Literal tokens are started by a leading x, so identifiers such as XOR or a
// label named xpos are handed back here once the whole token is known.
func retype(tokenType TokenType, value string) TokenType {
	if tokenType != TOKEN_LITERAL {
		return tokenType
	}

	if (value[0] == 'x' || value[0] == 'X') && !isHexDigits(value[1:]) {
		return TOKEN_IDENT
	}

	return tokenType
}

func tokenizeLine(line string, cursor Cursor) (tokens []Token, errs []error) {
	var builder strings.Builder
	var tokenStart int = 0
	var tokenType TokenType = TOKEN_NONE
	var trailing rune

	flush := func() {
		if builder.Len() > 0 {
			value := builder.String()

			tokens = append(tokens, Token{
				Type: retype(tokenType, value),
				Position: Cursor{
					Line:     cursor.Line,
					Column:   tokenStart,
					Byte:     cursor.LineByte + int64(tokenStart-1),
					Size:     int64(len(value)),
					LineByte: cursor.LineByte,
				},
				Value: value,
			})

			builder.Reset()
		}

		tokenType = TOKEN_NONE
	}

	for column, char := range line {
		cursor.Column = column + 1

		if tokenType == TOKEN_NONE {
			tokenStart = cursor.Column
		}

		if !unicode.IsSpace(char) {
			trailing = char
		}

		// Everything up to the closing quote belongs to the string
		if tokenType == TOKEN_STRING {
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			}

			builder.WriteRune(char)

			if char == '"' {
				flush()
			}

			continue
		}

		switch {
		// Whitespace
		case unicode.IsSpace(char):
			flush()

		// Comments
		case char == ';':
			flush()
			return

		// Operand Separator
		case char == ',':
			if tokenType == TOKEN_NONE && len(tokens) == 0 {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			flush()

		// Label Terminator (i.e. loop:)
		case char == ':':
			if builder.Len() == 0 ||
				retype(tokenType, builder.String()) != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			flush()

		// Assembler Directives
		case char == '.':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_DIRECTIVE
				builder.WriteRune(char)
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// String Literal
		case char == '"':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_STRING
				builder.WriteRune(char)
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Base 10 Literal (i.e. #42)
		case char == '#':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
				builder.WriteRune(char)
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Numeric Literal
		case unicode.IsDigit(char) && char <= unicode.MaxASCII:
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			}

			builder.WriteRune(char)

		// Indirect Index (i.e. [I])
		case char == '[':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
				builder.WriteRune(char)
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		case char == ']':
			if tokenType == TOKEN_IDENT {
				builder.WriteRune(char)
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Underscore'd Identifier
		case char == '_':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			} else if tokenType != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			builder.WriteRune(char)

		// Identifier, or Hex Literal (i.e. x2A, no leading zero)
		case unicode.IsLetter(char):
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
				continue
			}

			if tokenType == TOKEN_NONE {
				if char == 'x' || char == 'X' {
					tokenType = TOKEN_LITERAL
				} else {
					tokenType = TOKEN_IDENT
				}
			}

			builder.WriteRune(char)

		default:
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}
		}
	}

	if tokenType == TOKEN_STRING {
		cursor.Column = tokenStart
		errs = append(errs, &InvalidStringError{cursor})
		return
	}

	if trailing == ',' {
		errs = append(errs, &UnexpectedCharacterError{cursor, trailing})
	}

	flush()

	return
}

func wantOperands(keyword *Token, operands []Operand, counts ...int) error {
	for _, count := range counts {
		if len(operands) == count {
			return nil
		}
	}

	return &InvalidNumArgumentsError{keyword.Position, counts[0], len(operands)}
}

func wantType(operand *Operand, types ...OperandType) error {
	for _, t := range types {
		if operand.Type == t {
			return nil
		}
	}

	return &InvalidOperandError{operand.Token.Position, types, operand.Type}
}

func wantLiteral(operand *Operand, bits LiteralType) (uint16, error) {
	if err := wantType(operand, OPERAND_LITERAL); err != nil {
		return 0, err
	}

	if limit := uint16(1)<<bits - 1; operand.Value > limit {
		return 0, &OversizedLiteralError{
			operand.Token.Position, limit, operand.Value,
		}
	}

	return operand.Value, nil
}

// Returns the 12 bit address of a literal or label operand. Labels are
// resolved once the whole source has been read, so ref comes back set.
func wantAddress(operand *Operand) (addr uint16, ref *Token, err error) {
	if operand.Type == OPERAND_LABEL {
		return 0, operand.Token, nil
	}

	if err := wantType(operand, OPERAND_LITERAL, OPERAND_LABEL); err != nil {
		return 0, nil, err
	}

	addr, err = wantLiteral(operand, LITERAL_ADDRESS)

	return addr, nil, err
}

func encodeInstruction(
	instruction InstructionType,
	keyword *Token,
	operands []Operand,
) (scratch uint16, ref *Token, err error) {
	switch instruction {
	// CLS  |0000    |0000    |1110    |0000    | Clear display
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_CLS:
		err = wantOperands(keyword, operands, 0)
		scratch = machine.SYS_CLS

	// RET  |0000    |0000    |1110    |1110    | Return from subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_RET:
		err = wantOperands(keyword, operands, 0)
		scratch = machine.SYS_RET

	// SYS  |0000    |nnn                       | Machine call
	// JP   |0001    |nnn                       | Jump
	// CALL |0010    |nnn                       | Call subroutine
	// JP   |1011    |nnn                       | Jump to nnn + V0
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_SYS, INSTRUCTION_JP, INSTRUCTION_CALL:
		if err = wantOperands(keyword, operands, 1, 2); err != nil {
			return
		}

		target := &operands[0]

		switch instruction {
		case INSTRUCTION_SYS:
			scratch = machine.OP_SYS
		case INSTRUCTION_JP:
			scratch = machine.OP_JP
		case INSTRUCTION_CALL:
			scratch = machine.OP_CALL
		}

		if len(operands) == 2 {
			if instruction != INSTRUCTION_JP {
				err = &InvalidNumArgumentsError{keyword.Position, 1, 2}
				return
			}

			if err = wantType(target, OPERAND_REGISTER); err != nil {
				return
			}

			if target.Value != 0 {
				err = &InvalidRegisterError{target.Token.Position}
				return
			}

			scratch = machine.OP_JPV0
			target = &operands[1]
		}

		var addr uint16
		addr, ref, err = wantAddress(target)
		scratch |= addr

	// SE   |0011    |x       |nn               | Skip if Vx == nn
	// SNE  |0100    |x       |nn               | Skip if Vx != nn
	// SE   |0101    |x       |y       |0000    | Skip if Vx == Vy
	// SNE  |1001    |x       |y       |0000    | Skip if Vx != Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_SE, INSTRUCTION_SNE:
		if err = wantOperands(keyword, operands, 2); err != nil {
			return
		}

		if err = wantType(&operands[0], OPERAND_REGISTER); err != nil {
			return
		}

		if err = wantType(
			&operands[1], OPERAND_REGISTER, OPERAND_LITERAL,
		); err != nil {
			return
		}

		x := operands[0].Value << 8

		if operands[1].Type == OPERAND_REGISTER {
			if instruction == INSTRUCTION_SE {
				scratch = machine.OP_SER
			} else {
				scratch = machine.OP_SNER
			}

			scratch |= x | operands[1].Value<<4
			return
		}

		if instruction == INSTRUCTION_SE {
			scratch = machine.OP_SE
		} else {
			scratch = machine.OP_SNE
		}

		var nn uint16
		nn, err = wantLiteral(&operands[1], LITERAL_BYTE)
		scratch |= x | nn

	// LD   |0110    |x       |nn               | Vx = nn
	// LD   |1000    |x       |y       |0000    | Vx = Vy
	// LD   |1010    |nnn                       | I = nnn
	// LD   |1111    |x       |0000    |0111    | Vx = DT
	// LD   |1111    |x       |0000    |1010    | Wait for key, Vx = key
	// LD   |1111    |x       |0001    |0101    | DT = Vx
	// LD   |1111    |x       |0001    |1000    | ST = Vx
	// LD   |1111    |x       |0010    |1001    | I = glyph Vx
	// LD   |1111    |x       |0011    |0011    | BCD Vx at I
	// LD   |1111    |x       |0101    |0101    | Store V0..Vx at I
	// LD   |1111    |x       |0110    |0101    | Load V0..Vx from I
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_LD:
		if err = wantOperands(keyword, operands, 2); err != nil {
			return
		}

		dst, src := &operands[0], &operands[1]

		switch dst.Type {
		case OPERAND_REGISTER:
			x := dst.Value << 8

			switch src.Type {
			case OPERAND_REGISTER:
				scratch = machine.OP_ALU | x | src.Value<<4 | machine.ALU_LD
			case OPERAND_DELAY:
				scratch = machine.OP_MISC | x | machine.MISC_LD_DT
			case OPERAND_KEY:
				scratch = machine.OP_MISC | x | machine.MISC_LD_K
			case OPERAND_MEMORY:
				scratch = machine.OP_MISC | x | machine.MISC_LOAD
			default:
				if err = wantType(
					src,
					OPERAND_LITERAL,
					OPERAND_REGISTER,
					OPERAND_DELAY,
					OPERAND_KEY,
					OPERAND_MEMORY,
				); err != nil {
					return
				}

				var nn uint16
				nn, err = wantLiteral(src, LITERAL_BYTE)
				scratch = machine.OP_LD | x | nn
			}

		case OPERAND_INDEX:
			var addr uint16
			addr, ref, err = wantAddress(src)
			scratch = machine.OP_LDI | addr

		case OPERAND_DELAY, OPERAND_SOUND, OPERAND_FONT, OPERAND_BCD,
			OPERAND_MEMORY:
			if err = wantType(src, OPERAND_REGISTER); err != nil {
				return
			}

			scratch = machine.OP_MISC | src.Value<<8

			switch dst.Type {
			case OPERAND_DELAY:
				scratch |= machine.MISC_SET_DT
			case OPERAND_SOUND:
				scratch |= machine.MISC_SET_ST
			case OPERAND_FONT:
				scratch |= machine.MISC_LD_F
			case OPERAND_BCD:
				scratch |= machine.MISC_LD_B
			case OPERAND_MEMORY:
				scratch |= machine.MISC_STORE
			}

		default:
			err = wantType(
				dst,
				OPERAND_REGISTER,
				OPERAND_INDEX,
				OPERAND_DELAY,
				OPERAND_SOUND,
				OPERAND_FONT,
				OPERAND_BCD,
				OPERAND_MEMORY,
			)
		}

	// ADD  |0111    |x       |nn               | Vx += nn
	// ADD  |1000    |x       |y       |0100    | Vx += Vy
	// ADD  |1111    |x       |0001    |1110    | I += Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_ADD:
		if err = wantOperands(keyword, operands, 2); err != nil {
			return
		}

		dst, src := &operands[0], &operands[1]

		if err = wantType(dst, OPERAND_REGISTER, OPERAND_INDEX); err != nil {
			return
		}

		if dst.Type == OPERAND_INDEX {
			if err = wantType(src, OPERAND_REGISTER); err != nil {
				return
			}

			scratch = machine.OP_MISC | src.Value<<8 | machine.MISC_ADD_I
			return
		}

		if err = wantType(src, OPERAND_REGISTER, OPERAND_LITERAL); err != nil {
			return
		}

		if src.Type == OPERAND_REGISTER {
			scratch = machine.OP_ALU | dst.Value<<8 | src.Value<<4 | machine.ALU_ADD
			return
		}

		var nn uint16
		nn, err = wantLiteral(src, LITERAL_BYTE)
		scratch = machine.OP_ADD | dst.Value<<8 | nn

	// OR   |1000    |x       |y       |0001    | Vx |= Vy
	// AND  |1000    |x       |y       |0010    | Vx &= Vy
	// XOR  |1000    |x       |y       |0011    | Vx ^= Vy
	// SUB  |1000    |x       |y       |0101    | Vx -= Vy
	// SHR  |1000    |x       |y       |0110    | Vx >>= 1
	// SUBN |1000    |x       |y       |0111    | Vx = Vy - Vx
	// SHL  |1000    |x       |y       |1110    | Vx <<= 1
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_OR, INSTRUCTION_AND, INSTRUCTION_XOR, INSTRUCTION_SUB,
		INSTRUCTION_SUBN, INSTRUCTION_SHR, INSTRUCTION_SHL:
		shift := instruction == INSTRUCTION_SHR || instruction == INSTRUCTION_SHL

		if shift {
			err = wantOperands(keyword, operands, 1, 2)
		} else {
			err = wantOperands(keyword, operands, 2)
		}

		if err != nil {
			return
		}

		for i := range operands {
			if err = wantType(&operands[i], OPERAND_REGISTER); err != nil {
				return
			}
		}

		scratch = machine.OP_ALU | operands[0].Value<<8

		if len(operands) == 2 {
			scratch |= operands[1].Value << 4
		}

		switch instruction {
		case INSTRUCTION_OR:
			scratch |= machine.ALU_OR
		case INSTRUCTION_AND:
			scratch |= machine.ALU_AND
		case INSTRUCTION_XOR:
			scratch |= machine.ALU_XOR
		case INSTRUCTION_SUB:
			scratch |= machine.ALU_SUB
		case INSTRUCTION_SHR:
			scratch |= machine.ALU_SHR
		case INSTRUCTION_SUBN:
			scratch |= machine.ALU_SUBN
		case INSTRUCTION_SHL:
			scratch |= machine.ALU_SHL
		}

	// RND  |1100    |x       |nn               | Vx = random & nn
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_RND:
		if err = wantOperands(keyword, operands, 2); err != nil {
			return
		}

		if err = wantType(&operands[0], OPERAND_REGISTER); err != nil {
			return
		}

		var nn uint16
		nn, err = wantLiteral(&operands[1], LITERAL_BYTE)
		scratch = machine.OP_RND | operands[0].Value<<8 | nn

	// DRW  |1101    |x       |y       |n       | XOR n byte sprite at I
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_DRW:
		if err = wantOperands(keyword, operands, 3); err != nil {
			return
		}

		for i := 0; i < 2; i++ {
			if err = wantType(&operands[i], OPERAND_REGISTER); err != nil {
				return
			}
		}

		var n uint16
		n, err = wantLiteral(&operands[2], LITERAL_NIBBLE)
		scratch = machine.OP_DRW |
			operands[0].Value<<8 |
			operands[1].Value<<4 |
			n

	// SKP  |1110    |x       |1001    |1110    | Skip if key Vx held
	// SKNP |1110    |x       |1010    |0001    | Skip if key Vx not held
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_SKP, INSTRUCTION_SKNP:
		if err = wantOperands(keyword, operands, 1); err != nil {
			return
		}

		if err = wantType(&operands[0], OPERAND_REGISTER); err != nil {
			return
		}

		scratch = machine.OP_KEY | operands[0].Value<<8

		if instruction == INSTRUCTION_SKP {
			scratch |= machine.KEY_SKP
		} else {
			scratch |= machine.KEY_SKNP
		}
	}

	return
}

// AssembleChip8Source assembles input into a program image. The image starts
// at origin, which is the first .ORIG seen before any output (0x200 when
// there is none), and runs to the last byte written.
func AssembleChip8Source(input io.Reader, symtable *SymTable) (image []uint8, origin uint16, errs []error) {
	type LabelRef struct {
		Label    string
		Addr     uint16
		Word     bool
		Position Cursor
	}

	var labels = make(map[string]uint16)
	var labelRefs []LabelRef

	var memory [machine.MEMORY_SIZE]uint8
	var program uint32 = uint32(machine.MEMSPACE_PROGRAM)
	var end uint32 = program
	var emitted bool = false
	var overflow bool = false

	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 1, Column: 0, Size: 0, Byte: 0}

	origin = machine.MEMSPACE_PROGRAM
	errs = make([]error, 0)

	emit := func(values ...uint8) {
		for _, value := range values {
			if program >= machine.MEMORY_SIZE {
				overflow = true
				return
			}

			memory[program] = value
			program++
			emitted = true

			if program > end {
				end = program
			}
		}
	}

	nextLine := func(line string) {
		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte += int64(len(line) + 1)
	}

	// Process:
	// - Parse line
	// - Assemble line
	for scanner.Scan() {
		line := scanner.Text()
		cursor.Size = int64(len(line))

		tokens, lineErrs := tokenizeLine(line, cursor)

		if len(tokens) == 0 || len(lineErrs) > 0 {
			errs = append(errs, lineErrs...)
			nextLine(line)
			continue
		}

		// Assemble line
		// - Write instruction bytes to memory
		// - Save label refs for unknown labels
		// - Type check instruction arguments
		var label *Token = nil
		var directive DirectiveType
		var instruction InstructionType
		var keyword *Token = nil
		var rest []Token

		if instruction = parseInstruction(tokens[0].Value); instruction != INSTRUCTION_INVALID {
			keyword = &tokens[0]
			rest = tokens[1:]
		} else if directive = parseDirective(tokens[0].Value); directive != DIRECTIVE_INVALID {
			keyword = &tokens[0]
			rest = tokens[1:]
		} else if tokens[0].Type == TOKEN_IDENT {
			label = &tokens[0]
		}

		if label != nil {
			if _, exists := labels[label.Value]; !exists {
				labels[label.Value] = uint16(program)
			} else {
				errs = append(
					errs, &RedeclaredLabelError{label.Position, label.Value},
				)
			}

			// No need to assemble label-only statements
			if len(tokens) == 1 {
				nextLine(line)
				continue
			}

			if instruction = parseInstruction(tokens[1].Value); instruction != INSTRUCTION_INVALID {
				keyword = &tokens[1]
				rest = tokens[2:]
			} else if directive = parseDirective(tokens[1].Value); directive != DIRECTIVE_INVALID {
				keyword = &tokens[1]
				rest = tokens[2:]
			}
		}

		if keyword == nil {
			unknown := &tokens[0]

			if label != nil {
				unknown = &tokens[1]
			}

			errs = append(
				errs,
				&UnknownIdentifierError{unknown.Position, unknown.Value},
			)

			nextLine(line)
			continue
		}

		operands := make([]Operand, 0, len(rest))
		operandErr := false

		for i := range rest {
			operand, err := parseOperand(&rest[i])

			if err != nil {
				errs = append(errs, err)
				operandErr = true
			}

			operands = append(operands, operand)
		}

		if operandErr {
			nextLine(line)
			continue
		}

		if directive == DIRECTIVE_END {
			if count := len(operands); count != 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
				)
			}

			break
		}

		switch directive {
		// .ORIG addr
		case DIRECTIVE_ORIG:
			if err := wantOperands(keyword, operands, 1); err != nil {
				errs = append(errs, err)
				break
			}

			addr, err := wantLiteral(&operands[0], LITERAL_ADDRESS)

			if err != nil {
				errs = append(errs, err)
				break
			}

			if !emitted {
				origin = addr
			} else if addr < origin {
				errs = append(
					errs, &OriginError{operands[0].Token.Position, origin, addr},
				)
				break
			}

			program = uint32(addr)

		// .BYTE n, ...
		case DIRECTIVE_BYTE:
			if len(operands) == 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
				)
				break
			}

			for i := range operands {
				value, err := wantLiteral(&operands[i], LITERAL_BYTE)

				if err != nil {
					errs = append(errs, err)
				}

				emit(uint8(value))
			}

		// .WORD n|label, ...
		case DIRECTIVE_WORD:
			if len(operands) == 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
				)
				break
			}

			for i := range operands {
				operand := &operands[i]

				if operand.Type == OPERAND_LABEL {
					if addr, exists := labels[operand.Token.Value]; exists {
						emit(encoding.Bytes(addr))
					} else {
						labelRefs = append(labelRefs, LabelRef{
							operand.Token.Value,
							uint16(program),
							true,
							operand.Token.Position,
						})

						emit(0, 0)
					}

					continue
				}

				value, err := wantLiteral(operand, LITERAL_WORD)

				if err != nil {
					errs = append(errs, err)
				}

				emit(encoding.Bytes(value))
			}

		// .BLKB n
		case DIRECTIVE_BLKB:
			if err := wantOperands(keyword, operands, 1); err != nil {
				errs = append(errs, err)
				break
			}

			count, err := wantLiteral(&operands[0], LITERAL_WORD)

			if err != nil {
				errs = append(errs, err)
				break
			}

			for i := uint16(0); i < count && !overflow; i++ {
				emit(0)
			}

		// .STRING "..."
		case DIRECTIVE_STRING:
			if err := wantOperands(keyword, operands, 1); err != nil {
				errs = append(errs, err)
				break
			}

			if err := wantType(&operands[0], OPERAND_STRING); err != nil {
				errs = append(errs, err)
				break
			}

			s, err := strconv.Unquote(operands[0].Token.Value)

			if err != nil {
				errs = append(errs, &InvalidStringError{operands[0].Token.Position})
				break
			}

			for _, c := range []byte(s) {
				emit(c)
			}
		}

		if instruction != INSTRUCTION_INVALID {
			addr := uint16(program)
			scratch, ref, err := encodeInstruction(instruction, keyword, operands)

			if err != nil {
				errs = append(errs, err)
			}

			if ref != nil {
				if target, exists := labels[ref.Value]; exists {
					scratch |= target & 0x0FFF
				} else {
					labelRefs = append(
						labelRefs,
						LabelRef{ref.Value, addr, false, ref.Position},
					)
				}
			}

			if symtable != nil && program < machine.MEMORY_SIZE {
				symtable.Symbols[addr] = cursor.LineByte
			}

			emit(encoding.Bytes(scratch))
		}

		if overflow {
			errs = append(errs, &OversizedBinaryError{})
			return
		}

		nextLine(line)
	}

	// Label
	// - Validate and resolve label references
	// - Add labels to symbol table
	for _, ref := range labelRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		hi, lo := encoding.Bytes(addr)

		if ref.Word {
			memory[ref.Addr] = hi
		} else {
			memory[ref.Addr] |= hi & 0x0F
		}

		memory[ref.Addr+1] = lo
	}

	if symtable != nil {
		for label, addr := range labels {
			symtable.Labels[addr] = label
		}
	}

	if end > uint32(origin) {
		image = make([]uint8, end-uint32(origin))
		copy(image, memory[origin:end])
	} else {
		image = []uint8{}
	}

	return
}
