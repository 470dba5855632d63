package lang

import (
	"fmt"

	"github.com/sergev/sbasic/diagnostics"
)

// MainModule is the reserved name of the main program body. It cannot clash
// with a sub-module because '<' is not valid in identifiers.
const MainModule = "<Main>"

// OpCode enumerates engine instructions.
type OpCode uint8

const (
	OpPushNumber        OpCode = iota // push Number
	OpPushString                      // push Text
	OpLoadVariable                    // push variable Text
	OpStoreVariable                   // pop into variable Text
	OpLoadArrayElement                // pop Count indices, push element of array Text
	OpStoreArrayElement               // pop value and Count indices, store into array Text
	OpLoadProperty                    // push Library.Member
	OpStoreProperty                   // pop into Library.Member
	OpCallMethod                      // call Library.Member
	OpCallSub                         // push a frame for module Text
	OpBindEvent                       // bind Library.Member to sub-module Text
	OpNegate
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpEqual
	OpNotEqual
	OpLessThan
	OpGreaterThan
	OpLessOrEqual
	OpGreaterOrEqual
	OpJump        // continue at Target
	OpJumpIfFalse // pop; continue at Target unless true
	OpJumpIfTrue  // pop; continue at Target if true
	OpPop
)

var opNames = [...]string{
	OpPushNumber:        "PushNumber",
	OpPushString:        "PushString",
	OpLoadVariable:      "LoadVariable",
	OpStoreVariable:     "StoreVariable",
	OpLoadArrayElement:  "LoadArrayElement",
	OpStoreArrayElement: "StoreArrayElement",
	OpLoadProperty:      "LoadProperty",
	OpStoreProperty:     "StoreProperty",
	OpCallMethod:        "CallMethod",
	OpCallSub:           "CallSub",
	OpBindEvent:         "BindEvent",
	OpNegate:            "Negate",
	OpAdd:               "Add",
	OpSubtract:          "Subtract",
	OpMultiply:          "Multiply",
	OpDivide:            "Divide",
	OpEqual:             "Equal",
	OpNotEqual:          "NotEqual",
	OpLessThan:          "LessThan",
	OpGreaterThan:       "GreaterThan",
	OpLessOrEqual:       "LessOrEqual",
	OpGreaterOrEqual:    "GreaterOrEqual",
	OpJump:              "Jump",
	OpJumpIfFalse:       "JumpIfFalse",
	OpJumpIfTrue:        "JumpIfTrue",
	OpPop:               "Pop",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("OpCode(%d)", op)
}

// Instruction is a single engine step. Fields not used by an opcode are zero.
type Instruction struct {
	Op      OpCode
	Number  float64   `cbor:",omitempty"`
	Text    string    `cbor:",omitempty"`
	Library LibraryID `cbor:",omitempty"`
	Member  string    `cbor:",omitempty"`
	Count   int       `cbor:",omitempty"`
	Target  int       `cbor:",omitempty"`

	// Statement marks the first instruction of a source statement.
	Statement bool `cbor:",omitempty"`
	Range     diagnostics.Range
}

func (ins Instruction) String() string {
	switch ins.Op {
	case OpPushNumber:
		return fmt.Sprintf("%s %s", ins.Op, FormatNumber(ins.Number))
	case OpPushString:
		return fmt.Sprintf("%s %q", ins.Op, ins.Text)
	case OpLoadVariable, OpStoreVariable, OpCallSub:
		return fmt.Sprintf("%s %s", ins.Op, ins.Text)
	case OpLoadArrayElement, OpStoreArrayElement:
		return fmt.Sprintf("%s %s %d", ins.Op, ins.Text, ins.Count)
	case OpLoadProperty, OpStoreProperty, OpCallMethod:
		return fmt.Sprintf("%s %s.%s", ins.Op, ins.Library, ins.Member)
	case OpBindEvent:
		return fmt.Sprintf("%s %s.%s %s", ins.Op, ins.Library, ins.Member, ins.Text)
	case OpJump, OpJumpIfFalse, OpJumpIfTrue:
		return fmt.Sprintf("%s %d", ins.Op, ins.Target)
	default:
		return ins.Op.String()
	}
}

// Program is a lowered, ready-to-run compilation result: one instruction
// sequence per module.
type Program struct {
	Modules map[string][]Instruction
}

// Main returns the main module's instructions.
func (p *Program) Main() []Instruction {
	return p.Modules[MainModule]
}
