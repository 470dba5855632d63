package image

import (
	"fmt"
	"sort"

	"github.com/sergev/sbasic/lang"
	"github.com/sergev/sbasic/runtime"
)

// verify checks that modules only reference libraries, members and subs
// that exist, that jumps stay inside their module and that no instruction
// pops more values than the evaluation stack holds.
func verify(modules map[string][]lang.Instruction) error {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := verifyModule(modules, modules[name]); err != nil {
			return fmt.Errorf("%w: module %s: %v", ErrCorrupt, name, err)
		}
	}
	return nil
}

func verifyModule(modules map[string][]lang.Instruction, code []lang.Instruction) error {
	for pc, ins := range code {
		if err := verifyInstruction(modules, code, ins); err != nil {
			return fmt.Errorf("instruction %d: %v", pc, err)
		}
	}
	return verifyStack(code)
}

func verifyInstruction(modules map[string][]lang.Instruction, code []lang.Instruction, ins lang.Instruction) error {
	if ins.Op > lang.OpPop {
		return fmt.Errorf("bad opcode %d", int(ins.Op))
	}
	switch ins.Op {
	case lang.OpLoadArrayElement, lang.OpStoreArrayElement:
		if ins.Count < 1 {
			return fmt.Errorf("bad index count %d", ins.Count)
		}
	case lang.OpCallSub:
		if _, ok := modules[ins.Text]; !ok || ins.Text == lang.MainModule {
			return fmt.Errorf("unknown sub %q", ins.Text)
		}
	case lang.OpJump, lang.OpJumpIfFalse, lang.OpJumpIfTrue:
		if ins.Target < 0 || ins.Target > len(code) {
			return fmt.Errorf("jump target %d out of range", ins.Target)
		}
	case lang.OpLoadProperty, lang.OpStoreProperty, lang.OpCallMethod, lang.OpBindEvent:
		return verifyMember(modules, ins)
	}
	return nil
}

func verifyMember(modules map[string][]lang.Instruction, ins lang.Instruction) error {
	if ins.Library < 0 || ins.Library >= lang.LibraryCount {
		return fmt.Errorf("bad library %d", int(ins.Library))
	}
	info := runtime.Info(ins.Library)
	ok := false
	switch ins.Op {
	case lang.OpCallMethod:
		_, ok = info.Methods[ins.Member]
	case lang.OpLoadProperty:
		ok = info.Properties[ins.Member].HasGetter
	case lang.OpStoreProperty:
		ok = info.Properties[ins.Member].HasSetter
	case lang.OpBindEvent:
		ok = info.Events[ins.Member]
		if _, found := modules[ins.Text]; !found || ins.Text == lang.MainModule {
			return fmt.Errorf("unknown event handler %q", ins.Text)
		}
	}
	if !ok {
		return fmt.Errorf("%s has no %s %s", info.Name, ins.Op, ins.Member)
	}
	return nil
}

// stackEffect returns how many values ins pops and pushes.
func stackEffect(ins lang.Instruction) (pops, pushes int) {
	switch ins.Op {
	case lang.OpPushNumber, lang.OpPushString, lang.OpLoadVariable, lang.OpLoadProperty:
		return 0, 1
	case lang.OpStoreVariable, lang.OpStoreProperty, lang.OpPop, lang.OpJumpIfFalse, lang.OpJumpIfTrue:
		return 1, 0
	case lang.OpLoadArrayElement:
		return ins.Count, 1
	case lang.OpStoreArrayElement:
		return ins.Count + 1, 0
	case lang.OpCallMethod:
		m := runtime.Info(ins.Library).Methods[ins.Member]
		if m.ReturnsValue {
			pushes = 1
		}
		return m.Arity, pushes
	case lang.OpNegate:
		return 1, 1
	case lang.OpAdd, lang.OpSubtract, lang.OpMultiply, lang.OpDivide,
		lang.OpEqual, lang.OpNotEqual, lang.OpLessThan, lang.OpGreaterThan,
		lang.OpLessOrEqual, lang.OpGreaterOrEqual:
		return 2, 1
	default:
		return 0, 0
	}
}

// verifyStack walks every path through code and requires each instruction
// to be reached with the same stack depth.
func verifyStack(code []lang.Instruction) error {
	depth := make([]int, len(code)+1)
	for i := range depth {
		depth[i] = -1
	}
	work := []int{0}
	depth[0] = 0
	visit := func(pc, d int) error {
		switch {
		case depth[pc] < 0:
			depth[pc] = d
			work = append(work, pc)
		case depth[pc] != d:
			return fmt.Errorf("instruction %d reached with stack depth %d and %d", pc, depth[pc], d)
		}
		return nil
	}
	for len(work) > 0 {
		pc := work[len(work)-1]
		work = work[:len(work)-1]
		if pc == len(code) {
			continue
		}
		ins := code[pc]
		if ins.Statement && depth[pc] != 0 {
			return fmt.Errorf("statement at instruction %d starts with stack depth %d", pc, depth[pc])
		}
		pops, pushes := stackEffect(ins)
		if depth[pc] < pops {
			return fmt.Errorf("instruction %d pops %d values from a stack of %d", pc, pops, depth[pc])
		}
		next := depth[pc] - pops + pushes
		if ins.Op == lang.OpJump || ins.Op == lang.OpJumpIfFalse || ins.Op == lang.OpJumpIfTrue {
			if err := visit(ins.Target, next); err != nil {
				return err
			}
			if ins.Op == lang.OpJump {
				continue
			}
		}
		if err := visit(pc+1, next); err != nil {
			return err
		}
	}
	return nil
}
