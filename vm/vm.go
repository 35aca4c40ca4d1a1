package vm

import (
	"fmt"
	"indentlang/ast"
	"indentlang/compiler"
)

// VM is a stack-based virtual machine: the runtime environment where
// compiled bytecode gets executed.
type VM struct {
	stack      Stack
	env        *Environment
	ip         int
	lastPopped any
}

// New creates a new VM instance with an empty environment.
func New() *VM {
	return &VM{env: NewEnvironment()}
}

// LastPopped returns the most recent value removed from the stack by a POP
// instruction. It is primarily useful for a REPL, which wants to show the
// value of the last bare expression statement without the program needing
// an explicit print statement.
func (vm *VM) LastPopped() any {
	return vm.lastPopped
}

// Environment exposes the VM's variable bindings, e.g. for a REPL to
// inspect or for a test to assert against.
func (vm *VM) Environment() *Environment {
	return vm.env
}

// Run executes the given bytecode from its first instruction.
//
// It fetches and decodes each instruction starting at the VM's current
// instruction pointer (ip), applies it, and advances the instruction
// pointer by one, or by a jump's relative delta for the jump opcodes. A
// jump's Arg is the number of instructions to skip beyond the instruction
// immediately following the jump itself.
//
// Execution terminates normally when the instruction pointer runs past the
// end of the bytecode.
//
// Returns:
//   - error: any error encountered during execution, including an unknown
//     opcode (a compiler bug, since the compiler only ever emits defined
//     opcodes).
func (vm *VM) Run(bytecode compiler.Bytecode) error {
	vm.ip = 0
	for vm.ip < len(bytecode) {
		instr := bytecode[vm.ip]

		switch instr.Op {
		case compiler.PUSH:
			vm.stack.Push(instr.Arg)
			vm.ip++

		case compiler.POP:
			value, ok := vm.stack.Pop()
			if !ok {
				return RuntimeError{Message: "POP on an empty stack"}
			}
			vm.lastPopped = value
			vm.ip++

		case compiler.COPY:
			value, ok := vm.stack.Peek()
			if !ok {
				return RuntimeError{Message: "COPY on an empty stack"}
			}
			vm.stack.Push(value)
			vm.ip++

		case compiler.LOAD:
			name := instr.Arg.(string)
			value, ok := vm.env.Get(name)
			if !ok {
				return RuntimeError{Message: fmt.Sprintf("undefined variable: %s", name)}
			}
			vm.stack.Push(value)
			vm.ip++

		case compiler.SAVE:
			name := instr.Arg.(string)
			value, ok := vm.stack.Pop()
			if !ok {
				return RuntimeError{Message: "SAVE on an empty stack"}
			}
			vm.env.Set(name, value)
			vm.ip++

		case compiler.BINOP:
			right, rok := vm.stack.Pop()
			left, lok := vm.stack.Pop()
			if !rok || !lok {
				return RuntimeError{Message: "BINOP requires two operands on the stack"}
			}
			result, err := applyBinOp(instr.Arg.(ast.Operator), left, right)
			if err != nil {
				return err
			}
			vm.stack.Push(result)
			vm.ip++

		case compiler.UNARYOP:
			operand, ok := vm.stack.Pop()
			if !ok {
				return RuntimeError{Message: "UNARYOP requires an operand on the stack"}
			}
			result, err := applyUnaryOp(instr.Arg.(ast.Operator), operand)
			if err != nil {
				return err
			}
			vm.stack.Push(result)
			vm.ip++

		case compiler.POP_JUMP_IF_FALSE:
			value, ok := vm.stack.Pop()
			if !ok {
				return RuntimeError{Message: "POP_JUMP_IF_FALSE on an empty stack"}
			}
			if !isTruthy(value) {
				vm.ip += 1 + instr.Arg.(int)
			} else {
				vm.ip++
			}

		case compiler.POP_JUMP_IF_TRUE:
			value, ok := vm.stack.Pop()
			if !ok {
				return RuntimeError{Message: "POP_JUMP_IF_TRUE on an empty stack"}
			}
			if isTruthy(value) {
				vm.ip += 1 + instr.Arg.(int)
			} else {
				vm.ip++
			}

		case compiler.JUMP_FORWARD:
			vm.ip += 1 + instr.Arg.(int)

		default:
			return RuntimeError{Message: fmt.Sprintf("unknown opcode %s at ip %d", instr.Op, vm.ip)}
		}
	}
	return nil
}
