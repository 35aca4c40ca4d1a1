package vm

import (
	"fmt"
	"indentlang/ast"
	"math"
)

// asFloat64 coerces an int64, float64 or bool runtime value to float64. A
// bool coerces the way it does in the source language's grammar (True/False
// are valid operands of unary and binary arithmetic): true is 1, false is 0.
func asFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// asInt64 coerces an int64 or bool runtime value to int64, used by the
// operators that stay integral when both operands are integral (plain
// arithmetic, floored modulo, non-negative exponentiation).
func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// isTruthy implements the language's truthiness rules: 0, 0.0 and false are
// falsy, every other value is truthy.
func isTruthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}

// applyBinOp evaluates a binary arithmetic operator over two runtime
// values, applying the language's numeric promotion rules: arithmetic
// between two ints stays an int, mixing in a float promotes to float,
// division always yields a float, modulo is floored (its result always
// takes the sign of the divisor) rather than truncated, and exponentiation
// with a negative integer exponent also yields a float.
func applyBinOp(op ast.Operator, left, right any) (any, error) {
	switch op {
	case ast.Add:
		return arithmetic(left, right, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	case ast.Sub:
		return arithmetic(left, right, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	case ast.Mul:
		return arithmetic(left, right, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
	case ast.Div:
		return divide(left, right)
	case ast.Mod:
		return modulo(left, right)
	case ast.Pow:
		return power(left, right)
	default:
		return nil, RuntimeError{Message: fmt.Sprintf("unsupported binary operator %s", op)}
	}
}

// applyUnaryOp evaluates a unary operator (sign or boolean negation) over a
// single runtime value.
func applyUnaryOp(op ast.Operator, operand any) (any, error) {
	switch op {
	case ast.Pos:
		switch operand.(type) {
		case int64, float64:
			return operand, nil
		case bool:
			i, _ := asInt64(operand)
			return i, nil
		default:
			return nil, RuntimeError{Message: fmt.Sprintf("unary '+' requires a numeric operand, got %v", operand)}
		}
	case ast.Neg:
		switch operand.(type) {
		case int64:
			return -operand.(int64), nil
		case float64:
			return -operand.(float64), nil
		case bool:
			i, _ := asInt64(operand)
			return -i, nil
		default:
			return nil, RuntimeError{Message: fmt.Sprintf("unary '-' requires a numeric operand, got %v", operand)}
		}
	case ast.Invert:
		return !isTruthy(operand), nil
	default:
		return nil, RuntimeError{Message: fmt.Sprintf("unsupported unary operator %s", op)}
	}
}

func arithmetic(left, right any, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) (any, error) {
	if _, ok := left.(float64); !ok {
		if _, ok := right.(float64); !ok {
			if li, lok := asInt64(left); lok {
				if ri, rok := asInt64(right); rok {
					return intOp(li, ri), nil
				}
			}
		}
	}
	lf, lok := asFloat64(left)
	rf, rok := asFloat64(right)
	if !lok || !rok {
		return nil, RuntimeError{Message: fmt.Sprintf("unsupported operand types: %T and %T", left, right)}
	}
	return floatOp(lf, rf), nil
}

// divide always produces a float64, regardless of the operand types.
func divide(left, right any) (any, error) {
	lf, lok := asFloat64(left)
	rf, rok := asFloat64(right)
	if !lok || !rok {
		return nil, RuntimeError{Message: fmt.Sprintf("unsupported operand types: %T and %T", left, right)}
	}
	if rf == 0 {
		return nil, RuntimeError{Message: "division by zero"}
	}
	return lf / rf, nil
}

// modulo computes a floored modulo (its result takes the sign of the
// divisor), staying int64 when both operands are int64 and promoting to
// float64 otherwise.
func modulo(left, right any) (any, error) {
	if _, ok := left.(float64); !ok {
		if _, ok := right.(float64); !ok {
			if li, lok := asInt64(left); lok {
				if ri, rok := asInt64(right); rok {
					if ri == 0 {
						return nil, RuntimeError{Message: "modulo by zero"}
					}
					m := li % ri
					if m != 0 && (m < 0) != (ri < 0) {
						m += ri
					}
					return m, nil
				}
			}
		}
	}
	lf, lok := asFloat64(left)
	rf, rok := asFloat64(right)
	if !lok || !rok {
		return nil, RuntimeError{Message: fmt.Sprintf("unsupported operand types: %T and %T", left, right)}
	}
	if rf == 0 {
		return nil, RuntimeError{Message: "modulo by zero"}
	}
	m := math.Mod(lf, rf)
	if m != 0 && (m < 0) != (rf < 0) {
		m += rf
	}
	return m, nil
}

// power raises left to the right power. A negative integer exponent always
// yields a float64 result, since an int64 cannot represent a fraction.
func power(left, right any) (any, error) {
	if _, ok := left.(float64); !ok {
		if _, ok := right.(float64); !ok {
			if li, lok := asInt64(left); lok {
				if ri, rok := asInt64(right); rok {
					if ri < 0 {
						return math.Pow(float64(li), float64(ri)), nil
					}
					return intPow(li, ri), nil
				}
			}
		}
	}
	lf, lok := asFloat64(left)
	rf, rok := asFloat64(right)
	if !lok || !rok {
		return nil, RuntimeError{Message: fmt.Sprintf("unsupported operand types: %T and %T", left, right)}
	}
	return math.Pow(lf, rf), nil
}

func intPow(base, exponent int64) int64 {
	var result int64 = 1
	for i := int64(0); i < exponent; i++ {
		result *= base
	}
	return result
}
