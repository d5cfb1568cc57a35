package questionnaire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// ParseRule converts a textual visibility rule into an Expression. Rules use
// expr syntax over question labels:
//
//	ServiceType == "B" && (Region != nil || "EU" in Markets)
//
// `!= nil` means "has been answered", `contains` and `in` map to CONTAINS
// and INCLUDES, and `not`/`!` in front of a comparison negates it. Labels
// that are not valid identifiers can be written as $env["Service Type"].
func ParseRule(rule string) (*Expression, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, fmt.Errorf("questionnaire: empty visibility rule")
	}
	tree, err := parser.Parse(rule)
	if err != nil {
		return nil, fmt.Errorf("questionnaire: parse rule %q: %w", rule, err)
	}
	expr, err := convertRule(tree.Node)
	if err != nil {
		return nil, fmt.Errorf("questionnaire: rule %q: %w", rule, err)
	}
	return expr, nil
}

func convertRule(node ast.Node) (*Expression, error) {
	switch n := node.(type) {
	case *ast.BinaryNode:
		switch n.Operator {
		case "&&", "and":
			return logicalRule(OperatorAnd, n)
		case "||", "or":
			return logicalRule(OperatorOr, n)
		case "==":
			return comparisonRule(OperatorEquals, n.Left, n.Right)
		case "!=":
			return comparisonRule(OperatorNotEquals, n.Left, n.Right)
		case "contains":
			return comparisonRule(OperatorContains, n.Left, n.Right)
		case "in":
			// "x" in Field: the label sits on the right.
			return comparisonRule(OperatorIncludes, n.Right, n.Left)
		default:
			return nil, fmt.Errorf("unsupported operator %q", n.Operator)
		}
	case *ast.UnaryNode:
		if n.Operator != "not" && n.Operator != "!" {
			return nil, fmt.Errorf("unsupported unary operator %q", n.Operator)
		}
		inner, err := convertRule(n.Node)
		if err != nil {
			return nil, err
		}
		return negate(inner)
	default:
		return nil, fmt.Errorf("unsupported expression %T", node)
	}
}

func logicalRule(op Operator, n *ast.BinaryNode) (*Expression, error) {
	left, err := convertRule(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := convertRule(n.Right)
	if err != nil {
		return nil, err
	}
	return &Expression{Operator: op, Left: left, Right: right}, nil
}

func comparisonRule(op Operator, labelNode, valueNode ast.Node) (*Expression, error) {
	label, ok := ruleLabel(labelNode)
	if !ok {
		// Allow the literal on the left for == and !=.
		if op != OperatorEquals && op != OperatorNotEquals {
			return nil, fmt.Errorf("expected a question label, got %T", labelNode)
		}
		if label, ok = ruleLabel(valueNode); !ok {
			return nil, fmt.Errorf("comparison does not reference a question label")
		}
		valueNode = labelNode
	}

	value, isNil, err := ruleLiteral(valueNode)
	if err != nil {
		return nil, err
	}
	expr := &Expression{Operator: op, Label: label}
	if !isNil {
		expr.Value = &value
	} else if op != OperatorNotEquals {
		return nil, fmt.Errorf("nil is only supported with !=")
	}
	return expr, nil
}

// negate applies a leading not/! to a converted comparison.
func negate(expr *Expression) (*Expression, error) {
	switch expr.Operator {
	case OperatorContains, OperatorIncludes:
		expr.Operator = OperatorNotContains
	case OperatorEquals:
		expr.Operator = OperatorNotEquals
	case OperatorNotEquals:
		if expr.Value == nil {
			return nil, fmt.Errorf("negated answered check is not supported")
		}
		expr.Operator = OperatorEquals
	default:
		return nil, fmt.Errorf("cannot negate %s", expr.Operator)
	}
	return expr, nil
}

func ruleLabel(node ast.Node) (string, bool) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		if n.Value == "nil" {
			return "", false
		}
		return n.Value, true
	case *ast.MemberNode:
		env, ok := n.Node.(*ast.IdentifierNode)
		if !ok || env.Value != "$env" {
			return "", false
		}
		prop, ok := n.Property.(*ast.StringNode)
		if !ok {
			return "", false
		}
		return prop.Value, true
	default:
		return "", false
	}
}

func ruleLiteral(node ast.Node) (value string, isNil bool, err error) {
	switch n := node.(type) {
	case *ast.StringNode:
		return n.Value, false, nil
	case *ast.IntegerNode:
		return strconv.Itoa(n.Value), false, nil
	case *ast.FloatNode:
		return strconv.FormatFloat(n.Value, 'f', -1, 64), false, nil
	case *ast.BoolNode:
		return strconv.FormatBool(n.Value), false, nil
	case *ast.NilNode:
		return "", true, nil
	default:
		return "", false, fmt.Errorf("expected a literal value, got %T", node)
	}
}
