package earthengine

import (
	"encoding/json"
	"strconv"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// expression is the Earth Engine REST Expression: a map of named value
// nodes and the name of the node that is the result.
type expression struct {
	Result string                `json:"result"`
	Values map[string]*valueNode `json:"values"`
}

// valueNode is one node of the expression graph. Exactly one field is set.
type valueNode struct {
	ConstantValue           *structpb.Value     `json:"-"`
	IntegerValue            string              `json:"integerValue,omitempty"`
	ArrayValue              *arrayValue         `json:"arrayValue,omitempty"`
	DictionaryValue         *dictionaryValue    `json:"dictionaryValue,omitempty"`
	FunctionInvocationValue *functionInvocation `json:"functionInvocationValue,omitempty"`
	FunctionDefinitionValue *functionDefinition `json:"functionDefinitionValue,omitempty"`
	ArgumentReference       string              `json:"argumentReference,omitempty"`
	ValueReference          string              `json:"valueReference,omitempty"`
}

type arrayValue struct {
	Values []*valueNode `json:"values"`
}

type dictionaryValue struct {
	Values map[string]*valueNode `json:"values"`
}

type functionInvocation struct {
	FunctionName string                `json:"functionName"`
	Arguments    map[string]*valueNode `json:"arguments,omitempty"`
}

type functionDefinition struct {
	ArgumentNames []string `json:"argumentNames"`
	Body          string   `json:"body"`
}

// MarshalJSON encodes constants as google.protobuf.Value JSON.
func (n *valueNode) MarshalJSON() ([]byte, error) {
	if n.ConstantValue != nil {
		raw, err := protojson.Marshal(n.ConstantValue)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			ConstantValue json.RawMessage `json:"constantValue"`
		}{raw})
	}
	type plain valueNode
	return json.Marshal((*plain)(n))
}

type args map[string]*valueNode

func invoke(name string, a args) *valueNode {
	return &valueNode{FunctionInvocationValue: &functionInvocation{FunctionName: name, Arguments: a}}
}

func stringConst(s string) *valueNode {
	return &valueNode{ConstantValue: structpb.NewStringValue(s)}
}

func numberConst(f float64) *valueNode {
	return &valueNode{ConstantValue: structpb.NewNumberValue(f)}
}

func boolConst(b bool) *valueNode {
	return &valueNode{ConstantValue: structpb.NewBoolValue(b)}
}

func intValue(i int) *valueNode {
	return &valueNode{IntegerValue: strconv.Itoa(i)}
}

func stringList(ss []string) *valueNode {
	vals := make([]*structpb.Value, len(ss))
	for i, s := range ss {
		vals[i] = structpb.NewStringValue(s)
	}
	return &valueNode{ConstantValue: structpb.NewListValue(&structpb.ListValue{Values: vals})}
}

func numberList(fs ...float64) *structpb.Value {
	vals := make([]*structpb.Value, len(fs))
	for i, f := range fs {
		vals[i] = structpb.NewNumberValue(f)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals})
}

func listOf(vs ...*structpb.Value) *structpb.Value {
	return structpb.NewListValue(&structpb.ListValue{Values: vs})
}

// graph accumulates named nodes. "0" is reserved for the result.
type graph struct {
	values map[string]*valueNode
	next   int
}

func newGraph() *graph {
	return &graph{values: make(map[string]*valueNode), next: 1}
}

// define stores n under a fresh name and returns the name.
func (g *graph) define(n *valueNode) string {
	id := strconv.Itoa(g.next)
	g.next++
	g.values[id] = n
	return id
}

func (g *graph) expression(result *valueNode) *expression {
	g.values["0"] = result
	return &expression{Result: "0", Values: g.values}
}
