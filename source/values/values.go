package values

import (
	"strconv"
	"strings"

	"src.elv.sh/pkg/persistent/vector"
)

type ValueType uint32

const (
	UNDEFINED_VALUE  ValueType = iota // The zero value should never be anything meaningful.
	SUCCESSFUL_VALUE                  // What an imperative operation returns when all it has to say is that it worked.
	ERROR
	NULL
	INT
	BOOL
	STRING
	FLOAT
	LIST
)

type Value struct {
	T ValueType
	V any
}

// The representation of a Dace list in the V field of a Value with T = LIST.
type List = vector.Vector

var (
	FALSE = Value{T: BOOL, V: false}
	TRUE  = Value{T: BOOL, V: true}
	OK    = Value{T: SUCCESSFUL_VALUE}
	NIL   = Value{T: NULL}
)

func MakeList(elements ...Value) Value {
	vec := vector.Empty
	for _, e := range elements {
		vec = vec.Conj(e)
	}
	return Value{T: LIST, V: vec}
}

// Describes a value the way the inspector shows it to the user.
func Describe(v Value) string {
	switch v.T {
	case SUCCESSFUL_VALUE:
		return "OK"
	case NULL:
		return "NULL"
	case INT:
		return strconv.Itoa(v.V.(int))
	case BOOL:
		if v.V.(bool) {
			return "true"
		}
		return "false"
	case STRING:
		return strconv.Quote(v.V.(string))
	case FLOAT:
		return strconv.FormatFloat(v.V.(float64), 'f', -1, 64)
	case LIST:
		elements := []string{}
		vec := v.V.(List)
		for it := vec.Iterator(); it.HasElem(); it.Next() {
			elements = append(elements, Describe(it.Elem().(Value)))
		}
		return "[" + strings.Join(elements, ", ") + "]"
	case ERROR:
		return "error"
	}
	return "?"
}
