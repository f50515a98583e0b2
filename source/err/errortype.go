package err

import (
	"fmt"
)

// The 'error' type of the runtime. An Error is a value: whether it terminates
// the execution that produced it is up to whoever receives it.
type Error struct {
	ErrorId string
	Message string
	Args    []any
}

type Errors []*Error

type ErrorCreator struct {
	Message     func(args ...any) string
	Explanation func(errors Errors, pos int, args ...any) string
}

// Makes an error from its identifier and arguments by looking it up in the
// ErrorCreatorMap. Misdirected identifiers get an error saying so, since
// having the runtime panic over its own bookkeeping would help no-one.
func CreateErr(ident string, args ...any) *Error {
	creator, ok := ErrorCreatorMap[ident]
	if !ok {
		return &Error{
			ErrorId: "err/misdirect",
			Message: ErrorCreatorMap["err/misdirect"].Message(ident),
			Args:    []any{ident},
		}
	}
	return &Error{ErrorId: ident, Message: creator.Message(args...), Args: args}
}

func (e *Error) Error() string {
	return e.ErrorId + ": " + e.Message
}

// Supplies the longer explanation of an error, for the inspector's 'why' command.
func Explain(es Errors, i int) (string, error) {
	if i >= len(es) {
		return "", fmt.Errorf("index %v too big for list of errors", i)
	}
	return ErrorCreatorMap[es[i].ErrorId].Explanation(es, i, es[i].Args...), nil
}

func emph(a any) string {
	return fmt.Sprintf("'%v'", a)
}
