package errorx

import (
	"fmt"
	"reflect"
	"strings"
)

type ArgumentNilError struct {
	Name string
}

func (e *ArgumentNilError) Error() string {
	return fmt.Sprintf("ArgumentNilError: %v", e.Name)
}

func NewArgumentNilError(name string) *ArgumentNilError {
	return &ArgumentNilError{name}
}

type CircularDependencyError struct {
	Message string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("CircularDependencyError: %v", e.Message)
}

type FuncSignatureError struct {
	Message string
}

func (e *FuncSignatureError) Error() string {
	return fmt.Sprintf("FuncSignatureError: %v", e.Message)
}

// ArityUndeducibleError reports that no argument count up to MaxArity can
// construct Target.
type ArityUndeducibleError struct {
	Target   reflect.Type
	MaxArity int
}

func (e *ArityUndeducibleError) Error() string {
	return fmt.Sprintf("ArityUndeducibleError: cannot deduce the arity of '%v' (max %d)", e.Target, e.MaxArity)
}

// UnsupportedShapeError names a (scope, shape) pair that has no resolution.
type UnsupportedShapeError struct {
	Scope     string
	Shape     string
	Requested reflect.Type
}

func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("UnsupportedShapeError: scope '%s' cannot resolve a %s request ('%v')", e.Scope, e.Shape, e.Requested)
}

type MalformedChainError struct {
	Requested reflect.Type
	Message   string
}

func (e *MalformedChainError) Error() string {
	return fmt.Sprintf("MalformedChainError: bind '%v': %s", e.Requested, e.Message)
}

// RecursiveTypeError reports a pointer type that points to itself.
type RecursiveTypeError struct {
	Type reflect.Type
}

func (e *RecursiveTypeError) Error() string {
	return fmt.Sprintf("RecursiveTypeError: the type '%v' points to itself", e.Type)
}

type TypeIncompatibilityError struct {
	To   reflect.Type
	From reflect.Type
}

func (e *TypeIncompatibilityError) Error() string {
	return fmt.Sprintf("the value of type '%v' can not assignable to type '%v'", e.From, e.To)
}

type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Add(err error) {
	e.Errors = append(e.Errors, err)
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	b.WriteString("AggregateError: \n")
	for _, e := range e.Errors {
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return b.String()
}
