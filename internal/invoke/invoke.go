// Package invoke calls registered Go functions with cty values.
//
// A Shape is analysed once from a function value and can then be checked
// against a declared signature (at build time) and called any number of
// times, concurrently, at run time. Conversion between cty and Go values is
// delegated to gocty; panics raised by the called function are recovered and
// returned as errors so a faulty member can never take down its caller.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	contextType  = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	ctyValueType = reflect.TypeOf(cty.Value{})
)

// PanicError wraps a value recovered from a panicking function.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Shape is the analysed signature of a Go function.
type Shape struct {
	fn          reflect.Value
	withContext bool
	withError   bool
	in          []reflect.Type
	out         []reflect.Type
}

// Analyze inspects fn. It accepts functions with an optional leading
// context.Context parameter and an optional trailing error result.
func Analyze(fn any) (*Shape, error) {
	if fn == nil {
		return nil, errors.New("no implementation registered")
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("implementation must be a function, got %s", t)
	}
	if v.IsNil() {
		return nil, errors.New("implementation is a nil function")
	}
	if t.IsVariadic() {
		return nil, fmt.Errorf("variadic implementation %s is not supported", t)
	}

	s := &Shape{fn: v}
	for i := 0; i < t.NumIn(); i++ {
		in := t.In(i)
		if i == 0 && in == contextType {
			s.withContext = true
			continue
		}
		s.in = append(s.in, in)
	}
	for i := 0; i < t.NumOut(); i++ {
		out := t.Out(i)
		if i == t.NumOut()-1 && out == errorType {
			s.withError = true
			continue
		}
		s.out = append(s.out, out)
	}
	return s, nil
}

// NumIn returns the number of value parameters, excluding the context.
func (s *Shape) NumIn() int { return len(s.in) }

// NumOut returns the number of value results, excluding the error.
func (s *Shape) NumOut() int { return len(s.out) }

// Check verifies that the function can carry the declared input and output
// types, position by position.
func (s *Shape) Check(in, out []valuetype.Type) error {
	if len(s.in) != len(in) {
		return fmt.Errorf("implementation takes %d value parameters, declaration has %d inputs", len(s.in), len(in))
	}
	if len(s.out) != len(out) {
		return fmt.Errorf("implementation returns %d values, declaration has %d outputs", len(s.out), len(out))
	}
	for i, t := range in {
		if !t.AcceptsGo(s.in[i]) {
			return fmt.Errorf("parameter %d: Go type %s cannot carry %s", i, s.in[i], goHint(t))
		}
	}
	for i, t := range out {
		if !t.AcceptsGo(s.out[i]) {
			return fmt.Errorf("result %d: Go type %s cannot carry %s", i, s.out[i], goHint(t))
		}
	}
	return nil
}

func goHint(t valuetype.Type) string {
	if t.IsVar() {
		return fmt.Sprintf("type parameter %s (use cty.Value)", t)
	}
	return t.String()
}

// Call invokes the function. args are converted to the Go parameter types;
// results are converted back using outTypes, which must be concrete.
func (s *Shape) Call(ctx context.Context, args []cty.Value, outTypes []valuetype.Type) (results []cty.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = &PanicError{Value: r}
		}
	}()

	if len(args) != len(s.in) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(s.in), len(args))
	}
	if len(outTypes) != len(s.out) {
		return nil, fmt.Errorf("expected %d result types, got %d", len(s.out), len(outTypes))
	}

	callArgs := make([]reflect.Value, 0, len(args)+1)
	if s.withContext {
		callArgs = append(callArgs, reflect.ValueOf(&ctx).Elem())
	}
	for i, a := range args {
		rv, err := toGo(a, s.in[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		callArgs = append(callArgs, rv)
	}

	rets := s.fn.Call(callArgs)

	if s.withError {
		if errVal := rets[len(rets)-1].Interface(); errVal != nil {
			return nil, errVal.(error)
		}
		rets = rets[:len(rets)-1]
	}

	results = make([]cty.Value, len(rets))
	for i, rv := range rets {
		v, err := fromGo(rv, outTypes[i])
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		results[i] = v
	}
	return results, nil
}

func toGo(v cty.Value, rt reflect.Type) (reflect.Value, error) {
	if rt == ctyValueType {
		return reflect.ValueOf(v), nil
	}
	ptr := reflect.New(rt)
	if err := gocty.FromCtyValue(v, ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

func fromGo(rv reflect.Value, t valuetype.Type) (cty.Value, error) {
	var v cty.Value
	if rv.Type() == ctyValueType {
		v = rv.Interface().(cty.Value)
	} else {
		converted, err := gocty.ToCtyValue(rv.Interface(), t.Cty())
		if err != nil {
			return cty.NilVal, err
		}
		v = converted
	}
	return t.Convert(v)
}
