package spec

import (
	"fmt"
	"slices"

	"github.com/mitchellh/mapstructure"
)

// Args is a validated, type-coerced argument set.
type Args map[string]any

// String returns the named argument as a string.
func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

// Int returns the named argument as an int.
func (a Args) Int(name string) int {
	v, _ := a[name].(int)
	return v
}

// Float returns the named argument as a float64.
func (a Args) Float(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

// Bool returns the named argument as a bool.
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// Strings returns the named argument as a string slice.
func (a Args) Strings(name string) []string {
	v, _ := a[name].([]string)
	return v
}

// Bind decodes the argument set into a struct using mapstructure field
// names.
func (a Args) Bind(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(a))
}

// ValidationError reports a missing or invalid parameter. Validation
// failures terminate an invocation before it reaches Running and are
// reported through the normal emission path.
type ValidationError struct {
	Command string
	Param   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("command %q: parameter %q: %s", e.Command, e.Param, e.Reason)
}

// Validate checks raw argument values against the command's parameters
// and returns a coerced Args. Missing optional parameters take their
// defaults; missing required ones fail.
func Validate(cmd *Command, raw map[string]any) (Args, error) {
	out := make(Args, len(cmd.Params))

	for _, p := range cmd.Params {
		v, ok := raw[p.Name]
		if !ok || v == nil || v == "" {
			if p.Required {
				return nil, &ValidationError{Command: cmd.Name, Param: p.Name, Reason: "required parameter missing"}
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}

		coerced, err := coerceParam(p.Type, v)
		if err != nil {
			return nil, &ValidationError{Command: cmd.Name, Param: p.Name,
				Reason: fmt.Sprintf("invalid value %v: %v", v, err)}
		}

		if len(p.Choices) > 0 {
			s := fmt.Sprint(coerced)
			if !slices.Contains(p.Choices, s) {
				return nil, &ValidationError{Command: cmd.Name, Param: p.Name,
					Reason: fmt.Sprintf("value %q not one of %v", s, p.Choices)}
			}
		}
		out[p.Name] = coerced
	}

	// Unknown arguments are a caller bug, not user input error.
	for name := range raw {
		if _, ok := cmd.Param(name); !ok {
			return nil, &ValidationError{Command: cmd.Name, Param: name, Reason: "unknown parameter"}
		}
	}

	return out, nil
}

// coerceParam converts a raw value to the parameter's declared type.
// Weak typing mirrors what a form or query string delivers: everything
// arrives as a string.
func coerceParam(t ParamType, v any) (any, error) {
	decode := func(target any) error {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           target,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return err
		}
		return dec.Decode(v)
	}

	switch t {
	case TypeInt:
		var out int
		if err := decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	case TypeFloat:
		var out float64
		if err := decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	case TypeBool:
		var out bool
		if err := decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	case TypeStringList:
		var out []string
		if err := decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	case TypeString, "":
		var out string
		if err := decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown parameter type %q", t)
	}
}
