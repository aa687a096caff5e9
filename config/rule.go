package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Rule checks a Value. A non-nil error is reported as a Violation of the key
// the rule is attached to.
type Rule interface {
	Check(Value) error
}

// RuleFunc adapts a plain function to a Rule.
type RuleFunc func(Value) error

func (f RuleFunc) Check(v Value) error { return f(v) }

// A single validator instance is shared because it caches parsed tags.
var validate = validator.New(validator.WithRequiredStructEnabled())

type namedRule struct {
	name string
	Rule
}

func (r namedRule) String() string { return r.name }

// Named attaches a display name to rule, used in Violation.Rule.
func Named(name string, rule Rule) Rule {
	return namedRule{name: name, Rule: rule}
}

// Required rejects an empty raw string.
func Required() Rule {
	return Named("required", RuleFunc(func(v Value) error {
		if v.String() == "" {
			return errors.New("must not be empty")
		}
		return nil
	}))
}

// IntRange requires the integer view to lie within [minimum, maximum].
func IntRange(minimum, maximum int) Rule {
	return Named(fmt.Sprintf("range(%d,%d)", minimum, maximum), RuleFunc(func(v Value) error {
		n, err := v.Int()
		if err != nil {
			return err
		}
		if n < minimum || n > maximum {
			return fmt.Errorf("%d is outside [%d, %d]", n, minimum, maximum)
		}
		return nil
	}))
}

// BoolLiteral accepts "true" or "false" in any case. Bool reads every other
// string as false, so this catches typos in switches.
func BoolLiteral() Rule {
	return Named("bool", RuleFunc(func(v Value) error {
		if v.Bool() || strings.EqualFold(v.String(), "false") {
			return nil
		}
		return fmt.Errorf("%q is neither true nor false", v.String())
	}))
}

// IsInt only requires the integer view to be readable.
func IsInt() Rule {
	return Named(TypeInt, RuleFunc(func(v Value) error {
		_, err := v.Int()
		return err
	}))
}

// IsStrings only requires the string list view to be readable.
func IsStrings() Rule {
	return Named(TypeStrings, RuleFunc(func(v Value) error {
		_, err := v.Strings()
		return err
	}))
}

// StringTag validates the raw string with a validator tag, e.g. "required,url".
func StringTag(tag string) Rule {
	return Named(tag, RuleFunc(func(v Value) error {
		return varError(validate.Var(v.String(), tag))
	}))
}

// IntTag validates the integer view with a validator tag, e.g. "gte=1,lte=65535".
func IntTag(tag string) Rule {
	return Named(tag, RuleFunc(func(v Value) error {
		n, err := v.Int()
		if err != nil {
			return err
		}
		return varError(validate.Var(n, tag))
	}))
}

// ListTag validates the string list view with a validator tag, e.g. "min=1,dive,required".
func ListTag(tag string) Rule {
	return Named(tag, RuleFunc(func(v Value) error {
		list, err := v.Strings()
		if err != nil {
			return err
		}
		return varError(validate.Var(list, tag))
	}))
}

func varError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Errorf("failed %q (%s) with value %v", fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("failed %q with value %v", fe.Tag(), fe.Value())
	}
	return err
}

func ruleName(r Rule) string {
	if s, ok := r.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}
