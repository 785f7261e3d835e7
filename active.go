package descriptor

import "strings"

// Active controls hook invocation. It is either uniform, applying one flag to
// both reads and writes, or per-operation with independent flags.
type Active struct {
	perOperation bool
	onGet        bool
	onSet        bool
}

// ActiveFlags is the per-operation shape accepted in an attribute bag.
type ActiveFlags struct {
	OnGet bool `json:"onGet"`
	OnSet bool `json:"onSet"`
}

// Uniform returns an Active applying v to both operations.
func Uniform(v bool) Active {
	return Active{onGet: v, onSet: v}
}

// PerOperation returns an Active with independent get and set flags.
func PerOperation(onGet, onSet bool) Active {
	return Active{perOperation: true, onGet: onGet, onSet: onSet}
}

// IsUniform reports whether a single flag covers both operations.
func (a Active) IsUniform() bool {
	return !a.perOperation
}

// ForGet resolves the flag that gates the getter hook.
func (a Active) ForGet() bool {
	return a.onGet
}

// ForSet resolves the flag that gates the setter hook.
func (a Active) ForSet() bool {
	return a.onSet
}

// Value returns the plain representation: a bool when uniform, ActiveFlags
// otherwise.
func (a Active) Value() any {
	if a.perOperation {
		return ActiveFlags{OnGet: a.onGet, OnSet: a.onSet}
	}
	return a.onGet
}

func (a Active) String() string {
	if a.perOperation {
		return "{onGet:" + boolString(a.onGet) + " onSet:" + boolString(a.onSet) + "}"
	}
	return boolString(a.onGet)
}

// parseActive accepts a bool, Active, *Active, ActiveFlags or a map carrying
// only onGet/onSet booleans. Map keys match case-insensitively and missing keys
// read as false.
func parseActive(v any) (Active, bool) {
	switch typed := v.(type) {
	case bool:
		return Uniform(typed), true
	case Active:
		return typed, true
	case *Active:
		if typed == nil {
			return Active{}, false
		}
		return *typed, true
	case ActiveFlags:
		return PerOperation(typed.OnGet, typed.OnSet), true
	case *ActiveFlags:
		if typed == nil {
			return Active{}, false
		}
		return PerOperation(typed.OnGet, typed.OnSet), true
	case map[string]bool:
		generic := make(map[string]any, len(typed))
		for key, value := range typed {
			generic[key] = value
		}
		return parseActiveMap(generic)
	case map[string]any:
		return parseActiveMap(typed)
	default:
		return Active{}, false
	}
}

func parseActiveMap(m map[string]any) (Active, bool) {
	var flags ActiveFlags
	for key, value := range m {
		flag, ok := value.(bool)
		if !ok {
			return Active{}, false
		}
		switch {
		case strings.EqualFold(key, "onGet"):
			flags.OnGet = flag
		case strings.EqualFold(key, "onSet"):
			flags.OnSet = flag
		default:
			return Active{}, false
		}
	}
	return PerOperation(flags.OnGet, flags.OnSet), true
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
