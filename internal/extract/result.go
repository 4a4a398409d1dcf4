package extract

// Result is a structured verdict recovered from model output. It is either
// the decoded JSON object, or an error result carrying at least ErrorKey.
type Result map[string]any

// Keys used by error results.
const (
	ErrorKey       = "error"
	ParseErrorKey  = "parse_error"
	RawHeadKey     = "raw_head"
	CleanedHeadKey = "cleaned_head"
)

// Error labels.
const (
	LabelNotJSON    = "model output is not valid JSON"
	LabelNotObject  = "model output is not a JSON object"
	LabelCallFailed = "model call failed"
)

// IsError reports whether r is an error result. A nil result counts as one.
func (r Result) IsError() bool {
	if r == nil {
		return true
	}
	_, ok := r[ErrorKey]
	return ok
}

// ErrorMessage returns the error label, or "" for healthy results.
func (r Result) ErrorMessage() string {
	if r == nil {
		return "empty result"
	}
	v, ok := r[ErrorKey]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "unknown error"
}

// Lookup walks nested objects by key and reports whether the full path
// resolved. Any non-object intermediate value ends the walk.
func (r Result) Lookup(keys ...string) (any, bool) {
	var cur any = map[string]any(r)
	for _, k := range keys {
		m, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case Result:
		return map[string]any(m), m != nil
	}
	return nil, false
}

// CallFailure converts a failed model call into an error result.
func CallFailure(err error) Result {
	msg := LabelCallFailed
	if err != nil {
		msg = LabelCallFailed + ": " + err.Error()
	}
	return Result{ErrorKey: msg}
}
