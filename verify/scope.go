package verify

import "sort"

// Scope attribute names and values used by the scope propagation tests.
const (
	DefaultScopeName  = "test_scope"
	DefaultScopeValue = "test_value"

	scopePrefix = "scope."
)

// ScopeMap maps scope names to the value every span must carry as
// scope.<name>.
type ScopeMap map[string]string

// MultipleScopes returns the scope set used by multi scope tests.
func MultipleScopes() ScopeMap {
	return ScopeMap{
		"test_scope1": "test_value1",
		"test_scope2": "test_value2",
		"test_scope3": "test_value3",
	}
}

// ScopeKey returns the span attribute key for scope name.
func ScopeKey(name string) string {
	return scopePrefix + name
}

func (m ScopeMap) names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ScopeValues holds the dynamic scope values a traced call was made with.
// A nil field means the value was not supplied.
type ScopeValues struct {
	UserID    *string
	SessionID *string
}

// ExtractScopeValues reads user_id and session_id from named arguments,
// falling back to the first and second positional argument.
func ExtractScopeValues(args []string, kwargs map[string]string) ScopeValues {
	return ScopeValues{
		UserID:    pick(args, kwargs, "user_id", 0),
		SessionID: pick(args, kwargs, "session_id", 1),
	}
}

func pick(args []string, kwargs map[string]string, name string, pos int) *string {
	if v, ok := kwargs[name]; ok {
		return &v
	}

	if pos < len(args) {
		v := args[pos]
		return &v
	}

	return nil
}

// Map returns the supplied values keyed by scope name, leaving out the ones
// that were not supplied.
func (s ScopeValues) Map() ScopeMap {
	m := make(ScopeMap, 2)

	if s.UserID != nil {
		m["user_id"] = *s.UserID
	}

	if s.SessionID != nil {
		m["session_id"] = *s.SessionID
	}

	return m
}
