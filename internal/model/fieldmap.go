package model

// FieldMap is an insertion-ordered map from field name to one or more typed
// scalars. Order matters: files are written with schema-managed fields in
// resolution order, so serialization must not depend on Go map iteration.
type FieldMap struct {
	names  []string
	values map[string][]Value
}

// NewFieldMap creates an empty field map.
func NewFieldMap() *FieldMap {
	return &FieldMap{values: make(map[string][]Value)}
}

// Set replaces the values for a field, appending the name on first set.
func (m *FieldMap) Set(name string, vals ...Value) {
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = vals
}

// Add appends values to a field, keeping any existing ones.
func (m *FieldMap) Add(name string, vals ...Value) {
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = append(m.values[name], vals...)
}

// Get returns all values for a field.
func (m *FieldMap) Get(name string) ([]Value, bool) {
	vals, ok := m.values[name]
	return vals, ok
}

// First returns the first value for a field.
func (m *FieldMap) First(name string) (Value, bool) {
	vals, ok := m.values[name]
	if !ok || len(vals) == 0 {
		return Value{}, false
	}
	return vals[0], true
}

// Has reports whether the field is present with at least one value.
func (m *FieldMap) Has(name string) bool {
	vals, ok := m.values[name]
	return ok && len(vals) > 0
}

// Delete removes a field entirely.
func (m *FieldMap) Delete(name string) {
	if _, ok := m.values[name]; !ok {
		return
	}
	delete(m.values, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i], m.names[i+1:]...)
			break
		}
	}
}

// Names returns field names in insertion order.
func (m *FieldMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the number of fields.
func (m *FieldMap) Len() int { return len(m.names) }

// Clone returns a deep copy.
func (m *FieldMap) Clone() *FieldMap {
	out := NewFieldMap()
	for _, name := range m.names {
		vals := m.values[name]
		copied := make([]Value, len(vals))
		copy(copied, vals)
		out.Set(name, copied...)
	}
	return out
}

// Raw returns a plain map rendering (single values unwrapped, multi values
// as slices) for JSON output.
func (m *FieldMap) Raw() map[string]any {
	out := make(map[string]any, len(m.names))
	for _, name := range m.names {
		vals := m.values[name]
		if len(vals) == 1 {
			out[name] = vals[0].Raw()
			continue
		}
		raw := make([]any, len(vals))
		for i, v := range vals {
			raw[i] = v.Raw()
		}
		out[name] = raw
	}
	return out
}
