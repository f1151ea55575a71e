package helix

// Wrapper payload types for the plain-value helpers. Deliberately
// unexported: their canonical names still fingerprint stably, and keeping
// them private stops callers from coupling to the wire shape.
type (
	stringSnapshot struct {
		Value string `codec:"value"`
	}
	stringsSnapshot struct {
		Values []string `codec:"values"`
	}
	bytesSnapshot struct {
		Data []byte `codec:"data"`
	}
)

// SaveString persists a single string at path.
func SaveString(path string, value string, opts ...Option) error {
	return Save(path, stringSnapshot{Value: value}, opts...)
}

// LoadString loads a string saved with SaveString.
func LoadString(path string, opts ...Option) (string, error) {
	s, err := LoadOrFail[stringSnapshot](path, opts...)
	if err != nil {
		return "", err
	}

	return s.Value, nil
}

// SaveStrings persists a string slice at path.
func SaveStrings(path string, values []string, opts ...Option) error {
	return Save(path, stringsSnapshot{Values: values}, opts...)
}

// LoadStrings loads a slice saved with SaveStrings.
func LoadStrings(path string, opts ...Option) ([]string, error) {
	s, err := LoadOrFail[stringsSnapshot](path, opts...)
	if err != nil {
		return nil, err
	}

	return s.Values, nil
}

// SaveBytes persists a raw byte blob at path.
func SaveBytes(path string, data []byte, opts ...Option) error {
	return Save(path, bytesSnapshot{Data: data}, opts...)
}

// LoadBytes loads a blob saved with SaveBytes.
func LoadBytes(path string, opts ...Option) ([]byte, error) {
	s, err := LoadOrFail[bytesSnapshot](path, opts...)
	if err != nil {
		return nil, err
	}

	return s.Data, nil
}
