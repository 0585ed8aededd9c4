package confloader

import "errors"

// mapProvider feeds an already-nested map to koanf. It exists because flag
// overrides arrive as Go values and must not round-trip through a parser.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("confloader: map provider has no byte form")
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
