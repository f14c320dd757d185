package union

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type valueJSON struct {
	Kind     string `json:"kind"`
	Selector uint8  `json:"selector"`
	Variant  string `json:"variant"`
	Payload  any    `json:"payload"`
}

// MarshalJSON renders v as {"kind","selector","variant","payload"}. Byte
// payloads render as base64 strings. The zero Value renders as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsZero() {
		return []byte("null"), nil
	}
	out := valueJSON{Selector: v.selector, Payload: v.payload}
	if v.registry != nil {
		out.Kind = v.registry.name
	}
	if variant, ok := v.Variant(); ok {
		out.Variant = variant.name
	}
	return json.Marshal(out)
}
