// Package union implements selector-tagged unions: a value that is exactly one
// of a fixed, ordered set of variant types, encoded as one selector byte
// followed by the variant's own SSZ encoding.
//
// Selectors are assigned from declaration order starting at 0. A Registry is
// built once per union kind and is read-only afterwards, so it may be shared
// by any number of goroutines. Values are immutable.
//
//	reg := union.MustRegistry("Reading",
//		union.VariantOf[Celsius](ssz.Uint32Of[Celsius]{}),
//		union.VariantOf[Raw](ssz.BytesOf[Raw]{}),
//	)
//	v, _ := reg.Wrap(Celsius(21))
//	b, _ := reg.Encode(v) // 00 15 00 00 00
//
// Kind, Define and Of build the same registry with typed values and
// constructors for unions whose variants share a sealed interface.
package union
