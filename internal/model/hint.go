package model

import "strings"

// TypeHintSeparator joins a custom field name to its kind marker in front
// matter keys, e.g. "confidence__float".
const TypeHintSeparator = "__"

// HintKey appends the kind marker to a custom field name. String is the
// implied default and still gets an explicit marker so round-trips are exact.
func HintKey(name string, kind Kind) string {
	return name + TypeHintSeparator + string(kind)
}

// SplitHintKey splits a front matter key into field name and kind. Keys
// without a recognized marker are plain names of kind string.
func SplitHintKey(key string) (name string, kind Kind, hinted bool) {
	i := strings.LastIndex(key, TypeHintSeparator)
	if i <= 0 {
		return key, KindString, false
	}
	suffix := key[i+len(TypeHintSeparator):]
	if !ValidKind(suffix) {
		return key, KindString, false
	}
	return key[:i], Kind(suffix), true
}
