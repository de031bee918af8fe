// Package vm parses stack-machine VM source into an intermediate
// representation and lowers it to Hack 16-bit assembly text.
//
// Pipeline: VM source → Parse → Program → Translate → assembly text
package vm
