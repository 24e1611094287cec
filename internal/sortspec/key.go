package sortspec

import (
	"cmp"
	"strings"
	"time"
)

type keyKind uint8

const (
	keyNone keyKind = iota
	keyString
	keyNumber
)

// Key is an orderable value extracted by a Step. The zero Key is "none" and
// sorts after every present value.
type Key struct {
	kind  keyKind
	str   string
	num   float64
	i     int64
	exact bool
}

// None returns the absent key
func None() Key { return Key{} }

// String returns a string key. Strings compare case-insensitively first and
// byte-wise second so the order is total.
func String(s string) Key { return Key{kind: keyString, str: s} }

// Number returns a numeric key. Integral values that fit an int64 compare
// exactly; everything else compares as float64.
func Number[N ~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64](n N) Key {
	k := Key{kind: keyNumber, num: float64(n)}
	if i := int64(n); N(i) == n && (i >= 0) == (n >= 0) {
		k.i, k.exact = i, true
	}
	return k
}

// Time returns a key ordering by instant. The zero time is treated as none.
func Time(t time.Time) Key {
	if t.IsZero() {
		return None()
	}
	ns := t.UnixNano()
	return Key{kind: keyNumber, num: float64(ns), i: ns, exact: true}
}

// IsNone reports whether the key is absent
func (k Key) IsNone() bool { return k.kind == keyNone }

// Compare orders two keys. Present keys sort before none; strings sort before
// numbers when a step mixes them.
func (k Key) Compare(o Key) int {
	if k.kind != o.kind {
		if k.kind == keyNone {
			return 1
		}
		if o.kind == keyNone {
			return -1
		}
		return cmp.Compare(k.kind, o.kind)
	}
	switch k.kind {
	case keyString:
		if c := strings.Compare(strings.ToLower(k.str), strings.ToLower(o.str)); c != 0 {
			return c
		}
		return strings.Compare(k.str, o.str)
	case keyNumber:
		if k.exact && o.exact {
			return cmp.Compare(k.i, o.i)
		}
		return cmp.Compare(k.num, o.num)
	default:
		return 0
	}
}
