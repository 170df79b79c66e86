package types

import (
	"cmp"
	"strings"
)

// rank is the position of each kind in the cross-kind total order:
// Empty < Number < Text < Boolean < Date < Array. Errors sit after
// everything; they propagate before any comparison in practice.
func rank(k Kind) int {
	switch k {
	case KindEmpty:
		return 0
	case KindNumber:
		return 1
	case KindText:
		return 2
	case KindBoolean:
		return 3
	case KindDate:
		return 4
	case KindArray:
		return 5
	default:
		return 6
	}
}

// Equal reports typed equality: both values must share a kind.
// Number 1 is not equal to Text "1".
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindEmpty:
		return true
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.str == o.str
	case KindBoolean:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	case KindError:
		return v.err == o.err
	case KindArray:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders v against o, returning -1, 0 or +1.
//
// Values of the same kind compare naturally: numbers numerically, text
// byte-wise, false before true, dates by instant, arrays element-wise.
// Values of different kinds compare by kind rank, so a single order
// serves both MAX and MIN scans.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		return cmp.Compare(rank(v.kind), rank(o.kind))
	}
	switch v.kind {
	case KindNumber:
		return cmp.Compare(v.num, o.num)
	case KindText:
		return strings.Compare(v.str, o.str)
	case KindBoolean:
		switch {
		case v.b == o.b:
			return 0
		case !v.b:
			return -1
		default:
			return 1
		}
	case KindDate:
		return v.t.Compare(o.t)
	case KindError:
		return cmp.Compare(v.err, o.err)
	case KindArray:
		n := min(len(v.items), len(o.items))
		for i := 0; i < n; i++ {
			if c := v.items[i].Compare(o.items[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(v.items), len(o.items))
	}
	return 0
}

// Less reports whether v orders before o.
func (v Value) Less(o Value) bool { return v.Compare(o) < 0 }
