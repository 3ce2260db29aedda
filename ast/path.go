package ast

import (
	"fmt"
	"strings"
)

// JSONPath renders a chain of subscripts rooted at the `data` name into an
// ASL-style JSON path, e.g. data["a"][0] -> "$['a'][0]". ok is false if e is
// not a subscript chain rooted at `data`.
func JSONPath(e Expr) (string, bool) {
	segments, ok := subscriptChain(e)
	if !ok {
		return "", false
	}
	if len(segments) == 0 {
		return "$", true
	}
	var b strings.Builder
	b.WriteString("$")
	for _, seg := range segments {
		b.WriteString(seg)
	}
	return b.String(), true
}

// IsDataRef reports whether e is `data` or a subscript chain rooted at it.
func IsDataRef(e Expr) bool {
	_, ok := subscriptChain(e)
	return ok
}

// subscriptChain walks Value.Index.Value... back to a root Name("data") and
// returns the ordered list of rendered index segments (outermost first).
func subscriptChain(e Expr) ([]string, bool) {
	var segments []string
	cur := e
	for {
		switch n := cur.(type) {
		case *Name:
			if n.Id != "data" {
				return nil, false
			}
			// Reverse into outermost-first order.
			for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
				segments[i], segments[j] = segments[j], segments[i]
			}
			return segments, true
		case *Subscript:
			seg, ok := indexSegment(n.Index)
			if !ok {
				return nil, false
			}
			segments = append(segments, seg)
			cur = n.Value
		default:
			return nil, false
		}
	}
}

func indexSegment(idx Expr) (string, bool) {
	switch v := idx.(type) {
	case *Str:
		return fmt.Sprintf("['%s']", v.Value), true
	case *Num:
		if v.IsFloat {
			return "", false
		}
		return fmt.Sprintf("[%s]", v.Raw), true
	default:
		return "", false
	}
}
