package ndn

import (
	"sort"
	"strings"

	enc "github.com/named-data/repo-go/encoding"
)

// ExcludeInterval is one element of an Exclude filter: a listed
// component, optionally opening a range towards the next element
// (or infinity, for the last element).
type ExcludeInterval struct {
	Comp     enc.Component
	AnyAfter bool
}

// Exclude is a filter over the name component immediately following an
// Interest name. It holds listed components in ascending canonical
// order; an ANY marker before the first component or after a listed
// component excludes the whole open interval.
type Exclude struct {
	leadingAny bool
	items      []ExcludeInterval
}

func (e *Exclude) Empty() bool {
	return e == nil || (!e.leadingAny && len(e.items) == 0)
}

func (e *Exclude) Clone() *Exclude {
	if e == nil {
		return nil
	}
	items := make([]ExcludeInterval, len(e.items))
	copy(items, e.items)
	return &Exclude{leadingAny: e.leadingAny, items: items}
}

// IsExcluded reports whether the component is matched by the filter.
func (e *Exclude) IsExcluded(c enc.Component) bool {
	if e.Empty() {
		return false
	}
	// first item not less than c
	i := sort.Search(len(e.items), func(i int) bool {
		return e.items[i].Comp.Compare(c) >= 0
	})
	if i < len(e.items) && e.items[i].Comp.Compare(c) == 0 {
		return true
	}
	if i == 0 {
		return e.leadingAny
	}
	return e.items[i-1].AnyAfter
}

// ExcludeOne adds a single component to the filter.
func (e *Exclude) ExcludeOne(c enc.Component) {
	if e.IsExcluded(c) {
		return
	}
	i := sort.Search(len(e.items), func(i int) bool {
		return e.items[i].Comp.Compare(c) >= 0
	})
	e.items = append(e.items, ExcludeInterval{})
	copy(e.items[i+1:], e.items[i:])
	e.items[i] = ExcludeInterval{Comp: c}
}

// ExcludeBefore extends the filter with the interval (-inf, c],
// merging with any overlapping entries.
func (e *Exclude) ExcludeBefore(c enc.Component) {
	// first item strictly greater than c
	i := sort.Search(len(e.items), func(i int) bool {
		return e.items[i].Comp.Compare(c) > 0
	})
	head := ExcludeInterval{Comp: c}
	if i > 0 && e.items[i-1].AnyAfter {
		// the dropped range ran past c; keep it open
		head.AnyAfter = true
	}
	e.items = append([]ExcludeInterval{head}, e.items[i:]...)
	e.leadingAny = true
}

func (e *Exclude) String() string {
	if e.Empty() {
		return ""
	}
	sb := strings.Builder{}
	if e.leadingAny {
		sb.WriteString("*,")
	}
	for i, it := range e.items {
		if i > 0 {
			sb.WriteRune(',')
		}
		it.Comp.WriteTo(&sb)
		if it.AnyAfter {
			sb.WriteString(",*")
		}
	}
	return sb.String()
}

// encodeValue appends the value of the Exclude TLV block.
func (e *Exclude) encodeValue(buf []byte) []byte {
	if e.leadingAny {
		buf = enc.AppendBlock(buf, TypeAny, nil)
	}
	for _, it := range e.items {
		buf = append(buf, it.Comp.Bytes()...)
		if it.AnyAfter {
			buf = enc.AppendBlock(buf, TypeAny, nil)
		}
	}
	return buf
}

// parseExcludeValue parses the value of an Exclude TLV block.
func parseExcludeValue(buf enc.Buffer) (*Exclude, error) {
	ret := &Exclude{}
	off := 0
	for off < len(buf) {
		typ, l, pos, err := enc.ParseTL(buf[off:])
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeAny:
			if len(ret.items) == 0 {
				ret.leadingAny = true
			} else {
				ret.items[len(ret.items)-1].AnyAfter = true
			}
		default:
			c, _, err := enc.ParseComponent(buf[off:])
			if err != nil {
				return nil, err
			}
			ret.items = append(ret.items, ExcludeInterval{Comp: c})
		}
		off += pos + l
	}
	if ret.Empty() {
		return nil, enc.ErrFormat{Msg: "empty Exclude"}
	}
	sort.SliceStable(ret.items, func(i, j int) bool {
		return ret.items[i].Comp.Compare(ret.items[j].Comp) < 0
	})
	return ret, nil
}
