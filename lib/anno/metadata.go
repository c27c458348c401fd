package anno

// Metadata is attached to every span. Count is nil until a single count has
// been resolved.
type Metadata struct {
	Attributes      []string `json:"attributes"`
	Count           *int     `json:"count,omitempty"`
	DebugAttributes []string `json:"debug_attributes,omitempty"`
}

// IntPtr is a convenience for building counts.
func IntPtr(i int) *int {
	return &i
}

// HasAttribute reports whether attr is among the attributes.
func (m Metadata) HasAttribute(attr string) bool {
	return HasAttribute(m.Attributes, attr)
}

func HasAttribute(attributes []string, attr string) bool {
	for _, a := range attributes {
		if a == attr {
			return true
		}
	}
	return false
}

// MergeMetadata unions list-valued fields in first-seen order without
// duplicates. Count is last-write-wins among inputs that carry one.
func MergeMetadata(ms ...Metadata) Metadata {
	res := Metadata{Attributes: []string{}}
	for _, m := range ms {
		res.Attributes = appendUnique(res.Attributes, m.Attributes...)
		if len(m.DebugAttributes) > 0 {
			res.DebugAttributes = appendUnique(res.DebugAttributes, m.DebugAttributes...)
		}
		if m.Count != nil {
			res.Count = IntPtr(*m.Count)
		}
	}
	return res
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		seen := false
		for _, d := range dst {
			if d == v {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, v)
		}
	}
	return dst
}
