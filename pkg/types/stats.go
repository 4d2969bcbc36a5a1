package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
)

// FieldStat is one indexed field, the order of a FieldList is the predicate
// display order.
type FieldStat struct {
	ShortName string `json:"shortName"`
	LongURI   string `json:"longUri"`
}

type FieldList []FieldStat

// UnmarshalJSON reads the backend's {"short": "long"} object keeping key order.
func (f *FieldList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = FieldList{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields: expected object, got %v", tok)
	}
	ret := FieldList{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("fields: value of %q: %w", key, err)
		}
		ret = append(ret, FieldStat{ShortName: key, LongURI: value})
	}
	*f = ret
	return nil
}

func (f FieldList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := sonic.Marshal(field.ShortName)
		if err != nil {
			return nil, err
		}
		v, err := sonic.Marshal(field.LongURI)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// LongNames returns the canonical predicate order.
func (f FieldList) LongNames() []string {
	ret := make([]string, 0, len(f))
	for _, field := range f {
		ret = append(ret, field.LongURI)
	}
	return ret
}

// ShortNames returns the field names offered for completion, OR first.
func (f FieldList) ShortNames() []string {
	ret := make([]string, 0, len(f)+1)
	ret = append(ret, "OR")
	for _, field := range f {
		ret = append(ret, field.ShortName)
	}
	return ret
}

func (f FieldList) Lookup(shortName string) (string, bool) {
	idx := slices.IndexFunc(f, func(field FieldStat) bool {
		return field.ShortName == shortName
	})
	if idx < 0 {
		return "", false
	}
	return f[idx].LongURI, true
}

type ClassStat struct {
	LocalName      string   `json:"localName,omitempty"`
	Label          string   `json:"label,omitempty"`
	Count          int      `json:"count"`
	InheritedCount *int     `json:"inheritedCount,omitempty"`
	Children       []string `json:"children,omitempty"`
	Properties     []string `json:"properties,omitempty"`
}

// Inherited returns the instance count including subclasses, falling back
// to the class' own count.
func (c ClassStat) Inherited() int {
	if c.InheritedCount == nil {
		return c.Count
	}
	return *c.InheritedCount
}

type Statistics struct {
	NameSpace   string               `json:"nameSpace,omitempty"`
	Fields      FieldList            `json:"fields"`
	Classes     map[string]ClassStat `json:"classes"`
	RootClasses []string             `json:"rootClasses"`
	Properties  map[string]int       `json:"properties,omitempty"`
}

// Normalize applies the defaulting rules for absent sections so consumers
// never have to nil check.
func (s *Statistics) Normalize() {
	if s.Fields == nil {
		s.Fields = FieldList{}
	}
	if s.Classes == nil {
		s.Classes = map[string]ClassStat{}
	}
	if s.RootClasses == nil {
		s.RootClasses = []string{}
	}
	if s.Properties == nil {
		s.Properties = map[string]int{}
	}
	for uri, class := range s.Classes {
		if class.LocalName == "" {
			class.LocalName = LocalName(uri)
		}
		if class.InheritedCount == nil {
			class.InheritedCount = Ptr(class.Count)
		}
		s.Classes[uri] = class
	}
}

func (s *Statistics) HasClasses() bool {
	return len(s.Classes) > 0
}

// ClassCount returns the count of a class, unknown classes count as zero.
func (s *Statistics) ClassCount(uri string) int {
	if s == nil {
		return 0
	}
	if class, ok := s.Classes[uri]; ok {
		return class.Count
	}
	return 0
}

// StringList accepts both a single string and an array of strings on the wire.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*l = nil
		return nil
	case strings.HasPrefix(trimmed, "["):
		var arr []string
		if err := sonic.Unmarshal(data, &arr); err != nil {
			return err
		}
		*l = arr
		return nil
	default:
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	}
}

func (l StringList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}
