package types

import (
	"regexp"
	"strings"
)

const (
	RdfType  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	OwlThing = "http://www.w3.org/2002/07/owl#Thing"
)

var (
	versionSegment = regexp.MustCompile(`[0-9]+\.[0-9]+\.[0-9]+/`)
	nonAlphaNum    = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// LocalName returns the part of uri after the last '#', or after the last '/'
// when there is no fragment separator.
func LocalName(uri string) string {
	if i := strings.LastIndexByte(uri, '#'); i > 0 {
		return uri[i+1:]
	}
	if i := strings.LastIndexByte(uri, '/'); i > 0 {
		return uri[i+1:]
	}
	return uri
}

// StripVersion removes the first embedded semantic version path segment,
// http://schema.org/1.2.3/Person becomes http://schema.org/Person.
func StripVersion(uri string) string {
	loc := versionSegment.FindStringIndex(uri)
	if loc == nil {
		return uri
	}
	return uri[:loc[0]] + uri[loc[1]:]
}

// EncodeFieldName maps a predicate uri to the index field name the backend uses.
func EncodeFieldName(uri string) string {
	return nonAlphaNum.ReplaceAllString(uri, "_")
}
