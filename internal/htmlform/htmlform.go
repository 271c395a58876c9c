// Package htmlform extracts hidden form fields from portal HTML pages.
package htmlform

import (
	"strings"

	"golang.org/x/net/html"
)

// HiddenFields scans raw HTML and returns a name→value map of every
// <input type="hidden"> element that carries a name attribute. When the
// same name appears more than once the last occurrence wins.
//
// Malformed markup never produces an error: the tokenizer consumes what it
// can and the result degrades to a partial or empty map. Callers must treat
// an empty map as a possible, but not certain, error signal.
func HiddenFields(page string) map[string]string {
	fields := make(map[string]string)
	z := html.NewTokenizer(strings.NewReader(page))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or broken markup; either way we keep what we have.
			return fields
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if !hasAttr || string(name) != "input" {
			continue
		}
		var typ, fieldName, value string
		for {
			key, val, more := z.TagAttr()
			switch string(key) {
			case "type":
				typ = string(val)
			case "name":
				fieldName = string(val)
			case "value":
				value = string(val)
			}
			if !more {
				break
			}
		}
		if typ == "hidden" && fieldName != "" {
			fields[fieldName] = value
		}
	}
}
