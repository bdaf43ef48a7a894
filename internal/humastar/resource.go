// resource.go — reusable action templates.
//
// An ActionDef holds a URL pattern with one %s verb; ActionsFor fills it in
// for a concrete value (a result token, a catalog label) so handlers declare
// their follow-up actions once.
package humastar

import (
	"fmt"
	"net/url"
	"strings"
)

// ActionDef is a reusable action template.
type ActionDef struct {
	Rel     string
	Pattern string // URL with an optional %s placeholder, query-escaped on fill
	Method  string
	Title   string
}

// ActionsFor generates concrete actions from defs for value.
func ActionsFor(value string, defs []ActionDef) []Action {
	actions := make([]Action, len(defs))
	for i, d := range defs {
		href := d.Pattern
		if strings.Contains(href, "%s") {
			href = fmt.Sprintf(href, url.QueryEscape(value))
		}
		actions[i] = Action{Rel: d.Rel, Href: href, Method: d.Method, Title: d.Title}
	}
	return actions
}
