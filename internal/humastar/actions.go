package humastar

import (
	"fmt"
	"strings"
)

// Action is a state-dependent hypermedia action link, emitted as an
// RFC 8288 Link header with method and title extension parameters:
//
//	</crop/result?state=abc>; rel="result"; method="GET"; title="View recommendation"
type Action struct {
	Rel    string // IANA rel or custom (e.g. "result", "retry")
	Href   string
	Method string // empty means GET
	Title  string
}

// Actor is implemented by response bodies that provide state-dependent actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats the action as a Link header value.
func (a Action) LinkHeader() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<%s>; rel="%s"`, a.Href, a.Rel)
	method := a.Method
	if method == "" {
		method = "GET"
	}
	fmt.Fprintf(&b, `; method="%s"`, method)
	if a.Title != "" {
		fmt.Fprintf(&b, `; title="%s"`, a.Title)
	}
	return b.String()
}
