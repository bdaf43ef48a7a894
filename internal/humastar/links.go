// links.go — RFC 8288 Link headers derived from the registered routes.
//
// AutoLinks walks the OpenAPI paths once at startup and records, per
// operation path, the relations a client can follow next. LinkTransformer
// emits them at runtime together with pagination and action links carried
// by the response body.
package humastar

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// UITag marks Datastar SSE operations; they are not part of the link graph.
const UITag = "ui"

// EntryPath is the API entry point that links to every collection.
const EntryPath = "/health"

// LinkIndex holds generated Link header values keyed by operation path.
type LinkIndex map[string][]string

// AutoLinks fills idx with the link graph of api. Call after all routes are
// registered and before serving; idx is usually already installed through
// LinkTransformer in the API config.
func AutoLinks(api huma.API, idx LinkIndex) {
	oapi := api.OpenAPI()

	var collections, items []string
	for p, pi := range oapi.Paths {
		if slices.Contains(primaryTags(pi), UITag) {
			continue
		}
		if strings.Contains(p, "{") {
			items = append(items, p)
		} else {
			collections = append(collections, p)
		}
	}
	slices.Sort(collections)
	slices.Sort(items)

	for _, item := range items {
		parent := path.Dir(item)
		if _, ok := oapi.Paths[parent]; ok {
			idx.add(item, parent, "collection")
			idx.add(parent, item, "item")
		}
	}

	for _, coll := range collections {
		if coll == EntryPath {
			continue
		}
		idx.add(coll, EntryPath, "up")
		idx.add(EntryPath, coll, lastSegment(coll))
		if pi := oapi.Paths[coll]; pi.Post != nil {
			idx.add(coll, coll, "create-form")
		}
	}
	idx.add(EntryPath, "/openapi.json", "service-desc")
	idx.add(EntryPath, "/docs", "service-doc")

	for _, p := range append(collections, items...) {
		if ref := responseSchemaRef(oapi.Paths[p]); ref != "" {
			idx.add(p, "/openapi.json#/components/schemas/"+ref, "describedby")
		}
	}

	for p, pi := range oapi.Paths {
		if headers, ok := idx[p]; ok {
			for _, op := range operationsOf(pi) {
				if op != nil {
					injectResponseLinks(op, headers)
				}
			}
		}
	}
}

// Links returns the Link header values recorded for an operation path.
func (idx LinkIndex) Links(opPath string) []string {
	return idx[opPath]
}

// LinkTransformer returns a Huma Transformer that writes Link headers from
// the index, plus pagination and action links provided by the body.
func LinkTransformer(idx LinkIndex) huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range idx[op.Path] {
			ctx.AppendHeader("Link", link)
		}
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}
		if p, ok := v.(Pager); ok {
			for _, link := range p.PaginationLinks(ctx.URL().Path) {
				ctx.AppendHeader("Link", link)
			}
		}
		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}
		return v, nil
	}
}

func (idx LinkIndex) add(from, to, rel string) {
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	if !slices.Contains(idx[from], val) {
		idx[from] = append(idx[from], val)
	}
}

func primaryTags(pi *huma.PathItem) []string {
	for _, op := range operationsOf(pi) {
		if op != nil && len(op.Tags) > 0 {
			return op.Tags
		}
	}
	return nil
}

func operationsOf(pi *huma.PathItem) []*huma.Operation {
	return []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete}
}

func lastSegment(p string) string {
	parts := strings.Split(strings.TrimRight(p, "/"), "/")
	return parts[len(parts)-1]
}

// injectResponseLinks documents the relations as OpenAPI Link objects on the
// operation's success response.
func injectResponseLinks(op *huma.Operation, headers []string) {
	var resp *huma.Response
	for code, r := range op.Responses {
		if strings.HasPrefix(code, "2") {
			resp = r
			break
		}
	}
	if resp == nil {
		return
	}
	if resp.Links == nil {
		resp.Links = map[string]*huma.Link{}
	}
	for _, h := range headers {
		rel, href := parseLinkHeader(h)
		if rel == "" {
			continue
		}
		resp.Links[rel] = &huma.Link{
			OperationRef: href,
			Description:  "Related: " + rel,
		}
	}
}

func responseSchemaRef(pi *huma.PathItem) string {
	if pi == nil || pi.Get == nil {
		return ""
	}
	for code, resp := range pi.Get.Responses {
		if !strings.HasPrefix(code, "2") {
			continue
		}
		for _, mt := range resp.Content {
			if mt.Schema != nil && mt.Schema.Ref != "" {
				return lastSegment(mt.Schema.Ref)
			}
		}
	}
	return ""
}

// parseLinkHeader splits `<url>; rel="name"` into its rel and href.
func parseLinkHeader(h string) (rel, href string) {
	target, params, ok := strings.Cut(h, ";")
	if !ok {
		return "", ""
	}
	href = strings.Trim(strings.TrimSpace(target), "<>")
	params = strings.TrimSpace(params)
	if after, ok := strings.CutPrefix(params, `rel="`); ok {
		rel = strings.TrimSuffix(after, `"`)
	}
	return rel, href
}
