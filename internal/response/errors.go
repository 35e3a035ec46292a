package response

import "github.com/thunderfed/gateway/internal/gqlerr"

// Error is an append-only entry in Tree.Errors. It records a precise
// path using the same object_id+key / list_id+index segments
// PropagateNull consumes, so a client-facing path stays accurate even
// after null propagation has since rewritten an ancestor to null
// (spec.md §4.5: "Errors track path precisely ... so client-facing
// paths are accurate even after null propagation rewrites a parent").
type Error struct {
	GraphQL *gqlerr.Error
	Path    []PathStep
}

// AddError appends an error and converts its PathStep trail into the
// gqlerr.PathSegment form expected by the client-facing payload.
func (t *Tree) AddError(err *gqlerr.Error, path []PathStep) {
	segments := make([]gqlerr.PathSegment, 0, len(path))
	for _, step := range path {
		if step.HasObject {
			segments = append(segments, gqlerr.PathSegment{Key: step.Key})
		} else if step.HasList {
			segments = append(segments, gqlerr.PathSegment{Index: step.Index, IsIndex: true})
		}
	}
	t.Errors = append(t.Errors, Error{GraphQL: err.WithPath(segments), Path: path})
}
