// Package shapebind binds path-based projections of a store onto components and
// validates nested values against declarative shape descriptors.
//
// - A Descriptor is an ordered tree of tagged nodes: validator names
//   ("number", "array.required"), custom ValidatorFuncs, nested descriptors,
//   or opaque values.
// - Walk/WalkTree visit every node of a descriptor or a plain map tree with its
//   dotted path, nested containers after their children.
// - MapDescriptor builds a fresh tree by transforming every visited node and
//   writing results back at the same path.
// - Schema turns a descriptor into per-path validators and reports failures as
//   Issues (dotted path, code, message).
//
// Design policy:
// - Keep the descriptor, traversal, mapper and schema in the root package.
// - Put the model binder under model/, HTTP adapters under endpoint/ and
//   middleware/, loaders under source/, the file-watching
//   reloader under reload/ and the CLI under cmd/shapebind.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	d := shapebind.MustFromMap(map[string]any{
//		"items": "array.required",
//		"user":  map[string]any{"name": "string"},
//	})
//	s, err := shapebind.NewSchema("Cart", d)
//	if err := s.Validate(ctx, candidate); err != nil {
//		iss, _ := shapebind.AsIssues(err)
//		...
//	}
package shapebind
