package locator

import "context"

// Querier runs compiled queries against a document. Implementations return
// matches in document order; no match is an empty slice, not an error.
type Querier[E any] interface {
	QueryAll(ctx context.Context, q Query) ([]E, error)
}

// Handle is the set of elements a locator resolved to.
type Handle[E any] struct {
	Locator  Locator
	Elements []E
}

// Count is the number of matched elements.
func (h Handle[E]) Count() int {
	return len(h.Elements)
}

// First returns the first match, if any.
func (h Handle[E]) First() (E, bool) {
	var zero E
	if len(h.Elements) == 0 {
		return zero, false
	}
	return h.Elements[0], true
}

// Resolve parses selector and runs it against q. Only an invalid query or
// a failing querier produce an error; an empty selector or no match yield
// an empty handle.
func Resolve[E any](ctx context.Context, q Querier[E], selector string) (Handle[E], error) {
	if selector == "" {
		return Handle[E]{}, nil
	}
	return ResolveLocator(ctx, q, Parse(selector))
}

// ResolveLocator runs an already parsed locator.
func ResolveLocator[E any](ctx context.Context, q Querier[E], l Locator) (Handle[E], error) {
	elems, err := resolve(ctx, q, l, true)
	return Handle[E]{Locator: l, Elements: elems}, err
}

func resolve[E any](ctx context.Context, q Querier[E], l Locator, narrow bool) ([]E, error) {
	if l.Kind == KindNth {
		all, err := resolve(ctx, q, *l.Inner, false)
		if err != nil || l.Index >= len(all) {
			return nil, err
		}
		return all[l.Index : l.Index+1], nil
	}

	all, err := q.QueryAll(ctx, l.Compile())
	if err != nil {
		return nil, err
	}
	if narrow && l.NarrowsToFirst() && len(all) > 1 {
		all = all[:1]
	}
	return all, nil
}
