package git

import "context"

// parentFunc resolves the parent ids of a commit id.
type parentFunc func(id string) ([]string, error)

// ancestors returns the set of ids reachable from tip, tip included.
func ancestors(ctx context.Context, tip string, parents parentFunc) (map[string]bool, error) {
	seen := map[string]bool{}
	stack := []string{tip}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		ps, err := parents(id)
		if err != nil {
			return nil, err
		}
		stack = append(stack, ps...)
	}
	return seen, nil
}

// topoOrder returns the ids reachable from tip and not in exclude, every
// commit emitted after all of its parents. Parents are walked in order, so
// first-parent history comes before merged side branches.
func topoOrder(ctx context.Context, tip string, parents parentFunc, exclude map[string]bool) ([]string, error) {
	type frame struct {
		id      string
		parents []string
		next    int
	}

	var order []string
	if exclude[tip] {
		return order, nil
	}

	visited := map[string]bool{tip: true}
	ps, err := parents(tip)
	if err != nil {
		return nil, err
	}
	stack := []*frame{{id: tip, parents: ps}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		top := stack[len(stack)-1]
		if top.next == len(top.parents) {
			order = append(order, top.id)
			stack = stack[:len(stack)-1]
			continue
		}

		p := top.parents[top.next]
		top.next++
		if visited[p] || exclude[p] {
			continue
		}
		visited[p] = true

		pps, err := parents(p)
		if err != nil {
			return nil, err
		}
		stack = append(stack, &frame{id: p, parents: pps})
	}

	return order, nil
}

func reversed[T any](in []T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
