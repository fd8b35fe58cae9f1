package git

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// genDAG builds a random DAG where node i only has parents with smaller indices.
func genDAG() *rapid.Generator[map[string][]string] {
	return rapid.Custom(func(t *rapid.T) map[string][]string {
		n := rapid.IntRange(1, 30).Draw(t, "n")
		dag := make(map[string][]string, n)
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("n%d", i)
			dag[id] = nil
			if i == 0 {
				continue
			}
			count := rapid.IntRange(1, 2).Draw(t, fmt.Sprintf("parents%d", i))
			seen := map[int]bool{}
			for j := 0; j < count; j++ {
				p := rapid.IntRange(0, i-1).Draw(t, fmt.Sprintf("parent%d_%d", i, j))
				if seen[p] {
					continue
				}
				seen[p] = true
				dag[id] = append(dag[id], fmt.Sprintf("n%d", p))
			}
		}
		return dag
	})
}

func dagParents(dag map[string][]string) parentFunc {
	return func(id string) ([]string, error) {
		ps, ok := dag[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, id)
		}
		return ps, nil
	}
}

func TestTopoOrder_ParentsFirst(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dag := genDAG().Draw(t, "dag")
		tip := fmt.Sprintf("n%d", len(dag)-1)
		parents := dagParents(dag)

		order, err := topoOrder(context.Background(), tip, parents, nil)
		if err != nil {
			t.Fatalf("topoOrder: %v", err)
		}
		reach, err := ancestors(context.Background(), tip, parents)
		if err != nil {
			t.Fatalf("ancestors: %v", err)
		}
		if len(order) != len(reach) {
			t.Fatalf("order has %d ids, want %d reachable", len(order), len(reach))
		}

		pos := make(map[string]int, len(order))
		for i, id := range order {
			if _, dup := pos[id]; dup {
				t.Fatalf("duplicate %s", id)
			}
			pos[id] = i
		}
		for id, i := range pos {
			for _, p := range dag[id] {
				if pos[p] >= i {
					t.Fatalf("parent %s of %s emitted after it", p, id)
				}
			}
		}
		if order[len(order)-1] != tip {
			t.Fatalf("tip %s not last", tip)
		}
	})
}

func TestTopoOrder_ExcludesAncestors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dag := genDAG().Draw(t, "dag")
		tip := fmt.Sprintf("n%d", len(dag)-1)
		base := fmt.Sprintf("n%d", rapid.IntRange(0, len(dag)-1).Draw(t, "base"))
		parents := dagParents(dag)

		exclude, err := ancestors(context.Background(), base, parents)
		if err != nil {
			t.Fatalf("ancestors: %v", err)
		}
		order, err := topoOrder(context.Background(), tip, parents, exclude)
		if err != nil {
			t.Fatalf("topoOrder: %v", err)
		}
		for _, id := range order {
			if exclude[id] {
				t.Fatalf("%s is reachable from %s but was emitted", id, base)
			}
		}
	})
}

func TestTopoOrder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dag := map[string][]string{"a": nil, "b": {"a"}}
	if _, err := topoOrder(ctx, "b", dagParents(dag), nil); err == nil {
		t.Fatal("expected context error")
	}
}
