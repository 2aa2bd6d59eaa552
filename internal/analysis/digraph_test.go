package analysis

import (
	"reflect"
	"testing"
)

func buildGraph(edges [][2]string) *digraph {
	g := newDigraph()
	for _, e := range edges {
		g.addEdge(e[0], e[1])
	}
	return g
}

func TestEnumerateCycles(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		want  [][]string
	}{
		{
			"Acyclic chain",
			[][2]string{{"a", "b"}, {"b", "c"}},
			nil,
		},
		{
			"Two-node cycle",
			[][2]string{{"a", "b"}, {"b", "a"}},
			[][]string{{"a", "b"}},
		},
		{
			"Triangle",
			[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
			[][]string{{"a", "b", "c"}},
		},
		{
			"Two independent cycles",
			[][2]string{{"a", "b"}, {"b", "a"}, {"x", "y"}, {"y", "x"}},
			[][]string{{"a", "b"}, {"x", "y"}},
		},
		{
			"Self loop ignored",
			[][2]string{{"a", "a"}, {"a", "b"}, {"b", "a"}},
			[][]string{{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := enumerateCycles(buildGraph(tt.edges), 10, 100, 10000)
			if truncated {
				t.Fatal("unexpected truncation")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("enumerateCycles() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnumerateCycles_EachCycleFoundOnce(t *testing.T) {
	// one triangle reachable from three start nodes; must be reported once
	g := buildGraph([][2]string{{"m", "n"}, {"n", "o"}, {"o", "m"}})
	cycles, _ := enumerateCycles(g, 10, 100, 10000)
	if len(cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %d: %v", len(cycles), cycles)
	}
	if cycles[0][0] != "m" {
		t.Errorf("cycle should start at its smallest member, got %v", cycles[0])
	}
}

func TestEnumerateCycles_MaxLength(t *testing.T) {
	// 5-node ring is invisible with maxLen 4
	ring := [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "e"}, {"e", "a"}}
	cycles, _ := enumerateCycles(buildGraph(ring), 4, 100, 10000)
	if len(cycles) != 0 {
		t.Errorf("cycles longer than maxLen must be skipped, got %v", cycles)
	}
	cycles, _ = enumerateCycles(buildGraph(ring), 5, 100, 10000)
	if len(cycles) != 1 {
		t.Errorf("expected the 5-ring with maxLen 5, got %v", cycles)
	}
}

func TestEnumerateCycles_VisitBudget(t *testing.T) {
	var edges [][2]string
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, from := range names {
		for _, to := range names {
			if from != to {
				edges = append(edges, [2]string{from, to})
			}
		}
	}
	_, truncated := enumerateCycles(buildGraph(edges), 8, 1000000, 50)
	if !truncated {
		t.Error("dense graph with tiny budget must report truncation")
	}
}

func TestNormalizeCycle(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"Already normalized", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"Rotated", []string{"c", "a", "b"}, []string{"a", "b", "c"}},
		{"Other rotation", []string{"b", "c", "a"}, []string{"a", "b", "c"}},
		{"Empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeCycle(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeCycle(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCycleKeyRotationInvariant(t *testing.T) {
	if cycleKey([]string{"b", "c", "a"}) != cycleKey([]string{"a", "b", "c"}) {
		t.Error("rotations of one cycle must share a key")
	}
	if cycleKey([]string{"a", "b"}) == cycleKey([]string{"a", "c"}) {
		t.Error("different cycles must not collide")
	}
}

func TestClassSetKeyOrderInvariant(t *testing.T) {
	if classSetKey([]string{"B", "A"}) != classSetKey([]string{"A", "B"}) {
		t.Error("class set key must ignore order")
	}
}
