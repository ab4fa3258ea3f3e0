package engine

import (
	"fmt"
	"math/rand"

	"github.com/hailam/chessplay-minimax/internal/board"
	"github.com/hailam/chessplay-minimax/internal/history"
)

// tree is a scripted game tree. Moves are named after the node they lead
// to and every node carries a static value.
type tree struct {
	children map[string][]string
	values   map[string]float64
	ids      map[string]float32
	names    map[float32]string
}

func newTree() *tree {
	return &tree{
		children: make(map[string][]string),
		values:   make(map[string]float64),
		ids:      make(map[string]float32),
		names:    make(map[float32]string),
	}
}

func (t *tree) node(name string, value float64, children ...string) *tree {
	if _, ok := t.ids[name]; !ok {
		id := float32(len(t.ids) + 1)
		t.ids[name] = id
		t.names[id] = name
	}
	t.values[name] = value
	t.children[name] = children
	for _, c := range children {
		if _, ok := t.ids[c]; !ok {
			t.node(c, 0)
		}
	}
	return t
}

// randomTree builds a tree of the given depth with up to width children
// per node. Some inner nodes get no children and become terminal.
func randomTree(seed int64, depth, width int) *tree {
	rng := rand.New(rand.NewSource(seed))
	t := newTree()
	var build func(name string, d int)
	build = func(name string, d int) {
		value := rng.Float64()*2 - 1
		if d == 0 {
			t.node(name, value)
			return
		}
		n := rng.Intn(width + 1)
		if name == "r" && n == 0 {
			n = 1
		}
		var kids []string
		for i := 0; i < n; i++ {
			kids = append(kids, fmt.Sprintf("%s.%d", name, i))
		}
		t.node(name, value, kids...)
		for _, k := range kids {
			build(k, d-1)
		}
	}
	build("r", depth)
	return t
}

// minimax is the unpruned reference value.
func (t *tree) minimax(name string, depth int, maximizing bool) float64 {
	kids := t.children[name]
	if depth <= 0 || len(kids) == 0 {
		return Clamp(t.values[name])
	}
	best := NegInfinity
	if !maximizing {
		best = Infinity
	}
	for _, k := range kids {
		v := t.minimax(k, depth-1, !maximizing)
		if maximizing && v > best || !maximizing && v < best {
			best = v
		}
	}
	return best
}

// evaluator scores the newest real frame by its node value.
func (t *tree) evaluator() Evaluator {
	return EvaluatorFunc(func(frames []*board.Planes, _ board.Color) (float64, error) {
		f := history.LastReal(frames)
		if f == nil {
			return 0, fmt.Errorf("no real frame")
		}
		name, ok := t.names[f[0][0][0]]
		if !ok {
			return 0, fmt.Errorf("unknown frame id %v", f[0][0][0])
		}
		return t.values[name], nil
	})
}

type treeOracle struct {
	t    *tree
	path []string
}

func (t *tree) oracle() *treeOracle {
	return &treeOracle{t: t, path: []string{"r"}}
}

func (o *treeOracle) current() string { return o.path[len(o.path)-1] }

func (o *treeOracle) LegalMoves() []string { return o.t.children[o.current()] }

func (o *treeOracle) Apply(m string) {
	for _, c := range o.t.children[o.current()] {
		if c == m {
			o.path = append(o.path, m)
			return
		}
	}
	panic("illegal move " + m)
}

func (o *treeOracle) Undo() {
	if len(o.path) == 1 {
		panic("undo without apply")
	}
	o.path = o.path[:len(o.path)-1]
}

func (o *treeOracle) IsTerminal() bool { return len(o.t.children[o.current()]) == 0 }

func (o *treeOracle) SideToMove() board.Color {
	if len(o.path)%2 == 1 {
		return board.White
	}
	return board.Black
}

func (o *treeOracle) PositionKey() string { return o.current() }

func (o *treeOracle) Encode() *board.Planes {
	var p board.Planes
	p[0][0][0] = o.t.ids[o.current()]
	return &p
}

func (o *treeOracle) Fork() board.Oracle[string] {
	return &treeOracle{t: o.t, path: append([]string(nil), o.path...)}
}
