package nav

import "container/heap"

type pathNode struct {
	cell   Cell
	g, f   int
	parent *pathNode
	index  int
}

type openSet []*pathNode

func (o openSet) Len() int           { return len(o) }
func (o openSet) Less(i, j int) bool { return o[i].f < o[j].f }
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(x interface{}) {
	n := x.(*pathNode)
	n.index = len(*o)
	*o = append(*o, n)
}
func (o *openSet) Pop() interface{} {
	old := *o
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*o = old[:len(old)-1]
	return n
}

var neighbours = [4]Cell{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

// AStar finds the shortest 4-connected walkable path from `from` to `to`.
// Returns the path excluding the start and including the end, an empty
// slice when from == to, or nil if no path exists.
func AStar(g *Grid, from, to Cell) []Cell {
	if g == nil || !g.Walkable(from) || !g.Walkable(to) {
		return nil
	}
	if from == to {
		return []Cell{}
	}

	heuristic := func(a Cell) int {
		dx := a.X - to.X
		if dx < 0 {
			dx = -dx
		}
		dy := a.Y - to.Y
		if dy < 0 {
			dy = -dy
		}
		return dx + dy
	}

	closed := make(map[Cell]bool)
	gScore := map[Cell]int{from: 0}
	open := &openSet{}
	heap.Push(open, &pathNode{cell: from, f: heuristic(from)})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true

		if cur.cell == to {
			var path []Cell
			for n := cur; n.parent != nil; n = n.parent {
				path = append(path, n.cell)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		for _, d := range neighbours {
			next := Cell{cur.cell.X + d.X, cur.cell.Y + d.Y}
			if closed[next] || !g.Walkable(next) {
				continue
			}
			ng := cur.g + 1
			if prev, ok := gScore[next]; !ok || ng < prev {
				gScore[next] = ng
				heap.Push(open, &pathNode{
					cell:   next,
					g:      ng,
					f:      ng + heuristic(next),
					parent: cur,
				})
			}
		}
	}
	return nil
}
