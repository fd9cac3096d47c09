package experiment

import "fmt"

// Grid is a full factorial design: every combination of the listed values.
type Grid struct {
	Names  []string
	Values [][]float64
}

func NewGrid() *Grid { return &Grid{} }

// Add appends an axis. Unknown parameter names are rejected.
func (g *Grid) Add(name string, values ...float64) error {
	if _, ok := params[name]; !ok {
		return fmt.Errorf("experiment: unknown parameter: %s", name)
	}
	if len(values) == 0 {
		return fmt.Errorf("experiment: parameter %s has no values", name)
	}
	g.Names = append(g.Names, name)
	g.Values = append(g.Values, values)
	return nil
}

// Points enumerates the design with the first axis varying slowest.
func (g *Grid) Points() []map[string]float64 {
	if len(g.Names) == 0 {
		return []map[string]float64{{}}
	}
	var out []map[string]float64
	g.expand(0, map[string]float64{}, &out)
	return out
}

func (g *Grid) expand(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.Names) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	name := g.Names[depth]
	for _, v := range g.Values[depth] {
		current[name] = v
		g.expand(depth+1, current, out)
	}
	delete(current, name)
}
