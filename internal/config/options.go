// Package config owns the boot-option list a Harness hands to each
// Worker: translating parsed CLI flags into worker.BootOption pairs, and
// applying the canonical math-option reordering the daemon is sensitive
// to, independent of the order those flags were given on the command
// line.
package config

import "github.com/dginev/latexrun/internal/worker"

// mathOptionOrder is the fixed order the daemon expects mutually
// related math-output toggles to be applied in, regardless of the
// order they appeared in on the CLI.
var mathOptionOrder = []string{
	"pmml", "cmml", "openmath", "mathtex",
	"nopmml", "nocmml", "noopenmath", "nomathtex",
}

var mathOptionRank = func() map[string]int {
	rank := make(map[string]int, len(mathOptionOrder))
	for i, name := range mathOptionOrder {
		rank[name] = i
	}
	return rank
}()

// CanonicalizeBootOptions returns opts with every math-output toggle
// present moved to the end, in mathOptionOrder, while every other
// option retains its relative order and precedes all math options.
func CanonicalizeBootOptions(opts []worker.BootOption) []worker.BootOption {
	out := make([]worker.BootOption, 0, len(opts))
	math := make([]worker.BootOption, 0, len(mathOptionOrder))
	for _, opt := range opts {
		if _, ok := mathOptionRank[opt.Key]; ok {
			math = append(math, opt)
		} else {
			out = append(out, opt)
		}
	}
	sortByRank(math)
	return append(out, math...)
}

func sortByRank(opts []worker.BootOption) {
	// Small fixed-size slice (at most len(mathOptionOrder)); a simple
	// insertion sort avoids pulling in sort for eight elements.
	for i := 1; i < len(opts); i++ {
		j := i
		for j > 0 && mathOptionRank[opts[j-1].Key] > mathOptionRank[opts[j].Key] {
			opts[j-1], opts[j] = opts[j], opts[j-1]
			j--
		}
	}
}
