package router

import "slices"

// Plan is the outcome of Diff.
type Plan struct {
	// Ancestors are the nodes shared by both chains, root first. They are
	// updated, not remounted.
	Ancestors []*Node

	// Unmounts are the nodes of the old chain below the shared prefix,
	// highest first.
	Unmounts []*Node

	// Mounts are the nodes of the new chain below the shared prefix,
	// highest first.
	Mounts []*Node
}

// Diff compares the traces of from and to by node identity. A nil from
// means nothing is mounted yet. to must not be nil.
func Diff(from, to *ParseResult) Plan {
	if to == nil {
		panic("router: Diff called without a destination")
	}

	var fromChain []*Node
	if from != nil {
		fromChain = from.Traces
	}
	toChain := to.Traces

	boundary := -1
	for i := 0; i < len(fromChain) && i < len(toChain); i++ {
		if fromChain[i] != toChain[i] {
			break
		}
		boundary = i
	}

	return Plan{
		Ancestors: slices.Clone(toChain[:boundary+1]),
		Unmounts:  slices.Clone(fromChain[min(boundary+1, len(fromChain)):]),
		Mounts:    slices.Clone(toChain[boundary+1:]),
	}
}
