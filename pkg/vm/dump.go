package vm

import (
	"fmt"

	"github.com/m1gwings/treedrawer/tree"
)

// DrawTree renders the instruction sequence as a drawable tree for
// debugging: one branch per function body, instructions as leaves.
// Commands outside any function hang directly off the root.
func (p *Program) DrawTree() string {
	root := tree.NewTree(tree.NodeString(fmt.Sprintf("program (%d commands, %d statics)",
		len(p.Instructions), p.StaticSize)))
	current := root
	for i := 0; i < len(p.Instructions); i++ {
		in := p.Instructions[i]
		// A Label directly followed by a FunctionSetup is a function
		// entry; fold the pair into one branch node.
		if lbl, ok := in.(Label); ok && i+1 < len(p.Instructions) {
			if setup, ok := p.Instructions[i+1].(FunctionSetup); ok {
				current = root.AddChild(tree.NodeString(
					fmt.Sprintf("function %s (%d locals)", lbl.Name, setup.Locals)))
				i++
				continue
			}
		}
		current.AddChild(tree.NodeString(in.String()))
	}
	return fmt.Sprint(root)
}
