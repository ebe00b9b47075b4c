package main

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/Rot127/rz-hexagon/isa"
)

// modelTree lists the instruction counts per opcode and duplex class, and
// the registers of every register class.
func modelTree(m *isa.Model) treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue("hexagon")

	normal := m.Registry.Normal()
	branch := tree.AddMetaBranch(len(normal), "instructions")
	for class := 0; class < 16; class++ {
		if n := len(m.Registry.ByClass(uint8(class))); n > 0 {
			branch.AddMetaNode(n, fmt.Sprintf("class %#x", class))
		}
	}

	subs := m.Registry.Sub()
	branch = tree.AddMetaBranch(len(subs), "sub-instructions")
	var subClasses []string
	subCounts := make(map[string]int)
	for _, sub := range subs {
		if subCounts[sub.SubClass] == 0 {
			subClasses = append(subClasses, sub.SubClass)
		}
		subCounts[sub.SubClass]++
	}
	for _, sc := range subClasses {
		branch.AddMetaNode(subCounts[sc], sc)
	}

	duplexes := m.Registry.Duplex()
	branch = tree.AddMetaBranch(len(duplexes), "duplexes")
	duplexCounts := make(map[isa.DuplexClass]int)
	for _, d := range duplexes {
		duplexCounts[d.Class]++
	}
	for class := isa.DuplexClass(0); class < 16; class++ {
		if n := duplexCounts[class]; n > 0 {
			branch.AddMetaNode(n, "class "+class.String())
		}
	}

	classes := m.Registers.Classes()
	branch = tree.AddMetaBranch(len(classes), "register classes")
	for _, rc := range classes {
		regs := branch.AddMetaBranch(fmt.Sprintf("%d bits", rc.Size), rc.Name)
		for _, r := range rc.Registers() {
			regs.AddMetaNode(r.HWEncoding, fmt.Sprintf("%s (%s)", r.Name, r.AsmName))
		}
	}
	return tree
}
