package kinds

import "github.com/openziti/rbrowse/kernel/model"

func init() {
	RegisterKind(model.KindApp, func() *Descriptor {
		return &Descriptor{
			Kind:        model.KindApp,
			DefaultSort: byName(),
			Columns: []*Column{
				MustColumn("Name", "$.name"),
				MustColumn("Address", "$.attrs.public_addr"),
				MustColumn("Labels", "$.labels"),
			},
			Capabilities: Capabilities{ReusableCursors: true, Sortable: true},
		}
	})
}
