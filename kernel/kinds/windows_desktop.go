package kinds

import "github.com/openziti/rbrowse/kernel/model"

func init() {
	RegisterKind(model.KindWindowsDesktop, func() *Descriptor {
		return &Descriptor{
			Kind:        model.KindWindowsDesktop,
			DefaultSort: byName(),
			Columns: []*Column{
				MustColumn("Name", "$.name"),
				MustColumn("Address", "$.attrs.addr"),
				MustColumn("Labels", "$.labels"),
			},
			Capabilities: Capabilities{ReusableCursors: true, Sortable: true},
		}
	})
}
