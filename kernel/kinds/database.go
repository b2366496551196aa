package kinds

import "github.com/openziti/rbrowse/kernel/model"

func init() {
	RegisterKind(model.KindDatabase, func() *Descriptor {
		return &Descriptor{
			Kind:        model.KindDatabase,
			DefaultSort: byName(),
			Columns: []*Column{
				MustColumn("Name", "$.name"),
				MustColumn("Description", "$.attrs.description"),
				MustColumn("Type", "$.attrs.type"),
				MustColumn("Labels", "$.labels"),
			},
			Capabilities: Capabilities{ReusableCursors: true, Sortable: true},
		}
	})
}
