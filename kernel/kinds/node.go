package kinds

import "github.com/openziti/rbrowse/kernel/model"

func init() {
	RegisterKind(model.KindNode, func() *Descriptor {
		return &Descriptor{
			Kind:        model.KindNode,
			DefaultSort: model.SortType{FieldName: "hostname", Dir: model.SortAsc},
			Columns: []*Column{
				MustColumn("Hostname", "$.attrs.hostname"),
				MustColumn("Address", "$.attrs.addr"),
				MustColumn("Labels", "$.labels"),
			},
			Capabilities: Capabilities{ReusableCursors: true, Sortable: true},
		}
	})
}
