package kinds

import (
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
)

// GenericDescriptor builds a descriptor for a kind declared in configuration.
func GenericDescriptor(cfg *model.KindConfig) (*Descriptor, error) {
	d := &Descriptor{
		Kind:         cfg.Name,
		DefaultSort:  byName(),
		Capabilities: Capabilities{ReusableCursors: true, Sortable: true},
	}
	if cfg.DefaultSort != "" {
		s, err := model.ParseSort(cfg.DefaultSort)
		if err != nil {
			return nil, errors.Wrapf(err, "kind [%s]", cfg.Name)
		}
		d.DefaultSort = s
	}
	for _, cc := range cfg.Columns {
		c, err := NewColumn(cc.Title, cc.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "kind [%s]", cfg.Name)
		}
		d.Columns = append(d.Columns, c)
	}
	if len(d.Columns) == 0 {
		d.Columns = []*Column{
			MustColumn("Name", "$.name"),
			MustColumn("Labels", "$.labels"),
		}
	}
	return d, nil
}
