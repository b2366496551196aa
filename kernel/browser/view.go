package browser

import (
	"github.com/openziti/rbrowse/kernel/kinds"
	"github.com/openziti/rbrowse/kernel/model"
)

// PageView is the flat projection of a snapshot handed to renderers and
// tool clients.
type PageView struct {
	Kind       model.ResourceKind   `json:"kind"`
	State      State                `json:"state"`
	Sort       string               `json:"sort,omitempty"`
	Search     string               `json:"search,omitempty"`
	Query      string               `json:"query,omitempty"`
	Status     model.FetchStatus    `json:"status,omitempty"`
	StatusText string               `json:"statusText,omitempty"`
	Indicators model.PageIndicators `json:"indicators"`
	CanNext    bool                 `json:"canNext"`
	CanPrev    bool                 `json:"canPrev"`
	Columns    []string             `json:"columns"`
	Rows       []RowView            `json:"rows"`
}

type RowView struct {
	Key    string            `json:"key"`
	Labels map[string]string `json:"labels,omitempty"`
	Values []string          `json:"values"`
}

func (s Snapshot) View() PageView {
	v := PageView{
		Kind:       s.Kind,
		State:      s.State,
		Search:     s.Filter.Search,
		Query:      s.Filter.Query,
		Status:     s.Attempt.Status,
		StatusText: s.Attempt.StatusText,
		Indicators: s.Indicators,
		CanNext:    s.CanNext,
		CanPrev:    s.CanPrev,
		Columns:    make([]string, 0, len(s.Columns)),
		Rows:       make([]RowView, 0, len(s.Page.Items)),
	}
	if s.Filter.Sort != nil && s.Sortable {
		v.Sort = s.Filter.Sort.String()
	}
	for _, c := range s.Columns {
		v.Columns = append(v.Columns, c.Title)
	}
	for _, r := range s.Page.Items {
		v.Rows = append(v.Rows, RowView{
			Key:    r.Key(),
			Labels: r.Labels,
			Values: kinds.Row(r, s.Columns),
		})
	}
	return v
}
