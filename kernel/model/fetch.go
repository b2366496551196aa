package model

import "context"

// FetchRequest is what a kind's fetch function receives for one page.
type FetchRequest struct {
	Sort     *SortType `json:"sort,omitempty"`
	Search   string    `json:"search,omitempty"`
	Query    string    `json:"query,omitempty"`
	StartKey string    `json:"startKey,omitempty"`
	Limit    int       `json:"limit"`
}

// NewFetchRequest builds a request from the filter state.
func NewFetchRequest(f ResourceFilter, startKey string, limit int) FetchRequest {
	f = f.Clone()
	return FetchRequest{
		Sort:     f.Sort,
		Search:   f.Search,
		Query:    f.Query,
		StartKey: startKey,
		Limit:    limit,
	}
}

// FetchResponse carries one page. StartKey is the cursor of the next page,
// empty when there is none. TotalCount is the backend's estimate.
type FetchResponse struct {
	Items      []Resource `json:"items"`
	StartKey   string     `json:"startKey"`
	TotalCount int        `json:"totalCount"`
}

// FetchFunc lists one page of a resource kind from the backend.
type FetchFunc func(ctx context.Context, clusterId string, req FetchRequest) (*FetchResponse, error)

type FetchStatus string

const (
	FetchNotStarted FetchStatus = ""
	FetchProcessing FetchStatus = "processing"
	FetchSuccess    FetchStatus = "success"
	FetchFailed     FetchStatus = "failed"
)

// FetchAttempt is the observable lifecycle of the latest list request.
type FetchAttempt struct {
	Status     FetchStatus `json:"status"`
	StatusText string      `json:"statusText,omitempty"`
}

// FetchedPage is the page currently held by a pager.
type FetchedPage struct {
	Items      []Resource `json:"items"`
	StartKey   string     `json:"startKey"`
	TotalCount int        `json:"totalCount"`
}

// Clone returns a read-only view of the page for consumers.
func (p FetchedPage) Clone() FetchedPage {
	out := p
	if p.Items != nil {
		out.Items = make([]Resource, len(p.Items))
		for i, item := range p.Items {
			out.Items[i] = item.Clone()
		}
	}
	return out
}

// PageIndicators describe the visible window, e.g. "11 - 20 of 57".
type PageIndicators struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Total int `json:"total"`
}
