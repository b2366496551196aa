/*
	(c) Copyright NetFoundry Inc. Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package subcmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/openziti/rbrowse/kernel/browser"
	"github.com/openziti/rbrowse/kernel/model"
	"golang.org/x/term"
)

const (
	outputTable = "table"
	outputJson  = "json"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func renderPage(w io.Writer, format string, snap browser.Snapshot, selection model.Selection) error {
	view := snap.View()
	if format == outputJson {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	if isTerminal(w) {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleLight)
	}
	if snap.Kind != "" {
		t.SetTitle(string(snap.Kind))
	}

	header := table.Row{"#", ""}
	for _, c := range view.Columns {
		header = append(header, c)
	}
	t.AppendHeader(header)

	for i, row := range view.Rows {
		mark := ""
		if selection != nil && selection.Has(snap.Page.Items[i]) {
			mark = "*"
		}
		r := table.Row{i + 1, mark}
		for _, v := range row.Values {
			r = append(r, v)
		}
		t.AppendRow(r)
	}
	t.Render()
	_, _ = fmt.Fprintln(w, footer(view))

	if view.Status == model.FetchFailed {
		_, _ = fmt.Fprintf(w, "fetch failed: %s\n", view.StatusText)
	}
	return nil
}

func footer(view browser.PageView) string {
	ind := view.Indicators
	text := "no results"
	if ind.To > 0 {
		total := fmt.Sprint(ind.Total)
		if ind.Total < ind.To {
			total = "?"
		}
		text = fmt.Sprintf("%d - %d of %s", ind.From, ind.To, total)
	}
	if view.Sort != "" {
		text += "  sort " + view.Sort
	}
	if view.Search != "" {
		text += fmt.Sprintf("  search %q", view.Search)
	}
	if view.Query != "" {
		text += "  query " + view.Query
	}
	return text
}
