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
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/openziti/rbrowse/kernel/browser"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewBrowseCommand())
}

func NewBrowseCommand() *cobra.Command {
	browseCmd := &BrowseCommand{}

	cmd := &cobra.Command{
		Use:   "browse [kind]",
		Short: "Browse resources interactively",
		Long: `Browse resources page by page. Commands:

  kinds                list the kinds that can be browsed
  kind <kind>          switch kind, resetting sort, search and query
  next, n / prev, p    page forward or back
  sort <field:dir>     sort, e.g. sort name:desc
  search <text>        free-text search, replaces the query
  query <expr>         predicate query, replaces the search
  label <name=value>   narrow to a label
  select <row>         toggle selection of a row on the current page
  selected             list the selection
  refresh, r           fetch the first page again
  quit, q              leave`,
		Args: cobra.MaximumNArgs(1),
		RunE: browseCmd.run,
	}

	browseCmd.addFlags(cmd)

	return cmd
}

type BrowseCommand struct {
	ConfigOptions
}

func (bc *BrowseCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := openSession(&bc.ConfigOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	kind := sess.config.DefaultKind
	if len(args) > 0 {
		kind = model.ResourceKind(args[0])
	}
	r := &repl{
		browser:   sess.browser,
		selection: model.NewSelection(),
		out:       cmd.OutOrStdout(),
	}
	r.exec("kind " + string(kind))
	return r.loop(cmd.InOrStdin())
}

type repl struct {
	browser   *browser.Browser
	selection model.Selection
	out       io.Writer
}

func (r *repl) loop(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if isTerminal(r.out) {
			_, _ = fmt.Fprint(r.out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if !r.exec(scanner.Text()) {
			return nil
		}
	}
}

// exec runs one command line and reports whether to keep going.
func (r *repl) exec(line string) bool {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	b := r.browser

	switch verb {
	case "":
		return true
	case "quit", "q", "exit":
		return false
	case "kinds":
		for _, k := range b.Kinds() {
			_, _ = fmt.Fprintln(r.out, k)
		}
		return true
	case "kind":
		if err := b.SetKind(model.ResourceKind(arg)); err != nil {
			r.printf("error: %v\n", err)
			return true
		}
	case "next", "n":
		if !b.Snapshot().CanNext {
			r.printf("already on the last page\n")
			return true
		}
		b.NextPage()
	case "prev", "p":
		if !b.Snapshot().CanPrev {
			r.printf("already on the first page\n")
			return true
		}
		b.PrevPage()
	case "sort":
		s, err := model.ParseSort(arg)
		if err != nil {
			r.printf("error: %v\n", err)
			return true
		}
		b.SetSort(&s)
	case "search":
		b.SetSearch(arg)
	case "query":
		b.SetQuery(arg)
	case "label":
		label, err := parseLabel(arg)
		if err != nil {
			r.printf("error: %v\n", err)
			return true
		}
		b.AddLabel(label)
	case "refresh", "r":
		b.Refresh()
	case "select":
		r.toggle(arg)
		return true
	case "selected":
		keys := make([]string, 0, r.selection.Len())
		for key := range r.selection {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			_, _ = fmt.Fprintln(r.out, key)
		}
		return true
	default:
		r.printf("unknown command [%s]\n", verb)
		return true
	}

	b.Wait()
	r.render()
	return true
}

func (r *repl) toggle(arg string) {
	snap := r.browser.Snapshot()
	row, err := strconv.Atoi(arg)
	if err != nil || row < 1 || row > len(snap.Page.Items) {
		r.printf("error: no row [%s] on this page\n", arg)
		return
	}
	r.selection.Toggle(snap.Page.Items[row-1])
	r.render()
}

func (r *repl) render() {
	if snap := r.browser.Snapshot(); snap.Kind != "" {
		_ = renderPage(r.out, outputTable, snap, r.selection)
	}
}

func (r *repl) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
