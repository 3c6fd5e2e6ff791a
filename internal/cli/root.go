// Package cli implements bookshelfctl, the admin command line over the
// reading tracker.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bookshelf/internal/models"
	"bookshelf/internal/tracker"
	"bookshelf/internal/viewmodel"
)

// NewRootCmd creates the root command for bookshelfctl.
func NewRootCmd(t *tracker.Tracker) *cobra.Command {
	var asJSON bool

	root := &cobra.Command{
		Use:   "bookshelfctl",
		Short: "Manage your reading list",
		Long: `Inspect and edit the books tracked by the bookshelf bot.

bookshelfctl provides tools to:
- List active and trashed books
- Add books and record reading progress
- Move books to the trash, restore or purge them`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	out := func(cmd *cobra.Command) *printer {
		return &printer{w: cmd.OutOrStdout(), json: asJSON}
	}
	screens := viewmodel.NewFactory(t)

	root.AddCommand(newListCmd(screens, out))
	root.AddCommand(newTrashCmd(screens, out))
	root.AddCommand(newShowCmd(screens, out))
	root.AddCommand(newAddCmd(screens, out))
	root.AddCommand(newProgressCmd(screens, out))
	root.AddCommand(newDeleteCmd(screens, out))
	root.AddCommand(newRestoreCmd(screens, out))
	root.AddCommand(newPurgeCmd(screens, out))

	return root
}

type printer struct {
	w    io.Writer
	json bool
}

func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) Println(a ...any) {
	fmt.Fprintln(p.w, a...)
}

func (p *printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.w, format, a...)
}

// Readings prints a list as a table, or as JSON details
func (p *printer) Readings(list []models.BookReading, empty string) error {
	details := make([]viewmodel.Detail, 0, len(list))
	for _, r := range list {
		d, err := viewmodel.NewDetail(r)
		if err != nil {
			return err
		}
		details = append(details, d)
	}

	if p.json {
		return p.JSON(details)
	}

	if len(details) == 0 {
		p.Println(empty)
		return nil
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTitle\tAuthor\tPages\tDone\tUpdated")
	for _, d := range details {
		r := d.Reading
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%d%%\t%s\n",
			r.ReadingID, truncate(r.Title, 40), truncate(r.Author, 25),
			r.CurrentPage, r.NumOfPages, d.Completion.PercentComplete, d.LastUpdated)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p.Printf("\nTotal: %d book(s)\n", len(details))
	return nil
}

// Detail prints one reading
func (p *printer) Detail(d viewmodel.Detail) error {
	if p.json {
		return p.JSON(d)
	}

	r := d.Reading
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", r.ReadingID)
	fmt.Fprintf(tw, "Title:\t%s\n", r.Title)
	fmt.Fprintf(tw, "Author:\t%s\n", r.Author)
	fmt.Fprintf(tw, "Genre:\t%s\n", r.Genre)
	fmt.Fprintf(tw, "Pages:\t%d of %d\n", r.CurrentPage, r.NumOfPages)
	fmt.Fprintf(tw, "Pages left:\t%d\n", d.Completion.PagesLeft)
	fmt.Fprintf(tw, "Complete:\t%d%%\n", d.Completion.PercentComplete)
	fmt.Fprintf(tw, "Last updated:\t%s\n", d.LastUpdated)
	if r.IsDeleted {
		fmt.Fprintf(tw, "Status:\tin trash\n")
	}
	return tw.Flush()
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid reading id %q", arg)
	}
	return id, nil
}

func parsePages(arg string) (int, error) {
	pages, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid page count %q", arg)
	}
	return pages, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
