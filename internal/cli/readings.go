package cli

import (
	"github.com/spf13/cobra"

	"bookshelf/internal/tracker"
	"bookshelf/internal/viewmodel"
)

type outputFunc func(cmd *cobra.Command) *printer

func newListCmd(screens *viewmodel.Factory, out outputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active books",
		Long: `List books that are not in the trash, most recently updated first.

Examples:
  bookshelfctl list          # Table output
  bookshelfctl list --json   # JSON with completion`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := screens.Main().Books(cmd.Context())
			if err != nil {
				return err
			}
			return out(cmd).Readings(list, "No books yet. Use 'bookshelfctl add' to add one.")
		},
	}
}

func newTrashCmd(screens *viewmodel.Factory, out outputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "trash",
		Short: "List books in the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := screens.Trash().Books(cmd.Context())
			if err != nil {
				return err
			}
			return out(cmd).Readings(list, "Trash is empty.")
		},
	}
}

func newShowCmd(screens *viewmodel.Factory, out outputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one book with its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := screens.Upsert().Detail(cmd.Context(), id)
			if err != nil {
				return err
			}
			return out(cmd).Detail(d)
		},
	}
}

func newAddCmd(screens *viewmodel.Factory, out outputFunc) *cobra.Command {
	var in tracker.BookInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Long: `Add a book to the reading list.

Examples:
  bookshelfctl add --title Dune --author "Frank Herbert" --genre "Science Fiction" --pages 412
  bookshelfctl add --title Emma --author "Jane Austen" --genre Classic --pages 474 --current 120`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := screens.Upsert().Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			d, err := viewmodel.NewDetail(created)
			if err != nil {
				return err
			}
			return out(cmd).Detail(d)
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Book title")
	cmd.Flags().StringVar(&in.Author, "author", "", "Book author")
	cmd.Flags().StringVar(&in.Genre, "genre", "", "Book genre")
	cmd.Flags().IntVar(&in.NumOfPages, "pages", 0, "Total number of pages")
	cmd.Flags().IntVar(&in.CurrentPage, "current", 0, "Page reached so far")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	_ = cmd.MarkFlagRequired("genre")
	_ = cmd.MarkFlagRequired("pages")

	return cmd
}

func newProgressCmd(screens *viewmodel.Factory, out outputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <id> <pages>",
		Short: "Record newly read pages",
		Long: `Advance a book by the number of pages read since the last update.

Examples:
  bookshelfctl progress 3 25   # Read 25 more pages of book 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pages, err := parsePages(args[1])
			if err != nil {
				return err
			}

			progress, err := screens.Upsert().AddPages(cmd.Context(), id, pages)
			if err != nil {
				return err
			}

			p := out(cmd)
			if p.json {
				return p.JSON(progress)
			}
			p.Printf("Reading %d is now on page %d (%d%% complete, %d pages left)\n",
				progress.ReadingID, progress.CurrentPage,
				progress.Completion.PercentComplete, progress.Completion.PagesLeft)
			return nil
		},
	}
}

func newDeleteCmd(screens *viewmodel.Factory, out outputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Move a book to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := screens.Upsert().MoveToTrash(cmd.Context(), id); err != nil {
				return err
			}
			out(cmd).Printf("Moved reading %d to the trash\n", id)
			return nil
		},
	}
}

func newRestoreCmd(screens *viewmodel.Factory, out outputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a book from the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := screens.Trash().Restore(cmd.Context(), id); err != nil {
				return err
			}
			out(cmd).Printf("Restored reading %d\n", id)
			return nil
		},
	}
}

func newPurgeCmd(screens *viewmodel.Factory, out outputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <id>",
		Short: "Delete a book permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := screens.Trash().DeletePermanently(cmd.Context(), id); err != nil {
				return err
			}
			out(cmd).Printf("Permanently deleted reading %d\n", id)
			return nil
		},
	}
}
