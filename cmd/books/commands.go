package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/snnyvrz/shelfshare-books/internal/config"
	"github.com/snnyvrz/shelfshare-books/internal/db"
	"github.com/snnyvrz/shelfshare-books/internal/logger"
	"github.com/snnyvrz/shelfshare-books/internal/model"
	"github.com/snnyvrz/shelfshare-books/internal/repository"
)

var errNotFound = errors.New("not found")

// usesDatabase marks the subcommands that need an open database. Cobra's own
// help and completion commands run without one.
const usesDatabase = "uses-database"

var dbAnnotation = map[string]string{usesDatabase: "true"}

type cli struct {
	out    io.Writer
	errOut io.Writer

	log      zerolog.Logger
	database *db.Database
	books    repository.BookRepository
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{out: out, errOut: errOut}
}

// rootCmd wires the subcommands. The database opened before a subcommand
// runs stays open until close is called.
func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "books",
		Short:         "Manage the books catalogue",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := cmd.Annotations[usesDatabase]; !ok {
				return nil
			}
			return c.open(cmd)
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.AddCommand(
		c.migrateCmd(),
		c.createCmd(),
		c.getCmd(),
		c.listCmd(),
		c.updateCmd(),
		c.deleteCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	c.log = logger.NewWithWriter(c.errOut, cfg.Log.Level, cfg.Log.Format)

	database, err := db.Open(cmd.Context(), cfg, c.log)
	if err != nil {
		return err
	}
	dialect, err := repository.DialectFor(cfg.DB.Driver)
	if err != nil {
		_ = database.Close()
		return err
	}

	c.database = database
	c.books = repository.NewSQLBookRepository(database.SQL, dialect, c.log, nil)
	return nil
}

func (c *cli) close() error {
	if c.database == nil {
		return nil
	}
	err := c.database.Close()
	c.database = nil
	return err
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "migrate",
		Annotations: dbAnnotation,
		Short:       "Create or update the books table",
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.database.Migrate(cmd.Context()); err != nil {
				return err
			}
			return c.print(map[string]bool{"migrated": true})
		},
	}
}

func (c *cli) createCmd() *cobra.Command {
	var title, price string

	cmd := &cobra.Command{
		Use:         "create",
		Annotations: dbAnnotation,
		Short:       "Insert a new book",
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePrice(price)
			if err != nil {
				return err
			}

			book, err := c.books.Create(cmd.Context(), &model.Book{Title: title, Price: p})
			if err != nil {
				return err
			}
			return c.print(book)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "book title")
	cmd.Flags().StringVar(&price, "price", "", "book price, e.g. 12.50")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "get <id>",
		Annotations: dbAnnotation,
		Short:       "Show one book",
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			book, found, err := c.books.FindByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !found {
				return errNotFound
			}
			return c.print(book)
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Annotations: dbAnnotation,
		Short:       "List every book",
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := c.books.FindAll(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(books)
		},
	}
}

func (c *cli) updateCmd() *cobra.Command {
	var title, price string

	cmd := &cobra.Command{
		Use:         "update <id>",
		Annotations: dbAnnotation,
		Short:       "Replace title and price of a book",
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := parsePrice(price)
			if err != nil {
				return err
			}

			book, found, err := c.books.Update(cmd.Context(), &model.Book{ID: &id, Title: title, Price: p})
			if err != nil {
				return err
			}
			if !found {
				return errNotFound
			}
			return c.print(book)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&price, "price", "", "new price")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "delete <id>",
		Annotations: dbAnnotation,
		Short:       "Delete a book",
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			deleted, err := c.books.DeleteByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !deleted {
				return errNotFound
			}
			return c.print(map[string]bool{"deleted": true})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return id, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	p, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if p.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("invalid price %q: must not be negative", s)
	}
	return p, nil
}
