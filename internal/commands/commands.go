package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"watchlist/db"
	"watchlist/internal/user"
	"watchlist/models"
)

// DemoName is the display name forge gives the watchlist owner
const DemoName = "Grey Li"

// DemoMovies is the fixed dataset written by forge
var DemoMovies = []models.Movie{
	{Title: "My Neighbor Totoro", Year: "1988"},
	{Title: "Dead Poets Society", Year: "1989"},
	{Title: "A Perfect World", Year: "1993"},
	{Title: "Leon", Year: "1994"},
	{Title: "Mahjong", Year: "1996"},
	{Title: "Swallowtail Butterfly", Year: "1996"},
	{Title: "King of Comedy", Year: "1999"},
	{Title: "Devils on the Doorstep", Year: "1999"},
	{Title: "WALL-E", Year: "2008"},
	{Title: "The Pork of Music", Year: "2012"},
}

// Commands implements the administrative subcommands. Progress goes to Out.
type Commands struct {
	Factory *db.RepositoryFactory
	Out     io.Writer
	Logger  zerolog.Logger
}

func New(factory *db.RepositoryFactory, out io.Writer, logger zerolog.Logger) *Commands {
	return &Commands{Factory: factory, Out: out, Logger: logger}
}

// InitDB creates the schema, dropping every table first when drop is set
func (c *Commands) InitDB(ctx context.Context, drop bool) error {
	if err := db.InitializeSchema(ctx, c.Factory.DB, drop); err != nil {
		return err
	}
	c.Logger.Info().Bool("drop", drop).Msg("Database schema initialized")
	fmt.Fprintln(c.Out, "Initialized database.")
	return nil
}

// Forge seeds the demo owner name and movies in one transaction
func (c *Commands) Forge(ctx context.Context) error {
	if err := db.InitializeSchema(ctx, c.Factory.DB, false); err != nil {
		return err
	}

	err := c.Factory.Transaction(ctx, func(tx *db.RepositoryFactory) error {
		users := tx.NewUserRepository()
		owner, err := users.First(ctx)
		switch {
		case errors.Is(err, db.ErrNotFound):
			// No credentials yet; the admin command sets them later
			if err := users.Create(ctx, &models.User{Name: DemoName}); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			owner.Name = DemoName
			if err := users.Update(ctx, owner); err != nil {
				return err
			}
		}

		movies := tx.NewMovieRepository()
		for _, m := range DemoMovies {
			m := m
			if err := movies.Create(ctx, &m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("forge: %w", err)
	}

	c.Logger.Info().Int("movies", len(DemoMovies)).Msg("Demo data generated")
	fmt.Fprintln(c.Out, "Done.")
	return nil
}

// Admin creates the owner account, or updates its credentials when one
// already exists, so there is never more than one user
func (c *Commands) Admin(ctx context.Context, username, password string) error {
	if err := db.InitializeSchema(ctx, c.Factory.DB, false); err != nil {
		return err
	}

	err := c.Factory.Transaction(ctx, func(tx *db.RepositoryFactory) error {
		svc := user.NewUserService(tx.NewUserRepository(), c.Logger)

		owner, err := svc.Owner(ctx)
		switch {
		case errors.Is(err, db.ErrNotFound):
			fmt.Fprintln(c.Out, "Creating user...")
			_, err = svc.CreateAdmin(ctx, username, password)
			return err
		case err != nil:
			return err
		default:
			fmt.Fprintln(c.Out, "Updating user...")
			return svc.UpdateCredentials(ctx, owner, username, password)
		}
	})
	if err != nil {
		return fmt.Errorf("admin: %w", err)
	}

	fmt.Fprintln(c.Out, "Done.")
	return nil
}
