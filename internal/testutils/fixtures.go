package testutils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"watchlist/db"
	"watchlist/models"
)

func CreateTestUser(t *testing.T, factory *db.RepositoryFactory, name, username, password string) *models.User {
	t.Helper()

	u := &models.User{Name: name, Username: username}
	require.NoError(t, u.SetPassword(password))
	require.NoError(t, factory.NewUserRepository().Create(context.Background(), u))
	return u
}

func CreateTestMovie(t *testing.T, factory *db.RepositoryFactory, title, year string) *models.Movie {
	t.Helper()

	m := &models.Movie{Title: title, Year: year}
	require.NoError(t, factory.NewMovieRepository().Create(context.Background(), m))
	return m
}
