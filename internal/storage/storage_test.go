package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/icpledger/internal/config"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store.Driver = config.StoreDriverMemory

	repos, err := Open(cfg)
	require.NoError(t, err)
	defer repos.Close()

	p := &person.Person{Name: "Alice"}
	require.NoError(t, repos.Persons.CreatePerson(context.Background(), p))

	got, err := repos.Persons.ListPersons(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
