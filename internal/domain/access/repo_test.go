package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/kv"
)

func repoBackends(t *testing.T) map[string]Repository {
	t.Helper()
	store, err := kv.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return map[string]Repository{
		"memory":  NewMemoryRepo(),
		"leveldb": NewRepoLevelDB(store),
	}
}

func insert(t *testing.T, repo Repository, d, p string) *Grant {
	t.Helper()
	g := &Grant{DoctorID: d, PatientID: p, GrantedBy: p, GrantedAt: time.Now().UTC()}
	require.NoError(t, repo.Insert(context.Background(), g))
	return g
}

func TestRepository_SwapWithLastRemoval(t *testing.T) {
	for name, repo := range repoBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, p := range []string{"a", "b", "c", "d"} {
				g := insert(t, repo, "doc", p)
				assert.Equal(t, i, g.Position)
			}

			require.NoError(t, repo.Delete(ctx, "doc", "b"))
			patients, err := repo.Patients(ctx, "doc")
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "d", "c"}, patients)

			require.NoError(t, repo.Delete(ctx, "doc", "c"))
			patients, _ = repo.Patients(ctx, "doc")
			assert.Equal(t, []string{"a", "d"}, patients)

			g := insert(t, repo, "doc", "e")
			assert.Equal(t, 2, g.Position)
			patients, _ = repo.Patients(ctx, "doc")
			assert.Equal(t, []string{"a", "d", "e"}, patients)

			ok, err := repo.Exists(ctx, "doc", "b")
			require.NoError(t, err)
			assert.False(t, ok)
			ok, _ = repo.Exists(ctx, "doc", "d")
			assert.True(t, ok)

			require.ErrorIs(t, repo.Delete(ctx, "doc", "b"), apperr.ErrNotFound)
		})
	}
}

func TestRepository_DuplicateInsert(t *testing.T) {
	for name, repo := range repoBackends(t) {
		t.Run(name, func(t *testing.T) {
			insert(t, repo, "doc", "p")
			err := repo.Insert(context.Background(), &Grant{DoctorID: "doc", PatientID: "p"})
			require.ErrorIs(t, err, apperr.ErrAlreadyGranted)

			patients, _ := repo.Patients(context.Background(), "doc")
			assert.Equal(t, []string{"p"}, patients)
		})
	}
}

func TestRepository_Doctors(t *testing.T) {
	for name, repo := range repoBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			insert(t, repo, "d2", "p")
			insert(t, repo, "d1", "p")
			insert(t, repo, "d1", "q")

			doctors, err := repo.Doctors(ctx, "p")
			require.NoError(t, err)
			assert.Equal(t, []string{"d1", "d2"}, doctors)

			require.NoError(t, repo.Delete(ctx, "d2", "p"))
			doctors, _ = repo.Doctors(ctx, "p")
			assert.Equal(t, []string{"d1"}, doctors)

			doctors, _ = repo.Doctors(ctx, "nobody")
			assert.Empty(t, doctors)
			assert.NotNil(t, doctors)
		})
	}
}

func TestRepoLevelDB_IDsWithSeparators(t *testing.T) {
	store, err := kv.OpenMem()
	require.NoError(t, err)
	defer store.Close()
	repo := NewRepoLevelDB(store)
	ctx := context.Background()

	insert(t, repo, "a:b", "c")
	insert(t, repo, "a", "b:c")

	ok, _ := repo.Exists(ctx, "a:b", "c")
	assert.True(t, ok)
	ok, _ = repo.Exists(ctx, "a", "b:c")
	assert.True(t, ok)

	patients, _ := repo.Patients(ctx, "a")
	assert.Equal(t, []string{"b:c"}, patients)
}

func TestRepoLevelDB_ControlBytesInIDs(t *testing.T) {
	store, err := kv.OpenMem()
	require.NoError(t, err)
	defer store.Close()
	repo := NewRepoLevelDB(store)
	ctx := context.Background()

	insert(t, repo, "D", "P")
	insert(t, repo, "D\x00x", "Q")
	insert(t, repo, "E", "P\x00y")
	insert(t, repo, "F\x01", "P")

	patients, err := repo.Patients(ctx, "D")
	require.NoError(t, err)
	assert.Equal(t, []string{"P"}, patients)

	ok, _ := repo.Exists(ctx, "D", "\x00xQ")
	assert.False(t, ok)

	doctors, err := repo.Doctors(ctx, "P")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"D", "F\x01"}, doctors)

	doctors, err = repo.Doctors(ctx, "P\x00y")
	require.NoError(t, err)
	assert.Equal(t, []string{"E"}, doctors)
}
