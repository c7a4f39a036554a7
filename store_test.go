package oauth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testStores(t *testing.T) map[string]func(t *testing.T) TokenStore {
	t.Helper()

	return map[string]func(t *testing.T) TokenStore{
		"mem": func(t *testing.T) TokenStore {
			return NewMemStore()
		},
		"kv": func(t *testing.T) TokenStore {
			db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{})
			require.NoError(t, err)

			kv, err := NewKVStore(db)
			require.NoError(t, err)

			return kv.Scope("test-profile")
		},
	}
}

func TestStoreSaveMerges(t *testing.T) {
	for name, mk := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			store := mk(t)

			assert.NoError(store.Save(TokenSet{
				IDToken:      "id-1",
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				ExpiresIn:    3600,
			}))

			// a refresh response without refresh_token must not clear
			// the stored one
			assert.NoError(store.Save(TokenSet{
				IDToken:     "id-2",
				AccessToken: "access-2",
			}))

			set, err := store.Load()
			assert.NoError(err)
			assert.Equal("id-2", set.IDToken)
			assert.Equal("access-2", set.AccessToken)
			assert.Equal("refresh-1", set.RefreshToken)
			assert.Equal(3600, set.ExpiresIn)
		})
	}
}

func TestStoreSaveEmptyIsNoop(t *testing.T) {
	for name, mk := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			store := mk(t)

			assert.NoError(store.Save(TokenSet{IDToken: "id-1", RefreshToken: "refresh-1"}))
			assert.NoError(store.Save(TokenSet{}))

			set, err := store.Load()
			assert.NoError(err)
			assert.Equal("id-1", set.IDToken)
			assert.Equal("refresh-1", set.RefreshToken)
		})
	}
}

func TestStoreClear(t *testing.T) {
	for name, mk := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			store := mk(t)

			assert.NoError(store.Save(TokenSet{
				IDToken:      "id-1",
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				ExpiresIn:    3600,
			}))
			assert.NoError(store.SaveVerifier("verifier-1", "state-1"))

			assert.NoError(store.Clear())

			set, err := store.Load()
			assert.NoError(err)
			assert.Equal(TokenSet{}, set)

			verifier, state, err := store.LoadVerifier()
			assert.NoError(err)
			assert.Empty(verifier)
			assert.Empty(state)
		})
	}
}

func TestStoreVerifierLifecycle(t *testing.T) {
	for name, mk := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			store := mk(t)

			verifier, state, err := store.LoadVerifier()
			assert.NoError(err)
			assert.Empty(verifier)
			assert.Empty(state)

			assert.NoError(store.SaveVerifier("verifier-1", "state-1"))

			// a second sign-in overwrites the live attempt
			assert.NoError(store.SaveVerifier("verifier-2", "state-2"))

			verifier, state, err = store.LoadVerifier()
			assert.NoError(err)
			assert.Equal("verifier-2", verifier)
			assert.Equal("state-2", state)

			assert.NoError(store.ClearVerifier())

			verifier, state, err = store.LoadVerifier()
			assert.NoError(err)
			assert.Empty(verifier)
			assert.Empty(state)
		})
	}
}

func TestKVStoreSurvivesReopen(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "store.db")

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(err)

	kv, err := NewKVStore(db)
	require.NoError(err)

	store := kv.Scope("profile-a")
	require.NoError(store.Save(TokenSet{IDToken: "id-1"}))
	require.NoError(store.SaveVerifier("verifier-1", "state-1"))

	// the redirect boundary: a fresh process over the same database
	db2, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(err)

	kv2, err := NewKVStore(db2)
	require.NoError(err)

	set, err := kv2.Scope("profile-a").Load()
	assert.NoError(err)
	assert.Equal("id-1", set.IDToken)

	verifier, state, err := kv2.Scope("profile-a").LoadVerifier()
	assert.NoError(err)
	assert.Equal("verifier-1", verifier)
	assert.Equal("state-1", state)
}

func TestKVStoreScopesAreIsolated(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{})
	require.NoError(err)

	kv, err := NewKVStore(db)
	require.NoError(err)

	require.NoError(kv.Scope("profile-a").Save(TokenSet{IDToken: "id-a"}))
	require.NoError(kv.Scope("profile-b").Save(TokenSet{IDToken: "id-b"}))

	require.NoError(kv.Scope("profile-a").Clear())

	set, err := kv.Scope("profile-b").Load()
	assert.NoError(err)
	assert.Equal("id-b", set.IDToken)

	set, err = kv.Scope("profile-a").Load()
	assert.NoError(err)
	assert.Empty(set.IDToken)
}
