package oauth

import (
	"fmt"
	"strconv"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage keys are versioned so a future format change cannot collide
// with stale entries.
const (
	keyVerifier     = "pkce_verifier_v1"
	keyState        = "oauth_state_v1"
	keyIdToken      = "id_token_v1"
	keyAccessToken  = "access_token_v1"
	keyRefreshToken = "refresh_token_v1"
	keyExpiresIn    = "expires_in_v1"
)

// TokenSet holds the tokens issued by a code or refresh exchange. The
// zero value of a field means "absent".
type TokenSet struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// TokenStore persists tokens and the in-flight sign-in attempt across
// the redirect boundary. It is scoped to one profile and is not a
// security boundary: values are stored in the clear.
//
// Save merges: zero-valued fields of the input leave stored values
// untouched. This matters for refresh responses that omit refresh_token.
type TokenStore interface {
	Save(set TokenSet) error
	Load() (TokenSet, error)

	// Clear removes every stored key, tokens and verifier alike. No
	// partially-cleared state is observable afterward.
	Clear() error

	// SaveVerifier records the live sign-in attempt. There is at most
	// one: a second sign-in overwrites it and invalidates the first
	// attempt's eventual callback.
	SaveVerifier(verifier, state string) error
	LoadVerifier() (verifier, state string, err error)
	ClearVerifier() error
}

// MemStore is an in-process TokenStore. It does not survive a restart;
// use KVStore when the flow crosses a real redirect boundary.
type MemStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{values: map[string]string{}}
}

func (m *MemStore) Save(set TokenSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mergeTokenSet(set, func(k, v string) error {
		m.values[k] = v
		return nil
	})
}

func (m *MemStore) Load() (TokenSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return tokenSetFromValues(func(k string) string { return m.values[k] }), nil
}

func (m *MemStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string]string{}
	return nil
}

func (m *MemStore) SaveVerifier(verifier, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[keyVerifier] = verifier
	m.values[keyState] = state
	return nil
}

func (m *MemStore) LoadVerifier() (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[keyVerifier], m.values[keyState], nil
}

func (m *MemStore) ClearVerifier() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, keyVerifier)
	delete(m.values, keyState)
	return nil
}

func mergeTokenSet(set TokenSet, put func(k, v string) error) error {
	if set.IDToken != "" {
		if err := put(keyIdToken, set.IDToken); err != nil {
			return err
		}
	}
	if set.AccessToken != "" {
		if err := put(keyAccessToken, set.AccessToken); err != nil {
			return err
		}
	}
	if set.RefreshToken != "" {
		if err := put(keyRefreshToken, set.RefreshToken); err != nil {
			return err
		}
	}
	if set.ExpiresIn != 0 {
		if err := put(keyExpiresIn, strconv.Itoa(set.ExpiresIn)); err != nil {
			return err
		}
	}
	return nil
}

func tokenSetFromValues(get func(k string) string) TokenSet {
	set := TokenSet{
		IDToken:      get(keyIdToken),
		AccessToken:  get(keyAccessToken),
		RefreshToken: get(keyRefreshToken),
	}
	if v := get(keyExpiresIn); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			set.ExpiresIn = n
		}
	}
	return set
}

// StoreRecord is one persisted key for one profile.
type StoreRecord struct {
	Profile string `gorm:"primaryKey"`
	Key     string `gorm:"primaryKey;column:key"`
	Value   string
}

// KVStore is a durable TokenStore backed by a gorm database. Rows are
// keyed by profile so one database can hold many independent sessions.
type KVStore struct {
	db *gorm.DB
}

func NewKVStore(db *gorm.DB) (*KVStore, error) {
	if db == nil {
		return nil, fmt.Errorf("no database provided")
	}

	if err := db.AutoMigrate(&StoreRecord{}); err != nil {
		return nil, fmt.Errorf("could not migrate token store: %w", err)
	}

	return &KVStore{db: db}, nil
}

// Scope returns the TokenStore for one profile.
func (s *KVStore) Scope(profile string) TokenStore {
	return &scopedStore{db: s.db, profile: profile}
}

type scopedStore struct {
	db      *gorm.DB
	profile string
}

func (s *scopedStore) put(key, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}, {Name: "key"}},
		UpdateAll: true,
	}).Create(&StoreRecord{Profile: s.profile, Key: key, Value: value}).Error
}

func (s *scopedStore) get(key string) (string, error) {
	var rec StoreRecord
	if err := s.db.Raw(
		"SELECT * FROM store_records WHERE profile = ? AND key = ?",
		s.profile, key,
	).Scan(&rec).Error; err != nil {
		return "", err
	}

	return rec.Value, nil
}

func (s *scopedStore) Save(set TokenSet) error {
	return mergeTokenSet(set, s.put)
}

func (s *scopedStore) Load() (TokenSet, error) {
	var loadErr error
	set := tokenSetFromValues(func(k string) string {
		v, err := s.get(k)
		if err != nil {
			loadErr = err
		}
		return v
	})

	if loadErr != nil {
		return TokenSet{}, loadErr
	}

	return set, nil
}

func (s *scopedStore) Clear() error {
	return s.db.Exec("DELETE FROM store_records WHERE profile = ?", s.profile).Error
}

func (s *scopedStore) SaveVerifier(verifier, state string) error {
	if err := s.put(keyVerifier, verifier); err != nil {
		return err
	}
	return s.put(keyState, state)
}

func (s *scopedStore) LoadVerifier() (string, string, error) {
	verifier, err := s.get(keyVerifier)
	if err != nil {
		return "", "", err
	}

	state, err := s.get(keyState)
	if err != nil {
		return "", "", err
	}

	return verifier, state, nil
}

func (s *scopedStore) ClearVerifier() error {
	return s.db.Exec(
		"DELETE FROM store_records WHERE profile = ? AND key IN (?, ?)",
		s.profile, keyVerifier, keyState,
	).Error
}
