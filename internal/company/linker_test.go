package company

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmployers struct {
	mu    sync.Mutex
	refs  map[string]EmployerRef
	links int
}

func (f *fakeEmployers) CompanyRef(ctx context.Context, employerID string) (EmployerRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.refs[employerID]
	if !ok {
		return EmployerRef{}, sql.ErrNoRows
	}
	return ref, nil
}

func (f *fakeEmployers) LinkCompany(ctx context.Context, employerID, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := f.refs[employerID]
	ref.CompanyID = sql.NullString{String: companyID, Valid: true}
	f.refs[employerID] = ref
	f.links++
	return nil
}

func (f *fakeEmployers) UpdateCompanyName(ctx context.Context, employerID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := f.refs[employerID]
	ref.CompanyName = name
	f.refs[employerID] = ref
	return nil
}

type fakeCompanies struct {
	mu      sync.Mutex
	byID    map[string]Company
	created int
}

func (f *fakeCompanies) GetByID(ctx context.Context, id string) (Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return Company{}, sql.ErrNoRows
	}
	return c, nil
}

func (f *fakeCompanies) FindByName(ctx context.Context, name string) (Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.Name == name {
			return c, nil
		}
	}
	return Company{}, sql.ErrNoRows
}

func (f *fakeCompanies) CreateOrGetByName(ctx context.Context, name string) (Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.Name == name {
			return c, nil
		}
	}
	f.created++
	c := Company{ID: "c" + string(rune('0'+f.created)), Name: name}
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeCompanies) ListNameMismatches(ctx context.Context) ([]NameChange, error) {
	return nil, errors.New("not used")
}

func TestEnsureLinkedCreatesOnceAndIsIdempotent(t *testing.T) {
	employers := &fakeEmployers{refs: map[string]EmployerRef{"e1": {ID: "e1", CompanyName: " Acme "}}}
	companies := &fakeCompanies{byID: map[string]Company{}}
	l := NewLinker(employers, companies)

	first, err := l.EnsureLinked(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", first.Name)

	second, err := l.EnsureLinked(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, 1, companies.created)
	assert.Equal(t, 1, employers.links, "link is written only on the first read")
}

func TestEnsureLinkedReusesExistingCompany(t *testing.T) {
	employers := &fakeEmployers{refs: map[string]EmployerRef{"e1": {ID: "e1", CompanyName: "Acme"}}}
	companies := &fakeCompanies{byID: map[string]Company{"c9": {ID: "c9", Name: "Acme"}}}

	c, err := NewLinker(employers, companies).EnsureLinked(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "c9", c.ID)
	assert.Equal(t, 0, companies.created)
	assert.Equal(t, "c9", employers.refs["e1"].CompanyID.String)
}

func TestEnsureLinkedConcurrentFirstReads(t *testing.T) {
	employers := &fakeEmployers{refs: map[string]EmployerRef{"e1": {ID: "e1", CompanyName: "Acme"}}}
	companies := &fakeCompanies{byID: map[string]Company{}}
	l := NewLinker(employers, companies)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := l.EnsureLinked(context.Background(), "e1")
			assert.NoError(t, err)
			ids[i] = c.ID
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, companies.created)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestEnsureLinkedErrors(t *testing.T) {
	employers := &fakeEmployers{refs: map[string]EmployerRef{"e1": {ID: "e1"}}}
	l := NewLinker(employers, &fakeCompanies{byID: map[string]Company{}})

	_, err := l.EnsureLinked(context.Background(), "e1")
	assert.ErrorIs(t, err, ErrNoCompany)

	_, err = l.EnsureLinked(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEmployerNotFound)

	_, err = l.LinkedCompanyID(context.Background(), "e1")
	assert.ErrorIs(t, err, ErrNoCompany)
}

type mismatchCompanies struct {
	fakeCompanies
	mismatches []NameChange
}

func (m *mismatchCompanies) ListNameMismatches(ctx context.Context) ([]NameChange, error) {
	return m.mismatches, nil
}

func TestSyncEmployerNames(t *testing.T) {
	employers := &fakeEmployers{refs: map[string]EmployerRef{
		"e1": {ID: "e1", CompanyName: "acme inc"},
		"e2": {ID: "e2", CompanyName: "Globex"},
	}}
	companies := &mismatchCompanies{mismatches: []NameChange{{EmployerID: "e1", OldName: "acme inc", NewName: "Acme"}}}

	changed, err := NewLinker(employers, companies).SyncEmployerNames(context.Background())
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, NameChange{EmployerID: "e1", OldName: "acme inc", NewName: "Acme"}, changed[0])
	assert.Equal(t, "Acme", employers.refs["e1"].CompanyName)
	assert.Equal(t, "Globex", employers.refs["e2"].CompanyName)
}
