package offices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDirectory() []Office {
	return []Office{
		{ID: 1, Name: "Quality Assurance Office", Code: "QA"},
		{ID: 2, Name: "Office of the President", Code: "PO"},
		{ID: 3, Name: "Accounting Office", Code: "ACCT"},
		{ID: 4, Name: "VP for Finance", Code: "VF"},
	}
}

func TestResolveOfficeID(t *testing.T) {
	directory := testDirectory()

	id, ok := ResolveOfficeID(directory, "qa")
	assert.True(t, ok)
	assert.Equal(t, OfficeID(1), id)

	id, ok = ResolveOfficeID(directory, " Acct ")
	assert.True(t, ok)
	assert.Equal(t, OfficeID(3), id)

	_, ok = ResolveOfficeID(directory, "QAX")
	assert.False(t, ok)

	_, ok = ResolveOfficeID(nil, "QA")
	assert.False(t, ok)

	_, ok = ResolveOfficeID(directory, "")
	assert.False(t, ok)
}

func TestFindByIDAndCodeOf(t *testing.T) {
	directory := testDirectory()

	o, ok := FindByID(directory, 2)
	assert.True(t, ok)
	assert.Equal(t, "PO", o.Code)

	assert.Equal(t, "ACCT", CodeOf(directory, 3))
	assert.Equal(t, "", CodeOf(directory, 99))
}

func TestClusterMap_Resolve(t *testing.T) {
	m, err := NewClusterMap(DefaultClusterMembers(), "")
	require.NoError(t, err)

	cases := map[string]string{
		"ACCT": ClusterFinance,
		"acct": ClusterFinance,
		"QA":   ClusterPresident,
		"VAd":  ClusterAdmin,
		"VAD":  ClusterAdmin,
		"REG":  ClusterAcademic,
		"RDO":  ClusterResearch,
	}
	for code, want := range cases {
		got, err := m.Resolve(code)
		require.NoError(t, err, code)
		assert.Equal(t, want, got, code)
	}
}

func TestClusterMap_UnlistedWithoutFallback(t *testing.T) {
	m, err := NewClusterMap(DefaultClusterMembers(), "")
	require.NoError(t, err)

	_, err = m.Resolve("NEWOFFICE")
	assert.True(t, errors.Is(err, ErrUnclassifiedOffice))
}

func TestClusterMap_ExplicitFallback(t *testing.T) {
	m, err := NewClusterMap(DefaultClusterMembers(), "va")
	require.NoError(t, err)

	got, err := m.Resolve("NEWOFFICE")
	require.NoError(t, err)
	assert.Equal(t, ClusterAcademic, got)
	assert.Equal(t, ClusterAcademic, m.Fallback())
}

func TestNewClusterMap_RejectsBadConfig(t *testing.T) {
	_, err := NewClusterMap(map[string][]string{"VX": {"ACCT"}}, "")
	assert.Error(t, err)

	_, err = NewClusterMap(map[string][]string{
		ClusterFinance: {"ACCT"},
		ClusterAdmin:   {"acct"},
	}, "")
	assert.Error(t, err)

	_, err = NewClusterMap(map[string][]string{ClusterFinance: {" "}}, "")
	assert.Error(t, err)

	_, err = NewClusterMap(DefaultClusterMembers(), "VZ")
	assert.Error(t, err)
}

func TestClusterMap_Validate(t *testing.T) {
	m, err := NewClusterMap(DefaultClusterMembers(), ClusterAcademic)
	require.NoError(t, err)

	directory := append(testDirectory(), Office{ID: 9, Name: "New Office", Code: "NEWO"}, Office{ID: 10, Name: "Another", Code: "ANO"})
	assert.Equal(t, []string{"ANO", "NEWO"}, m.Validate(directory))
	assert.Empty(t, m.Validate(testDirectory()))
}

func TestDirectoryCache_GetOrLoad(t *testing.T) {
	cache := NewDirectoryCache(time.Minute)
	defer cache.Stop()

	calls := 0
	load := func(ctx context.Context) ([]Office, error) {
		calls++
		return testDirectory(), nil
	}

	first, err := cache.GetOrLoad(context.Background(), "directory", load)
	require.NoError(t, err)
	second, err := cache.GetOrLoad(context.Background(), "directory", load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestDirectoryCache_ServesStaleOnLoadFailure(t *testing.T) {
	cache := NewDirectoryCache(time.Millisecond)
	defer cache.Stop()

	cache.Set("directory", testDirectory())
	time.Sleep(5 * time.Millisecond)

	failing := func(ctx context.Context) ([]Office, error) {
		return nil, errors.New("directory unavailable")
	}

	offices, err := cache.GetOrLoad(context.Background(), "directory", failing)
	require.NoError(t, err)
	assert.Len(t, offices, 4)

	_, err = cache.GetOrLoad(context.Background(), "other", failing)
	assert.Error(t, err)
}

func TestDirectoryCache_Delete(t *testing.T) {
	cache := NewDirectoryCache(time.Minute)
	defer cache.Stop()

	cache.Set("directory", testDirectory())
	cache.Delete("directory")

	_, ok := cache.Get("directory")
	assert.False(t, ok)
}
