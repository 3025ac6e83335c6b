package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ListPreservesInsertionOrder(t *testing.T) {
	// GIVEN three companies added in a fixed order
	s := NewMemoryStore()
	for _, id := range []string{"c3", "c1", "c2"} {
		require.NoError(t, s.AddCompany(&Company{ID: id}))
	}

	// WHEN listing
	got := s.ListCompanies()

	// THEN order matches insertion
	require.Len(t, got, 3)
	assert.Equal(t, "c3", got[0].ID)
	assert.Equal(t, "c1", got[1].ID)
	assert.Equal(t, "c2", got[2].ID)
}

func TestMemoryStore_LookupReturnsLiveObject(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AddSupplier(&Supplier{ID: "s1", Stock: map[string]int{"p1": 4}}))

	sup, err := s.Supplier("s1")
	require.NoError(t, err)
	sup.Stock["p1"] = 1

	again, err := s.Supplier("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Stock["p1"], "mutation through returned pointer must be visible")
}

func TestMemoryStore_UnknownID_ReturnsErrNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Company("ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Product("ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
	err = s.UpdateSupplier(&Supplier{ID: "ghost"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_DuplicateAdd_Fails(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AddProduct(&Product{ID: "p1"}))
	assert.Error(t, s.AddProduct(&Product{ID: "p1"}))
}

func TestMemoryStore_UpdateReplacesEntity(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AddProduct(&Product{ID: "p1", Active: true}))

	require.NoError(t, s.UpdateProduct(&Product{ID: "p1", Active: false}))

	p, err := s.Product("p1")
	require.NoError(t, err)
	assert.False(t, p.Active)
}

func TestMemoryStore_Clear_DropsEverything(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AddCompany(&Company{ID: "c1"}))
	require.NoError(t, s.AddSupplier(&Supplier{ID: "s1"}))
	require.NoError(t, s.AddProduct(&Product{ID: "p1"}))

	s.Clear()

	assert.Empty(t, s.ListCompanies())
	assert.Empty(t, s.ListSuppliers())
	assert.Empty(t, s.ListProducts())
	_, err := s.Company("c1")
	assert.ErrorIs(t, err, ErrNotFound)
	// ids can be reused after a reset
	assert.NoError(t, s.AddCompany(&Company{ID: "c1"}))
}

func TestAddSupplier_NilStock_IsInitialized(t *testing.T) {
	s := NewMemoryStore()
	sup := &Supplier{ID: "s1"}
	require.NoError(t, s.AddSupplier(sup))
	assert.NotNil(t, sup.Stock)
	assert.False(t, sup.Carries("p1"))
}

func TestCategory_TextRoundTrip(t *testing.T) {
	tests := []struct {
		text string
		want Category
	}{
		{"raw-material", CategoryRawMaterial},
		{"consumable", CategoryConsumable},
		{"finished-good", CategoryFinishedGood},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var c Category
			require.NoError(t, c.UnmarshalText([]byte(tt.text)))
			assert.Equal(t, tt.want, c)
			assert.Equal(t, tt.text, c.String())
		})
	}

	var c Category
	assert.Error(t, c.UnmarshalText([]byte("luxury")))
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("category-preferred")
	require.NoError(t, err)
	assert.Equal(t, StrategyCategoryPreferred, s)

	_, err = ParseStrategy("random")
	assert.Error(t, err)
}

func TestCompany_Prefers(t *testing.T) {
	c := &Company{PreferredCategories: []Category{CategoryConsumable}}
	assert.True(t, c.Prefers(CategoryConsumable))
	assert.False(t, c.Prefers(CategoryRawMaterial))
}
