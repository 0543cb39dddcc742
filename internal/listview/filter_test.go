package listview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type row struct {
	ID         int64
	Name       string
	Department string
	State      string
	Amount     float64
	CreatedAt  time.Time
}

func searchFields(r row) []string {
	return []string{r.Name, r.Department}
}

func sampleRows() []row {
	day := func(d int) time.Time {
		return time.Date(2025, time.March, d, 15, 30, 0, 0, time.UTC)
	}
	return []row{
		{ID: 1, Name: "Ana Torres", Department: "Marketing", State: "pending", Amount: 50000, CreatedAt: day(1)},
		{ID: 2, Name: "Luis Rojas", Department: "Finanzas", State: "approved", Amount: 1200000, CreatedAt: day(3)},
		{ID: 3, Name: "Marta Diaz", Department: "MARKETING", State: "rejected", Amount: 80000, CreatedAt: day(5)},
		{ID: 4, Name: "Pedro Gil", Department: "Finanzas", State: "pending", Amount: 2000000, CreatedAt: day(8)},
		{ID: 5, Name: "Sofia Vega", Department: "marketing", State: "approved", Amount: 30000, CreatedAt: day(10)},
	}
}

func TestApply_EmptyCriteriaIsIdentity(t *testing.T) {
	rows := sampleRows()

	got := Apply(rows, Criteria[row]{SearchFields: searchFields})

	assert.Equal(t, rows, got)
}

func TestApply_EmptyInput(t *testing.T) {
	got := Apply(nil, Criteria[row]{Search: "anything", SearchFields: searchFields})

	assert.Empty(t, got)
}

func TestApply_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	got := Apply(sampleRows(), Criteria[row]{
		Search:       "marketing",
		SearchFields: searchFields,
	})

	assert.Len(t, got, 3)
	for _, r := range got {
		assert.Contains(t, []string{"Marketing", "MARKETING", "marketing"}, r.Department)
	}
}

func TestApply_WhitespaceOnlySearchImposesNoConstraint(t *testing.T) {
	rows := sampleRows()

	got := Apply(rows, Criteria[row]{Search: "   ", SearchFields: searchFields})

	assert.Equal(t, rows, got)
}

func TestApply_CategoricalExactMatch(t *testing.T) {
	got := Apply(sampleRows(), Criteria[row]{
		Equals: []EqualsFilter[row]{
			{Value: "pending", Field: func(r row) string { return r.State }},
		},
	})

	assert.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)
}

func TestApply_CriteriaAreANDed(t *testing.T) {
	got := Apply(sampleRows(), Criteria[row]{
		Equals: []EqualsFilter[row]{
			{Value: "Finanzas", Field: func(r row) string { return r.Department }},
			{Value: "pending", Field: func(r row) string { return r.State }},
		},
	})

	assert.Len(t, got, 1)
	assert.Equal(t, int64(4), got[0].ID)
}

func TestApply_MinAmount(t *testing.T) {
	got := Apply(sampleRows(), Criteria[row]{
		MinAmount:   "1000000",
		AmountField: func(r row) float64 { return r.Amount },
	})

	assert.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)
}

func TestApply_NonNumericMinAmountImposesNoConstraint(t *testing.T) {
	rows := sampleRows()

	got := Apply(rows, Criteria[row]{
		MinAmount:   "not-a-number",
		AmountField: func(r row) float64 { return r.Amount },
	})

	assert.Equal(t, rows, got)
}

func TestApply_DateFromIsDateOnly(t *testing.T) {
	// Row 3 was created at 2025-03-05 15:30; a bound of the same day must
	// include it even though the bound parses to midnight.
	got := Apply(sampleRows(), Criteria[row]{
		DateFrom:  "2025-03-05",
		DateField: func(r row) time.Time { return r.CreatedAt },
	})

	assert.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].ID)
}

func TestApply_InvalidDateImposesNoConstraint(t *testing.T) {
	rows := sampleRows()

	got := Apply(rows, Criteria[row]{
		DateFrom:  "05/03/2025",
		DateField: func(r row) time.Time { return r.CreatedAt },
	})

	assert.Equal(t, rows, got)
}

func TestApply_PreFilterRunsBeforeUserCriteria(t *testing.T) {
	// Excluding row 1 must hold even with no user criteria set.
	got := Apply(sampleRows(), Criteria[row]{
		Pre: func(r row) bool { return r.ID != 1 },
	})

	assert.Len(t, got, 4)
	for _, r := range got {
		assert.NotEqual(t, int64(1), r.ID)
	}
}

func TestApply_AddingCriterionNeverGrowsResult(t *testing.T) {
	rows := sampleRows()
	base := Criteria[row]{
		Search:       "a",
		SearchFields: searchFields,
	}
	narrowed := base
	narrowed.Equals = []EqualsFilter[row]{
		{Value: "approved", Field: func(r row) string { return r.State }},
	}

	assert.LessOrEqual(t, len(Apply(rows, narrowed)), len(Apply(rows, base)))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	rows := sampleRows()
	snapshot := sampleRows()

	Apply(rows, Criteria[row]{
		Equals: []EqualsFilter[row]{
			{Value: "approved", Field: func(r row) string { return r.State }},
		},
	})

	assert.Equal(t, snapshot, rows)
}
