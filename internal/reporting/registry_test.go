package reporting_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SyberOman/testing-hospital/internal/reporting"
)

func seedRegistry() *reporting.Registry {
	return reporting.NewRegistry(
		reporting.Department{ID: "1", Name: "RESUS", RequiredShifts: reporting.FullShiftSet(), IsActive: true},
		reporting.Department{ID: "3", Name: "DERMA", RequiredShifts: reporting.NewShiftSet(reporting.Morning, reporting.Afternoon), IsActive: true},
		reporting.Department{ID: "8", Name: "OPTHALMO", IsActive: false},
		reporting.Department{ID: "7", Name: "ANC", RequiredShifts: reporting.NewShiftSet(reporting.Morning), IsActive: true},
	)
}

func TestRegistry_GetConfig(t *testing.T) {
	reg := seedRegistry()

	d, err := reg.GetConfig("DERMA")
	require.NoError(t, err)
	assert.Equal(t, "3", d.ID)
	assert.True(t, d.RequiredShifts.Has(reporting.Afternoon))
	assert.False(t, d.RequiredShifts.Has(reporting.Night))

	_, err = reg.GetConfig("CARDIO")
	assert.ErrorIs(t, err, reporting.ErrConfigNotFound)

	byID, err := reg.GetByID("8")
	require.NoError(t, err)
	assert.Equal(t, "OPTHALMO", byID.Name)
	_, err = reg.GetByID("404")
	assert.ErrorIs(t, err, reporting.ErrConfigNotFound)
	assert.True(t, reg.RequiredShifts("CARDIO").IsEmpty())
	assert.True(t, reg.RequiredShifts("OPTHALMO").IsEmpty())
}

func TestRegistry_ListActiveKeepsInsertionOrder(t *testing.T) {
	reg := seedRegistry()

	var names []string
	for _, d := range reg.ListActive() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"RESUS", "DERMA", "ANC"}, names)
	assert.Len(t, reg.List(), 4)
}

func TestRegistry_UpsertRejectsDuplicateActiveName(t *testing.T) {
	reg := seedRegistry()

	err := reg.Upsert(reporting.Department{ID: "99", Name: "resus", IsActive: true})
	assert.ErrorIs(t, err, reporting.ErrDuplicateDepartmentName)

	// 停用科室可以与启用科室同名
	require.NoError(t, reg.Upsert(reporting.Department{ID: "99", Name: "RESUS", IsActive: false}))

	// 停用科室名称可被新科室复用
	require.NoError(t, reg.Upsert(reporting.Department{ID: "100", Name: "OPTHALMO", IsActive: true}))

	d, err := reg.GetConfig("OPTHALMO")
	require.NoError(t, err)
	assert.Equal(t, "100", d.ID)
}

func TestRegistry_UpsertReplacesInPlace(t *testing.T) {
	reg := seedRegistry()

	require.NoError(t, reg.Upsert(reporting.Department{ID: "3", Name: "DERMATOLOGY", RequiredShifts: reporting.NewShiftSet(reporting.Night), IsActive: true}))

	active := reg.ListActive()
	require.Len(t, active, 3)
	assert.Equal(t, "DERMATOLOGY", active[1].Name)

	_, err := reg.GetConfig("DERMA")
	assert.ErrorIs(t, err, reporting.ErrConfigNotFound)

	err = reg.Upsert(reporting.Department{ID: "", Name: "X"})
	assert.ErrorIs(t, err, reporting.ErrInvalidDepartment)
}

func TestRegistry_DeleteNeverBlocked(t *testing.T) {
	reg := seedRegistry()

	require.NoError(t, reg.Delete("1"))
	assert.Equal(t, 3, reg.Len())
	_, err := reg.GetConfig("RESUS")
	assert.ErrorIs(t, err, reporting.ErrConfigNotFound)

	assert.ErrorIs(t, reg.Delete("1"), reporting.ErrConfigNotFound)
}

func TestRegistry_SnapshotIsolated(t *testing.T) {
	reg := seedRegistry()
	snap := reg.Snapshot()

	require.NoError(t, reg.Delete("7"))
	require.NoError(t, reg.Upsert(reporting.Department{ID: "20", Name: "ENT", IsActive: true}))

	assert.Len(t, snap.ListActive(), 3)
	_, err := snap.GetConfig("ANC")
	assert.NoError(t, err)
	_, err = snap.GetConfig("ENT")
	assert.ErrorIs(t, err, reporting.ErrConfigNotFound)
}

func TestRegistry_Replace(t *testing.T) {
	reg := seedRegistry()

	require.NoError(t, reg.Replace([]reporting.Department{{ID: "5", Name: "SOPD", IsActive: true}}))
	assert.Equal(t, 1, reg.Len())

	err := reg.Replace([]reporting.Department{
		{ID: "a", Name: "ENT", IsActive: true},
		{ID: "b", Name: "ENT", IsActive: true},
	})
	assert.ErrorIs(t, err, reporting.ErrDuplicateDepartmentName)
	assert.Equal(t, 1, reg.Len(), "替换失败时保持原内容")
}

func TestRegistry_ConcurrentReaders(t *testing.T) {
	reg := seedRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = reg.ListActive()
				_, _ = reg.GetConfig("RESUS")
			}
		}()
	}
	for j := 0; j < 50; j++ {
		_ = reg.Upsert(reporting.Department{ID: "x", Name: "TMP", IsActive: j%2 == 0})
	}
	wg.Wait()
}

func TestShiftSet(t *testing.T) {
	set := reporting.NewShiftSet(reporting.Night, reporting.Morning, reporting.Morning)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []reporting.Shift{reporting.Morning, reporting.Night}, set.Shifts())
	assert.Equal(t, []string{"M", "N"}, set.Codes())

	set = set.Remove(reporting.Morning)
	assert.False(t, set.Has(reporting.Morning))
	assert.True(t, reporting.ShiftSet(0).IsEmpty())
	assert.Equal(t, 3, reporting.FullShiftSet().Len())

	raw, err := json.Marshal(reporting.NewShiftSet(reporting.Afternoon, reporting.Morning))
	require.NoError(t, err)
	assert.JSONEq(t, `["morning","afternoon"]`, string(raw))

	var decoded reporting.ShiftSet
	require.NoError(t, json.Unmarshal([]byte(`["N","afternoon"]`), &decoded))
	assert.Equal(t, reporting.NewShiftSet(reporting.Afternoon, reporting.Night), decoded)

	assert.Error(t, json.Unmarshal([]byte(`["evening"]`), &decoded))
}

func TestParseShift(t *testing.T) {
	cases := map[string]reporting.Shift{
		"morning": reporting.Morning, "M": reporting.Morning,
		"Afternoon": reporting.Afternoon, "a": reporting.Afternoon,
		"NIGHT": reporting.Night, "n": reporting.Night,
	}
	for in, want := range cases {
		got, err := reporting.ParseShift(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := reporting.ParseShift("evening")
	assert.ErrorIs(t, err, reporting.ErrInvalidShift)
}

func TestValidateReport(t *testing.T) {
	r := reporting.ShiftReport{Department: "RESUS", Date: day("2024-03-06"), Shift: reporting.Night}
	require.NoError(t, reporting.ValidateReport(&r))

	r.Counts.OPDCases = -1
	assert.ErrorIs(t, reporting.ValidateReport(&r), reporting.ErrInvalidReport)

	r.Counts.OPDCases = 0
	r.Department = " "
	assert.ErrorIs(t, reporting.ValidateReport(&r), reporting.ErrInvalidReport)

	r.Department = "RESUS"
	r.Shift = reporting.Shift(7)
	assert.ErrorIs(t, reporting.ValidateReport(&r), reporting.ErrInvalidShift)
}
