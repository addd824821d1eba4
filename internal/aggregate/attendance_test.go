package aggregate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAttendance_FoldsAltIntoMain(t *testing.T) {
	// Given four raids where Bob attended two and Bobalt one
	reports := seq(
		raid("a", 10, "Bob", "Ann"),
		raid("b", 20, "Bob", "Ann"),
		raid("c", 30, "Bobalt", "Ann"),
		raid("d", 40, "Ann"),
	)
	aliases := AliasMap{"Bob": {"Bobalt"}}

	// When attendance is built
	res, err := BuildAttendance(reports, NewReportFilter(Unbounded(), nil), aliases)

	// Then Bob is credited 3 of 4 raids and the alt disappears
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalRaids)
	assert.Equal(t, []string{"Ann: 100%", "Bob: 75%"}, res.Lines())
	for _, e := range res.Entries {
		assert.False(t, aliases.IsAlias(e.Name), "alias %q left in result", e.Name)
	}
}

func TestBuildAttendance_NoQualifyingRaids(t *testing.T) {
	// Given an encounter that never occurred in the zone
	relevant, err := RelevantReports(seq(
		Report{ID: "a", Fights: []Fight{{ID: 1, EncounterID: 601}}},
	), 618)
	require.NoError(t, err)
	require.Empty(t, relevant)

	// When attendance is restricted to that empty set
	_, err = BuildAttendance(
		seq(raid("a", 10, "Bob")),
		NewReportFilter(Unbounded(), relevant),
		nil,
	)

	// Then the run reports no data rather than dividing by zero
	assert.ErrorIs(t, err, ErrNoQualifyingRaids)
}

func TestBuildAttendance_EmptyZoneIsNoQualifyingRaids(t *testing.T) {
	_, err := BuildAttendance(seq(), NewReportFilter(Unbounded(), nil), nil)

	assert.ErrorIs(t, err, ErrNoQualifyingRaids)
}

func TestBuildAttendance_PropagatesFetchError(t *testing.T) {
	fetchErr := errors.New("page 2: boom")

	_, err := BuildAttendance(failingSeq(fetchErr, raid("a", 1, "Bob")), NewReportFilter(Unbounded(), nil), nil)

	assert.ErrorIs(t, err, fetchErr)
}

func TestCountAttendance_SumMatchesListedPlayers(t *testing.T) {
	reports := []Report{
		raid("a", 1, "Ann", "Bob", "Cid"),
		raid("b", 2, "Ann"),
		raid("c", 3, "Bob", "Dee"),
	}

	tally, err := CountAttendance(seq(reports...), NewReportFilter(Unbounded(), nil))
	require.NoError(t, err)

	sum := 0
	for _, n := range tally.Counts() {
		sum += n
	}
	listed := 0
	for _, r := range reports {
		listed += len(r.Players)
	}
	assert.Equal(t, listed, sum)
	assert.Equal(t, 3, tally.TotalRaids)
}

func TestCountAttendance_FiltersWindowAndEncounter(t *testing.T) {
	w := TimeWindow{Start: 100, End: 200}
	relevant := ReportSet{"in": {}, "late": {}, "early": {}}

	tally, err := CountAttendance(seq(
		raid("early", 99, "Ann"),
		raid("in", 100, "Ann"),
		raid("late", 200, "Ann"),  // start equals end bound: excluded
		raid("other", 150, "Ann"), // not an encounter report
	), NewReportFilter(w, relevant))

	require.NoError(t, err)
	assert.Equal(t, 1, tally.TotalRaids)
	assert.Equal(t, map[string]int{"Ann": 1}, tally.Counts())
}

func TestCountAttendance_CountsReportOnce(t *testing.T) {
	tally, err := CountAttendance(seq(
		raid("a", 1, "Ann"),
		raid("a", 1, "Ann"),
	), NewReportFilter(Unbounded(), nil))

	require.NoError(t, err)
	assert.Equal(t, 1, tally.TotalRaids)
	assert.Equal(t, 1, tally.Counts()["Ann"])
}

func TestAttendanceTally_FoldIsIdempotent(t *testing.T) {
	aliases := AliasMap{"Bob": {"Bobalt", "Bobby"}, "Ann": {"Annie"}}
	tally, err := CountAttendance(seq(
		raid("a", 1, "Bob", "Annie"),
		raid("b", 2, "Bobalt", "Bobby", "Ann"),
	), NewReportFilter(Unbounded(), nil))
	require.NoError(t, err)

	tally.Fold(aliases)
	once := tally.Counts()
	tally.Fold(aliases)

	assert.Equal(t, once, tally.Counts())
	assert.Equal(t, map[string]int{"Bob": 3, "Ann": 2}, once)
}

func TestAttendanceTally_AltWithoutMainIsRenamed(t *testing.T) {
	res, err := BuildAttendance(seq(
		raid("a", 1, "Cid", "Bobalt"),
		raid("b", 2, "Cid"),
	), NewReportFilter(Unbounded(), nil), AliasMap{"Bob": {"Bobalt"}})

	require.NoError(t, err)
	assert.Equal(t, []string{"Cid: 100%", "Bob: 50%"}, res.Lines())
}

func TestAttendanceResult_TiesKeepFirstSeenOrder(t *testing.T) {
	res, err := BuildAttendance(seq(
		raid("a", 1, "Zed", "Amy", "Kim"),
		raid("b", 2, "Kim"),
	), NewReportFilter(Unbounded(), nil), nil)

	require.NoError(t, err)
	names := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Kim", "Zed", "Amy"}, names)
}

func TestAttendanceResult_PercentagesAreClamped(t *testing.T) {
	// A player listed twice on one report ends up above the raid total
	res, err := BuildAttendance(seq(
		raid("a", 1, "Ann", "Ann"),
	), NewReportFilter(Unbounded(), nil), nil)

	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, 100, res.Entries[0].Percentage)
	assert.True(t, res.Entries[0].Clamped)
	assert.Len(t, res.Clamped(), 1)

	for _, e := range res.Entries {
		assert.GreaterOrEqual(t, e.Percentage, 0)
		assert.LessOrEqual(t, e.Percentage, 100)
	}
}

func TestAttendanceResult_RoundsHalvesToEven(t *testing.T) {
	reports := []Report{
		raid("r1", 1, "Ann", "Bob", "Cid"),
		raid("r2", 2, "Ann", "Cid"),
		raid("r3", 3, "Ann", "Cid"),
		raid("r4", 4, "Ann", "Cid"),
		raid("r5", 5, "Ann", "Cid"),
		raid("r6", 6, "Ann"),
		raid("r7", 7, "Ann"),
		raid("r8", 8, "Ann"),
	}

	res, err := BuildAttendance(seq(reports...), NewReportFilter(Unbounded(), nil), nil)

	// 5/8 is 62.5% and 1/8 is 12.5%
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann: 100%", "Cid: 62%", "Bob: 12%"}, res.Lines())
}

func TestAttendanceResult_RoundsPercentage(t *testing.T) {
	res, err := BuildAttendance(seq(
		raid("a", 1, "Ann", "Bob"),
		raid("b", 2, "Ann"),
		raid("c", 3, "Ann"),
	), NewReportFilter(Unbounded(), nil), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"Ann: 100%", "Bob: 33%"}, res.Lines())
}
