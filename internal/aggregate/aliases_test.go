package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliasMap_Validate(t *testing.T) {
	cases := []struct {
		name    string
		aliases AliasMap
		wantErr string
	}{
		{name: "valid", aliases: AliasMap{"Bob": {"Bobalt"}, "Ann": {"Annie", "Anna"}}},
		{name: "empty", aliases: AliasMap{}},
		{name: "shared alias", aliases: AliasMap{"Bob": {"Alt"}, "Ann": {"Alt"}}, wantErr: "claimed by both"},
		{name: "alias is canonical", aliases: AliasMap{"Bob": {"Ann"}, "Ann": {"Annie"}}, wantErr: "also a canonical"},
		{name: "empty alias", aliases: AliasMap{"Bob": {""}}, wantErr: "empty alias"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.aliases.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestAliasMap_Canonical(t *testing.T) {
	aliases := AliasMap{"Bob": {"Bobalt"}}

	assert.Equal(t, "Bob", aliases.Canonical("Bobalt"))
	assert.Equal(t, "Bob", aliases.Canonical("Bob"))
	assert.Equal(t, "Ann", aliases.Canonical("Ann"))
	assert.True(t, aliases.IsAlias("Bobalt"))
	assert.False(t, aliases.IsAlias("Bob"))
	assert.Equal(t, 1, aliases.Len())
}

func TestRelevantReports(t *testing.T) {
	reports := seq(
		Report{ID: "a", Fights: []Fight{{ID: 1, EncounterID: 601}, {ID: 2, EncounterID: 602}}},
		Report{ID: "b", Fights: []Fight{{ID: 1, EncounterID: 618}}},
		Report{ID: "c"},
	)

	relevant, err := RelevantReports(reports, 601)

	require.NoError(t, err)
	assert.Equal(t, ReportSet{"a": {}}, relevant)
	assert.True(t, relevant.Has("a"))
	assert.False(t, relevant.Has("c"))
}

func TestRelevantReports_PropagatesFetchError(t *testing.T) {
	_, err := RelevantReports(failingSeq(ErrConnection), 601)

	assert.ErrorIs(t, err, ErrConnection)
}
