package munin

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgpwatch/munin-pgp-expiration/internal/snapshot"
)

func TestCleanFieldname(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"foo.bar@example.com", "foo_bar_example_com"},
		{"user+tag@example.org", "user_tag_example_org"},
		{"9lives@example.com", "_lives_example_com"},
		{"_already_fine", "_already_fine"},
		{"ümlaut@example.com", "_mlaut_example_com"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanFieldname(tc.in), "input %q", tc.in)
	}
}

func TestWriteConfig(t *testing.T) {
	snap := &snapshot.Snapshot{Outcomes: []snapshot.Outcome{
		snapshot.Days("alice@example.com", 30),
		snapshot.NoExpiration("bob@example.com"),
		snapshot.Failed("carol@example.com", "fetching credential: wkd server returned 404 Not Found"),
	}}

	var buf bytes.Buffer
	WriteConfig(&buf, snap)

	want := `graph_title OpenPGP key expiration
graph_vlabel days to expiration
_alice_example_com.label alice@example.com
_alice_example_com.warning 14:
_alice_example_com.critical 7:
_carol_example_com.label carol@example.com
_carol_example_com.warning 14:
_carol_example_com.critical 7:
_carol_example_com.extinfo fetching credential: wkd server returned 404 Not Found
`
	require.Equal(t, want, buf.String())
}

func TestWriteValues(t *testing.T) {
	snap := &snapshot.Snapshot{Outcomes: []snapshot.Outcome{
		snapshot.Days("alice@example.com", 30),
		snapshot.Days("dave@example.com", -3),
		snapshot.NoExpiration("bob@example.com"),
		snapshot.Failed("carol@example.com", "boom"),
	}}

	var buf bytes.Buffer
	WriteValues(&buf, snap)

	want := `_alice_example_com.value 30
_dave_example_com.value -3
_carol_example_com.value -999
`
	require.Equal(t, want, buf.String())
}

func TestWriteValuesZeroDays(t *testing.T) {
	snap := &snapshot.Snapshot{Outcomes: []snapshot.Outcome{
		snapshot.Days("alice@example.com", 0),
	}}

	var buf bytes.Buffer
	WriteValues(&buf, snap)
	assert.Equal(t, "_alice_example_com.value 0\n", buf.String())
}
