package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractShowIDs(t *testing.T) {
	t.Parallel()

	page := `<table>
<tr><td><a href="showgame.php?game_id=7001">#5000</a></td></tr>
<tr><td><a href="https://www.j-archive.com/showgame.php?game_id=6990">#4999</a></td></tr>
<tr><td><a href="showgame.php?game_id=7001">again</a></td></tr>
<tr><td><a href="showplayer.php?player_id=12">player</a></td></tr>
<tr><td><a>no href</a></td></tr>
</table>`

	ids, err := ExtractShowIDs([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, []int64{6990, 7001}, ids)
}

func TestExtractShowIDsEmptyPage(t *testing.T) {
	t.Parallel()

	ids, err := ExtractShowIDs([]byte("<html></html>"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}
