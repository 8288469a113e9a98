// Package app_test contains unit tests for the app package.
package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/trivia-archive/internal/app"
	"github.com/JakeFAU/trivia-archive/internal/archive"
	"github.com/JakeFAU/trivia-archive/internal/config"
	"github.com/JakeFAU/trivia-archive/internal/ingest"
)

const seasonPage = `<html><body><table>
<tr><td><a href="showgame.php?game_id=12">#2</a></td></tr>
<tr><td><a href="showgame.php?game_id=11">#1</a></td></tr>
</table></body></html>`

const gamePage = `<html><head><title>Show #100</title></head><body>
<div id="game_title"><h1>Show #100 - Air date: 2004-09-06</h1></div>
<div id="jeopardy_round"><table class="round">
 <tr><td class="category"><table><tr><td class="category_name">RUSSIAN HISTORY</td></tr></table></td></tr>
 <tr><td class="clue">
  <table class="clue_header"><tr><td class="clue_value">$200</td></tr></table>
  <table>
   <tr><td id="clue_J_1_1" class="clue_text">This grand duchess was rumored to survive</td></tr>
   <tr><td id="clue_J_1_1_r" class="clue_text"><em class="correct_response">Anastasia</em></td></tr>
  </table>
 </td></tr>
</table></div>
<div id="final_jeopardy_round"><table class="final_round">
 <tr><td id="clue_FJ" class="clue_text">Capital on the Seine</td></tr>
 <tr><td id="clue_FJ_r" class="clue_text"><em class="correct_response">Paris</em></td></tr>
</table></div>
</body></html>`

func newArchiveSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/showseason.php", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(seasonPage))
	})
	mux.HandleFunc("/showgame.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("game_id") != "11" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(gamePage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Source.BaseURL = baseURL
	cfg.Fetch.MinInterval = 0
	cfg.Fetch.MaxRetries = 0
	cfg.Cache.Driver = config.CacheMemory
	cfg.DB.Driver = config.DBSQLite
	cfg.DB.DSN = filepath.Join(t.TempDir(), "archive.sqlite3")
	cfg.Publish.Topic = ""
	return cfg
}

func TestNewIngestsAndServes(t *testing.T) {
	site := newArchiveSite(t)
	ctx := context.Background()

	a, err := app.New(ctx, testConfig(t, site.URL), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	report, err := a.Driver().IngestSeason(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12}, report.Attempted())
	assert.Equal(t, 1, report.Count(ingest.OutcomeOK))
	assert.Equal(t, 1, report.Count(ingest.OutcomeNotFound))

	board, err := a.Repository().LoadBoard(ctx, 11)
	require.NoError(t, err)
	require.Len(t, board.Rounds, 2)
	assert.Equal(t, archive.RoundFirst, board.Rounds[0].Round.Kind)
	assert.Equal(t, archive.FinalCategoryPlaceholder, board.Rounds[1].Categories[0].Category.Name)
	clue := board.Rounds[0].Categories[0].Clues[0]

	body, err := json.Marshal(map[string]string{"response": "Who is Anastasia?"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/clues/"+strconv.FormatInt(clue.ID, 10)+"/grade", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	a.APIServer().Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"correct":true`)

	again, err := a.Driver().IngestSeason(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, []int64{12}, again.Attempted(), "stored shows are skipped on the next run")
}

func TestNewMissingSchemaFile(t *testing.T) {
	site := newArchiveSite(t)
	cfg := testConfig(t, site.URL)
	cfg.DB.SchemaFile = filepath.Join(t.TempDir(), "missing.sql")

	_, err := app.New(context.Background(), cfg, zap.NewNop())
	require.ErrorIs(t, err, archive.ErrSchemaMissing)
}

func TestNewLocalCache(t *testing.T) {
	site := newArchiveSite(t)
	cfg := testConfig(t, site.URL)
	cfg.Cache.Driver = config.CacheLocal
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache_html")

	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	a.Close()
	a.Close()
}
