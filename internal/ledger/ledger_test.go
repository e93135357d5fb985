package ledger

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealradar/internal/models"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	l, err := NewLedger(conn)
	require.NoError(t, err)
	return l
}

func TestHasSeenUnknown(t *testing.T) {
	l := newTestLedger(t)
	seen, err := l.HasSeen("https://example.com/ad/1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMarkSeenThenHasSeen(t *testing.T) {
	l := newTestLedger(t)
	fp := "https://www.olx.pl/d/oferta/bmw-320d-ID6xyz.html"

	price := 42900.0
	err := l.MarkSeen(fp, Metadata{
		URL:          fp,
		Title:        "BMW 320d xDrive",
		PriceNumeric: &price,
		Reason:       models.ReasonScrape,
	})
	require.NoError(t, err)

	seen, err := l.HasSeen(fp)
	require.NoError(t, err)
	assert.True(t, seen)

	count, err := l.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMarkSeenInsertOrIgnore(t *testing.T) {
	l := newTestLedger(t)
	fp := "https://example.com/ad/7"

	first := 10000.0
	require.NoError(t, l.MarkSeen(fp, Metadata{
		Title:        "first",
		PriceNumeric: &first,
		Reason:       models.ReasonScrape,
	}))

	// Second insert for the same fingerprint is a silent no-op.
	second := 99999.0
	require.NoError(t, l.MarkSeen(fp, Metadata{
		Title:        "second",
		PriceNumeric: &second,
		Reason:       models.ReasonTop,
	}))

	count, err := l.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// First insert's data survives.
	var rec models.SeenRecord
	require.NoError(t, l.db.Where("ad_hash = ?", fp).First(&rec).Error)
	assert.Equal(t, "first", rec.Title)
	assert.Equal(t, models.ReasonScrape, rec.Reason)
	require.NotNil(t, rec.PriceNumeric)
	assert.Equal(t, 10000.0, *rec.PriceNumeric)
}

func TestMarkSeenEmptyFingerprint(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.MarkSeen("", Metadata{Title: "noise"}))

	count, err := l.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCountDistinct(t *testing.T) {
	l := newTestLedger(t)
	for _, fp := range []string{"a", "b", "c", "a", "b"} {
		require.NoError(t, l.MarkSeen(fp, Metadata{Reason: models.ReasonScrape}))
	}
	count, err := l.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
