package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumecraft/internal/types"
)

func newResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		TailoredResume: types.TailoredResumeData{
			FullName: "Ada Lovelace",
			JobTitle: "Engineer",
			Summary:  "Engineer",
			Skills:   []string{"Go"},
		},
		ATSScore:            60,
		ATSScoreExplanation: "Decent match",
		KeywordGaps:         []types.KeywordGap{{Keyword: "Python", Reason: "Not mentioned"}},
	}
}

func TestStore_LoadNormalizesAndVersions(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Snapshot().Loaded())

	snap := s.Load(newResult(), "Go developer wanted", "")
	require.True(t, snap.Loaded())
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.NotNil(t, snap.Document.Projects, "optional arrays should be normalized on load")
	assert.Equal(t, "Go developer wanted", snap.JobDescription)
}

func TestStore_ApplyScoreKeepsDocumentIdentity(t *testing.T) {
	s := NewStore()
	loaded := s.Load(newResult(), "jd", "")

	snap, err := s.ApplyScore(loaded.Document, types.ScoreResult{ATSScore: 72, ATSScoreExplanation: "Better"})
	require.NoError(t, err)

	assert.Same(t, loaded.Document, snap.Document)
	assert.Equal(t, 72, snap.Result.ATSScore)
	assert.Equal(t, 60, loaded.Result.ATSScore, "previous snapshot must not change")
	assert.Greater(t, snap.Version, loaded.Version)
}

func TestStore_ApplyScoreForReplacedDocumentIsStale(t *testing.T) {
	s := NewStore()
	loaded := s.Load(newResult(), "jd", "")

	replacement := *loaded.Document
	replacement.Summary = "Senior Engineer"
	_, err := s.Commit(loaded, &replacement, nil)
	require.NoError(t, err)

	_, err = s.ApplyScore(loaded.Document, types.ScoreResult{ATSScore: 99})
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, 60, s.Snapshot().Result.ATSScore)
}

func TestStore_CommitIsAtomicCompareAndSwap(t *testing.T) {
	s := NewStore()
	loaded := s.Load(newResult(), "jd", "")

	doc := *loaded.Document
	doc.Skills = []string{"Go", "Python"}

	snap, err := s.Commit(loaded, &doc, func(next *types.AnalysisResult) {
		next.ATSScore = 75
		next.KeywordGaps = []types.KeywordGap{}
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Python"}, snap.Result.TailoredResume.Skills)
	assert.Equal(t, 75, snap.Result.ATSScore)
	assert.Empty(t, snap.Result.KeywordGaps)
	assert.Same(t, &doc, snap.Document)

	// A second commit against the old snapshot is rejected and changes nothing.
	_, err = s.Commit(loaded, &doc, func(next *types.AnalysisResult) { next.ATSScore = 1 })
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, 75, s.Snapshot().Result.ATSScore)
}

func TestStore_ResetInvalidatesInFlightResults(t *testing.T) {
	s := NewStore()
	loaded := s.Load(newResult(), "jd", "")
	s.Reset()

	_, err := s.ApplyScore(loaded.Document, types.ScoreResult{ATSScore: 10})
	assert.ErrorIs(t, err, ErrNoResult)

	s.Load(newResult(), "jd", "")
	_, err = s.Commit(loaded, loaded.Document, nil)
	assert.ErrorIs(t, err, ErrStale)
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Load(newResult(), "jd", "")
	s.Reset()

	// Only the latest version is retained for a slow subscriber.
	assert.Equal(t, uint64(2), <-ch)

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}
