package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/playlist-bot/internal/catalog/spotify"
	"github.com/ytget/playlist-bot/internal/download"
	"github.com/ytget/playlist-bot/internal/messages"
	"github.com/ytget/playlist-bot/internal/model"
	"github.com/ytget/playlist-bot/internal/resolver"
)

type fakeResolver struct {
	tracks model.TrackList
	err    error
	panics bool
}

func (f *fakeResolver) Resolve(ctx context.Context, reference string) (string, model.TrackList, error) {
	if f.panics {
		panic("catalog exploded")
	}
	if f.err != nil {
		return "", nil, f.err
	}
	return "pl1", f.tracks, nil
}

// fakeMaterializer writes one file per track into workDir; titles listed in
// missing fail, titles listed in panics panic
type fakeMaterializer struct {
	mu      sync.Mutex
	missing map[string]bool
	panics  map[string]bool
	created []string

	// interrupt cancels the run while the track titled interruptOn downloads
	interrupt   context.CancelFunc
	interruptOn string
}

func (f *fakeMaterializer) Materialize(ctx context.Context, track model.TrackDescriptor, workDir string) (*model.AudioArtifact, error) {
	if f.panics[track.Title] {
		panic("extractor exploded")
	}
	if f.interrupt != nil && track.Title == f.interruptOn {
		f.interrupt()
		<-ctx.Done()
		return nil, &download.MaterializationError{Track: track}
	}
	if f.missing[track.Title] {
		return nil, &download.MaterializationError{Track: track}
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(workDir, track.Title+".mp3")
	if err := os.WriteFile(path, []byte(track.Query()), 0644); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.created = append(f.created, path)
	f.mu.Unlock()

	artifact := model.NewAudioArtifact(path)
	return &artifact, nil
}

type recordingProgress struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (r *recordingProgress) Notify(ctx context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return r.err
}

// recordingDelivery notes which artifacts existed on disk when delivered
type recordingDelivery struct {
	delivered []string
	existed   []bool
	fail      map[string]bool
	panics    map[string]bool
	onDeliver func(model.AudioArtifact)
}

func (r *recordingDelivery) Deliver(ctx context.Context, artifact model.AudioArtifact) error {
	_, err := os.Stat(artifact.Path)
	r.existed = append(r.existed, err == nil)
	r.delivered = append(r.delivered, artifact.Title())
	if r.onDeliver != nil {
		r.onDeliver(artifact)
	}
	if r.panics[artifact.Title()] {
		panic("sink exploded")
	}
	if r.fail[artifact.Title()] {
		return errors.New("upload rejected")
	}
	return nil
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []string
	results  []model.TrackResult
	finished []model.RunSummary
}

func (o *recordingObserver) RunStarted(runID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, runID)
}

func (o *recordingObserver) TrackFinished(runID string, result model.TrackResult, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func (o *recordingObserver) RunFinished(summary model.RunSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, summary)
}

func threeTracks() model.TrackList {
	return model.TrackList{
		model.NewTrackDescriptor("Alpha", "One"),
		model.NewTrackDescriptor("Beta", "Two"),
		model.NewTrackDescriptor("Gamma", "Three"),
	}
}

func newTestPipeline(t *testing.T, r Resolver, m download.Materializer, obs Observer) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	p := NewPipeline(zerolog.Nop(), r, m, Options{
		WorkDir:  dir,
		Messages: messages.NewCatalog("en"),
		Observer: obs,
	})
	return p, dir
}

func assertNoFiles(t *testing.T, paths []string) {
	t.Helper()
	for _, path := range paths {
		_, err := os.Stat(path)
		assert.Truef(t, os.IsNotExist(err), "artifact %s should be removed", path)
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "work directory should hold nothing after the run")
}

func TestRunMissingTrack(t *testing.T) {
	mat := &fakeMaterializer{missing: map[string]bool{"Two": true}}
	progress := &recordingProgress{}
	delivery := &recordingDelivery{}
	p, dir := newTestPipeline(t, &fakeResolver{tracks: threeTracks()}, mat, nil)

	summary := p.Run(context.Background(), "https://open.spotify.com/playlist/pl1", progress, delivery)

	assert.Equal(t, model.RunStateCompleted, summary.State)
	assert.Equal(t, "pl1", summary.PlaylistID)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Delivered)
	assert.Equal(t, 1, summary.LocateFailed)
	assert.Equal(t, 0, summary.DeliveryFailed)
	assert.False(t, summary.Cancelled)
	assert.False(t, summary.ResolutionFailed)

	assert.Equal(t, []string{
		"✅ Your playlist has 3 tracks. Starting download and delivery...",
		"(1/3) ⏳ Downloading: Alpha - One",
		"(2/3) ⏳ Downloading: Beta - Two",
		"⚠️ Sorry, I could not find or download 'Beta - Two'.",
		"(3/3) ⏳ Downloading: Gamma - Three",
		"🎉 Done! All tracks have been processed.",
	}, progress.messages)

	assert.Equal(t, []string{"One", "Three"}, delivery.delivered)
	assert.Equal(t, []bool{true, true}, delivery.existed)
	assert.Len(t, mat.created, 2)
	assertNoFiles(t, mat.created)
	assertEmptyDir(t, dir)
}

func TestRunPreservesOrder(t *testing.T) {
	tracks := model.TrackList{}
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		tracks = append(tracks, model.NewTrackDescriptor("X", title))
	}
	delivery := &recordingDelivery{}
	p, _ := newTestPipeline(t, &fakeResolver{tracks: tracks}, &fakeMaterializer{}, nil)

	summary := p.Run(context.Background(), "ref", nil, delivery)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, delivery.delivered)
	require.Len(t, summary.Outcomes, 5)
	for i, res := range summary.Outcomes {
		assert.Equal(t, i+1, res.Index)
		assert.Equal(t, tracks[i], res.Track)
	}
}

func TestRunResolutionFailure(t *testing.T) {
	// A real catalog rejects the ID before any network call
	catalog, err := spotify.New(context.Background(), zerolog.Nop(), spotify.Credentials{ClientID: "id", ClientSecret: "secret"})
	require.NoError(t, err)
	res := resolver.NewResolver(zerolog.Nop(), catalog)

	mat := &fakeMaterializer{}
	progress := &recordingProgress{}
	delivery := &recordingDelivery{}
	obs := &recordingObserver{}
	p, dir := newTestPipeline(t, res, mat, obs)

	summary := p.Run(context.Background(), "not-a-real-id", progress, delivery)

	assert.Equal(t, model.RunStateResolutionFailed, summary.State)
	assert.True(t, summary.ResolutionFailed)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0, summary.Attempted())
	assert.Equal(t, []string{
		"Error! I could not extract the tracks of this playlist. Please make sure the playlist is public and the link is correct.",
	}, progress.messages)
	assert.Empty(t, mat.created)
	assert.Empty(t, delivery.delivered)
	assert.Len(t, obs.finished, 1)
	assertEmptyDir(t, dir)
}

func TestRunResolverPanic(t *testing.T) {
	progress := &recordingProgress{}
	p, _ := newTestPipeline(t, &fakeResolver{panics: true}, &fakeMaterializer{}, nil)

	summary := p.Run(context.Background(), "ref", progress, &recordingDelivery{})

	assert.Equal(t, model.RunStateResolutionFailed, summary.State)
	assert.Len(t, progress.messages, 1)
}

func TestRunDeliveryFailureStillRemovesArtifact(t *testing.T) {
	mat := &fakeMaterializer{}
	progress := &recordingProgress{}
	delivery := &recordingDelivery{fail: map[string]bool{"One": true}}
	p, dir := newTestPipeline(t, &fakeResolver{tracks: threeTracks()}, mat, nil)

	summary := p.Run(context.Background(), "ref", progress, delivery)

	assert.Equal(t, 2, summary.Delivered)
	assert.Equal(t, 1, summary.DeliveryFailed)
	assert.Equal(t, 0, summary.LocateFailed)
	assert.Equal(t, model.TrackOutcomeDeliveryFailed, summary.Outcomes[0].Outcome)
	assert.Contains(t, summary.Outcomes[0].Error, "upload rejected")
	assert.Contains(t, progress.messages, "❌ Error sending track: Alpha - One")
	assert.Equal(t, []string{"One", "Two", "Three"}, delivery.delivered)
	assert.Len(t, mat.created, 3)
	assertNoFiles(t, mat.created)
	assertEmptyDir(t, dir)
}

func TestRunRecoversPanics(t *testing.T) {
	mat := &fakeMaterializer{panics: map[string]bool{"One": true}}
	delivery := &recordingDelivery{panics: map[string]bool{"Two": true}}
	p, dir := newTestPipeline(t, &fakeResolver{tracks: threeTracks()}, mat, nil)

	var summary model.RunSummary
	require.NotPanics(t, func() {
		summary = p.Run(context.Background(), "ref", &recordingProgress{}, delivery)
	})

	assert.Equal(t, model.RunStateCompleted, summary.State)
	assert.Equal(t, 1, summary.LocateFailed)
	assert.Equal(t, 1, summary.DeliveryFailed)
	assert.Equal(t, 1, summary.Delivered)
	assert.Contains(t, summary.Outcomes[0].Error, "panic")
	assertNoFiles(t, mat.created)
	assertEmptyDir(t, dir)
}

func TestRunIgnoresProgressErrors(t *testing.T) {
	progress := &recordingProgress{err: errors.New("chat unreachable")}
	p, _ := newTestPipeline(t, &fakeResolver{tracks: threeTracks()}, &fakeMaterializer{}, nil)

	summary := p.Run(context.Background(), "ref", progress, &recordingDelivery{})

	assert.Equal(t, 3, summary.Delivered)
	assert.Len(t, progress.messages, 5)
}

func TestRunProgressPanicDoesNotEscape(t *testing.T) {
	progress := ProgressFunc(func(ctx context.Context, message string) error {
		panic("progress exploded")
	})
	p, _ := newTestPipeline(t, &fakeResolver{tracks: threeTracks()}, &fakeMaterializer{}, nil)

	var summary model.RunSummary
	require.NotPanics(t, func() {
		summary = p.Run(context.Background(), "ref", progress, &recordingDelivery{})
	})
	assert.Equal(t, 3, summary.Delivered)
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mat := &fakeMaterializer{}
	progress := &recordingProgress{}
	delivery := &recordingDelivery{onDeliver: func(model.AudioArtifact) { cancel() }}
	p, dir := newTestPipeline(t, &fakeResolver{tracks: threeTracks()}, mat, nil)

	summary := p.Run(ctx, "ref", progress, delivery)

	assert.Equal(t, model.RunStateCompleted, summary.State)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.Attempted())
	assert.Equal(t, []string{"One"}, delivery.delivered)
	assert.Equal(t, "⏹ Stopped before the end of the playlist.", progress.messages[len(progress.messages)-1])
	assertNoFiles(t, mat.created)
	assertEmptyDir(t, dir)
}

func TestRunCancelledDuringDownload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mat := &fakeMaterializer{interrupt: cancel, interruptOn: "Two"}
	progress := &recordingProgress{}
	delivery := &recordingDelivery{}
	obs := &recordingObserver{}
	p, dir := newTestPipeline(t, &fakeResolver{tracks: threeTracks()}, mat, obs)

	summary := p.Run(ctx, "ref", progress, delivery)

	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.Attempted())
	assert.Equal(t, 1, summary.Delivered)
	assert.Equal(t, 0, summary.LocateFailed)
	assert.Len(t, obs.results, 1)
	assert.Equal(t, []string{
		"✅ Your playlist has 3 tracks. Starting download and delivery...",
		"(1/3) ⏳ Downloading: Alpha - One",
		"(2/3) ⏳ Downloading: Beta - Two",
		"⏹ Stopped before the end of the playlist.",
	}, progress.messages)
	assertNoFiles(t, mat.created)
	assertEmptyDir(t, dir)
}

func TestRunEmptyPlaylist(t *testing.T) {
	progress := &recordingProgress{}
	p, _ := newTestPipeline(t, &fakeResolver{tracks: model.TrackList{}}, &fakeMaterializer{}, nil)

	summary := p.Run(context.Background(), "ref", progress, &recordingDelivery{})

	assert.Equal(t, model.RunStateCompleted, summary.State)
	assert.False(t, summary.Cancelled)
	assert.Equal(t, []string{
		"✅ Your playlist has 0 tracks. Starting download and delivery...",
		"🎉 Done! All tracks have been processed.",
	}, progress.messages)
}

func TestRunRemovesLeftovers(t *testing.T) {
	var runDir string
	mat := download.Materializer(materializerFunc(func(ctx context.Context, track model.TrackDescriptor, workDir string) (*model.AudioArtifact, error) {
		runDir = workDir
		require.NoError(t, os.MkdirAll(workDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(workDir, "half.webm.part"), []byte("x"), 0644))
		return nil, &download.MaterializationError{Track: track}
	}))
	p, dir := newTestPipeline(t, &fakeResolver{tracks: threeTracks()[:1]}, mat, nil)

	summary := p.Run(context.Background(), "ref", nil, &recordingDelivery{})

	assert.Equal(t, 1, summary.LocateFailed)
	assert.NotEmpty(t, runDir)
	assertEmptyDir(t, dir)
}

func TestRunObserver(t *testing.T) {
	obs := &recordingObserver{}
	mat := &fakeMaterializer{missing: map[string]bool{"Three": true}}
	p, _ := newTestPipeline(t, &fakeResolver{tracks: threeTracks()}, mat, obs)

	summary := p.Run(context.Background(), "ref", nil, &recordingDelivery{})

	require.Len(t, obs.started, 1)
	assert.Equal(t, summary.RunID, obs.started[0])
	require.Len(t, obs.results, 3)
	assert.Equal(t, model.TrackOutcomeLocateFailed, obs.results[2].Outcome)
	require.Len(t, obs.finished, 1)
	assert.Equal(t, summary.Delivered, obs.finished[0].Delivered)
}

func TestRunNilDeliverySink(t *testing.T) {
	mat := &fakeMaterializer{}
	p, _ := newTestPipeline(t, &fakeResolver{tracks: threeTracks()}, mat, nil)

	summary := p.Run(context.Background(), "ref", nil, nil)

	assert.Equal(t, 3, summary.DeliveryFailed)
	assertNoFiles(t, mat.created)
}

func TestConcurrentRunsUseSeparateDirectories(t *testing.T) {
	mat := &fakeMaterializer{}
	p, dir := newTestPipeline(t, &fakeResolver{tracks: threeTracks()}, mat, nil)

	var wg sync.WaitGroup
	summaries := make([]model.RunSummary, 4)
	for i := range summaries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			summaries[i] = p.Run(context.Background(), "ref", nil, DeliveryFunc(func(context.Context, model.AudioArtifact) error {
				return nil
			}))
		}(i)
	}
	wg.Wait()

	ids := map[string]bool{}
	for _, s := range summaries {
		assert.Equal(t, 3, s.Delivered)
		ids[s.RunID] = true
	}
	assert.Len(t, ids, 4)
	assertNoFiles(t, mat.created)
	assertEmptyDir(t, dir)
}

type materializerFunc func(ctx context.Context, track model.TrackDescriptor, workDir string) (*model.AudioArtifact, error)

func (f materializerFunc) Materialize(ctx context.Context, track model.TrackDescriptor, workDir string) (*model.AudioArtifact, error) {
	return f(ctx, track, workDir)
}
