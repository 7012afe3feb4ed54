package vits

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/speechgate/internal/backend"
	"github.com/ekisa-team/speechgate/internal/config"
)

var testVocab = map[string]int64{"_": 0, "a": 1, "b": 2, " ": 3, "с": 4, "а": 5}

func TestTokenizer_InterleavesBlank(t *testing.T) {
	tok := NewTokenizer(testVocab, TokenizerOptions{AddBlank: true, LowerCase: true})

	ids, err := tok.Encode("AB a")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 0, 2, 0, 3, 0, 1, 0}, ids)
}

func TestTokenizer_DropsUnknownCharacters(t *testing.T) {
	tok := NewTokenizer(testVocab, TokenizerOptions{})

	ids, err := tok.Encode("a?b!С")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestTokenizer_Cyrillic(t *testing.T) {
	tok := NewTokenizer(testVocab, TokenizerOptions{LowerCase: true})

	ids, err := tok.Encode("Са")
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, ids)
}

func TestTokenizer_NothingKnown(t *testing.T) {
	tok := NewTokenizer(testVocab, TokenizerOptions{AddBlank: true})

	ids, err := tok.Encode("???")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTokenizer_InvalidUTF8(t *testing.T) {
	tok := NewTokenizer(testVocab, TokenizerOptions{})

	_, err := tok.Encode(string([]byte{0xff, 0xfe}))
	assert.Error(t, err)
}

func writeCheckpoint(t *testing.T, dir string, tokenizerConfig, modelConfig string) {
	t.Helper()

	vocab, err := json.Marshal(testVocab)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, vocabFile), vocab, 0o644))
	if tokenizerConfig != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, tokenizerConfigFile), []byte(tokenizerConfig), 0o644))
	}
	if modelConfig != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, modelConfigFile), []byte(modelConfig), 0o644))
	}
}

func TestLoadTokenizer(t *testing.T) {
	dir := t.TempDir()
	writeCheckpoint(t, dir, `{"add_blank": false, "do_lower_case": false, "pad_token": "_"}`, "")

	tok, err := LoadTokenizer(dir)
	require.NoError(t, err)

	ids, err := tok.Encode("Ab")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestLoadTokenizer_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeCheckpoint(t, dir, "", "")

	tok, err := LoadTokenizer(dir)
	require.NoError(t, err)

	ids, err := tok.Encode("A")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 0}, ids)
}

func TestLoadTokenizer_MissingVocab(t *testing.T) {
	_, err := LoadTokenizer(t.TempDir())
	assert.ErrorIs(t, err, backend.ErrInvalidModelFiles)
}

func newRunner(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /forward", handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunnerModel_Forward(t *testing.T) {
	srv := newRunner(t, func(w http.ResponseWriter, r *http.Request) {
		var req forwardRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []int64{0, 1, 0}, req.InputIDs)

		_ = json.NewEncoder(w).Encode(forwardResponse{Waveform: []float32{0.1, -0.2}, SamplingRate: 16000})
	})

	m := NewRunnerModel(srv.Client(), srv.URL, 22050, nil)
	wf, err := m.Forward(context.Background(), []int64{0, 1, 0})

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, -0.2}, wf.Samples)
	assert.Equal(t, 16000, wf.SampleRate)
	assert.NoError(t, m.Close())
}

func TestRunnerModel_FallsBackToCheckpointRate(t *testing.T) {
	srv := newRunner(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"waveform":[0.5]}`))
	})

	wf, err := NewRunnerModel(nil, srv.URL, 24000, nil).Forward(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 24000, wf.SampleRate)
}

func TestRunnerModel_ErrorStatus(t *testing.T) {
	srv := newRunner(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
	})

	_, err := NewRunnerModel(srv.Client(), srv.URL, 0, nil).Forward(context.Background(), []int64{1})
	assert.ErrorContains(t, err, "status 500: CUDA out of memory")
}

type MockDownloader struct {
	mock.Mock
}

func (m *MockDownloader) Download(ctx context.Context, mc *config.ModelConfig, targetDir string) (string, bool, error) {
	args := m.Called(mc.SourceID(), targetDir)
	return args.String(0), args.Bool(1), args.Error(2)
}

type MockLauncher struct {
	mock.Mock
}

func (m *MockLauncher) StartServer(ctx context.Context, cfg backend.ServerConfig) (string, error) {
	args := m.Called(cfg)
	return args.String(0), args.Error(1)
}

func (m *MockLauncher) StopServer(name string, port int) error {
	return m.Called(name, port).Error(0)
}

func monModel() *config.ModelConfig {
	var m config.ModelConfig
	m.SetHuggingFaceSource(config.HuggingFaceSource{Repo: "facebook/mms-tts-mon"})
	return &m
}

func TestLoader_Load(t *testing.T) {
	modelsDir := t.TempDir()
	ckpt := filepath.Join(modelsDir, "facebook", "mms-tts-mon")
	writeCheckpoint(t, ckpt, `{"add_blank": true, "do_lower_case": true}`, `{"sampling_rate": 16000}`)

	srv := newRunner(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"waveform":[0.25,-0.5]}`))
	})

	downloader := new(MockDownloader)
	downloader.On("Download", "facebook/mms-tts-mon", modelsDir).Return(ckpt, true, nil).Once()

	launcher := new(MockLauncher)
	launcher.On("StartServer", backend.ServerConfig{
		Name:         "vits-mon",
		BinPath:      "/opt/runner",
		Args:         []string{"--model", ckpt, "--port", "18100", "--device", "cpu"},
		Port:         18100,
		ReadyTimeout: time.Minute,
	}).Return(srv.URL, nil).Once()
	launcher.On("StopServer", "vits-mon", 18100).Return(nil).Once()

	loader := NewLoader(downloader, launcher, config.RunnerConfig{
		BinPath:      "/opt/runner",
		Device:       "cpu",
		BasePort:     18100,
		ReadyTimeout: time.Minute,
	}, modelsDir)
	assert.Equal(t, backend.BackendProviderVITS, loader.Provider())

	sess, err := loader.Load(context.Background(), "mon", monModel())
	require.NoError(t, err)

	ids, err := sess.Tokenizer.Encode("A")
	require.NoError(t, err)

	wf, err := sess.Model.Forward(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 16000, wf.SampleRate)
	assert.Len(t, wf.Samples, 2)

	require.NoError(t, sess.Close())
	downloader.AssertExpectations(t)
	launcher.AssertExpectations(t)
}

func TestLoader_PortsAreNotReused(t *testing.T) {
	modelsDir := t.TempDir()
	ckpt := filepath.Join(modelsDir, "ckpt")
	writeCheckpoint(t, ckpt, "", "")

	downloader := new(MockDownloader)
	downloader.On("Download", mock.Anything, modelsDir).Return(ckpt, false, nil)

	var ports []int
	launcher := new(MockLauncher)
	launcher.On("StartServer", mock.Anything).Run(func(args mock.Arguments) {
		ports = append(ports, args.Get(0).(backend.ServerConfig).Port)
	}).Return("http://127.0.0.1:1", nil)

	loader := NewLoader(downloader, launcher, config.RunnerConfig{BasePort: 19000}, modelsDir)
	_, err := loader.Load(context.Background(), "mon", monModel())
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), "eng", monModel())
	require.NoError(t, err)

	assert.Equal(t, []int{19000, 19001}, ports)
}

func TestLoader_DownloadFailure(t *testing.T) {
	downloader := new(MockDownloader)
	downloader.On("Download", mock.Anything, mock.Anything).Return("", false, errors.New("network unreachable"))
	launcher := new(MockLauncher)

	_, err := NewLoader(downloader, launcher, config.RunnerConfig{}, t.TempDir()).Load(context.Background(), "mon", monModel())

	assert.ErrorContains(t, err, "network unreachable")
	launcher.AssertNotCalled(t, "StartServer", mock.Anything)
}

func TestLoader_RunnerFailure(t *testing.T) {
	modelsDir := t.TempDir()
	writeCheckpoint(t, modelsDir, "", "")

	downloader := new(MockDownloader)
	downloader.On("Download", mock.Anything, mock.Anything).Return(modelsDir, true, nil)
	launcher := new(MockLauncher)
	launcher.On("StartServer", mock.Anything).Return("", backend.ErrServerNotReady)

	_, err := NewLoader(downloader, launcher, config.RunnerConfig{}, modelsDir).Load(context.Background(), "mon", monModel())
	assert.ErrorIs(t, err, backend.ErrServerNotReady)
}
