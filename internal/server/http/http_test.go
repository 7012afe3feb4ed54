package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/speechgate/internal/config"
	"github.com/ekisa-team/speechgate/internal/model"
	"github.com/ekisa-team/speechgate/internal/service"
	"github.com/ekisa-team/speechgate/internal/translate"
)

type fakeSynthesizer struct {
	err   error
	calls atomic.Int32
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text, languageID string) (*model.Synthesis, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if languageID != "mon" && languageID != "eng" {
		return nil, &model.UnsupportedLanguageError{LanguageID: languageID}
	}
	return &model.Synthesis{Samples: []float32{0, 0.25, -0.5, 0.5}, SampleRate: 16000}, nil
}

func (f *fakeSynthesizer) Languages() []model.LanguageInfo {
	return []model.LanguageInfo{
		{ID: "eng", Source: "facebook/mms-tts-eng", Backend: "vits", Status: model.ModelStatusUnloaded},
		{ID: "mon", Source: "facebook/mms-tts-mon", Backend: "vits", Status: model.ModelStatusUnloaded},
	}
}

type fakeTranslator struct {
	err        error
	calls      atomic.Int32
	sourceLang string
	targetLang string
}

func (f *fakeTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	f.calls.Add(1)
	f.sourceLang, f.targetLang = sourceLang, targetLang
	if f.err != nil {
		return "", f.err
	}
	return "Hello", nil
}

func (f *fakeTranslator) Provider() string {
	return "fake"
}

func newTestAPI(t *testing.T, synth *fakeSynthesizer, tr *fakeTranslator) humatest.TestAPI {
	t.Helper()

	_, api := humatest.New(t, NewAPIConfig("test"))
	NewTTSHandler(api, service.NewTTS(synth))
	NewTranslateHandler(api, service.NewTranslation(tr, nil))
	NewLanguagesHandler(api, synth)

	return api
}

func decodeProblem(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body.Bytes(), &problem))
	return problem
}

func TestTTS_ReturnsWAV(t *testing.T) {
	synth := &fakeSynthesizer{}
	api := newTestAPI(t, synth, &fakeTranslator{})

	resp := api.Post("/tts", map[string]any{"text": "Сайн байна уу", "language_id": "mon"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "audio/wav", resp.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="tts.wav"`, resp.Header().Get("Content-Disposition"))

	data := resp.Body.Bytes()
	assert.Equal(t, "RIFF", string(data[0:4]))

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, 16000, buf.Format.SampleRate)
	assert.Equal(t, []int{0, 16383, -32767, 32767}, buf.Data)
}

func TestTTS_DefaultLanguage(t *testing.T) {
	api := newTestAPI(t, &fakeSynthesizer{}, &fakeTranslator{})

	resp := api.Post("/tts", map[string]any{"text": "hello"})
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestTTS_BlankText(t *testing.T) {
	synth := &fakeSynthesizer{}
	api := newTestAPI(t, synth, &fakeTranslator{})

	for _, body := range []map[string]any{
		{"text": ""},
		{"text": "   "},
		{"language_id": "eng"},
	} {
		resp := api.Post("/tts", body)
		assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	}
	assert.Equal(t, int32(0), synth.calls.Load())
}

func TestTTS_UnsupportedLanguage(t *testing.T) {
	api := newTestAPI(t, &fakeSynthesizer{}, &fakeTranslator{})

	resp := api.Post("/tts", map[string]any{"text": "hi", "language_id": "xx"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeProblem(t, resp.Body)["detail"], "language 'xx' is not supported")
}

func TestTTS_SynthesisFailure(t *testing.T) {
	synth := &fakeSynthesizer{err: fmt.Errorf("%w: runner crashed", model.ErrSynthesisFailure)}
	api := newTestAPI(t, synth, &fakeTranslator{})

	resp := api.Post("/tts", map[string]any{"text": "hi", "language_id": "mon"})
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, decodeProblem(t, resp.Body)["detail"], "runner crashed")
}

func TestTTS_LoadFailure(t *testing.T) {
	synth := &fakeSynthesizer{err: fmt.Errorf("%w for 'mon': download failed", model.ErrLoadFailure)}
	api := newTestAPI(t, synth, &fakeTranslator{})

	resp := api.Post("/tts", map[string]any{"text": "hi"})
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestTranslate_Success(t *testing.T) {
	tr := &fakeTranslator{}
	api := newTestAPI(t, &fakeSynthesizer{}, tr)

	resp := api.Post("/translate", map[string]any{"text": "Сайн байна уу"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out TranslateResponseDTO
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "Hello", out.Translated)
	assert.Equal(t, "auto", tr.sourceLang)
	assert.Equal(t, "en", tr.targetLang)
}

func TestTranslate_BlankTextSkipsUpstream(t *testing.T) {
	tr := &fakeTranslator{}
	api := newTestAPI(t, &fakeSynthesizer{}, tr)

	resp := api.Post("/translate", map[string]any{"text": " ", "target_lang": "fr"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, int32(0), tr.calls.Load())
}

func TestTranslate_UpstreamFailure(t *testing.T) {
	tr := &fakeTranslator{err: fmt.Errorf("%w: status 503", translate.ErrUpstream)}
	api := newTestAPI(t, &fakeSynthesizer{}, tr)

	resp := api.Post("/translate", map[string]any{"text": "hi"})
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestTranslate_OtherFailure(t *testing.T) {
	tr := &fakeTranslator{err: errors.New("decode response: unexpected EOF")}
	api := newTestAPI(t, &fakeSynthesizer{}, tr)

	resp := api.Post("/translate", map[string]any{"text": "hi"})
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, decodeProblem(t, resp.Body)["detail"], "unexpected EOF")
}

func TestLanguagesAndHealth(t *testing.T) {
	api := newTestAPI(t, &fakeSynthesizer{}, &fakeTranslator{})

	resp := api.Get("/languages")
	require.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Languages []model.LanguageInfo `json:"languages"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Len(t, out.Languages, 2)
	assert.Equal(t, "eng", out.Languages[0].ID)
	assert.Equal(t, model.ModelStatusUnloaded, out.Languages[0].Status)

	resp = api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"ok"`)
}

func newTestServer(synth *fakeSynthesizer) *Server {
	srv := NewServer(config.ServerConfig{
		HTTPPort:       0,
		AllowedOrigins: config.DefaultAllowedOrigins,
	}, "test")
	NewTTSHandler(srv.API(), service.NewTTS(synth))
	NewLanguagesHandler(srv.API(), synth)
	return srv
}

func TestServer_CORSPreflight(t *testing.T) {
	srv := newTestServer(&fakeSynthesizer{})

	req := httptest.NewRequest(http.MethodOptions, "/tts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestServer_CORSExposesContentDisposition(t *testing.T) {
	srv := newTestServer(&fakeSynthesizer{})

	req := httptest.NewRequest(http.MethodPost, "/tts", bytes.NewBufferString(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://translator.souravrax.com")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://translator.souravrax.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestServer_CORSRejectsUnknownOrigin(t *testing.T) {
	srv := newTestServer(&fakeSynthesizer{})

	req := httptest.NewRequest(http.MethodOptions, "/tts", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RequestID(t *testing.T) {
	srv := newTestServer(&fakeSynthesizer{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestServer_CORSEmptyOriginListIsNotWildcard(t *testing.T) {
	srv := NewServer(config.ServerConfig{AllowedOrigins: []string{}}, "test")
	NewLanguagesHandler(srv.API(), &fakeSynthesizer{})

	req := httptest.NewRequest(http.MethodOptions, "/tts", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/tts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
