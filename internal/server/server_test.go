package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropfusion/cropfusion/internal/api/ui"
	"github.com/cropfusion/cropfusion/internal/catalog"
	"github.com/cropfusion/cropfusion/internal/crop"
	"github.com/cropfusion/cropfusion/internal/server"
	"github.com/cropfusion/cropfusion/internal/service"
)

type fakePredictor struct {
	mu    sync.Mutex
	label string
	err   error
	calls []crop.Vector
}

func (f *fakePredictor) Predict(_ context.Context, vec crop.Vector) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, vec)
	return f.label, f.err
}

type fakeCommentator struct {
	text string
	err  error
}

func (f *fakeCommentator) Comment(context.Context, string) (string, error) {
	return f.text, f.err
}

var sampleBody = map[string]string{
	"nitrogen": "50", "phosphorous": "50", "potassium": "50",
	"temperature": "25", "humidity": "60", "ph": "6.5", "rainfall": "100",
}

func newTestServer(t *testing.T, cfg server.Config) *server.Server {
	t.Helper()
	if cfg.Predictor == nil {
		cfg.Predictor = &fakePredictor{label: "rice"}
	}
	srv, err := server.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func postJSON(t *testing.T, h http.Handler, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func document(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return doc
}

// recommend submits the sample form over REST and returns the result page URL.
func recommend(t *testing.T, h http.Handler) string {
	t.Helper()
	w := postJSON(t, h, "/api/v1/recommendations", sampleBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var body struct {
		Href string `json:"href"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, strings.HasPrefix(body.Href, ui.ResultPath+"?state="), body.Href)
	return body.Href
}

func TestHomePage(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	doc := document(t, get(t, srv, "/"))

	assert.Equal(t, "What Crop to Grow This Season?", strings.TrimSpace(doc.Find(".question").Text()))
	start := doc.Find("a.start_btn")
	assert.Equal(t, "GET STARTED", strings.TrimSpace(start.Text()))
	assert.Equal(t, "/crop", start.AttrOr("href", ""))
	assert.Equal(t, "/crop", doc.Find(".header a[href='/crop']").AttrOr("href", ""))

	// No asset in the embedded tree: the page renders without the overlay.
	assert.Zero(t, doc.Find("#scene-canvas").Length())
}

func TestUnknownPathIsNotFound(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/nope").Code)
}

func TestCropPage_FormFromSchema(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	doc := document(t, get(t, srv, "/crop"))

	inputs := doc.Find(".crop-container input[type=number]")
	require.Equal(t, len(crop.FocusOrder), inputs.Length())
	inputs.Each(func(i int, s *goquery.Selection) {
		f := crop.FocusOrder[i]
		assert.Equal(t, f.InputID(), s.AttrOr("id", ""))
		_, bound := s.Attr("data-bind:" + string(f))
		assert.True(t, bound, f)
	})

	temp := doc.Find("#" + crop.Temperature.InputID())
	assert.Equal(t, "0", temp.AttrOr("min", ""))
	assert.Equal(t, "50", temp.AttrOr("max", ""))
	assert.Equal(t, "Temperature in Celsius", strings.TrimSpace(doc.Find("label[for='temperature-crop-input']").Text()))

	page := doc.Find("#crop-page")
	var signals map[string]any
	require.NoError(t, json.Unmarshal([]byte(page.AttrOr("data-signals", "")), &signals))
	for _, f := range crop.FocusOrder {
		assert.Equal(t, "", signals[string(f)], f)
	}
	assert.Equal(t, string(service.AutofillNotRequested), signals[ui.SignalAutofillState])
	assert.Equal(t, false, signals[ui.SignalAutoFilled])

	assert.Contains(t, page.AttrOr("data-init", ""), ui.LocationRequestPath)
	assert.Equal(t, 1, doc.Find("button.predict_crop_btn").Length())
	assert.Equal(t, 1, doc.Find("#crop-autofill-status").Length())
}

func TestCropPage_EnterSubmitsThroughButton(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	doc := document(t, get(t, srv, "/crop"))

	// The indicator only tracks fetches started by its own element, so Enter
	// must go through the button rather than post from the page.
	btn := doc.Find("button#predict-crop-btn")
	require.Equal(t, 1, btn.Length())
	_, indicator := btn.Attr("data-indicator:predicting")
	assert.True(t, indicator)
	assert.Equal(t, "$predicting", btn.AttrOr("data-attr:disabled", ""))
	assert.Contains(t, btn.AttrOr("data-on:click", ""), "@post(")

	keydown := doc.Find("#crop-page").AttrOr("data-on:keydown__window", "")
	assert.Contains(t, keydown, "!$predicting")
	assert.Contains(t, keydown, "document.getElementById('predict-crop-btn').click()")
	assert.NotContains(t, keydown, "@post(")
}

func TestResult_NoStateRedirects(t *testing.T) {
	srv := newTestServer(t, server.Config{})

	for _, target := range []string{"/crop/result", "/crop/result?state=unknown"} {
		w := get(t, srv, target)
		assert.Equal(t, http.StatusSeeOther, w.Code, target)
		assert.Equal(t, "/crop", w.Header().Get("Location"), target)
		assert.NotContains(t, w.Body.String(), "You should grow", target)
	}
}

func TestResult_RendersCatalogEntry(t *testing.T) {
	srv := newTestServer(t, server.Config{Commentator: &fakeCommentator{text: "Rice loves water."}})
	doc := document(t, get(t, srv, recommend(t, srv)))

	cat, err := catalog.Default()
	require.NoError(t, err)
	rice, err := cat.Lookup("rice")
	require.NoError(t, err)

	assert.Equal(t, "rice", doc.Find(".crop-result-p b").Text())
	img := doc.Find("img.crop-result-img")
	assert.Equal(t, rice.Image, img.AttrOr("src", ""))
	assert.Equal(t, "rice", img.AttrOr("alt", ""))
	assert.Equal(t, rice.Description, strings.TrimSpace(doc.Find(".crop-result-description").Text()))
	assert.Equal(t, "/crop", doc.Find("a.crop-try-btn").AttrOr("href", ""))
	assert.Contains(t, doc.Find("#crop-commentary").AttrOr("data-init", ""), ui.CommentaryPath)
}

func TestResult_UnknownLabelFailsClosed(t *testing.T) {
	srv := newTestServer(t, server.Config{Predictor: &fakePredictor{label: "quinoa"}})
	doc := document(t, get(t, srv, recommend(t, srv)))

	assert.Contains(t, doc.Find(".crop-result-unrecognized").Text(), "quinoa")
	assert.Zero(t, doc.Find("img.crop-result-img").Length())
	cat, err := catalog.Default()
	require.NoError(t, err)
	assert.Equal(t, cat.Len(), doc.Find("li.crop-card").Length())
	assert.Equal(t, "/crop", doc.Find("a.crop-try-btn").AttrOr("href", ""))
}

func TestResult_CommentaryFailureKeepsPrimaryContent(t *testing.T) {
	srv := newTestServer(t, server.Config{Commentator: &fakeCommentator{err: context.DeadlineExceeded}})
	href := recommend(t, srv)

	doc := document(t, get(t, srv, href))
	assert.Equal(t, "rice", doc.Find(".crop-result-p b").Text())
	assert.Equal(t, 1, doc.Find("img.crop-result-img").Length())
	assert.NotEmpty(t, strings.TrimSpace(doc.Find(".crop-result-description").Text()))
	assert.Equal(t, 1, doc.Find("a.crop-try-btn").Length())

	token := strings.TrimPrefix(href, ui.ResultPath+"?state=")
	w := get(t, srv, ui.CommentaryPath+"?state="+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "selector "+ui.CommentarySelector)
	assert.Contains(t, w.Body.String(), "We couldn&#39;t fetch additional insights right now.")
}

func TestStaticMetricsAndDocs(t *testing.T) {
	srv := newTestServer(t, server.Config{})

	w := get(t, srv, "/static/css/app.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/css")

	assert.Equal(t, http.StatusOK, get(t, srv, "/static/js/scene.js").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/metrics").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/openapi.json").Code)
}

func TestOpenAPI_CarriesFormExtensions(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	oapi := srv.OpenAPI()

	assert.Contains(t, oapi.Paths, "/api/v1/crops/{label}")
	assert.Contains(t, oapi.Paths, ui.PredictPath)

	schema := oapi.Components.Schemas.Map()["CropForm"]
	require.NotNil(t, schema)
	assert.Contains(t, schema.Extensions, "x-datastar")
	assert.Equal(t, 1, schema.Properties["nitrogen"].Extensions["x-order"])
	assert.Equal(t, 150.0, schema.Properties["nitrogen"].Extensions["x-max"])
	for f, r := range crop.DefaultRanges {
		prop := schema.Properties[string(f)]
		require.NotNil(t, prop, f)
		assert.Equal(t, r.Min, prop.Extensions["x-min"], f)
		assert.Equal(t, r.Max, prop.Extensions["x-max"], f)
	}
}

func TestWebDirServesOnDiskTree(t *testing.T) {
	srv := newTestServer(t, server.Config{WebDir: "../../web"})

	doc := document(t, get(t, srv, "/"))
	assert.Equal(t, 1, doc.Find("a.start_btn").Length())

	doc = document(t, get(t, srv, "/crop"))
	assert.Equal(t, len(crop.FocusOrder), doc.Find(".crop-container input[type=number]").Length())
	assert.Equal(t, http.StatusOK, get(t, srv, "/static/css/app.css").Code)
}
