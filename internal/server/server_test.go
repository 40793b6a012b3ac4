package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/hairstat/internal/dataset"
	"github.com/verte-zerg/hairstat/internal/eda"
	"github.com/verte-zerg/hairstat/internal/journal"
	"github.com/verte-zerg/hairstat/internal/pipeline"
)

const (
	predictionHeader = "Id,Genetics,Hormonal Changes,Age,Poor Hair Care Habits ,Environmental Factors,Smoking,Weight Loss ,Hair Loss\n"
	edaHeader        = "Id,Genetics,Weight Loss ,Smoking,Medical Conditions,Stress,Medications & Treatments,Poor Hair Care Habits ,Nutritional Deficiencies ,Hair Loss\n"
)

func newTestServer(t *testing.T, withJournal bool) http.Handler {
	t.Helper()
	var pred, edaCSV strings.Builder
	pred.WriteString(predictionHeader)
	edaCSV.WriteString(edaHeader)
	for i := 0; i < 40; i++ {
		label := i % 2
		fmt.Fprintf(&pred, "%d,%d,%d,%d,%d,%d,%d,%d,%d\n", i+1, label, label, 20+i, label, 1-label, label, label, label)
		smoking := "No"
		if i%4 == 1 {
			smoking = "Yes"
		}
		fmt.Fprintf(&edaCSV, "%d,Yes,No,%s,None,Low,None,No,Iron,%d\n", i+1, smoking, label)
	}
	predDS, err := dataset.Read(strings.NewReader(pred.String()), "df1.csv", dataset.PredictionSchema)
	if err != nil {
		t.Fatalf("read prediction dataset: %v", err)
	}
	edaDS, err := dataset.Read(strings.NewReader(edaCSV.String()), "df-eda.csv", dataset.EDASchema)
	if err != nil {
		t.Fatalf("read eda dataset: %v", err)
	}
	opts := pipeline.DefaultOptions()
	opts.ForestTrees = 10
	cfg := Config{Prediction: predDS, EDA: edaDS, Options: opts}
	if withJournal {
		j, err := journal.Open(filepath.Join(t.TempDir(), "hairstat.db"), nil)
		if err != nil {
			t.Fatalf("open journal: %v", err)
		}
		t.Cleanup(func() {
			_ = j.Close()
		})
		cfg.Journal = j
	}
	return New(cfg).Router()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestOverview(t *testing.T) {
	h := newTestServer(t, false)
	rec := do(t, h, http.MethodGet, "/api/overview?rows=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp overviewResponse
	decodeBody(t, rec, &resp)
	if resp.Rows != 40 || resp.Columns != 9 || len(resp.Head) != 3 {
		t.Fatalf("unexpected overview: rows=%d cols=%d head=%d", resp.Rows, resp.Columns, len(resp.Head))
	}
	if resp.Shape != "There are 40 rows and 9 columns." {
		t.Fatalf("unexpected shape %q", resp.Shape)
	}
	if len(resp.Numeric) != 9 || len(resp.Categorical) != 0 {
		t.Fatalf("unexpected kinds: %v / %v", resp.Numeric, resp.Categorical)
	}
	if rec := do(t, h, http.MethodGet, "/api/overview?rows=abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad rows, got %d", rec.Code)
	}
}

func TestEDAColumnsAndAggregate(t *testing.T) {
	h := newTestServer(t, false)
	rec := do(t, h, http.MethodGet, "/api/eda/columns", "")
	var cols map[string][]string
	decodeBody(t, rec, &cols)
	if len(cols["columns"]) != len(dataset.EDAColumns) {
		t.Fatalf("unexpected columns: %v", cols)
	}

	rec = do(t, h, http.MethodGet, "/api/eda?column=Smoking", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var agg aggregationResponse
	decodeBody(t, rec, &agg)
	if agg.Title != "Smoking & Hair Loss" {
		t.Fatalf("unexpected title %q", agg.Title)
	}
	if len(agg.Order) != 2 || agg.Order[0] != "Yes" {
		t.Fatalf("unexpected ranking %v", agg.Order)
	}
	for _, l := range agg.Levels {
		if l.Level == "Yes" && l.Percent1 != 100 {
			t.Fatalf("expected every smoker to have hair loss, got %+v", l)
		}
	}

	rec = do(t, h, http.MethodGet, "/api/eda?column=Age", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid column, got %d", rec.Code)
	}
}

func TestEvaluate(t *testing.T) {
	h := newTestServer(t, true)
	rec := do(t, h, http.MethodPost, "/api/evaluate", `{"model":"knn","k":7}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Model struct {
			Family    string `json:"family"`
			Neighbors int    `json:"neighbors"`
		} `json:"model"`
		TrainSize int       `json:"train_size"`
		TestSize  int       `json:"test_size"`
		Confusion [2][2]int `json:"confusion"`
	}
	decodeBody(t, rec, &res)
	if res.Model.Family != "k-nearest-neighbors" || res.Model.Neighbors != 7 {
		t.Fatalf("unexpected model %+v", res.Model)
	}
	if res.TrainSize != 30 || res.TestSize != 10 {
		t.Fatalf("unexpected split %d/%d", res.TrainSize, res.TestSize)
	}
	total := res.Confusion[0][0] + res.Confusion[0][1] + res.Confusion[1][0] + res.Confusion[1][1]
	if total != 10 {
		t.Fatalf("confusion matrix should cover the test split, got %d", total)
	}

	rec = do(t, h, http.MethodGet, "/api/history", "")
	var hist struct {
		Evaluations []json.RawMessage `json:"evaluations"`
		Predictions []json.RawMessage `json:"predictions"`
	}
	decodeBody(t, rec, &hist)
	if len(hist.Evaluations) != 1 || len(hist.Predictions) != 0 {
		t.Fatalf("expected one recorded evaluation, got %d/%d", len(hist.Evaluations), len(hist.Predictions))
	}
}

func TestEvaluateRejectsBadRequests(t *testing.T) {
	h := newTestServer(t, false)
	cases := map[string]string{
		"missing model":   `{}`,
		"unknown model":   `{"model":"svm"}`,
		"k out of range":  `{"model":"knn","k":31}`,
		"malformed json":  `{"model":`,
		"unknown field":   `{"model":"knn","depth":3}`,
		"zero neighbours": `{"model":"knn","k":0}`,
	}
	for name, body := range cases {
		rec := do(t, h, http.MethodPost, "/api/evaluate", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", name, rec.Code, rec.Body.String())
		}
		var resp map[string]string
		decodeBody(t, rec, &resp)
		if resp["error"] == "" {
			t.Fatalf("%s: expected error message", name)
		}
	}
}

const validPrediction = `{"genetics":1,"hormonal_changes":1,"age":45,"poor_hair_care_habits":1,"environmental_factors":0,"smoking":1,"weight_loss":1}`

func TestPredict(t *testing.T) {
	h := newTestServer(t, false)
	rec := do(t, h, http.MethodPost, "/api/predict", validPrediction)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp predictResponse
	decodeBody(t, rec, &resp)
	if resp.Label != 1 || resp.Verdict != pipeline.VerdictHairLoss {
		t.Fatalf("unexpected prediction %+v", resp.Prediction)
	}
	if resp.Input["Weight Loss "] != 1 || resp.Input["Age"] != 45 {
		t.Fatalf("unexpected echoed input %v", resp.Input)
	}
}

func TestPredictRejectsBadInput(t *testing.T) {
	h := newTestServer(t, false)
	missing := strings.Replace(validPrediction, `"smoking":1,`, "", 1)
	if rec := do(t, h, http.MethodPost, "/api/predict", missing); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing feature, got %d", rec.Code)
	}
	tooOld := strings.Replace(validPrediction, `"age":45`, `"age":101`, 1)
	if rec := do(t, h, http.MethodPost, "/api/predict", tooOld); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for age out of range, got %d", rec.Code)
	}
	offGrid := strings.Replace(validPrediction, `"genetics":1`, `"genetics":0.5`, 1)
	if rec := do(t, h, http.MethodPost, "/api/predict", offGrid); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for off-grid value, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHistoryDisabled(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/api/history", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without journal, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", eda.ErrInvalidColumn), http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", pipeline.ErrInvalidModelSpec), http.StatusBadRequest},
		{eda.ErrEmptyGroup, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrap: %w", pipeline.ErrTraining), http.StatusUnprocessableEntity},
		{pipeline.ErrPrediction, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
