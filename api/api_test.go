package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/driftice/gcdserver/auth"
	"github.com/driftice/gcdserver/dbopen"
	"github.com/driftice/gcdserver/gcd"
	"github.com/driftice/gcdserver/store"
	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testEnv struct {
	srv   *httptest.Server
	store *store.Store
	token string
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	st := store.New(dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema)))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(st, logger, testSecret, time.Hour, opts...)

	r := chi.NewRouter()
	r.Use(auth.Middleware(testSecret))
	svc.RegisterHTTP(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	if err := SeedAdmin(context.Background(), st, "admin", "hunter22hunter22"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}

	env := &testEnv{srv: srv, store: st}
	env.token = env.login(t, "admin", "hunter22hunter22")
	return env
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(loginRequest{Username: username, Password: password})
	resp, err := http.Post(e.srv.URL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var env struct {
		Success bool          `json:"success"`
		Data    loginResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if env.Data.Token == "" {
		t.Fatal("login returned empty token")
	}
	return env.Data.Token
}

// do performs an authenticated request and decodes the envelope's data field
// into out (when out is non-nil and the body decodes).
func (e *testEnv) do(t *testing.T, method, path string, body any, out any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		var env struct {
			Success bool            `json:"success"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("%s %s: decode envelope: %v", method, path, err)
		}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, out); err != nil {
				t.Fatalf("%s %s: decode data: %v", method, path, err)
			}
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	cases := []loginRequest{
		{Username: "admin", Password: "wrong"},
		{Username: "nobody", Password: "hunter22hunter22"},
		{Username: "", Password: ""},
	}
	for _, c := range cases {
		body, _ := json.Marshal(c)
		resp, err := http.Post(env.srv.URL+"/auth/login", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusBadRequest {
			t.Errorf("login %q/%q: status = %d, want 401 or 400", c.Username, c.Password, resp.StatusCode)
		}
	}
}

func TestVerifyEchoesClaims(t *testing.T) {
	env := newTestEnv(t)
	var got struct {
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
	}
	resp := env.do(t, http.MethodGet, "/auth/verify", nil, &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got.Username != "admin" {
		t.Errorf("username = %q, want admin", got.Username)
	}
	if len(got.Roles) != 1 || got.Roles[0] != "admin" {
		t.Errorf("roles = %v, want [admin]", got.Roles)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	paths := []string{
		"/calibration/",
		"/geometry/",
		"/detector-status/",
		"/run-metadata/",
		"/configuration/",
		"/snow-height/",
		"/gcd/collection/deadbeef",
	}
	for _, p := range paths {
		resp, err := http.Get(env.srv.URL + p)
		if err != nil {
			t.Fatalf("GET %s: %v", p, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status = %d, want 401", p, resp.StatusCode)
		}
	}
}

func TestCalibrationCRUD(t *testing.T) {
	env := newTestEnv(t)

	create := createCalibrationRequest{
		DOMID: 161,
		DOMCal: gcd.DOMCal{
			ATWDGain: []float64{1.1, 2.2, 3.3},
			PMTGain:  1.2e7,
		},
	}
	var created gcd.Calibration
	resp := env.do(t, http.MethodPost, "/calibration/", create, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201", resp.StatusCode)
	}
	if created.DOMID != 161 || created.DOMCal.PMTGain != 1.2e7 {
		t.Fatalf("created = %+v", created)
	}

	var history []gcd.Calibration
	resp = env.do(t, http.MethodGet, "/calibration/161", nil, &history)
	if resp.StatusCode != http.StatusOK || len(history) != 1 {
		t.Fatalf("get history: status = %d, len = %d", resp.StatusCode, len(history))
	}

	var latest gcd.Calibration
	resp = env.do(t, http.MethodGet, "/calibration/latest/161", nil, &latest)
	if resp.StatusCode != http.StatusOK || latest.DOMID != 161 {
		t.Fatalf("latest: status = %d, dom = %d", resp.StatusCode, latest.DOMID)
	}

	update := createCalibrationRequest{DOMID: 161, DOMCal: gcd.DOMCal{PMTGain: 9.9e6}}
	var updated gcd.Calibration
	resp = env.do(t, http.MethodPut, "/calibration/161", update, &updated)
	if resp.StatusCode != http.StatusOK || updated.DOMCal.PMTGain != 9.9e6 {
		t.Fatalf("update: status = %d, gain = %v", resp.StatusCode, updated.DOMCal.PMTGain)
	}

	resp = env.do(t, http.MethodDelete, "/calibration/161", nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want 204", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/calibration/161", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: status = %d, want 404", resp.StatusCode)
	}
}

func TestGeometryDuplicateConflict(t *testing.T) {
	env := newTestEnv(t)

	g := createGeometryRequest{String: 21, Position: 30, Location: gcd.GeoLocation{X: 1, Y: 2, Z: -350}}
	resp := env.do(t, http.MethodPost, "/geometry/", g, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201", resp.StatusCode)
	}
	resp = env.do(t, http.MethodPost, "/geometry/", g, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate create: status = %d, want 409", resp.StatusCode)
	}
}

func TestBadDOMs(t *testing.T) {
	env := newTestEnv(t)

	for _, st := range []createStatusRequest{
		{DOMID: 1, RunNumber: 137292, Status: "good"},
		{DOMID: 2, RunNumber: 137292, Status: "dead", IsBad: true},
		{DOMID: 3, RunNumber: 137292, Status: "noisy", IsBad: true},
	} {
		resp := env.do(t, http.MethodPost, "/detector-status/", st, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create status: status = %d", resp.StatusCode)
		}
	}

	var bad []gcd.DetectorStatus
	resp := env.do(t, http.MethodGet, "/detector-status/bad-doms", nil, &bad)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bad-doms: status = %d", resp.StatusCode)
	}
	if len(bad) != 2 {
		t.Fatalf("bad doms = %d, want 2", len(bad))
	}
	for _, b := range bad {
		if !b.IsBad {
			t.Errorf("dom %d listed as bad but is_bad=false", b.DOMID)
		}
	}
}

func TestRunMetadataOpenEnded(t *testing.T) {
	env := newTestEnv(t)

	req := createRunWindowRequest{
		RunNumber:         137292,
		StartTime:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		ConfigurationName: "sps-IC86",
	}
	resp := env.do(t, http.MethodPost, "/run-metadata/", req, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201", resp.StatusCode)
	}

	var got gcd.RunWindow
	resp = env.do(t, http.MethodGet, "/run-metadata/137292", nil, &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status = %d", resp.StatusCode)
	}
	if got.EndTime != nil {
		t.Errorf("end_time = %v, want nil for an ongoing run", got.EndTime)
	}
	if got.ConfigurationName != "sps-IC86" {
		t.Errorf("configuration_name = %q", got.ConfigurationName)
	}
}

func TestConfigurationRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	req := createConfigurationRequest{
		Key:   "trigger-thresholds",
		Value: json.RawMessage(`{"smt8":8,"volume":4}`),
	}
	resp := env.do(t, http.MethodPost, "/configuration/", req, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d", resp.StatusCode)
	}

	var got store.Configuration
	resp = env.do(t, http.MethodGet, "/configuration/trigger-thresholds", nil, &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status = %d", resp.StatusCode)
	}
	var decoded map[string]int
	if err := json.Unmarshal(got.Value, &decoded); err != nil {
		t.Fatalf("value did not round-trip as JSON: %v", err)
	}
	if decoded["smt8"] != 8 {
		t.Errorf("smt8 = %d, want 8", decoded["smt8"])
	}
}

func TestSnowHeightRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	req := createSnowHeightRequest{RunNumber: 137292, Height: 2.879}
	resp := env.do(t, http.MethodPost, "/snow-height/", req, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d", resp.StatusCode)
	}

	var got store.SnowHeight
	resp = env.do(t, http.MethodGet, "/snow-height/137292", nil, &got)
	if resp.StatusCode != http.StatusOK || got.Height != 2.879 {
		t.Fatalf("get: status = %d, height = %v", resp.StatusCode, got.Height)
	}
}

// seedCalibration inserts a calibration with an explicit timestamp, bypassing
// the HTTP layer's server-side stamping.
func seedCalibration(t *testing.T, st *store.Store, domID uint32, sec int64) {
	t.Helper()
	err := st.InsertCalibration(context.Background(), gcd.Calibration{
		DOMID:     domID,
		DOMCal:    gcd.DOMCal{PMTGain: float64(sec)},
		Timestamp: time.Unix(sec, 0).UTC(),
	})
	if err != nil {
		t.Fatalf("seed calibration dom=%d t=%d: %v", domID, sec, err)
	}
}

func TestGenerateSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// DOM 161 has versions before and after run start; DOM 162 only after.
	seedCalibration(t, env.store, 161, 100)
	seedCalibration(t, env.store, 161, 200)
	seedCalibration(t, env.store, 162, 300)

	win := createRunWindowRequest{
		RunNumber: 137292,
		StartTime: time.Unix(150, 0).UTC(),
	}
	if resp := env.do(t, http.MethodPost, "/run-metadata/", win, nil); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create run metadata: status = %d", resp.StatusCode)
	}

	if err := env.store.InsertGeometry(ctx, gcd.Geometry{
		String: 21, Position: 30,
		Location:  gcd.GeoLocation{X: 1, Y: 2, Z: 3},
		Timestamp: time.Unix(50, 0).UTC(),
	}); err != nil {
		t.Fatalf("seed geometry: %v", err)
	}
	if err := env.store.InsertStatus(ctx, gcd.DetectorStatus{
		DOMID: 161, RunNumber: 137292, Status: "good",
		Timestamp: time.Unix(150, 0).UTC(),
	}); err != nil {
		t.Fatalf("seed status: %v", err)
	}
	if err := env.store.InsertStatus(ctx, gcd.DetectorStatus{
		DOMID: 161, RunNumber: 999, Status: "dead", IsBad: true,
		Timestamp: time.Unix(150, 0).UTC(),
	}); err != nil {
		t.Fatalf("seed other-run status: %v", err)
	}

	var snap gcd.Snapshot
	resp := env.do(t, http.MethodPost, "/gcd/generate/137292", nil, &snap)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: status = %d, want 200", resp.StatusCode)
	}

	if snap.CollectionID == "" {
		t.Error("collection_id is empty")
	}
	if snap.RunNumber != 137292 {
		t.Errorf("run_number = %d, want 137292", snap.RunNumber)
	}
	if snap.GeneratedBy != "admin" {
		t.Errorf("generated_by = %q, want admin", snap.GeneratedBy)
	}

	if len(snap.Calibrations) != 2 {
		t.Fatalf("calibrations = %d, want 2", len(snap.Calibrations))
	}
	byDOM := map[uint32]gcd.Calibration{}
	for _, c := range snap.Calibrations {
		byDOM[c.DOMID] = c
	}
	// DOM 161: t=200 postdates run start, so t=100 is in effect.
	if got := byDOM[161].Timestamp.Unix(); got != 100 {
		t.Errorf("dom 161 selected timestamp = %d, want 100", got)
	}
	// DOM 162: nothing at or before run start, so the oldest is used.
	if got := byDOM[162].Timestamp.Unix(); got != 300 {
		t.Errorf("dom 162 selected timestamp = %d, want 300", got)
	}

	if len(snap.Geometry) != 1 {
		t.Errorf("geometry = %d, want 1", len(snap.Geometry))
	}
	if len(snap.DetectorStatus) != 1 || snap.DetectorStatus[0].RunNumber != 137292 {
		t.Errorf("detector_status = %+v, want exactly the run-137292 record", snap.DetectorStatus)
	}
}

func TestGenerateSnapshotWithoutRunMetadata(t *testing.T) {
	env := newTestEnv(t)

	// With no recorded window the start falls back to the epoch: every
	// version postdates it, so the oldest record per DOM is selected.
	seedCalibration(t, env.store, 7, 100)
	seedCalibration(t, env.store, 7, 200)

	var snap gcd.Snapshot
	resp := env.do(t, http.MethodPost, "/gcd/generate/424242", nil, &snap)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: status = %d, want 200", resp.StatusCode)
	}
	if len(snap.Calibrations) != 1 || snap.Calibrations[0].Timestamp.Unix() != 100 {
		t.Fatalf("calibrations = %+v, want single record at t=100", snap.Calibrations)
	}
}

func TestGenerateSnapshotEmptyDetector(t *testing.T) {
	env := newTestEnv(t)

	var snap gcd.Snapshot
	resp := env.do(t, http.MethodPost, "/gcd/generate/1", nil, &snap)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: status = %d, want 200", resp.StatusCode)
	}
	if snap.CollectionID == "" {
		t.Error("collection_id is empty for an empty snapshot")
	}
	if len(snap.Calibrations) != 0 || len(snap.Geometry) != 0 || len(snap.DetectorStatus) != 0 {
		t.Errorf("empty detector produced non-empty snapshot: %+v", snap)
	}
}

func TestSnapshotIDsAreUnique(t *testing.T) {
	env := newTestEnv(t)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		var snap gcd.Snapshot
		resp := env.do(t, http.MethodPost, "/gcd/generate/1", nil, &snap)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("generate #%d: status = %d", i, resp.StatusCode)
		}
		if seen[snap.CollectionID] {
			t.Fatalf("collection_id %q repeated", snap.CollectionID)
		}
		seen[snap.CollectionID] = true
	}
}

func TestSnapshotRetrieval(t *testing.T) {
	env := newTestEnv(t)

	seedCalibration(t, env.store, 161, 100)

	var generated gcd.Snapshot
	resp := env.do(t, http.MethodPost, "/gcd/generate/137292", nil, &generated)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: status = %d", resp.StatusCode)
	}

	var fetched gcd.Snapshot
	resp = env.do(t, http.MethodGet, "/gcd/collection/"+generated.CollectionID, nil, &fetched)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fetch: status = %d, want 200", resp.StatusCode)
	}
	if fetched.CollectionID != generated.CollectionID {
		t.Errorf("collection_id = %q, want %q", fetched.CollectionID, generated.CollectionID)
	}
	if len(fetched.Calibrations) != len(generated.Calibrations) {
		t.Errorf("calibrations = %d, want %d", len(fetched.Calibrations), len(generated.Calibrations))
	}

	resp = env.do(t, http.MethodGet, "/gcd/collection/no-such-collection", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown collection: status = %d, want 404", resp.StatusCode)
	}
}

func TestGenerateSnapshotPinnedAssembler(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	asm := gcd.NewAssembler(
		gcd.WithIDGenerator(func() string { n++; return fmt.Sprintf("snap-%04d", n) }),
		gcd.WithClock(func() time.Time { return fixed }),
	)
	env := newTestEnv(t, WithAssembler(asm))

	var snap gcd.Snapshot
	resp := env.do(t, http.MethodPost, "/gcd/generate/1", nil, &snap)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: status = %d", resp.StatusCode)
	}
	if snap.CollectionID != "snap-0001" {
		t.Errorf("collection_id = %q, want snap-0001", snap.CollectionID)
	}
	if !snap.GeneratedAt.Equal(fixed) {
		t.Errorf("generated_at = %v, want %v", snap.GeneratedAt, fixed)
	}
}
