package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"xp3/internal/logger"
	"xp3/internal/metadata"
	"xp3/internal/pipeline"
)

type fakeRunner struct {
	hooks pipeline.Hooks
	block bool
	err   error
}

func (r *fakeRunner) Playlist(ctx context.Context, url string, start, end int, p metadata.Prompter) (pipeline.Summary, error) {
	if p != nil {
		return pipeline.Summary{}, errors.New("jobs must not prompt")
	}
	if r.block {
		<-ctx.Done()
		return pipeline.Summary{}, ctx.Err()
	}
	r.hooks.OnStage(pipeline.StageResolve, 2)
	r.hooks.OnProgress(nil)
	r.hooks.OnProgress(errors.New("no match"))
	r.hooks.OnWarning("1 of 2 videos failed to download")
	return pipeline.Summary{Total: 2, Resolved: 2, Downloaded: 1, Tagged: 1}, r.err
}

func (r *fakeRunner) Directory(ctx context.Context, dir string, p metadata.Prompter) (pipeline.Summary, error) {
	r.hooks.OnStage(pipeline.StageTag, 1)
	r.hooks.OnProgress(nil)
	return pipeline.Summary{Total: 1, Resolved: 1, Tagged: 1}, nil
}

func newTestServer(t *testing.T, runner *fakeRunner) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(ctx, NewJobManager(), func(h pipeline.Hooks) Runner {
		runner.hooks = h
		return runner
	}, logger.New(false))

	srv := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		cancel()
		s.Wait()
		srv.Close()
	})
	return s, srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeJob(t *testing.T, resp *http.Response) JobResponse {
	t.Helper()
	defer resp.Body.Close()
	var job JobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatal(err)
	}
	return job
}

// waitForStatus follows the job over the websocket until it finishes.
func waitForStatus(t *testing.T, srv *httptest.Server, id string) JobResponse {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?job_id=" + id
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var job JobResponse
		if err := conn.ReadJSON(&job); err != nil {
			t.Fatalf("read: %v", err)
		}
		if job.Status.Done() {
			return job
		}
	}
}

func TestDownloadJob(t *testing.T) {
	_, srv := newTestServer(t, &fakeRunner{})

	resp := postJSON(t, srv.URL+"/api/download", DownloadRequest{URL: "https://www.youtube.com/playlist?list=x"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	created := decodeJob(t, resp)
	if created.Kind != KindPlaylist || created.ID == "" {
		t.Errorf("created = %+v", created)
	}

	final := waitForStatus(t, srv, created.ID)
	if final.Status != StatusCompleted {
		t.Fatalf("final status = %s (%s)", final.Status, final.Error)
	}
	if final.Progress != 2 || final.Failed != 1 || final.Total != 2 || final.Stage != pipeline.StageResolve {
		t.Errorf("progress = %+v", final)
	}
	if final.Summary == nil || final.Summary.Tagged != 1 {
		t.Errorf("summary = %+v", final.Summary)
	}
	if len(final.Warnings) != 1 {
		t.Errorf("warnings = %v", final.Warnings)
	}
}

func TestDownloadJobFailure(t *testing.T) {
	_, srv := newTestServer(t, &fakeRunner{err: errors.New("all 2 songs failed metadata resolution")})

	created := decodeJob(t, postJSON(t, srv.URL+"/api/download", DownloadRequest{URL: "https://x"}))
	final := waitForStatus(t, srv, created.ID)
	if final.Status != StatusFailed || !strings.Contains(final.Error, "all 2 songs") {
		t.Errorf("final = %+v", final)
	}
}

func TestCancelJob(t *testing.T) {
	_, srv := newTestServer(t, &fakeRunner{block: true})

	created := decodeJob(t, postJSON(t, srv.URL+"/api/download", DownloadRequest{URL: "https://x"}))

	resp, err := http.Post(srv.URL+"/api/jobs/"+created.ID+"/cancel", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d", resp.StatusCode)
	}

	if final := waitForStatus(t, srv, created.ID); final.Status != StatusCancelled {
		t.Errorf("final status = %s", final.Status)
	}

	resp, err = http.Post(srv.URL+"/api/jobs/"+created.ID+"/cancel", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second cancel status = %d, want 409", resp.StatusCode)
	}
}

func TestTagJob(t *testing.T) {
	_, srv := newTestServer(t, &fakeRunner{})

	resp := postJSON(t, srv.URL+"/api/tag", TagRequest{Dir: "/definitely/not/here"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing dir status = %d, want 400", resp.StatusCode)
	}

	created := decodeJob(t, postJSON(t, srv.URL+"/api/tag", TagRequest{Dir: t.TempDir()}))
	if final := waitForStatus(t, srv, created.ID); final.Status != StatusCompleted || final.Kind != KindDirectory {
		t.Errorf("final = %+v", final)
	}
}

func TestDownloadValidation(t *testing.T) {
	_, srv := newTestServer(t, &fakeRunner{})

	tests := []struct {
		name string
		body any
	}{
		{"missing url", DownloadRequest{}},
		{"bad range", DownloadRequest{URL: "https://x", Start: 5, End: 2}},
		{"not json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/download", tt.body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestGetJobNotFound(t *testing.T) {
	_, srv := newTestServer(t, &fakeRunner{})

	resp, err := http.Get(srv.URL + "/api/jobs/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSuggest(t *testing.T) {
	_, srv := newTestServer(t, &fakeRunner{})

	resp, err := http.Get(srv.URL + "/api/suggest?title=Numb+%28Official+Video%29&channel=Linkin+Park+-+Topic")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got SuggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Artist != "Linkin Park" || got.Song != "Numb" {
		t.Errorf("suggest = %+v", got)
	}

	resp2, err := http.Get(srv.URL + "/api/suggest")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("empty title status = %d, want 400", resp2.StatusCode)
	}
}
