package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"xp3/internal/metadata"
	"xp3/internal/pipeline"
)

const timeLayout = "2006-01-02 15:04:05"

type DownloadRequest struct {
	URL   string `json:"url"`
	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`
}

type TagRequest struct {
	Dir string `json:"dir"`
}

type SuggestResponse struct {
	Artist string `json:"artist"`
	Song   string `json:"song"`
}

type JobResponse struct {
	ID          string            `json:"id"`
	Kind        JobKind           `json:"kind"`
	Target      string            `json:"target"`
	Status      JobStatus         `json:"status"`
	Stage       string            `json:"stage,omitempty"`
	Progress    int               `json:"progress"`
	Failed      int               `json:"failed"`
	Total       int               `json:"total"`
	Warnings    []string          `json:"warnings,omitempty"`
	Summary     *pipeline.Summary `json:"summary,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   string            `json:"created_at"`
	StartedAt   *string           `json:"started_at,omitempty"`
	CompletedAt *string           `json:"completed_at,omitempty"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "URL is required", http.StatusBadRequest)
		return
	}
	if req.Start < 0 || req.End < 0 || (req.End > 0 && req.Start > req.End) {
		http.Error(w, "Invalid playlist range", http.StatusBadRequest)
		return
	}

	job := s.startJob(KindPlaylist, req.URL, func(ctx context.Context, run Runner) (pipeline.Summary, error) {
		return run.Playlist(ctx, req.URL, req.Start, req.End, nil)
	})
	writeJSON(w, http.StatusAccepted, jobToResponse(job))
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Dir == "" {
		http.Error(w, "dir is required", http.StatusBadRequest)
		return
	}
	if info, err := os.Stat(req.Dir); err != nil || !info.IsDir() {
		http.Error(w, "dir is not a directory", http.StatusBadRequest)
		return
	}

	job := s.startJob(KindDirectory, req.Dir, func(ctx context.Context, run Runner) (pipeline.Summary, error) {
		return run.Directory(ctx, req.Dir, nil)
	})
	writeJSON(w, http.StatusAccepted, jobToResponse(job))
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	artist, song, err := metadata.Suggest(metadata.SuggestInput{
		Title:   q.Get("title"),
		Channel: q.Get("channel"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, SuggestResponse{Artist: artist, Song: song})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.jobMgr.ListJobs()
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = jobToResponse(job)
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobMgr.GetJob(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.jobMgr.GetJob(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if !s.jobMgr.Cancel(id) {
		http.Error(w, "job already finished", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(StatusCancelled)})
}

type runFunc func(ctx context.Context, run Runner) (pipeline.Summary, error)

// startJob registers a job and runs it in the background.
func (s *Server) startJob(kind JobKind, target string, fn runFunc) Job {
	job := s.jobMgr.CreateJob(kind, target)
	ctx, cancel := context.WithCancel(s.ctx)
	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.cancel = cancel
	})
	s.logger.Info("Created %s job %s for %s", kind, job.ID, target)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.processJob(ctx, job.ID, fn)
	}()
	return job
}

func (s *Server) processJob(ctx context.Context, id string, fn runFunc) {
	if ctx.Err() != nil {
		return
	}
	s.jobMgr.UpdateJob(id, func(j *Job) {
		j.Status = StatusRunning
	})
	s.logger.Info("Starting job %s", id)

	hooks := pipeline.Hooks{
		OnStage: func(stage string, total int) {
			s.jobMgr.UpdateJob(id, func(j *Job) {
				j.Stage = stage
				j.Total = total
				j.Progress = 0
				j.Failed = 0
			})
		},
		OnProgress: func(err error) {
			s.jobMgr.UpdateJob(id, func(j *Job) {
				j.Progress++
				if err != nil {
					j.Failed++
				}
			})
		},
		OnWarning: func(msg string) {
			s.jobMgr.UpdateJob(id, func(j *Job) {
				j.Warnings = append(j.Warnings, msg)
			})
		},
	}

	sum, err := fn(ctx, s.newRunner(hooks))

	s.jobMgr.UpdateJob(id, func(j *Job) {
		j.Summary = &sum
		switch {
		case errors.Is(err, context.Canceled) || ctx.Err() != nil:
			j.Status = StatusCancelled
		case err != nil:
			j.Status = StatusFailed
			j.Error = err.Error()
		default:
			j.Status = StatusCompleted
		}
	})

	if err != nil {
		s.logger.Error("Job %s failed: %v", id, err)
		return
	}
	s.logger.Info("Job %s completed: %d resolved, %d skipped, %d failed", id, sum.Resolved, sum.Skipped, sum.Failed)
}

func jobToResponse(job Job) *JobResponse {
	resp := &JobResponse{
		ID:        job.ID,
		Kind:      job.Kind,
		Target:    job.Target,
		Status:    job.Status,
		Stage:     job.Stage,
		Progress:  job.Progress,
		Failed:    job.Failed,
		Total:     job.Total,
		Warnings:  job.Warnings,
		Summary:   job.Summary,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format(timeLayout),
	}
	resp.StartedAt = formatTime(job.StartedAt)
	resp.CompletedAt = formatTime(job.CompletedAt)
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
