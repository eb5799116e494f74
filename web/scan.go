package web

import (
	"net/http"
	"time"

	"github.com/warenwerk/palletkit/errors"
	"github.com/warenwerk/palletkit/taskapi"
	"github.com/warenwerk/palletkit/workflow"
)

// scanPage is the data handed to the HTML templates.
type scanPage struct {
	TaskID      string
	Sig         string
	CompletedAt string
	Label       string
	Remaining   []taskapi.Task
	Message     string
}

func (s *Server) handleScanPrompt(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("taskID")
	sig := r.URL.Query().Get("sig")

	res, err := s.deps.Engine.Status(r.Context(), taskID, sig)
	if err != nil {
		s.renderError(w, err)
		return
	}

	page := scanPage{TaskID: taskID, Sig: sig}
	switch res.Outcome {
	case workflow.OutcomeAlreadyDone:
		page.CompletedAt = formatTime(res.CompletedAt)
		s.render(w, http.StatusOK, "already_done", page)
	default:
		s.render(w, http.StatusOK, "confirm", page)
	}
}

func (s *Server) handleScanAnswer(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("taskID")
	sig := r.URL.Query().Get("sig")

	if err := r.ParseForm(); err != nil {
		s.renderError(w, errors.InvalidInput("malformed form body"))
		return
	}

	switch r.PostFormValue("answer") {
	case "yes":
	case "no":
		s.render(w, http.StatusOK, "declined", scanPage{TaskID: taskID})
		return
	default:
		s.renderError(w, errors.InvalidInput("answer must be yes or no"))
		return
	}

	res, err := s.deps.Engine.Complete(r.Context(), taskID, sig)
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.renderOutcome(w, res)
}

func (s *Server) handleCompleteDirect(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("taskID")
	sig := r.URL.Query().Get("sig")

	res, err := s.deps.Engine.CompleteDirect(r.Context(), taskID, sig)
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.renderOutcome(w, res)
}

func (s *Server) renderOutcome(w http.ResponseWriter, res *workflow.Result) {
	page := scanPage{
		TaskID:      res.TaskID,
		CompletedAt: formatTime(res.CompletedAt),
		Label:       res.Label,
		Remaining:   res.Remaining,
	}
	switch res.Outcome {
	case workflow.OutcomeAlreadyDone:
		s.render(w, http.StatusOK, "already_done", page)
	case workflow.OutcomeClosedWithList:
		s.render(w, http.StatusOK, "closed_with_list", page)
	default:
		s.render(w, http.StatusOK, "closed", page)
	}
}

// renderError maps a workflow error onto the matching HTML page.
func (s *Server) renderError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	page := scanPage{Message: err.Error()}

	switch {
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		s.render(w, status, "rejected", page)
	case status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		s.render(w, status, "close_failed", page)
	case status >= http.StatusInternalServerError:
		s.logger.Error("scan request failed", map[string]interface{}{"err": err})
		s.render(w, status, "error", page)
	default:
		s.render(w, status, "error", page)
	}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, page scanPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, page); err != nil {
		s.logger.Error("template rendering failed", map[string]interface{}{
			"template": name,
			"err":      err,
		})
	}
}

func formatTime(t time.Time) string {
	return t.Local().Format("02.01.2006 15:04")
}
