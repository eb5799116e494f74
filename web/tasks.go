package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/warenwerk/palletkit/errors"
	"github.com/warenwerk/palletkit/normalize"
)

// maxPalletsPerIntake bounds one label-printing batch.
const maxPalletsPerIntake = 200

// createTasksRequest is the POST /api/av/tasks body: one intake form
// turning a pallet count into tracked tasks.
type createTasksRequest struct {
	Project  string `json:"project"`
	Drawing  string `json:"drawing"`
	Label    string `json:"label"`
	Count    int    `json:"count"`
	Priority int    `json:"priority"`
}

// createdTask is one pallet task with its signed scan URL.
type createdTask struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	URL       string `json:"url"`
	QRDataURL string `json:"qrDataUrl"`
}

func (s *Server) handleCreateTasks(w http.ResponseWriter, r *http.Request) {
	var req createTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, errors.InvalidInput("malformed JSON body"))
		return
	}

	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		s.writeJSONError(w, errors.InvalidInput("label is required"))
		return
	}
	if req.Count < 1 || req.Count > maxPalletsPerIntake {
		s.writeJSONError(w, errors.InvalidInput(
			fmt.Sprintf("count must be between 1 and %d", maxPalletsPerIntake)))
		return
	}
	if req.Priority == 0 {
		req.Priority = 1
	}
	if req.Priority < 1 || req.Priority > 4 {
		s.writeJSONError(w, errors.InvalidInput("priority must be between 1 and 4"))
		return
	}

	project := normalize.Project(req.Project)
	drawing := normalize.Drawing(req.Drawing)

	created := make([]createdTask, 0, req.Count)
	for i := 1; i <= req.Count; i++ {
		content := fmt.Sprintf("%s %s Palette %d/%d", project, drawing, i, req.Count)
		task, err := s.deps.Gateway.CreateTask(r.Context(), content, []string{req.Label}, req.Priority)
		if err != nil {
			// Tasks created so far exist remotely; report them alongside
			// the failure so the labels are not printed twice.
			s.logger.Error("task creation failed mid-batch", map[string]interface{}{
				"label":   req.Label,
				"created": len(created),
				"err":     err,
			})
			s.writeJSON(w, errors.HTTPStatus(err), map[string]interface{}{
				"error":   err.Error(),
				"code":    string(errors.Code(err)),
				"created": created,
			})
			return
		}

		scanURL := s.scanURL(task.ID)
		qr, err := qrDataURL(scanURL)
		if err != nil {
			s.logger.Warn("qr encoding failed", map[string]interface{}{
				"task_id": task.ID,
				"err":     err,
			})
		}
		created = append(created, createdTask{
			ID:        task.ID,
			Content:   task.Content,
			URL:       scanURL,
			QRDataURL: qr,
		})
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"tasks": created})
}

// scanURL builds the signed completion URL printed onto a pallet label.
func (s *Server) scanURL(taskID string) string {
	return fmt.Sprintf("%s/scan/%s?sig=%s", s.config.BaseURL, taskID, s.deps.Signer.Sign(taskID))
}
