package web

import (
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/warenwerk/palletkit/errors"
	"github.com/warenwerk/palletkit/loadlist"
)

// createListRequest is the POST /api/av/create body.
type createListRequest struct {
	Label string `json:"label"`
}

// createListResponse describes a freshly stored load list.
type createListResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	QRDataURL string `json:"qrDataUrl"`
	Count     int    `json:"count"`
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.deps.Gateway.ListOpenByProject(r.Context())
	if err != nil {
		s.writeJSONError(w, errors.Wrap(err, "list open tasks"))
		return
	}

	seen := make(map[string]struct{})
	labels := make([]string, 0)
	for _, task := range tasks {
		for _, label := range task.Labels {
			if _, ok := seen[label]; !ok {
				seen[label] = struct{}{}
				labels = append(labels, label)
			}
		}
	}
	loadlist.SortLabels(labels)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"labels": labels})
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, errors.InvalidInput("malformed JSON body"))
		return
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		s.writeJSONError(w, errors.InvalidInput("label is required"))
		return
	}

	// The task query is the primary action here; its failure is a 502,
	// not a degraded empty list.
	tasks, err := s.deps.Gateway.ListOpenByLabel(r.Context(), req.Label)
	if err != nil {
		s.writeJSONError(w, errors.Wrapf(err, "list tasks for label %s", req.Label))
		return
	}

	snap, err := s.deps.Snapshots.Create(r.Context(), req.Label, tasks)
	if err != nil {
		if snap == nil {
			s.writeJSONError(w, errors.Wrap(err, "store snapshot"))
			return
		}
		// Snapshot stored, only indexing failed; the list is usable.
		s.logger.Warn("snapshot indexing failed", map[string]interface{}{
			"snapshot_id": snap.ID,
			"err":         err,
		})
	}

	url := s.config.BaseURL + "/api/av/list/" + snap.ID
	qr, err := qrDataURL(url)
	if err != nil {
		s.logger.Warn("qr encoding failed", map[string]interface{}{
			"snapshot_id": snap.ID,
			"err":         err,
		})
	}

	s.writeJSON(w, http.StatusCreated, createListResponse{
		ID:        snap.ID,
		URL:       url,
		QRDataURL: qr,
		Count:     snap.Count(),
	})
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Snapshots.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if stderrors.Is(err, loadlist.ErrNotFound) {
			s.writeJSONError(w, errors.NotFound("unknown load list"))
			return
		}
		s.writeJSONError(w, errors.Wrap(err, "load snapshot"))
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeJSONError(w, errors.InvalidInput("query parameter q is required"))
		return
	}

	hits, err := s.deps.Snapshots.Search(r.Context(), query, 20)
	if err != nil {
		s.writeJSONError(w, errors.Wrap(err, "search snapshots"))
		return
	}
	if hits == nil {
		hits = []loadlist.Hit{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"hits": hits})
}

// qrDataURL renders a URL as a PNG QR code packed into a data URL.
func qrDataURL(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("response encoding failed", map[string]interface{}{"err": err})
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{"err": err})
	}
	s.writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
		"code":  string(errors.Code(err)),
	})
}
