package server

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models"
	"github.com/nvr-ai/go-yolo/models/model"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/nvr-ai/go-yolo/multiarray"
	"github.com/pkg/errors"
)

// ProcessRequest is the body of POST /v1/process.
type ProcessRequest struct {
	// Processor selects the post processor. Empty uses the configured one.
	Processor model.Name `json:"processor,omitempty"`
	// Outputs maps output feature names to arrays.
	Outputs map[string]multiarray.Array `json:"outputs"`
	// Optional per request overrides.
	CameraSize          *images.Size `json:"cameraSize,omitempty"`
	ModelInputSize      *images.Size `json:"modelInputSize,omitempty"`
	ConfidenceThreshold *float32     `json:"confidenceThreshold,omitempty"`
}

// ProcessResponse is the body returned by POST /v1/process.
type ProcessResponse struct {
	Processor  model.Name           `json:"processor"`
	Count      int                  `json:"count"`
	Detections []postprocess.Result `json:"detections"`
}

// ErrorResponse is the body returned for failed requests.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProcessors(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"default":    s.base.Name,
		"processors": model.Names,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.profiler.Snapshot())
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	name := req.Processor
	if name == "" {
		name = s.base.Name
	}
	if _, ok := s.processors[name]; !ok {
		s.writeError(w, http.StatusNotFound, "unknown_processor", errors.Errorf("processor %q not found", name))
		return
	}

	processor, err := s.processor(name, &req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_parameters", err)
		return
	}

	outputs := make(model.Outputs, len(req.Outputs))
	for key, arr := range req.Outputs {
		t, err := arr.Dense()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid_output", errors.Wrapf(err, "output %q", key))
			return
		}
		outputs[key] = t
	}

	done := s.profiler.StartOperation(string(name))
	detections, err := processor.Process(outputs)
	done()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "processing_error", err)
		return
	}
	s.profiler.RecordMetric("detections", float64(len(detections)))

	s.writeJSON(w, http.StatusOK, ProcessResponse{
		Processor:  name,
		Count:      len(detections),
		Detections: detections,
	})
}

// processor returns the shared processor for name, or a request scoped one
// when the request overrides any setting.
func (s *Server) processor(name model.Name, req *ProcessRequest) (model.Processor, error) {
	if req.CameraSize == nil && req.ModelInputSize == nil && req.ConfidenceThreshold == nil {
		return s.processors[name], nil
	}

	cfg := s.base
	cfg.Name = name
	if req.CameraSize != nil {
		cfg.CameraSize = *req.CameraSize
	}
	if req.ModelInputSize != nil {
		cfg.InputSize = *req.ModelInputSize
	}
	if req.ConfidenceThreshold != nil {
		cfg.ConfidenceThreshold = *req.ConfidenceThreshold
		// An explicit 0 keeps every candidate rather than the default.
		if cfg.ConfidenceThreshold == 0 {
			cfg.ConfidenceThreshold = model.NoThreshold
		}
	}
	return models.NewProcessor(cfg)
}

// writeJSON encodes v before sending the status, so an encoding failure is
// reported as a 500 instead of a truncated body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
		body, _ = json.Marshal(ErrorResponse{Code: "encoding_error", Message: err.Error()})
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.log.Errorf("Failed to write JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code string, err error) {
	s.log.WithField("code", code).Warn(err)
	s.writeJSON(w, status, ErrorResponse{Code: code, Message: err.Error()})
}
