package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JakeFAU/coverletter/internal/letter"
	"github.com/JakeFAU/coverletter/internal/pipeline"
)

const letterFilename = "lettre_motivation.pdf"

type acquireRequest struct {
	URL string `json:"url" validate:"required,url"`
}

func (s *Server) generateLetter(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	posting := strings.TrimSpace(r.FormValue("offre_content"))
	if posting == "" {
		writeError(w, http.StatusBadRequest, "offre_content is required")
		return
	}
	req := pipeline.Request{
		ResumeID:    strings.TrimSpace(r.FormValue("cv_id")),
		PostingText: posting,
		Language:    r.FormValue("langue"), // empty means detect
		Source:      letter.SourceAPI,
	}
	if req.ResumeID == "" {
		upload, err := s.formUpload(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Upload = upload
	}

	res, err := s.letters.Generate(r.Context(), req)
	if err != nil {
		s.logger.Error("letter generation failed", zap.String("resume_id", req.ResumeID), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+letterFilename)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PDF)))
	w.Header().Set("X-Letter-Language", res.Language)
	if res.ResumeID != "" {
		w.Header().Set("X-CV-ID", res.ResumeID)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.PDF); err != nil {
		s.logger.Warn("write letter failed", zap.Error(err))
	}
}

func (s *Server) detectLanguage(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := r.Form["content"]; !ok {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	code, err := s.detector.Detect(r.FormValue("content"))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"langue": "en", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"langue": code})
}

func (s *Server) uploadResume(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	upload, err := s.formUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if upload == nil {
		writeError(w, http.StatusBadRequest, "cv_file is required")
		return
	}
	rec, err := s.letters.StoreResume(r.Context(), *upload)
	if err != nil {
		s.logger.Error("résumé upload failed", zap.String("filename", upload.Filename), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"cv_id":   rec.ID,
		"message": "CV uploaded",
	})
}

func (s *Server) listResumes(w http.ResponseWriter, r *http.Request) {
	records, err := s.letters.ListResumes(r.Context())
	if err != nil {
		s.logger.Error("list résumés failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list résumés")
		return
	}
	if records == nil {
		records = []letter.ResumeRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cvs": records})
}

func (s *Server) acquirePosting(w http.ResponseWriter, r *http.Request) {
	var req acquireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, s.acquirer.Acquire(r.Context(), req.URL))
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("invalid form: %w", err)
	}
	return nil
}

// formUpload returns the cv_file part, or nil when none was sent.
func (s *Server) formUpload(r *http.Request) (*pipeline.Upload, error) {
	file, header, err := r.FormFile("cv_file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cv_file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			s.logger.Warn("close upload failed", zap.Error(cerr))
		}
	}()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read cv_file: %w", err)
	}
	return &pipeline.Upload{Filename: header.Filename, Data: data}, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, letter.ErrNoResume), errors.Is(err, letter.ErrNotPDF):
		return http.StatusBadRequest
	case errors.Is(err, letter.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s validation", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
