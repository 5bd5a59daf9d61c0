package server

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"resumeparser/internal/common"
	apperrors "resumeparser/internal/errors"
	"resumeparser/internal/parser"
	"resumeparser/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	uploadFieldName  = "file"
	msgOnlyPDF       = "Only PDF files are supported"
	msgMissingUpload = "Multipart field 'file' is required"
)

// parseResumeHandler accepts a multipart PDF upload, runs the parser on a
// temporary copy and returns the structured resume
func (s *Server) parseResumeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.observability.Tracer("resumeparser.api").Start(r.Context(), "api.parse_resume")
	defer span.End()

	format, err := common.NormalizeOutputFormat(r.URL.Query().Get("format"), "json", s.supportedFormats())
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, apperrors.ErrCodeInvalidFormat, err.Error(), http.StatusBadRequest)
		return
	}

	part, status, errCode, message := s.openUpload(r)
	if part == nil {
		span.SetAttributes(attribute.String("error.type", "validation"))
		span.SetStatus(codes.Error, message)
		writeErrorResponse(w, errCode, message, status)
		return
	}
	defer func() { _ = part.Close() }()

	span.SetAttributes(
		attribute.String("upload.filename", part.FileName()),
		attribute.String("output.format", format),
	)

	path, err := s.files.SaveUpload(part, s.UploadDir)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeErrorResponse(w, "Request too large", "Upload exceeds the maximum allowed size", http.StatusRequestEntityTooLarge)
			return
		}
		span.RecordError(err)
		s.Logger.LogError(err, "Failed to store upload")
		writeErrorResponse(w, apperrors.ErrCodeInvalidRequest, "Failed to read upload", http.StatusBadRequest)
		return
	}
	defer s.files.RemoveUpload(path)

	parseCtx, cancel := s.parseContext(ctx)
	defer cancel()

	start := time.Now()
	resume, err := s.parser.Parse(parseCtx, path)
	if err != nil {
		kind := parser.KindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		span.SetAttributes(attribute.String("error.type", string(kind)))
		s.Logger.LogError(err, "Resume parsing failed",
			"filename", part.FileName(),
			"kind", string(kind),
			"duration", time.Since(start))
		writeErrorResponse(w, string(kind), parser.MessageOf(err), http.StatusBadRequest)
		return
	}

	s.Logger.Info("Resume parsed",
		"filename", part.FileName(),
		"format", format,
		"duration", time.Since(start))

	if format == "json" {
		writeJSON(w, http.StatusOK, resume)
		return
	}

	rendered, err := s.registry.Format(resume, format)
	if err != nil {
		span.RecordError(err)
		writeErrorResponse(w, apperrors.ErrCodeInvalidFormat, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(format))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, rendered); err != nil {
		s.Logger.Warn("Failed to write response", "error", err)
	}
}

// openUpload finds the "file" part of a multipart body. On failure the part is
// nil and the status, error code and message describe the rejection.
func (s *Server) openUpload(r *http.Request) (*multipart.Part, int, string, string) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest, "Request must be multipart/form-data"
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest, msgMissingUpload
		}
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return nil, http.StatusRequestEntityTooLarge, "Request too large", "Upload exceeds the maximum allowed size"
			}
			return nil, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest, "Malformed multipart body"
		}

		if part.FormName() != uploadFieldName {
			_ = part.Close()
			continue
		}

		if !utils.IsPDFFile(part.FileName()) {
			_ = part.Close()
			return nil, http.StatusBadRequest, string(parser.KindInvalidInput), msgOnlyPDF
		}
		return part, http.StatusOK, "", ""
	}
}

// parseContext bounds a parse by the configured model timeout
func (s *Server) parseContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.AppConfig == nil || s.AppConfig.AI.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.AppConfig.AI.Timeout)
}

func (s *Server) supportedFormats() []string {
	if s.AppConfig == nil {
		return s.registry.GetSupportedFormats()
	}
	return s.AppConfig.App.SupportedFormats
}

func contentTypeFor(format string) string {
	switch format {
	case "markdown":
		return "text/markdown; charset=utf-8"
	case "text":
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}
