package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"certtrack/internal/types"
)

// handleUpload stores a multipart file upload against an inspection. Files
// land in the uploads dir under a uuid name; the original name is kept in
// the attachment row.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)

	if _, err := s.store.InspectionByID(ctx, id); err != nil {
		s.notFoundOr500(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes()); err != nil {
		s.flashAndRedirect(w, r, "warning", "Upload too large or malformed.", inspectionURL(id))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.flashAndRedirect(w, r, "warning", "No file selected.", inspectionURL(id))
		return
	}
	defer file.Close()

	if err := os.MkdirAll(s.cfg.Uploads.Dir, 0755); err != nil {
		s.serverError(w, err)
		return
	}

	storedName := uuid.NewString() + filepath.Ext(header.Filename)
	dstPath := filepath.Join(s.cfg.Uploads.Dir, storedName)
	dst, err := os.Create(dstPath)
	if err != nil {
		s.serverError(w, err)
		return
	}
	size, err := io.Copy(dst, file)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dstPath)
		s.serverError(w, err)
		return
	}

	var uploadedBy int64
	if sess := s.sessions.sessionFrom(r); sess != nil {
		uploadedBy = sess.UserID
	}
	_, err = s.store.AddAttachment(ctx, &types.Attachment{
		InspectionID: id,
		FileName:     filepath.Base(header.Filename),
		StoredName:   storedName,
		Size:         size,
		UploadedBy:   uploadedBy,
	})
	if err != nil {
		os.Remove(dstPath)
		s.serverError(w, err)
		return
	}

	s.audit(r, "inspection", id, "upload", "file: "+filepath.Base(header.Filename))
	s.flashAndRedirect(w, r, "success", "File uploaded.", inspectionURL(id))
}

// handleDownload streams a stored attachment under its original name.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.AttachmentByID(r.Context(), pathID(r))
	if err != nil {
		s.notFoundOr500(w, r, err)
		return
	}

	path := filepath.Join(s.cfg.Uploads.Dir, filepath.Base(a.StoredName))
	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn("attachment missing on disk",
			zap.Int64("attachment", a.ID), zap.String("path", path))
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.FileName))
	http.ServeContent(w, r, a.FileName, a.CreatedAt, f)
}

// handleAttachmentDelete removes the row, then the disk file best-effort.
func (s *Server) handleAttachmentDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, err := s.store.AttachmentByID(ctx, pathID(r))
	if err != nil {
		s.notFoundOr500(w, r, err)
		return
	}
	if err := s.store.DeleteAttachment(ctx, a.ID); err != nil {
		s.notFoundOr500(w, r, err)
		return
	}
	if err := os.Remove(filepath.Join(s.cfg.Uploads.Dir, filepath.Base(a.StoredName))); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove attachment file", zap.Error(err))
	}

	s.audit(r, "inspection", a.InspectionID, "delete_file", "file: "+a.FileName)
	s.flashAndRedirect(w, r, "info", "File deleted.", inspectionURL(a.InspectionID))
}
