package api

import (
	"errors"
	"net/http"

	"github.com/docxer/docxer/internal/intake"
	"github.com/docxer/docxer/internal/pipeline"
	"github.com/docxer/docxer/internal/session"
	"github.com/go-chi/chi/v5"
)

// maxAdditionalFiles bounds one additional-files upload.
const maxAdditionalFiles = 20

type sessionResponse struct {
	session.Status
	Message string `json:"message"`
}

func (s *Server) handleSessionStart(kind session.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.Create(kind)
		s.log.Info("project session started", "session_id", sess.ID, "kind", kind)
		writeJSON(w, http.StatusOK, sessionResponse{
			Status:  sess.Status(),
			Message: "Session created. Upload package.json to continue.",
		})
	}
}

// updateSession applies fn to the session named in the URL when it is of
// the given kind, and answers with its status.
func (s *Server) updateSession(w http.ResponseWriter, r *http.Request, kind session.Kind, message string, fn func(*session.Session) error) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Update(id, func(sess *session.Session) error {
		if sess.Kind != kind {
			return session.ErrNotFound
		}
		return fn(sess)
	})
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Status: sess.Status(), Message: message})
}

func sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		jsonError(w, "Session not found", http.StatusNotFound)
		return
	}
	jsonError(w, err.Error(), intake.StatusOf(err))
}

// readTextUpload reads the "file" part of a multipart form as text.
func (s *Server) readTextUpload(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		formError(w, err)
		return "", "", false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "No file provided", http.StatusBadRequest)
		return "", "", false
	}
	defer file.Close()

	content, err := intake.ReadText(file, s.cfg.MaxUploadBytes)
	if err != nil {
		jsonError(w, err.Error(), intake.StatusOf(err))
		return "", "", false
	}
	return intake.SanitizeFilename(header.Filename), content, true
}

func (s *Server) handlePackageJSON(kind session.Kind) http.HandlerFunc {
	validate := intake.ValidateReactPackageJSON
	if kind == session.KindNode {
		validate = intake.ValidateNodePackageJSON
	}
	return func(w http.ResponseWriter, r *http.Request) {
		_, content, ok := s.readTextUpload(w, r)
		if !ok {
			return
		}
		s.updateSession(w, r, kind, "package.json uploaded successfully", func(sess *session.Session) error {
			pkg, err := validate(content)
			if err != nil {
				return err
			}
			sess.PackageJSON = content
			sess.ProjectName = pkg.Name
			return nil
		})
	}
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	name, content, ok := s.readTextUpload(w, r)
	if !ok {
		return
	}
	s.updateSession(w, r, session.KindReact, "Component uploaded successfully", func(sess *session.Session) error {
		if err := intake.ValidateComponent(name, content); err != nil {
			return err
		}
		sess.Component = session.File{Name: name, Content: content}
		return nil
	})
}

func (s *Server) handleServerFile(w http.ResponseWriter, r *http.Request) {
	name, content, ok := s.readTextUpload(w, r)
	if !ok {
		return
	}
	s.updateSession(w, r, session.KindNode, "Server file uploaded successfully", func(sess *session.Session) error {
		if err := intake.ValidateServerFile(name, content); err != nil {
			return err
		}
		sess.Server = session.File{Name: name, Content: content}
		return nil
	})
}

// handleAdditionalFiles accepts routes, models and other supporting files
// in the multipart field "files". The whole batch is rejected if any file
// is invalid.
func (s *Server) handleAdditionalFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*maxAdditionalFiles+1024*1024)
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	if len(headers) > maxAdditionalFiles {
		jsonError(w, "too many files", http.StatusBadRequest)
		return
	}

	files := make([]session.File, 0, len(headers))
	for _, fh := range headers {
		name := intake.SanitizeFilename(fh.Filename)
		if err := intake.ValidateAdditionalFile(name); err != nil {
			jsonError(w, err.Error(), intake.StatusOf(err))
			return
		}
		f, err := fh.Open()
		if err != nil {
			jsonError(w, "failed to open file", http.StatusBadRequest)
			return
		}
		content, err := intake.ReadText(f, s.cfg.MaxUploadBytes)
		f.Close()
		if err != nil {
			jsonError(w, err.Error(), intake.StatusOf(err))
			return
		}
		files = append(files, session.File{Name: name, Content: content})
	}

	s.updateSession(w, r, session.KindNode, "Additional files uploaded successfully", func(sess *session.Session) error {
		sess.Extras = append(sess.Extras, files...)
		return nil
	})
}

func (s *Server) handleSessionGenerate(kind session.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		sess, err := s.sessions.Get(id)
		if err != nil || sess.Kind != kind {
			jsonError(w, "Session not found", http.StatusNotFound)
			return
		}
		if !sess.Ready() {
			msg := "Both package.json and component must be uploaded"
			if kind == session.KindNode {
				msg = "Both package.json and main server file must be uploaded"
			}
			jsonError(w, msg, http.StatusBadRequest)
			return
		}

		sess, err = s.sessions.Take(id)
		if err != nil {
			sessionError(w, err)
			return
		}
		req, err := pipeline.FromSession(sess)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		task := pipeline.NewTask(req)
		s.log.Info("project submitted", "session_id", id, "task_id", task.ID, "kind", kind)
		s.submit(w, task)
	}
}
