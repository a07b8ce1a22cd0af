// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"docpipe/internal/domain"
	"docpipe/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type addCommentRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type assignUserRequest struct {
	UserID     string `json:"user_id"`
	AssignedBy string `json:"assigned_by"`
}

type Deps struct {
	Documents      DocumentStore
	Events         EventLister
	Pipeline       PipelineRunner
	Collab         CollaborationStore
	PipelineConfig PipelineConfigStore
	Health         HealthChecker
	Logger         *slog.Logger
	UploadDir      string
	MaxFileSize    int64
	Version        string
	Commit         string
	BuildDate      string
}

func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics.Init()
	version := valueOrDefault(deps.Version, "dev")
	commit := valueOrDefault(deps.Commit, "none")
	buildDate := valueOrDefault(deps.BuildDate, "unknown")

	uploadDir := valueOrDefault(deps.UploadDir, "uploads")
	maxFileSize := deps.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = 50 * 1024 * 1024
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware())
	r.Use(requestLoggingMiddleware(logger))

	// ---------------- HEALTH ----------------

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("health check hit")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ---------------- METRICS ----------------

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// ---------------- VERSION ----------------

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":    version,
			"commit":     commit,
			"build_date": buildDate,
		})
	})

	// ---------------- DOCUMENTS ----------------

	r.Route("/api/documents", func(api chi.Router) {
		api.Post("/upload", func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+1024*1024)

			file, header, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "no file provided", http.StatusBadRequest)
				return
			}
			defer file.Close()

			if header.Filename == "" {
				http.Error(w, "no file provided", http.StatusBadRequest)
				return
			}
			if header.Size > maxFileSize {
				http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
				return
			}

			userID := strings.TrimSpace(r.FormValue("user_id"))
			userEmail := strings.TrimSpace(r.FormValue("user_email"))
			userRole := strings.TrimSpace(r.FormValue("user_role"))
			if userID == "" || userEmail == "" || userRole == "" {
				http.Error(w, "user_id, user_email and user_role are required", http.StatusBadRequest)
				return
			}

			userFolder := filepath.Join(uploadDir, sanitizeEmailFolder(userEmail))
			if err := os.MkdirAll(userFolder, 0o755); err != nil {
				logger.Error("create upload folder failed", "folder", userFolder, "error", err)
				http.Error(w, "failed to store file", http.StatusInternalServerError)
				return
			}

			uniqueName := uuid.NewString() + filepath.Ext(header.Filename)
			filePath := filepath.Join(userFolder, uniqueName)

			dst, err := os.Create(filePath)
			if err != nil {
				logger.Error("create upload file failed", "path", filePath, "error", err)
				http.Error(w, "failed to store file", http.StatusInternalServerError)
				return
			}
			written, err := io.Copy(dst, file)
			closeErr := dst.Close()
			if err != nil || closeErr != nil {
				_ = os.Remove(filePath)
				logger.Error("write upload file failed", "path", filePath, "error", errors.Join(err, closeErr))
				http.Error(w, "failed to store file", http.StatusInternalServerError)
				return
			}

			mimeType := header.Header.Get("Content-Type")
			if mimeType == "" {
				mimeType = "application/octet-stream"
			}

			doc, err := deps.Documents.CreateDocument(r.Context(), domain.Document{
				Filename:         uniqueName,
				OriginalFilename: header.Filename,
				FilePath:         filePath,
				FileSize:         written,
				MimeType:         mimeType,
				UserID:           userID,
				UserEmail:        userEmail,
				UserRole:         userRole,
				Priority:         computeUploadPriority(userEmail, written, userFolder),
			})
			if err != nil {
				_ = os.Remove(filePath)
				logger.Error("create document failed", "error", err)
				http.Error(w, "failed to create document", http.StatusInternalServerError)
				return
			}

			metrics.IncDocumentStatus(doc.Status)
			logger.Info("document uploaded",
				"document_id", doc.ID,
				"user_email", userEmail,
				"file_size", written,
			)

			writeJSON(w, http.StatusOK, doc)
		})

		api.Get("/", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			docs, err := deps.Documents.ListDocuments(r.Context(), domain.ListFilters{
				Status:       domain.DocumentStatus(strings.TrimSpace(q.Get("status"))),
				DocumentType: strings.TrimSpace(q.Get("document_type")),
				UserEmail:    strings.TrimSpace(q.Get("user_email")),
				UserRole:     strings.TrimSpace(q.Get("user_role")),
			})
			if err != nil {
				logger.Error("list documents failed", "error", err)
				http.Error(w, "failed to list documents", http.StatusInternalServerError)
				return
			}

			limit := parseBoundedInt(q.Get("limit"), defaultListLimit, 1, maxListLimit)
			offset := parseBoundedInt(q.Get("offset"), 0, 0, 1<<30)

			total := len(docs)
			page := paginate(docs, offset, limit)

			writeJSON(w, http.StatusOK, map[string]any{
				"documents": page,
				"total":     total,
				"limit":     limit,
				"offset":    offset,
			})
		})

		api.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			doc, err := deps.Documents.GetDocument(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				if errors.Is(err, domain.ErrDocumentNotFound) {
					http.Error(w, "document not found", http.StatusNotFound)
					return
				}
				logger.Error("get document failed", "error", err)
				http.Error(w, "failed to get document", http.StatusInternalServerError)
				return
			}

			writeJSON(w, http.StatusOK, doc)
		})

		api.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			documentID := chi.URLParam(r, "id")

			doc, err := deps.Documents.GetDocument(r.Context(), documentID)
			if err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
				logger.Error("get document for delete failed", "document_id", documentID, "error", err)
				http.Error(w, "failed to delete document", http.StatusInternalServerError)
				return
			}

			deleted, err := deps.Documents.DeleteDocument(r.Context(), documentID)
			if err != nil {
				logger.Error("delete document failed", "document_id", documentID, "error", err)
				http.Error(w, "failed to delete document", http.StatusInternalServerError)
				return
			}
			if !deleted {
				http.Error(w, "document not found", http.StatusNotFound)
				return
			}

			if doc != nil && doc.FilePath != "" {
				if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
					logger.Warn("remove document file failed", "path", doc.FilePath, "error", err)
				}
			}

			logger.Info("document deleted via API", "document_id", documentID)
			writeJSON(w, http.StatusOK, map[string]any{
				"success":     true,
				"document_id": documentID,
			})
		})

		api.Get("/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			status, err := deps.Pipeline.GetProcessingStatus(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				if errors.Is(err, domain.ErrDocumentNotFound) {
					http.Error(w, "document not found", http.StatusNotFound)
					return
				}
				logger.Error("get processing status failed", "error", err)
				http.Error(w, "failed to get processing status", http.StatusInternalServerError)
				return
			}

			writeJSON(w, http.StatusOK, status)
		})

		api.Post("/{id}/reprocess", func(w http.ResponseWriter, r *http.Request) {
			documentID := chi.URLParam(r, "id")

			doc, err := deps.Documents.GetDocument(r.Context(), documentID)
			if err != nil {
				if errors.Is(err, domain.ErrDocumentNotFound) {
					http.Error(w, "document not found", http.StatusNotFound)
					return
				}
				logger.Error("get document for reprocess failed", "document_id", documentID, "error", err)
				http.Error(w, "failed to reprocess document", http.StatusInternalServerError)
				return
			}

			fromStage := domain.StageName(strings.TrimSpace(r.URL.Query().Get("from_agent")))
			outcome := deps.Pipeline.Reprocess(r.Context(), doc, fromStage)

			logger.Info("document reprocessed via API",
				"document_id", documentID,
				"from_agent", fromStage,
				"final_status", outcome.FinalStatus,
			)

			writeJSON(w, http.StatusOK, outcome)
		})

		api.Get("/{id}/events", func(w http.ResponseWriter, r *http.Request) {
			documentID := chi.URLParam(r, "id")

			events, err := deps.Events.ListEvents(r.Context(), documentID)
			if err != nil {
				logger.Error("list events failed", "document_id", documentID, "error", err)
				http.Error(w, "failed to list events", http.StatusInternalServerError)
				return
			}
			if len(events) == 0 {
				http.Error(w, "document not found", http.StatusNotFound)
				return
			}

			writeJSON(w, http.StatusOK, map[string]any{
				"events": events,
			})
		})

		// ---------------- COLLABORATION ----------------

		api.Get("/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
			comments, err := deps.Collab.ListComments(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				logger.Error("list comments failed", "error", err)
				http.Error(w, "failed to list comments", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
		})

		api.Post("/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
			documentID := chi.URLParam(r, "id")

			var req addCommentRequest
			if err := decodeJSONBody(r, &req); err != nil || strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Text) == "" {
				http.Error(w, "user_id and text are required", http.StatusBadRequest)
				return
			}

			comment, err := deps.Collab.CreateComment(r.Context(), domain.Comment{
				DocumentID: documentID,
				UserID:     req.UserID,
				Text:       req.Text,
			})
			if err != nil {
				logger.Error("create comment failed", "document_id", documentID, "error", err)
				http.Error(w, "failed to create comment", http.StatusInternalServerError)
				return
			}

			// Everyone assigned to the document hears about new comments,
			// except the commenter.
			assignments, err := deps.Collab.ListAssignments(r.Context(), documentID)
			if err != nil {
				logger.Warn("list assignments for comment fan-out failed", "document_id", documentID, "error", err)
			}
			for _, a := range assignments {
				if a.UserID == req.UserID {
					continue
				}
				if _, err := deps.Collab.CreateNotification(r.Context(), domain.Notification{
					UserID:     a.UserID,
					Type:       "comment",
					DocumentID: documentID,
					Payload: map[string]any{
						"comment_id": comment.ID.String(),
						"from_user":  req.UserID,
						"text":       req.Text,
					},
				}); err != nil {
					logger.Warn("comment notification failed", "document_id", documentID, "user_id", a.UserID, "error", err)
				}
			}

			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"comment": comment,
			})
		})

		api.Get("/{id}/assignments", func(w http.ResponseWriter, r *http.Request) {
			assignments, err := deps.Collab.ListAssignments(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				logger.Error("list assignments failed", "error", err)
				http.Error(w, "failed to list assignments", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments})
		})

		api.Post("/{id}/assign", func(w http.ResponseWriter, r *http.Request) {
			documentID := chi.URLParam(r, "id")

			var req assignUserRequest
			if err := decodeJSONBody(r, &req); err != nil || strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.AssignedBy) == "" {
				http.Error(w, "user_id and assigned_by are required", http.StatusBadRequest)
				return
			}

			assignment, err := deps.Collab.CreateAssignment(r.Context(), domain.Assignment{
				DocumentID: documentID,
				UserID:     req.UserID,
				AssignedBy: req.AssignedBy,
			})
			if err != nil {
				logger.Error("create assignment failed", "document_id", documentID, "error", err)
				http.Error(w, "failed to assign user", http.StatusInternalServerError)
				return
			}

			if _, err := deps.Collab.CreateNotification(r.Context(), domain.Notification{
				UserID:     req.UserID,
				Type:       "assignment",
				DocumentID: documentID,
				Payload: map[string]any{
					"assigned_by": req.AssignedBy,
				},
			}); err != nil {
				logger.Warn("assignment notification failed", "document_id", documentID, "user_id", req.UserID, "error", err)
			}

			writeJSON(w, http.StatusOK, map[string]any{
				"success":    true,
				"assignment": assignment,
			})
		})
	})

	// ---------------- NOTIFICATIONS ----------------

	r.Get("/api/notifications/{userID}", func(w http.ResponseWriter, r *http.Request) {
		notifications, err := deps.Collab.ListNotifications(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			logger.Error("list notifications failed", "error", err)
			http.Error(w, "failed to list notifications", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
	})

	// ---------------- PIPELINE CONFIG ----------------

	r.Get("/api/pipeline", func(w http.ResponseWriter, r *http.Request) {
		cfg, err := deps.PipelineConfig.GetPipelineConfig(r.Context())
		if err != nil {
			logger.Error("get pipeline config failed", "error", err)
			http.Error(w, "failed to get pipeline config", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	})

	r.Put("/api/pipeline", func(w http.ResponseWriter, r *http.Request) {
		var cfg domain.PipelineConfig
		if err := decodeJSONBody(r, &cfg); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		for _, stage := range cfg.Stages {
			if strings.TrimSpace(stage.Name) == "" {
				http.Error(w, "stage name must not be empty", http.StatusBadRequest)
				return
			}
		}

		if err := deps.PipelineConfig.SavePipelineConfig(r.Context(), cfg); err != nil {
			logger.Error("save pipeline config failed", "error", err)
			http.Error(w, "failed to save pipeline config", http.StatusInternalServerError)
			return
		}

		logger.Info("pipeline config updated via API", "stages", len(cfg.Stages))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	// ---------------- STATISTICS ----------------

	r.Get("/api/statistics/pipeline", func(w http.ResponseWriter, r *http.Request) {
		summary, err := deps.Pipeline.Summary(r.Context())
		if err != nil {
			logger.Error("pipeline summary failed", "error", err)
			http.Error(w, "failed to compute statistics", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	})

	r.Get("/api/statistics/users/{email}", func(w http.ResponseWriter, r *http.Request) {
		summary, err := deps.Pipeline.UserSummary(r.Context(), chi.URLParam(r, "email"))
		if err != nil {
			logger.Error("user summary failed", "error", err)
			http.Error(w, "failed to compute statistics", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	})

	r.Get("/api/statistics/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		dbHealthy := true
		if deps.Health != nil {
			if err := deps.Health.Check(ctx); err != nil {
				logger.Warn("database health check failed", "error", err)
				dbHealthy = false
			}
		}

		uploadHealthy := dirWritable(uploadDir)

		stats, err := deps.Pipeline.Statistics(ctx)
		if err != nil {
			logger.Error("pipeline statistics failed", "error", err)
			http.Error(w, "failed to compute statistics", http.StatusInternalServerError)
			return
		}

		status := "healthy"
		if !dbHealthy || !uploadHealthy {
			status = "unhealthy"
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status": status,
			"checks": map[string]string{
				"database":         healthLabel(dbHealthy),
				"upload_directory": healthLabel(uploadHealthy),
			},
			"statistics": stats,
		})
	})

	return r
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSONBody(r *http.Request, v any) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return errors.New("empty request body")
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}

	// Ensure there is only one JSON object.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain exactly one JSON object")
	}

	return nil
}

// computeUploadPriority mirrors the ingest priority heuristics at upload
// time so the queue can be ordered before the pipeline runs.
func computeUploadPriority(userEmail string, fileSize int64, folder string) string {
	vipSenders := map[string]bool{
		"ceo@company.com":     true,
		"finance@company.com": true,
		"admin@company.com":   true,
	}
	if vipSenders[userEmail] {
		return "high"
	}

	lowerFolder := strings.ToLower(folder)
	if strings.Contains(lowerFolder, "urgent") {
		return "high"
	}
	if fileSize > 50*1024*1024 {
		return "high"
	}
	if fileSize < 1*1024*1024 || strings.Contains(lowerFolder, "archive") {
		return "low"
	}
	if fileSize < 10*1024*1024 {
		return "medium"
	}
	return "high"
}

func sanitizeEmailFolder(email string) string {
	replacer := strings.NewReplacer("@", "_", ".", "_")
	return replacer.Replace(email)
}

func parseBoundedInt(raw string, def, min, max int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func paginate(docs []domain.Document, offset, limit int) []domain.Document {
	if offset >= len(docs) {
		return []domain.Document{}
	}
	end := offset + limit
	if end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end]
}

func dirWritable(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	probe, err := os.CreateTemp(dir, ".healthcheck-*")
	if err != nil {
		return false
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return true
}

func healthLabel(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}
