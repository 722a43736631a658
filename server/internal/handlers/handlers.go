package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ccboard/ccboard/internal/api"
	"github.com/ccboard/ccboard/server/internal/database"
)

const (
	defaultLeaderboardLimit = 100
	maxLeaderboardLimit     = 500
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db         *database.DB
	logger     *zap.Logger
	version    string
	adminToken string
}

// New creates a new Handler
func New(db *database.DB, logger *zap.Logger, version, adminToken string) *Handler {
	return &Handler{
		db:         db,
		logger:     logger,
		version:    version,
		adminToken: adminToken,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) jsonError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}

// internalError logs the real failure and replies with a generic message.
func (h *Handler) internalError(w http.ResponseWriter, what string, err error) {
	h.logger.Error(what, zap.Error(err))
	h.jsonError(w, http.StatusInternalServerError, "Internal server error")
}

// Root serves the service banner
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "ccboard API",
		"version": h.version,
		"status":  "healthy",
	})
}

// Health handles the health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy", "error": "database unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Register handles POST /api/v1/users/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.RegisterResponse{
			Username: req.Username, Error: "Invalid request body",
		})
		return
	}

	if msg := validateUsername(req.Username); msg != "" {
		writeJSON(w, http.StatusBadRequest, api.RegisterResponse{Username: req.Username, Error: msg})
		return
	}
	if msg := validateDeviceID(req.DeviceID); msg != "" {
		writeJSON(w, http.StatusBadRequest, api.RegisterResponse{Username: req.Username, Error: msg})
		return
	}

	existing, err := h.db.GetUserByUsername(req.Username)
	if err != nil {
		h.internalError(w, "register: username lookup failed", err)
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusBadRequest, api.RegisterResponse{
			Username: req.Username, Error: "Username already taken",
		})
		return
	}

	device, err := h.db.GetUserByDeviceID(req.DeviceID)
	if err != nil {
		h.internalError(w, "register: device lookup failed", err)
		return
	}
	if device != nil {
		writeJSON(w, http.StatusBadRequest, api.RegisterResponse{
			Username: req.Username, Error: "Device already registered",
		})
		return
	}

	if _, err := h.db.CreateUser(req.Username, req.DeviceID); err != nil {
		// A concurrent registration can beat us to the unique indexes.
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			msg := "Username already taken"
			if strings.Contains(sqliteErr.Error(), "device_id") {
				msg = "Device already registered"
			}
			writeJSON(w, http.StatusBadRequest, api.RegisterResponse{Username: req.Username, Error: msg})
			return
		}
		h.internalError(w, "register: insert failed", err)
		return
	}

	writeJSON(w, http.StatusOK, api.RegisterResponse{
		Success: true, Username: req.Username, Created: true,
	})
}

// lookupUser resolves the {username} path value, writing the error reply
// itself and returning nil when the request cannot proceed.
func (h *Handler) lookupUser(w http.ResponseWriter, r *http.Request) *database.User {
	username := r.PathValue("username")
	if msg := validateUsername(username); msg != "" {
		h.jsonError(w, http.StatusBadRequest, msg)
		return nil
	}

	user, err := h.db.GetUserByUsername(username)
	if err != nil {
		h.internalError(w, "user lookup failed", err)
		return nil
	}
	if user == nil {
		h.jsonError(w, http.StatusNotFound, "User not found")
		return nil
	}
	return user
}

// SyncStatus handles GET /api/v1/users/{username}/sync-status
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	user := h.lookupUser(w, r)
	if user == nil {
		return
	}

	days, err := h.db.CountUploadedDays(user.ID)
	if err != nil {
		h.internalError(w, "sync-status: day count failed", err)
		return
	}

	writeJSON(w, http.StatusOK, api.SyncStatusResponse{
		Username:          user.Username,
		LastSyncDate:      user.LastSyncDate,
		LastUploadTime:    user.LastUploadAt,
		TotalDaysUploaded: days,
	})
}

// Stats handles GET /api/v1/users/{username}/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	user := h.lookupUser(w, r)
	if user == nil {
		return
	}

	ranks, err := h.db.GlobalRanks(user)
	if err != nil {
		h.internalError(w, "stats: rank query failed", err)
		return
	}

	cutoff := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	activity, err := h.db.RecentActivity(user.ID, cutoff)
	if err != nil {
		h.internalError(w, "stats: activity query failed", err)
		return
	}

	recent := make([]api.ActivityDay, len(activity))
	for i, day := range activity {
		recent[i] = api.ActivityDay{Date: day.Date, Requests: day.Requests, Cost: day.Cost}
	}

	writeJSON(w, http.StatusOK, api.UserStatsResponse{
		Username: user.Username,
		GlobalRank: api.GlobalRank{
			ByRequests: ranks.ByRequests,
			ByTokens:   ranks.ByTokens,
			ByCost:     ranks.ByCost,
		},
		Totals: api.UserTotals{
			Requests:     user.TotalRequests,
			InputTokens:  user.TotalInputTokens,
			OutputTokens: user.TotalOutputTokens,
			Cost:         user.TotalCost,
		},
		RecentActivity: recent,
	})
}

// Upload handles POST /api/v1/usage/upload. Batch validation is
// all-or-nothing; row-level reconciliation failures are collected and
// still return 200.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	var req api.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.UploadResponse{
			Errors: []string{"Invalid request body"},
		})
		return
	}

	if msg := validateUsername(req.Username); msg != "" {
		writeJSON(w, http.StatusBadRequest, api.UploadResponse{Errors: []string{msg}})
		return
	}

	if errs := validateBulkUpload(req.DailyUsage, time.Now()); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, api.UploadResponse{Errors: errs})
		return
	}

	user, err := h.db.GetUserByUsername(req.Username)
	if err != nil {
		h.logger.Error("upload: user lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, api.UploadResponse{
			Errors: []string{"Internal server error"},
		})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, api.UploadResponse{
			Errors: []string{"User not found"},
		})
		return
	}

	entries := make([]database.DailyUsage, len(req.DailyUsage))
	for i, e := range req.DailyUsage {
		entries[i] = database.DailyUsage{
			Date:              e.Date,
			TotalRequests:     e.TotalRequests,
			TotalInputTokens:  e.TotalInputTokens,
			TotalOutputTokens: e.TotalOutputTokens,
			TotalCost:         e.TotalCost,
		}
	}

	result, err := h.db.ApplyDailyUsage(user.ID, entries)
	if err != nil {
		h.logger.Error("upload: reconciliation failed",
			zap.String("username", user.Username), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, api.UploadResponse{
			Errors: []string{"Internal server error"},
		})
		return
	}

	h.logger.Info("usage uploaded",
		zap.String("username", user.Username),
		zap.Int("uploaded", result.Uploaded),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)))

	writeJSON(w, http.StatusOK, api.UploadResponse{
		Success:  true,
		Uploaded: result.Uploaded,
		Skipped:  result.Skipped,
		Errors:   result.Errors,
	})
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	metric := query.Get("metric")
	if metric == "" {
		metric = "requests"
	}
	switch metric {
	case "requests", "tokens", "cost":
	default:
		h.jsonError(w, http.StatusBadRequest, "Invalid metric: use requests, tokens, or cost")
		return
	}

	period := query.Get("period")
	if period == "" {
		period = "all"
	}
	switch period {
	case "all", "month", "week":
	default:
		h.jsonError(w, http.StatusBadRequest, "Invalid period: use all, month, or week")
		return
	}

	limit := defaultLeaderboardLimit
	if raw := query.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	offset := 0
	if raw := query.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}

	var (
		rows  []database.LeaderboardRow
		total int64
		err   error
	)
	if period == "all" {
		rows, total, err = h.db.LeaderboardAllTime(metric, limit, offset)
	} else {
		days := 30
		if period == "week" {
			days = 7
		}
		cutoff := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
		rows, total, err = h.db.LeaderboardWindow(metric, cutoff, limit, offset)
	}
	if err != nil {
		h.internalError(w, "leaderboard query failed", err)
		return
	}

	entries := make([]api.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = api.LeaderboardEntry{
			Rank:          offset + i + 1,
			Username:      row.Username,
			TotalRequests: row.TotalRequests,
			TotalTokens:   row.TotalTokens,
			TotalCost:     row.TotalCost,
			LastActive:    row.LastActive,
		}
	}

	writeJSON(w, http.StatusOK, api.LeaderboardResponse{
		Leaderboard: entries,
		Total:       total,
		Period:      period,
		Metric:      metric,
	})
}

// Recalculate handles POST /api/v1/admin/users/{username}/recalculate, the
// repair path that rebuilds running totals from daily rows. Disabled unless
// an admin token is configured.
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	if h.adminToken == "" {
		h.jsonError(w, http.StatusNotFound, "Not found")
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token != h.adminToken {
		h.jsonError(w, http.StatusUnauthorized, "Invalid admin token")
		return
	}

	user := h.lookupUser(w, r)
	if user == nil {
		return
	}

	if err := h.db.RecalculateUserTotals(user.ID); err != nil {
		h.internalError(w, "recalculate failed", err)
		return
	}

	h.logger.Info("totals recalculated", zap.String("username", user.Username))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// NotFound is the JSON 404 fallback
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.jsonError(w, http.StatusNotFound, "Not found")
}
