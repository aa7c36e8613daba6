package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/photovault/photovault/internal/logging"
	"github.com/photovault/photovault/internal/server/auth"
	"github.com/photovault/photovault/internal/server/models"
	"github.com/photovault/photovault/internal/server/services"
)

// SessionManager is the slice of the session service the handlers use.
type SessionManager interface {
	ProfileLoader
	Register(ctx context.Context, email, name, password string) (*models.User, *auth.TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.User, *auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type AlbumManager interface {
	Create(ctx context.Context, userID, title, description string) (*models.Album, error)
	List(ctx context.Context, userID string) ([]*models.Album, error)
	Get(ctx context.Context, userID, albumID string) (*models.Album, error)
	Update(ctx context.Context, userID, albumID string, title, description *string) (*models.Album, error)
	Delete(ctx context.Context, userID, albumID string) error
	ToggleShare(ctx context.Context, userID, albumID string, isPublic bool) (*models.Album, error)
	GetShared(ctx context.Context, shareToken string) (*models.Album, error)
}

type PhotoManager interface {
	RequestUpload(ctx context.Context, userID, albumID, fileName, contentType string) (*models.Photo, string, error)
	ListForOwner(ctx context.Context, userID, albumID string) ([]*services.PhotoWithURL, error)
	ListAlbum(ctx context.Context, albumID string) ([]*services.PhotoWithURL, error)
	Delete(ctx context.Context, userID, photoID string) error
}

type Handler struct {
	sessions SessionManager
	albums   AlbumManager
	photos   PhotoManager
	logger   logging.Logger
}

func NewHandler(sessions SessionManager, albums AlbumManager, photos PhotoManager, logger logging.Logger) *Handler {
	return &Handler{sessions: sessions, albums: albums, photos: photos, logger: logger}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

type sessionResponse struct {
	User *models.PublicProfile `json:"user"`
	*auth.TokenPair
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, pair, err := h.sessions.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{User: user.Public(), TokenPair: pair})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, pair, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user.Public(), TokenPair: pair})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := h.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r.Context())
	if err := h.sessions.Logout(r.Context(), user.ID); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword answers identically whether or not the account exists.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.sessions.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "if the email exists, a reset link has been sent"})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "token and new password are required")
		return
	}

	if err := h.sessions.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "password has been reset"})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r.Context())
	writeJSON(w, http.StatusOK, user)
}

type createAlbumRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *Handler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req createAlbumRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	user, _ := GetUser(r.Context())
	album, err := h.albums.Create(r.Context(), user.ID, req.Title, req.Description)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, album)
}

func (h *Handler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r.Context())
	albums, err := h.albums.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	if albums == nil {
		albums = []*models.Album{}
	}
	writeJSON(w, http.StatusOK, albums)
}

func (h *Handler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r.Context())
	album, err := h.albums.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

type updateAlbumRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (h *Handler) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	var req updateAlbumRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title != nil && *req.Title == "" {
		writeError(w, http.StatusBadRequest, "title must not be empty")
		return
	}

	user, _ := GetUser(r.Context())
	album, err := h.albums.Update(r.Context(), user.ID, chi.URLParam(r, "id"), req.Title, req.Description)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (h *Handler) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r.Context())
	if err := h.albums.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type shareAlbumRequest struct {
	IsPublic bool `json:"isPublic"`
}

func (h *Handler) ShareAlbum(w http.ResponseWriter, r *http.Request) {
	var req shareAlbumRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, _ := GetUser(r.Context())
	album, err := h.albums.ToggleShare(r.Context(), user.ID, chi.URLParam(r, "id"), req.IsPublic)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

type sharedAlbumResponse struct {
	Album  *models.Album            `json:"album"`
	Photos []*services.PhotoWithURL `json:"photos"`
}

func (h *Handler) GetSharedAlbum(w http.ResponseWriter, r *http.Request) {
	album, err := h.albums.GetShared(r.Context(), chi.URLParam(r, "shareToken"))
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}

	photos, err := h.photos.ListAlbum(r.Context(), album.ID)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	if photos == nil {
		photos = []*services.PhotoWithURL{}
	}
	writeJSON(w, http.StatusOK, sharedAlbumResponse{Album: album, Photos: photos})
}

type uploadURLRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type uploadURLResponse struct {
	Photo     *models.Photo `json:"photo"`
	UploadURL string        `json:"uploadUrl"`
}

func (h *Handler) RequestUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FileName == "" || req.ContentType == "" {
		writeError(w, http.StatusBadRequest, "fileName and contentType are required")
		return
	}

	user, _ := GetUser(r.Context())
	photo, url, err := h.photos.RequestUpload(r.Context(), user.ID, chi.URLParam(r, "id"), req.FileName, req.ContentType)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadURLResponse{Photo: photo, UploadURL: url})
}

func (h *Handler) ListAlbumPhotos(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r.Context())
	photos, err := h.photos.ListForOwner(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	if photos == nil {
		photos = []*services.PhotoWithURL{}
	}
	writeJSON(w, http.StatusOK, photos)
}

func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r.Context())
	if err := h.photos.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
