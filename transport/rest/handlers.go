// Package rest exposes the thin HTTP CRUD surface around the realtime core.
// Message edits and deletes taken over HTTP run through the same pipeline as
// the socket path, so both access paths share one fan-out.
package rest

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"chatline/auth"
	"chatline/domain"
	"chatline/errors"
	"chatline/services"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type API struct {
	log      *slog.Logger
	auth     *services.AuthService
	channels *services.ChannelService
	chat     services.IChatService
	tokens   *auth.TokenIssuer
}

func NewAPI(log *slog.Logger, authSvc *services.AuthService, channels *services.ChannelService,
	chat services.IChatService, tokens *auth.TokenIssuer) *API {
	return &API{log: log, auth: authSvc, channels: channels, chat: chat, tokens: tokens}
}

// Routes registers every endpoint on the mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", a.handleRegister)
	mux.HandleFunc("POST /api/users/login", a.handleLogin)
	mux.HandleFunc("GET /api/users", a.authenticated(a.handleListUsers))

	mux.HandleFunc("POST /api/channels", a.authenticated(a.handleCreateChannel))
	mux.HandleFunc("GET /api/channels", a.authenticated(a.handleListChannels))
	mux.HandleFunc("POST /api/channels/{channelId}/join", a.authenticated(a.handleJoinChannel))
	mux.HandleFunc("PUT /api/channels/{channelId}/leave", a.authenticated(a.handleLeaveChannel))
	mux.HandleFunc("PUT /api/channels/{channelId}/add_member", a.authenticated(a.handleAddMember))

	mux.HandleFunc("GET /api/messages/{channelId}", a.authenticated(a.handleHistory))
	mux.HandleFunc("PUT /api/messages/{messageId}", a.authenticated(a.handleEditMessage))
	mux.HandleFunc("DELETE /api/messages/{messageId}", a.authenticated(a.handleDeleteMessage))
}

type authedHandler func(w http.ResponseWriter, r *http.Request, userID domain.UserID)

// authenticated resolves the session token from the Authorization header or
// the session cookie and rejects the request otherwise.
func (a *API) authenticated(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		} else if cookie, err := r.Cookie("session"); err == nil {
			token = cookie.Value
		}

		claims, err := a.tokens.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session")
			return
		}
		next(w, r, domain.UserID(claims.UserID))
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := a.auth.Register(r.Context(), req)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, token, err := a.auth.Login(r.Context(), req)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user, "token": token})
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request, _ domain.UserID) {
	users, err := a.auth.ListUsers(r.Context())
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type createChannelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func (a *API) handleCreateChannel(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	var req createChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	channel, err := a.channels.Create(r.Context(), req.Name, req.Description, domain.ChannelType(req.Type), userID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, channel)
}

func (a *API) handleListChannels(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	channels, err := a.channels.List(r.Context(), userID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

func (a *API) handleJoinChannel(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	channel, err := a.channels.Join(r.Context(), domain.ChannelID(r.PathValue("channelId")), userID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

func (a *API) handleLeaveChannel(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	channel, err := a.channels.Leave(r.Context(), domain.ChannelID(r.PathValue("channelId")), userID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

type addMemberRequest struct {
	Email string `json:"email"`
}

func (a *API) handleAddMember(w http.ResponseWriter, r *http.Request, _ domain.UserID) {
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	channel, err := a.channels.AddMember(r.Context(), domain.ChannelID(r.PathValue("channelId")), req.Email)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request, _ domain.UserID) {
	query := domain.HistoryQuery{ChannelID: domain.ChannelID(r.PathValue("channelId"))}
	if search := r.URL.Query().Get("search"); search != "" {
		query.Filter = &search
	}

	messages, err := a.chat.FetchHistory(r.Context(), query)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

type editMessageRequest struct {
	Content string `json:"content"`
}

func (a *API) handleEditMessage(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	messageID, err := uuid.Parse(r.PathValue("messageId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	var req editMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	msg, err := a.chat.Edit(r.Context(), domain.EditMessageCommand{
		RequesterID: userID,
		MessageID:   messageID,
		Content:     req.Content,
	})
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (a *API) handleDeleteMessage(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	messageID, err := uuid.Parse(r.PathValue("messageId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	msg, err := a.chat.SoftDelete(r.Context(), domain.DeleteMessageCommand{
		RequesterID: userID,
		MessageID:   messageID,
	})
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// writeDomainError maps the error taxonomy onto status codes. Errors are
// reported to the requester only; nothing here reaches other connections.
func (a *API) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, errors.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case stderrors.Is(err, errors.ErrNotFound),
		stderrors.Is(err, errors.ErrChannelNotFound),
		stderrors.Is(err, errors.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case stderrors.Is(err, errors.ErrMessageDeleted),
		stderrors.Is(err, errors.ErrAlreadyMember),
		stderrors.Is(err, errors.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case stderrors.Is(err, errors.ErrEmptyContent),
		stderrors.Is(err, errors.ErrInvalidPassword),
		stderrors.As(err, &validator.ValidationErrors{}):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.log.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
