package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"multisign-server/internal/model"
	requestresponse "multisign-server/internal/model/requestresponse"
	"multisign-server/internal/ports"
	"multisign-server/internal/security"
	"multisign-server/internal/util"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

type DocumentHandler struct {
	ports.DocumentService
}

func NewDocumentHandler(documentService ports.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService}
}

// RegisterRoutes : маршруты API документов, все под JWT-авторизацией
func RegisterRoutes(r chi.Router, h *DocumentHandler, jwtService *security.JWTService) {
	r.Route("/api", func(r chi.Router) {
		r.Use(security.JWTMiddleware(jwtService))

		r.Route("/docs", func(r chi.Router) {
			r.Get("/", h.GetOverview)
			r.Post("/", h.CreateDocument)

			r.Route("/{key}", func(r chi.Router) {
				r.Delete("/", h.RemoveDocument)
				r.Get("/content", h.GetDocumentContent)
				r.Post("/invitations", h.UpdateInvitations)
				r.Post("/sign", h.SignDocument)
				r.Post("/decline", h.DeclineDocument)
				r.Post("/unlock", h.UnlockDocument)
				r.Get("/lock", h.CheckLock)
				r.Post("/sign-request", h.CreateSignRequest)
			})
		})

		r.Get("/invitations/{key}", h.GetInvitation)
		r.Post("/invitations/{key}/delegate", h.Delegate)
		r.Post("/sign-response", h.ProcessSignResponse)
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("[DocumentHandler] ошибка записи ответа", zap.Error(err))
	}
}

// handleServiceError : сопоставляет ошибки сервиса со статусами HTTP
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		util.HandleError(w, "документ или приглашение не найдены", http.StatusNotFound)
	case errors.Is(err, model.ErrForbidden):
		util.HandleError(w, model.ErrForbidden.Error(), http.StatusForbidden)
	case errors.Is(err, model.ErrNotYourTurn):
		util.HandleError(w, model.ErrNotYourTurn.Error(), http.StatusConflict)
	case errors.Is(err, model.ErrDocumentLocked):
		util.HandleError(w, model.ErrDocumentLocked.Error(), http.StatusConflict)
	case errors.Is(err, model.ErrPendingInvitations):
		util.HandleError(w, model.ErrPendingInvitations.Error(), http.StatusConflict)
	case errors.Is(err, model.ErrSignerMismatch):
		util.HandleError(w, model.ErrSignerMismatch.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, model.ErrInvalidDocument):
		util.HandleError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrSignAPI):
		util.HandleError(w, model.ErrSignAPI.Error(), http.StatusBadGateway)
	default:
		zap.L().Error("[DocumentHandler] внутренняя ошибка", zap.Error(err))
		util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}

func identityFromRequest(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	identity, err := security.GetIdentityFromContext(r.Context())
	if err != nil {
		util.HandleError(w, "Пользователь не авторизован", http.StatusUnauthorized)
		return model.Identity{}, false
	}
	return identity, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		util.HandleError(w, "неверный формат запроса", http.StatusBadRequest)
		return false
	}
	return true
}

// ownedDocument : документ по ключу из пути, если identity его владелец
func (h *DocumentHandler) ownedDocument(ctx context.Context, w http.ResponseWriter, key string, identity model.Identity) (*model.Document, bool) {
	document, err := h.DocumentService.GetDocument(ctx, key)
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	if document == nil {
		util.HandleError(w, "Документ не найден", http.StatusNotFound)
		return nil, false
	}
	if !identity.HasEmail(document.Owner.Email) {
		util.HandleError(w, "Недостаточно прав", http.StatusForbidden)
		return nil, false
	}
	return document, true
}

// CreateDocument godoc
// @Summary Загрузка документа на подпись
// @Description Сохраняет содержимое и метаданные документа и создаёт приглашения подписантам.
// @Tags Documents
// @Accept json
// @Produce json
// @Param request body requestresponse.CreateDocumentRequest true "Документ и подписанты"
// @Success 201 {object} requestresponse.CreateDocumentResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs [post]
// @Security BearerAuth
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var request requestresponse.CreateDocumentRequest
	if !decodeBody(w, r, &request) {
		return
	}

	document := request.Document()
	invitations, err := h.DocumentService.AddDocument(ctx, document, identity.Owner(), request.InviteesModel(), request.Options())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, requestresponse.CreateDocumentResponse{
		Key:         document.Key,
		Invitations: invitations,
	})
}

// GetOverview godoc
// @Summary Документы пользователя
// @Description Документы, загруженные пользователем, и документы, ожидающие его подписи.
// @Tags Documents
// @Produce json
// @Success 200 {object} model.Overview
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs [get]
// @Security BearerAuth
func (h *DocumentHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	overview, err := h.DocumentService.GetOverview(ctx, identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, overview)
}

// RemoveDocument godoc
// @Summary Удалить документ
// @Description Удаляет метаданные и содержимое. Без force удаление отклоняется, пока есть ожидающие подписанты.
// @Tags Documents
// @Produce json
// @Param key path string true "Ключ документа"
// @Param force query bool false "Удалить вместе с неразрешёнными приглашениями"
// @Success 200 {object} requestresponse.RemoveDocumentResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs/{key} [delete]
// @Security BearerAuth
func (h *DocumentHandler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	force := false
	if forceStr := r.URL.Query().Get("force"); forceStr != "" {
		parsed, err := strconv.ParseBool(forceStr)
		if err != nil {
			util.HandleError(w, "неверный формат force (должно быть true/false)", http.StatusBadRequest)
			return
		}
		force = parsed
	}

	key := chi.URLParam(r, "key")
	if _, ok := h.ownedDocument(ctx, w, key, identity); !ok {
		return
	}

	removed, err := h.DocumentService.RemoveDocument(ctx, key, force)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !removed {
		handleServiceError(w, model.ErrPendingInvitations)
		return
	}

	writeJSON(w, http.StatusOK, requestresponse.RemoveDocumentResponse{Removed: true})
}

// GetDocumentContent godoc
// @Summary Содержимое документа
// @Description Возвращает текущее содержимое документа в base64, доступно владельцу.
// @Tags Documents
// @Produce json
// @Param key path string true "Ключ документа"
// @Success 200 {object} requestresponse.SignDocumentRequest
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs/{key}/content [get]
// @Security BearerAuth
func (h *DocumentHandler) GetDocumentContent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	key := chi.URLParam(r, "key")
	if _, ok := h.ownedDocument(ctx, w, key, identity); !ok {
		return
	}

	content, err := h.DocumentService.GetDocumentContent(ctx, key)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requestresponse.SignDocumentRequest{Blob: content})
}

// UpdateInvitations godoc
// @Summary Изменить список подписантов
// @Description Удаляет исключённых ожидающих подписантов и добавляет новых в конец очереди.
// @Tags Invitations
// @Accept json
// @Produce json
// @Param key path string true "Ключ документа"
// @Param request body requestresponse.UpdateInvitationsRequest true "Новый список подписантов"
// @Success 200 {array} model.Invitation
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs/{key}/invitations [post]
// @Security BearerAuth
func (h *DocumentHandler) UpdateInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var request requestresponse.UpdateInvitationsRequest
	if !decodeBody(w, r, &request) {
		return
	}

	key := chi.URLParam(r, "key")
	if _, ok := h.ownedDocument(ctx, w, key, identity); !ok {
		return
	}

	invitations, err := h.DocumentService.UpdateInvitations(ctx, key, request.InviteesModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invitations)
}

// GetInvitation godoc
// @Summary Открыть приглашение
// @Description Блокирует документ за приглашённым и возвращает его вместе с содержимым.
// @Description Доступно только приглашённому, в упорядоченном документе только в свою очередь.
// @Tags Invitations
// @Produce json
// @Param key path string true "Ключ приглашения"
// @Success 200 {object} model.InvitationResult
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/invitations/{key} [get]
// @Security BearerAuth
func (h *DocumentHandler) GetInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	result, err := h.DocumentService.GetInvitation(ctx, chi.URLParam(r, "key"), identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Delegate godoc
// @Summary Передать приглашение
// @Description Заменяет ожидающее приглашение новым для другого подписанта с тем же порядком.
// @Description Доступно приглашённому и владельцу документа.
// @Tags Invitations
// @Accept json
// @Produce json
// @Param key path string true "Ключ приглашения"
// @Param request body requestresponse.DelegateRequest true "Новый подписант"
// @Success 200 {object} model.Invitation
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/invitations/{key}/delegate [post]
// @Security BearerAuth
func (h *DocumentHandler) Delegate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var request requestresponse.DelegateRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if request.Email == "" {
		util.HandleError(w, "не указан адрес нового подписанта", http.StatusBadRequest)
		return
	}

	invitee := model.Invitee{Name: request.Name, Email: request.Email, Lang: request.Lang}
	invitation, err := h.DocumentService.Delegate(ctx, chi.URLParam(r, "key"), invitee, identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invitation)
}

// SignDocument godoc
// @Summary Сохранить подписанный документ
// @Description Сохраняет подписанное содержимое, отмечает приглашение подписанным и снимает блокировку.
// @Tags Signing
// @Accept json
// @Produce json
// @Param key path string true "Ключ документа"
// @Param request body requestresponse.SignDocumentRequest true "Подписанное содержимое"
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 422 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs/{key}/sign [post]
// @Security BearerAuth
func (h *DocumentHandler) SignDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var request requestresponse.SignDocumentRequest
	if !decodeBody(w, r, &request) {
		return
	}

	if err := h.DocumentService.UpdateDocument(ctx, chi.URLParam(r, "key"), request.Blob, identity); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requestresponse.SuccessResponse{Message: "Документ подписан"})
}

// DeclineDocument godoc
// @Summary Отклонить подписание
// @Tags Signing
// @Produce json
// @Param key path string true "Ключ документа"
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 422 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs/{key}/decline [post]
// @Security BearerAuth
func (h *DocumentHandler) DeclineDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.DocumentService.DeclineDocument(ctx, chi.URLParam(r, "key"), identity); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requestresponse.SuccessResponse{Message: "Подписание отклонено"})
}

// UnlockDocument godoc
// @Summary Снять блокировку
// @Tags Signing
// @Produce json
// @Param key path string true "Ключ документа"
// @Success 200 {object} requestresponse.UnlockResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs/{key}/unlock [post]
// @Security BearerAuth
func (h *DocumentHandler) UnlockDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	unlocked, err := h.DocumentService.UnlockDocument(ctx, chi.URLParam(r, "key"), identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requestresponse.UnlockResponse{Unlocked: unlocked})
}

// CheckLock godoc
// @Summary Проверить блокировку
// @Description true, если документ заблокирован текущим пользователем и блокировка не истекла.
// @Tags Signing
// @Produce json
// @Param key path string true "Ключ документа"
// @Success 200 {object} requestresponse.LockResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/docs/{key}/lock [get]
// @Security BearerAuth
func (h *DocumentHandler) CheckLock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	locked, err := h.DocumentService.CheckDocumentLocked(ctx, chi.URLParam(r, "key"), identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requestresponse.LockResponse{Locked: locked})
}

// CreateSignRequest godoc
// @Summary Запрос на подпись
// @Description Блокирует документ и готовит запрос к сервису подписи.
// @Tags Signing
// @Produce json
// @Param key path string true "Ключ документа"
// @Success 200 {object} model.SignRequest
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse
// @Failure 502 {object} requestresponse.ErrorResponse
// @Router /api/docs/{key}/sign-request [post]
// @Security BearerAuth
func (h *DocumentHandler) CreateSignRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	signRequest, err := h.DocumentService.CreateSignRequest(ctx, chi.URLParam(r, "key"), identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, signRequest)
}

// ProcessSignResponse godoc
// @Summary Обработать ответ сервиса подписи
// @Description Сохраняет подписанные документы и возвращает их ключи.
// @Tags Signing
// @Accept json
// @Produce json
// @Param request body requestresponse.SignResponseRequest true "Ответ сервиса подписи"
// @Success 200 {object} requestresponse.SignResponseResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 422 {object} requestresponse.ErrorResponse
// @Failure 502 {object} requestresponse.ErrorResponse
// @Router /api/sign-response [post]
// @Security BearerAuth
func (h *DocumentHandler) ProcessSignResponse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var request requestresponse.SignResponseRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if request.SignResponse == "" || request.RelayState == "" {
		util.HandleError(w, "не передан ответ сервиса подписи", http.StatusBadRequest)
		return
	}

	keys, err := h.DocumentService.ProcessSignResponse(ctx, request.SignResponse, request.RelayState, identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requestresponse.SignResponseResponse{Documents: keys})
}
