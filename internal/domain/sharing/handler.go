package sharing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pdfshare/internal/middleware"
	"pdfshare/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

const (
	HeaderSharePassword = "X-Share-Password"
	HeaderShareSession  = "X-Share-Session"
)

func RegisterRoutes(r chi.Router, svc *Service, content ContentSource, log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	h := &handler{svc: svc, content: content, log: log.With(map[string]any{"component": "sharing_http"})}

	// Gestión del owner
	r.Route("/documents/{docID}/share", func(sr chi.Router) {
		sr.Post("/", h.createLink)
		sr.Get("/", h.linkStatus)
		sr.Delete("/", h.disableLink)
	})
	r.Route("/documents/{docID}/grants", func(gr chi.Router) {
		gr.Post("/", h.shareWithGrant)
		gr.Get("/", h.listGrants)
		gr.Delete("/{principal}", h.revokeGrant)
	})

	// Permisos efectivos del caller (owner, grant)
	r.Get("/documents/{docID}/permissions", h.permissions)

	// Compartidos conmigo
	r.Get("/me/shared", h.sharedWithMe)

	// Acceso por link (anónimo o autenticado)
	r.Route("/s/{token}", func(lr chi.Router) {
		lr.Get("/", h.open)
		lr.Post("/verify", h.verify)
		lr.Get("/content", h.openContent)
	})
}

type handler struct {
	svc     *Service
	content ContentSource
	log     logger.Logger
}

type linkOptionsRequest struct {
	Password          string     `json:"password"`
	ExpiresAt         *time.Time `json:"expires_at"` // RFC3339
	AllowDownload     *bool      `json:"allow_download"`
	AllowComments     *bool      `json:"allow_comments"`
	MaxAccesses       *int       `json:"max_accesses"`
	MaxAccessAttempts int        `json:"max_access_attempts"`
}

func (o linkOptionsRequest) toOptions() LinkOptions {
	return LinkOptions{
		Password:          o.Password,
		ExpiresAt:         o.ExpiresAt,
		AllowDownload:     o.AllowDownload,
		AllowComments:     o.AllowComments,
		MaxAccesses:       o.MaxAccesses,
		MaxAccessAttempts: o.MaxAccessAttempts,
	}
}

type grantRequest struct {
	Principal   string     `json:"principal"` // userID o email
	CanView     bool       `json:"can_view"`
	CanComment  bool       `json:"can_comment"`
	CanDownload bool       `json:"can_download"`
	ExpiresAt   *time.Time `json:"expires_at"`

	WithLink  bool               `json:"with_link"`
	FreshLink bool               `json:"fresh_link"`
	Link      linkOptionsRequest `json:"link"`
}

type verifyRequest struct {
	Password string `json:"password"`
}

type permissionsResponse struct {
	CanView     bool `json:"can_view"`
	CanComment  bool `json:"can_comment"`
	CanDownload bool `json:"can_download"`
}

type linkResponse struct {
	DocumentID string `json:"document_id"`
	// Token solo viaja en la respuesta de creación.
	Token string `json:"token,omitempty"`
	URL   string `json:"url,omitempty"`

	State             LinkState  `json:"state"`
	Mode              string     `json:"mode"`
	CreatedAt         time.Time  `json:"created_at"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	AllowDownload     bool       `json:"allow_download"`
	AllowComments     bool       `json:"allow_comments"`
	MaxAccesses       *int       `json:"max_accesses,omitempty"`
	AccessCount       int        `json:"access_count"`
	MaxAccessAttempts int        `json:"max_access_attempts"`
	AccessAttempts    int        `json:"access_attempts"`
	VisitorCount      int        `json:"visitor_count"`

	AccessHistory []accessRecordResponse `json:"access_history,omitempty"`
}

type accessRecordResponse struct {
	Email     string    `json:"email,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type grantResponse struct {
	Principal   string              `json:"principal"`
	Permissions permissionsResponse `json:"permissions"`
	Source      GrantSource         `json:"source"`
	SharedAt    time.Time           `json:"shared_at"`
	ExpiresAt   *time.Time          `json:"expires_at,omitempty"`
}

type shareGrantResponse struct {
	Grant grantResponse `json:"grant"`
	Link  *linkResponse `json:"link,omitempty"`
}

type resolutionResponse struct {
	DocumentID  string              `json:"document_id"`
	Permissions permissionsResponse `json:"permissions"`
	Via         []Path              `json:"via"`
}

type sharedDocumentResponse struct {
	DocumentID  string              `json:"document_id"`
	OwnerID     string              `json:"owner_id"`
	Title       string              `json:"title,omitempty"`
	Permissions permissionsResponse `json:"permissions"`
	Source      GrantSource         `json:"source"`
	SharedAt    time.Time           `json:"shared_at"`
}

type linkAccessResponse struct {
	DocumentID  string              `json:"document_id"`
	Title       string              `json:"title"`
	FileName    string              `json:"file_name"`
	SizeBytes   int64               `json:"size_bytes"`
	Permissions permissionsResponse `json:"permissions"`
	Via         []Path              `json:"via"`

	Session          string     `json:"session,omitempty"`
	SessionExpiresAt *time.Time `json:"session_expires_at,omitempty"`
}

type errorResponse struct {
	Error             string `json:"error"`
	Reason            string `json:"reason,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// createLink godoc
// @Summary Crear o regenerar el link público
// @Description Genera un token nuevo (el anterior deja de funcionar). El token crudo solo se devuelve en esta respuesta. Solo el owner.
// @Tags sharing
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token en producción"
// @Param docID path string true "ID del documento"
// @Param payload body linkOptionsRequest false "Opciones del link"
// @Success 201 {object} linkResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /documents/{docID}/share [post]
func (h *handler) createLink(w http.ResponseWriter, r *http.Request) {
	who, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req linkOptionsRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", "")
		return
	}

	res, err := h.svc.CreateLink(r.Context(), CreateLinkInput{
		DocumentID: chi.URLParam(r, "docID"),
		OwnerID:    who.UserID,
		Options:    req.toOptions(),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	out := toLinkResponse(res.Document, h.svc.now(), false)
	out.Token = res.Token
	out.URL = shareURL(r, res.Token)
	writeJSON(w, http.StatusCreated, out)
}

// linkStatus godoc
// @Summary Estado del link público
// @Description Devuelve estado (active, expired, exhausted, throttled, disabled), contadores e historial. Solo el owner.
// @Tags sharing
// @Produce json
// @Param docID path string true "ID del documento"
// @Success 200 {object} linkResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /documents/{docID}/share [get]
func (h *handler) linkStatus(w http.ResponseWriter, r *http.Request) {
	who, ok := requireUser(w, r)
	if !ok {
		return
	}
	docID := chi.URLParam(r, "docID")

	st, err := h.svc.LinkStatus(r.Context(), docID, who.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out := toLinkResponse(Document{ID: docID, Settings: st.Settings}, h.svc.now(), true)
	out.State = st.State
	writeJSON(w, http.StatusOK, out)
}

// disableLink godoc
// @Summary Desactivar el link público
// @Tags sharing
// @Param docID path string true "ID del documento"
// @Success 204 {string} string "no content"
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /documents/{docID}/share [delete]
func (h *handler) disableLink(w http.ResponseWriter, r *http.Request) {
	who, ok := requireUser(w, r)
	if !ok {
		return
	}
	if _, err := h.svc.DisableLink(r.Context(), chi.URLParam(r, "docID"), who.UserID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// shareWithGrant godoc
// @Summary Compartir con un usuario o email
// @Description Upsert del grant (idempotente por principal). Con with_link además asegura un link activo; fresh_link lo regenera.
// @Tags sharing
// @Accept json
// @Produce json
// @Param docID path string true "ID del documento"
// @Param payload body grantRequest true "Principal y permisos"
// @Success 201 {object} shareGrantResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /documents/{docID}/grants [post]
func (h *handler) shareWithGrant(w http.ResponseWriter, r *http.Request) {
	who, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", "")
		return
	}

	res, err := h.svc.ShareWithGrant(r.Context(), GrantInput{
		DocumentID: chi.URLParam(r, "docID"),
		OwnerID:    who.UserID,
		Principal:  req.Principal,
		Permissions: PermissionSet{
			CanView:     req.CanView,
			CanComment:  req.CanComment,
			CanDownload: req.CanDownload,
		},
		ExpiresAt: req.ExpiresAt,
		WithLink:  req.WithLink,
		FreshLink: req.FreshLink,
		Link:      req.Link.toOptions(),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	out := shareGrantResponse{Grant: toGrantResponse(res.Grant)}
	if res.Token != "" {
		link := toLinkResponse(res.Document, h.svc.now(), false)
		link.Token = res.Token
		link.URL = shareURL(r, res.Token)
		out.Link = &link
	}
	writeJSON(w, http.StatusCreated, out)
}

// listGrants godoc
// @Summary Listar grants del documento
// @Tags sharing
// @Produce json
// @Param docID path string true "ID del documento"
// @Success 200 {array} grantResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /documents/{docID}/grants [get]
func (h *handler) listGrants(w http.ResponseWriter, r *http.Request) {
	who, ok := requireUser(w, r)
	if !ok {
		return
	}
	grants, err := h.svc.ListGrants(r.Context(), chi.URLParam(r, "docID"), who.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out := make([]grantResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, toGrantResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

// revokeGrant godoc
// @Summary Revocar un grant
// @Tags sharing
// @Param docID path string true "ID del documento"
// @Param principal path string true "userID o email"
// @Success 204 {string} string "no content"
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /documents/{docID}/grants/{principal} [delete]
func (h *handler) revokeGrant(w http.ResponseWriter, r *http.Request) {
	who, ok := requireUser(w, r)
	if !ok {
		return
	}
	if _, err := h.svc.RevokeGrant(r.Context(), chi.URLParam(r, "docID"), who.UserID, chi.URLParam(r, "principal")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// permissions godoc
// @Summary Permisos efectivos del caller sobre un documento
// @Description Resuelve owner o grant explícito. Para el camino por link usar /s/{token}.
// @Tags sharing
// @Produce json
// @Param docID path string true "ID del documento"
// @Success 200 {object} resolutionResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /documents/{docID}/permissions [get]
func (h *handler) permissions(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	res, err := h.svc.ResolveByID(r.Context(), docID, IdentityFromRequest(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolutionResponse{
		DocumentID:  docID,
		Permissions: toPermissionsResponse(res.Permissions),
		Via:         res.Paths,
	})
}

// sharedWithMe godoc
// @Summary Documentos compartidos conmigo
// @Tags sharing
// @Produce json
// @Success 200 {array} sharedDocumentResponse
// @Failure 401 {object} errorResponse
// @Router /me/shared [get]
func (h *handler) sharedWithMe(w http.ResponseWriter, r *http.Request) {
	who, ok := requireUser(w, r)
	if !ok {
		return
	}
	docs, err := h.svc.SharedWithMe(r.Context(), who)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	now := h.svc.now()
	out := make([]sharedDocumentResponse, 0, len(docs))
	for _, d := range docs {
		g, _ := FindGrant(d.SharedWith, who)
		perms, _ := grantPermissions(d, who, now)
		item := sharedDocumentResponse{
			DocumentID:  d.ID,
			OwnerID:     d.OwnerID,
			Permissions: toPermissionsResponse(perms),
			Source:      g.Source,
			SharedAt:    g.SharedAt,
		}
		if h.content != nil {
			if info, err := h.content.Describe(r.Context(), d.ID); err == nil {
				item.Title = info.Title
			}
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

// open godoc
// @Summary Abrir un link compartido
// @Description Canjea el link (o reutiliza la sesión de X-Share-Session) y devuelve metadata y permisos. Si el link tiene password se envía en X-Share-Password.
// @Tags links
// @Produce json
// @Param token path string true "Token del link"
// @Param X-Share-Password header string false "Password del link"
// @Param X-Share-Session header string false "Sesión emitida en un canje previo"
// @Success 200 {object} linkAccessResponse
// @Failure 401 {object} errorResponse "password requerido o incorrecto"
// @Failure 403 {object} errorResponse "link_expired / access_limit_reached / not authorized"
// @Failure 404 {object} errorResponse
// @Failure 429 {object} errorResponse "demasiados intentos"
// @Router /s/{token} [get]
func (h *handler) open(w http.ResponseWriter, r *http.Request) {
	h.access(w, r, r.Header.Get(HeaderSharePassword))
}

// verify godoc
// @Summary Verificar password de un link
// @Description Igual que GET /s/{token} pero con el password en el body.
// @Tags links
// @Accept json
// @Produce json
// @Param token path string true "Token del link"
// @Param payload body verifyRequest true "Password"
// @Success 200 {object} linkAccessResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 429 {object} errorResponse
// @Router /s/{token}/verify [post]
func (h *handler) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", "")
		return
	}
	h.access(w, r, req.Password)
}

func (h *handler) access(w http.ResponseWriter, r *http.Request, password string) {
	res, err := h.svc.AccessByToken(r.Context(), h.tokenAccess(r, password, ActionView))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	out := linkAccessResponse{
		DocumentID:  res.Document.ID,
		Permissions: toPermissionsResponse(res.Permissions),
		Via:         res.Paths,
	}
	if res.Session != "" {
		out.Session = res.Session
		exp := res.SessionExpiresAt
		out.SessionExpiresAt = &exp
		w.Header().Set(HeaderShareSession, res.Session)
	}
	if h.content != nil {
		info, err := h.content.Describe(r.Context(), res.Document.ID)
		if err != nil {
			h.log.Error("document metadata unavailable", map[string]any{"doc_id": res.Document.ID, "err": err})
			writeError(w, http.StatusInternalServerError, "internal error", "")
			return
		}
		out.Title = info.Title
		out.FileName = info.FileName
		out.SizeBytes = info.SizeBytes
	}
	writeJSON(w, http.StatusOK, out)
}

// openContent godoc
// @Summary Contenido del PDF por link
// @Description Entrega el PDF inline (view) o como adjunto con ?download=true (requiere allow_download).
// @Tags links
// @Produce application/pdf
// @Param token path string true "Token del link"
// @Param download query bool false "Descargar como adjunto"
// @Param X-Share-Password header string false "Password del link"
// @Param X-Share-Session header string false "Sesión emitida en un canje previo"
// @Success 200 {file} file
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 429 {object} errorResponse
// @Router /s/{token}/content [get]
func (h *handler) openContent(w http.ResponseWriter, r *http.Request) {
	if h.content == nil {
		writeError(w, http.StatusNotFound, "not found", "")
		return
	}
	action := ActionView
	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		action = ActionDownload
	}

	res, err := h.svc.AccessByToken(r.Context(), h.tokenAccess(r, r.Header.Get(HeaderSharePassword), action))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if res.Session != "" {
		w.Header().Set(HeaderShareSession, res.Session)
	}

	body, info, err := h.content.OpenContent(r.Context(), res.Document.ID)
	if err != nil {
		h.log.Error("document content unavailable", map[string]any{"doc_id": res.Document.ID, "err": err})
		writeError(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	defer body.Close()

	ServeContent(w, body, info, action == ActionDownload)
}

// ServeContent escribe el PDF con la disposición correspondiente.
func ServeContent(w http.ResponseWriter, body io.Reader, info DocumentInfo, attachment bool) {
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	name := info.FileName
	if name == "" {
		name = "document.pdf"
	}
	ct := info.ContentType
	if ct == "" {
		ct = "application/pdf"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, no-store")
	if info.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.SizeBytes, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

func (h *handler) tokenAccess(r *http.Request, password string, action Action) TokenAccess {
	return TokenAccess{
		Token:    chi.URLParam(r, "token"),
		Password: password,
		Session:  r.Header.Get(HeaderShareSession),
		Identity: IdentityFromRequest(r),
		Action:   action,
		Visitor: Visitor{
			UserAgent: r.UserAgent(),
			IP:        clientIP(r),
		},
	}
}

// writeServiceError traduce errores del dominio a HTTP. Los de integridad ya se
// loguearon en el servicio; acá solo se ocultan.
func (h *handler) writeServiceError(w http.ResponseWriter, err error) {
	var te *ThrottledError
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", "")
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "forbidden", "")
	case errors.Is(err, ErrExpiredLink):
		writeError(w, http.StatusForbidden, err.Error(), "link_expired")
	case errors.Is(err, ErrExhaustedLink):
		writeError(w, http.StatusForbidden, err.Error(), "access_limit_reached")
	case errors.Is(err, ErrPasswordNeeded):
		writeError(w, http.StatusUnauthorized, err.Error(), "password_required")
	case errors.Is(err, ErrInvalidPassword):
		writeError(w, http.StatusUnauthorized, err.Error(), "invalid_password")
	case errors.As(err, &te):
		secs := te.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:             err.Error(),
			Reason:            "too_many_attempts",
			RetryAfterSeconds: secs,
		})
	case IsIntegrity(err):
		writeError(w, http.StatusInternalServerError, "internal error", "")
	default:
		h.log.Error("sharing request failed", map[string]any{"err": err})
		writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}

// IdentityFromRequest arma la identidad desde los claims; sin claims es anónimo.
func IdentityFromRequest(r *http.Request) Identity {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		return Identity{}
	}
	return Identity{
		UserID: strings.TrimSpace(claims.UserID),
		Email:  strings.TrimSpace(claims.Email),
		Name:   strings.TrimSpace(claims.Name),
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	who := IdentityFromRequest(r)
	if who.Anonymous() {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return Identity{}, false
	}
	return who, true
}

func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func shareURL(r *http.Request, token string) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/s/%s", scheme, r.Host, token)
}

func toPermissionsResponse(p PermissionSet) permissionsResponse {
	return permissionsResponse{CanView: p.CanView, CanComment: p.CanComment, CanDownload: p.CanDownload}
}

func toGrantResponse(g Grant) grantResponse {
	source := g.Source
	if source == "" {
		source = SourceOwner
	}
	return grantResponse{
		Principal:   g.Principal,
		Permissions: toPermissionsResponse(g.Permissions),
		Source:      source,
		SharedAt:    g.SharedAt,
		ExpiresAt:   g.ExpiresAt,
	}
}

func toLinkResponse(d Document, now time.Time, withHistory bool) linkResponse {
	s := d.Settings
	out := linkResponse{
		DocumentID:        d.ID,
		State:             State(s, now),
		Mode:              ModeName(s.Mode),
		CreatedAt:         s.CreatedAt,
		ExpiresAt:         s.ExpiresAt,
		AllowDownload:     s.AllowDownload,
		AllowComments:     s.AllowComments,
		MaxAccesses:       s.MaxAccesses,
		AccessCount:       s.AccessCount,
		MaxAccessAttempts: maxAttempts(s),
		AccessAttempts:    s.AccessAttempts,
		VisitorCount:      len(s.Visitors),
	}
	if withHistory {
		out.AccessHistory = make([]accessRecordResponse, 0, len(s.AccessHistory))
		for _, rec := range s.AccessHistory {
			out.AccessHistory = append(out.AccessHistory, accessRecordResponse{Email: rec.Email, Timestamp: rec.Timestamp})
		}
	}
	return out
}

func writeError(w http.ResponseWriter, status int, msg, reason string) {
	writeJSON(w, status, errorResponse{Error: msg, Reason: reason})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
