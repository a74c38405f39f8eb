package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/catalog-admin/internal/app/admin"
	"github.com/mrops-br/catalog-admin/internal/domain"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/telemetry"
	"github.com/mrops-br/catalog-admin/internal/ui"
)

// SessionCookie names the cookie that carries the admin session id.
const SessionCookie = "catalog_admin_session"

type controllerKey struct{}

// AdminHandler serves the server-rendered admin page. Every POST ends in a
// 303 redirect to the page so a reload never repeats an action.
type AdminHandler struct {
	sessions *admin.Sessions
	renderer *ui.Renderer
	logger   *slog.Logger
	ttl      time.Duration
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(sessions *admin.Sessions, renderer *ui.Renderer, ttl time.Duration, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		sessions: sessions,
		renderer: renderer,
		logger:   logger,
		ttl:      ttl,
	}
}

// Session resolves the caller's controller from the session cookie,
// issuing a new session when the cookie is missing or expired.
func (h *AdminHandler) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}

		ctl, sessionID := h.sessions.Get(id)
		if sessionID != id {
			cookie := &http.Cookie{
				Name:     SessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			}
			if h.ttl > 0 {
				cookie.MaxAge = int(h.ttl.Seconds())
			}
			http.SetCookie(w, cookie)
		}

		ctx := telemetry.WithSessionID(r.Context(), sessionID)
		ctl.EnsureLoaded(ctx)
		ctx = context.WithValue(ctx, controllerKey{}, ctl)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func controllerFrom(r *http.Request) *admin.Controller {
	return r.Context().Value(controllerKey{}).(*admin.Controller)
}

// Page handles GET /
func (h *AdminHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.render(w, r)
}

// Search handles GET /search?q=
func (h *AdminHandler) Search(w http.ResponseWriter, r *http.Request) {
	controllerFrom(r).SetSearch(r.URL.Query().Get("q"))
	h.render(w, r)
}

// OpenAdd handles POST /dialog/add
func (h *AdminHandler) OpenAdd(w http.ResponseWriter, r *http.Request) {
	controllerFrom(r).OpenAdd()
	seeOther(w, r)
}

// CloseDialog handles POST /dialog/close
func (h *AdminHandler) CloseDialog(w http.ResponseWriter, r *http.Request) {
	controllerFrom(r).CloseDialog()
	seeOther(w, r)
}

// DismissNotice handles POST /notice/dismiss
func (h *AdminHandler) DismissNotice(w http.ResponseWriter, r *http.Request) {
	controllerFrom(r).DismissNotice()
	seeOther(w, r)
}

// OpenDetails handles POST /products/{id}/view
func (h *AdminHandler) OpenDetails(w http.ResponseWriter, r *http.Request) {
	h.open(w, r, (*admin.Controller).OpenDetails)
}

// OpenEdit handles POST /products/{id}/edit
func (h *AdminHandler) OpenEdit(w http.ResponseWriter, r *http.Request) {
	h.open(w, r, (*admin.Controller).OpenEdit)
}

// OpenDelete handles POST /products/{id}/delete
func (h *AdminHandler) OpenDelete(w http.ResponseWriter, r *http.Request) {
	h.open(w, r, (*admin.Controller).OpenDelete)
}

// CreateProduct handles POST /products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctl := controllerFrom(r)
	if err := r.ParseForm(); err != nil {
		h.formError(w, r, ctl, "add_product", err)
		return
	}
	h.submitProduct(w, r, ctl, 0, "add_product", ctl.AddProduct)
}

// UpdateProduct handles POST /products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctl := controllerFrom(r)
	id, err := ui.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.formError(w, r, ctl, "edit_product", err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.formError(w, r, ctl, "edit_product", err)
		return
	}
	h.submitProduct(w, r, ctl, id, "edit_product", ctl.EditProduct)
}

// submitProduct sends a parsed product form. A rejected submit leaves the
// typed values on the still-open dialog.
func (h *AdminHandler) submitProduct(
	w http.ResponseWriter,
	r *http.Request,
	ctl *admin.Controller,
	id int64,
	action string,
	send func(context.Context, domain.Product) error,
) {
	draft := ui.DraftFromForm(r.PostForm)
	p, err := ui.ParseProductForm(r.PostForm)
	if err != nil {
		ctl.KeepDraft(id, draft)
		h.formError(w, r, ctl, action, err)
		return
	}
	p.ID = id

	err = send(r.Context(), p)
	if err != nil && !errors.Is(err, admin.ErrRequestInFlight) {
		ctl.KeepDraft(id, draft)
	}
	h.logOutcome(r, action, err)
	seeOther(w, r)
}

// DeleteProduct handles POST /products/{id}/remove
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctl := controllerFrom(r)
	id, err := ui.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.formError(w, r, ctl, "delete_product", err)
		return
	}

	h.logOutcome(r, "delete_product", ctl.DeleteProduct(r.Context(), id))
	seeOther(w, r)
}

// AddToCart handles POST /cart/items
func (h *AdminHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctl := controllerFrom(r)
	if err := r.ParseForm(); err != nil {
		h.formError(w, r, ctl, "add_to_cart", err)
		return
	}
	productID, err := ui.ParseID(r.PostForm.Get("product_id"))
	if err != nil {
		h.formError(w, r, ctl, "add_to_cart", err)
		return
	}

	h.logOutcome(r, "add_to_cart", ctl.AddToCart(r.Context(), productID))
	seeOther(w, r)
}

// UpdateCartItem handles POST /cart/items/{id}
func (h *AdminHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	ctl := controllerFrom(r)
	itemID, err := ui.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.formError(w, r, ctl, "update_cart_item", err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.formError(w, r, ctl, "update_cart_item", err)
		return
	}
	quantity, err := ui.ParseQuantity(r.PostForm)
	if err != nil {
		h.formError(w, r, ctl, "update_cart_item", err)
		return
	}

	h.logOutcome(r, "update_cart_item", ctl.UpdateCartItem(r.Context(), itemID, quantity))
	seeOther(w, r)
}

func (h *AdminHandler) open(w http.ResponseWriter, r *http.Request, open func(*admin.Controller, int64) error) {
	ctl := controllerFrom(r)
	id, err := ui.ParseID(chi.URLParam(r, "id"))
	if err == nil {
		err = open(ctl, id)
	}
	if err != nil {
		// the product may have been deleted in another tab
		h.logger.WarnContext(r.Context(), "Cannot open dialog",
			slog.String("id", chi.URLParam(r, "id")),
			slog.String("error", err.Error()),
		)
	}
	seeOther(w, r)
}

func (h *AdminHandler) formError(w http.ResponseWriter, r *http.Request, ctl *admin.Controller, action string, err error) {
	h.logger.WarnContext(r.Context(), "Invalid form submission",
		slog.String("action", action),
		slog.String("error", err.Error()),
	)
	ctl.Notify(action, err.Error())
	seeOther(w, r)
}

// logOutcome logs controller errors. The controller has already turned
// them into a notice where the user needs to see one.
func (h *AdminHandler) logOutcome(r *http.Request, action string, err error) {
	if err == nil || errors.Is(err, admin.ErrRequestInFlight) {
		return
	}
	h.logger.InfoContext(r.Context(), "Admin action failed",
		slog.String("action", action),
		slog.String("error", err.Error()),
	)
}

func (h *AdminHandler) render(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, ui.NewPage(controllerFrom(r).Snapshot())); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render page",
			slog.String("error", err.Error()),
		)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func seeOther(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
