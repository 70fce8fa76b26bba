package handlers

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"safecheck/internal/api"
	"safecheck/internal/cache"
	"safecheck/internal/middleware"
	"safecheck/internal/render"
	"safecheck/internal/session"
	"safecheck/internal/store"
)

// totpIssuer names the account in authenticator apps.
const totpIssuer = "SafeCheck"

// Auth groups all authentication-related HTTP handlers. Credentials are
// checked by the backend; the second factor is local and optional.
type Auth struct {
	renderer *render.Renderer
	sessions *session.Store
	api      *api.Client
	drafts   *cache.DraftStore
	totp     *store.TOTPStore
	audit    *store.AuditStore
}

// NewAuth creates a new Auth handler group. A nil totp store disables the
// second factor; a nil audit store disables login auditing.
func NewAuth(renderer *render.Renderer, sessions *session.Store, client *api.Client, drafts *cache.DraftStore, totpStore *store.TOTPStore, audit *store.AuditStore) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		api:      client,
		drafts:   drafts,
		totp:     totpStore,
		audit:    audit,
	}
}

func (a *Auth) twoFAEnabled() bool { return a.totp != nil }

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.TwoFADone && sess.AccessToken != "" {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Iniciar sesión",
	})
}

// LoginSubmit authenticates against the backend and starts a session.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	fail := func(msg string) {
		a.renderer.Page(w, r, "login", &render.PageData{
			Title: "Iniciar sesión",
			Data:  map[string]any{"Error": msg, "Email": email},
		})
	}

	if email == "" || password == "" {
		fail("Ingrese su email y contraseña.")
		return
	}

	resp, err := a.api.Login(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrNotAdmin):
			slog.Warn("login rejected: not an admin", "email", email)
		case api.IsStatus(err, http.StatusUnauthorized):
			slog.Info("login failed", "email", email)
		default:
			slog.Error("login request failed", "error", err)
		}
		fail(api.Message(err))
		return
	}

	// Previous drafts belong to the old session id.
	a.drafts.DeleteSession(r.Context(), session.ID(r))

	data := &session.Data{
		UserID:       resp.User.ID.String(),
		Email:        resp.User.Email,
		DisplayName:  resp.User.FullName(),
		Role:         resp.User.Role,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TwoFADone:    !a.twoFAEnabled(),
	}
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if a.audit != nil {
		a.audit.Log(store.AuditEntry{
			ActorID:    data.UserID,
			ActorEmail: data.Email,
			Action:     store.ActionLogin,
			EntityType: "session",
		})
	}

	if !a.twoFAEnabled() {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return
	}

	enrollment, err := a.totp.Get(data.UserID)
	if err != nil {
		slog.Error("totp lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if enrollment == nil || !enrollment.Enabled {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
}

// TwoFASetupPage generates a TOTP secret and displays the QR code. An admin
// who already finished enrollment is sent to the code form instead.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.pending(w, r)
	if !ok {
		return
	}

	enrollment, err := a.totp.Get(sess.UserID)
	if err != nil {
		slog.Error("totp lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if enrollment != nil && enrollment.Enabled {
		http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err := a.totp.SetSecret(sess.UserID, sess.Email, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	qr, err := qrImage(key.URL())
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Configurar verificación en dos pasos",
		Data: map[string]any{
			"QRCode": qr,
			"Secret": key.Secret(),
		},
	})
}

// TwoFAVerifyPage renders the code entry form.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.pending(w, r); !ok {
		return
	}
	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Verificación en dos pasos",
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes authentication.
// The first valid code after setup enables the second factor.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.pending(w, r)
	if !ok {
		return
	}

	enrollment, err := a.totp.Get(sess.UserID)
	if err != nil {
		slog.Error("totp lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if enrollment == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	code := strings.TrimSpace(r.FormValue("code"))
	if !totp.Validate(code, enrollment.Secret) {
		const msg = "Código inválido. Intente nuevamente."
		if enrollment.Enabled {
			a.renderer.Page(w, r, "2fa_verify", &render.PageData{
				Title: "Verificación en dos pasos",
				Data:  map[string]any{"Error": msg},
			})
			return
		}
		qr, err := qrImage(otpauthURL(enrollment.Email, enrollment.Secret))
		if err != nil {
			slog.Error("qr code generation failed", "error", err)
		}
		a.renderer.Page(w, r, "2fa_setup", &render.PageData{
			Title: "Configurar verificación en dos pasos",
			Data: map[string]any{
				"Error":  msg,
				"QRCode": qr,
				"Secret": enrollment.Secret,
			},
		})
		return
	}

	if !enrollment.Enabled {
		if err := a.totp.Enable(sess.UserID); err != nil {
			slog.Error("enable totp failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

// Logout drops the session's drafts, destroys the session and returns to
// the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.drafts.DeleteSession(r.Context(), session.ID(r))
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	middleware.Redirect(w, r, "/admin/login")
}

// pending returns the session of an admin who still has to pass the second
// factor. It redirects and returns false in every other case.
func (a *Auth) pending(w http.ResponseWriter, r *http.Request) (*session.Data, bool) {
	sess := middleware.SessionFromCtx(r.Context())
	switch {
	case sess == nil || sess.AccessToken == "":
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return nil, false
	case !a.twoFAEnabled() || sess.TwoFADone:
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return nil, false
	}
	return sess, true
}

// otpauthURL rebuilds the provisioning URL of a stored secret.
func otpauthURL(email, secret string) string {
	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + totpIssuer + ":" + email,
		RawQuery: url.Values{"secret": {secret}, "issuer": {totpIssuer}}.Encode(),
	}
	return u.String()
}

// qrImage encodes content as a base64 PNG QR code.
func qrImage(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
