// README: Admin login and AI product-copy drafts (quota-guarded).
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pepemlv/partysavingrental/internal/ai"
	"github.com/pepemlv/partysavingrental/internal/http/middleware"
)

const describeTimeout = 15 * time.Second

type Authenticator interface {
	Login(username, password string) (string, time.Time, error)
}

type ProductDescriber interface {
	DescribeProduct(ctx context.Context, id string, writer ai.Copywriter) (*ai.ProductCopy, error)
}

type TokenQuota interface {
	UseToken(ctx context.Context, uid string) error
	Remaining(ctx context.Context, uid string) (int, error)
}

// AdminHandler owns login and the AI endpoints. auth is nil when admins sign in
// through Firebase; writer is nil when no model key is configured.
type AdminHandler struct {
	auth    Authenticator
	catalog ProductDescriber
	writer  ai.Copywriter
	quota   TokenQuota
}

func NewAdminHandler(auth Authenticator, catalog ProductDescriber, writer ai.Copywriter, quota TokenQuota) *AdminHandler {
	return &AdminHandler{auth: auth, catalog: catalog, writer: writer, quota: quota}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AdminHandler) Login(c *gin.Context) {
	if h.auth == nil {
		writeError(c, http.StatusNotFound, "password login disabled")
		return
	}
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(c, http.StatusBadRequest, "missing username or password")
		return
	}
	token, exp, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"token": token, "expires_at": exp})
}

// Describe spends one monthly AI token of the calling admin and returns a draft.
func (h *AdminHandler) Describe(c *gin.Context) {
	if h.writer == nil {
		writeError(c, http.StatusServiceUnavailable, "ai copywriter not configured")
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	uid := middleware.CallerUID(c)
	if h.quota != nil {
		if err := h.quota.UseToken(c.Request.Context(), uid); err != nil {
			writeDomainError(c, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), describeTimeout)
	defer cancel()
	draft, err := h.catalog.DescribeProduct(ctx, id, h.writer)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	resp := gin.H{"draft": draft}
	if h.quota != nil {
		if left, err := h.quota.Remaining(c.Request.Context(), uid); err == nil {
			resp["tokens_remaining"] = left
		}
	}
	writeJSON(c, http.StatusOK, resp)
}
