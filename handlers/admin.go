package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// qrSize is the poster code edge in pixels; high recovery survives creased prints.
const qrSize = 240

// AdminHandler serves the admin landing page and the QR poster.
type AdminHandler struct {
	base
}

func NewAdminHandler(b base) *AdminHandler {
	return &AdminHandler{base: b}
}

// Home lists the role-filtered admin menu as cards.
func (h *AdminHandler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "admin_home", h.view(c, "Dashboard", nil))
}

// JoinURL is the public link patients scan to join the queue. PUBLIC_ORIGIN
// wins over the request host, which may be an internal name behind a proxy.
func (h *AdminHandler) JoinURL(c *gin.Context) string {
	origin := strings.TrimRight(h.cfg.PublicOrigin, "/")
	if origin == "" {
		scheme := "http"
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		origin = scheme + "://" + c.Request.Host
	}
	return origin + "/queue-join"
}

func (h *AdminHandler) QueueQR(c *gin.Context) {
	c.HTML(http.StatusOK, "queue_qr", h.view(c, "Queue QR", gin.H{
		"JoinURL": h.JoinURL(c),
		"QRSize":  qrSize,
	}))
}

// QueueQRImage renders the join URL as a PNG QR code for the poster.
func (h *AdminHandler) QueueQRImage(c *gin.Context) {
	png, err := qrcode.Encode(h.JoinURL(c), qrcode.High, qrSize)
	if err != nil {
		getLogger(c).Error("queue qr encode failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
