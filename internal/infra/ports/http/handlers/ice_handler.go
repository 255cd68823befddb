package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pion/webrtc/v4"

	"github.com/voxroom/voxroom/internal/application/config"
)

type IceHandler struct {
	cfg *config.Config
}

func NewIceHandler(cfg *config.Config) *IceHandler {
	return &IceHandler{cfg: cfg}
}

// IceServers hands the client its STUN/TURN list. TURN credentials are
// coturn TURN-REST style: expiry-stamped username signed with the shared
// static-auth-secret, valid for one hour.
func (h *IceHandler) IceServers(c echo.Context) error {
	servers := []webrtc.ICEServer{h.cfg.StunServer}

	if h.cfg.Coturn.Host != "" {
		expiration := time.Now().Add(time.Hour).Unix()
		username := fmt.Sprintf("%d", expiration)

		mac := hmac.New(sha1.New, []byte(h.cfg.Coturn.Secret))
		mac.Write([]byte(username))
		password := base64.StdEncoding.EncodeToString(mac.Sum(nil))

		servers = append(servers, webrtc.ICEServer{
			URLs: []string{
				h.cfg.TurnUDPServer.URLs[0],
				h.cfg.TurnTCPServer.URLs[0],
			},
			Username:   username,
			Credential: password,
		})
	}

	return c.JSON(http.StatusOK, servers)
}
