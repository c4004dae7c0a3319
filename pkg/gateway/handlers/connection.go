package handlers

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"

	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/token"
)

// ConnectionDetails is the grant handed to a frontend before it opens the
// session websocket. Field names match the frontend client.
type ConnectionDetails struct {
	ServerURL        string `json:"serverUrl"`
	RoomName         string `json:"roomName"`
	ParticipantName  string `json:"participantName"`
	ParticipantToken string `json:"participantToken"`
}

// ConnectionDetailsHandler mints a fresh identity, room, and signed grant per
// request.
type ConnectionDetailsHandler struct {
	Issuer    *token.Issuer
	ServerURL string
	Logger    *slog.Logger

	// RandInt overrides the identity/room suffix source in tests.
	RandInt func(n int) int
}

func (h ConnectionDetailsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if h.Issuer == nil {
		writeJSONError(w, r, http.StatusInternalServerError, "internal", "token issuer is not configured")
		return
	}

	randInt := h.RandInt
	if randInt == nil {
		randInt = rand.Intn
	}
	identity := fmt.Sprintf("voice_assistant_user_%d", randInt(10000))
	roomName := fmt.Sprintf("voice_assistant_room_%d", randInt(10000))

	grant, err := h.Issuer.Issue(identity, roomName)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("failed to issue connection token", "error", err)
		}
		writeJSONError(w, r, http.StatusInternalServerError, "internal", "failed to issue connection token")
		return
	}

	writeJSON(w, http.StatusOK, ConnectionDetails{
		ServerURL:        h.ServerURL,
		RoomName:         roomName,
		ParticipantName:  identity,
		ParticipantToken: grant,
	})
}
