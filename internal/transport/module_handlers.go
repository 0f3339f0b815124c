/*
 * file: module_handlers.go
 * package: transport
 * description:
 *     Per-module adapters: translate a decoded request's generic Fields map
 *     into a typed call on the owning core service, and its (Fields, error)
 *     return into a wire response body.
 */

package transport

import (
	"log/slog"

	"github.com/dvdyellow/server/internal/core/domain"
	"github.com/dvdyellow/server/internal/core/services"
	"github.com/dvdyellow/server/internal/protocol"
)

func fieldString(f protocol.Fields, key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

// fieldUint coerces a decoded numeric field to uint, tolerating the several
// concrete integer/float types a CBOR decode may produce.
func fieldUint(f protocol.Fields, key string) (uint, bool) {
	switch v := f[key].(type) {
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}

func fieldInt(f protocol.Fields, key string) (int, bool) {
	switch v := f[key].(type) {
	case uint64:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func authDispatch(auth *services.AuthService) func(domain.ConnID, protocol.RequestBody) protocol.Fields {
	log := slog.Default().With("module", "auth")
	return func(conn domain.ConnID, req protocol.RequestBody) protocol.Fields {
		switch fieldString(req.Fields, "command") {
		case "sign-up":
			return asAppErrorFields(log, auth.SignUp(conn, fieldString(req.Fields, "username"), fieldString(req.Fields, "password")))
		case "sign-in":
			return asAppErrorFields(log, auth.SignIn(conn, fieldString(req.Fields, "username"), fieldString(req.Fields, "password")))
		case "sign-out":
			return asAppErrorFields(log, auth.SignOut(conn))
		case "get-status":
			return auth.GetStatus(conn)
		case "get-name":
			id, ok := fieldUint(req.Fields, "id")
			if !ok {
				return protocol.ErrorFields("NO_ID")
			}
			return asAppErrorFields(log, auth.GetName(id))
		default:
			return protocol.ErrorFields("NO_SUCH_COMMAND")
		}
	}
}

func presenceDispatch(presence *services.PresenceService) func(domain.ConnID, protocol.RequestBody) protocol.Fields {
	log := slog.Default().With("module", "presence")
	return func(conn domain.ConnID, req protocol.RequestBody) protocol.Fields {
		switch fieldString(req.Fields, "command") {
		case "start-listening":
			return asAppErrorFields(log, presence.StartListening(conn))
		case "stop-listening":
			return asAppErrorFields(log, presence.StopListening(conn))
		case "get-status":
			id, ok := fieldUint(req.Fields, "id")
			if !ok {
				return protocol.ErrorFields("NO_ID")
			}
			return presence.GetStatus(id)
		case "set-status":
			newStatus := fieldString(req.Fields, "new-status")
			if newStatus == "" {
				return protocol.ErrorFields("NO_STATUS")
			}
			var uidPtr *uint
			if uid, ok := fieldUint(req.Fields, "uid"); ok {
				uidPtr = &uid
			}
			return asAppErrorFields(log, presence.SetStatus(conn, newStatus, uidPtr))
		case "get-waiting-room":
			return presence.GetWaitingRoom()
		case "get-ranking":
			limit, ok := fieldInt(req.Fields, "limit")
			if !ok || limit <= 0 {
				limit = 100
			}
			return asAppErrorFields(log, presence.GetRanking(limit))
		default:
			return protocol.ErrorFields("NO_SUCH_COMMAND")
		}
	}
}

func matchDispatch(match *services.MatchService, auth *services.AuthService) func(domain.ConnID, protocol.RequestBody) protocol.Fields {
	log := slog.Default().With("module", "matchmaker")
	return func(conn domain.ConnID, req protocol.RequestBody) protocol.Fields {
		switch fieldString(req.Fields, "command") {
		case "find-random-game":
			userID, _ := auth.UserFor(conn)
			return asAppErrorFields(log, match.FindRandomGame(conn, userID))
		case "quit-searching":
			return asAppErrorFields(log, match.QuitSearching(conn))
		case "move":
			gameNr, gOK := fieldUint(req.Fields, "game-nr")
			playerNr, pOK := fieldInt(req.Fields, "player-nr")
			x, xOK := fieldInt(req.Fields, "x")
			y, yOK := fieldInt(req.Fields, "y")
			r, rOK := fieldInt(req.Fields, "rotation")
			if !gOK || !pOK {
				return protocol.ErrorFields("BAD_GAME_ID")
			}
			if !xOK || !yOK || !rOK {
				return protocol.ErrorFields("NO_MOVE")
			}
			return asAppErrorFields(log, match.MakeMove(conn, uint64(gameNr), playerNr, x, y, r))
		case "abandon-game":
			gameNr, gOK := fieldUint(req.Fields, "game-nr")
			playerNr, pOK := fieldInt(req.Fields, "player-nr")
			if !gOK || !pOK {
				return protocol.ErrorFields("BAD_GAME_ID")
			}
			return asAppErrorFields(log, match.AbandonGame(conn, uint64(gameNr), playerNr))
		default:
			return protocol.ErrorFields("NO_SUCH_COMMAND")
		}
	}
}
