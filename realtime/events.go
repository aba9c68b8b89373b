package realtime

import (
	"encoding/json"
	"time"
)

// Server-emitted event names. These are the wire protocol the mobile app and
// the security dashboard already speak; do not rename casually.
const (
	EventReportUpdate        = "report_update"
	EventReportStatusUpdated = "report_status_updated"
	EventInitialReports      = "initial_reports"
	EventFriendSOSAlert      = "friend_sos_alert"
	EventSecuritySOSAlert    = "security_sos_alert"
	EventFriendLocation      = "friend_location_update"
	EventSOSLocation         = "sos_location_update"
	EventSOSAcknowledged     = "sos_acknowledged"
	EventFriendSOSEnded      = "friend_sos_ended"
	EventNewMessage          = "new_message"
	EventFeedbackRequest     = "feedback_request"
	EventFeedbackResponse    = "feedback_response"
	EventConnectionUpdate    = "connection_update"
	EventPartnerRequest      = "partner_request_notification"
	EventPartnerMatched      = "partner_matched"
	EventPartnerLocation     = "partner_location_update"
	EventWalkSessionEnded    = "walk_session_ended"
	EventConnected           = "connected"
	EventError               = "error"
)

// Client-emitted event names.
const (
	EventRegister       = "register"
	EventJoinRoom       = "join_room"
	EventSOSAlert       = "sos_alert"
	EventSOSLocationIn  = "sos_location_update"
	EventSOSAcknowledge = "sos_acknowledge"
	EventSOSEnd         = "sos_end"
	EventChatMessage    = "chat_message"
	EventWalkRequest    = "walking_partner_request"
	EventWalkResponse   = "walking_partner_response"
	EventLocationUpdate = "location_update"
	EventWalkEnd        = "walk_session_end"
	EventActivity       = "activity"
)

// RoomDashboard is the room every security dashboard connection joins.
const RoomDashboard = "security_dashboard"

// UserRoom is the per-user personal channel name.
func UserRoom(userID string) string {
	return "user_" + userID
}

// Envelope is the frame sent to clients. EventID lets consumers deduplicate
// redundant deliveries (SOS events are deliberately emitted to both the
// dashboard room and the global audience).
type Envelope struct {
	Event     string      `json:"event"`
	EventID   string      `json:"eventId"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// inboundMessage is the frame received from clients.
type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// HandlerFunc processes one inbound client event.
type HandlerFunc func(c *Client, data json.RawMessage)
