package hub

import (
	"sort"

	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/model"
)

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats gathers and returns presence and room statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	online := ms.hub.presence.Snapshot()
	sort.Strings(online)

	status := "healthy"
	if len(online) == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status: status,
		Connections: model.ConnectionStats{
			TotalConnected: ms.hub.presence.Len(),
		},
		Rooms:       ms.getRoomStats(),
		OnlineUsers: online,
	}
}

func (ms *MonitorService) getRoomStats() model.RoomStats {
	ms.hub.roomsMu.RLock()
	defer ms.hub.roomsMu.RUnlock()

	details := make([]model.RoomInfo, 0, len(ms.hub.rooms))
	for roomID, room := range ms.hub.rooms {
		memberIDs := make([]string, 0, len(room))
		for _, c := range room {
			memberIDs = append(memberIDs, c.UserID)
		}
		sort.Strings(memberIDs)
		details = append(details, model.RoomInfo{
			RoomID:       roomID,
			TotalMembers: len(room),
			MemberIDs:    memberIDs,
		})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].RoomID < details[j].RoomID })

	return model.RoomStats{
		TotalRooms:  len(details),
		RoomDetails: details,
	}
}
