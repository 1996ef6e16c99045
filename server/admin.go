package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// roomFromQuery 读取 ?room=，找不到时直接回 404
func roomFromQuery(m *RoomManager, c *gin.Context) (*Room, bool) {
	roomID := c.Query("room")
	r, ok := m.GetRoom(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrRoomNotFound.Error(), "room": roomID})
		return nil, false
	}
	return r, true
}

// HandleAdminConfig 提供房间配置的读取与更新（热更新 Tick 周期）
// GET /admin/config?room=<id>  返回当前配置
// POST /admin/config?room=<id> 以 JSON 载荷更新 tickIntervalMs / idleExpiryMs / initialFruits
func HandleAdminConfig(m *RoomManager) gin.HandlerFunc {
	type cfg struct {
		TickIntervalMs *int `json:"tickIntervalMs,omitempty"`
		IdleExpiryMs   *int `json:"idleExpiryMs,omitempty"`
		InitialFruits  *int `json:"initialFruits,omitempty"`
		Width          *int `json:"width,omitempty"`
		Height         *int `json:"height,omitempty"`
	}

	return func(c *gin.Context) {
		room, ok := roomFromQuery(m, c)
		if !ok {
			return
		}

		switch c.Request.Method {
		case http.MethodGet:
			rc := room.Config()
			tick := int(rc.TickInterval / time.Millisecond)
			expiry := int(rc.IdleExpiry / time.Millisecond)
			c.JSON(http.StatusOK, cfg{
				TickIntervalMs: &tick,
				IdleExpiryMs:   &expiry,
				InitialFruits:  &rc.InitialFruits,
				Width:          &rc.Grid.Width,
				Height:         &rc.Grid.Height,
			})
		case http.MethodPost:
			var body cfg
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
				return
			}
			// 网格尺寸在房间生命周期内不可变
			if body.Width != nil || body.Height != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "width and height are fixed for a room"})
				return
			}
			switch {
			case body.TickIntervalMs != nil && *body.TickIntervalMs <= 0:
				c.JSON(http.StatusBadRequest, gin.H{"error": "tickIntervalMs must be > 0"})
				return
			case body.IdleExpiryMs != nil && *body.IdleExpiryMs <= 0:
				c.JSON(http.StatusBadRequest, gin.H{"error": "idleExpiryMs must be > 0"})
				return
			case body.InitialFruits != nil && *body.InitialFruits < 0:
				c.JSON(http.StatusBadRequest, gin.H{"error": "initialFruits must be >= 0"})
				return
			}
			if body.TickIntervalMs != nil {
				room.SetTickInterval(time.Duration(*body.TickIntervalMs) * time.Millisecond)
			}
			if body.IdleExpiryMs != nil {
				room.SetIdleExpiry(time.Duration(*body.IdleExpiryMs) * time.Millisecond)
			}
			if body.InitialFruits != nil {
				room.SetInitialFruits(*body.InitialFruits)
			}
			c.JSON(http.StatusOK, gin.H{"ok": true})
			rc := room.Config()
			Log.Infow("config updated", "room", room.ID, "tick", rc.TickInterval, "idleExpiry", rc.IdleExpiry, "initialFruits", rc.InitialFruits)
		default:
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		}
	}
}

// HandleMetrics 输出指定房间的运行指标
// GET /metrics?room=<id>
func HandleMetrics(m *RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		room, ok := roomFromQuery(m, c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"room":    room.ID,
			"tick":    room.TickSeq(),
			"players": room.NumPlayers(),
			"members": room.NumMembers(),
			"metrics": room.Metrics().Snapshot(),
		})
	}
}

// HandleCreateRoom POST /rooms
func HandleCreateRoom(m *RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": m.CreateRoom()})
	}
}

// HandleListRooms GET /rooms
func HandleListRooms(m *RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, m.ListRooms())
	}
}

// HandleGetRoom GET /rooms/:id
func HandleGetRoom(m *RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := m.GetRoom(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": ErrRoomNotFound.Error()})
			return
		}
		c.JSON(http.StatusOK, RoomInfo{ID: r.ID, Players: r.NumPlayers(), Members: r.NumMembers()})
	}
}

// HandleRestartRoom POST /rooms/:id/restart，与聊天指令 /restart 等价
func HandleRestartRoom(m *RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := m.GetRoom(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": ErrRoomNotFound.Error()})
			return
		}
		r.Restart()
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
