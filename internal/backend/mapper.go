package backend

import (
	"github.com/LukeHalby/pushchat/internal/core"
	"github.com/LukeHalby/pushchat/internal/proto"
)

func messageFromWire(m proto.Message) core.Message {
	return core.Message{
		ID:            m.ID,
		Body:          m.Body,
		From:          m.From,
		RoomID:        m.RoomID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		Version:       m.Version,
		LastChangedAt: m.LastChangedAt,
	}
}
