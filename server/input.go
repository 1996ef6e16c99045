package server

// 出站事件类型
const (
	EventSetup      = "setup"      // 加入时下发一次完整快照
	EventUpdate     = "update"     // 每个 Tick 下发完整快照
	EventScores     = "scores"     // 任何影响分数的事件
	EventEliminated = "eliminated" // 只发给被淘汰的连接
	EventRestarted  = "restarted"  // 重开后通知全房间刷新
	EventCreated    = "created"    // 新建房间的 ID
	EventWelcome    = "welcome"    // 告知连接自己的玩家 ID
	EventNotFound   = "not-found"
	EventMessages   = "messages" // 加入时的聊天记录
	EventMessage    = "message"
)

// 入站消息类型
const (
	MsgMove = "move"
	MsgPlay = "play"
	MsgChat = "message"
)

// PlayEvent “准备开始”时提交的外观信息
type PlayEvent struct {
	Username string `json:"username" msgpack:"username"`
	Color    string `json:"color" msgpack:"color"`
}

// Welcome 加入成功后首先下发
type Welcome struct {
	PlayerID string `json:"playerId" msgpack:"playerId"`
	Room     string `json:"room" msgpack:"room"`
}

// ChatMessage 聊天记录条目
type ChatMessage struct {
	Author  string `json:"author" msgpack:"author"`
	Message string `json:"message" msgpack:"message"`
}

// Inbound 解码后的客户端消息；只有与 Type 对应的字段有效
// 示例（JSON）：{"t":"move","p":"ArrowUp"}
type Inbound struct {
	Type string
	Key  string    // move
	Play PlayEvent // play
	Text string    // message
}
