package server

import "errors"

var (
	errConnClosed    = errors.New("connection closed")
	errSendQueueFull = errors.New("send queue full")
)

// Conn 房间视角下的一个连接：只负责发送已编码的帧
// Send 不得阻塞，房间在持锁状态下调用
type Conn interface {
	Send([]byte) error
	Close() error
}
