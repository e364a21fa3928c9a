package server

import "errors"

var (
	// ErrMalformedInput 无法解析或缺字段的客户端消息（丢弃，会话继续）
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnknownIdentity 消息引用了不存在或已离开的玩家（无操作）
	ErrUnknownIdentity = errors.New("unknown identity")
	// ErrDuplicateIdentity 注册时 ID 冲突，说明 ID 生成器失效，进程级致命
	ErrDuplicateIdentity = errors.New("duplicate identity")
	// ErrDeliveryFailure 单个会话写出失败，视为该会话断开
	ErrDeliveryFailure = errors.New("delivery failure")
	// ErrMalformedRecord 推进后出现非有限数值，本 Tick 跳过该记录
	ErrMalformedRecord = errors.New("malformed record")
)
