package errors

import "errors"

// ErrNotFound 引用的课程或版本不存在（目录引擎唯一的硬失败类别）
var ErrNotFound = errors.New("记录不存在")

// ErrLockBusy 分布式锁被其他实例持有
var ErrLockBusy = errors.New("资源正被其他操作占用，请稍后重试")
