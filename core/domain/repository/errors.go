package repository

import "errors"

var (
	ErrSnapshotNotFound = errors.New("快照不存在")
	ErrRecordNotFound   = errors.New("对战记录不存在")
	ErrMongodb          = errors.New("mongodb 操作失败")
)
