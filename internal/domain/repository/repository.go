// Package repository 定义数据访问层接口
package repository

import "context"

// Transactor 把多次写入放进同一事务。
// fn 内的仓储调用必须使用传入的 ctx；外层已有事务时复用，不开启嵌套事务。
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
