package instrument

import (
	"context"
	"fmt"
	"log"
)

// Guard 独占仪器的所有权守卫（对外导出）
// 用容量为1的channel表示仪器令牌：Acquire取走令牌即独占仪器，
// Release归还。清洗任务在受监督的后台协程中持有令牌执行，
// 清洗失败的错误保留到下一次Acquire时上抛，不会静默丢失
type Guard struct {
	name  string
	token chan error
}

// NewGuard 创建仪器守卫，初始为空闲（对外导出）
func NewGuard(name string) *Guard {
	g := &Guard{
		name:  name,
		token: make(chan error, 1),
	}
	g.token <- nil
	return g
}

// Acquire 取得仪器独占权（对外导出）
// 仪器被占用（含后台清洗中）时阻塞等待；上一次后台清洗的失败
// 在这里上抛，令牌已被取走，调用方处理完错误后需自行Release
func (g *Guard) Acquire(ctx context.Context) error {
	select {
	case err := <-g.token:
		if err != nil {
			return fmt.Errorf("仪器 %s 上一次清洗失败: %w", g.name, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("等待仪器 %s 超时: %w", g.name, ctx.Err())
	}
}

// Release 归还仪器独占权（对外导出）
func (g *Guard) Release() {
	select {
	case g.token <- nil:
	default:
		// 重复归还直接忽略
	}
}

// ReleaseAfter 持有令牌执行清洗后归还（对外导出）
// 清洗在后台协程中进行，与后续不需要本仪器的步骤重叠；
// 清洗结果随令牌传递，下一次Acquire可见
func (g *Guard) ReleaseAfter(clean func() error) {
	go func() {
		var err error
		if clean != nil {
			err = clean()
			if err != nil {
				log.Printf("❌ 仪器 %s 后台清洗失败: %v", g.name, err)
			}
		}
		select {
		case g.token <- err:
		default:
		}
	}()
}
