package wheel

// Tracker 转轮物理位置簿记（对外导出）
// 执行器是唯一写入方；位置按槽位数取模，反转标志记录当前转动方向
type Tracker struct {
	capacity int
	position int
	reversed bool
	turns    int // 本代累计正向转动次数，回绕修正时使用
}

// NewTracker 创建位置簿记，初始位置为0、方向正向（对外导出）
func NewTracker(capacity int) *Tracker {
	return &Tracker{capacity: capacity}
}

// Advance 记录转动n个槽位（对外导出）
func (t *Tracker) Advance(n int) {
	if t.reversed {
		t.position = ((t.position-n)%t.capacity + t.capacity) % t.capacity
		return
	}
	t.position = (t.position + n) % t.capacity
	t.turns += n
}

// Reverse 记录一次方向反转（对外导出）
func (t *Tracker) Reverse() {
	t.reversed = !t.reversed
}

// Position 当前逻辑位置（对外导出）
func (t *Tracker) Position() int {
	return t.position
}

// Reversed 当前是否反向（对外导出）
func (t *Tracker) Reversed() bool {
	return t.reversed
}

// Turns 本代累计正向转动次数（对外导出）
func (t *Tracker) Turns() int {
	return t.turns
}

// ResetTurns 新一代开始时清零转动计数（对外导出）
func (t *Tracker) ResetTurns() {
	t.turns = 0
}
