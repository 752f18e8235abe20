package wheel

// TransferPlan 一次种子转移的转动规划（对外导出）
// 三段转动的净效果等于整数圈，转移前后逻辑位置不变
type TransferPlan struct {
	ToSource     int // 把来源槽位转到转移臂下
	SourceToDest int // 来源转到目的
	Restore      int // 目的转回，恢复相对位置
}

// PlanTransfer 规划种子转移的转动序列（对外导出）
// source/dest为槽位编号，head为转移臂所在的固定槽位
func PlanTransfer(source, dest, head, capacity int) TransferPlan {
	toSource := turnsTo(source, head, capacity)
	toDest := turnsTo(dest, head, capacity)

	sourceToDest := toDest - toSource
	if sourceToDest < 0 {
		sourceToDest += capacity
	}

	return TransferPlan{
		ToSource:     toSource,
		SourceToDest: sourceToDest,
		Restore:      capacity - toDest,
	}
}

// turnsTo 计算把槽位slot转到固定位置head所需的正向转动数
func turnsTo(slot, head, capacity int) int {
	if slot == head {
		return 0
	}
	if slot < head {
		return capacity - (head - slot)
	}
	return slot - head
}
