package stats

import (
	"github.com/skalder/emberfall/internal/model"
)

// FoldEquipment walks the equipped items and folds their basic and
// option-performance values into a fresh bonus accumulator. The
// accumulator always starts from the NewBonus baseline — it is never
// carried over between calls, so a stale fold can never compound.
func FoldEquipment(slots [model.NumSlots]*model.Equipment) model.Bonus {
	b := model.NewBonus()
	for slot, item := range slots {
		b.ApplyItem(model.Slot(slot), item)
	}
	return b
}
