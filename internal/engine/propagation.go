package engine

// Block records ancestorID as a blocking ancestor of origin and of every
// transitive descendant of origin. Descendants that are currently shown
// are taken out of view; their visibility intent is left untouched so a
// later Unblock can restore them. Intersection constructs only record the
// block, their points are descendants and get suppressed themselves.
func (b *Board) Block(origin Element, ancestorID string) {
	origin.Base().blocking[ancestorID] = struct{}{}
	for _, d := range b.Descendants(origin) {
		base := d.Base()
		if base.shown && d.Type() != TypeIntersection {
			base.suppress()
		}
		base.blocking[ancestorID] = struct{}{}
	}
}

// Unblock removes ancestorID from every element on the board. An element
// reappears once its last blocking ancestor is gone and its intent is
// visible.
//
// This walks the whole registry rather than the descendants of one
// element: a block can reach an element through several construct chains,
// and those edges may have been rewired since the block was recorded.
// The cost is O(elements) per call.
func (b *Board) Unblock(ancestorID string) {
	for _, id := range b.order {
		el := b.objects[id]
		base := el.Base()
		if _, ok := base.blocking[ancestorID]; !ok {
			continue
		}
		delete(base.blocking, ancestorID)
		if len(base.blocking) == 0 && base.visible && el.Type() != TypeIntersection {
			base.shown = true
		}
	}
}
