package panel

// Row geometry is fixed: every row renders at the same height, which makes
// scroll math exact and lets the renderer materialize only visible rows.
const (
	// RowHeight is the rendered height of one row in terminal lines.
	RowHeight = 3

	// Overscan is the number of extra rows rendered above and below the
	// viewport so small scrolls don't flash empty space.
	Overscan = 2
)

// Window tracks the scroll position of the rendering surface. ScrollTop is
// measured in terminal lines from the top of the full (virtual) list.
type Window struct {
	Height    int
	ScrollTop int
}

// Capacity is the number of whole rows that fit the viewport.
func Capacity(height int) int {
	if height <= 0 {
		return 0
	}
	return height / RowHeight
}

// ScrollHeight is the virtual height of the full list, never smaller than
// the viewport itself.
func ScrollHeight(total, height int) int {
	h := total * RowHeight
	if h < height {
		return height
	}
	return h
}

// AtBottom reports whether the window is scrolled exactly to the bottom
// edge: scrollHeight - scrollTop equals the viewport height with zero
// slack. Pagination growth keys off this exact alignment.
func (w Window) AtBottom(total int) bool {
	return ScrollHeight(total, w.Height)-w.ScrollTop == w.Height
}

// Clamp pins ScrollTop into the valid range for total rows.
func (w *Window) Clamp(total int) {
	max := ScrollHeight(total, w.Height) - w.Height
	if w.ScrollTop > max {
		w.ScrollTop = max
	}
	if w.ScrollTop < 0 {
		w.ScrollTop = 0
	}
}

// VisibleRange returns the half-open row index range [start, end) that
// intersects the viewport, widened by the overscan buffer.
func (w Window) VisibleRange(total int) (int, int) {
	if total == 0 || w.Height <= 0 {
		return 0, 0
	}

	start := w.ScrollTop/RowHeight - Overscan
	if start < 0 {
		start = 0
	}

	end := (w.ScrollTop+w.Height+RowHeight-1)/RowHeight + Overscan
	if end > total {
		end = total
	}
	return start, end
}

// ScrollRowIntoView adjusts ScrollTop the minimal amount needed for row idx
// to be fully visible.
func (w *Window) ScrollRowIntoView(idx, total int) {
	top := idx * RowHeight
	bottom := top + RowHeight

	if top < w.ScrollTop {
		w.ScrollTop = top
	}
	if bottom > w.ScrollTop+w.Height {
		w.ScrollTop = bottom - w.Height
	}
	w.Clamp(total)
}
