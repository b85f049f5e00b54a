package panel

import "math"

// Pager owns the projection row limit. The limit starts at one page worth
// of rows for the viewport, grows by another page worth on each exact
// scroll-to-bottom, and resets only when the active book changes.
type Pager struct {
	height int
	limit  int
}

func NewPager(height int) *Pager {
	return &Pager{height: height, limit: pageSize(height)}
}

// pageSize is ceil(viewportRowCapacity * 1.5) rows: enough to fill the
// viewport with headroom so the first bottom event isn't immediate.
func pageSize(height int) int {
	return int(math.Ceil(float64(height) / float64(RowHeight) * 1.5))
}

func (p *Pager) Limit() int {
	return p.limit
}

// Resize records a new viewport height. The limit may grow to cover the
// larger viewport but never shrinks.
func (p *Pager) Resize(height int) {
	p.height = height
	if size := pageSize(height); size > p.limit {
		p.limit = size
	}
}

// OnBookChanged resets the limit to one page worth. A stale large limit
// from the previous book must not force an expensive first query.
func (p *Pager) OnBookChanged() {
	p.limit = pageSize(p.height)
}

// OnScrolledToBottom grows the limit by one more page worth. Growth is
// monotonic, so rapid repeated bottom events stay safe.
func (p *Pager) OnScrolledToBottom() {
	p.limit += pageSize(p.height)
}
