package tui

const (
	compactWidthBreakpoint  = 100
	compactHeightBreakpoint = 24
)

type uiLayout struct {
	Width  int
	Height int

	Compact bool

	HeaderHeight int
	FooterHeight int
	BodyHeight   int

	BoardWidth     int
	InspectorWidth int

	CompactBoardHeight     int
	CompactInspectorHeight int
}

// computeLayout splits the terminal into header, body and footer. The
// inspector shares the body with the board side by side; in compact
// terminals the two stack vertically instead.
func computeLayout(width, height int, inspectorOpen bool) uiLayout {
	if width < 40 {
		width = 40
	}
	if height < 14 {
		height = 14
	}

	layout := uiLayout{
		Width:        width,
		Height:       height,
		HeaderHeight: 3,
		FooterHeight: 3,
	}

	layout.Compact = width < compactWidthBreakpoint || height < compactHeightBreakpoint
	body := maxInt(6, height-layout.HeaderHeight-layout.FooterHeight)
	layout.BodyHeight = body

	if !inspectorOpen {
		layout.BoardWidth = width
		layout.InspectorWidth = 0
		layout.CompactBoardHeight = body
		return layout
	}

	if layout.Compact {
		layout.BoardWidth = width
		layout.InspectorWidth = width
		layout.CompactInspectorHeight = maxInt(6, body*2/3)
		layout.CompactBoardHeight = maxInt(4, body-layout.CompactInspectorHeight)
		return layout
	}

	layout.InspectorWidth = clampInt(width*45/100, 44, 72)
	layout.BoardWidth = maxInt(30, width-layout.InspectorWidth-1)
	layout.CompactBoardHeight = body
	return layout
}
