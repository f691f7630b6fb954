package models

// WatermarkMode selects which pages receive the stamp.
type WatermarkMode int

const (
	ModeEveryPage WatermarkMode = 1
	ModeLastPage  WatermarkMode = 2
)

// ParseWatermarkMode maps the watermarkMode form value: 1 stamps every page,
// anything else stamps the last page only.
func ParseWatermarkMode(value int) WatermarkMode {
	if value == int(ModeEveryPage) {
		return ModeEveryPage
	}
	return ModeLastPage
}

func (m WatermarkMode) String() string {
	if m == ModeEveryPage {
		return "every_page"
	}
	return "last_page"
}

type WatermarkRequest struct {
	Phrase string        `json:"phrase" binding:"required"`
	Mode   WatermarkMode `json:"mode"`
}
