package types

// Box is a normalized bounding box with coordinates in [0,1] range, relative
// to the image it was detected on.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Clamp constrains the box to the unit square.
func (b Box) Clamp() Box {
	b.X = clamp01(b.X)
	b.Y = clamp01(b.Y)
	b.W = clamp01(b.W)
	b.H = clamp01(b.H)
	if b.X+b.W > 1 {
		b.W = 1 - b.X
	}
	if b.Y+b.H > 1 {
		b.H = 1 - b.Y
	}
	return b
}

// Empty reports whether the box covers no area.
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Subject is the primary subject located in an image.
type Subject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
	Cx         float64 `json:"cx"`
	Cy         float64 `json:"cy"`
}

// Detection is the complete subject-location result from a vision model.
type Detection struct {
	Primary     Subject  `json:"primary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}
