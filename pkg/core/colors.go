package core

// Named colors used for backgrounds and debugging renders
var (
	ColorWhite = NewVec3(1, 1, 1)
	ColorBlack = NewVec3(0, 0, 0)
	ColorRed   = NewVec3(1, 0, 0)
	ColorGreen = NewVec3(0, 1, 0)
	ColorBlue  = NewVec3(0, 0, 1)
)
