package mathutil

// Precomputed camera matrices for the preview renderer.
var (
	// PreviewView looks at a Y-up character slightly from above and to the side.
	// Rx(-15°) @ Ry(30°)
	PreviewView = Mat3Mul(RotX(Deg2Rad(-15)), RotY(Deg2Rad(30)))

	// FrontView looks straight down -Z.
	FrontView = Mat3Identity()

	// SideView looks along -X.
	SideView = RotY(Deg2Rad(90))
)

// ViewByName maps a config view name to its matrix. Unknown names use PreviewView.
func ViewByName(name string) Mat3 {
	switch name {
	case "front":
		return FrontView
	case "side":
		return SideView
	}
	return PreviewView
}
