// Package scene describes the decorative 3D overlay on the home page.
//
// The overlay is rendered entirely client side (web/static/js/scene.js) from
// the data attributes of its canvas. Nothing here is on the recommendation
// path: the page renders whether or not the asset exists or loads.
package scene

import (
	"io/fs"
	"strings"
)

// DefaultAsset is the glTF model served from the web tree.
const DefaultAsset = "/static/model/scene.gltf"

// Scene holds the overlay parameters.
type Scene struct {
	Asset            string  `json:"asset" doc:"URL of the glTF asset" example:"/static/model/scene.gltf"`
	RotationPerFrame float64 `json:"rotationPerFrame" doc:"Model rotation about Y per animation frame, radians" example:"0.01"`
	Particles        int     `json:"particles" doc:"Number of background particles" example:"230"`
	ParticleColor    string  `json:"particleColor" doc:"Particle colour" example:"#FFA500"`
	ClearAlpha       float64 `json:"clearAlpha" doc:"Canvas clear alpha; 0 keeps it transparent" example:"0"`
}

// Default returns the overlay used by the home page.
func Default() Scene {
	return Scene{
		Asset:            DefaultAsset,
		RotationPerFrame: 0.01,
		Particles:        230,
		ParticleColor:    "#FFA500",
		ClearAlpha:       0,
	}
}

// Manifest is a scene plus whether its asset can be served.
type Manifest struct {
	Scene
	Available bool `json:"available" doc:"Whether the asset exists in the web tree"`
}

// Probe reports whether s.Asset resolves inside fsys, the web tree rooted
// above static/.
func Probe(fsys fs.FS, s Scene) Manifest {
	m := Manifest{Scene: s}
	name := strings.TrimPrefix(s.Asset, "/")
	if fsys == nil || name == "" || !fs.ValidPath(name) {
		return m
	}
	if info, err := fs.Stat(fsys, name); err == nil {
		m.Available = !info.IsDir()
	}
	return m
}
