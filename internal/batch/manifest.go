package batch

import (
	"encoding/json"
	"os"
)

// Manifest describes a rendered image sequence.
type Manifest struct {
	FPS    float64         `json:"fps"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Frames []ManifestEntry `json:"frames"`
}

// ManifestEntry represents one written image.
type ManifestEntry struct {
	Index int     `json:"index"`
	Frame int     `json:"frame"`
	Time  float64 `json:"time"`
	Image string  `json:"image"`
}

// WriteManifest writes the successful results to path as JSON.
func WriteManifest(path string, fps float64, width, height int, results []Result) error {
	m := Manifest{FPS: fps, Width: width, Height: height, Frames: []ManifestEntry{}}
	for _, r := range results {
		if !r.Success {
			continue
		}
		m.Frames = append(m.Frames, ManifestEntry{
			Index: r.Index,
			Frame: r.Frame,
			Time:  r.Time,
			Image: r.Path,
		})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
