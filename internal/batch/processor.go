package batch

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/mesh"
	"bvh-skin-renderer/internal/postprocess"
	"bvh-skin-renderer/internal/raster"
	"bvh-skin-renderer/internal/skeleton"
	"bvh-skin-renderer/internal/skinning"
)

// Config holds all shared, read-only resources for a batch run.
type Config struct {
	OutputDir   string
	Format      string // FormatWebP or FormatTGA
	Supersample int
	Workers     int

	// View is fitted at the final output size; workers render at
	// Supersample times that and downsample.
	View  raster.View
	Style raster.Style

	Bind        *mesh.Mesh
	Texture     *image.NRGBA // optional
	Motion      *skeleton.Motion
	Scale       float64
	Influences  []skinning.Influence // empty draws the undeformed bind mesh
	InverseBind []mathutil.Mat4

	ShowSkeleton bool
	BoneWidth    float64
}

// Result holds the outcome of rendering one job.
type Result struct {
	Job
	Path    string // relative to OutputDir
	Success bool
	Error   string
}

// Run renders all jobs using a worker pool and reports progress every two
// seconds on stdout. Results are in job order.
func Run(cfg Config, jobs []Job) []Result {
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64
	workers := max(cfg.Workers, 1)

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					fmt.Printf("  [%d/%d] %.1f frames/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processFrame(cfg, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

// RenderJob deforms and renders one frame at the final output size.
// Bones follow the motion even when the mesh stays in bind pose.
func RenderJob(cfg Config, job Job) (*image.NRGBA, error) {
	posed := cfg.Bind
	if len(cfg.Influences) > 0 {
		var err error
		posed, err = skinning.Apply(cfg.Bind, cfg.Motion, job.Frame, cfg.Scale, cfg.Influences, cfg.InverseBind)
		if err != nil {
			return nil, err
		}
	}

	frame := raster.Frame{Mesh: posed, Texture: cfg.Texture}
	if cfg.ShowSkeleton {
		if skel, ok := cfg.Motion.Frame(job.Frame); ok {
			frame.Bones = raster.BoneBoxes(skel.Segments(), cfg.Scale, cfg.BoneWidth)
		}
	}

	ss := max(cfg.Supersample, 1)
	img := raster.RenderFrame(frame, cfg.View.Scaled(ss), cfg.Style)

	// Post-processing: supersample downsample
	if ss > 1 {
		img = postprocess.Downsample(img, cfg.View.Width, cfg.View.Height)
	}
	return img, nil
}

func processFrame(cfg Config, job Job) Result {
	res := Result{Job: job, Path: FrameName(job.Index, cfg.Format)}

	img, err := RenderJob(cfg, job)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	outPath := filepath.Join(cfg.OutputDir, res.Path)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		res.Error = err.Error()
		return res
	}

	if err := writeFrame(outPath, img, cfg.Format); err != nil {
		res.Error = err.Error()
		return res
	}

	res.Success = true
	return res
}

// writeFrame encodes img to path. A failed close counts as a failed write.
func writeFrame(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
