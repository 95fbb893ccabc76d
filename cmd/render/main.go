package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bvh-skin-renderer/internal/batch"
	"bvh-skin-renderer/internal/bvh"
	"bvh-skin-renderer/internal/config"
	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/mesh"
	"bvh-skin-renderer/internal/playback"
	"bvh-skin-renderer/internal/raster"
	"bvh-skin-renderer/internal/skeleton"
	"bvh-skin-renderer/internal/skinning"
	"bvh-skin-renderer/internal/texture"
	"bvh-skin-renderer/internal/weightcache"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	motionPath := flag.String("motion", "", "BVH motion clip")
	meshPath := flag.String("mesh", "", "OBJ mesh in bind pose")
	texturePath := flag.String("texture", "", "Optional TGA/PNG/JPEG texture")
	outputDir := flag.String("output", "", "Output directory (default: frames)")
	scale := flag.Float64("scale", 0, "Skeleton to mesh unit scale (default: 0.02)")
	fps := flag.Float64("fps", 0, "Output frame rate (default: clip rate)")
	frames := flag.String("frames", "", "Clip frame range start:end, end exclusive")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	format := flag.String("format", "", "Output format webp or tga (default: webp)")
	cacheDir := flag.String("cache", "", "Weight cache directory (default: no cache)")
	noSkeleton := flag.Bool("no-skeleton", false, "Do not draw the bone overlay")

	flag.Parse()

	startFrame, endFrame, err := parseRange(*frames)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -frames: %v\n", err)
		os.Exit(1)
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Motion:     *motionPath,
		Mesh:       *meshPath,
		Texture:    *texturePath,
		OutputDir:  *outputDir,
		CacheDir:   *cacheDir,
		Scale:      *scale,
		FPS:        *fps,
		StartFrame: startFrame,
		EndFrame:   endFrame,
		Workers:    *workers,
		Format:     *format,
		NoSkeleton: *noSkeleton,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Load inputs
	motionData, err := os.ReadFile(cfg.Motion)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading motion: %v\n", err)
		os.Exit(1)
	}
	clip, err := bvh.Parse(bytes.NewReader(motionData), bvh.Options{StrictChannels: cfg.StrictChannels})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", cfg.Motion, err)
		os.Exit(1)
	}
	motion, err := clip.Motion()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building motion: %v\n", err)
		os.Exit(1)
	}

	meshData, err := os.ReadFile(cfg.Mesh)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading mesh: %v\n", err)
		os.Exit(1)
	}
	bind, err := mesh.ParseOBJ(bytes.NewReader(meshData))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", cfg.Mesh, err)
		os.Exit(1)
	}

	var tex *image.NRGBA
	if cfg.Texture != "" {
		tex, err = texture.Load(cfg.Texture)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (rendering untextured)\n", err)
		}
	}

	fmt.Println("BVH Auto-Skin Renderer")
	fmt.Printf("Motion: %s (%d frames, %.4fs/frame)\n", cfg.Motion, motion.FrameCount(), motion.FrameTime)
	fmt.Printf("Mesh: %s (%d verts, %d tris)\n", cfg.Mesh, len(bind.Positions), bind.TriangleCount())
	fmt.Printf("Output: %s (%s, %dpx, %d workers)\n", cfg.OutputDir, cfg.Format, cfg.RenderSize, cfg.Workers)
	fmt.Println("------------------------------------------------------------")

	// Solve weights, through the cache when one is configured
	solveStart := time.Now()
	res, cached, err := solve(cfg, motionData, meshData, bind, motion)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: solving weights: %v (rendering bind pose)\n", err)
		res = &skinning.Result{}
	} else {
		source := "solved"
		if cached {
			source = "cached"
		}
		fmt.Printf("Weights: %s in %.2fs\n", source, time.Since(solveStart).Seconds())
	}

	// Plan frames
	clock := playback.NewClock(motion.FrameTime, motion.FrameCount())
	jobs := batch.Plan(clock, cfg.FPS, cfg.StartFrame, cfg.EndFrame)
	if len(jobs) == 0 {
		fmt.Println("No frames to render.")
		os.Exit(0)
	}
	outFPS := cfg.FPS
	if outFPS <= 0 {
		outFPS = 1 / clock.Step()
	}

	view := raster.FitView(mathutil.ViewByName(cfg.View), batch.ViewPoints(bind, motion, cfg.Scale),
		cfg.RenderSize, cfg.RenderSize, cfg.RenderSize/16)

	fmt.Printf("Frames: %d at %.2f fps\n", len(jobs), outFPS)

	start := time.Now()

	// Run batch
	batchCfg := batch.Config{
		OutputDir:    cfg.OutputDir,
		Format:       cfg.Format,
		Supersample:  cfg.Supersample,
		Workers:      cfg.Workers,
		View:         view,
		Style:        raster.DefaultStyle(),
		Bind:         bind,
		Texture:      tex,
		Motion:       motion,
		Scale:        cfg.Scale,
		Influences:   res.Influences,
		InverseBind:  res.InverseBind,
		ShowSkeleton: !cfg.HideSkeleton,
		BoneWidth:    cfg.BoneWidth,
	}

	results := batch.Run(batchCfg, jobs)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	var errors []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Rendered: %d/%d\n", success, len(jobs))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		for _, e := range errors[:min(len(errors), 20)] {
			fmt.Printf("  frame %d: %s\n", e.Frame, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := writeManifest(cfg.OutputDir, manifestPath, outFPS, view.Width, view.Height, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func writeManifest(dir, path string, fps float64, width, height int, results []batch.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return batch.WriteManifest(path, fps, width, height, results)
}

func solve(cfg config.Config, motionData, meshData []byte, bind *mesh.Mesh, motion *skeleton.Motion) (*skinning.Result, bool, error) {
	opts := *cfg.Solver
	if cfg.CacheDir == "" {
		res, err := skinning.Solve(bind, motion, cfg.Scale, opts)
		return res, false, err
	}

	store, err := weightcache.Open(cfg.CacheDir)
	if err != nil {
		return nil, false, err
	}
	defer store.Close()

	key := weightcache.Key(motionData, meshData, cfg.Scale, opts)
	return store.Solve(key, bind, motion, cfg.Scale, opts)
}

// parseRange reads "start:end", "start:" or ":end". Empty means the whole clip.
func parseRange(s string) (int, int, error) {
	if s == "" {
		return 0, 0, nil
	}
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("want start:end, got %q", s)
	}
	var start, end int
	var err error
	if a != "" {
		if start, err = strconv.Atoi(a); err != nil || start < 0 {
			return 0, 0, fmt.Errorf("bad start %q", a)
		}
	}
	if b != "" {
		if end, err = strconv.Atoi(b); err != nil || end <= 0 {
			return 0, 0, fmt.Errorf("bad end %q", b)
		}
	}
	return start, end, nil
}
