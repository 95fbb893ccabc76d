package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"bvh-skin-renderer/internal/bvh"
	"bvh-skin-renderer/internal/mesh"
	"bvh-skin-renderer/internal/skinning"
)

func main() {
	opts := skinning.DefaultOptions()
	scale := flag.Float64("scale", 0.02, "Skeleton to mesh unit scale")
	flag.IntVar(&opts.HeatIterations, "iterations", opts.HeatIterations, "Diffusion passes")
	flag.Float64Var(&opts.HeatLambda, "lambda", opts.HeatLambda, "Diffusion neighbor mix")
	flag.Float64Var(&opts.HeatAnchorRadius, "anchor", opts.HeatAnchorRadius, "Anchor radius around joints")
	flag.IntVar(&opts.ComponentMaxJoints, "max-joints", opts.ComponentMaxJoints, "Eligible joints per mesh island, 0 disables")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: inspectweights [flags] motion.bvh mesh.obj")
		os.Exit(1)
	}

	motion, err := bvh.LoadMotion(flag.Arg(0), bvh.Options{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	bind, err := mesh.LoadOBJ(flag.Arg(1))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	res, err := skinning.Solve(bind, motion, *scale, opts.Clamp())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Solved %d verts x %d joints in %.3fs\n", len(bind.Positions), len(res.BindPositions), time.Since(start).Seconds())

	lo, hi := bind.Bounds()
	jlo, jhi := mesh.BoundsOf(res.BindPositions)
	fmt.Printf("Mesh BBox:     X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n", lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
	fmt.Printf("Skeleton BBox: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n", jlo[0], jhi[0], jlo[1], jhi[1], jlo[2], jhi[2])

	// Components
	compSize := make([]int, res.ComponentCount)
	for _, c := range res.Components {
		compSize[c]++
	}
	fmt.Printf("\nComponents: %d\n", res.ComponentCount)
	for c, n := range compSize[:min(len(compSize), 20)] {
		fmt.Printf("  [%d] %d verts\n", c, n)
	}

	// Influence statistics
	dominant := make([]int, len(res.BindPositions))
	var histogram [skinning.MaxInfluences + 1]int
	fallback, worstSum := 0, 0.0
	for v, in := range res.Influences {
		if d := in.Dominant(); d >= 0 {
			dominant[d]++
		}
		histogram[in.Count()]++
		worstSum = max(worstSum, math.Abs(in.Sum()-1))
		if res.NearestSegment[v] < 0 {
			fallback++
		}
	}

	fmt.Println("\nInfluences per vertex:")
	for n, count := range histogram {
		fmt.Printf("  %d: %d\n", n, count)
	}
	fmt.Printf("Max |sum-1|: %.2e\n", worstSum)
	fmt.Printf("Vertices with no eligible segment: %d\n", fallback)

	skel, _ := motion.Frame(0)
	fmt.Println("\nDominant joint counts:")
	for i, id := range skel.DFSJoints() {
		if dominant[i] == 0 {
			continue
		}
		j, _ := skel.Joint(id)
		fmt.Printf("  [%2d] %-20s %d\n", i, j.Name, dominant[i])
	}
}
