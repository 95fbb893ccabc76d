package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"bvh-skin-renderer/internal/bvh"
	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/skeleton"
)

func main() {
	frame := flag.Int("frame", 0, "Frame whose joint positions are printed")
	strict := flag.Bool("strict", false, "Reject unknown channel names")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: inspectbvh [-frame N] [-strict] file.bvh")
		os.Exit(1)
	}
	path := flag.Arg(0)

	clip, err := bvh.LoadClip(path, bvh.Options{StrictChannels: *strict})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	motion, err := clip.Motion()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	order := clip.Base.DFSJoints()
	fmt.Printf("Joints: %d, Channels: %d\n", len(order), len(clip.Channels))
	fmt.Printf("Frames: %d, Frame time: %.6fs (%.2f fps), Duration: %.2fs\n",
		clip.FrameCount, clip.FrameTime, 1/max(clip.FrameTime, 1e-9), motion.Duration())

	// Channel names per canonical joint
	channels := make([][]string, len(order))
	for _, ch := range clip.Channels {
		if ch.Joint >= 0 && ch.Joint < len(channels) {
			channels[ch.Joint] = append(channels[ch.Joint], ch.Kind.String())
		}
	}

	fmt.Println("\nHierarchy:")
	for i, id := range order {
		j, _ := clip.Base.Joint(id)
		name := j.Name
		if j.IsLeaf {
			name += " (end)"
		}
		fmt.Printf("  [%2d] %s%s offset=(%.3f, %.3f, %.3f) %s\n",
			i, strings.Repeat("  ", depth(clip.Base, id)), name,
			j.Offset[0], j.Offset[1], j.Offset[2], strings.Join(channels[i], " "))
	}

	skel, ok := motion.Frame(*frame)
	if !ok {
		fmt.Printf("\nFrame %d out of range [0, %d)\n", *frame, motion.FrameCount())
		os.Exit(1)
	}
	fmt.Printf("\nFrame %d joint positions:\n", *frame)
	for i, p := range skel.JointPositions() {
		j, _ := skel.Joint(order[i])
		deg := mathutil.Rad2DegVec3(j.Euler)
		fmt.Printf("  [%2d] %-20s pos=(%9.3f, %9.3f, %9.3f) rot=(%7.2f, %7.2f, %7.2f)\n",
			i, j.Name, p[0], p[1], p[2], deg[0], deg[1], deg[2])
	}
}

func depth(s *skeleton.Skeleton, id skeleton.JointID) int {
	d := 0
	for {
		j, ok := s.Joint(id)
		if !ok || j.Parent == skeleton.NoJoint {
			return d
		}
		id = j.Parent
		d++
	}
}
