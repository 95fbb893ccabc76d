package bvh

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/skeleton"
)

// LoadClip opens and parses a BVH file.
func LoadClip(path string, opts Options) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	defer f.Close()

	clip, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// LoadMotion parses a BVH file and materializes one posed skeleton per frame.
func LoadMotion(path string, opts Options) (*skeleton.Motion, error) {
	clip, err := LoadClip(path, opts)
	if err != nil {
		return nil, err
	}
	return clip.Motion()
}

// Parse reads a BVH token stream: HIERARCHY, ROOT <name> {…}, MOTION,
// Frames: <n>, Frame Time: <dt>, then n × channel-count floats.
func Parse(r io.Reader, opts Options) (*Clip, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	p := &reader{sc: sc, opts: opts, skel: skeleton.New()}
	return p.parse()
}

type reader struct {
	sc       *bufio.Scanner
	opts     Options
	skel     *skeleton.Skeleton
	channels []Channel
	joints   []skeleton.JointID // creation order == canonical order
}

// next returns the next token; what names the expected token for the error.
func (r *reader) next(what string) (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", fmt.Errorf("%w: reading %s: %w", ErrParse, what, err)
		}
		return "", fmt.Errorf("%w: unexpected end of input, expected %s", ErrParse, what)
	}
	return r.sc.Text(), nil
}

func (r *reader) expect(keyword string) error {
	tok, err := r.next(strconv.Quote(keyword))
	if err != nil {
		return err
	}
	if tok != keyword {
		return fmt.Errorf("%w: expected %q, got %q", ErrParse, keyword, tok)
	}
	return nil
}

func (r *reader) readFloat(what string) (float64, error) {
	tok, err := r.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: bad number %q", ErrParse, what, tok)
	}
	return v, nil
}

func (r *reader) readCount(what string) (int, error) {
	tok, err := r.next(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s: bad count %q", ErrParse, what, tok)
	}
	return n, nil
}

func (r *reader) readVec3(what string) (mathutil.Vec3, error) {
	var v mathutil.Vec3
	for k := 0; k < 3; k++ {
		f, err := r.readFloat(what)
		if err != nil {
			return mathutil.Vec3{}, err
		}
		v[k] = f
	}
	return v, nil
}

func (r *reader) parse() (*Clip, error) {
	if err := r.expect("HIERARCHY"); err != nil {
		return nil, err
	}
	if err := r.expect("ROOT"); err != nil {
		return nil, err
	}
	name, err := r.next("root name")
	if err != nil {
		return nil, err
	}
	if err := r.parseJoint(skeleton.NoJoint, name); err != nil {
		return nil, err
	}

	if err := r.expect("MOTION"); err != nil {
		return nil, err
	}
	if err := r.expect("Frames:"); err != nil {
		return nil, err
	}
	frameCount, err := r.readCount("frame count")
	if err != nil {
		return nil, err
	}
	if err := r.expect("Frame"); err != nil {
		return nil, err
	}
	if err := r.expect("Time:"); err != nil {
		return nil, err
	}
	frameTime, err := r.readFloat("frame time")
	if err != nil {
		return nil, err
	}

	if frameCount > math.MaxInt/max(len(r.channels), 1) {
		return nil, fmt.Errorf("%w: frame count %d too large for %d channels", ErrParse, frameCount, len(r.channels))
	}
	total := frameCount * len(r.channels)
	values := make([]float64, 0, min(total, 1<<20))
	for i := 0; i < total; i++ {
		tok, err := r.next("frame values")
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			n := len(r.channels)
			return nil, fmt.Errorf("%w: frame %d channel %d: bad number %q", ErrParse, i/n, i%n, tok)
		}
		values = append(values, v)
	}

	return &Clip{
		Base:       r.skel,
		Channels:   r.channels,
		FrameCount: frameCount,
		FrameTime:  frameTime,
		Values:     values,
	}, nil
}

// parseJoint reads a ROOT or JOINT block starting at its "{".
func (r *reader) parseJoint(parent skeleton.JointID, name string) error {
	if err := r.expect("{"); err != nil {
		return err
	}

	id := r.skel.CreateJoint(name, false)
	if parent == skeleton.NoJoint {
		r.skel.SetRoot(id)
	} else {
		r.skel.AttachChild(parent, id)
	}
	index := len(r.joints)
	r.joints = append(r.joints, id)

	for {
		tok, err := r.next(fmt.Sprintf("\"}\" closing joint %s", name))
		if err != nil {
			return err
		}
		switch tok {
		case "OFFSET":
			off, err := r.readVec3("OFFSET of " + name)
			if err != nil {
				return err
			}
			r.skel.SetOffset(id, off)
		case "CHANNELS":
			n, err := r.readCount("channel count of " + name)
			if err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				chName, err := r.next("channel name")
				if err != nil {
					return err
				}
				kind, ok := ParseChannelKind(chName)
				if !ok && r.opts.StrictChannels {
					return fmt.Errorf("%w: unknown channel %q on joint %s", ErrParse, chName, name)
				}
				r.channels = append(r.channels, Channel{Joint: index, Kind: kind})
			}
		case "JOINT":
			childName, err := r.next("joint name")
			if err != nil {
				return err
			}
			if err := r.parseJoint(id, childName); err != nil {
				return err
			}
		case "End":
			if err := r.expect("Site"); err != nil {
				return err
			}
			if err := r.parseEndSite(id); err != nil {
				return err
			}
		case "}":
			return nil
		default:
			// Unknown tokens inside a block are skipped.
		}
	}
}

// parseEndSite reads an "End Site { OFFSET x y z }" leaf. It has no channels.
func (r *reader) parseEndSite(parent skeleton.JointID) error {
	if err := r.expect("{"); err != nil {
		return err
	}
	id := r.skel.CreateJoint("EndSite", true)
	r.skel.AttachChild(parent, id)
	r.joints = append(r.joints, id)

	for {
		tok, err := r.next("\"}\" closing End Site")
		if err != nil {
			return err
		}
		switch tok {
		case "OFFSET":
			off, err := r.readVec3("End Site OFFSET")
			if err != nil {
				return err
			}
			r.skel.SetOffset(id, off)
		case "}":
			return nil
		}
	}
}
