package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/quadrig/anim"
	"github.com/binzume/quadrig/config"
	"github.com/binzume/quadrig/converter"
	"github.com/binzume/quadrig/gltfutil"
	"github.com/binzume/quadrig/logging"
	"github.com/binzume/quadrig/mesh"
	"github.com/binzume/quadrig/skeleton"
	"github.com/binzume/quadrig/skinning"
	"github.com/binzume/quadrig/weightio"
)

func saveOutput(output string, m *mesh.Mesh, sk *skeleton.Skeleton, w *skinning.WeightMatrix, clip *anim.Clip, t float64, conf *config.Config) error {
	ext := strings.ToLower(filepath.Ext(output))
	if ext == ".npz" {
		return weightio.Save(output, w)
	} else if ext == ".glb" || ext == ".gltf" {
		conv := converter.NewRigToGLTFConverter(&converter.RigToGLTFOption{
			Scale:         conf.Export.Scale,
			MaxInfluences: conf.Export.MaxJoints,
			Clip:          clip,
		})
		doc, err := conv.Convert(m, sk, w)
		if err != nil {
			return err
		}
		return gltfutil.Save(doc, output)
	} else if ext == ".obj" {
		deformed, err := deformedMesh(m, sk, w, clip, t, conf.Skinning.Workers)
		if err != nil {
			return err
		}
		return mesh.SaveOBJ(deformed, output)
	}
	return fmt.Errorf("unsupported output type: %v", ext)
}

type job struct {
	skeleton, mesh, output string
	weights, cache, clip   string
	clipTime               float64
	conf                   *config.Config
}

func (j *job) run() error {
	sk, err := loadSkeleton(j.skeleton, j.conf.Skeleton.SwapYZ)
	if err != nil {
		return fmt.Errorf("skeleton: %w", err)
	}
	logging.Infof("skeleton: %d joints, %d bones", len(sk.Joints), len(sk.Bones))

	m, err := loadMesh(j.mesh, j.conf.Skeleton.SwapYZ)
	if err != nil {
		return fmt.Errorf("mesh: %w", err)
	}
	logging.Infof("mesh: %s %d vertices, %d faces", m.Name, m.VertexCount(), len(m.Faces))

	w, err := loadWeights(j.weights, j.cache, m, sk, &j.conf.Skinning)
	if err != nil {
		return fmt.Errorf("weights: %w", err)
	}

	var clip *anim.Clip
	if j.clip != "" {
		if clip, err = anim.LoadClip(j.clip); err != nil {
			return fmt.Errorf("clip: %w", err)
		}
	}

	logging.Infof("out: %s", j.output)
	return saveOutput(j.output, m, sk, w, clip, j.clipTime, j.conf)
}

// inputs returns the files whose changes invalidate the output.
func (j *job) inputs() []string {
	files := []string{j.skeleton, j.mesh}
	for _, f := range []string{j.weights, j.clip} {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] skeleton.json mesh.(obj|glb) output.(npz|glb|obj)\n", os.Args[0])
		flag.PrintDefaults()
	}
	confFile := flag.String("config", "", "config file (.yaml, .toml)")
	weightsFile := flag.String("weights", "", "load weights (.npz) instead of computing them")
	cacheFile := flag.String("cache", "", "weight cache database (.db)")
	clipFile := flag.String("clip", "", "animation clip (.json)")
	clipTime := flag.Float64("time", 0, "clip time in seconds for .obj output")
	maxInfluences := flag.Int("max-influences", 0, "bones per vertex (0: config)")
	workers := flag.Int("workers", -1, "worker goroutines (0: GOMAXPROCS, -1: config)")
	swapYZ := flag.Bool("swapyz", false, "input is Y-up")
	watch := flag.Bool("watch", false, "rebuild the output when an input changes")
	verbose := flag.Bool("v", false, "debug log")
	flag.Parse()

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(2)
	}

	conf := config.Default()
	if *confFile != "" {
		c, err := config.Load(*confFile)
		if err != nil {
			logging.Fatalf("%v", err)
		}
		conf = c
	}
	if *maxInfluences > 0 {
		conf.Skinning.MaxInfluences = *maxInfluences
	}
	if *workers >= 0 {
		conf.Skinning.Workers = *workers
	}
	if *swapYZ {
		conf.Skeleton.SwapYZ = true
	}
	if *verbose {
		conf.LogLevel = "debug"
	}
	logging.SetLevel(conf.LogLevel)

	j := &job{
		skeleton: flag.Arg(0),
		mesh:     flag.Arg(1),
		output:   flag.Arg(2),
		weights:  *weightsFile,
		cache:    *cacheFile,
		clip:     *clipFile,
		clipTime: *clipTime,
		conf:     conf,
	}
	if err := j.run(); err != nil {
		if !*watch {
			logging.Fatalf("%v", err)
		}
		logging.Errorf("%v", err)
	}
	if *watch {
		if err := watchInputs(j); err != nil {
			logging.Fatalf("watch: %v", err)
		}
	}
}
