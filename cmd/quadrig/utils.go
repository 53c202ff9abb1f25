package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/binzume/quadrig/anim"
	"github.com/binzume/quadrig/converter"
	"github.com/binzume/quadrig/gltfutil"
	"github.com/binzume/quadrig/logging"
	"github.com/binzume/quadrig/mesh"
	"github.com/binzume/quadrig/skeleton"
	"github.com/binzume/quadrig/skinning"
	"github.com/binzume/quadrig/weightio"
)

func isGLTF(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".glb" || ext == ".gltf"
}

// loadSkeleton reads a joint list (.json) or the first skin of a glTF file.
func loadSkeleton(path string, swapYZ bool) (*skeleton.Skeleton, error) {
	if !isGLTF(path) {
		return skeleton.Load(path, swapYZ)
	}
	doc, err := gltfutil.Load(path)
	if err != nil {
		return nil, err
	}
	descs, err := converter.NewGLTFToMeshConverter(&converter.GLTFToMeshOption{SwapYZ: swapYZ}).JointList(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return skeleton.New(descs)
}

func loadMesh(path string, swapYZ bool) (*mesh.Mesh, error) {
	if strings.ToLower(filepath.Ext(path)) == ".obj" {
		return mesh.LoadOBJ(path)
	}
	if !isGLTF(path) {
		return nil, fmt.Errorf("unsupported mesh type: %v", filepath.Ext(path))
	}
	doc, err := gltfutil.Load(path)
	if err != nil {
		return nil, err
	}
	return converter.NewGLTFToMeshConverter(&converter.GLTFToMeshOption{SwapYZ: swapYZ}).Convert(doc)
}

// loadWeights reads path if given, else computes the weights, consulting
// the cache database at cachePath when set.
func loadWeights(path, cachePath string, m *mesh.Mesh, sk *skeleton.Skeleton, opts *skinning.Options) (*skinning.WeightMatrix, error) {
	if path != "" {
		w, err := weightio.LoadFor(path, m.VertexCount(), len(sk.Bones))
		if err != nil {
			return nil, err
		}
		logging.Infof("weights loaded: %s", path)
		return w, nil
	}

	var cache *weightio.Cache
	var key string
	if cachePath != "" {
		var err error
		if cache, err = weightio.OpenCache(cachePath); err != nil {
			return nil, err
		}
		defer cache.Close()
		if key, err = weightio.CacheKey(m, sk, opts); err != nil {
			return nil, err
		}
		w, err := cache.Get(key)
		if err != nil {
			logging.Warnf("weight cache: %v", err)
		} else if w != nil {
			logging.Infof("weights from cache: %s", key[:12])
			return w, nil
		}
	}

	calc, err := skinning.NewCalculator(opts)
	if err != nil {
		return nil, err
	}
	w, stats, err := calc.ComputeWeights(m, sk)
	if err != nil {
		return nil, err
	}
	logging.Info("weights computed",
		"ankle", stats.Ankle, "shoulder", stats.Shoulder, "head", stats.Head, "normal", stats.Normal,
		"rescaled", stats.Rescaled, "reset", stats.Reset)
	if cache != nil {
		if err := cache.Put(key, w); err != nil {
			logging.Warnf("weight cache: %v", err)
		}
	}
	return w, nil
}

// deformedMesh poses sk with clip at time t and applies the weights.
func deformedMesh(m *mesh.Mesh, sk *skeleton.Skeleton, w *skinning.WeightMatrix, clip *anim.Clip, t float64, workers int) (*mesh.Mesh, error) {
	if clip != nil {
		p := anim.NewPlayer(sk)
		p.Load(clip)
		if err := p.Seek(t); err != nil {
			return nil, err
		}
	}
	d, err := skinning.NewDeformer(m.Vertices, sk, w)
	if err != nil {
		return nil, err
	}
	if workers > 0 {
		d.Workers = workers
	}
	if err := d.Update(); err != nil {
		return nil, err
	}
	return m.WithVertices(d.Vertices()), nil
}
