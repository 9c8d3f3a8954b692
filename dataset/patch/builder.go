// Package patch builds patch datasets: every labelled image is rescaled,
// cut into fixed-size windows and each window is written to
// <out>/<class>/<name>_<scale>_<y>_<x>.mat (or .png).
package patch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/matio"
	"github.com/hupe1980/matio/codec"
	"github.com/hupe1980/matio/imageio"
	"github.com/hupe1980/matio/matrix"
	"github.com/hupe1980/matio/persistence"
)

// ManifestName is the file written next to the class directories.
const ManifestName = "manifest.json"

// Sample is one labelled input image.
type Sample struct {
	Class string
	Path  string
}

// Failure records an image or patch that could not be processed.
type Failure struct {
	Class string
	// Path is the source image, or the patch file when saving failed.
	Path string
	Err  error
}

// Report summarizes a build.
//
// Patches are numbered per class in extraction order. Saved holds the
// ordinals that were written successfully.
type Report struct {
	Saved     map[string]*roaring.Bitmap
	Attempted map[string]uint32
	Failures  []Failure

	names map[string][]string
}

func newReport() *Report {
	return &Report{
		Saved:     make(map[string]*roaring.Bitmap),
		Attempted: make(map[string]uint32),
		names:     make(map[string][]string),
	}
}

// Classes returns the class names in sorted order.
func (r *Report) Classes() []string {
	out := make([]string, 0, len(r.Attempted))
	for c := range r.Attempted {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Files returns the saved patch files of class, relative to the output dir.
func (r *Report) Files(class string) []string {
	bm, ok := r.Saved[class]
	if !ok {
		return nil
	}
	names := r.names[class]
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, names[it.Next()])
	}
	return out
}

// Total returns the number of saved patches over all classes.
func (r *Report) Total() uint64 {
	var n uint64
	for _, bm := range r.Saved {
		n += bm.GetCardinality()
	}
	return n
}

func (r *Report) record(class, name string, err error) {
	bm, ok := r.Saved[class]
	if !ok {
		bm = roaring.New()
		r.Saved[class] = bm
	}
	ord := r.Attempted[class]
	r.Attempted[class] = ord + 1
	r.names[class] = append(r.names[class], name)
	if err == nil {
		bm.Add(ord)
	}
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the build logger.
func WithLogger(l *matio.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithManifestCodec sets the codec used for manifest.json.
func WithManifestCodec(c codec.Codec) Option {
	return func(b *Builder) { b.manifestCodec = c }
}

// Builder extracts patches with a fixed Config.
type Builder struct {
	cfg           Config
	mats          *matio.Codec
	logger        *matio.Logger
	manifestCodec codec.Codec
	now           func() time.Time
}

// NewBuilder validates cfg and returns a Builder writing matrices with mats.
// A nil mats uses a default codec.
func NewBuilder(cfg Config, mats *matio.Codec, optFns ...Option) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if mats == nil {
		mats = matio.New()
	}
	b := &Builder{
		cfg:           cfg,
		mats:          mats,
		logger:        matio.NoopLogger(),
		manifestCodec: codec.Default,
		now:           time.Now,
	}
	for _, fn := range optFns {
		fn(b)
	}
	return b, nil
}

// validClass reports whether c names exactly one directory directly below
// the output root.
func validClass(c string) bool {
	switch c {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(c, `/\`) && filepath.Clean(c) == c && filepath.IsLocal(c)
}

// Build processes samples in order. Unreadable images and patches that
// fail to save are recorded in the report and skipped. Build returns an
// error only when ctx is done or the output layout cannot be created.
func (b *Builder) Build(ctx context.Context, samples []Sample) (*Report, error) {
	rep := newReport()
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if !validClass(s.Class) {
			rep.Failures = append(rep.Failures, Failure{Class: s.Class, Path: s.Path, Err: fmt.Errorf("patch: bad class name %q", s.Class)})
			continue
		}
		if err := os.MkdirAll(filepath.Join(b.cfg.OutputDir, s.Class), 0o755); err != nil {
			return rep, err
		}
		if err := b.sample(ctx, rep, s); err != nil {
			return rep, err
		}
	}
	if err := b.writeManifest(rep); err != nil {
		return rep, err
	}
	b.logger.InfoContext(ctx, "patch dataset built",
		"dir", b.cfg.OutputDir,
		"classes", len(rep.Attempted),
		"saved", rep.Total(),
		"failures", len(rep.Failures))
	return rep, nil
}

func (b *Builder) load(path string) (*matrix.Matrix[uint8], error) {
	if b.cfg.Gray {
		return imageio.LoadGray(path)
	}
	return imageio.Load(path)
}

func (b *Builder) sample(ctx context.Context, rep *Report, s Sample) error {
	img, err := b.load(s.Path)
	if err != nil {
		b.logger.WarnContext(ctx, "skipping image", "path", s.Path, "error", err)
		rep.Failures = append(rep.Failures, Failure{Class: s.Class, Path: s.Path, Err: err})
		return nil
	}
	base := strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))

	for _, scale := range b.cfg.Scales {
		scaled, err := rescale(img, scale)
		if err != nil {
			rep.Failures = append(rep.Failures, Failure{Class: s.Class, Path: s.Path, Err: err})
			continue
		}
		h, w := scaled.Dim(0), scaled.Dim(1)
		for y := 0; y+b.cfg.PatchHeight <= h; y += b.cfg.Stride {
			for x := 0; x+b.cfg.PatchWidth <= w; x += b.cfg.Stride {
				if err := ctx.Err(); err != nil {
					return err
				}
				name := filepath.Join(s.Class, fmt.Sprintf("%s_%s_%d_%d%s",
					base, strconv.FormatFloat(scale, 'f', -1, 64), y, x, b.cfg.SaveMode.Ext()))
				err := b.save(filepath.Join(b.cfg.OutputDir, name), scaled, y, x)
				if err != nil {
					rep.Failures = append(rep.Failures, Failure{Class: s.Class, Path: name, Err: err})
				}
				rep.record(s.Class, name, err)
			}
		}
	}
	return nil
}

func rescale(img *matrix.Matrix[uint8], scale float64) (*matrix.Matrix[uint8], error) {
	if scale == 1 {
		return img, nil
	}
	h := int(math.Round(float64(img.Dim(0)) * scale))
	w := int(math.Round(float64(img.Dim(1)) * scale))
	if h == 0 || w == 0 {
		return nil, fmt.Errorf("patch: scale %v shrinks %dx%d image to nothing", scale, img.Dim(0), img.Dim(1))
	}
	return imageio.Resize(img, h, w)
}

func (b *Builder) save(path string, img *matrix.Matrix[uint8], y, x int) error {
	p, err := img.Narrow(0, y, b.cfg.PatchHeight)
	if err != nil {
		return err
	}
	if p, err = p.Narrow(1, x, b.cfg.PatchWidth); err != nil {
		return err
	}
	if b.cfg.SaveMode == SaveModePNG {
		return imageio.SavePNG(path, p)
	}
	return b.mats.SaveMatrix(path, p)
}

// Manifest is the JSON document describing a built dataset.
type Manifest struct {
	PatchHeight int             `json:"patch_height"`
	PatchWidth  int             `json:"patch_width"`
	Stride      int             `json:"stride"`
	Scales      []float64       `json:"scales"`
	Gray        bool            `json:"gray"`
	Mode        string          `json:"mode"`
	CreatedAt   time.Time       `json:"created_at"`
	Classes     []ClassManifest `json:"classes"`
	Failures    []string        `json:"failures,omitempty"`
}

// ClassManifest lists the saved patches of one class.
type ClassManifest struct {
	Name      string   `json:"name"`
	Attempted uint32   `json:"attempted"`
	Files     []string `json:"files"`
}

func (b *Builder) manifest(rep *Report) Manifest {
	m := Manifest{
		PatchHeight: b.cfg.PatchHeight,
		PatchWidth:  b.cfg.PatchWidth,
		Stride:      b.cfg.Stride,
		Scales:      b.cfg.Scales,
		Gray:        b.cfg.Gray,
		Mode:        b.cfg.SaveMode.String(),
		CreatedAt:   b.now().UTC(),
	}
	for _, c := range rep.Classes() {
		files := rep.Files(c)
		for i, f := range files {
			files[i] = filepath.ToSlash(f)
		}
		m.Classes = append(m.Classes, ClassManifest{Name: c, Attempted: rep.Attempted[c], Files: files})
	}
	for _, f := range rep.Failures {
		m.Failures = append(m.Failures, fmt.Sprintf("%s: %v", filepath.ToSlash(f.Path), f.Err))
	}
	return m
}

func (b *Builder) writeManifest(rep *Report) error {
	data, err := codec.MarshalPretty(b.manifestCodec, b.manifest(rep))
	if err != nil {
		return err
	}
	return persistence.SaveToFile(nil, filepath.Join(b.cfg.OutputDir, ManifestName), false, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// ReadManifest loads the manifest of a built dataset.
func ReadManifest(dir string, c codec.Codec) (Manifest, error) {
	if c == nil {
		c = codec.Default
	}
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return m, err
	}
	if err := c.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("patch: %s: %w", ManifestName, err)
	}
	return m, nil
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

// Collect lists the images under each class directory as samples, sorted
// by class and then by file name.
func Collect(classDirs map[string]string) ([]Sample, error) {
	classes := make([]string, 0, len(classDirs))
	for c := range classDirs {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	var out []Sample
	for _, c := range classes {
		entries, err := os.ReadDir(classDirs[c])
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			out = append(out, Sample{Class: c, Path: filepath.Join(classDirs[c], e.Name())})
		}
	}
	if len(out) == 0 {
		return nil, errors.New("patch: no images found")
	}
	return out, nil
}
