package evaluator

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/modules"
	"github.com/nielssp/plet/internal/utils"
	"golang.org/x/image/draw"
)

// ImagesBuiltins returns the functions of the images module
func ImagesBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"image_info": {Name: "image_info", Fn: builtinImageInfo},
		"images":     {Name: "images", Fn: builtinImages},
	}
}

// image_info(src) returns {width, height, type} for an image relative to
// DIR, or nil when the file is not an image.
func builtinImageInfo(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	src, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	path, err := srcPath(env, src)
	if err != nil {
		return nil, err
	}
	mod, lerr := env.Modules().Load(path)
	if lerr != nil || mod.Image == nil {
		return NIL, nil
	}
	obj := env.Arena().NewObject()
	putField(env, obj, "width", integer(int64(mod.Image.Width)))
	putField(env, obj, "height", integer(int64(mod.Image.Height)))
	putField(env, obj, "type", str(mod.Image.Format))
	return obj, nil
}

var resizableImages = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}

type imageOptions struct {
	maxWidth         int
	maxHeight        int
	quality          int
	linkFull         bool
	preserveLossless bool
	srcRoot          string
	distRoot         string
}

// images(html, max_width=640, max_height=480, quality=100, link_full=true)
// copies pletasset: images to the assets directory of the output, scaling
// down images larger than the bounds or than their width and height
// attributes. Scaled images are linked to the full size copy when
// link_full is set. The new src attributes use pletlink: and are resolved
// by links().
func builtinImages(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 5); err != nil {
		return nil, err
	}
	maxWidth, err := optInt(args, 1, 640)
	if err != nil {
		return nil, err
	}
	maxHeight, err := optInt(args, 2, 480)
	if err != nil {
		return nil, err
	}
	quality, err := optInt(args, 3, 100)
	if err != nil {
		return nil, err
	}
	opts := imageOptions{
		maxWidth:         int(maxWidth),
		maxHeight:        int(maxHeight),
		quality:          int(quality),
		linkFull:         true,
		preserveLossless: true,
	}
	if opts.maxWidth < 1 || opts.maxHeight < 1 {
		return nil, ArgError(1, "image bounds must be positive")
	}
	if len(args) > 4 {
		opts.linkFull = IsTruthy(args[4])
	}
	if v, ok := env.Get(config.PreserveLosslessName); ok {
		opts.preserveLossless = IsTruthy(v)
	}
	var ok bool
	if opts.srcRoot, ok = env.GetString(config.SrcRootName); !ok {
		return nil, newError(diagnostics.ErrR001, "%s missing or not a string", config.SrcRootName)
	}
	if opts.distRoot, ok = env.GetString(config.DistRootName); !ok {
		return nil, newError(diagnostics.ErrR001, "%s missing or not a string", config.DistRootName)
	}
	node, asString, err := htmlInput(env, args[0])
	if err != nil {
		return nil, err
	}
	if !asString {
		node = CopyValue(node, env.Arena())
	}
	t := &imageTransform{e: e, env: env, opts: opts}
	if err := t.children(node); err != nil {
		return nil, err
	}
	return htmlOutput(env, node, asString), nil
}

type imageTransform struct {
	e    *Evaluator
	env  *Environment
	opts imageOptions
}

// children replaces every pletasset: img below node.
func (t *imageTransform) children(node Value) error {
	obj, ok := node.(*Object)
	if !ok {
		return nil
	}
	v, ok := field(t.env, obj, "children")
	if !ok {
		return nil
	}
	arr, ok := v.(*Array)
	if !ok {
		return nil
	}
	for i, child := range arr.Elements {
		el, ok := child.(*Object)
		if !ok {
			continue
		}
		if tag, _ := field(t.env, el, "tag"); isTagNamed(tag, "img") {
			replacement, err := t.image(el)
			if err != nil {
				return err
			}
			arr.Elements[i] = replacement
			continue
		}
		if err := t.children(el); err != nil {
			return err
		}
	}
	return nil
}

func isTagNamed(v Value, name string) bool {
	sym, ok := v.(*Symbol)
	return ok && sym.Name == name
}

func sizeAttribute(env *Environment, node *Object, name string) int {
	s, ok := attribute(env, node, name)
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func (t *imageTransform) image(node *Object) (Value, error) {
	src, ok := attribute(t.env, node, "src")
	if !ok || !strings.HasPrefix(src, config.AssetURIPrefix) {
		return node, nil
	}
	asset := strings.TrimPrefix(src, config.AssetURIPrefix)
	srcFile := filepath.Join(t.opts.srcRoot, filepath.FromSlash(asset))
	webPath := filepath.ToSlash(filepath.Join(config.AssetDir, filepath.FromSlash(asset)))
	width := sizeAttribute(t.env, node, "width")
	height := sizeAttribute(t.env, node, "height")

	link, full, err := t.handle(srcFile, webPath, &width, &height)
	if err != nil {
		return nil, err
	}
	setAttribute(t.env, node, "src", config.LinkURIPrefix+link)
	if width > 0 {
		setAttribute(t.env, node, "width", strconv.Itoa(width))
	}
	if height > 0 {
		setAttribute(t.env, node, "height", strconv.Itoa(height))
	}
	if full == "" {
		return node, nil
	}
	a := newElement(t.env, "a", false)
	setAttribute(t.env, a, "href", config.LinkURIPrefix+full)
	v, _ := field(t.env, a, "children")
	v.(*Array).Push(node)
	return a, nil
}

// handle writes the output copy of an image and returns its web path. When
// the image is scaled and linkFull is set, the web path of the full size
// copy is returned as well. width and height receive the displayed size.
func (t *imageTransform) handle(srcFile, webPath string, width, height *int) (string, string, error) {
	destFile := filepath.Join(t.opts.distRoot, filepath.FromSlash(webPath))
	ext := strings.ToLower(filepath.Ext(srcFile))
	var info *modules.AssetInfo
	if resizableImages[ext] {
		mod, err := t.env.Modules().Load(srcFile)
		if err != nil {
			return "", "", fmt.Errorf("error reading image %s", srcFile)
		}
		if mod.Image == nil {
			return "", "", fmt.Errorf("unknown image type: %s", srcFile)
		}
		info = mod.Image
	}
	if info == nil {
		return webPath, "", t.e.copyOutput(t.env, srcFile, destFile)
	}
	if info.Width <= t.opts.maxWidth && info.Height <= t.opts.maxHeight && *width == 0 && *height == 0 {
		*width, *height = info.Width, info.Height
		return webPath, "", t.e.copyOutput(t.env, srcFile, destFile)
	}
	targetWidth, targetHeight := t.targetSize(info, *width, *height)
	*width, *height = targetWidth, targetHeight
	full := ""
	if t.opts.linkFull {
		full = webPath
	}
	if targetWidth*targetHeight*2 >= info.Width*info.Height {
		return webPath, full, t.e.copyOutput(t.env, srcFile, destFile)
	}
	if t.opts.linkFull {
		if err := t.e.copyOutput(t.env, srcFile, destFile); err != nil {
			return "", "", err
		}
	}
	name := strings.TrimSuffix(webPath, filepath.Ext(webPath))
	outExt := ".jpg"
	if t.opts.preserveLossless && ext == ".png" {
		outExt = ".png"
	}
	scaled := fmt.Sprintf("%s.%dx%dq%d%s", name, targetWidth, targetHeight, t.opts.quality, outExt)
	scaledFile := filepath.Join(t.opts.distRoot, filepath.FromSlash(scaled))
	if utils.Outdated(srcFile, scaledFile) {
		if err := resizeImage(srcFile, scaledFile, targetWidth, targetHeight, t.opts.quality); err != nil {
			return "", "", fmt.Errorf("resizing %s: %w", srcFile, err)
		}
		if err := t.e.NotifyOutput(t.env, scaledFile); err != nil {
			return "", "", err
		}
	}
	return scaled, full, nil
}

// targetSize fits the requested size, or the image size, in the bounds
// while keeping the aspect ratio.
func (t *imageTransform) targetSize(info *modules.AssetInfo, width, height int) (int, int) {
	switch {
	case width > 0 && height > 0:
	case width > 0:
		height = width * info.Height / info.Width
	case height > 0:
		width = height * info.Width / info.Height
	default:
		width, height = info.Width, info.Height
	}
	if height == 0 {
		height = 1
	}
	ratio := float64(width) / float64(height)
	if ratio < float64(t.opts.maxWidth)/float64(t.opts.maxHeight) {
		h := min(height, t.opts.maxHeight)
		return int(float64(h) * ratio), h
	}
	w := min(width, t.opts.maxWidth)
	return w, int(float64(w) / ratio)
}

func newElement(env *Environment, tag string, selfClosing bool) *Object {
	obj := env.Arena().NewObject()
	putField(env, obj, "type", env.Intern("element"))
	putField(env, obj, "tag", env.Intern(tag))
	putField(env, obj, "attributes", env.Arena().NewObject())
	putField(env, obj, "children", env.Arena().NewArray(0))
	putField(env, obj, "self_closing", nativeBoolToBoolean(selfClosing))
	return obj
}

func resizeImage(src, dest string, width, height, quality int) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	img, _, err := image.Decode(in)
	if err != nil {
		return err
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(dest), ".png") {
		err = png.Encode(out, dst)
	} else {
		err = jpeg.Encode(out, dst, &jpeg.Options{Quality: min(max(quality, 1), 100)})
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	stat, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chtimes(dest, stat.ModTime(), stat.ModTime())
}
