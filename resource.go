package stage

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/stage/gl"
)

// Resource feeds pixel data to a BaseTexture. A BaseTexture without a
// resource (a render target) gets its storage allocated by the
// framebuffer system instead.
type Resource interface {
	// Width and Height are the pixel dimensions of the source data.
	Width() int
	Height() int

	// Upload pushes the pixels into glt, allocating storage when the
	// texture dimensions changed. It reports whether an upload happened.
	Upload(dev gl.Device, base *BaseTexture, glt *GLTexture) bool

	// Destroy releases CPU-side data. The GPU copies are owned by the
	// texture system and are released separately.
	Destroy()
}

// BufferResource wraps raw RGBA8 pixels. The byte slice must hold
// Width*Height*4 bytes in row-major order.
type BufferResource struct {
	Data []byte

	width, height int
}

// NewBufferResource creates a resource over raw RGBA8 pixels.
func NewBufferResource(data []byte, width, height int) *BufferResource {
	return &BufferResource{Data: data, width: width, height: height}
}

func (r *BufferResource) Width() int  { return r.width }
func (r *BufferResource) Height() int { return r.height }

func (r *BufferResource) Upload(dev gl.Device, base *BaseTexture, glt *GLTexture) bool {
	if len(r.Data) < r.width*r.height*4 {
		Logger().Warn("texture buffer too small, skipping upload",
			"need", r.width*r.height*4, "have", len(r.Data))
		return false
	}
	if glt.Width != r.width || glt.Height != r.height {
		glt.Tex.Storage(r.width, r.height, base.Format())
		glt.Width, glt.Height = r.width, r.height
	}
	glt.Tex.Upload(0, 0, r.width, r.height, r.Data)
	return true
}

func (r *BufferResource) Destroy() { r.Data = nil }

// ImageResource wraps an image.Image. The image is converted to
// premultiplied RGBA once, on first upload.
type ImageResource struct {
	img  image.Image
	rgba *image.RGBA
}

// NewImageResource creates a resource over an image.
func NewImageResource(img image.Image) *ImageResource {
	return &ImageResource{img: img}
}

// NewImageResourceFit creates a resource over an image, scaling it down
// with a Catmull-Rom kernel when either dimension exceeds maxSize.
// Aspect ratio is preserved.
func NewImageResourceFit(img image.Image, maxSize int) *ImageResource {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return &ImageResource{img: img}
	}
	scale := float64(maxSize) / float64(w)
	if h > w {
		scale = float64(maxSize) / float64(h)
	}
	dw := int(float64(w)*scale + 0.5)
	dh := int(float64(h)*scale + 0.5)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	Logger().Debug("image resource scaled to fit",
		"from_width", w, "from_height", h, "to_width", dw, "to_height", dh)
	return &ImageResource{img: dst, rgba: dst}
}

func (r *ImageResource) Width() int {
	if r.img == nil {
		return 0
	}
	return r.img.Bounds().Dx()
}

func (r *ImageResource) Height() int {
	if r.img == nil {
		return 0
	}
	return r.img.Bounds().Dy()
}

// pixels converts the source image to premultiplied RGBA with a zero
// origin. Images already in that layout are used directly.
func (r *ImageResource) pixels() *image.RGBA {
	if r.rgba != nil {
		return r.rgba
	}
	if rgba, ok := r.img.(*image.RGBA); ok &&
		rgba.Bounds().Min == (image.Point{}) && rgba.Stride == 4*rgba.Bounds().Dx() {
		r.rgba = rgba
		return rgba
	}
	b := r.img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), r.img, b.Min, draw.Src)
	r.rgba = dst
	return dst
}

func (r *ImageResource) Upload(dev gl.Device, base *BaseTexture, glt *GLTexture) bool {
	if r.img == nil {
		return false
	}
	w, h := r.Width(), r.Height()
	if limit := dev.Caps().MaxTextureSize; w > limit || h > limit {
		Logger().Warn("image exceeds device texture size, skipping upload",
			"width", w, "height", h, "max", limit)
		return false
	}
	rgba := r.pixels()
	if glt.Width != w || glt.Height != h {
		glt.Tex.Storage(w, h, base.Format())
		glt.Width, glt.Height = w, h
	}
	glt.Tex.Upload(0, 0, w, h, rgba.Pix)
	return true
}

func (r *ImageResource) Destroy() {
	r.img = nil
	r.rgba = nil
}
