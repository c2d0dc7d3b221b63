package modules

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/webp"
)

// ImageInfo decodes the header of an image file. Files that are not
// images in a registered format return an error.
func ImageInfo(path string) (*AssetInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, err
	}
	return &AssetInfo{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}
