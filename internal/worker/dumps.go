package worker

import (
	"image"

	"github.com/GriffinCanCode/deathwatch/internal/detect"
)

type namedImage struct {
	name string
	img  image.Image
}

// imageBuffer holds the images of one scan so only acted-on detections reach
// the debug sink. A nil buffer ignores every call.
type imageBuffer struct {
	items []namedImage
}

func (b *imageBuffer) Save(name string, img image.Image) {
	b.items = append(b.items, namedImage{name: name, img: img})
}

func (b *imageBuffer) Reset() {
	if b != nil {
		b.items = b.items[:0]
	}
}

func (b *imageBuffer) FlushTo(sink detect.ImageSink) {
	if b == nil || sink == nil {
		return
	}
	for _, it := range b.items {
		sink.Save(it.name, it.img)
	}
	b.items = b.items[:0]
}
