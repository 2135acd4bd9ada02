package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"runtime"
)

const iconSize = 32

var (
	iconFrame  = color.RGBA{R: 0x19, G: 0x76, B: 0xd2, A: 0xff}
	iconAccent = color.RGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}
)

// iconImage draws a dashed selection frame with a marker line through it.
func iconImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	frame := image.NewUniform(iconFrame)
	for i := 2; i < iconSize-2; i += 6 {
		end := min(i+4, iconSize-2)
		draw.Draw(img, image.Rect(i, 4, end, 7), frame, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(i, iconSize-7, end, iconSize-4), frame, image.Point{}, draw.Src)
	}
	for i := 4; i < iconSize-4; i += 6 {
		end := min(i+4, iconSize-4)
		draw.Draw(img, image.Rect(2, i, 5, end), frame, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(iconSize-5, i, iconSize-2, end), frame, image.Point{}, draw.Src)
	}
	for d := 0; d < iconSize-14; d++ {
		draw.Draw(img, image.Rect(7+d, iconSize-10-d, 10+d, iconSize-7-d), image.NewUniform(iconAccent), image.Point{}, draw.Src)
	}
	return img
}

// Icon returns the tray icon in the format the platform tray expects:
// ICO on Windows, PNG elsewhere.
func Icon() []byte {
	data := iconPNG()
	if runtime.GOOS == "windows" {
		return wrapICO(data, iconSize)
	}
	return data
}

func iconPNG() []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, iconImage())
	return buf.Bytes()
}

// wrapICO stores a PNG as the single image of an ICO file.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	header := struct {
		Reserved, Type, Count uint16
	}{0, 1, 1}
	entry := struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{uint8(size), uint8(size), 0, 0, 1, 32, uint32(len(pngData)), 6 + 16}
	_ = binary.Write(&buf, binary.LittleEndian, header)
	_ = binary.Write(&buf, binary.LittleEndian, entry)
	buf.Write(pngData)
	return buf.Bytes()
}
